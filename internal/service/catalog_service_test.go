package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestCatalogCreateSanitizesAndStoresImage(t *testing.T) {
	ms := newMemStore()
	images := &LocalImageStore{Dir: t.TempDir(), MaxBytes: 1024}
	svc := NewCatalogService(ms, images, 10, 12)
	ctx := context.Background()

	p, err := svc.Create(ctx, ProductInput{
		Name:        "  Rice Cooker ",
		Description: `<p>Cooks rice</p><script>alert(1)</script>`,
		Price:       dec("1299.999"),
		Stock:       4,
	}, &ImageUpload{Filename: "cooker.PNG", Size: 5, Reader: strings.NewReader("image")})
	require.NoError(t, err)

	assert.Equal(t, "Rice Cooker", p.Name)
	assert.Equal(t, "<p>Cooks rice</p>", p.Description)
	assert.Equal(t, "1300.00", p.Price.StringFixed(2))
	assert.True(t, p.IsActive)
	require.NotNil(t, p.Image)
	assert.True(t, strings.HasSuffix(*p.Image, ".png"))
	assert.FileExists(t, filepath.Join(images.Dir, *p.Image))
	assert.Equal(t, "Low Stock", svc.StockStatus(p.Stock))
}

func TestCatalogUpdateReplacesImage(t *testing.T) {
	ms := newMemStore()
	images := &LocalImageStore{Dir: t.TempDir()}
	svc := NewCatalogService(ms, images, 10, 12)
	ctx := context.Background()

	p, err := svc.Create(ctx, ProductInput{Name: "Fan", Price: dec("999"), Stock: 3}, &ImageUpload{Filename: "a.jpg", Reader: strings.NewReader("a")})
	require.NoError(t, err)
	oldPath := filepath.Join(images.Dir, *p.Image)

	p, err = svc.Update(ctx, p.ID, ProductInput{Name: "Fan", Price: dec("899"), Stock: 3, IsActive: boolPtr(false)}, &ImageUpload{Filename: "b.gif", Reader: strings.NewReader("b")})
	require.NoError(t, err)
	assert.NoFileExists(t, oldPath)
	assert.FileExists(t, filepath.Join(images.Dir, *p.Image))
	assert.False(t, p.IsActive)

	_, err = svc.GetActive(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	p, err = svc.Update(ctx, p.ID, ProductInput{Name: "Fan", Price: dec("899"), Stock: 3, RemoveImage: true}, nil)
	require.NoError(t, err)
	assert.Nil(t, p.Image)

	entries, err := os.ReadDir(images.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCatalogDeleteBlockedByOrders(t *testing.T) {
	f := newOrderFixture(t)
	placeTestOrder(t, f, 1)
	svc := NewCatalogService(f.store, &LocalImageStore{Dir: t.TempDir()}, 10, 12)

	err := svc.Delete(context.Background(), f.widget.ID)
	assert.ErrorIs(t, err, ErrProductInUse)
	assert.ErrorIs(t, err, ErrConflict)

	spare := f.store.addProduct("Spare", "1.00", 1, true)
	require.NoError(t, svc.Delete(context.Background(), spare.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), spare.ID), ErrNotFound)
}

func TestCatalogListActiveHidesInactive(t *testing.T) {
	ms := newMemStore()
	ms.addProduct("Visible", "1.00", 1, true)
	ms.addProduct("Hidden", "1.00", 1, false)
	svc := NewCatalogService(ms, nil, 10, 12)

	page, err := svc.ListActive(context.Background(), ProductQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 12, page.PerPage)

	page, err = svc.List(context.Background(), ProductQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
}

func TestLocalImageStoreRejectsBadUploads(t *testing.T) {
	images := &LocalImageStore{Dir: t.TempDir(), MaxBytes: 4}

	_, err := images.Save(ImageUpload{Filename: "shell.php", Size: 1, Reader: strings.NewReader("x")})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = images.Save(ImageUpload{Filename: "big.jpg", Size: 10, Reader: strings.NewReader("0123456789")})
	assert.ErrorAs(t, err, &ve)

	_, err = images.Save(ImageUpload{Filename: "liar.jpg", Size: 1, Reader: strings.NewReader("0123456789")})
	assert.Error(t, err)

	entries, _ := os.ReadDir(images.Dir)
	assert.Empty(t, entries)
}

func TestLocalImageStoreRemoveStaysInDir(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(filepath.Dir(dir), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	t.Cleanup(func() { os.Remove(outside) })

	images := &LocalImageStore{Dir: dir}
	assert.Error(t, images.Remove("../keep.txt"))
	assert.Error(t, images.Remove("nested/file.png"))
	assert.FileExists(t, outside)
	assert.NoError(t, images.Remove("missing.png"))
	assert.NoError(t, images.Remove(""))
}

func TestCustomerManagement(t *testing.T) {
	ms := newMemStore()
	admin := ms.addUser("Boss", "admin", "Active")
	svc := NewCustomerService(ms)
	ctx := context.Background()

	c, err := svc.Create(ctx, CustomerInput{Name: "Lea", Email: "lea@example.com", Password: "secret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "Active", c.Status)
	assert.NotEqual(t, "secret-pass", c.PasswordHash)

	_, err = svc.Create(ctx, CustomerInput{Name: "Lea", Email: "lea@example.com"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "password")

	hash := c.PasswordHash
	c, err = svc.Update(ctx, c.ID, CustomerInput{Name: "Lea M", Email: "lea@example.com", Status: "Inactive"})
	require.NoError(t, err)
	assert.Equal(t, "Inactive", c.Status)
	assert.Equal(t, hash, c.PasswordHash, "password kept when omitted")

	_, err = svc.Update(ctx, c.ID, CustomerInput{Name: "Lea", Email: "lea@example.com", Status: "Banned"})
	assert.ErrorAs(t, err, &ve)

	_, err = svc.Get(ctx, admin.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, admin.ID), ErrNotFound)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	require.NoError(t, svc.Delete(ctx, c.ID))
}
