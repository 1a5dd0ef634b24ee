package service

import (
	"context"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentChange(t *testing.T) {
	tests := []struct {
		prev, cur string
		want      float64
	}{
		{"0", "0", 0},
		{"0", "12", 100},
		{"10", "15", 50},
		{"20", "5", -75},
		{"3", "4", 33.3},
		{"1500.50", "1500.50", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PercentChange(dec(tt.prev), dec(tt.cur)), "%s -> %s", tt.prev, tt.cur)
	}
}

func TestAdminDashboardComparesMonths(t *testing.T) {
	f := newOrderFixture(t)
	placeTestOrder(t, f, 1)

	f.store.stats["2024-03"] = models.MonthStats{Orders: 6, Customers: 2, Products: 0, Revenue: dec("1500")}
	f.store.stats["2024-02"] = models.MonthStats{Orders: 4, Customers: 0, Products: 0, Revenue: dec("1000")}

	svc := NewReportService(f.store, f.store, f.store, f.store, f.store)
	svc.now = func() time.Time { return fixedNow }

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2024-03", d.Month)
	assert.Equal(t, 50.0, d.Orders.Change)
	assert.Equal(t, 100.0, d.Customers.Change)
	assert.Equal(t, 0.0, d.Products.Change)
	assert.Equal(t, 50.0, d.Revenue.Change)
	assert.Len(t, d.RecentOrders, 1)
}

func TestUserDashboard(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		placeTestOrder(t, f, 1)
	}
	for i := 0; i < 5; i++ {
		f.store.addProduct("Extra", "1.00", 1, true)
	}
	_, err := f.store.AddToCart(ctx, f.user.ID, f.widget.ID, 2)
	require.NoError(t, err)
	require.NoError(t, f.store.AddToWishlist(ctx, f.user.ID, f.widget.ID))

	svc := NewReportService(f.store, f.store, f.store, f.store, f.store)
	d, err := svc.UserDashboard(ctx, f.user.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, d.WishlistCount)
	assert.Equal(t, 2, d.CartCount)
	assert.Len(t, d.RecentOrders, 3)
	assert.Len(t, d.LatestProducts, 4)
}

func TestMonthlyStatsUsesCalendarMonth(t *testing.T) {
	ms := newMemStore()
	ms.stats["2024-02"] = models.MonthStats{Orders: 9, Revenue: dec("10")}
	svc := NewReportService(ms, ms, ms, ms, ms)

	stats, err := svc.MonthlyStats(context.Background(), time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 9, stats.Orders)
}
