package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var allowedImageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

// ImageUpload is an uploaded product image
type ImageUpload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// ImageStore saves and removes product images
type ImageStore interface {
	Save(upload ImageUpload) (string, error)
	Remove(name string) error
}

// LocalImageStore keeps images in one directory on disk
type LocalImageStore struct {
	Dir      string
	MaxBytes int64
}

// Save writes the upload under a random name and returns that name.
func (l *LocalImageStore) Save(upload ImageUpload) (string, error) {
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if _, ok := allowedImageExtensions[ext]; !ok {
		return "", NewValidationError("image", "image must be a file of type: jpeg, jpg, png, gif")
	}
	if l.MaxBytes > 0 && upload.Size > l.MaxBytes {
		return "", NewValidationError("image", fmt.Sprintf("image may not be greater than %d kilobytes", l.MaxBytes/1024))
	}

	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := uuid.New().String() + ext
	out, err := os.Create(filepath.Join(l.Dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer out.Close()

	r := upload.Reader
	if l.MaxBytes > 0 {
		r = io.LimitReader(r, l.MaxBytes+1)
	}
	n, err := io.Copy(out, r)
	if err == nil && l.MaxBytes > 0 && n > l.MaxBytes {
		err = fmt.Errorf("image exceeds %d bytes", l.MaxBytes)
	}
	if err != nil {
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return name, nil
}

// Remove deletes a stored image. Names that resolve outside the upload
// directory are refused; a missing file is not an error.
func (l *LocalImageStore) Remove(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil
	}

	if trimmed != filepath.Base(trimmed) || trimmed == "." || trimmed == ".." {
		return fmt.Errorf("refusing to delete non-upload path: %s", name)
	}

	base := filepath.Clean(l.Dir)
	target := filepath.Join(base, trimmed)
	if !strings.HasPrefix(target, base+string(os.PathSeparator)) {
		return fmt.Errorf("refusing to delete path outside upload dir: %s", name)
	}

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
