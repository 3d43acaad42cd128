package riverpress

import (
	"context"
	"errors"

	"github.com/grandriver/riverpress/model"
)

func scanImage(r rowScanner) (model.Image, error) {
	var img model.Image
	err := r.Scan(&img.ID, &img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.UploadedAt)
	return img, err
}

// ListImages returns uploaded images, newest first.
func (s *Store) ListImages(ctx context.Context) ([]model.Image, error) {
	return queryAll(ctx, s.q, scanImage,
		`SELECT id, filename, original_name, width, height, size, uploaded_at FROM images ORDER BY uploaded_at DESC, id DESC`)
}

// ImageTaken reports whether an image with filename is recorded.
func (s *Store) ImageTaken(ctx context.Context, filename string) (bool, error) {
	_, err := queryOne(ctx, s.q, scanInt, `SELECT id FROM images WHERE filename = ?`, filename)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// SaveImage records an uploaded image and returns its id.
func (s *Store) SaveImage(ctx context.Context, img model.Image) (int64, error) {
	return execute(ctx, s.q,
		`INSERT INTO images (filename, original_name, width, height, size, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.UploadedAt)
}

// DeleteImage removes the record for filename. A missing record is not an error.
func (s *Store) DeleteImage(ctx context.Context, filename string) error {
	_, err := execute(ctx, s.q, `DELETE FROM images WHERE filename = ?`, filename)
	return err
}
