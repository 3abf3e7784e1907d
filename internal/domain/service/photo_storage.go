package service

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// ErrPhotoNotFound is returned when no object exists under the key.
var ErrPhotoNotFound = errors.New("photo not found")

// Photo is an uploaded image.
type Photo struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// PhotoStorage keeps store photos in object storage.
type PhotoStorage interface {
	// Save writes the content under key and returns the number of bytes stored.
	Save(ctx context.Context, key, contentType string, r io.Reader) (int64, error)

	// Open returns a reader for the object. Callers close Photo.Body.
	Open(ctx context.Context, key string) (*Photo, error)

	Delete(ctx context.Context, key string) error
}
