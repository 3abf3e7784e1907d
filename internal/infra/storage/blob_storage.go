// Package storage keeps uploaded store photos in a gocloud bucket.
package storage

import (
	"context"
	"io"
	"log/slog"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/gcsblob"  // gs:// buckets
	_ "gocloud.dev/blob/memblob"  // mem:// buckets
	"gocloud.dev/gcerrors"
)

const defaultBucketURL = "mem://"

type blobPhotoStorage struct {
	bucket *blob.Bucket
}

// Params defines the required parameters
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewPhotoStorage opens the bucket configured under blob.bucketUrl.
func NewPhotoStorage(params Params) (service.PhotoStorage, error) {
	bucketURL := defaultBucketURL
	if params.Config.Blob != nil && params.Config.Blob.BucketURL != "" {
		bucketURL = params.Config.Blob.BucketURL
	}

	bucket, err := blob.OpenBucket(params.Ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bucket %s", bucketURL)
	}

	params.Logger.Info("Photo bucket opened", slog.String("url", bucketURL))

	params.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return bucket.Close()
		},
	})

	return NewBlobPhotoStorage(bucket), nil
}

// NewBlobPhotoStorage wraps an already opened bucket.
func NewBlobPhotoStorage(bucket *blob.Bucket) service.PhotoStorage {
	return &blobPhotoStorage{bucket: bucket}
}

func (s *blobPhotoStorage) Save(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	w, err := s.bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return 0, errors.Wrap(err, "failed to open photo writer")
	}

	n, copyErr := io.Copy(w, r)
	closeErr := w.Close()
	if copyErr != nil {
		return 0, errors.Wrap(copyErr, "failed to write photo")
	}
	if closeErr != nil {
		return 0, errors.Wrap(closeErr, "failed to commit photo")
	}

	return n, nil
}

func (s *blobPhotoStorage) Open(ctx context.Context, key string) (*service.Photo, error) {
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, service.ErrPhotoNotFound
		}

		return nil, errors.Wrap(err, "failed to open photo")
	}

	return &service.Photo{
		Key:         key,
		ContentType: r.ContentType(),
		Size:        r.Size(),
		Body:        r,
	}, nil
}

func (s *blobPhotoStorage) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Delete(ctx, key); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil
		}

		return errors.Wrap(err, "failed to delete photo")
	}

	return nil
}
