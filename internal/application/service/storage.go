package service

import (
	"context"
	"errors"
	"io"
)

// ErrBucketNotFound is returned when the named bucket is not configured.
var ErrBucketNotFound = errors.New("bucket not found")

type ObjectStorage interface {
	Upload(ctx context.Context, bucket, path string, file io.Reader) error
	PublicURL(bucket, path string) string
	Remove(ctx context.Context, bucket string, paths []string) error
}
