// Package storage reads objects from S3, GCS or MinIO.
//
// The service only pulls reference data (the GeoIP city database) from object
// storage, so the surface is read-only.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned by every driver when the key does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// Storage reads objects from a bucket.
type Storage interface {
	io.Closer

	// GetObject streams the object. The caller closes the reader.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	// StatObject returns object metadata without reading its contents.
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
}

// ObjectInfo describes object metadata.
type ObjectInfo struct {
	Bucket      string
	Key         string
	Size        int64
	ETag        string
	ContentType string
	UpdatedAt   time.Time
}
