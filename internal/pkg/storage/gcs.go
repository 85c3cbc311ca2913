package storage

import (
	"context"
	"errors"
	"io"

	gcs "cloud.google.com/go/storage"
)

// GCSAdapter implements Storage using Google Cloud Storage.
type GCSAdapter struct {
	client *gcs.Client
}

type GCSOptions struct {
	// Client is a preconfigured client; when nil one is built from application default credentials.
	Client *gcs.Client
}

func NewGCS(ctx context.Context, opts GCSOptions) (*GCSAdapter, error) {
	if opts.Client != nil {
		return &GCSAdapter{client: opts.Client}, nil
	}

	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSAdapter{client: client}, nil
}

func (g *GCSAdapter) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	reader, err := g.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, ObjectInfo{}, mapGCSError(err)
	}

	return reader, ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        reader.Attrs.Size,
		ContentType: reader.Attrs.ContentType,
		UpdatedAt:   reader.Attrs.LastModified,
	}, nil
}

func (g *GCSAdapter) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	attrs, err := g.client.Bucket(bucket).Object(key).Attrs(ctx)
	if err != nil {
		return ObjectInfo{}, mapGCSError(err)
	}

	return ObjectInfo{
		Bucket:      attrs.Bucket,
		Key:         attrs.Name,
		Size:        attrs.Size,
		ETag:        attrs.Etag,
		ContentType: attrs.ContentType,
		UpdatedAt:   attrs.Updated,
	}, nil
}

func (g *GCSAdapter) Close() error {
	return g.client.Close()
}

func mapGCSError(err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
		return errors.Join(ErrObjectNotFound, err)
	}
	return err
}
