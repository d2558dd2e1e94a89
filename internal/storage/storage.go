package storage

import (
	"context"
	"io"
	"time"
)

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// PutOptions describes an object upload.
type PutOptions struct {
	Bucket      string
	Key         string
	ContentType string
}

// Service stores task attachments in remote object storage.
type Service interface {
	PutObject(ctx context.Context, body io.Reader, opts PutOptions) error
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	DeletePrefix(ctx context.Context, bucket, prefix string) error
	GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}
