package storage

import (
	"context"
	"io"
	"time"
)

// ExportRepository stores generated report files and hands out
// time-limited download URLs
type ExportRepository interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, objectPath string) error
}
