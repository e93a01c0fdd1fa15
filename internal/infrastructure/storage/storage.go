// Package storage holds document bytes. The relational record of a document
// lives in Postgres; the blob lives behind a BlobStore keyed by the
// document's storage key.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/turtacn/patentdesk/internal/config"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/infrastructure/storage/minio"
	"github.com/turtacn/patentdesk/internal/infrastructure/storage/s3"
)

// BlobStore persists opaque objects by key. Delete of an absent key succeeds.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// Name and Check make every store usable as a readiness checker.
	Name() string
	Check(ctx context.Context) error
}

// New builds the BlobStore selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, log logging.Logger) (BlobStore, error) {
	switch cfg.Driver {
	case config.StorageLocal, "":
		return NewLocalStore(cfg.LocalDir, log)
	case config.StorageMinIO:
		return minio.NewClient(ctx, cfg.MinIO, log)
	case config.StorageS3:
		return s3.NewClient(ctx, cfg.S3, log)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
