package ports

import (
	"context"
	"time"

	"document-ingestion-service/internal/model"
)

// StorageGateway : object store operations the ingestion service depends on
type StorageGateway interface {
	SignUpload(ctx context.Context, path, contentType string, ttl time.Duration) (*model.SignedURL, error)
	SignDownload(ctx context.Context, path string, ttl time.Duration) (*model.SignedURL, error)
	// StatObject returns nil, nil when the object does not exist
	StatObject(ctx context.Context, path string) (*model.ObjectInfo, error)
	DeletePrefix(ctx context.Context, prefix string) error
}
