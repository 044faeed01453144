package ports

import (
	"context"

	"document-ingestion-service/internal/model"
)

// CacheRepository : Redis layer. GetDocument returns nil, nil on a miss.
// DeleteDocument leaves a short-lived tombstone and SetDocument never overwrites an
// occupied key, so a read-through that raced an eviction is dropped.
type CacheRepository interface {
	SetDocument(ctx context.Context, document *model.Document) error
	GetDocument(ctx context.Context, documentID string) (*model.Document, error)
	DeleteDocument(ctx context.Context, documentIDs ...string) error
}
