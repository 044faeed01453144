package ports

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"document-ingestion-service/internal/model"
	"document-ingestion-service/internal/model/requestresponse"
)

// DocumentRepository : SQL layer for the document lifecycle store
type DocumentRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, document *model.Document) error
	GetByID(ctx context.Context, exec sqlx.ExtContext, documentID string) (*model.Document, error)
	NextVersion(ctx context.Context, exec sqlx.ExtContext, ownerID string, documentType model.DocumentType) (int, error)
	DemoteCurrent(ctx context.Context, exec sqlx.ExtContext, ownerID string, documentType model.DocumentType, exceptID string) ([]string, error)
	MarkUploaded(ctx context.Context, exec sqlx.ExtContext, document *model.Document) error
	ListByOwner(ctx context.Context, exec sqlx.ExtContext, ownerID string) ([]model.Document, error)
	SoftDelete(ctx context.Context, exec sqlx.ExtContext, documentID, deletedBy string, at time.Time) error
	MarkStorageDeleted(ctx context.Context, exec sqlx.ExtContext, documentID string, at time.Time) error
	ListPendingStorageDeletes(ctx context.Context, exec sqlx.ExtContext, limit int) ([]model.Document, error)
	UpdateReview(ctx context.Context, exec sqlx.ExtContext, documentID string, status model.DocumentStatus, reviewerID string, note *string, at time.Time) error
	Executor() sqlx.ExtContext
	BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error)
}

// DocumentService : ingestion operations exposed over HTTP
type DocumentService interface {
	RequestUploadURL(ctx context.Context, actorID, idempotencyKey string, request *requestresponse.UploadURLRequest) (*requestresponse.UploadURLResponse, error)
	CompleteUpload(ctx context.Context, actorID, documentID, idempotencyKey string, request *requestresponse.CompleteUploadRequest) (*requestresponse.DocumentView, error)
	ListMyDocuments(ctx context.Context, actorID string) ([]requestresponse.DocumentView, error)
	GetDownloadURL(ctx context.Context, actorID, documentID string) (*requestresponse.DownloadURLResponse, error)
	DeleteMyDocument(ctx context.Context, actorID, documentID string) error
	DeleteDocumentAsAdmin(ctx context.Context, adminID, documentID string) error
	ReviewDocument(ctx context.Context, reviewerID, documentID string, request *requestresponse.ReviewRequest) (*requestresponse.DocumentView, error)
}
