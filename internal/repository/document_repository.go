package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"document-ingestion-service/config"
	"document-ingestion-service/internal/model"
)

const documentColumns = `
	id, owner_id, document_type, status, version, is_current, storage_bucket, storage_path,
	original_filename, mime_type, size_bytes, sha256, reviewer_id, reviewed_at, review_note,
	deleted_by, deleted_at, storage_delete_scheduled_at, storage_deleted_at, created_at, updated_at`

type DocumentRepository struct {
	*config.Database
}

func NewDocumentRepository(database *config.Database) *DocumentRepository {
	return &DocumentRepository{database}
}

// Create : inserts a freshly reserved document version
func (r *DocumentRepository) Create(ctx context.Context, exec sqlx.ExtContext, document *model.Document) error {
	query := `
		INSERT INTO documents (
			id, owner_id, document_type, status, version, is_current, storage_bucket, storage_path,
			original_filename, mime_type, size_bytes, sha256, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := exec.ExecContext(
		ctx,
		query,
		document.ID,
		document.OwnerID,
		document.DocumentType,
		document.Status,
		document.Version,
		document.IsCurrent,
		document.StorageBucket,
		document.StoragePath,
		document.OriginalFilename,
		document.MimeType,
		document.SizeBytes,
		document.Sha256,
		document.CreatedAt,
		document.UpdatedAt,
	)

	return translateError(err)
}

// GetByID : returns the document regardless of owner or deletion state
func (r *DocumentRepository) GetByID(ctx context.Context, exec sqlx.ExtContext, documentID string) (*model.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	var document model.Document
	if err := sqlx.GetContext(ctx, exec, &document, query, documentID); err != nil {
		return nil, translateError(err)
	}

	return &document, nil
}

// NextVersion : 1 + highest version ever issued for (owner, type), deleted rows included
func (r *DocumentRepository) NextVersion(ctx context.Context, exec sqlx.ExtContext, ownerID string, documentType model.DocumentType) (int, error) {
	query := `
		SELECT COALESCE(MAX(version), 0) + 1
		FROM documents
		WHERE owner_id = $1 AND document_type = $2
	`

	var next int
	if err := sqlx.GetContext(ctx, exec, &next, query, ownerID, documentType); err != nil {
		return 0, translateError(err)
	}
	return next, nil
}

// DemoteCurrent : clears is_current on every other live current version and returns their ids
func (r *DocumentRepository) DemoteCurrent(ctx context.Context, exec sqlx.ExtContext, ownerID string, documentType model.DocumentType, exceptID string) ([]string, error) {
	query := `
		UPDATE documents
		SET is_current = FALSE, updated_at = NOW()
		WHERE owner_id = $1
		  AND document_type = $2
		  AND id <> $3
		  AND is_current = TRUE
		  AND deleted_at IS NULL
		RETURNING id
	`

	demoted := []string{}
	if err := sqlx.SelectContext(ctx, exec, &demoted, query, ownerID, documentType, exceptID); err != nil {
		return nil, translateError(err)
	}
	return demoted, nil
}

// MarkUploaded : promotes a confirmed upload to PENDING and current.
// The partial unique index on (owner_id, document_type) WHERE is_current AND deleted_at IS NULL
// rejects a second concurrent promotion.
func (r *DocumentRepository) MarkUploaded(ctx context.Context, exec sqlx.ExtContext, document *model.Document) error {
	query := `
		UPDATE documents
		SET status = $2,
		    is_current = TRUE,
		    original_filename = $3,
		    mime_type = $4,
		    size_bytes = $5,
		    sha256 = $6,
		    updated_at = $7
		WHERE id = $1
		  AND deleted_at IS NULL
		  AND status IN ('PENDING_UPLOAD', 'PENDING')
	`
	result, err := exec.ExecContext(
		ctx,
		query,
		document.ID,
		model.StatusPending,
		document.OriginalFilename,
		document.MimeType,
		document.SizeBytes,
		document.Sha256,
		document.UpdatedAt,
	)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(result)
}

// ListByOwner : live documents ordered by type, newest version first
func (r *DocumentRepository) ListByOwner(ctx context.Context, exec sqlx.ExtContext, ownerID string) ([]model.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY document_type ASC, version DESC, created_at DESC
	`

	documents := []model.Document{}
	if err := sqlx.SelectContext(ctx, exec, &documents, query, ownerID); err != nil {
		return nil, translateError(err)
	}
	return documents, nil
}

// SoftDelete : marks the document deleted and schedules physical removal
func (r *DocumentRepository) SoftDelete(ctx context.Context, exec sqlx.ExtContext, documentID, deletedBy string, at time.Time) error {
	query := `
		UPDATE documents
		SET status = 'DELETED',
		    is_current = FALSE,
		    deleted_by = $2,
		    deleted_at = $3,
		    storage_delete_scheduled_at = $3,
		    updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := exec.ExecContext(ctx, query, documentID, deletedBy, at)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(result)
}

func (r *DocumentRepository) MarkStorageDeleted(ctx context.Context, exec sqlx.ExtContext, documentID string, at time.Time) error {
	query := `
		UPDATE documents
		SET storage_deleted_at = $2
		WHERE id = $1 AND deleted_at IS NOT NULL AND storage_deleted_at IS NULL
	`
	result, err := exec.ExecContext(ctx, query, documentID, at)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(result)
}

// ListPendingStorageDeletes : soft-deleted documents whose objects are still in storage, oldest first
func (r *DocumentRepository) ListPendingStorageDeletes(ctx context.Context, exec sqlx.ExtContext, limit int) ([]model.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE deleted_at IS NOT NULL
		  AND storage_delete_scheduled_at IS NOT NULL
		  AND storage_deleted_at IS NULL
		ORDER BY storage_delete_scheduled_at ASC
		LIMIT $1
	`

	documents := []model.Document{}
	if err := sqlx.SelectContext(ctx, exec, &documents, query, limit); err != nil {
		return nil, translateError(err)
	}
	return documents, nil
}

// UpdateReview : records a staff decision on a PENDING document
func (r *DocumentRepository) UpdateReview(ctx context.Context, exec sqlx.ExtContext, documentID string, status model.DocumentStatus, reviewerID string, note *string, at time.Time) error {
	query := `
		UPDATE documents
		SET status = $2, reviewer_id = $3, review_note = $4, reviewed_at = $5, updated_at = $5
		WHERE id = $1 AND status = 'PENDING' AND deleted_at IS NULL
	`
	result, err := exec.ExecContext(ctx, query, documentID, status, reviewerID, note, at)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(result)
}

func (r *DocumentRepository) Executor() sqlx.ExtContext {
	return r.DB
}

func (r *DocumentRepository) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return tx, tx.Rollback, tx.Commit, nil
}
