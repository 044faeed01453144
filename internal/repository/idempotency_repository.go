package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"document-ingestion-service/config"
	"document-ingestion-service/internal/model"
)

type IdempotencyRepository struct {
	*config.Database
}

func NewIdempotencyRepository(database *config.Database) *IdempotencyRepository {
	return &IdempotencyRepository{database}
}

// Find : returns apperror.ErrNotFound when no record exists for the triple
func (r *IdempotencyRepository) Find(ctx context.Context, exec sqlx.ExtContext, actorID, scope, idempotencyKey string) (*model.IdempotencyRecord, error) {
	query := `
		SELECT actor_id, scope, idempotency_key, request_hash, response, created_at
		FROM idempotency_records
		WHERE actor_id = $1 AND scope = $2 AND idempotency_key = $3
	`

	var record model.IdempotencyRecord
	if err := sqlx.GetContext(ctx, exec, &record, query, actorID, scope, idempotencyKey); err != nil {
		return nil, translateError(err)
	}
	return &record, nil
}

// Insert : a concurrent writer for the same triple surfaces as apperror.ErrUniqueViolation
func (r *IdempotencyRepository) Insert(ctx context.Context, exec sqlx.ExtContext, record *model.IdempotencyRecord) error {
	query := `
		INSERT INTO idempotency_records (actor_id, scope, idempotency_key, request_hash, response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	// jsonb must be sent as text, lib/pq encodes []byte as bytea
	_, err := exec.ExecContext(
		ctx,
		query,
		record.ActorID,
		record.Scope,
		record.IdempotencyKey,
		record.RequestHash,
		string(record.Response),
		record.CreatedAt,
	)
	return translateError(err)
}

func (r *IdempotencyRepository) Executor() sqlx.ExtContext {
	return r.DB
}
