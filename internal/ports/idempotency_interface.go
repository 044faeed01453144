package ports

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"document-ingestion-service/internal/model"
)

// IdempotencyRepository : SQL layer for the idempotency ledger
type IdempotencyRepository interface {
	Find(ctx context.Context, exec sqlx.ExtContext, actorID, scope, idempotencyKey string) (*model.IdempotencyRecord, error)
	Insert(ctx context.Context, exec sqlx.ExtContext, record *model.IdempotencyRecord) error
	Executor() sqlx.ExtContext
}

type IdempotentHandler func(ctx context.Context) (any, error)

// IdempotencyGuard : runs handler at most once per (actor, scope, key) and replays its frozen result
type IdempotencyGuard interface {
	Execute(ctx context.Context, actorID, scope, idempotencyKey string, payload any, handler IdempotentHandler) (json.RawMessage, error)
}
