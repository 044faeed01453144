package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"document-ingestion-service/internal/apperror"
	"document-ingestion-service/internal/metrics"
	"document-ingestion-service/internal/model"
	"document-ingestion-service/internal/ports"
)

const MaxIdempotencyKeyLength = 255

const (
	outcomeExecuted   = "executed"
	outcomeReplayed   = "replayed"
	outcomeReconciled = "reconciled"
	outcomeConflict   = "conflict"
)

// IdempotencyService : guards mutating operations with the idempotency ledger.
// Duplicate calls inside one process are coalesced by singleflight; duplicates across
// processes are arbitrated by the unique index on (actor_id, scope, idempotency_key).
type IdempotencyService struct {
	repository ports.IdempotencyRepository
	metrics    *metrics.Metrics
	group      singleflight.Group
	now        func() time.Time
}

func NewIdempotencyService(repository ports.IdempotencyRepository, m *metrics.Metrics) *IdempotencyService {
	return &IdempotencyService{
		repository: repository,
		metrics:    m,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Execute : runs handler once for a previously unseen (actor, scope, key) and replays the stored
// response for every later call carrying the same payload
func (s *IdempotencyService) Execute(
	ctx context.Context,
	actorID, scope, idempotencyKey string,
	payload any,
	handler ports.IdempotentHandler,
) (json.RawMessage, error) {
	if n := len(idempotencyKey); n == 0 || n > MaxIdempotencyKeyLength {
		return nil, apperror.Validation("Idempotency-Key header must be between 1 and 255 characters")
	}

	requestHash, err := Fingerprint(payload)
	if err != nil {
		return nil, apperror.Internal("fingerprint request payload", err)
	}

	flight := actorID + "|" + scope + "|" + idempotencyKey
	value, err, _ := s.group.Do(flight, func() (any, error) {
		return s.resolve(ctx, actorID, scope, idempotencyKey, requestHash, handler)
	})
	if err != nil {
		return nil, err
	}

	record := value.(*model.IdempotencyRecord)
	if record.RequestHash != requestHash {
		s.metrics.RecordIdempotency(scope, outcomeConflict)
		return nil, apperror.Conflict("idempotency key reused with a different payload")
	}
	return record.Response, nil
}

func (s *IdempotencyService) resolve(
	ctx context.Context,
	actorID, scope, idempotencyKey, requestHash string,
	handler ports.IdempotentHandler,
) (*model.IdempotencyRecord, error) {
	exec := s.repository.Executor()

	existing, err := s.repository.Find(ctx, exec, actorID, scope, idempotencyKey)
	if err == nil {
		s.metrics.RecordIdempotency(scope, outcomeReplayed)
		return existing, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Internal("read idempotency record", err)
	}

	result, err := handler(ctx)
	if err != nil {
		return nil, err
	}

	response, err := json.Marshal(result)
	if err != nil {
		return nil, apperror.Internal("encode idempotent response", err)
	}

	record := &model.IdempotencyRecord{
		ActorID:        actorID,
		Scope:          scope,
		IdempotencyKey: idempotencyKey,
		RequestHash:    requestHash,
		Response:       response,
		CreatedAt:      s.now(),
	}
	if err := s.repository.Insert(ctx, exec, record); err != nil {
		if !errors.Is(err, apperror.ErrUniqueViolation) {
			return nil, apperror.Internal("store idempotency record", err)
		}

		// another process committed the same key first; its record wins
		winner, findErr := s.repository.Find(ctx, exec, actorID, scope, idempotencyKey)
		if findErr != nil {
			return nil, apperror.Internal("re-read idempotency record", findErr)
		}
		slog.Warn("[IdempotencyService] concurrent execution reconciled",
			"actor_id", actorID, "scope", scope)
		s.metrics.RecordIdempotency(scope, outcomeReconciled)
		return winner, nil
	}

	s.metrics.RecordIdempotency(scope, outcomeExecuted)
	return record, nil
}

// Fingerprint : sha256 over the canonical JSON form of payload.
// Object keys are sorted and null or empty-string members dropped, so field order and
// absent optional fields do not change the hash.
func Fingerprint(payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var generic any
	if err := decoder.Decode(&generic); err != nil {
		return "", err
	}

	// encoding/json writes map keys in sorted order
	canonical, err := json.Marshal(dropEmpty(generic))
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// dropEmpty : an empty string member means the same as an absent one
func dropEmpty(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, member := range v {
			if member == nil || member == "" {
				continue
			}
			out[key] = dropEmpty(member)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = dropEmpty(item)
		}
		return out
	default:
		return v
	}
}
