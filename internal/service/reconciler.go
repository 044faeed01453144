package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"document-ingestion-service/config"
	"document-ingestion-service/internal/apperror"
	"document-ingestion-service/internal/metrics"
	"document-ingestion-service/internal/ports"
)

// StorageReconciler : retries physical deletion for soft-deleted documents whose
// inline delete failed
type StorageReconciler struct {
	documentRepository ports.DocumentRepository
	storage            ports.StorageGateway
	limiter            *rate.Limiter
	interval           time.Duration
	batchSize          int
	metrics            *metrics.Metrics
	now                func() time.Time
}

func NewStorageReconciler(
	documentRepository ports.DocumentRepository,
	storage ports.StorageGateway,
	cfg config.ReconcilerConfig,
	m *metrics.Metrics,
) *StorageReconciler {
	limit := rate.Inf
	if cfg.DeletesPerSecond > 0 {
		limit = rate.Limit(cfg.DeletesPerSecond)
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	return &StorageReconciler{
		documentRepository: documentRepository,
		storage:            storage,
		limiter:            rate.NewLimiter(limit, 1),
		interval:           interval,
		batchSize:          batchSize,
		metrics:            m,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// Run : sweeps every interval until ctx is cancelled
func (r *StorageReconciler) Run(ctx context.Context) error {
	slog.Info("[StorageReconciler] started", "interval", r.interval.String(), "batch_size", r.batchSize)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("[StorageReconciler] stopped")
			return nil
		case <-ticker.C:
			removed, err := r.Sweep(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("[StorageReconciler] sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("[StorageReconciler] sweep finished", "removed", removed)
			}
		}
	}
}

// Sweep : one pass over the oldest pending deletes, returns how many were removed
func (r *StorageReconciler) Sweep(ctx context.Context) (int, error) {
	exec := r.documentRepository.Executor()

	pending, err := r.documentRepository.ListPendingStorageDeletes(ctx, exec, r.batchSize)
	if err != nil {
		return 0, apperror.Internal("list pending storage deletes", err)
	}
	r.metrics.SetReconcileBacklog(len(pending))

	removed := 0
	for _, document := range pending {
		if err := r.limiter.Wait(ctx); err != nil {
			return removed, err
		}

		err := r.storage.DeletePrefix(ctx, document.StoragePath)
		r.metrics.RecordStorageDelete("reconciler", err)
		if err != nil {
			slog.Warn("[StorageReconciler] delete failed, will retry", "document_id", document.ID, "error", err)
			continue
		}

		err = r.documentRepository.MarkStorageDeleted(ctx, exec, document.ID, r.now())
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			slog.Warn("[StorageReconciler] record storage deletion", "document_id", document.ID, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
