package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"document-ingestion-service/config"
	"document-ingestion-service/internal/model"
	"document-ingestion-service/internal/util"
)

// cacheTombstone replaces an evicted entry for cacheTombstoneTTL. SetDocument only writes
// into an empty key, so a read that started before the eviction cannot put its copy back.
const (
	cacheTombstone    = "evicted"
	cacheTombstoneTTL = 30 * time.Second
)

type CacheRepository struct {
	client *config.RedisClient
	ttl    time.Duration
}

func NewCacheRepository(rdb *config.RedisClient, ttl time.Duration) *CacheRepository {
	return &CacheRepository{rdb, ttl}
}

// SetDocument : caches document unless the key holds an entry or a tombstone
func (r *CacheRepository) SetDocument(ctx context.Context, document *model.Document) error {
	data, err := json.Marshal(document)
	if err != nil {
		return util.LogError("marshal document for cache", err)
	}

	stored, err := r.client.Client.SetNX(ctx, r.key(document.ID), data, r.ttl).Result()
	if err != nil {
		return util.LogError("store document in redis", err)
	}
	if !stored {
		slog.Debug("cache write skipped, key is occupied", "document_id", document.ID)
	}

	return nil
}

func (r *CacheRepository) GetDocument(ctx context.Context, documentID string) (*model.Document, error) {
	val, err := r.client.Client.Get(ctx, r.key(documentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // miss
	} else if err != nil {
		return nil, util.LogError("read document from redis", err)
	}
	if string(val) == cacheTombstone {
		return nil, nil
	}

	var document model.Document
	if err := json.Unmarshal(val, &document); err != nil {
		return nil, util.LogError("decode cached document", err)
	}
	return &document, nil
}

// DeleteDocument : overwrites every entry with a tombstone in one pipeline
func (r *CacheRepository) DeleteDocument(ctx context.Context, documentIDs ...string) error {
	if len(documentIDs) == 0 {
		return nil
	}
	_, err := r.client.Client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range documentIDs {
			pipe.Set(ctx, r.key(id), cacheTombstone, cacheTombstoneTTL)
		}
		return nil
	})
	if err != nil {
		return util.LogError("evict documents from redis", err)
	}
	return nil
}

func (r *CacheRepository) key(documentID string) string {
	return fmt.Sprintf("document:%s", documentID)
}
