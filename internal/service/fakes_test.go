package service_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"document-ingestion-service/internal/apperror"
	"document-ingestion-service/internal/model"
)

// fakeDocumentRepository : in-memory store enforcing the same unique indexes as the migration
type fakeDocumentRepository struct {
	mu        sync.Mutex
	documents map[string]*model.Document

	softDeleteErr   error
	markUploadedErr error
}

func newFakeDocumentRepository() *fakeDocumentRepository {
	return &fakeDocumentRepository{documents: map[string]*model.Document{}}
}

func (r *fakeDocumentRepository) Create(_ context.Context, _ sqlx.ExtContext, document *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.documents {
		if existing.OwnerID == document.OwnerID && existing.DocumentType == document.DocumentType && existing.Version == document.Version {
			return fmt.Errorf("%w: documents_owner_type_version_key", apperror.ErrUniqueViolation)
		}
	}
	stored := *document
	r.documents[document.ID] = &stored
	return nil
}

func (r *fakeDocumentRepository) GetByID(_ context.Context, _ sqlx.ExtContext, documentID string) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	document, ok := r.documents[documentID]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	copied := *document
	return &copied, nil
}

func (r *fakeDocumentRepository) NextVersion(_ context.Context, _ sqlx.ExtContext, ownerID string, documentType model.DocumentType) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	highest := 0
	for _, document := range r.documents {
		if document.OwnerID == ownerID && document.DocumentType == documentType && document.Version > highest {
			highest = document.Version
		}
	}
	return highest + 1, nil
}

func (r *fakeDocumentRepository) DemoteCurrent(_ context.Context, _ sqlx.ExtContext, ownerID string, documentType model.DocumentType, exceptID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	demoted := []string{}
	for id, document := range r.documents {
		if document.OwnerID == ownerID && document.DocumentType == documentType && id != exceptID &&
			document.IsCurrent && document.DeletedAt == nil {
			document.IsCurrent = false
			demoted = append(demoted, id)
		}
	}
	return demoted, nil
}

func (r *fakeDocumentRepository) MarkUploaded(_ context.Context, _ sqlx.ExtContext, document *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.markUploadedErr != nil {
		return r.markUploadedErr
	}

	stored, ok := r.documents[document.ID]
	if !ok || stored.DeletedAt != nil ||
		(stored.Status != model.StatusPendingUpload && stored.Status != model.StatusPending) {
		return apperror.ErrNotFound
	}
	for id, other := range r.documents {
		if id != document.ID && other.OwnerID == stored.OwnerID && other.DocumentType == stored.DocumentType &&
			other.IsCurrent && other.DeletedAt == nil {
			return fmt.Errorf("%w: documents_one_current_idx", apperror.ErrUniqueViolation)
		}
	}

	stored.Status = model.StatusPending
	stored.IsCurrent = true
	stored.OriginalFilename = document.OriginalFilename
	stored.MimeType = document.MimeType
	stored.SizeBytes = document.SizeBytes
	stored.Sha256 = document.Sha256
	stored.UpdatedAt = document.UpdatedAt
	return nil
}

func (r *fakeDocumentRepository) ListByOwner(_ context.Context, _ sqlx.ExtContext, ownerID string) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	documents := []model.Document{}
	for _, document := range r.documents {
		if document.OwnerID == ownerID && document.DeletedAt == nil {
			documents = append(documents, *document)
		}
	}
	sort.Slice(documents, func(i, j int) bool {
		a, b := documents[i], documents[j]
		if a.DocumentType != b.DocumentType {
			return a.DocumentType < b.DocumentType
		}
		if a.Version != b.Version {
			return a.Version > b.Version
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return documents, nil
}

func (r *fakeDocumentRepository) SoftDelete(_ context.Context, _ sqlx.ExtContext, documentID, deletedBy string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.softDeleteErr != nil {
		return r.softDeleteErr
	}
	document, ok := r.documents[documentID]
	if !ok || document.DeletedAt != nil {
		return apperror.ErrNotFound
	}
	document.Status = model.StatusDeleted
	document.IsCurrent = false
	document.DeletedBy = &deletedBy
	document.DeletedAt = &at
	document.StorageDeleteScheduledAt = &at
	document.UpdatedAt = at
	return nil
}

func (r *fakeDocumentRepository) MarkStorageDeleted(_ context.Context, _ sqlx.ExtContext, documentID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	document, ok := r.documents[documentID]
	if !ok || document.DeletedAt == nil || document.StorageDeletedAt != nil {
		return apperror.ErrNotFound
	}
	document.StorageDeletedAt = &at
	return nil
}

func (r *fakeDocumentRepository) ListPendingStorageDeletes(_ context.Context, _ sqlx.ExtContext, limit int) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := []model.Document{}
	for _, document := range r.documents {
		if document.DeletedAt != nil && document.StorageDeleteScheduledAt != nil && document.StorageDeletedAt == nil {
			pending = append(pending, *document)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].StorageDeleteScheduledAt.Before(*pending[j].StorageDeleteScheduledAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r *fakeDocumentRepository) UpdateReview(_ context.Context, _ sqlx.ExtContext, documentID string, status model.DocumentStatus, reviewerID string, note *string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	document, ok := r.documents[documentID]
	if !ok || document.Status != model.StatusPending || document.DeletedAt != nil {
		return apperror.ErrNotFound
	}
	document.Status = status
	document.ReviewerID = &reviewerID
	document.ReviewNote = note
	document.ReviewedAt = &at
	document.UpdatedAt = at
	return nil
}

func (r *fakeDocumentRepository) Executor() sqlx.ExtContext {
	return nil
}

func (r *fakeDocumentRepository) BeginTX(context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	noop := func() error { return nil }
	return nil, noop, noop, nil
}

func (r *fakeDocumentRepository) snapshot(ownerID string, documentType model.DocumentType) []model.Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	documents := []model.Document{}
	for _, document := range r.documents {
		if document.OwnerID == ownerID && document.DocumentType == documentType {
			documents = append(documents, *document)
		}
	}
	sort.Slice(documents, func(i, j int) bool { return documents[i].Version < documents[j].Version })
	return documents
}

// fakeIdempotencyRepository : beforeInsert lets a test commit a competing record first
type fakeIdempotencyRepository struct {
	mu           sync.Mutex
	records      map[string]*model.IdempotencyRecord
	beforeInsert func(record *model.IdempotencyRecord)
	findErr      error
}

func newFakeIdempotencyRepository() *fakeIdempotencyRepository {
	return &fakeIdempotencyRepository{records: map[string]*model.IdempotencyRecord{}}
}

func ledgerKey(actorID, scope, key string) string {
	return strings.Join([]string{actorID, scope, key}, "\x00")
}

func (r *fakeIdempotencyRepository) Find(_ context.Context, _ sqlx.ExtContext, actorID, scope, idempotencyKey string) (*model.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findErr != nil {
		return nil, r.findErr
	}
	record, ok := r.records[ledgerKey(actorID, scope, idempotencyKey)]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (r *fakeIdempotencyRepository) Insert(_ context.Context, _ sqlx.ExtContext, record *model.IdempotencyRecord) error {
	if r.beforeInsert != nil {
		r.beforeInsert(record)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := ledgerKey(record.ActorID, record.Scope, record.IdempotencyKey)
	if _, exists := r.records[key]; exists {
		return fmt.Errorf("%w: idempotency_records_pkey", apperror.ErrUniqueViolation)
	}
	stored := *record
	r.records[key] = &stored
	return nil
}

func (r *fakeIdempotencyRepository) Executor() sqlx.ExtContext {
	return nil
}

func (r *fakeIdempotencyRepository) put(record *model.IdempotencyRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[ledgerKey(record.ActorID, record.Scope, record.IdempotencyKey)] = record
}

func (r *fakeIdempotencyRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// fakeStorage : object metadata keyed by path
type fakeStorage struct {
	mu          sync.Mutex
	objects     map[string]model.ObjectInfo
	signErr     error
	statErr     error
	deleteErr   error
	signCalls   int
	deleted     []string
	lastSignTTL time.Duration
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]model.ObjectInfo{}}
}

func (s *fakeStorage) SignUpload(_ context.Context, path, _ string, ttl time.Duration) (*model.SignedURL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.signErr != nil {
		return nil, s.signErr
	}
	s.signCalls++
	s.lastSignTTL = ttl
	return &model.SignedURL{URL: "https://storage.test/put/" + path, ExpiresAt: time.Now().Add(ttl).UTC()}, nil
}

func (s *fakeStorage) SignDownload(_ context.Context, path string, ttl time.Duration) (*model.SignedURL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.signErr != nil {
		return nil, s.signErr
	}
	s.signCalls++
	s.lastSignTTL = ttl
	return &model.SignedURL{URL: "https://storage.test/get/" + path, ExpiresAt: time.Now().Add(ttl).UTC()}, nil
}

func (s *fakeStorage) StatObject(_ context.Context, path string) (*model.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.statErr != nil {
		return nil, s.statErr
	}
	info, ok := s.objects[path]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

func (s *fakeStorage) DeletePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleteErr != nil {
		return s.deleteErr
	}
	for path := range s.objects {
		if strings.HasPrefix(path, prefix) {
			delete(s.objects, path)
		}
	}
	s.deleted = append(s.deleted, prefix)
	return nil
}

func (s *fakeStorage) put(path string, sizeBytes int64, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = model.ObjectInfo{SizeBytes: sizeBytes, ContentType: contentType}
}

func (s *fakeStorage) failDeletes(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteErr = err
}

// fakeCache : map backed document cache with the tombstone semantics of CacheRepository
type fakeCache struct {
	mu         sync.Mutex
	documents  map[string]model.Document
	tombstones map[string]bool
	getErr     error
}

func newFakeCache() *fakeCache {
	return &fakeCache{documents: map[string]model.Document{}, tombstones: map[string]bool{}}
}

func (c *fakeCache) SetDocument(_ context.Context, document *model.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, occupied := c.documents[document.ID]; occupied || c.tombstones[document.ID] {
		return nil
	}
	c.documents[document.ID] = *document
	return nil
}

func (c *fakeCache) GetDocument(_ context.Context, documentID string) (*model.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.getErr != nil {
		return nil, c.getErr
	}
	document, ok := c.documents[documentID]
	if !ok {
		return nil, nil
	}
	return &document, nil
}

func (c *fakeCache) DeleteDocument(_ context.Context, documentIDs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range documentIDs {
		delete(c.documents, id)
		c.tombstones[id] = true
	}
	return nil
}

func (c *fakeCache) has(documentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.documents[documentID]
	return ok
}

// expireTombstones : what the tombstone TTL does in Redis
func (c *fakeCache) expireTombstones() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tombstones = map[string]bool{}
}

// racingCache : runs beforeSet once, between the store read and the cache write
type racingCache struct {
	*fakeCache
	beforeSet func()
}

func (c *racingCache) SetDocument(ctx context.Context, document *model.Document) error {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	return c.fakeCache.SetDocument(ctx, document)
}

var errStorageDown = errors.New("storage unavailable")
