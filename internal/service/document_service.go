package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"document-ingestion-service/config"
	"document-ingestion-service/internal/apperror"
	"document-ingestion-service/internal/metrics"
	"document-ingestion-service/internal/model"
	"document-ingestion-service/internal/model/requestresponse"
	"document-ingestion-service/internal/ports"
)

const (
	ScopeUploadURL      = "upload-url"
	scopeCompletePrefix = "complete:"

	maxFilenameLength   = 255
	maxReviewNoteLength = 2000
)

func CompleteScope(documentID string) string {
	return scopeCompletePrefix + documentID
}

type DocumentService struct {
	documentRepository ports.DocumentRepository
	cacheRepository    ports.CacheRepository
	idempotency        ports.IdempotencyGuard
	storage            ports.StorageGateway
	cfg                config.IngestionConfig
	metrics            *metrics.Metrics
	now                func() time.Time
}

func NewDocumentService(
	documentRepository ports.DocumentRepository,
	cacheRepository ports.CacheRepository,
	idempotency ports.IdempotencyGuard,
	storage ports.StorageGateway,
	cfg config.IngestionConfig,
	m *metrics.Metrics,
) *DocumentService {
	return &DocumentService{
		documentRepository: documentRepository,
		cacheRepository:    cacheRepository,
		idempotency:        idempotency,
		storage:            storage,
		cfg:                cfg,
		metrics:            m,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// RequestUploadURL : reserves the next version for (owner, type) and issues a signed PUT url for it
func (s *DocumentService) RequestUploadURL(
	ctx context.Context,
	actorID, idempotencyKey string,
	request *requestresponse.UploadURLRequest,
) (*requestresponse.UploadURLResponse, error) {
	if err := validateUploadURLRequest(request); err != nil {
		return nil, err
	}

	raw, err := s.idempotency.Execute(ctx, actorID, ScopeUploadURL, idempotencyKey, request, func(ctx context.Context) (any, error) {
		return s.reserveUpload(ctx, actorID, request)
	})
	if err != nil {
		return nil, err
	}

	var response requestresponse.UploadURLResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, apperror.Internal("decode stored upload-url response", err)
	}
	return &response, nil
}

func (s *DocumentService) reserveUpload(ctx context.Context, actorID string, request *requestresponse.UploadURLRequest) (*requestresponse.UploadURLResponse, error) {
	exec := s.documentRepository.Executor()

	version, err := s.documentRepository.NextVersion(ctx, exec, actorID, request.DocumentType)
	if err != nil {
		return nil, apperror.Internal("compute next document version", err)
	}

	now := s.now()
	storagePath, err := s.storagePath(actorID, request.DocumentType, now, version)
	if err != nil {
		return nil, err
	}

	signed, err := s.storage.SignUpload(ctx, storagePath, model.AcceptedContentType, s.cfg.UploadURLTTL)
	if err != nil {
		return nil, apperror.Internal("issue signed upload url", err)
	}

	document := &model.Document{
		ID:               uuid.NewString(),
		OwnerID:          actorID,
		DocumentType:     request.DocumentType,
		Status:           model.StatusPendingUpload,
		Version:          version,
		IsCurrent:        false,
		StorageBucket:    s.cfg.Bucket,
		StoragePath:      storagePath,
		OriginalFilename: request.Filename,
		MimeType:         model.AcceptedContentType,
		SizeBytes:        request.SizeBytes,
		Sha256:           normalizeSha256(request.Sha256),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.documentRepository.Create(ctx, exec, document); err != nil {
		if errors.Is(err, apperror.ErrUniqueViolation) {
			return nil, apperror.Wrap(apperror.KindConflict, "a concurrent request reserved the same document version, retry with a new Idempotency-Key", err)
		}
		return nil, apperror.Internal("create document", err)
	}

	slog.Info("[DocumentService] upload reserved",
		"document_id", document.ID, "owner_id", actorID, "document_type", document.DocumentType, "version", version)
	s.metrics.RecordDocumentEvent("reserved")

	return &requestresponse.UploadURLResponse{
		ID:           document.ID,
		DocumentType: document.DocumentType,
		Status:       document.Status,
		Version:      document.Version,
		Upload: requestresponse.UploadTarget{
			Bucket:          document.StorageBucket,
			Path:            document.StoragePath,
			SignedUploadURL: signed.URL,
			ExpiresAt:       signed.ExpiresAt,
		},
		SignedUploadURL: signed.URL,
		ExpiresAt:       signed.ExpiresAt,
		CreatedAt:       document.CreatedAt,
	}, nil
}

// CompleteUpload : confirms the object against storage and promotes the document to current
func (s *DocumentService) CompleteUpload(
	ctx context.Context,
	actorID, documentID, idempotencyKey string,
	request *requestresponse.CompleteUploadRequest,
) (*requestresponse.DocumentView, error) {
	if err := validateCompleteUploadRequest(request); err != nil {
		return nil, err
	}

	raw, err := s.idempotency.Execute(ctx, actorID, CompleteScope(documentID), idempotencyKey, request, func(ctx context.Context) (any, error) {
		return s.completeUpload(ctx, actorID, documentID, request)
	})
	if err != nil {
		return nil, err
	}

	var view requestresponse.DocumentView
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, apperror.Internal("decode stored complete response", err)
	}
	return &view, nil
}

func (s *DocumentService) completeUpload(ctx context.Context, actorID, documentID string, request *requestresponse.CompleteUploadRequest) (*requestresponse.DocumentView, error) {
	document, err := s.ownedDocument(ctx, actorID, documentID)
	if err != nil {
		return nil, err
	}
	if document.Status != model.StatusPendingUpload && document.Status != model.StatusPending {
		return nil, apperror.Newf(apperror.KindBadRequest, "document in status %s cannot be completed", document.Status)
	}

	info, err := s.storage.StatObject(ctx, document.StoragePath)
	if err != nil {
		return nil, apperror.Internal("check stored object", err)
	}
	if info == nil {
		return nil, apperror.BadRequest("file not found in storage")
	}
	if observed := baseMediaType(info.ContentType); observed != model.AcceptedContentType {
		return nil, apperror.Newf(apperror.KindUnsupportedMediaType, "stored object has content type %q, expected %s", observed, model.AcceptedContentType)
	}
	if info.SizeBytes > model.MaxDocumentSizeBytes {
		return nil, apperror.Newf(apperror.KindPayloadTooLarge, "stored object is %d bytes, limit is %d", info.SizeBytes, model.MaxDocumentSizeBytes)
	}
	if info.SizeBytes != request.SizeBytes {
		return nil, apperror.Newf(apperror.KindBadRequest, "size mismatch: declared %d bytes, stored %d bytes", request.SizeBytes, info.SizeBytes)
	}

	exec, rollback, commit, err := s.documentRepository.BeginTX(ctx)
	if err != nil {
		return nil, apperror.Internal("begin transaction", err)
	}
	defer rollback()

	demoted, err := s.documentRepository.DemoteCurrent(ctx, exec, document.OwnerID, document.DocumentType, document.ID)
	if err != nil {
		return nil, apperror.Internal("demote current document", err)
	}

	document.Status = model.StatusPending
	document.IsCurrent = true
	document.OriginalFilename = request.OriginalFilename
	document.MimeType = model.AcceptedContentType
	document.SizeBytes = info.SizeBytes
	if sha := normalizeSha256(request.Sha256); sha != nil {
		document.Sha256 = sha
	}
	document.UpdatedAt = s.now()

	if err := s.documentRepository.MarkUploaded(ctx, exec, document); err != nil {
		switch {
		case errors.Is(err, apperror.ErrUniqueViolation):
			return nil, apperror.Wrap(apperror.KindConflict, "another version of this document type was completed concurrently", err)
		case errors.Is(err, apperror.ErrNotFound):
			return nil, apperror.NotFound("document not found")
		}
		return nil, apperror.Internal("promote document", err)
	}

	if err := commit(); err != nil {
		return nil, apperror.Internal("commit transaction", err)
	}

	s.evict(ctx, append(demoted, document.ID)...)
	slog.Info("[DocumentService] upload completed",
		"document_id", document.ID, "owner_id", document.OwnerID, "version", document.Version, "demoted", len(demoted))
	s.metrics.RecordDocumentEvent("completed")

	view := requestresponse.DocumentViewFromModel(document)
	return &view, nil
}

// ListMyDocuments : live documents of the actor, by type then newest version first
func (s *DocumentService) ListMyDocuments(ctx context.Context, actorID string) ([]requestresponse.DocumentView, error) {
	documents, err := s.documentRepository.ListByOwner(ctx, s.documentRepository.Executor(), actorID)
	if err != nil {
		return nil, apperror.Internal("list documents", err)
	}

	views := make([]requestresponse.DocumentView, 0, len(documents))
	for i := range documents {
		views = append(views, requestresponse.DocumentViewFromModel(&documents[i]))
	}
	return views, nil
}

// GetDownloadURL : short-lived signed GET for an uploaded document of the actor
func (s *DocumentService) GetDownloadURL(ctx context.Context, actorID, documentID string) (*requestresponse.DownloadURLResponse, error) {
	document, err := s.cachedDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if document.OwnerID != actorID || document.IsDeleted() {
		return nil, apperror.NotFound("document not found")
	}
	if document.Status == model.StatusPendingUpload {
		return nil, apperror.BadRequest("document has not been uploaded yet")
	}

	signed, err := s.storage.SignDownload(ctx, document.StoragePath, s.cfg.DownloadURLTTL)
	if err != nil {
		return nil, apperror.Internal("issue signed download url", err)
	}

	return &requestresponse.DownloadURLResponse{
		SignedURL: signed.URL,
		ExpiresAt: signed.ExpiresAt,
	}, nil
}

func (s *DocumentService) DeleteMyDocument(ctx context.Context, actorID, documentID string) error {
	document, err := s.ownedDocument(ctx, actorID, documentID)
	if err != nil {
		return err
	}
	return s.softDelete(ctx, document, actorID)
}

// DeleteDocumentAsAdmin : same as DeleteMyDocument without the ownership check
func (s *DocumentService) DeleteDocumentAsAdmin(ctx context.Context, adminID, documentID string) error {
	document, err := s.liveDocument(ctx, documentID)
	if err != nil {
		return err
	}
	return s.softDelete(ctx, document, adminID)
}

// softDelete : hides the document synchronously, physical removal is best effort
func (s *DocumentService) softDelete(ctx context.Context, document *model.Document, deletedBy string) error {
	exec := s.documentRepository.Executor()
	now := s.now()

	if err := s.documentRepository.SoftDelete(ctx, exec, document.ID, deletedBy, now); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFound("document not found")
		}
		return apperror.Internal("soft delete document", err)
	}
	s.evict(ctx, document.ID)
	s.metrics.RecordDocumentEvent("deleted")
	slog.Info("[DocumentService] document deleted", "document_id", document.ID, "deleted_by", deletedBy)

	err := s.storage.DeletePrefix(ctx, document.StoragePath)
	s.metrics.RecordStorageDelete("request", err)
	if err != nil {
		slog.Warn("[DocumentService] physical delete deferred to reconciler",
			"document_id", document.ID, "path", document.StoragePath, "error", err)
		return nil
	}

	if err := s.documentRepository.MarkStorageDeleted(ctx, exec, document.ID, s.now()); err != nil {
		slog.Warn("[DocumentService] record storage deletion", "document_id", document.ID, "error", err)
	}
	return nil
}

// ReviewDocument : staff decision moving a PENDING document to APPROVED or REJECTED
func (s *DocumentService) ReviewDocument(
	ctx context.Context,
	reviewerID, documentID string,
	request *requestresponse.ReviewRequest,
) (*requestresponse.DocumentView, error) {
	var status model.DocumentStatus
	switch request.Decision {
	case requestresponse.ReviewApprove:
		status = model.StatusApproved
	case requestresponse.ReviewReject:
		status = model.StatusRejected
	default:
		return nil, apperror.Validation("decision must be approve or reject")
	}
	if len(request.Note) > maxReviewNoteLength {
		return nil, apperror.Newf(apperror.KindValidation, "note must be at most %d characters", maxReviewNoteLength)
	}

	document, err := s.liveDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if document.Status != model.StatusPending {
		return nil, apperror.Newf(apperror.KindBadRequest, "document in status %s cannot be reviewed", document.Status)
	}

	var note *string
	if trimmed := strings.TrimSpace(request.Note); trimmed != "" {
		note = &trimmed
	}
	now := s.now()

	err = s.documentRepository.UpdateReview(ctx, s.documentRepository.Executor(), document.ID, status, reviewerID, note, now)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Conflict("document changed while it was being reviewed")
		}
		return nil, apperror.Internal("record review", err)
	}
	s.evict(ctx, document.ID)
	s.metrics.RecordDocumentEvent(strings.ToLower(string(status)))

	document.Status = status
	document.ReviewerID = &reviewerID
	document.ReviewNote = note
	document.ReviewedAt = &now
	document.UpdatedAt = now

	view := requestresponse.DocumentViewFromModel(document)
	return &view, nil
}

// ownedDocument : live document belonging to actorID, NotFound otherwise
func (s *DocumentService) ownedDocument(ctx context.Context, actorID, documentID string) (*model.Document, error) {
	document, err := s.liveDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if document.OwnerID != actorID {
		return nil, apperror.NotFound("document not found")
	}
	return document, nil
}

func (s *DocumentService) liveDocument(ctx context.Context, documentID string) (*model.Document, error) {
	if _, err := uuid.Parse(documentID); err != nil {
		return nil, apperror.NotFound("document not found")
	}

	document, err := s.documentRepository.GetByID(ctx, s.documentRepository.Executor(), documentID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("document not found")
		}
		return nil, apperror.Internal("load document", err)
	}
	if document.IsDeleted() {
		return nil, apperror.NotFound("document not found")
	}
	return document, nil
}

// cachedDocument : read-through Redis lookup, cache failures fall back to the database
func (s *DocumentService) cachedDocument(ctx context.Context, documentID string) (*model.Document, error) {
	document, err := s.cacheRepository.GetDocument(ctx, documentID)
	if err != nil {
		slog.Warn("[DocumentService] cache read failed", "document_id", documentID, "error", err)
	}
	if document != nil {
		return document, nil
	}

	document, err = s.liveDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.cacheRepository.SetDocument(ctx, document); err != nil {
		slog.Warn("[DocumentService] cache write failed", "document_id", documentID, "error", err)
	}
	return document, nil
}

func (s *DocumentService) evict(ctx context.Context, documentIDs ...string) {
	if err := s.cacheRepository.DeleteDocument(ctx, documentIDs...); err != nil {
		slog.Warn("[DocumentService] cache eviction failed", "document_ids", documentIDs, "error", err)
	}
}

// storagePath : {base}/{owner}/{type}/{unix millis}_v{version}.pdf.
// The owner id is escaped into a single segment so it can never reach another owner's prefix.
func (s *DocumentService) storagePath(ownerID string, documentType model.DocumentType, at time.Time, version int) (string, error) {
	segment := url.PathEscape(ownerID)
	if segment == "" || segment == "." || segment == ".." {
		return "", apperror.Newf(apperror.KindValidation, "actor id %q cannot be used as a storage path segment", ownerID)
	}
	name := fmt.Sprintf("%d_v%d%s", at.UnixMilli(), version, model.AcceptedExtension)
	return path.Join(s.cfg.BasePath, segment, string(documentType), name), nil
}

func validateUploadURLRequest(request *requestresponse.UploadURLRequest) error {
	if request == nil {
		return apperror.Validation("request body is required")
	}
	if !request.DocumentType.Valid() {
		return apperror.Newf(apperror.KindValidation, "unknown document_type %q", request.DocumentType)
	}
	if err := validateFilename("filename", request.Filename); err != nil {
		return err
	}
	if err := validateDeclaredContent(request.ContentType, request.SizeBytes); err != nil {
		return err
	}
	return validateSha256(request.Sha256)
}

func validateCompleteUploadRequest(request *requestresponse.CompleteUploadRequest) error {
	if request == nil {
		return apperror.Validation("request body is required")
	}
	if err := validateFilename("original_filename", request.OriginalFilename); err != nil {
		return err
	}
	if err := validateDeclaredContent(request.ContentType, request.SizeBytes); err != nil {
		return err
	}
	return validateSha256(request.Sha256)
}

func validateFilename(field, filename string) error {
	name := strings.TrimSpace(filename)
	if name == "" {
		return apperror.Newf(apperror.KindValidation, "%s is required", field)
	}
	if len(name) > maxFilenameLength {
		return apperror.Newf(apperror.KindValidation, "%s must be at most %d characters", field, maxFilenameLength)
	}
	if !strings.EqualFold(path.Ext(name), model.AcceptedExtension) {
		return apperror.Newf(apperror.KindValidation, "%s must have the %s extension", field, model.AcceptedExtension)
	}
	return nil
}

func validateDeclaredContent(contentType string, sizeBytes int64) error {
	if baseMediaType(contentType) != model.AcceptedContentType {
		return apperror.Newf(apperror.KindUnsupportedMediaType, "content_type must be %s", model.AcceptedContentType)
	}
	if sizeBytes <= 0 {
		return apperror.Validation("size_bytes must be greater than zero")
	}
	if sizeBytes > model.MaxDocumentSizeBytes {
		return apperror.Newf(apperror.KindPayloadTooLarge, "size_bytes exceeds the %d byte limit", model.MaxDocumentSizeBytes)
	}
	return nil
}

func validateSha256(sum *string) error {
	if sum == nil || *sum == "" {
		return nil
	}
	decoded, err := hex.DecodeString(*sum)
	if err != nil || len(decoded) != 32 {
		return apperror.Validation("sha256 must be 64 hexadecimal characters")
	}
	return nil
}

func normalizeSha256(sum *string) *string {
	if sum == nil || *sum == "" {
		return nil
	}
	lower := strings.ToLower(*sum)
	return &lower
}

func baseMediaType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}
