package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"document-ingestion-service/internal/apperror"
	"document-ingestion-service/internal/model/requestresponse"
	"document-ingestion-service/internal/ports"
	"document-ingestion-service/internal/security"
	"document-ingestion-service/internal/util"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"

	maxRequestBodyBytes = 1 << 20
	requestTimeout      = 30 * time.Second
)

type DocumentHandler struct {
	ports.DocumentService
}

func NewDocumentHandler(documentService ports.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService}
}

// RequestUploadURL godoc
// @Summary Reserve a document version and get a signed upload URL
// @Description Validates the declared metadata, reserves the next version for the document type
// @Description and returns a time-limited URL to PUT the PDF to. Retries with the same
// @Description Idempotency-Key and body return the original reservation.
// @Tags Documents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param Idempotency-Key header string true "Client generated key, 1-255 characters"
// @Param request body requestresponse.UploadURLRequest true "Declared document metadata"
// @Success 201 {object} requestresponse.UploadURLResponse
// @Failure 400 {object} util.ErrorResponse
// @Failure 401 {object} util.ErrorResponse
// @Failure 409 {object} util.ErrorResponse
// @Failure 413 {object} util.ErrorResponse
// @Failure 415 {object} util.ErrorResponse
// @Failure 500 {object} util.ErrorResponse
// @Router /documents/upload-url [post]
func (h *DocumentHandler) RequestUploadURL(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	idempotencyKey, ok := requireIdempotencyKey(w, r)
	if !ok {
		return
	}

	var request requestresponse.UploadURLRequest
	if !decodeBody(w, r, &request) {
		return
	}

	ctx, cancel := detachedContext(r)
	defer cancel()

	response, err := h.DocumentService.RequestUploadURL(ctx, claims.UserID, idempotencyKey, &request)
	if err != nil {
		util.WriteAppError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusCreated, response)
}

// CompleteUpload godoc
// @Summary Confirm an upload
// @Description Checks the stored object against the declared size and type, then promotes the
// @Description document to PENDING and makes it the current version of its type.
// @Tags Documents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Document ID"
// @Param Idempotency-Key header string true "Client generated key, 1-255 characters"
// @Param request body requestresponse.CompleteUploadRequest true "What was uploaded"
// @Success 200 {object} requestresponse.DocumentView
// @Failure 400 {object} util.ErrorResponse
// @Failure 401 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Failure 409 {object} util.ErrorResponse
// @Failure 413 {object} util.ErrorResponse
// @Failure 415 {object} util.ErrorResponse
// @Failure 500 {object} util.ErrorResponse
// @Router /documents/{id}/complete [post]
func (h *DocumentHandler) CompleteUpload(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	idempotencyKey, ok := requireIdempotencyKey(w, r)
	if !ok {
		return
	}

	var request requestresponse.CompleteUploadRequest
	if !decodeBody(w, r, &request) {
		return
	}

	ctx, cancel := detachedContext(r)
	defer cancel()

	view, err := h.DocumentService.CompleteUpload(ctx, claims.UserID, chi.URLParam(r, "id"), idempotencyKey, &request)
	if err != nil {
		util.WriteAppError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, view)
}

// ListMyDocuments godoc
// @Summary List the caller's documents
// @Tags Documents
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} requestresponse.DocumentView
// @Failure 401 {object} util.ErrorResponse
// @Failure 500 {object} util.ErrorResponse
// @Router /documents [get]
func (h *DocumentHandler) ListMyDocuments(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}

	views, err := h.DocumentService.ListMyDocuments(r.Context(), claims.UserID)
	if err != nil {
		util.WriteAppError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, views)
}

// GetDownloadURL godoc
// @Summary Get a short-lived download URL
// @Tags Documents
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Document ID"
// @Success 200 {object} requestresponse.DownloadURLResponse
// @Failure 400 {object} util.ErrorResponse
// @Failure 401 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Failure 500 {object} util.ErrorResponse
// @Router /documents/{id}/download-url [get]
func (h *DocumentHandler) GetDownloadURL(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}

	response, err := h.DocumentService.GetDownloadURL(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		util.WriteAppError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, response)
}

// DeleteMyDocument godoc
// @Summary Delete one of the caller's documents
// @Description Soft deletes the document. Physical removal from storage is best effort and
// @Description retried in the background.
// @Tags Documents
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Document ID"
// @Success 200 {object} requestresponse.MessageResponse
// @Failure 401 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Failure 500 {object} util.ErrorResponse
// @Router /documents/{id} [delete]
func (h *DocumentHandler) DeleteMyDocument(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}

	ctx, cancel := detachedContext(r)
	defer cancel()

	if err := h.DocumentService.DeleteMyDocument(ctx, claims.UserID, chi.URLParam(r, "id")); err != nil {
		util.WriteAppError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, requestresponse.MessageResponse{Message: "document deleted"})
}

// DeleteDocumentAsAdmin godoc
// @Summary Delete any document
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Document ID"
// @Success 200 {object} requestresponse.MessageResponse
// @Failure 401 {object} util.ErrorResponse
// @Failure 403 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Failure 500 {object} util.ErrorResponse
// @Router /admin/documents/{id} [delete]
func (h *DocumentHandler) DeleteDocumentAsAdmin(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}

	ctx, cancel := detachedContext(r)
	defer cancel()

	if err := h.DocumentService.DeleteDocumentAsAdmin(ctx, claims.UserID, chi.URLParam(r, "id")); err != nil {
		util.WriteAppError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, requestresponse.MessageResponse{Message: "document deleted"})
}

// ReviewDocument godoc
// @Summary Approve or reject a pending document
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Document ID"
// @Param request body requestresponse.ReviewRequest true "Decision"
// @Success 200 {object} requestresponse.DocumentView
// @Failure 400 {object} util.ErrorResponse
// @Failure 401 {object} util.ErrorResponse
// @Failure 403 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Failure 409 {object} util.ErrorResponse
// @Failure 500 {object} util.ErrorResponse
// @Router /admin/documents/{id}/review [post]
func (h *DocumentHandler) ReviewDocument(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}

	var request requestresponse.ReviewRequest
	if !decodeBody(w, r, &request) {
		return
	}

	view, err := h.DocumentService.ReviewDocument(r.Context(), claims.UserID, chi.URLParam(r, "id"), &request)
	if err != nil {
		util.WriteAppError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, view)
}

func claimsOrUnauthorized(w http.ResponseWriter, r *http.Request) (*security.Claims, bool) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		util.WriteAppError(w, err)
		return nil, false
	}
	return claims, true
}

func requireIdempotencyKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := r.Header.Get(IdempotencyKeyHeader)
	if key == "" {
		util.HandleError(w, apperror.KindValidation, "Idempotency-Key header is required", http.StatusBadRequest)
		return "", false
	}
	return key, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			util.HandleError(w, apperror.KindPayloadTooLarge, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		util.HandleError(w, apperror.KindValidation, "request body must be a valid JSON object", http.StatusBadRequest)
		return false
	}
	return true
}

// detachedContext : mutations run to completion even if the client goes away,
// a retry with the same Idempotency-Key then replays the result
func detachedContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), requestTimeout)
}
