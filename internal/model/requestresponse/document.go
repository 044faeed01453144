package requestresponse

import (
	"time"

	"document-ingestion-service/internal/model"
)

// UploadURLRequest : metadata declared by the client before uploading
type UploadURLRequest struct {
	DocumentType model.DocumentType `json:"document_type" example:"eps"`
	Filename     string             `json:"filename" example:"certificate.pdf"`
	ContentType  string             `json:"content_type" example:"application/pdf"`
	SizeBytes    int64              `json:"size_bytes" example:"48213"`
	Sha256       *string            `json:"sha256,omitempty" example:"9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"`
}

type UploadTarget struct {
	Bucket          string    `json:"bucket" example:"compliance-documents"`
	Path            string    `json:"path" example:"documents/4b1c.../eps/1760601600000_v1.pdf"`
	SignedUploadURL string    `json:"signed_upload_url"`
	ExpiresAt       time.Time `json:"expires_at" example:"2026-10-16T12:15:00Z"`
}

// UploadURLResponse : reserved document plus where to PUT the bytes
type UploadURLResponse struct {
	ID              string               `json:"id" example:"0b0f2c4e-7d7f-4a55-a3a4-1c0f9d3e7d11"`
	DocumentType    model.DocumentType   `json:"document_type" example:"eps"`
	Status          model.DocumentStatus `json:"status" example:"PENDING_UPLOAD"`
	Version         int                  `json:"version" example:"1"`
	Upload          UploadTarget         `json:"upload"`
	SignedUploadURL string               `json:"signed_upload_url"`
	ExpiresAt       time.Time            `json:"expires_at" example:"2026-10-16T12:15:00Z"`
	CreatedAt       time.Time            `json:"created_at" example:"2026-10-16T12:00:00Z"`
}

// CompleteUploadRequest : what the client claims to have uploaded
type CompleteUploadRequest struct {
	OriginalFilename string  `json:"original_filename" example:"certificate.pdf"`
	ContentType      string  `json:"content_type" example:"application/pdf"`
	SizeBytes        int64   `json:"size_bytes" example:"48213"`
	Sha256           *string `json:"sha256,omitempty"`
}

// DocumentView : public representation of a document
type DocumentView struct {
	ID               string               `json:"id" example:"0b0f2c4e-7d7f-4a55-a3a4-1c0f9d3e7d11"`
	DocumentType     model.DocumentType   `json:"document_type" example:"eps"`
	Status           model.DocumentStatus `json:"status" example:"PENDING"`
	Version          int                  `json:"version" example:"1"`
	IsCurrent        bool                 `json:"is_current" example:"true"`
	OriginalFilename string               `json:"original_filename" example:"certificate.pdf"`
	CreatedAt        time.Time            `json:"created_at" example:"2026-10-16T12:00:00Z"`
	UpdatedAt        time.Time            `json:"updated_at" example:"2026-10-16T12:01:00Z"`
}

func DocumentViewFromModel(doc *model.Document) DocumentView {
	return DocumentView{
		ID:               doc.ID,
		DocumentType:     doc.DocumentType,
		Status:           doc.Status,
		Version:          doc.Version,
		IsCurrent:        doc.IsCurrent,
		OriginalFilename: doc.OriginalFilename,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
}

type DownloadURLResponse struct {
	SignedURL string    `json:"signed_url"`
	ExpiresAt time.Time `json:"expires_at" example:"2026-10-16T12:05:00Z"`
}

type MessageResponse struct {
	Message string `json:"message" example:"document deleted"`
}

type ReviewDecision string

const (
	ReviewApprove ReviewDecision = "approve"
	ReviewReject  ReviewDecision = "reject"
)

// ReviewRequest : staff decision on a pending document
type ReviewRequest struct {
	Decision ReviewDecision `json:"decision" example:"approve"`
	Note     string         `json:"note,omitempty" example:"legible, matches holder"`
}
