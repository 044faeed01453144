package model

import (
	"encoding/json"
	"time"
)

const (
	MaxDocumentSizeBytes int64 = 10 << 20
	AcceptedContentType        = "application/pdf"
	AcceptedExtension          = ".pdf"
)

type DocumentType string

const (
	DocumentTypeEPS             DocumentType = "eps"
	DocumentTypeRUT             DocumentType = "rut"
	DocumentTypeNationalID      DocumentType = "national_id"
	DocumentTypePassport        DocumentType = "passport"
	DocumentTypeBankCertificate DocumentType = "bank_certificate"
	DocumentTypeProofOfAddress  DocumentType = "proof_of_address"
)

var documentTypes = map[DocumentType]struct{}{
	DocumentTypeEPS:             {},
	DocumentTypeRUT:             {},
	DocumentTypeNationalID:      {},
	DocumentTypePassport:        {},
	DocumentTypeBankCertificate: {},
	DocumentTypeProofOfAddress:  {},
}

func (t DocumentType) Valid() bool {
	_, ok := documentTypes[t]
	return ok
}

type DocumentStatus string

const (
	StatusPendingUpload DocumentStatus = "PENDING_UPLOAD"
	StatusPending       DocumentStatus = "PENDING"
	StatusApproved      DocumentStatus = "APPROVED"
	StatusRejected      DocumentStatus = "REJECTED"
	StatusDeleted       DocumentStatus = "DELETED"
)

// Document : one physical object version of a typed document owned by a user
type Document struct {
	ID                       string         `db:"id" json:"id"`
	OwnerID                  string         `db:"owner_id" json:"owner_id"`
	DocumentType             DocumentType   `db:"document_type" json:"document_type"`
	Status                   DocumentStatus `db:"status" json:"status"`
	Version                  int            `db:"version" json:"version"`
	IsCurrent                bool           `db:"is_current" json:"is_current"`
	StorageBucket            string         `db:"storage_bucket" json:"storage_bucket"`
	StoragePath              string         `db:"storage_path" json:"storage_path"`
	OriginalFilename         string         `db:"original_filename" json:"original_filename"`
	MimeType                 string         `db:"mime_type" json:"mime_type"`
	SizeBytes                int64          `db:"size_bytes" json:"size_bytes"`
	Sha256                   *string        `db:"sha256" json:"sha256,omitempty"`
	ReviewerID               *string        `db:"reviewer_id" json:"reviewer_id,omitempty"`
	ReviewedAt               *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewNote               *string        `db:"review_note" json:"review_note,omitempty"`
	DeletedBy                *string        `db:"deleted_by" json:"deleted_by,omitempty"`
	DeletedAt                *time.Time     `db:"deleted_at" json:"deleted_at,omitempty"`
	StorageDeleteScheduledAt *time.Time     `db:"storage_delete_scheduled_at" json:"storage_delete_scheduled_at,omitempty"`
	StorageDeletedAt         *time.Time     `db:"storage_deleted_at" json:"storage_deleted_at,omitempty"`
	CreatedAt                time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time      `db:"updated_at" json:"updated_at"`
}

func (d *Document) IsDeleted() bool {
	return d.Status == StatusDeleted || d.DeletedAt != nil
}

// IdempotencyRecord : frozen result of the first successful execution for (actor, scope, key)
type IdempotencyRecord struct {
	ActorID        string          `db:"actor_id"`
	Scope          string          `db:"scope"`
	IdempotencyKey string          `db:"idempotency_key"`
	RequestHash    string          `db:"request_hash"`
	Response       json.RawMessage `db:"response"`
	CreatedAt      time.Time       `db:"created_at"`
}

// SignedURL : capability URL issued by the object store together with its expiry
type SignedURL struct {
	URL       string
	ExpiresAt time.Time
}

// ObjectInfo : metadata the object store reports for a stored object
type ObjectInfo struct {
	SizeBytes   int64
	ContentType string
}
