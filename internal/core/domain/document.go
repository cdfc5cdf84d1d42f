package domain

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DocumentStatus represents the lifecycle state of an uploaded edital.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusDone       DocumentStatus = "done"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// CanTransition reports whether the lifecycle allows moving from s to next.
// The only legal sequence is pending -> processing -> (done | failed);
// a document never re-enters processing.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	switch s {
	case DocumentStatusPending:
		return next == DocumentStatusProcessing
	case DocumentStatusProcessing:
		return next == DocumentStatusDone || next == DocumentStatusFailed
	default:
		return false
	}
}

// TransitionFrom returns the status a document must currently hold for a
// transition into next to be valid. Used by stores to build conditional
// updates so transitions stay linearisable through the database row.
func TransitionFrom(next DocumentStatus) (DocumentStatus, bool) {
	switch next {
	case DocumentStatusProcessing:
		return DocumentStatusPending, true
	case DocumentStatusDone, DocumentStatusFailed:
		return DocumentStatusProcessing, true
	default:
		return "", false
	}
}

// Document is the persistent record of one uploaded edital.
type Document struct {
	// ID is the unique identifier for this document
	ID string `json:"id"`

	// UserID is the owning user
	UserID string `json:"user_id"`

	// FileName is the original upload file name
	FileName string `json:"file_name"`

	// Status is the current lifecycle state
	Status DocumentStatus `json:"status"`

	// StorageKey is the object-store key of the raw upload
	StorageKey string `json:"storage_key"`

	// CreatedAt is when the document row was created
	CreatedAt time.Time `json:"created_at"`
}

// IngestJob is the payload pushed onto the document:ingest queue.
type IngestJob struct {
	// DocumentID identifies the Document row to process.
	// Also serves as the idempotency key under duplicate delivery.
	DocumentID string `json:"documentId"`

	// UserID is the owning user
	UserID string `json:"userId"`

	// FileURL is a presigned URL for downloading the raw file
	FileURL string `json:"fileUrl"`

	// FileName is the original file name, used to infer the parser
	FileName string `json:"fileName,omitempty"`

	// UsePDFFile selects the PDF-native branch: the raw PDF is uploaded to
	// the LLM provider and blocks are generated without chunking/retrieval
	UsePDFFile bool `json:"usePdfFile,omitempty"`
}

// Validate checks the required payload fields.
func (j *IngestJob) Validate() error {
	if j.DocumentID == "" || j.UserID == "" || j.FileURL == "" {
		return ErrInvalidPayload
	}
	return nil
}
