package driven

import (
	"context"

	"github.com/licitaware/editais-core/internal/core/domain"
)

// DocumentStore handles document persistence (PostgreSQL).
type DocumentStore interface {
	// Create inserts a new document row in pending state.
	Create(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID.
	// Returns domain.ErrNotFound when the row is absent.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// TransitionStatus moves a document to the next lifecycle state using a
	// conditional update, so transitions are linearisable through the row.
	// Returns domain.ErrNotFound when the row is absent and
	// domain.ErrInvalidTransition when the current status does not allow
	// the move (e.g. the document is already done).
	TransitionStatus(ctx context.Context, id string, next domain.DocumentStatus) error
}

// ChecklistStore handles checklist persistence (PostgreSQL).
type ChecklistStore interface {
	// Insert stores a checklist row exactly once per document.
	// Returns domain.ErrAlreadyExists when a row for the same document is
	// present (enforced by the UNIQUE constraint on document_id).
	Insert(ctx context.Context, row *domain.ChecklistRow) error

	// GetByDocument retrieves the checklist for a document.
	// Returns domain.ErrNotFound when absent.
	GetByDocument(ctx context.Context, documentID string) (*domain.ChecklistRow, error)
}
