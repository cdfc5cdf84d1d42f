package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/licitaware/editais-core/internal/core/domain"
	"github.com/licitaware/editais-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Create inserts a new document row in pending state.
func (s *DocumentStore) Create(ctx context.Context, doc *domain.Document) error {
	status := doc.Status
	if status == "" {
		status = domain.DocumentStatusPending
	}

	query := `
		INSERT INTO documents (id, user_id, file_name, status, storage_key, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`
	_, err := s.db.ExecContext(ctx, query,
		doc.ID, doc.UserID, doc.FileName, string(status), doc.StorageKey,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	query := `
		SELECT id, user_id, file_name, status, storage_key, created_at
		FROM documents
		WHERE id = $1
	`

	var doc domain.Document
	var status string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&doc.ID, &doc.UserID, &doc.FileName, &status, &doc.StorageKey, &doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

// TransitionStatus moves a document to the next lifecycle state with a
// conditional update, making transitions linearisable through the row: the
// update only lands when the current status is the one the lifecycle
// requires.
func (s *DocumentStore) TransitionStatus(ctx context.Context, id string, next domain.DocumentStatus) error {
	from, ok := domain.TransitionFrom(next)
	if !ok {
		return domain.ErrInvalidTransition
	}

	query := `UPDATE documents SET status = $1 WHERE id = $2 AND status = $3`
	result, err := s.db.ExecContext(ctx, query, string(next), id, string(from))
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Distinguish an absent row from a disallowed transition
	var exists bool
	err = s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check document existence: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInvalidTransition
}
