package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/licitaware/editais-core/internal/core/domain"
	"github.com/licitaware/editais-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChecklistStore = (*ChecklistStore)(nil)

// ChecklistStore implements driven.ChecklistStore using PostgreSQL.
// The UNIQUE constraint on document_id is the idempotency backstop against
// duplicate queue delivery.
type ChecklistStore struct {
	db *DB
}

// NewChecklistStore creates a new ChecklistStore
func NewChecklistStore(db *DB) *ChecklistStore {
	return &ChecklistStore{db: db}
}

// Insert stores a checklist row exactly once per document.
func (s *ChecklistStore) Insert(ctx context.Context, row *domain.ChecklistRow) error {
	data, err := row.MarshalData()
	if err != nil {
		return fmt.Errorf("failed to marshal checklist data: %w", err)
	}

	query := `
		INSERT INTO checklists (id, user_id, file_name, data, pontuacao, orgao, objeto, valor_total, document_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
	`
	_, err = s.db.ExecContext(ctx, query,
		row.ID,
		row.UserID,
		row.FileName,
		data,
		NullInt(row.Pontuacao),
		NullString(row.Orgao),
		NullString(row.Objeto),
		NullString(row.ValorTotal),
		row.DocumentID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert checklist: %w", err)
	}
	return nil
}

// GetByDocument retrieves the checklist for a document.
func (s *ChecklistStore) GetByDocument(ctx context.Context, documentID string) (*domain.ChecklistRow, error) {
	query := `
		SELECT id, user_id, file_name, data, pontuacao, orgao, objeto, valor_total, document_id, created_at
		FROM checklists
		WHERE document_id = $1
	`

	var row domain.ChecklistRow
	var data []byte
	var pontuacao sql.NullInt64
	var orgao, objeto, valorTotal sql.NullString

	err := s.db.QueryRowContext(ctx, query, documentID).Scan(
		&row.ID, &row.UserID, &row.FileName, &data,
		&pontuacao, &orgao, &objeto, &valorTotal,
		&row.DocumentID, &row.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get checklist: %w", err)
	}

	if err := json.Unmarshal(data, &row.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checklist data: %w", err)
	}
	if pontuacao.Valid {
		p := int(pontuacao.Int64)
		row.Pontuacao = &p
	}
	row.Orgao = orgao.String
	row.Objeto = objeto.String
	row.ValorTotal = valorTotal.String
	return &row, nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
