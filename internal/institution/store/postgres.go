package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"caseflow/internal/institution/models"
	id "caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
	txcontext "caseflow/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, inst *models.Institution) error {
	_, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO institutions (id, name, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.UUID(inst.ID), inst.Name, string(inst.Type), inst.CreatedAt, inst.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert institution: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, instID id.InstitutionID) (*models.Institution, error) {
	var (
		inst models.Institution
		raw  uuid.UUID
		kind string
	)
	err := txcontext.Execer(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, name, type, created_at, updated_at
		FROM institutions
		WHERE id = $1 AND deleted_at IS NULL
	`, uuid.UUID(instID)).Scan(&raw, &inst.Name, &kind, &inst.CreatedAt, &inst.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find institution: %w", err)
	}
	inst.ID = id.InstitutionID(raw)
	inst.Type = models.InstitutionType(kind)
	return &inst, nil
}

func (s *PostgresStore) SoftDelete(ctx context.Context, instID id.InstitutionID, at time.Time) error {
	res, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, `
		UPDATE institutions SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`, uuid.UUID(instID), at)
	if err != nil {
		return fmt.Errorf("soft delete institution: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete institution: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
