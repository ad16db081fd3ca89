package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"caseflow/internal/learner/models"
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

const learnerColumns = `id, first_name, last_name, current_institution_id, authorized_institutions, status,
	enrollment_date, exit_date, institution_history, last_modified_by, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, l *models.Learner) error {
	history, err := json.Marshal(historyOrEmpty(l.InstitutionHistory))
	if err != nil {
		return fmt.Errorf("marshal institution history: %w", err)
	}
	_, err = txcontext.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO learners (`+learnerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, uuid.UUID(l.ID), l.FirstName, l.LastName, uuid.UUID(l.CurrentInstitutionID),
		pq.Array(institutionStrings(l.AuthorizedInstitutions)), string(l.Status),
		l.EnrollmentDate, l.ExitDate, history, nullableUser(l.LastModifiedBy), l.CreatedAt, l.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert learner: %w", err)
	}
	return nil
}

// FindByID locks the row when called inside a transaction so concurrent
// transfers serialize on the learner.
func (s *PostgresStore) FindByID(ctx context.Context, learnerID id.LearnerID) (*models.Learner, error) {
	query := `SELECT ` + learnerColumns + ` FROM learners WHERE id = $1 AND deleted_at IS NULL`
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE`
	}
	var (
		l              models.Learner
		rawID, rawInst uuid.UUID
		authorized     []string
		status         string
		history        []byte
		modifiedBy     uuid.NullUUID
	)
	err := txcontext.Execer(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(learnerID)).Scan(
		&rawID, &l.FirstName, &l.LastName, &rawInst, pq.Array(&authorized), &status,
		&l.EnrollmentDate, &l.ExitDate, &history, &modifiedBy, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find learner: %w", err)
	}
	l.ID = id.LearnerID(rawID)
	l.CurrentInstitutionID = id.InstitutionID(rawInst)
	l.Status = models.Status(status)
	for _, raw := range authorized {
		instID, err := id.ParseInstitutionID(raw)
		if err != nil {
			return nil, fmt.Errorf("decode authorized institution: %w", err)
		}
		l.AuthorizedInstitutions = append(l.AuthorizedInstitutions, instID)
	}
	if err := json.Unmarshal(history, &l.InstitutionHistory); err != nil {
		return nil, fmt.Errorf("decode institution history: %w", err)
	}
	if modifiedBy.Valid {
		u := id.UserID(modifiedBy.UUID)
		l.LastModifiedBy = &u
	}
	return &l, nil
}

func (s *PostgresStore) Save(ctx context.Context, l *models.Learner) error {
	history, err := json.Marshal(historyOrEmpty(l.InstitutionHistory))
	if err != nil {
		return fmt.Errorf("marshal institution history: %w", err)
	}
	res, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, `
		UPDATE learners SET
			current_institution_id = $2,
			authorized_institutions = $3,
			status = $4,
			enrollment_date = $5,
			exit_date = $6,
			institution_history = $7,
			last_modified_by = $8,
			updated_at = $9
		WHERE id = $1 AND deleted_at IS NULL
	`, uuid.UUID(l.ID), uuid.UUID(l.CurrentInstitutionID), pq.Array(institutionStrings(l.AuthorizedInstitutions)),
		string(l.Status), l.EnrollmentDate, l.ExitDate, history, nullableUser(l.LastModifiedBy), l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update learner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update learner: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func institutionStrings(ids []id.InstitutionID) []string {
	out := make([]string, 0, len(ids))
	for _, instID := range ids {
		out = append(out, instID.String())
	}
	return out
}

func historyOrEmpty(h []models.HistoryEntry) []models.HistoryEntry {
	if h == nil {
		return []models.HistoryEntry{}
	}
	return h
}

func nullableUser(u *id.UserID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*u), Valid: true}
}
