package transfer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"caseflow/internal/transfer/models"
	id "caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
	txcontext "caseflow/pkg/platform/tx"
)

const (
	constraintOneActive = "transfers_one_active_per_learner"
	constraintNumber    = "transfers_transfer_number_key"
)

const transferColumns = `id, transfer_number, learner_id, from_institution_id, to_institution_id, status, priority,
	reason, reason_details, proposed_transfer_date, actual_transfer_date, initiated_by,
	reviewed_by, reviewed_at, review_notes, handover_summary, shared_documents, shared_case_notes, communications,
	coordination_meeting_required, coordination_meeting_date, coordination_meeting_notes,
	receiving_institution_acknowledged, acknowledged_by, acknowledged_at, completion_checklist,
	requires_follow_up, follow_up_date, follow_up_notes, follow_up_completed,
	metadata, created_at, updated_at, deleted_at`

// PostgresStore persists transfers. The single-active rule is a partial unique
// index; violations surface as sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// jsonColumns holds the encoded JSONB values of a transfer.
type jsonColumns struct {
	handover, documents, communications, checklist, metadata []byte
}

func encodeJSON(t *models.Transfer) (jsonColumns, error) {
	var (
		cols jsonColumns
		err  error
	)
	if t.HandoverSummary != nil {
		if cols.handover, err = json.Marshal(t.HandoverSummary); err != nil {
			return cols, fmt.Errorf("marshal handover summary: %w", err)
		}
	}
	if t.CompletionChecklist != nil {
		if cols.checklist, err = json.Marshal(t.CompletionChecklist); err != nil {
			return cols, fmt.Errorf("marshal completion checklist: %w", err)
		}
	}
	if cols.documents, err = json.Marshal(nonNil(t.SharedDocuments)); err != nil {
		return cols, fmt.Errorf("marshal shared documents: %w", err)
	}
	if cols.communications, err = json.Marshal(nonNil(t.Communications)); err != nil {
		return cols, fmt.Errorf("marshal communications: %w", err)
	}
	meta := t.Metadata
	if meta == nil {
		meta = models.Metadata{}
	}
	if cols.metadata, err = json.Marshal(meta); err != nil {
		return cols, fmt.Errorf("marshal metadata: %w", err)
	}
	return cols, nil
}

func (s *PostgresStore) Create(ctx context.Context, t *models.Transfer) error {
	cols, err := encodeJSON(t)
	if err != nil {
		return err
	}
	res, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO transfers (`+transferColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
			$20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34)
		ON CONFLICT (transfer_number) DO NOTHING
	`,
		uuid.UUID(t.ID), t.TransferNumber, uuid.UUID(t.LearnerID),
		uuid.UUID(t.FromInstitutionID), uuid.UUID(t.ToInstitutionID),
		string(t.Status), string(t.Priority), string(t.Reason), t.ReasonDetails,
		t.ProposedTransferDate, t.ActualTransferDate, uuid.UUID(t.InitiatedBy),
		nullableUser(t.ReviewedBy), t.ReviewedAt, t.ReviewNotes, nullableJSON(cols.handover), cols.documents,
		pq.Array(nonNil(t.SharedCaseNotes)), cols.communications,
		t.CoordinationMeetingRequired, t.CoordinationMeetingDate, t.CoordinationMeetingNotes,
		t.ReceivingInstitutionAcknowledged, nullableUser(t.AcknowledgedBy), t.AcknowledgedAt, nullableJSON(cols.checklist),
		t.RequiresFollowUp, t.FollowUpDate, t.FollowUpNotes, t.FollowUpCompleted,
		cols.metadata, t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	)
	if err != nil {
		return mapWriteError("insert transfer", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	if n == 0 {
		return ErrDuplicateNumber
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, transferID id.TransferID) (*models.Transfer, error) {
	return s.findOne(ctx, `WHERE id = $1 AND deleted_at IS NULL`, transferID)
}

func (s *PostgresStore) FindByIDIncludingDeleted(ctx context.Context, transferID id.TransferID) (*models.Transfer, error) {
	return s.findOne(ctx, `WHERE id = $1`, transferID)
}

// findOne locks the row when a transaction is active so concurrent writers
// on the same transfer serialize.
func (s *PostgresStore) findOne(ctx context.Context, where string, transferID id.TransferID) (*models.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers ` + where
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE`
	}
	t, err := scanTransfer(txcontext.Execer(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(transferID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find transfer: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) Save(ctx context.Context, t *models.Transfer) error {
	cols, err := encodeJSON(t)
	if err != nil {
		return err
	}
	res, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, `
		UPDATE transfers SET
			status = $2,
			priority = $3,
			proposed_transfer_date = $4,
			actual_transfer_date = $5,
			reviewed_by = $6,
			reviewed_at = $7,
			review_notes = $8,
			handover_summary = $9,
			shared_documents = $10,
			shared_case_notes = $11,
			communications = $12,
			coordination_meeting_required = $13,
			coordination_meeting_date = $14,
			coordination_meeting_notes = $15,
			receiving_institution_acknowledged = $16,
			acknowledged_by = $17,
			acknowledged_at = $18,
			completion_checklist = $19,
			requires_follow_up = $20,
			follow_up_date = $21,
			follow_up_notes = $22,
			follow_up_completed = $23,
			metadata = $24,
			updated_at = $25
		WHERE id = $1 AND deleted_at IS NULL
	`,
		uuid.UUID(t.ID), string(t.Status), string(t.Priority), t.ProposedTransferDate, t.ActualTransferDate,
		nullableUser(t.ReviewedBy), t.ReviewedAt, t.ReviewNotes, nullableJSON(cols.handover), cols.documents,
		pq.Array(nonNil(t.SharedCaseNotes)), cols.communications,
		t.CoordinationMeetingRequired, t.CoordinationMeetingDate, t.CoordinationMeetingNotes,
		t.ReceivingInstitutionAcknowledged, nullableUser(t.AcknowledgedBy), t.AcknowledgedAt, nullableJSON(cols.checklist),
		t.RequiresFollowUp, t.FollowUpDate, t.FollowUpNotes, t.FollowUpCompleted,
		cols.metadata, t.UpdatedAt,
	)
	if err != nil {
		return mapWriteError("update transfer", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SoftDelete(ctx context.Context, transferID id.TransferID, at time.Time) error {
	res, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, `
		UPDATE transfers SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`, uuid.UUID(transferID), at)
	if err != nil {
		return fmt.Errorf("soft delete transfer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete transfer: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) HasActiveForLearner(ctx context.Context, learnerID id.LearnerID) (bool, error) {
	var exists bool
	err := txcontext.Execer(ctx, s.db).QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM transfers
			WHERE learner_id = $1 AND status IN ('pending', 'approved') AND deleted_at IS NULL
		)
	`, uuid.UUID(learnerID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active transfer: %w", err)
	}
	return exists, nil
}

// whereClause builds the shared listing predicate and its arguments.
func whereClause(f models.ListFilter) (string, []any) {
	conds := []string{"deleted_at IS NULL"}
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Scope != nil {
		args = append(args, uuid.UUID(*f.Scope))
		conds = append(conds, fmt.Sprintf("(from_institution_id = $%d OR to_institution_id = $%d)", len(args), len(args)))
	}
	if f.LearnerID != nil {
		add("learner_id = $%d", uuid.UUID(*f.LearnerID))
	}
	if f.FromInstitutionID != nil {
		add("from_institution_id = $%d", uuid.UUID(*f.FromInstitutionID))
	}
	if f.ToInstitutionID != nil {
		add("to_institution_id = $%d", uuid.UUID(*f.ToInstitutionID))
	}
	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	if f.Priority != nil {
		add("priority = $%d", string(*f.Priority))
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (s *PostgresStore) List(ctx context.Context, f models.ListFilter) ([]*models.Transfer, int, error) {
	where, args := whereClause(f)
	db := txcontext.Execer(ctx, s.db)

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transfers `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transfers: %w", err)
	}

	pageArgs := append(args, f.Limit, f.Offset)
	rows, err := db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM transfers %s ORDER BY created_at DESC, transfer_number DESC LIMIT $%d OFFSET $%d`,
		transferColumns, where, len(args)+1, len(args)+2,
	), pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Transfer, 0, f.Limit)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transfer: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list transfers: %w", err)
	}
	return out, total, nil
}

func (s *PostgresStore) Statistics(ctx context.Context, scope *id.InstitutionID) (models.Statistics, error) {
	where, args := whereClause(models.ListFilter{Scope: scope})
	var stats models.Statistics
	err := txcontext.Execer(ctx, s.db).QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'rejected')
		FROM transfers `+where, args...,
	).Scan(&stats.Total, &stats.Pending, &stats.Approved, &stats.Completed, &stats.Rejected)
	if err != nil {
		return models.Statistics{}, fmt.Errorf("transfer statistics: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*models.Transfer, error) {
	var (
		t                                          models.Transfer
		rawID, rawLearner, rawFrom, rawTo, rawInit uuid.UUID
		status, priority, reason                   string
		reviewedBy, acknowledgedBy                 uuid.NullUUID
		reviewNotes                                sql.NullString
		handover, documents, communications        []byte
		checklist, metadata                        []byte
		caseNotes                                  []string
	)
	err := row.Scan(
		&rawID, &t.TransferNumber, &rawLearner, &rawFrom, &rawTo, &status, &priority,
		&reason, &t.ReasonDetails, &t.ProposedTransferDate, &t.ActualTransferDate, &rawInit,
		&reviewedBy, &t.ReviewedAt, &reviewNotes, &handover, &documents, pq.Array(&caseNotes), &communications,
		&t.CoordinationMeetingRequired, &t.CoordinationMeetingDate, &t.CoordinationMeetingNotes,
		&t.ReceivingInstitutionAcknowledged, &acknowledgedBy, &t.AcknowledgedAt, &checklist,
		&t.RequiresFollowUp, &t.FollowUpDate, &t.FollowUpNotes, &t.FollowUpCompleted,
		&metadata, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	t.ID = id.TransferID(rawID)
	t.LearnerID = id.LearnerID(rawLearner)
	t.FromInstitutionID = id.InstitutionID(rawFrom)
	t.ToInstitutionID = id.InstitutionID(rawTo)
	t.InitiatedBy = id.UserID(rawInit)
	t.Status = models.Status(status)
	t.Priority = models.Priority(priority)
	t.Reason = models.Reason(reason)
	t.ReviewedBy = userPtr(reviewedBy)
	t.AcknowledgedBy = userPtr(acknowledgedBy)
	if reviewNotes.Valid {
		t.ReviewNotes = &reviewNotes.String
	}
	t.SharedCaseNotes = nonNil(caseNotes)

	if len(handover) > 0 {
		t.HandoverSummary = &models.HandoverSummary{}
		if err := json.Unmarshal(handover, t.HandoverSummary); err != nil {
			return nil, fmt.Errorf("decode handover summary: %w", err)
		}
	}
	if len(checklist) > 0 {
		t.CompletionChecklist = &models.CompletionChecklist{}
		if err := json.Unmarshal(checklist, t.CompletionChecklist); err != nil {
			return nil, fmt.Errorf("decode completion checklist: %w", err)
		}
	}
	if err := json.Unmarshal(documents, &t.SharedDocuments); err != nil {
		return nil, fmt.Errorf("decode shared documents: %w", err)
	}
	if err := json.Unmarshal(communications, &t.Communications); err != nil {
		return nil, fmt.Errorf("decode communications: %w", err)
	}
	if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	t.SharedDocuments = nonNil(t.SharedDocuments)
	t.Communications = nonNil(t.Communications)
	if t.Metadata == nil {
		t.Metadata = models.Metadata{}
	}
	return &t, nil
}

func mapWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case constraintOneActive:
			return sentinel.ErrConflict
		case constraintNumber:
			return ErrDuplicateNumber
		}
		return sentinel.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

// nullableJSON sends SQL NULL for an absent JSONB value.
func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func nullableUser(u *id.UserID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*u), Valid: true}
}

func userPtr(n uuid.NullUUID) *id.UserID {
	if !n.Valid {
		return nil
	}
	u := id.UserID(n.UUID)
	return &u
}
