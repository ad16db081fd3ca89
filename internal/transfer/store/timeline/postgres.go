package timeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"caseflow/internal/transfer/models"
	id "caseflow/pkg/domain"
	txcontext "caseflow/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, e *models.TimelineEvent) error {
	data := e.EventData
	if data == nil {
		data = models.EventData{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	var performedBy uuid.NullUUID
	if e.PerformedBy != nil {
		performedBy = uuid.NullUUID{UUID: uuid.UUID(*e.PerformedBy), Valid: true}
	}
	err = txcontext.Execer(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO transfer_timeline (id, transfer_id, event_type, description, performed_by, event_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq
	`, uuid.UUID(e.ID), uuid.UUID(e.TransferID), string(e.EventType), e.Description, performedBy, payload, e.CreatedAt,
	).Scan(&e.Seq)
	if err != nil {
		return fmt.Errorf("append timeline event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByTransfer(ctx context.Context, transferID id.TransferID) ([]*models.TimelineEvent, error) {
	rows, err := txcontext.Execer(ctx, s.db).QueryContext(ctx, `
		SELECT seq, id, transfer_id, event_type, description, performed_by, event_data, created_at
		FROM transfer_timeline
		WHERE transfer_id = $1
		ORDER BY created_at ASC, seq ASC
	`, uuid.UUID(transferID))
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	defer rows.Close()

	var out []*models.TimelineEvent
	for rows.Next() {
		var (
			e                  models.TimelineEvent
			rawID, rawTransfer uuid.UUID
			kind               string
			performedBy        uuid.NullUUID
			payload            []byte
		)
		if err := rows.Scan(&e.Seq, &rawID, &rawTransfer, &kind, &e.Description, &performedBy, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		e.ID = id.TimelineEventID(rawID)
		e.TransferID = id.TransferID(rawTransfer)
		e.EventType = models.EventType(kind)
		if performedBy.Valid {
			u := id.UserID(performedBy.UUID)
			e.PerformedBy = &u
		}
		if err := json.Unmarshal(payload, &e.EventData); err != nil {
			return nil, fmt.Errorf("decode event data: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	return out, nil
}
