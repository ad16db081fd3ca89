package adapters

import (
	"context"
	"log/slog"

	"caseflow/internal/transfer/ports"
	id "caseflow/pkg/domain"
	"caseflow/pkg/platform/audit"
	"caseflow/pkg/requestcontext"
)

// Emitter is satisfied by *audit.Publisher.
type Emitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// AuditAdapter turns transfer audit calls into platform audit events. Emit
// failures are logged and dropped.
type AuditAdapter struct {
	emitter Emitter
	logger  *slog.Logger
}

func NewAuditAdapter(emitter Emitter, logger *slog.Logger) ports.AuditSink {
	return &AuditAdapter{emitter: emitter, logger: logger}
}

func (a *AuditAdapter) RecordEvent(ctx context.Context, action string, entityType string, entityID string, actorID id.UserID, metadata map[string]any) {
	event := audit.Event{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Metadata:   metadata,
	}
	if caller, ok := requestcontext.Identity(ctx); ok {
		event.InstitutionID = caller.InstitutionID
	}
	if err := a.emitter.Emit(ctx, event); err != nil {
		a.logger.WarnContext(ctx, "audit event not recorded",
			"action", action,
			"entity_id", entityID,
			"error", err,
		)
	}
}
