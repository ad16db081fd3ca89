package ports

import (
	"context"

	id "caseflow/pkg/domain"
)

// AuditSink records transfer audit events. It is fire-and-forget: failures
// are handled inside the sink and never reach the workflow.
type AuditSink interface {
	RecordEvent(ctx context.Context, action string, entityType string, entityID string, actorID id.UserID, metadata map[string]any)
}
