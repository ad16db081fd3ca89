package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "caseflow/pkg/domain"
)

// EventCategory classifies audit events by retention and routing needs.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance: learner data
	// leaving or entering an institution. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine workflow activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID            uuid.UUID
	Category      EventCategory
	Timestamp     time.Time
	Action        string
	EntityType    string
	EntityID      string
	ActorID       id.UserID
	InstitutionID id.InstitutionID
	RequestID     string
	ClientIP      string
	UserAgent     string
	Metadata      map[string]any
}

type AuditEvent string

const (
	EventTransferInitiated          AuditEvent = "transfer_initiated"
	EventTransferUpdated            AuditEvent = "transfer_updated"
	EventTransferApproved           AuditEvent = "transfer_approved"
	EventTransferRejected           AuditEvent = "transfer_rejected"
	EventTransferAcknowledged       AuditEvent = "transfer_acknowledged"
	EventTransferCompleted          AuditEvent = "transfer_completed"
	EventTransferCancelled          AuditEvent = "transfer_cancelled"
	EventTransferDeleted            AuditEvent = "transfer_deleted"
	EventTransferCommunicationAdded AuditEvent = "transfer_communication_added"
	EventTransferDocumentsShared    AuditEvent = "transfer_documents_shared"
	EventTransferCaseNotesShared    AuditEvent = "transfer_case_notes_shared"
	EventTransferMeetingScheduled   AuditEvent = "transfer_meeting_scheduled"
	EventTransferMeetingCompleted   AuditEvent = "transfer_meeting_completed"
	EventTransferCommentAdded       AuditEvent = "transfer_comment_added"
	EventTransferFollowUpUpdated    AuditEvent = "transfer_follow_up_updated"
)

// eventCategories maps each audit event to its category. Anything that moves
// learner data between institutions is compliance.
var eventCategories = map[AuditEvent]EventCategory{
	EventTransferInitiated:       CategoryCompliance,
	EventTransferApproved:        CategoryCompliance,
	EventTransferRejected:        CategoryCompliance,
	EventTransferCompleted:       CategoryCompliance,
	EventTransferCancelled:       CategoryCompliance,
	EventTransferDeleted:         CategoryCompliance,
	EventTransferDocumentsShared: CategoryCompliance,
	EventTransferCaseNotesShared: CategoryCompliance,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. The Postgres implementation is an outbox.
type Store interface {
	Append(ctx context.Context, event Event) error
}
