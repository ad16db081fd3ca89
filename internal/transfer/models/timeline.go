package models

import (
	"time"

	id "caseflow/pkg/domain"
)

type EventType string

const (
	EventTransferInitiated EventType = "transfer_initiated"
	EventDocumentsShared   EventType = "documents_shared"
	EventCaseNotesShared   EventType = "case_notes_shared"
	EventCommunicationSent EventType = "communication_sent"
	EventMeetingScheduled  EventType = "meeting_scheduled"
	EventMeetingCompleted  EventType = "meeting_completed"
	EventApproved          EventType = "approved"
	EventRejected          EventType = "rejected"
	EventAcknowledged      EventType = "acknowledged"
	EventCompleted         EventType = "completed"
	EventCancelled         EventType = "cancelled"
	EventStatusChanged     EventType = "status_changed"
	EventCommentAdded      EventType = "comment_added"
)

type EventData map[string]any

// TimelineEvent is one immutable entry in a transfer's history. Seq is
// assigned by the store and orders events that share a timestamp.
type TimelineEvent struct {
	ID          id.TimelineEventID `json:"id"`
	TransferID  id.TransferID      `json:"transfer_id"`
	EventType   EventType          `json:"event_type"`
	Description string             `json:"description"`
	PerformedBy *id.UserID         `json:"performed_by,omitempty"`
	EventData   EventData          `json:"event_data"`
	CreatedAt   time.Time          `json:"created_at"`
	Seq         int64              `json:"-"`
}

func NewTimelineEvent(transferID id.TransferID, kind EventType, description string, by id.UserID, data EventData, now time.Time) *TimelineEvent {
	if data == nil {
		data = EventData{}
	}
	e := &TimelineEvent{
		ID:          id.NewTimelineEventID(),
		TransferID:  transferID,
		EventType:   kind,
		Description: description,
		EventData:   data,
		CreatedAt:   now,
	}
	if !by.IsNil() {
		e.PerformedBy = &by
	}
	return e
}
