package handler

import (
	"caseflow/internal/transfer/models"
	id "caseflow/pkg/domain"
)

// TimelineResponse is the body of GET /transfers/{id}/timeline.
type TimelineResponse struct {
	TransferID id.TransferID           `json:"transfer_id"`
	Events     []*models.TimelineEvent `json:"events"`
}

func newTimelineResponse(transferID id.TransferID, events []*models.TimelineEvent) TimelineResponse {
	if events == nil {
		events = []*models.TimelineEvent{}
	}
	return TimelineResponse{TransferID: transferID, Events: events}
}
