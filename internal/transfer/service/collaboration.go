package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"caseflow/internal/transfer/models"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/audit"
)

// ShareDocuments attaches document references to an open transfer.
func (s *Service) ShareDocuments(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.ShareDocumentsRequest) (_ *models.Transfer, err error) {
	ctx, done := s.observe(ctx, "share_documents", transferAttr(transferID))
	defer func() { done(err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, caller, transferID, eitherParty, func(ctx context.Context, t *models.Transfer, now time.Time) (outcome, error) {
		docs := make([]models.SharedDocument, 0, len(req.Documents))
		names := make([]string, 0, len(req.Documents))
		for _, d := range req.Documents {
			docs = append(docs, models.SharedDocument{
				ID:       uuid.NewString(),
				Name:     d.Name,
				Type:     d.Type,
				URL:      d.URL,
				SharedAt: now,
			})
			names = append(names, d.Name)
		}
		if err := t.ShareDocuments(docs, now); err != nil {
			return outcome{}, err
		}
		return outcome{
			event: models.NewTimelineEvent(t.ID, models.EventDocumentsShared,
				fmt.Sprintf("%d document(s) shared", len(docs)), caller.UserID,
				models.EventData{"count": len(docs), "documents": names}, now),
			action:    audit.EventTransferDocumentsShared,
			auditMeta: map[string]any{"documents": names},
		}, nil
	})
}

// ShareCaseNotes links existing case notes to the transfer from the sending side.
func (s *Service) ShareCaseNotes(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.ShareCaseNotesRequest) (_ *models.Transfer, err error) {
	ctx, done := s.observe(ctx, "share_case_notes", transferAttr(transferID))
	defer func() { done(err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, caller, transferID, sendingParty, func(ctx context.Context, t *models.Transfer, now time.Time) (outcome, error) {
		added, err := t.ShareCaseNotes(req.CaseNoteIDs, now)
		if err != nil {
			return outcome{}, err
		}
		if added == nil {
			added = []string{}
		}
		return outcome{
			event: models.NewTimelineEvent(t.ID, models.EventCaseNotesShared,
				fmt.Sprintf("%d case note(s) shared", len(added)), caller.UserID,
				models.EventData{"count": len(added), "caseNoteIds": added}, now),
			action:    audit.EventTransferCaseNotesShared,
			auditMeta: map[string]any{"case_note_ids": added},
		}, nil
	})
}

func (s *Service) ScheduleMeeting(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.ScheduleMeetingRequest) (_ *models.Transfer, err error) {
	ctx, done := s.observe(ctx, "schedule_meeting", transferAttr(transferID))
	defer func() { done(err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, caller, transferID, eitherParty, func(ctx context.Context, t *models.Transfer, now time.Time) (outcome, error) {
		if err := t.ScheduleMeeting(req.Date, req.Notes, now); err != nil {
			return outcome{}, err
		}
		when := req.Date.UTC().Format(time.RFC3339)
		return outcome{
			event: models.NewTimelineEvent(t.ID, models.EventMeetingScheduled,
				"Coordination meeting scheduled for "+when, caller.UserID,
				models.EventData{"meetingDate": when, "notes": req.Notes}, now),
			action:    audit.EventTransferMeetingScheduled,
			auditMeta: map[string]any{"meeting_date": when},
		}, nil
	})
}

func (s *Service) CompleteMeeting(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.CompleteMeetingRequest) (_ *models.Transfer, err error) {
	ctx, done := s.observe(ctx, "complete_meeting", transferAttr(transferID))
	defer func() { done(err) }()

	if req.Outcome == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "meeting outcome is required")
	}
	return s.mutate(ctx, caller, transferID, eitherParty, func(ctx context.Context, t *models.Transfer, now time.Time) (outcome, error) {
		if err := t.CompleteMeeting(req.Outcome, now); err != nil {
			return outcome{}, err
		}
		return outcome{
			event: models.NewTimelineEvent(t.ID, models.EventMeetingCompleted,
				"Coordination meeting completed", caller.UserID,
				models.EventData{"outcome": req.Outcome}, now),
			action: audit.EventTransferMeetingCompleted,
		}, nil
	})
}

// AddComment records a free-text note on the timeline only; the transfer row
// is not touched.
func (s *Service) AddComment(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.AddCommentRequest) (_ *models.Transfer, err error) {
	ctx, done := s.observe(ctx, "add_comment", transferAttr(transferID))
	defer func() { done(err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, caller, transferID, eitherParty, func(ctx context.Context, t *models.Transfer, now time.Time) (outcome, error) {
		return outcome{
			event: models.NewTimelineEvent(t.ID, models.EventCommentAdded,
				"Comment added: "+preview(req.Comment), caller.UserID,
				models.EventData{"comment": req.Comment}, now),
			action:   audit.EventTransferCommentAdded,
			skipSave: true,
		}, nil
	})
}

// UpdateFollowUp tracks post-transfer follow-up from the receiving side.
func (s *Service) UpdateFollowUp(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.UpdateFollowUpRequest) (_ *models.Transfer, err error) {
	ctx, done := s.observe(ctx, "update_follow_up", transferAttr(transferID))
	defer func() { done(err) }()

	return s.mutate(ctx, caller, transferID, receivingParty, func(ctx context.Context, t *models.Transfer, now time.Time) (outcome, error) {
		changes, err := t.UpdateFollowUp(req.FollowUpFields, now)
		if err != nil {
			return outcome{}, err
		}
		if len(changes) == 0 {
			return outcome{}, dErrors.New(dErrors.CodeValidation, "at least one follow-up field must be provided")
		}
		return outcome{
			event: models.NewTimelineEvent(t.ID, models.EventStatusChanged,
				"Follow-up details updated", caller.UserID,
				models.EventData{"changes": changes}, now),
			action:    audit.EventTransferFollowUpUpdated,
			auditMeta: map[string]any{"changes": changes},
		}, nil
	})
}
