package models

import (
	"time"

	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

// CreateTransferRequest opens a transfer. SharedCaseNotes are external
// case-note ids; they are trimmed and deduplicated on create.
type CreateTransferRequest struct {
	LearnerID                   id.LearnerID     `json:"learner_id" validate:"required"`
	ToInstitutionID             id.InstitutionID `json:"to_institution_id" validate:"required"`
	Reason                      Reason           `json:"reason" validate:"required"`
	ReasonDetails               string           `json:"reason_details" validate:"max=2000"`
	Priority                    Priority         `json:"priority"`
	ProposedTransferDate        time.Time        `json:"proposed_transfer_date" validate:"required"`
	HandoverSummary             *HandoverSummary `json:"handover_summary"`
	SharedCaseNotes             []string         `json:"shared_case_notes" validate:"omitempty,max=100,dive,required,max=100"`
	CoordinationMeetingRequired bool             `json:"coordination_meeting_required"`
}

func (r *CreateTransferRequest) Validate() error {
	if r.LearnerID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "learner_id is required")
	}
	if r.ToInstitutionID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "to_institution_id is required")
	}
	if !r.Reason.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown transfer reason: "+string(r.Reason))
	}
	if r.Priority != "" && !r.Priority.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown transfer priority: "+string(r.Priority))
	}
	if r.ProposedTransferDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "proposed_transfer_date is required")
	}
	return nil
}

type ReviewTransferRequest struct {
	Status             Status     `json:"status" validate:"required"`
	ReviewNotes        string     `json:"review_notes" validate:"max=2000"`
	ActualTransferDate *time.Time `json:"actual_transfer_date"`
}

type AcknowledgeTransferRequest struct {
	Notes              string `json:"notes" validate:"max=2000"`
	DocumentsReceived  bool   `json:"documents_received"`
	ReadyForEnrollment bool   `json:"ready_for_enrollment"`
}

type CompleteTransferRequest struct {
	CompletionChecklist *CompletionChecklist `json:"completion_checklist" validate:"required"`
	ActualTransferDate  *time.Time           `json:"actual_transfer_date"`
}

type CancelTransferRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

func (r *CancelTransferRequest) Validate() error {
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "cancellation reason is required")
	}
	return nil
}

type AddCommunicationRequest struct {
	ToInstitutionID id.InstitutionID `json:"to_institution_id" validate:"required"`
	Message         string           `json:"message" validate:"required,max=5000"`
}

func (r *AddCommunicationRequest) Validate() error {
	if r.ToInstitutionID.IsNil() || r.Message == "" {
		return dErrors.New(dErrors.CodeValidation, "to_institution_id and message are required")
	}
	return nil
}

// FollowUpFields are shared by Update and UpdateFollowUp.
type FollowUpFields struct {
	RequiresFollowUp  *bool      `json:"requires_follow_up"`
	FollowUpDate      *time.Time `json:"follow_up_date"`
	FollowUpNotes     *string    `json:"follow_up_notes" validate:"omitempty,max=2000"`
	FollowUpCompleted *bool      `json:"follow_up_completed"`
}

// UpdateTransferRequest omits reason and the participants: those never change.
type UpdateTransferRequest struct {
	Priority                    *Priority        `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	ProposedTransferDate        *time.Time       `json:"proposed_transfer_date"`
	HandoverSummary             *HandoverSummary `json:"handover_summary"`
	SharedCaseNotes             []string         `json:"shared_case_notes" validate:"omitempty,max=100,dive,required,max=100"`
	CoordinationMeetingRequired *bool            `json:"coordination_meeting_required"`
	CoordinationMeetingDate     *time.Time       `json:"coordination_meeting_date"`
	CoordinationMeetingNotes    *string          `json:"coordination_meeting_notes" validate:"omitempty,max=2000"`
	FollowUp                    FollowUpFields   `json:"follow_up"`
}

func (r *UpdateTransferRequest) Validate() error {
	if r.Priority != nil && !r.Priority.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown transfer priority: "+string(*r.Priority))
	}
	return nil
}

type DocumentInput struct {
	Name string `json:"name" validate:"required,max=255"`
	Type string `json:"type" validate:"required,max=100"`
	URL  string `json:"url" validate:"required,url,max=2048"`
}

type ShareDocumentsRequest struct {
	Documents []DocumentInput `json:"documents" validate:"required,min=1,max=20,dive"`
}

func (r *ShareDocumentsRequest) Validate() error {
	if len(r.Documents) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one document is required")
	}
	for _, d := range r.Documents {
		if d.Name == "" || d.URL == "" {
			return dErrors.New(dErrors.CodeValidation, "documents need a name and url")
		}
	}
	return nil
}

type ShareCaseNotesRequest struct {
	CaseNoteIDs []string `json:"case_note_ids" validate:"required,min=1,max=100,dive,required,max=100"`
}

func (r *ShareCaseNotesRequest) Validate() error {
	if len(r.CaseNoteIDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one case note id is required")
	}
	return nil
}

type ScheduleMeetingRequest struct {
	Date  time.Time `json:"date" validate:"required"`
	Notes string    `json:"notes" validate:"max=2000"`
}

func (r *ScheduleMeetingRequest) Validate() error {
	if r.Date.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "meeting date is required")
	}
	return nil
}

type CompleteMeetingRequest struct {
	Outcome string `json:"outcome" validate:"required,max=5000"`
}

type AddCommentRequest struct {
	Comment string `json:"comment" validate:"required,max=5000"`
}

func (r *AddCommentRequest) Validate() error {
	if r.Comment == "" {
		return dErrors.New(dErrors.CodeValidation, "comment is required")
	}
	return nil
}

type UpdateFollowUpRequest struct {
	FollowUpFields
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListTransfersRequest filters a listing. Zero values mean "no filter".
type ListTransfersRequest struct {
	LearnerID         *id.LearnerID
	FromInstitutionID *id.InstitutionID
	ToInstitutionID   *id.InstitutionID
	Status            *Status
	Priority          *Priority
	Page              int
	Limit             int
}

// Normalize applies paging defaults and caps.
func (r *ListTransfersRequest) Normalize() {
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
}
