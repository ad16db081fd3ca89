package models

import (
	"maps"
	"slices"
	"time"

	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	strutil "caseflow/pkg/platform/strings"
)

// HandoverSummary is the sending institution's narrative for the receiver.
type HandoverSummary struct {
	CurrentStatus         string   `json:"current_status" validate:"max=2000"`
	KeyAchievements       []string `json:"key_achievements" validate:"max=50,dive,max=1000"`
	OngoingChallenges     []string `json:"ongoing_challenges" validate:"max=50,dive,max=1000"`
	RecommendedStrategies []string `json:"recommended_strategies" validate:"max=50,dive,max=1000"`
	SpecialConsiderations []string `json:"special_considerations" validate:"max=50,dive,max=1000"`
}

type SharedDocument struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	URL      string    `json:"url"`
	SharedAt time.Time `json:"shared_at"`
}

// Communication links two parties of a transfer. From is the sending
// institution id, or the user id of a super-admin acting outside one.
type Communication struct {
	ID      string           `json:"id"`
	From    string           `json:"from"`
	To      id.InstitutionID `json:"to"`
	Message string           `json:"message"`
	SentAt  time.Time        `json:"sent_at"`
	ReadAt  *time.Time       `json:"read_at,omitempty"`
}

// CompletionChecklist must be fully ticked before a transfer completes.
type CompletionChecklist struct {
	DocumentsTransferred        bool `json:"documents_transferred"`
	CaseNotesShared             bool `json:"case_notes_shared"`
	ParentNotified              bool `json:"parent_notified"`
	EnrollmentCompleted         bool `json:"enrollment_completed"`
	PreviousInstitutionNotified bool `json:"previous_institution_notified"`
	TransitionPlanCreated       bool `json:"transition_plan_created"`
}

func (c CompletionChecklist) AllComplete() bool {
	return c.DocumentsTransferred && c.CaseNotesShared && c.ParentNotified &&
		c.EnrollmentCompleted && c.PreviousInstitutionNotified && c.TransitionPlanCreated
}

// Metadata holds acknowledgment, cancellation and meeting details.
type Metadata map[string]any

const (
	MetaAcknowledgmentNotes = "acknowledgmentNotes"
	MetaDocumentsReceived   = "documentsReceived"
	MetaReadyForEnrollment  = "readyForEnrollment"
	MetaCancellationReason  = "cancellationReason"
	MetaCancelledBy         = "cancelledBy"
	MetaCancelledAt         = "cancelledAt"
	MetaMeetingCompletedAt  = "meetingCompletedAt"
	MetaMeetingOutcome      = "meetingOutcome"
)

// Transfer moves one learner from one institution to another.
//
// Invariants:
//   - ID, TransferNumber, LearnerID, both institutions, Reason, ReasonDetails and
//     InitiatedBy never change after creation
//   - FromInstitutionID != ToInstitutionID
//   - Status only moves along the transitions table
//   - SharedDocuments, SharedCaseNotes and Communications are append-only
//   - the acknowledgment fields are set together, exactly once
type Transfer struct {
	ID                   id.TransferID    `json:"id"`
	TransferNumber       string           `json:"transfer_number"`
	LearnerID            id.LearnerID     `json:"learner_id"`
	FromInstitutionID    id.InstitutionID `json:"from_institution_id"`
	ToInstitutionID      id.InstitutionID `json:"to_institution_id"`
	Status               Status           `json:"status"`
	Priority             Priority         `json:"priority"`
	Reason               Reason           `json:"reason"`
	ReasonDetails        string           `json:"reason_details"`
	ProposedTransferDate time.Time        `json:"proposed_transfer_date"`
	ActualTransferDate   *time.Time       `json:"actual_transfer_date,omitempty"`
	InitiatedBy          id.UserID        `json:"initiated_by"`

	ReviewedBy  *id.UserID `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes *string    `json:"review_notes,omitempty"`

	HandoverSummary *HandoverSummary `json:"handover_summary,omitempty"`
	SharedDocuments []SharedDocument `json:"shared_documents"`
	SharedCaseNotes []string         `json:"shared_case_notes"`
	Communications  []Communication  `json:"communications"`

	CoordinationMeetingRequired bool       `json:"coordination_meeting_required"`
	CoordinationMeetingDate     *time.Time `json:"coordination_meeting_date,omitempty"`
	CoordinationMeetingNotes    string     `json:"coordination_meeting_notes"`

	ReceivingInstitutionAcknowledged bool       `json:"receiving_institution_acknowledged"`
	AcknowledgedBy                   *id.UserID `json:"acknowledged_by,omitempty"`
	AcknowledgedAt                   *time.Time `json:"acknowledged_at,omitempty"`

	CompletionChecklist *CompletionChecklist `json:"completion_checklist,omitempty"`

	RequiresFollowUp  bool       `json:"requires_follow_up"`
	FollowUpDate      *time.Time `json:"follow_up_date,omitempty"`
	FollowUpNotes     string     `json:"follow_up_notes"`
	FollowUpCompleted bool       `json:"follow_up_completed"`

	Metadata Metadata `json:"metadata"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// NewTransfer builds a pending transfer. Callers have already checked the
// learner, the destination and the single-active rule.
func NewTransfer(number string, req CreateTransferRequest, from id.InstitutionID, by id.UserID, now time.Time) (*Transfer, error) {
	if from == req.ToInstitutionID {
		return nil, dErrors.New(dErrors.CodeValidation, "destination institution must differ from the current institution")
	}
	priority := req.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	notes, _ := strutil.AppendUnique([]string{}, req.SharedCaseNotes)
	return &Transfer{
		ID:                          id.NewTransferID(),
		TransferNumber:              number,
		LearnerID:                   req.LearnerID,
		FromInstitutionID:           from,
		ToInstitutionID:             req.ToInstitutionID,
		Status:                      StatusPending,
		Priority:                    priority,
		Reason:                      req.Reason,
		ReasonDetails:               req.ReasonDetails,
		ProposedTransferDate:        req.ProposedTransferDate,
		InitiatedBy:                 by,
		HandoverSummary:             req.HandoverSummary,
		SharedDocuments:             []SharedDocument{},
		SharedCaseNotes:             notes,
		Communications:              []Communication{},
		CoordinationMeetingRequired: req.CoordinationMeetingRequired,
		Metadata:                    Metadata{},
		CreatedAt:                   now,
		UpdatedAt:                   now,
	}, nil
}

func (t *Transfer) IsDeleted() bool {
	return t.DeletedAt != nil
}

func (t *Transfer) transition(next Status, now time.Time) error {
	if !t.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvalidState,
			"transfer cannot move from "+string(t.Status)+" to "+string(next))
	}
	t.Status = next
	t.UpdatedAt = now
	return nil
}

// Review records the receiving institution's decision on a pending transfer.
func (t *Transfer) Review(decision Status, by id.UserID, notes string, actual *time.Time, now time.Time) error {
	if t.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvalidState, "only pending transfers can be reviewed")
	}
	if decision != StatusApproved && decision != StatusRejected {
		return dErrors.New(dErrors.CodeValidation, "review status must be approved or rejected")
	}
	if err := t.transition(decision, now); err != nil {
		return err
	}
	t.ReviewedBy = &by
	t.ReviewedAt = &now
	t.ReviewNotes = &notes
	if actual != nil {
		d := *actual
		t.ActualTransferDate = &d
	}
	return nil
}

func (t *Transfer) Acknowledge(by id.UserID, req AcknowledgeTransferRequest, now time.Time) error {
	if t.Status != StatusApproved {
		return dErrors.New(dErrors.CodeInvalidState, "only approved transfers can be acknowledged")
	}
	if t.ReceivingInstitutionAcknowledged {
		return dErrors.New(dErrors.CodeInvalidState, "transfer already acknowledged")
	}
	t.ReceivingInstitutionAcknowledged = true
	t.AcknowledgedBy = &by
	t.AcknowledgedAt = &now
	if req.Notes != "" {
		t.ensureMetadata()
		t.Metadata[MetaAcknowledgmentNotes] = req.Notes
		t.Metadata[MetaDocumentsReceived] = req.DocumentsReceived
		t.Metadata[MetaReadyForEnrollment] = req.ReadyForEnrollment
	}
	t.UpdatedAt = now
	return nil
}

// CheckCompletable reports why the transfer cannot complete with checklist, if at all.
func (t *Transfer) CheckCompletable(checklist *CompletionChecklist) error {
	if t.Status != StatusApproved {
		return dErrors.New(dErrors.CodeInvalidState, "transfer must be approved before completion")
	}
	if !t.ReceivingInstitutionAcknowledged {
		return dErrors.New(dErrors.CodeInvalidState, "receiving institution must acknowledge the transfer before completion")
	}
	if checklist == nil || !checklist.AllComplete() {
		return dErrors.New(dErrors.CodeValidation, "all completion checklist items must be complete")
	}
	return nil
}

func (t *Transfer) Complete(checklist CompletionChecklist, actual time.Time, now time.Time) error {
	if err := t.CheckCompletable(&checklist); err != nil {
		return err
	}
	if err := t.transition(StatusCompleted, now); err != nil {
		return err
	}
	t.CompletionChecklist = &checklist
	t.ActualTransferDate = &actual
	return nil
}

func (t *Transfer) Cancel(reason string, by id.UserID, now time.Time) error {
	if t.Status == StatusCompleted {
		return dErrors.New(dErrors.CodeInvalidState, "completed transfers cannot be cancelled")
	}
	if err := t.transition(StatusCancelled, now); err != nil {
		return err
	}
	t.ensureMetadata()
	t.Metadata[MetaCancellationReason] = reason
	t.Metadata[MetaCancelledBy] = by.String()
	t.Metadata[MetaCancelledAt] = now.UTC().Format(time.RFC3339Nano)
	return nil
}

func (t *Transfer) AddCommunication(from string, to id.InstitutionID, message string, msgID string, now time.Time) (Communication, error) {
	if to != t.FromInstitutionID && to != t.ToInstitutionID {
		return Communication{}, dErrors.New(dErrors.CodeValidation, "communications must be addressed to an institution on the transfer")
	}
	c := Communication{ID: msgID, From: from, To: to, Message: message, SentAt: now}
	t.Communications = append(t.Communications, c)
	t.UpdatedAt = now
	return c, nil
}

// ApplyUpdate merges the non-nil fields of req and returns the names of the
// fields that were provided, in request order.
func (t *Transfer) ApplyUpdate(req UpdateTransferRequest, now time.Time) ([]string, error) {
	if t.Status != StatusPending && t.Status != StatusCancelled {
		return nil, dErrors.New(dErrors.CodeInvalidState, "only pending or cancelled transfers can be updated")
	}
	var changes []string
	if req.Priority != nil {
		t.Priority = *req.Priority
		changes = append(changes, "priority")
	}
	if req.ProposedTransferDate != nil {
		t.ProposedTransferDate = *req.ProposedTransferDate
		changes = append(changes, "proposed_transfer_date")
	}
	if req.HandoverSummary != nil {
		h := *req.HandoverSummary
		t.HandoverSummary = &h
		changes = append(changes, "handover_summary")
	}
	if req.SharedCaseNotes != nil {
		t.appendCaseNotes(req.SharedCaseNotes)
		changes = append(changes, "shared_case_notes")
	}
	if req.CoordinationMeetingRequired != nil {
		t.CoordinationMeetingRequired = *req.CoordinationMeetingRequired
		changes = append(changes, "coordination_meeting_required")
	}
	if req.CoordinationMeetingDate != nil {
		d := *req.CoordinationMeetingDate
		t.CoordinationMeetingDate = &d
		changes = append(changes, "coordination_meeting_date")
	}
	if req.CoordinationMeetingNotes != nil {
		t.CoordinationMeetingNotes = *req.CoordinationMeetingNotes
		changes = append(changes, "coordination_meeting_notes")
	}
	changes = append(changes, t.applyFollowUp(req.FollowUp)...)
	t.UpdatedAt = now
	return changes, nil
}

func (t *Transfer) applyFollowUp(f FollowUpFields) []string {
	var changes []string
	if f.RequiresFollowUp != nil {
		t.RequiresFollowUp = *f.RequiresFollowUp
		changes = append(changes, "requires_follow_up")
	}
	if f.FollowUpDate != nil {
		d := *f.FollowUpDate
		t.FollowUpDate = &d
		changes = append(changes, "follow_up_date")
	}
	if f.FollowUpNotes != nil {
		t.FollowUpNotes = *f.FollowUpNotes
		changes = append(changes, "follow_up_notes")
	}
	if f.FollowUpCompleted != nil {
		t.FollowUpCompleted = *f.FollowUpCompleted
		changes = append(changes, "follow_up_completed")
	}
	return changes
}

func (t *Transfer) ShareDocuments(docs []SharedDocument, now time.Time) error {
	switch t.Status {
	case StatusCompleted, StatusCancelled, StatusRejected:
		return dErrors.New(dErrors.CodeInvalidState, "documents cannot be shared on a closed transfer")
	}
	t.SharedDocuments = append(t.SharedDocuments, docs...)
	t.UpdatedAt = now
	return nil
}

// ShareCaseNotes appends unseen case note ids and returns the ones added.
func (t *Transfer) ShareCaseNotes(noteIDs []string, now time.Time) ([]string, error) {
	if !t.Status.IsActive() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "case notes can only be shared on pending or approved transfers")
	}
	added := t.appendCaseNotes(noteIDs)
	t.UpdatedAt = now
	return added, nil
}

func (t *Transfer) appendCaseNotes(noteIDs []string) []string {
	var added []string
	t.SharedCaseNotes, added = strutil.AppendUnique(t.SharedCaseNotes, noteIDs)
	return added
}

func (t *Transfer) ScheduleMeeting(date time.Time, notes string, now time.Time) error {
	if !t.Status.IsActive() {
		return dErrors.New(dErrors.CodeInvalidState, "meetings can only be scheduled on pending or approved transfers")
	}
	t.CoordinationMeetingRequired = true
	t.CoordinationMeetingDate = &date
	t.CoordinationMeetingNotes = notes
	delete(t.Metadata, MetaMeetingCompletedAt)
	delete(t.Metadata, MetaMeetingOutcome)
	t.UpdatedAt = now
	return nil
}

func (t *Transfer) MeetingCompleted() bool {
	_, done := t.Metadata[MetaMeetingCompletedAt]
	return done
}

func (t *Transfer) CompleteMeeting(outcome string, now time.Time) error {
	if !t.CoordinationMeetingRequired || t.CoordinationMeetingDate == nil {
		return dErrors.New(dErrors.CodeInvalidState, "no coordination meeting is scheduled")
	}
	if t.MeetingCompleted() {
		return dErrors.New(dErrors.CodeInvalidState, "coordination meeting already completed")
	}
	t.ensureMetadata()
	t.Metadata[MetaMeetingCompletedAt] = now.UTC().Format(time.RFC3339Nano)
	t.Metadata[MetaMeetingOutcome] = outcome
	t.UpdatedAt = now
	return nil
}

func (t *Transfer) UpdateFollowUp(f FollowUpFields, now time.Time) ([]string, error) {
	if t.Status != StatusCompleted {
		return nil, dErrors.New(dErrors.CodeInvalidState, "follow-up applies to completed transfers only")
	}
	changes := t.applyFollowUp(f)
	t.UpdatedAt = now
	return changes, nil
}

func (t *Transfer) ensureMetadata() {
	if t.Metadata == nil {
		t.Metadata = Metadata{}
	}
}

// Clone returns a deep copy; stores never share mutable state with callers.
func (t *Transfer) Clone() *Transfer {
	c := *t
	c.ActualTransferDate = clonePtr(t.ActualTransferDate)
	c.ReviewedBy = clonePtr(t.ReviewedBy)
	c.ReviewedAt = clonePtr(t.ReviewedAt)
	c.ReviewNotes = clonePtr(t.ReviewNotes)
	if t.HandoverSummary != nil {
		h := *t.HandoverSummary
		h.KeyAchievements = slices.Clone(h.KeyAchievements)
		h.OngoingChallenges = slices.Clone(h.OngoingChallenges)
		h.RecommendedStrategies = slices.Clone(h.RecommendedStrategies)
		h.SpecialConsiderations = slices.Clone(h.SpecialConsiderations)
		c.HandoverSummary = &h
	}
	c.SharedDocuments = slices.Clone(t.SharedDocuments)
	c.SharedCaseNotes = slices.Clone(t.SharedCaseNotes)
	c.Communications = slices.Clone(t.Communications)
	c.CoordinationMeetingDate = clonePtr(t.CoordinationMeetingDate)
	c.AcknowledgedBy = clonePtr(t.AcknowledgedBy)
	c.AcknowledgedAt = clonePtr(t.AcknowledgedAt)
	c.CompletionChecklist = clonePtr(t.CompletionChecklist)
	c.FollowUpDate = clonePtr(t.FollowUpDate)
	c.Metadata = maps.Clone(t.Metadata)
	c.DeletedAt = clonePtr(t.DeletedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
