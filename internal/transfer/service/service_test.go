package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	instmodels "caseflow/internal/institution/models"
	instservice "caseflow/internal/institution/service"
	inststore "caseflow/internal/institution/store"
	learnermodels "caseflow/internal/learner/models"
	learnerservice "caseflow/internal/learner/service"
	learnerstore "caseflow/internal/learner/store"
	"caseflow/internal/transfer/adapters"
	"caseflow/internal/transfer/metrics"
	"caseflow/internal/transfer/models"
	storetimeline "caseflow/internal/transfer/store/timeline"
	storetransfer "caseflow/internal/transfer/store/transfer"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/audit"
	"caseflow/pkg/requestcontext"
)

type recordedAudit struct {
	action   string
	entityID string
	actor    id.UserID
	metadata map[string]any
}

type recordingAudit struct {
	mu     sync.Mutex
	events []recordedAudit
}

func (r *recordingAudit) RecordEvent(_ context.Context, action, _ string, entityID string, actor id.UserID, metadata map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedAudit{action: action, entityID: entityID, actor: actor, metadata: metadata})
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.action)
	}
	return out
}

type ServiceSuite struct {
	suite.Suite
	ctx context.Context
	now time.Time

	transfers    *storetransfer.InMemory
	timeline     *storetimeline.InMemory
	learnerStore *learnerstore.InMemory
	learners     *learnerservice.Service
	institutions *instservice.Service
	audit        *recordingAudit
	service      *Service

	schoolA, tutorsB, schoolC *instmodels.Institution
	learner                   *learnermodels.Learner
	enrolledAt                time.Time

	adminA, adminB, adminC, superAdmin id.Identity
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	logger := slog.New(slog.DiscardHandler)

	s.transfers = storetransfer.NewInMemory()
	s.timeline = storetimeline.NewInMemory()
	s.learnerStore = learnerstore.NewInMemory()
	s.learners = learnerservice.New(s.learnerStore, learnerservice.WithLogger(logger))
	s.institutions = instservice.New(inststore.NewInMemory(), instservice.WithLogger(logger))
	s.audit = &recordingAudit{}

	s.schoolA = s.mustInstitution("Riverside Primary", instmodels.InstitutionTypeSchool)
	s.tutorsB = s.mustInstitution("Hillside Tutors", instmodels.InstitutionTypeTutorCentre)
	s.schoolC = s.mustInstitution("Oakwood Academy", instmodels.InstitutionTypeSchool)

	s.enrolledAt = time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	s.learner = s.mustLearner("Ada", s.schoolA.ID)

	s.adminA = id.Identity{UserID: id.NewUserID(), InstitutionID: s.schoolA.ID, Role: id.RoleSchoolAdmin}
	s.adminB = id.Identity{UserID: id.NewUserID(), InstitutionID: s.tutorsB.ID, Role: id.RoleTutorCentreAdmin}
	s.adminC = id.Identity{UserID: id.NewUserID(), InstitutionID: s.schoolC.ID, Role: id.RoleSchoolAdmin}
	s.superAdmin = id.Identity{UserID: id.NewUserID(), Role: id.RoleSuperAdmin}

	s.service = s.newService()
}

func (s *ServiceSuite) newService(opts ...Option) *Service {
	base := []Option{
		WithLogger(slog.New(slog.DiscardHandler)),
		WithAuditSink(s.audit),
		WithMetrics(metrics.NewWith(prometheus.NewRegistry())),
	}
	return New(
		s.transfers,
		s.timeline,
		NewInMemoryTx(s.transfers, s.timeline, s.learnerStore),
		adapters.NewLearnerAdapter(s.learners),
		adapters.NewInstitutionAdapter(s.institutions),
		append(base, opts...)...,
	)
}

func (s *ServiceSuite) mustInstitution(name string, kind instmodels.InstitutionType) *instmodels.Institution {
	inst, err := s.institutions.Create(s.ctx, name, kind)
	s.Require().NoError(err)
	return inst
}

func (s *ServiceSuite) mustLearner(first string, inst id.InstitutionID, authorized ...id.InstitutionID) *learnermodels.Learner {
	l, err := s.learners.Create(s.ctx, learnerservice.CreateRequest{
		FirstName:              first,
		LastName:               "Learner",
		InstitutionID:          inst,
		AuthorizedInstitutions: authorized,
		EnrollmentDate:         s.enrolledAt,
	})
	s.Require().NoError(err)
	return l
}

// tick advances the request clock so successive calls get distinct timestamps.
func (s *ServiceSuite) tick() {
	s.now = s.now.Add(time.Minute)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) createRequest(learnerID id.LearnerID, to id.InstitutionID) models.CreateTransferRequest {
	return models.CreateTransferRequest{
		LearnerID:            learnerID,
		ToInstitutionID:      to,
		Reason:               models.ReasonSpecializedSupportNeeded,
		ReasonDetails:        "needs a smaller group setting",
		ProposedTransferDate: s.now.AddDate(0, 1, 0),
	}
}

func (s *ServiceSuite) mustCreate() *models.Transfer {
	t, err := s.service.Create(s.ctx, s.adminA, s.createRequest(s.learner.ID, s.tutorsB.ID))
	s.Require().NoError(err)
	s.tick()
	return t
}

func (s *ServiceSuite) mustApprove(t *models.Transfer) {
	_, err := s.service.Review(s.ctx, s.adminB, t.ID, models.ReviewTransferRequest{Status: models.StatusApproved, ReviewNotes: "welcome"})
	s.Require().NoError(err)
	s.tick()
}

func (s *ServiceSuite) mustAcknowledge(t *models.Transfer) {
	_, err := s.service.Acknowledge(s.ctx, s.adminB, t.ID, models.AcknowledgeTransferRequest{Notes: "records received", DocumentsReceived: true, ReadyForEnrollment: true})
	s.Require().NoError(err)
	s.tick()
}

func fullChecklist() *models.CompletionChecklist {
	return &models.CompletionChecklist{
		DocumentsTransferred:        true,
		CaseNotesShared:             true,
		ParentNotified:              true,
		EnrollmentCompleted:         true,
		PreviousInstitutionNotified: true,
		TransitionPlanCreated:       true,
	}
}

func (s *ServiceSuite) events(transferID id.TransferID) []*models.TimelineEvent {
	events, err := s.timeline.ListByTransfer(context.Background(), transferID)
	s.Require().NoError(err)
	return events
}

func (s *ServiceSuite) eventTypes(transferID id.TransferID) []models.EventType {
	var out []models.EventType
	for _, e := range s.events(transferID) {
		out = append(out, e.EventType)
	}
	return out
}

func (s *ServiceSuite) storedLearner(learnerID id.LearnerID) *learnermodels.Learner {
	l, err := s.learnerStore.FindByID(context.Background(), learnerID)
	s.Require().NoError(err)
	return l
}

func (s *ServiceSuite) storedTransfer(transferID id.TransferID) *models.Transfer {
	t, err := s.transfers.FindByIDIncludingDeleted(context.Background(), transferID)
	s.Require().NoError(err)
	return t
}

func (s *ServiceSuite) assertCode(err error, code dErrors.Code) {
	s.T().Helper()
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, code), "expected %s, got %v", code, err)
}

var transferNumberPattern = regexp.MustCompile(`^TR-2026-[0-9A-F]{8}$`)

func (s *ServiceSuite) TestCreate() {
	s.Run("opens a pending transfer from the learner's institution", func() {
		t, err := s.service.Create(s.ctx, s.adminA, s.createRequest(s.learner.ID, s.tutorsB.ID))
		s.Require().NoError(err)

		s.Equal(models.StatusPending, t.Status)
		s.Equal(models.PriorityNormal, t.Priority)
		s.Equal(s.schoolA.ID, t.FromInstitutionID)
		s.Equal(s.tutorsB.ID, t.ToInstitutionID)
		s.Equal(s.adminA.UserID, t.InitiatedBy)
		s.Regexp(transferNumberPattern, t.TransferNumber)

		s.Equal(learnermodels.StatusTransitioning, s.storedLearner(s.learner.ID).Status)

		events := s.events(t.ID)
		s.Require().Len(events, 1)
		s.Equal(models.EventTransferInitiated, events[0].EventType)
		s.Equal("Transfer initiated to Hillside Tutors", events[0].Description)
		s.Equal(t.TransferNumber, events[0].EventData["transferNumber"])
		s.Equal("specialized_support_needed", events[0].EventData["reason"])
		s.Equal("normal", events[0].EventData["priority"])
		s.Equal(&s.adminA.UserID, events[0].PerformedBy)

		s.Equal([]string{"transfer_initiated"}, s.audit.actions())
	})

	s.Run("keeps shared case notes and the meeting flag", func() {
		other := s.mustLearner("Edsger", s.schoolA.ID)
		req := s.createRequest(other.ID, s.tutorsB.ID)
		req.SharedCaseNotes = []string{"note-1", " note-2 ", "note-1", ""}
		req.CoordinationMeetingRequired = true

		t, err := s.service.Create(s.ctx, s.adminA, req)
		s.Require().NoError(err)
		s.Equal([]string{"note-1", "note-2"}, t.SharedCaseNotes)
		s.True(t.CoordinationMeetingRequired)

		stored := s.storedTransfer(t.ID)
		s.Equal([]string{"note-1", "note-2"}, stored.SharedCaseNotes)
		s.True(stored.CoordinationMeetingRequired)
	})
}

func (s *ServiceSuite) TestCreateRejections() {
	s.Run("institution without learner access is forbidden", func() {
		_, err := s.service.Create(s.ctx, s.adminC, s.createRequest(s.learner.ID, s.tutorsB.ID))
		s.assertCode(err, dErrors.CodeForbidden)
	})

	s.Run("authorized but not current institution is forbidden", func() {
		shared := s.mustLearner("Grace", s.schoolA.ID, s.schoolC.ID)
		_, err := s.service.Create(s.ctx, s.adminC, s.createRequest(shared.ID, s.tutorsB.ID))
		s.assertCode(err, dErrors.CodeForbidden)
	})

	s.Run("unknown learner is not found", func() {
		_, err := s.service.Create(s.ctx, s.adminA, s.createRequest(id.NewLearnerID(), s.tutorsB.ID))
		s.assertCode(err, dErrors.CodeNotFound)
	})

	s.Run("unknown destination is not found", func() {
		_, err := s.service.Create(s.ctx, s.adminA, s.createRequest(s.learner.ID, id.NewInstitutionID()))
		s.assertCode(err, dErrors.CodeNotFound)
	})

	s.Run("soft-deleted destination is not found", func() {
		closed := s.mustInstitution("Closed Centre", instmodels.InstitutionTypeTutorCentre)
		s.Require().NoError(s.institutions.Delete(s.ctx, closed.ID))
		_, err := s.service.Create(s.ctx, s.adminA, s.createRequest(s.learner.ID, closed.ID))
		s.assertCode(err, dErrors.CodeNotFound)
	})

	s.Run("destination equal to source is a validation error", func() {
		_, err := s.service.Create(s.ctx, s.adminA, s.createRequest(s.learner.ID, s.schoolA.ID))
		s.assertCode(err, dErrors.CodeValidation)
	})

	s.Run("unknown reason is a validation error", func() {
		req := s.createRequest(s.learner.ID, s.tutorsB.ID)
		req.Reason = "boredom"
		_, err := s.service.Create(s.ctx, s.adminA, req)
		s.assertCode(err, dErrors.CodeValidation)
	})

	s.Run("nothing was written", func() {
		page, err := s.service.List(s.ctx, s.superAdmin, models.ListTransfersRequest{})
		s.Require().NoError(err)
		s.Zero(page.Meta.Total)
		s.Equal(learnermodels.StatusActive, s.storedLearner(s.learner.ID).Status)
		s.Empty(s.audit.actions())
	})
}

func (s *ServiceSuite) TestSuperAdminCreatesFromLearnersInstitution() {
	t, err := s.service.Create(s.ctx, s.superAdmin, s.createRequest(s.learner.ID, s.tutorsB.ID))
	s.Require().NoError(err)
	s.Equal(s.schoolA.ID, t.FromInstitutionID)
	s.Equal(s.superAdmin.UserID, t.InitiatedBy)
}

func (s *ServiceSuite) TestSingleActiveTransferPerLearner() {
	first := s.mustCreate()

	_, err := s.service.Create(s.ctx, s.adminA, s.createRequest(s.learner.ID, s.schoolC.ID))
	s.assertCode(err, dErrors.CodeConflict)

	s.mustApprove(first)
	_, err = s.service.Create(s.ctx, s.adminA, s.createRequest(s.learner.ID, s.schoolC.ID))
	s.assertCode(err, dErrors.CodeConflict)

	_, err = s.service.Cancel(s.ctx, s.adminA, first.ID, models.CancelTransferRequest{Reason: "changed plans"})
	s.Require().NoError(err)

	second, err := s.service.Create(s.ctx, s.adminA, s.createRequest(s.learner.ID, s.schoolC.ID))
	s.Require().NoError(err)
	s.Equal(models.StatusPending, second.Status)
}

func (s *ServiceSuite) TestRejectedTransferIsNotActive() {
	t := s.mustCreate()
	_, err := s.service.Review(s.ctx, s.adminB, t.ID, models.ReviewTransferRequest{Status: models.StatusRejected, ReviewNotes: "no capacity"})
	s.Require().NoError(err)

	s.Equal(learnermodels.StatusTransitioning, s.storedLearner(s.learner.ID).Status, "rejection does not revert the learner")

	_, err = s.service.Create(s.ctx, s.adminA, s.createRequest(s.learner.ID, s.schoolC.ID))
	s.NoError(err)
}

func (s *ServiceSuite) TestConcurrentCreatesYieldOneTransfer() {
	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Create(s.ctx, s.adminA, s.createRequest(s.learner.ID, s.tutorsB.ID))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()
	s.Equal(1, succeeded)
	s.Equal(callers-1, conflicts)
}

func (s *ServiceSuite) TestReview() {
	t := s.mustCreate()

	s.Run("sending side cannot review", func() {
		_, err := s.service.Review(s.ctx, s.adminA, t.ID, models.ReviewTransferRequest{Status: models.StatusApproved})
		s.assertCode(err, dErrors.CodeForbidden)
	})

	s.Run("review status must be approved or rejected", func() {
		_, err := s.service.Review(s.ctx, s.adminB, t.ID, models.ReviewTransferRequest{Status: models.StatusCompleted})
		s.assertCode(err, dErrors.CodeValidation)
	})

	s.Run("approval records reviewer and timeline", func() {
		actual := s.now.AddDate(0, 0, 20)
		got, err := s.service.Review(s.ctx, s.adminB, t.ID, models.ReviewTransferRequest{
			Status: models.StatusApproved, ReviewNotes: "welcome aboard", ActualTransferDate: &actual,
		})
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, got.Status)
		s.Equal(&s.adminB.UserID, got.ReviewedBy)
		s.Equal(actual, *got.ActualTransferDate)

		events := s.events(t.ID)
		s.Require().Len(events, 2)
		s.Equal(models.EventApproved, events[1].EventType)
		s.Equal("Transfer approved by receiving institution", events[1].Description)
		s.Equal("welcome aboard", events[1].EventData["reviewNotes"])
	})

	s.Run("only pending transfers can be reviewed", func() {
		_, err := s.service.Review(s.ctx, s.adminB, t.ID, models.ReviewTransferRequest{Status: models.StatusRejected})
		s.assertCode(err, dErrors.CodeInvalidState)
		s.Len(s.events(t.ID), 2)
	})
}

func (s *ServiceSuite) TestAcknowledge() {
	t := s.mustCreate()

	_, err := s.service.Acknowledge(s.ctx, s.adminB, t.ID, models.AcknowledgeTransferRequest{})
	s.assertCode(err, dErrors.CodeInvalidState)

	s.mustApprove(t)
	got, err := s.service.Acknowledge(s.ctx, s.adminB, t.ID, models.AcknowledgeTransferRequest{
		Notes: "all files in", DocumentsReceived: true,
	})
	s.Require().NoError(err)
	s.True(got.ReceivingInstitutionAcknowledged)
	s.Equal(&s.adminB.UserID, got.AcknowledgedBy)
	s.Equal("all files in", got.Metadata[models.MetaAcknowledgmentNotes])
	s.Equal(true, got.Metadata[models.MetaDocumentsReceived])
	s.Equal(false, got.Metadata[models.MetaReadyForEnrollment])

	_, err = s.service.Acknowledge(s.ctx, s.adminB, t.ID, models.AcknowledgeTransferRequest{})
	s.assertCode(err, dErrors.CodeInvalidState)

	s.Equal([]models.EventType{models.EventTransferInitiated, models.EventApproved, models.EventAcknowledged}, s.eventTypes(t.ID))
}

func (s *ServiceSuite) TestCompleteGating() {
	t := s.mustCreate()
	s.mustApprove(t)

	s.Run("acknowledgment is required", func() {
		_, err := s.service.Complete(s.ctx, s.adminB, t.ID, models.CompleteTransferRequest{CompletionChecklist: fullChecklist()})
		s.assertCode(err, dErrors.CodeInvalidState)
	})

	s.mustAcknowledge(t)
	eventsBefore := s.events(t.ID)

	s.Run("every checklist item is required", func() {
		partial := fullChecklist()
		partial.TransitionPlanCreated = false
		_, err := s.service.Complete(s.ctx, s.adminB, t.ID, models.CompleteTransferRequest{CompletionChecklist: partial})
		s.assertCode(err, dErrors.CodeValidation)

		_, err = s.service.Complete(s.ctx, s.adminB, t.ID, models.CompleteTransferRequest{})
		s.assertCode(err, dErrors.CodeValidation)
	})

	s.Run("nothing was persisted", func() {
		stored := s.storedTransfer(t.ID)
		s.Equal(models.StatusApproved, stored.Status)
		s.Nil(stored.CompletionChecklist)
		s.Equal(eventsBefore, s.events(t.ID))

		l := s.storedLearner(s.learner.ID)
		s.Equal(s.schoolA.ID, l.CurrentInstitutionID)
		s.Empty(l.InstitutionHistory)
	})

	s.Run("sending side cannot complete", func() {
		_, err := s.service.Complete(s.ctx, s.adminA, t.ID, models.CompleteTransferRequest{CompletionChecklist: fullChecklist()})
		s.assertCode(err, dErrors.CodeForbidden)
	})
}

func (s *ServiceSuite) TestHappyPathMovesLearner() {
	t := s.mustCreate()
	s.mustApprove(t)
	s.mustAcknowledge(t)

	actual := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	done, err := s.service.Complete(s.ctx, s.adminB, t.ID, models.CompleteTransferRequest{
		CompletionChecklist: fullChecklist(),
		ActualTransferDate:  &actual,
	})
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, done.Status)
	s.Equal(actual, *done.ActualTransferDate)
	s.Equal(fullChecklist(), done.CompletionChecklist)

	s.Equal([]models.EventType{
		models.EventTransferInitiated,
		models.EventApproved,
		models.EventAcknowledged,
		models.EventCompleted,
	}, s.eventTypes(t.ID))
	s.Equal("Transfer completed successfully", s.events(t.ID)[3].Description)

	l := s.storedLearner(s.learner.ID)
	s.Equal(s.tutorsB.ID, l.CurrentInstitutionID)
	s.Equal(learnermodels.StatusActive, l.Status)
	s.Equal(actual, l.EnrollmentDate)
	s.Equal([]learnermodels.HistoryEntry{{
		InstitutionID:   s.schoolA.ID,
		InstitutionName: "Riverside Primary",
		StartDate:       s.enrolledAt,
		EndDate:         actual,
		Reason:          "Transferred to Hillside Tutors",
	}}, l.InstitutionHistory)

	s.Equal([]string{
		"transfer_initiated", "transfer_approved", "transfer_acknowledged", "transfer_completed",
	}, s.audit.actions())

	s.Run("second completion is rejected without extra history", func() {
		_, err := s.service.Complete(s.ctx, s.adminB, t.ID, models.CompleteTransferRequest{CompletionChecklist: fullChecklist()})
		s.assertCode(err, dErrors.CodeInvalidState)
		s.Len(s.storedLearner(s.learner.ID).InstitutionHistory, 1)
		s.Len(s.events(t.ID), 4)
	})

	s.Run("receiving institution now owns the learner", func() {
		next, err := s.service.Create(s.ctx, s.adminB, s.createRequest(s.learner.ID, s.schoolC.ID))
		s.Require().NoError(err)
		s.Equal(s.tutorsB.ID, next.FromInstitutionID)
	})
}

func (s *ServiceSuite) TestCompleteDefaultsActualDateToRequestTime() {
	t := s.mustCreate()
	s.mustApprove(t)
	s.mustAcknowledge(t)

	done, err := s.service.Complete(s.ctx, s.adminB, t.ID, models.CompleteTransferRequest{CompletionChecklist: fullChecklist()})
	s.Require().NoError(err)
	s.Equal(s.now, *done.ActualTransferDate)
	s.Equal(s.now, s.storedLearner(s.learner.ID).EnrollmentDate)
}

func (s *ServiceSuite) TestCancelPath() {
	t := s.mustCreate()

	s.Run("receiving side cannot cancel", func() {
		_, err := s.service.Cancel(s.ctx, s.adminB, t.ID, models.CancelTransferRequest{Reason: "no"})
		s.assertCode(err, dErrors.CodeForbidden)
	})

	s.Run("reason is required", func() {
		_, err := s.service.Cancel(s.ctx, s.adminA, t.ID, models.CancelTransferRequest{})
		s.assertCode(err, dErrors.CodeValidation)
	})

	got, err := s.service.Cancel(s.ctx, s.adminA, t.ID, models.CancelTransferRequest{Reason: "Family moved"})
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, got.Status)
	s.Equal("Family moved", got.Metadata[models.MetaCancellationReason])
	s.Equal(s.adminA.UserID.String(), got.Metadata[models.MetaCancelledBy])
	s.Contains(got.Metadata, models.MetaCancelledAt)

	events := s.events(t.ID)
	s.Equal([]models.EventType{models.EventTransferInitiated, models.EventCancelled}, s.eventTypes(t.ID))
	s.Equal("Transfer cancelled: Family moved", events[1].Description)
	s.Equal(learnermodels.StatusActive, s.storedLearner(s.learner.ID).Status)
}

func (s *ServiceSuite) TestCancelCompletedIsInvalid() {
	t := s.mustCreate()
	s.mustApprove(t)
	s.mustAcknowledge(t)
	_, err := s.service.Complete(s.ctx, s.adminB, t.ID, models.CompleteTransferRequest{CompletionChecklist: fullChecklist()})
	s.Require().NoError(err)

	// The learner now belongs to B; A is still the sending party of record.
	_, err = s.service.Cancel(s.ctx, s.adminA, t.ID, models.CancelTransferRequest{Reason: "too late"})
	s.assertCode(err, dErrors.CodeInvalidState)
}

func (s *ServiceSuite) TestRecancelDoesNotResetNewTransfer() {
	first := s.mustCreate()
	_, err := s.service.Cancel(s.ctx, s.adminA, first.ID, models.CancelTransferRequest{Reason: "plans changed"})
	s.Require().NoError(err)

	_, err = s.service.Create(s.ctx, s.adminA, s.createRequest(s.learner.ID, s.schoolC.ID))
	s.Require().NoError(err)

	_, err = s.service.Cancel(s.ctx, s.adminA, first.ID, models.CancelTransferRequest{Reason: "again"})
	s.Require().NoError(err)
	s.Equal(learnermodels.StatusTransitioning, s.storedLearner(s.learner.ID).Status)
}

func (s *ServiceSuite) TestCancellingRejectedTransferKeepsNewTransfer() {
	rejected := s.mustCreate()
	_, err := s.service.Review(s.ctx, s.adminB, rejected.ID, models.ReviewTransferRequest{Status: models.StatusRejected})
	s.Require().NoError(err)

	_, err = s.service.Create(s.ctx, s.adminA, s.createRequest(s.learner.ID, s.schoolC.ID))
	s.Require().NoError(err)

	got, err := s.service.Cancel(s.ctx, s.adminA, rejected.ID, models.CancelTransferRequest{Reason: "closing out"})
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, got.Status)
	s.Equal(learnermodels.StatusTransitioning, s.storedLearner(s.learner.ID).Status)
}

func (s *ServiceSuite) TestCancellingRejectedTransferRestoresLearner() {
	rejected := s.mustCreate()
	_, err := s.service.Review(s.ctx, s.adminB, rejected.ID, models.ReviewTransferRequest{Status: models.StatusRejected})
	s.Require().NoError(err)

	_, err = s.service.Cancel(s.ctx, s.adminA, rejected.ID, models.CancelTransferRequest{Reason: "staying put"})
	s.Require().NoError(err)
	s.Equal(learnermodels.StatusActive, s.storedLearner(s.learner.ID).Status)
}

func (s *ServiceSuite) TestTimelineIsAppendOnly() {
	t := s.mustCreate()
	snapshots := [][]*models.TimelineEvent{s.events(t.ID)}

	steps := []func() error{
		func() error {
			_, err := s.service.AddCommunication(s.ctx, s.adminB, t.ID, models.AddCommunicationRequest{ToInstitutionID: s.schoolA.ID, Message: "Any reports?"})
			return err
		},
		func() error {
			_, err := s.service.Review(s.ctx, s.adminB, t.ID, models.ReviewTransferRequest{Status: models.StatusApproved})
			return err
		},
		func() error {
			_, err := s.service.AddComment(s.ctx, s.adminA, t.ID, models.AddCommentRequest{Comment: "parents informed"})
			return err
		},
		func() error {
			_, err := s.service.Acknowledge(s.ctx, s.adminB, t.ID, models.AcknowledgeTransferRequest{})
			return err
		},
	}
	for _, step := range steps {
		s.Require().NoError(step())
		s.tick()
		current := s.events(t.ID)
		previous := snapshots[len(snapshots)-1]
		s.Require().Len(current, len(previous)+1, "exactly one event per call")
		s.Equal(previous, current[:len(previous)], "earlier events unchanged")
		snapshots = append(snapshots, current)
	}
}

func (s *ServiceSuite) TestUninvolvedInstitutionIsForbidden() {
	t := s.mustCreate()

	_, err := s.service.Get(s.ctx, s.adminC, t.ID)
	s.assertCode(err, dErrors.CodeForbidden)

	_, err = s.service.GetTimeline(s.ctx, s.adminC, t.ID)
	s.assertCode(err, dErrors.CodeForbidden)

	_, err = s.service.AddCommunication(s.ctx, s.adminC, t.ID, models.AddCommunicationRequest{ToInstitutionID: s.schoolA.ID, Message: "hello"})
	s.assertCode(err, dErrors.CodeForbidden)

	_, err = s.service.Review(s.ctx, s.adminC, t.ID, models.ReviewTransferRequest{Status: models.StatusApproved})
	s.assertCode(err, dErrors.CodeForbidden)

	s.Len(s.events(t.ID), 1)

	page, err := s.service.List(s.ctx, s.adminC, models.ListTransfersRequest{})
	s.Require().NoError(err)
	s.Empty(page.Data)

	got, err := s.service.Get(s.ctx, s.superAdmin, t.ID)
	s.Require().NoError(err)
	s.Equal(t.ID, got.ID)
}

func (s *ServiceSuite) TestRollbackWhenLearnerWriteFails() {
	t := s.mustCreate()
	s.mustApprove(t)
	s.mustAcknowledge(t)
	eventsBefore := s.events(t.ID)
	auditBefore := len(s.audit.actions())

	s.learnerStore.FailSaves(errors.New("learner table locked"))
	_, err := s.service.Complete(s.ctx, s.adminB, t.ID, models.CompleteTransferRequest{CompletionChecklist: fullChecklist()})
	s.assertCode(err, dErrors.CodeInternal)

	stored := s.storedTransfer(t.ID)
	s.Equal(models.StatusApproved, stored.Status)
	s.Nil(stored.CompletionChecklist)
	s.Equal(eventsBefore, s.events(t.ID))
	s.Len(s.audit.actions(), auditBefore)

	l := s.storedLearner(s.learner.ID)
	s.Equal(s.schoolA.ID, l.CurrentInstitutionID)
	s.Equal(learnermodels.StatusTransitioning, l.Status)
	s.Empty(l.InstitutionHistory)

	s.learnerStore.FailSaves(nil)
	_, err = s.service.Complete(s.ctx, s.adminB, t.ID, models.CompleteTransferRequest{CompletionChecklist: fullChecklist()})
	s.NoError(err)
}

func (s *ServiceSuite) TestCreateRollsBackWhenLearnerWriteFails() {
	s.learnerStore.FailSaves(errors.New("learner table locked"))
	_, err := s.service.Create(s.ctx, s.adminA, s.createRequest(s.learner.ID, s.tutorsB.ID))
	s.assertCode(err, dErrors.CodeInternal)

	active, err := s.transfers.HasActiveForLearner(context.Background(), s.learner.ID)
	s.Require().NoError(err)
	s.False(active)
}

func (s *ServiceSuite) TestAddCommunication() {
	t := s.mustCreate()
	long := strings.Repeat("a", 150)

	got, err := s.service.AddCommunication(s.ctx, s.adminA, t.ID, models.AddCommunicationRequest{ToInstitutionID: s.tutorsB.ID, Message: long})
	s.Require().NoError(err)
	s.Require().Len(got.Communications, 1)
	s.Equal(s.schoolA.ID.String(), got.Communications[0].From)
	s.Equal(s.tutorsB.ID, got.Communications[0].To)
	s.Equal(long, got.Communications[0].Message)

	events := s.events(t.ID)
	s.Equal("Message sent: "+strings.Repeat("a", 100)+"...", events[1].Description)

	_, err = s.service.AddCommunication(s.ctx, s.adminB, t.ID, models.AddCommunicationRequest{ToInstitutionID: s.schoolA.ID, Message: "short"})
	s.Require().NoError(err)
	s.Equal("Message sent: short", s.events(t.ID)[2].Description)
	s.Len(s.storedTransfer(t.ID).Communications, 2)

	s.Run("super-admin sends under their user id", func() {
		got, err := s.service.AddCommunication(s.ctx, s.superAdmin, t.ID, models.AddCommunicationRequest{ToInstitutionID: s.tutorsB.ID, Message: "checking in"})
		s.Require().NoError(err)
		s.Equal(s.superAdmin.UserID.String(), got.Communications[2].From)
	})

	s.Run("recipient outside the transfer is rejected", func() {
		_, err := s.service.AddCommunication(s.ctx, s.adminA, t.ID, models.AddCommunicationRequest{ToInstitutionID: s.schoolC.ID, Message: "wrong desk"})
		s.assertCode(err, dErrors.CodeValidation)
		s.Len(s.storedTransfer(t.ID).Communications, 3)
	})

	s.Run("missing recipient is rejected", func() {
		_, err := s.service.AddCommunication(s.ctx, s.adminA, t.ID, models.AddCommunicationRequest{Message: "to whom"})
		s.assertCode(err, dErrors.CodeValidation)
	})
}

func (s *ServiceSuite) TestUpdate() {
	t := s.mustCreate()
	high := models.PriorityHigh
	notes := "bring the IEP"

	got, err := s.service.Update(s.ctx, s.adminA, t.ID, models.UpdateTransferRequest{
		Priority:                 &high,
		CoordinationMeetingNotes: &notes,
	})
	s.Require().NoError(err)
	s.Equal(models.PriorityHigh, got.Priority)

	events := s.events(t.ID)
	s.Require().Len(events, 2)
	s.Equal(models.EventStatusChanged, events[1].EventType)
	s.Equal("Transfer details updated", events[1].Description)
	s.Equal([]string{"priority", "coordination_meeting_notes"}, events[1].EventData["changes"])

	_, err = s.service.Update(s.ctx, s.adminB, t.ID, models.UpdateTransferRequest{Priority: &high})
	s.assertCode(err, dErrors.CodeForbidden)

	_, err = s.service.Update(s.ctx, s.adminA, t.ID, models.UpdateTransferRequest{})
	s.assertCode(err, dErrors.CodeValidation)

	s.mustApprove(t)
	_, err = s.service.Update(s.ctx, s.adminA, t.ID, models.UpdateTransferRequest{Priority: &high})
	s.assertCode(err, dErrors.CodeInvalidState)
}

func (s *ServiceSuite) TestDelete() {
	t := s.mustCreate()

	err := s.service.Delete(s.ctx, s.adminA, t.ID)
	s.assertCode(err, dErrors.CodeForbidden)

	s.Require().NoError(s.service.Delete(s.ctx, s.superAdmin, t.ID))

	_, err = s.service.Get(s.ctx, s.adminA, t.ID)
	s.assertCode(err, dErrors.CodeNotFound)

	events, err := s.service.GetTimeline(s.ctx, s.adminA, t.ID)
	s.Require().NoError(err)
	s.Len(events, 1, "delete appends no timeline event")

	page, err := s.service.List(s.ctx, s.superAdmin, models.ListTransfersRequest{})
	s.Require().NoError(err)
	s.Zero(page.Meta.Total)

	s.Equal("transfer_deleted", s.audit.actions()[len(s.audit.actions())-1])

	err = s.service.Delete(s.ctx, s.superAdmin, t.ID)
	s.assertCode(err, dErrors.CodeNotFound)
}

func (s *ServiceSuite) TestListAndStatistics() {
	first := s.mustCreate()
	s.mustApprove(first)

	other := s.mustLearner("Alan", s.schoolC.ID)
	second, err := s.service.Create(s.ctx, s.adminC, s.createRequest(other.ID, s.tutorsB.ID))
	s.Require().NoError(err)
	s.tick()

	third := s.mustLearner("Edsger", s.schoolA.ID)
	req := s.createRequest(third.ID, s.schoolC.ID)
	req.Priority = models.PriorityUrgent
	_, err = s.service.Create(s.ctx, s.adminA, req)
	s.Require().NoError(err)

	s.Run("super admin sees everything newest first", func() {
		page, err := s.service.List(s.ctx, s.superAdmin, models.ListTransfersRequest{})
		s.Require().NoError(err)
		s.Equal(3, page.Meta.Total)
		s.Equal(1, page.Meta.Page)
		s.Equal(models.DefaultLimit, page.Meta.Limit)
		s.Equal(1, page.Meta.TotalPages)
		s.False(page.Meta.HasNextPage)
		s.Equal(first.ID, page.Data[2].ID)
	})

	s.Run("callers are scoped to their institution", func() {
		page, err := s.service.List(s.ctx, s.adminB, models.ListTransfersRequest{})
		s.Require().NoError(err)
		s.Equal(2, page.Meta.Total)

		page, err = s.service.List(s.ctx, s.adminC, models.ListTransfersRequest{})
		s.Require().NoError(err)
		s.Equal(2, page.Meta.Total)
	})

	s.Run("filters and paging", func() {
		status := models.StatusApproved
		page, err := s.service.List(s.ctx, s.superAdmin, models.ListTransfersRequest{Status: &status})
		s.Require().NoError(err)
		s.Require().Len(page.Data, 1)
		s.Equal(first.ID, page.Data[0].ID)

		urgent := models.PriorityUrgent
		page, err = s.service.List(s.ctx, s.adminA, models.ListTransfersRequest{Priority: &urgent})
		s.Require().NoError(err)
		s.Equal(1, page.Meta.Total)

		from := s.schoolC.ID
		page, err = s.service.List(s.ctx, s.superAdmin, models.ListTransfersRequest{FromInstitutionID: &from})
		s.Require().NoError(err)
		s.Require().Len(page.Data, 1)
		s.Equal(second.ID, page.Data[0].ID)

		page, err = s.service.List(s.ctx, s.superAdmin, models.ListTransfersRequest{Page: 2, Limit: 2})
		s.Require().NoError(err)
		s.Len(page.Data, 1)
		s.Equal(2, page.Meta.TotalPages)
		s.True(page.Meta.HasPreviousPage)
		s.False(page.Meta.HasNextPage)

		page, err = s.service.List(s.ctx, s.superAdmin, models.ListTransfersRequest{Limit: 500})
		s.Require().NoError(err)
		s.Equal(models.MaxLimit, page.Meta.Limit)
	})

	s.Run("statistics", func() {
		stats, err := s.service.GetStatistics(s.ctx, s.superAdmin, nil)
		s.Require().NoError(err)
		s.Equal(models.Statistics{Total: 3, Pending: 2, Approved: 1}, *stats)

		scope := s.tutorsB.ID
		stats, err = s.service.GetStatistics(s.ctx, s.superAdmin, &scope)
		s.Require().NoError(err)
		s.Equal(2, stats.Total)

		// Non-super-admins cannot widen their scope.
		stats, err = s.service.GetStatistics(s.ctx, s.adminC, &scope)
		s.Require().NoError(err)
		s.Equal(models.Statistics{Total: 2, Pending: 2}, *stats)
	})
}

func (s *ServiceSuite) TestCollaborationOperations() {
	t := s.mustCreate()

	s.Run("share documents", func() {
		got, err := s.service.ShareDocuments(s.ctx, s.adminA, t.ID, models.ShareDocumentsRequest{
			Documents: []models.DocumentInput{
				{Name: "IEP.pdf", Type: "iep", URL: "https://files.example/iep.pdf"},
				{Name: "Report.pdf", Type: "report", URL: "https://files.example/report.pdf"},
			},
		})
		s.Require().NoError(err)
		s.Len(got.SharedDocuments, 2)
		s.NotEmpty(got.SharedDocuments[0].ID)
		last := s.events(t.ID)[1]
		s.Equal(models.EventDocumentsShared, last.EventType)
		s.Equal(2, last.EventData["count"])
	})

	s.Run("share case notes deduplicates and is sending side only", func() {
		got, err := s.service.ShareCaseNotes(s.ctx, s.adminA, t.ID, models.ShareCaseNotesRequest{CaseNoteIDs: []string{"cn-1", "cn-2"}})
		s.Require().NoError(err)
		s.Equal([]string{"cn-1", "cn-2"}, got.SharedCaseNotes)

		got, err = s.service.ShareCaseNotes(s.ctx, s.adminA, t.ID, models.ShareCaseNotesRequest{CaseNoteIDs: []string{"cn-2", "cn-3"}})
		s.Require().NoError(err)
		s.Equal([]string{"cn-1", "cn-2", "cn-3"}, got.SharedCaseNotes)

		_, err = s.service.ShareCaseNotes(s.ctx, s.adminB, t.ID, models.ShareCaseNotesRequest{CaseNoteIDs: []string{"cn-9"}})
		s.assertCode(err, dErrors.CodeForbidden)
	})

	s.Run("meeting lifecycle", func() {
		_, err := s.service.CompleteMeeting(s.ctx, s.adminB, t.ID, models.CompleteMeetingRequest{Outcome: "n/a"})
		s.assertCode(err, dErrors.CodeInvalidState)

		when := s.now.AddDate(0, 0, 5)
		got, err := s.service.ScheduleMeeting(s.ctx, s.adminB, t.ID, models.ScheduleMeetingRequest{Date: when, Notes: "video call"})
		s.Require().NoError(err)
		s.True(got.CoordinationMeetingRequired)
		s.Equal(when, *got.CoordinationMeetingDate)

		_, err = s.service.CompleteMeeting(s.ctx, s.adminA, t.ID, models.CompleteMeetingRequest{Outcome: "plan agreed"})
		s.Require().NoError(err)
	})

	s.Run("comment touches only the timeline", func() {
		before := s.storedTransfer(t.ID).UpdatedAt
		s.tick()
		_, err := s.service.AddComment(s.ctx, s.adminB, t.ID, models.AddCommentRequest{Comment: "looking forward to it"})
		s.Require().NoError(err)
		s.Equal(before, s.storedTransfer(t.ID).UpdatedAt)
	})

	s.Run("follow-up requires completion and the receiving side", func() {
		yes := true
		_, err := s.service.UpdateFollowUp(s.ctx, s.adminB, t.ID, models.UpdateFollowUpRequest{FollowUpFields: models.FollowUpFields{RequiresFollowUp: &yes}})
		s.assertCode(err, dErrors.CodeInvalidState)

		s.mustApprove(t)
		s.mustAcknowledge(t)
		_, err = s.service.Complete(s.ctx, s.adminB, t.ID, models.CompleteTransferRequest{CompletionChecklist: fullChecklist()})
		s.Require().NoError(err)

		_, err = s.service.UpdateFollowUp(s.ctx, s.adminA, t.ID, models.UpdateFollowUpRequest{FollowUpFields: models.FollowUpFields{RequiresFollowUp: &yes}})
		s.assertCode(err, dErrors.CodeForbidden)

		got, err := s.service.UpdateFollowUp(s.ctx, s.adminB, t.ID, models.UpdateFollowUpRequest{FollowUpFields: models.FollowUpFields{RequiresFollowUp: &yes}})
		s.Require().NoError(err)
		s.True(got.RequiresFollowUp)
		events := s.events(t.ID)
		s.Equal("Follow-up details updated", events[len(events)-1].Description)
	})

	s.Equal([]models.EventType{
		models.EventTransferInitiated,
		models.EventDocumentsShared,
		models.EventCaseNotesShared,
		models.EventCaseNotesShared,
		models.EventMeetingScheduled,
		models.EventMeetingCompleted,
		models.EventCommentAdded,
		models.EventApproved,
		models.EventAcknowledged,
		models.EventCompleted,
		models.EventStatusChanged,
	}, s.eventTypes(t.ID))
}

func (s *ServiceSuite) TestTransferNumberCollisionIsRetried() {
	numbers := []string{"TR-2026-AAAAAAAA", "TR-2026-AAAAAAAA", "TR-2026-BBBBBBBB"}
	var calls int
	svc := s.newService(WithNumberGenerator(func(time.Time) (string, error) {
		n := numbers[calls]
		calls++
		return n, nil
	}))

	first, err := svc.Create(s.ctx, s.adminA, s.createRequest(s.learner.ID, s.tutorsB.ID))
	s.Require().NoError(err)
	s.Equal("TR-2026-AAAAAAAA", first.TransferNumber)

	other := s.mustLearner("Barbara", s.schoolA.ID)
	second, err := svc.Create(s.ctx, s.adminA, s.createRequest(other.ID, s.tutorsB.ID))
	s.Require().NoError(err)
	s.Equal("TR-2026-BBBBBBBB", second.TransferNumber)
	s.Equal(3, calls)
}

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, audit.Event) error { return errors.New("outbox unavailable") }

func (s *ServiceSuite) TestAuditFailureDoesNotFailOperation() {
	svc := s.newService(WithAuditSink(adapters.NewAuditAdapter(failingEmitter{}, slog.New(slog.DiscardHandler))))
	t, err := svc.Create(s.ctx, s.adminA, s.createRequest(s.learner.ID, s.tutorsB.ID))
	s.Require().NoError(err)
	s.Equal(models.StatusPending, t.Status)
}

func (s *ServiceSuite) TestInvalidCallerIsRejected() {
	_, err := s.service.List(s.ctx, id.Identity{UserID: id.NewUserID(), Role: id.RoleSchoolAdmin}, models.ListTransfersRequest{})
	s.assertCode(err, dErrors.CodeForbidden)

	_, err = s.service.Get(s.ctx, id.Identity{}, id.NewTransferID())
	s.assertCode(err, dErrors.CodeUnauthorized)
}
