//go:build integration

package transfer_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	instmodels "caseflow/internal/institution/models"
	inststore "caseflow/internal/institution/store"
	learnermodels "caseflow/internal/learner/models"
	learnerstore "caseflow/internal/learner/store"
	"caseflow/internal/transfer/models"
	store "caseflow/internal/transfer/store/transfer"
	id "caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
	txcontext "caseflow/pkg/platform/tx"
	"caseflow/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	insts    *inststore.PostgresStore
	learners *learnerstore.PostgresStore

	now      time.Time
	school   id.InstitutionID
	centre   id.InstitutionID
	academy  id.InstitutionID
	sequence int
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.insts = inststore.NewPostgres(s.postgres.DB)
	s.learners = learnerstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(),
		"transfer_timeline", "transfers", "learners", "institutions"))
	s.now = time.Now().UTC().Truncate(time.Microsecond)
	s.school = s.institution("Riverside Primary")
	s.centre = s.institution("Hillside Tutors")
	s.academy = s.institution("Oakwood Academy")
}

func (s *PostgresStoreSuite) institution(name string) id.InstitutionID {
	inst, err := instmodels.NewInstitution(id.NewInstitutionID(), name, instmodels.InstitutionTypeSchool, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.insts.Create(context.Background(), inst))
	return inst.ID
}

func (s *PostgresStoreSuite) learner() id.LearnerID {
	l := &learnermodels.Learner{
		ID:                   id.NewLearnerID(),
		FirstName:            "Ada",
		LastName:             "Lovelace",
		CurrentInstitutionID: s.school,
		Status:               learnermodels.StatusActive,
		EnrollmentDate:       s.now.AddDate(-1, 0, 0),
		CreatedAt:            s.now,
		UpdatedAt:            s.now,
	}
	s.Require().NoError(s.learners.Create(context.Background(), l))
	return l.ID
}

func (s *PostgresStoreSuite) newTransfer(learnerID id.LearnerID, to id.InstitutionID) *models.Transfer {
	s.sequence++
	t, err := models.NewTransfer(fmt.Sprintf("TR-2031-%08X", s.sequence), models.CreateTransferRequest{
		LearnerID:            learnerID,
		ToInstitutionID:      to,
		Reason:               models.ReasonFamilyRequest,
		ReasonDetails:        "family moved across town",
		ProposedTransferDate: s.now.AddDate(0, 1, 0),
	}, s.school, id.NewUserID(), s.now)
	s.Require().NoError(err)
	return t
}

func (s *PostgresStoreSuite) TestCreateFindAndSave() {
	ctx := context.Background()
	t := s.newTransfer(s.learner(), s.centre)
	t.HandoverSummary = &models.HandoverSummary{
		CurrentStatus:   "settled",
		KeyAchievements: []string{"reading level 3"},
	}
	s.Require().NoError(s.store.Create(ctx, t))

	got, err := s.store.FindByID(ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(t.TransferNumber, got.TransferNumber)
	s.Equal(models.StatusPending, got.Status)
	s.Equal(models.PriorityNormal, got.Priority)
	s.True(t.ProposedTransferDate.Equal(got.ProposedTransferDate))
	s.Require().NotNil(got.HandoverSummary)
	s.Equal([]string{"reading level 3"}, got.HandoverSummary.KeyAchievements)
	s.Empty(got.SharedDocuments)
	s.Empty(got.SharedCaseNotes)
	s.Nil(got.CompletionChecklist)
	s.Nil(got.ReviewedBy)

	reviewer := id.NewUserID()
	later := s.now.Add(time.Hour)
	s.Require().NoError(got.Review(models.StatusApproved, reviewer, "looks good", nil, later))
	s.Require().NoError(got.Acknowledge(reviewer, models.AcknowledgeTransferRequest{Notes: "ready", DocumentsReceived: true}, later))
	_, err = got.ShareCaseNotes([]string{"note-1", "note-2"}, later)
	s.Require().NoError(err)
	_, err = got.AddCommunication(got.ToInstitutionID.String(), got.FromInstitutionID, "welcome aboard", "msg-1", later)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Save(ctx, got))

	reloaded, err := s.store.FindByID(ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, reloaded.Status)
	s.Equal(&reviewer, reloaded.ReviewedBy)
	s.Require().NotNil(reloaded.ReviewNotes)
	s.Equal("looks good", *reloaded.ReviewNotes)
	s.True(reloaded.ReceivingInstitutionAcknowledged)
	s.Equal("ready", reloaded.Metadata[models.MetaAcknowledgmentNotes])
	s.Equal(true, reloaded.Metadata[models.MetaDocumentsReceived])
	s.Equal([]string{"note-1", "note-2"}, reloaded.SharedCaseNotes)
	s.Require().Len(reloaded.Communications, 1)
	s.Equal("welcome aboard", reloaded.Communications[0].Message)
	s.Equal(t.FromInstitutionID, reloaded.Communications[0].To)
	s.Equal(t.ToInstitutionID.String(), reloaded.Communications[0].From)
}

func (s *PostgresStoreSuite) TestOneActiveTransferPerLearner() {
	ctx := context.Background()
	learnerID := s.learner()

	first := s.newTransfer(learnerID, s.centre)
	s.Require().NoError(s.store.Create(ctx, first))

	active, err := s.store.HasActiveForLearner(ctx, learnerID)
	s.Require().NoError(err)
	s.True(active)

	s.ErrorIs(s.store.Create(ctx, s.newTransfer(learnerID, s.academy)), sentinel.ErrConflict)

	s.Require().NoError(first.Cancel("plans changed", id.NewUserID(), s.now.Add(time.Minute)))
	s.Require().NoError(s.store.Save(ctx, first))

	active, err = s.store.HasActiveForLearner(ctx, learnerID)
	s.Require().NoError(err)
	s.False(active)
	s.NoError(s.store.Create(ctx, s.newTransfer(learnerID, s.academy)))
}

func (s *PostgresStoreSuite) TestDuplicateTransferNumber() {
	ctx := context.Background()
	first := s.newTransfer(s.learner(), s.centre)
	s.Require().NoError(s.store.Create(ctx, first))

	second := s.newTransfer(s.learner(), s.centre)
	second.TransferNumber = first.TransferNumber
	s.ErrorIs(s.store.Create(ctx, second), store.ErrDuplicateNumber)
}

func (s *PostgresStoreSuite) TestSoftDelete() {
	ctx := context.Background()
	t := s.newTransfer(s.learner(), s.centre)
	s.Require().NoError(s.store.Create(ctx, t))

	s.Require().NoError(s.store.SoftDelete(ctx, t.ID, s.now.Add(time.Minute)))

	_, err := s.store.FindByID(ctx, t.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	deleted, err := s.store.FindByIDIncludingDeleted(ctx, t.ID)
	s.Require().NoError(err)
	s.NotNil(deleted.DeletedAt)

	s.ErrorIs(s.store.SoftDelete(ctx, t.ID, s.now), sentinel.ErrNotFound)
	s.ErrorIs(s.store.Save(ctx, deleted), sentinel.ErrNotFound)

	active, err := s.store.HasActiveForLearner(ctx, t.LearnerID)
	s.Require().NoError(err)
	s.False(active)
}

func (s *PostgresStoreSuite) TestListAndStatistics() {
	ctx := context.Background()

	toCentre := s.newTransfer(s.learner(), s.centre)
	s.Require().NoError(s.store.Create(ctx, toCentre))

	toAcademy := s.newTransfer(s.learner(), s.academy)
	toAcademy.Priority = models.PriorityHigh
	toAcademy.CreatedAt = s.now.Add(time.Second)
	s.Require().NoError(s.store.Create(ctx, toAcademy))

	approved := s.newTransfer(s.learner(), s.centre)
	approved.CreatedAt = s.now.Add(2 * time.Second)
	s.Require().NoError(s.store.Create(ctx, approved))
	s.Require().NoError(approved.Review(models.StatusApproved, id.NewUserID(), "", nil, s.now))
	s.Require().NoError(s.store.Save(ctx, approved))

	all, total, err := s.store.List(ctx, models.ListFilter{Limit: 10})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Require().Len(all, 3)
	s.Equal(approved.ID, all[0].ID, "newest first")

	page, total, err := s.store.List(ctx, models.ListFilter{Limit: 2, Offset: 2})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Require().Len(page, 1)
	s.Equal(toCentre.ID, page[0].ID)

	scope := s.academy
	scoped, total, err := s.store.List(ctx, models.ListFilter{Scope: &scope, Limit: 10})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(toAcademy.ID, scoped[0].ID)

	high := models.PriorityHigh
	byPriority, _, err := s.store.List(ctx, models.ListFilter{Priority: &high, Limit: 10})
	s.Require().NoError(err)
	s.Len(byPriority, 1)

	status := models.StatusApproved
	to := s.centre
	filtered, total, err := s.store.List(ctx, models.ListFilter{Status: &status, ToInstitutionID: &to, Limit: 10})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(approved.ID, filtered[0].ID)

	stats, err := s.store.Statistics(ctx, nil)
	s.Require().NoError(err)
	s.Equal(models.Statistics{Total: 3, Pending: 2, Approved: 1}, stats)

	centre := s.centre
	stats, err = s.store.Statistics(ctx, &centre)
	s.Require().NoError(err)
	s.Equal(models.Statistics{Total: 2, Pending: 1, Approved: 1}, stats)
}

func (s *PostgresStoreSuite) TestWritesInsideRolledBackTransactionAreDiscarded() {
	ctx := context.Background()
	t := s.newTransfer(s.learner(), s.centre)

	tx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(txcontext.WithTx(ctx, tx), t))

	inTx, err := s.store.FindByID(txcontext.WithTx(ctx, tx), t.ID)
	s.Require().NoError(err)
	s.Equal(t.ID, inTx.ID)

	s.Require().NoError(tx.Rollback())

	_, err = s.store.FindByID(ctx, t.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
