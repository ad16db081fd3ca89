package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

var testNow = time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC)

func newPending(t *testing.T) *Transfer {
	t.Helper()
	tr, err := NewTransfer("TR-2026-0A1B2C3D", CreateTransferRequest{
		LearnerID:            id.NewLearnerID(),
		ToInstitutionID:      id.NewInstitutionID(),
		Reason:               ReasonFamilyRequest,
		ProposedTransferDate: testNow.AddDate(0, 1, 0),
	}, id.NewInstitutionID(), id.NewUserID(), testNow)
	require.NoError(t, err)
	return tr
}

func fullChecklist() CompletionChecklist {
	return CompletionChecklist{true, true, true, true, true, true}
}

func TestNewTransfer(t *testing.T) {
	tr := newPending(t)
	assert.Equal(t, StatusPending, tr.Status)
	assert.Equal(t, PriorityNormal, tr.Priority)
	assert.NotNil(t, tr.Metadata)

	same := id.NewInstitutionID()
	_, err := NewTransfer("TR-2026-00000000", CreateTransferRequest{ToInstitutionID: same}, same, id.NewUserID(), testNow)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestReview(t *testing.T) {
	t.Run("approve sets reviewer fields", func(t *testing.T) {
		tr := newPending(t)
		by := id.NewUserID()
		actual := testNow.AddDate(0, 0, 14)
		require.NoError(t, tr.Review(StatusApproved, by, "looks good", &actual, testNow))
		assert.Equal(t, StatusApproved, tr.Status)
		assert.Equal(t, &by, tr.ReviewedBy)
		assert.Equal(t, "looks good", *tr.ReviewNotes)
		assert.Equal(t, actual, *tr.ActualTransferDate)
	})

	t.Run("only from pending", func(t *testing.T) {
		tr := newPending(t)
		require.NoError(t, tr.Review(StatusRejected, id.NewUserID(), "", nil, testNow))
		err := tr.Review(StatusApproved, id.NewUserID(), "", nil, testNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		assert.Equal(t, StatusRejected, tr.Status)
	})

	t.Run("decision must be approve or reject", func(t *testing.T) {
		tr := newPending(t)
		err := tr.Review(StatusCompleted, id.NewUserID(), "", nil, testNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Nil(t, tr.ReviewedBy)
	})
}

func TestAcknowledge(t *testing.T) {
	tr := newPending(t)
	err := tr.Acknowledge(id.NewUserID(), AcknowledgeTransferRequest{}, testNow)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

	require.NoError(t, tr.Review(StatusApproved, id.NewUserID(), "", nil, testNow))
	require.NoError(t, tr.Acknowledge(id.NewUserID(), AcknowledgeTransferRequest{}, testNow))
	assert.True(t, tr.ReceivingInstitutionAcknowledged)
	assert.NotContains(t, tr.Metadata, MetaAcknowledgmentNotes)

	err = tr.Acknowledge(id.NewUserID(), AcknowledgeTransferRequest{Notes: "again"}, testNow)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestAcknowledgeWithNotesMergesMetadata(t *testing.T) {
	tr := newPending(t)
	require.NoError(t, tr.Review(StatusApproved, id.NewUserID(), "", nil, testNow))
	require.NoError(t, tr.Acknowledge(id.NewUserID(), AcknowledgeTransferRequest{
		Notes: "files received", DocumentsReceived: true,
	}, testNow))
	assert.Equal(t, "files received", tr.Metadata[MetaAcknowledgmentNotes])
	assert.Equal(t, true, tr.Metadata[MetaDocumentsReceived])
	assert.Equal(t, false, tr.Metadata[MetaReadyForEnrollment])
}

func TestCompleteGating(t *testing.T) {
	tr := newPending(t)
	err := tr.Complete(fullChecklist(), testNow, testNow)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

	require.NoError(t, tr.Review(StatusApproved, id.NewUserID(), "", nil, testNow))
	err = tr.Complete(fullChecklist(), testNow, testNow)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState), "acknowledgment required")

	require.NoError(t, tr.Acknowledge(id.NewUserID(), AcknowledgeTransferRequest{}, testNow))
	partial := fullChecklist()
	partial.ParentNotified = false
	err = tr.Complete(partial, testNow, testNow)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Equal(t, StatusApproved, tr.Status)
	assert.Nil(t, tr.CompletionChecklist)

	require.NoError(t, tr.Complete(fullChecklist(), testNow, testNow))
	assert.Equal(t, StatusCompleted, tr.Status)
	assert.Equal(t, testNow, *tr.ActualTransferDate)

	err = tr.Complete(fullChecklist(), testNow, testNow)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestCancel(t *testing.T) {
	tr := newPending(t)
	by := id.NewUserID()
	require.NoError(t, tr.Cancel("family moved back", by, testNow))
	assert.Equal(t, StatusCancelled, tr.Status)
	assert.Equal(t, "family moved back", tr.Metadata[MetaCancellationReason])
	assert.Equal(t, by.String(), tr.Metadata[MetaCancelledBy])

	require.NoError(t, tr.Cancel("again", by, testNow), "re-cancel is accepted")

	done := newPending(t)
	done.Status = StatusCompleted
	err := done.Cancel("too late", by, testNow)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestApplyUpdate(t *testing.T) {
	tr := newPending(t)
	high := PriorityHigh
	notes := []string{"cn-1", "cn-2", "cn-1"}
	changes, err := tr.ApplyUpdate(UpdateTransferRequest{Priority: &high, SharedCaseNotes: notes}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"priority", "shared_case_notes"}, changes)
	assert.Equal(t, PriorityHigh, tr.Priority)
	assert.Equal(t, []string{"cn-1", "cn-2"}, tr.SharedCaseNotes)

	require.NoError(t, tr.Review(StatusApproved, id.NewUserID(), "", nil, testNow))
	_, err = tr.ApplyUpdate(UpdateTransferRequest{Priority: &high}, testNow)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestMeetingLifecycle(t *testing.T) {
	tr := newPending(t)
	err := tr.CompleteMeeting("done", testNow)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

	require.NoError(t, tr.ScheduleMeeting(testNow.AddDate(0, 0, 3), "video call", testNow))
	require.NoError(t, tr.CompleteMeeting("agreed plan", testNow))
	assert.True(t, tr.MeetingCompleted())

	err = tr.CompleteMeeting("twice", testNow)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

	require.NoError(t, tr.ScheduleMeeting(testNow.AddDate(0, 0, 10), "follow-up call", testNow))
	assert.False(t, tr.MeetingCompleted())
}

func TestCloneIsDeep(t *testing.T) {
	tr := newPending(t)
	tr.SharedCaseNotes = append(tr.SharedCaseNotes, "cn-1")
	c := tr.Clone()
	c.SharedCaseNotes[0] = "changed"
	c.Metadata["x"] = 1

	assert.Equal(t, "cn-1", tr.SharedCaseNotes[0])
	assert.NotContains(t, tr.Metadata, "x")
}

func TestAddCommunicationAddressesTransferInstitutions(t *testing.T) {
	tr := newPending(t)

	c, err := tr.AddCommunication(tr.FromInstitutionID.String(), tr.ToInstitutionID, "hello", "msg-1", testNow)
	require.NoError(t, err)
	assert.Equal(t, tr.ToInstitutionID, c.To)
	assert.Len(t, tr.Communications, 1)

	_, err = tr.AddCommunication(tr.FromInstitutionID.String(), id.NewInstitutionID(), "lost", "msg-2", testNow)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Len(t, tr.Communications, 1)
}
