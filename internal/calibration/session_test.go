package calibration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAPI struct {
	sessionID string
	openErr   error
	submitErr error
	closeErr  error

	opens     int
	submits   []AnswerRecord
	snapshots []string
	closes    int
}

func (f *fakeAPI) OpenSession(ctx context.Context) (string, error) {
	f.opens++
	return f.sessionID, f.openErr
}

func (f *fakeAPI) SubmitAnswer(ctx context.Context, sessionID string, rec AnswerRecord) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submits = append(f.submits, rec)
	return nil
}

func (f *fakeAPI) Snapshot(ctx context.Context, sessionID, questionID string) error {
	f.snapshots = append(f.snapshots, questionID)
	return nil
}

func (f *fakeAPI) CloseSession(ctx context.Context, sessionID string) error {
	f.closes++
	return f.closeErr
}

var testQuestions = []Question{
	{ID: "E1", Prompt: "What is 2 + 2?", Choices: []string{"3", "4"}, Difficulty: "easy", CorrectAnswer: "4"},
	{ID: "M1", Prompt: "What is 15% of 200?", Choices: []string{"30", "45"}, Difficulty: "medium", CorrectAnswer: "30"},
	{ID: "H1", Prompt: "Bat and ball?", Choices: []string{"$0.05", "$0.10"}, Difficulty: "hard", CorrectAnswer: "$0.05"},
}

func newTestSession(api API) *SessionClient {
	return NewSessionClient(api, zap.NewNop())
}

func TestRecordAnswerWithoutOpenFailsLoudly(t *testing.T) {
	api := &fakeAPI{sessionID: "s-1"}
	s := newTestSession(api)

	rec := NewAnswerRecord(testQuestions[0], "4", time.Now())
	err := s.RecordAnswer(context.Background(), rec)

	require.ErrorIs(t, err, ErrSession)
	assert.Empty(t, api.submits, "no network call may happen without an open session")
	assert.Equal(t, Unopened, s.State())
}

func TestOpenWithoutSessionIDFails(t *testing.T) {
	api := &fakeAPI{sessionID: ""}
	s := newTestSession(api)

	err := s.Open(context.Background())
	require.ErrorIs(t, err, ErrSession)
	assert.Equal(t, Unopened, s.State(), "a failed open leaves the attempt retryable")

	// Retry after the collaborator recovers.
	api.sessionID = "s-2"
	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, Open, s.State())
	assert.Equal(t, "s-2", s.SessionID())
}

func TestAnswerValidationBeforeNetwork(t *testing.T) {
	api := &fakeAPI{sessionID: "s-1"}
	s := newTestSession(api)
	require.NoError(t, s.Open(context.Background()))

	err := s.RecordAnswer(context.Background(), AnswerRecord{QuestionID: "E1"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, api.submits)

	err = s.RecordAnswer(context.Background(), AnswerRecord{SelectedAnswer: "4"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, api.submits)
}

func TestFailedSubmissionIsNotDurable(t *testing.T) {
	api := &fakeAPI{sessionID: "s-1", submitErr: errors.New("boom")}
	s := newTestSession(api)
	require.NoError(t, s.Open(context.Background()))

	rec := NewAnswerRecord(testQuestions[0], "4", time.Now())
	err := s.RecordAnswer(context.Background(), rec)
	require.Error(t, err)
	assert.Empty(t, s.Answers(), "a failed submission must not count as recorded")

	// The caller retries explicitly; no retry loop is baked in.
	api.submitErr = nil
	require.NoError(t, s.RecordAnswer(context.Background(), rec))
	assert.Len(t, s.Answers(), 1)
}

func TestFullSessionScenario(t *testing.T) {
	api := &fakeAPI{sessionID: "s-42"}
	s := newTestSession(api)
	require.NoError(t, s.Open(context.Background()))

	shown := time.Now().Add(-3 * time.Second)
	first := NewAnswerRecord(testQuestions[0], "4", shown)
	require.NoError(t, s.RecordAnswer(context.Background(), first))

	second := NewAnswerRecord(testQuestions[1], "45", time.Now().Add(-time.Second))
	require.NoError(t, s.RecordAnswer(context.Background(), second))

	require.NoError(t, s.Close(context.Background()))

	answers := s.Answers()
	require.Len(t, answers, 2)
	assert.Equal(t, "E1", answers[0].QuestionID)
	assert.True(t, answers[0].IsCorrect)
	assert.GreaterOrEqual(t, answers[0].TimeSpent, 3*time.Second)
	assert.Equal(t, "M1", answers[1].QuestionID)
	assert.False(t, answers[1].IsCorrect)
	assert.Equal(t, Closed, s.State())
	assert.Equal(t, 1, api.closes)
}

func TestCloseIsIdempotentAndNeverBlocksUnopened(t *testing.T) {
	api := &fakeAPI{sessionID: "s-1"}
	s := newTestSession(api)

	// Never opened: close is a no-op, not an error.
	require.NoError(t, s.Close(context.Background()))
	assert.Zero(t, api.closes)

	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, api.closes, "the collaborator is notified exactly once")
}

func TestCloseFailureStillTransitions(t *testing.T) {
	api := &fakeAPI{sessionID: "s-1", closeErr: errors.New("gone")}
	s := newTestSession(api)
	require.NoError(t, s.Open(context.Background()))

	err := s.Close(context.Background())
	require.Error(t, err)
	assert.Equal(t, Closed, s.State(), "close is best-effort cleanup")
}

func TestSnapshotRequiresOpenSession(t *testing.T) {
	api := &fakeAPI{sessionID: "s-1"}
	s := newTestSession(api)

	err := s.Snapshot(context.Background(), "E1")
	require.ErrorIs(t, err, ErrSession)

	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, s.Snapshot(context.Background(), "E1"))
	assert.Equal(t, []string{"E1"}, api.snapshots)
}

func TestAnsweredAllRequiresPresentationOrder(t *testing.T) {
	api := &fakeAPI{sessionID: "s-1"}
	s := newTestSession(api)
	require.NoError(t, s.Open(context.Background()))

	require.NoError(t, s.RecordAnswer(context.Background(), NewAnswerRecord(testQuestions[0], "4", time.Now())))
	require.NoError(t, s.RecordAnswer(context.Background(), NewAnswerRecord(testQuestions[1], "30", time.Now())))
	assert.False(t, s.AnsweredAll(testQuestions), "2 of 3 answered must not pass the gate")

	require.NoError(t, s.RecordAnswer(context.Background(), NewAnswerRecord(testQuestions[2], "$0.05", time.Now())))
	assert.True(t, s.AnsweredAll(testQuestions))

	// Same count but wrong order fails the gate.
	reordered := []Question{testQuestions[1], testQuestions[0], testQuestions[2]}
	assert.False(t, s.AnsweredAll(reordered))
}
