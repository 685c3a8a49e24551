package calibration

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Session state machine errors.
var (
	// ErrSession means no valid server-side session is open. Fatal to the
	// current calibration attempt: answers must not be recorded without one.
	ErrSession = errors.New("no open calibration session")
	// ErrValidation means the answer was rejected before any network call.
	ErrValidation = errors.New("invalid answer")
)

// State is the lifecycle position of one calibration session.
type State int

const (
	Unopened State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unopened"
	}
}

// API is the slice of the collaborator the session client needs.
type API interface {
	OpenSession(ctx context.Context) (string, error)
	SubmitAnswer(ctx context.Context, sessionID string, rec AnswerRecord) error
	Snapshot(ctx context.Context, sessionID, questionID string) error
	CloseSession(ctx context.Context, sessionID string) error
}

// SessionClient owns one server-side calibration session: it opens it,
// submits answers against it, and closes it exactly once.
type SessionClient struct {
	api API
	log *zap.Logger

	mu      sync.Mutex
	state   State
	id      string
	answers []AnswerRecord
}

func NewSessionClient(api API, log *zap.Logger) *SessionClient {
	return &SessionClient{api: api, log: log}
}

// Open requests a session from the collaborator. It fails with ErrSession
// when the collaborator does not return an identifier; the client stays
// Unopened so the attempt can be retried.
func (s *SessionClient) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Unopened {
		return fmt.Errorf("%w: session already %s", ErrSession, s.state)
	}

	id, err := s.api.OpenSession(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSession, err)
	}
	if id == "" {
		return fmt.Errorf("%w: collaborator returned no session id", ErrSession)
	}

	s.id = id
	s.state = Open
	s.log.Info("Calibration session opened", zap.String("session_id", id))
	return nil
}

// RecordAnswer submits rec against the open session. Calling it without an
// open session is a contract violation and fails loudly with ErrSession
// before any network call. A failed submission returns the error and does
// NOT count the record as durable; retry policy belongs to the caller.
func (s *SessionClient) RecordAnswer(ctx context.Context, rec AnswerRecord) error {
	if rec.SelectedAnswer == "" {
		return fmt.Errorf("%w: no answer selected", ErrValidation)
	}
	if rec.QuestionID == "" {
		return fmt.Errorf("%w: answer has no question", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Open {
		return fmt.Errorf("%w: cannot record answer while %s", ErrSession, s.state)
	}

	if err := s.api.SubmitAnswer(ctx, s.id, rec); err != nil {
		s.log.Warn("Answer submission failed",
			zap.String("session_id", s.id),
			zap.String("question_id", rec.QuestionID),
			zap.Error(err),
		)
		return err
	}

	s.answers = append(s.answers, rec)
	return nil
}

// Snapshot requests a single-sample capture tied to a question. Failures
// degrade data quality but never block the flow: the caller logs and
// moves on.
func (s *SessionClient) Snapshot(ctx context.Context, questionID string) error {
	s.mu.Lock()
	id, state := s.id, s.state
	s.mu.Unlock()

	if state != Open {
		return fmt.Errorf("%w: cannot snapshot while %s", ErrSession, state)
	}
	return s.api.Snapshot(ctx, id, questionID)
}

// Close transitions Open → Closed and notifies the collaborator. It is a
// no-op when the session is already Closed or was never opened. Cleanup is
// best-effort: the state moves to Closed even when the notification fails.
func (s *SessionClient) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Open {
		return nil
	}
	s.state = Closed

	if err := s.api.CloseSession(ctx, s.id); err != nil {
		s.log.Warn("Session close notification failed",
			zap.String("session_id", s.id),
			zap.Error(err),
		)
		return err
	}
	s.log.Info("Calibration session closed",
		zap.String("session_id", s.id),
		zap.Int("answers", len(s.answers)),
	)
	return nil
}

// State returns the session lifecycle state.
func (s *SessionClient) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SessionID returns the server-issued identifier, empty until Open.
func (s *SessionClient) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Answers returns the durably recorded answers in presentation order.
func (s *SessionClient) Answers() []AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AnswerRecord, len(s.answers))
	copy(out, s.answers)
	return out
}

// AnsweredAll reports whether every question in qs has a durable answer,
// in the order the questions were presented.
func (s *SessionClient) AnsweredAll(qs []Question) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.answers) < len(qs) {
		return false
	}
	for i, q := range qs {
		if s.answers[i].QuestionID != q.ID {
			return false
		}
	}
	return true
}
