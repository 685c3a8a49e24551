// Package wizard sequences the Connect → Calibrate → Train flow. The
// machine hosts one active stage at a time: the Connect stage owns a
// status poller, the Calibrate stage owns the calibration session, and
// the Train stage triggers the training run.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ericjkge/eeg-tutor/internal/backend"
	"github.com/ericjkge/eeg-tutor/internal/calibration"
	"github.com/ericjkge/eeg-tutor/internal/poll"
	"github.com/ericjkge/eeg-tutor/internal/signal"
	"go.uber.org/zap"
)

// Gate errors. Handlers translate these into user-visible blocking
// messages rather than retrying internally.
var (
	ErrGateClosed  = errors.New("stage gate closed")
	ErrAtBoundary  = errors.New("no stage in that direction")
	ErrWrongStage  = errors.New("operation not valid in current stage")
	ErrNoQuestions = errors.New("no calibration questions available")
)

// Backend is the slice of the collaborator the wizard drives.
type Backend interface {
	calibration.API
	Status(ctx context.Context) (backend.StatusReport, error)
	StartAcquisition(ctx context.Context) error
	StopAcquisition(ctx context.Context) error
	FetchQuestions(ctx context.Context) ([]calibration.Question, error)
	Train(ctx context.Context, req backend.TrainRequest) (backend.TrainResult, error)
}

// Config holds the wizard's policy knobs, resolved from configuration.
type Config struct {
	// AllowManualConnect permits advancing out of Connect without a
	// connected device when the operator explicitly asks for it. This is
	// a deliberate deployment choice, never a default.
	AllowManualConnect bool
	// OpenSessionOnEnter opens the calibration session when the stage is
	// entered. When false the session opens lazily on the first answer.
	OpenSessionOnEnter bool
	StatusInterval     time.Duration
	// FallbackQuestions is used when the backend has no test set.
	FallbackQuestions []calibration.Question
	Training          backend.TrainRequest
}

// Machine is the wizard state machine. The current stage is its sole
// mutable cursor; transitions move one stage at a time and never skip.
type Machine struct {
	log        *zap.Logger
	api        Backend
	cfg        Config
	onComplete func()

	// statusMu guards the poller-fed connection report. It is separate
	// from mu so stopping the poller while holding mu cannot deadlock
	// against an in-flight status fetch.
	statusMu   sync.Mutex
	lastReport backend.StatusReport
	lastStatus signal.Status

	mu           sync.Mutex
	stage        Stage
	complete     bool
	statusPoller *poll.Poller
	session      *calibration.SessionClient
	questions    []calibration.Question
	shownAt      time.Time
	training     *backend.TrainResult
}

// New builds a machine at the Connect stage. onComplete fires once when
// the Train stage finishes; it may be nil.
func New(api Backend, cfg Config, log *zap.Logger, onComplete func()) *Machine {
	m := &Machine{
		log:        log,
		api:        api,
		cfg:        cfg,
		onComplete: onComplete,
		stage:      StageConnect,
		lastStatus: signal.Classify(""),
	}
	m.statusPoller = poll.New("wizard-status", log)
	return m
}

// Start enters the Connect stage: it pokes the acquisition service awake
// and begins polling the connection status.
func (m *Machine) Start(ctx context.Context) {
	if err := m.api.StartAcquisition(ctx); err != nil {
		// Non-fatal: the status poller will keep reporting disconnected
		// until the acquisition service comes up.
		m.log.Warn("Could not start acquisition service", zap.Error(err))
	}
	m.startStatusPolling()
}

// Shutdown tears down whatever the active stage owns and asks the
// acquisition service to stop its listener.
func (m *Machine) Shutdown(ctx context.Context) {
	m.mu.Lock()
	session := m.session
	m.mu.Unlock()

	m.statusPoller.Stop()
	if session != nil {
		if err := session.Close(ctx); err != nil {
			m.log.Warn("Session close on shutdown failed", zap.Error(err))
		}
	}
	if err := m.api.StopAcquisition(ctx); err != nil {
		m.log.Warn("Could not stop acquisition service", zap.Error(err))
	}
}

func (m *Machine) startStatusPolling() {
	m.statusPoller.Start(m.cfg.StatusInterval,
		func(ctx context.Context) (interface{}, error) {
			return m.api.Status(ctx)
		},
		func(v interface{}, err error) {
			m.statusMu.Lock()
			defer m.statusMu.Unlock()
			if err != nil {
				// Polling continues; the feed degrades to an error status.
				m.lastReport = backend.StatusReport{}
				m.lastStatus = signal.Classify(signal.QualityError)
				return
			}
			report := v.(backend.StatusReport)
			m.lastReport = report
			if !report.IsConnected {
				m.lastStatus = signal.Classify(signal.QualityDisconnected)
				return
			}
			m.lastStatus = signal.Classify(report.ConnectionQuality)
		},
	)
}

// ConnectionStatus returns the latest classified connection report.
func (m *Machine) ConnectionStatus() (backend.StatusReport, signal.Status) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	return m.lastReport, m.lastStatus
}

// Advance moves the wizard forward one stage. The manual flag only has
// effect at the Connect gate and only when AllowManualConnect is set.
func (m *Machine) Advance(ctx context.Context, manual bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.stage {
	case StageConnect:
		if !m.connectGateOpen(manual) {
			return fmt.Errorf("%w: device not connected", ErrGateClosed)
		}
		if err := m.enterCalibrate(ctx); err != nil {
			return err
		}
		// Leaving Connect tears down its poller before the transition is
		// observable; no status tick fires after Advance returns.
		m.statusPoller.Stop()
		m.stage = StageCalibrate
		m.log.Info("Wizard advanced", zap.String("stage", m.stage.String()))
		return nil

	case StageCalibrate:
		if m.session == nil || !m.session.AnsweredAll(m.questions) {
			return fmt.Errorf("%w: calibration incomplete", ErrGateClosed)
		}
		if err := m.session.Close(ctx); err != nil {
			// Best-effort cleanup never blocks forward navigation.
			m.log.Warn("Session close on advance failed", zap.Error(err))
		}
		m.stage = StageTrain
		m.log.Info("Wizard advanced", zap.String("stage", m.stage.String()))
		return nil

	case StageTrain:
		if m.complete {
			return nil
		}
		m.complete = true
		m.log.Info("Wizard complete")
		if m.onComplete != nil {
			go m.onComplete()
		}
		return nil
	}
	return ErrAtBoundary
}

// Retreat moves the wizard back one stage; it is a no-op at Connect.
func (m *Machine) Retreat(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.stage {
	case StageConnect:
		return nil
	case StageCalibrate:
		if m.session != nil {
			if err := m.session.Close(ctx); err != nil {
				m.log.Warn("Session close on retreat failed", zap.Error(err))
			}
			m.session = nil
		}
		m.stage = StageConnect
		m.startStatusPolling()
	case StageTrain:
		// Re-entering Calibrate starts a fresh session attempt; the old
		// one was closed on the way forward.
		if err := m.enterCalibrate(ctx); err != nil {
			return err
		}
		m.stage = StageCalibrate
	}
	m.log.Info("Wizard retreated", zap.String("stage", m.stage.String()))
	return nil
}

// connectGateOpen requires both the connection flag and a usable quality
// reading: a report claiming is_connected with a disconnected quality
// string keeps the gate shut.
func (m *Machine) connectGateOpen(manual bool) bool {
	m.statusMu.Lock()
	report := m.lastReport
	m.statusMu.Unlock()

	if report.IsConnected && signal.Connected(report.ConnectionQuality) {
		return true
	}
	return manual && m.cfg.AllowManualConnect
}

// enterCalibrate prepares the Calibrate stage: question set, fresh session
// client, and (policy permitting) an eagerly opened session. Called with
// m.mu held.
func (m *Machine) enterCalibrate(ctx context.Context) error {
	qs, err := m.api.FetchQuestions(ctx)
	if err != nil {
		m.log.Warn("Could not fetch calibration tests, using local bank", zap.Error(err))
		qs = nil
	}
	if len(qs) == 0 {
		qs = m.cfg.FallbackQuestions
	}
	if len(qs) == 0 {
		return ErrNoQuestions
	}

	m.questions = qs
	m.session = calibration.NewSessionClient(m.api, m.log)
	m.shownAt = time.Now()

	if m.cfg.OpenSessionOnEnter {
		if err := m.session.Open(ctx); err != nil {
			// The transition is aborted; the operator retries Advance once
			// the collaborator recovers.
			return err
		}
	}
	return nil
}

// OpenSession (re)tries opening the calibration session, for recovery
// after an Open failure during stage entry or for the lazy-open policy.
func (m *Machine) OpenSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stage != StageCalibrate || m.session == nil {
		return ErrWrongStage
	}
	return m.session.Open(ctx)
}

// Questions returns the active question set in presentation order.
func (m *Machine) Questions() []calibration.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]calibration.Question, len(m.questions))
	copy(out, m.questions)
	return out
}

// CurrentQuestion returns the question currently displayed, if any.
func (m *Machine) CurrentQuestion() (calibration.Question, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentQuestionLocked()
}

func (m *Machine) currentQuestionLocked() (calibration.Question, bool) {
	if m.stage != StageCalibrate || m.session == nil {
		return calibration.Question{}, false
	}
	answered := len(m.session.Answers())
	if answered >= len(m.questions) {
		return calibration.Question{}, false
	}
	return m.questions[answered], true
}

// Answer records the operator's choice for the currently displayed
// question. A snapshot is requested first, fire-and-forget: its loss is
// logged and never blocks answer recording. Lazy-open policy opens the
// session here on the first answer.
func (m *Machine) Answer(ctx context.Context, questionID, selected string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.currentQuestionLocked()
	if !ok {
		return ErrWrongStage
	}
	if questionID != current.ID {
		return fmt.Errorf("%w: question %q is not the one displayed", calibration.ErrValidation, questionID)
	}
	if selected == "" {
		return fmt.Errorf("%w: no answer selected", calibration.ErrValidation)
	}

	if !m.cfg.OpenSessionOnEnter && m.session.State() == calibration.Unopened {
		if err := m.session.Open(ctx); err != nil {
			return err
		}
	}

	if err := m.session.Snapshot(ctx, current.ID); err != nil {
		m.log.Warn("Snapshot failed",
			zap.String("question_id", current.ID),
			zap.Error(err),
		)
	}

	rec := calibration.NewAnswerRecord(current, selected, m.shownAt)
	if err := m.session.RecordAnswer(ctx, rec); err != nil {
		return err
	}

	// The next question becomes visible now.
	m.shownAt = time.Now()
	return nil
}

// RunTraining triggers the training engine. Only valid at the Train stage.
func (m *Machine) RunTraining(ctx context.Context) (backend.TrainResult, error) {
	m.mu.Lock()
	if m.stage != StageTrain {
		m.mu.Unlock()
		return backend.TrainResult{}, ErrWrongStage
	}
	req := m.cfg.Training
	m.mu.Unlock()

	result, err := m.api.Train(ctx, req)
	if err != nil {
		return backend.TrainResult{}, err
	}

	m.mu.Lock()
	m.training = &result
	m.mu.Unlock()
	m.log.Info("Training run finished", zap.Int("model_version", result.ModelVersion))
	return result, nil
}

// TrainingResult returns the last training run's result, if any.
func (m *Machine) TrainingResult() (backend.TrainResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.training == nil {
		return backend.TrainResult{}, false
	}
	return *m.training, true
}

// Stage returns the current stage.
func (m *Machine) Stage() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stage
}

// Complete reports whether the wizard has signalled completion.
func (m *Machine) Complete() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.complete
}

// Progress reports stage index over total stages.
func (m *Machine) Progress() Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Progress{
		Stage: m.stage.String(),
		Index: int(m.stage),
		Total: StageCount,
		Ratio: float64(m.stage) / float64(StageCount-1),
	}
}

// SessionState exposes the calibration session lifecycle for the UI.
func (m *Machine) SessionState() calibration.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return calibration.Unopened
	}
	return m.session.State()
}

// AnsweredCount returns how many answers are durably recorded.
func (m *Machine) AnsweredCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return 0
	}
	return len(m.session.Answers())
}
