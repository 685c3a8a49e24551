package handlers

import (
	"errors"
	"net/http"

	"github.com/ericjkge/eeg-tutor/internal/backend"
	"github.com/ericjkge/eeg-tutor/internal/calibration"
	"github.com/ericjkge/eeg-tutor/internal/wizard"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WizardHandler struct {
	log     *zap.Logger
	machine *wizard.Machine
}

func NewWizardHandler(log *zap.Logger, machine *wizard.Machine) *WizardHandler {
	return &WizardHandler{log: log, machine: machine}
}

// questionView is a Question stripped of its correct choice. The answer
// key never leaves the orchestrator.
type questionView struct {
	ID         string   `json:"id"`
	Prompt     string   `json:"question"`
	Choices    []string `json:"options"`
	Difficulty string   `json:"difficulty"`
}

// State reports the wizard's full UI state.
func (h *WizardHandler) State(c *gin.Context) {
	report, status := h.machine.ConnectionStatus()
	resp := gin.H{
		"progress":   h.machine.Progress(),
		"complete":   h.machine.Complete(),
		"connection": gin.H{"status": status, "report": report},
		"session": gin.H{
			"state":    h.machine.SessionState().String(),
			"answered": h.machine.AnsweredCount(),
			"total":    len(h.machine.Questions()),
		},
	}
	if result, ok := h.machine.TrainingResult(); ok {
		resp["training"] = result
	}
	c.JSON(http.StatusOK, resp)
}

// Advance moves the wizard forward. The manual flag requests the
// configured Connect-gate override.
func (h *WizardHandler) Advance(c *gin.Context) {
	var body struct {
		Manual bool `json:"manual"`
	}
	// An empty body means a plain advance.
	_ = c.ShouldBindJSON(&body)

	if err := h.machine.Advance(c.Request.Context(), body.Manual); err != nil {
		h.log.Warn("Advance rejected", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.machine.Progress())
}

// Retreat moves the wizard back one stage.
func (h *WizardHandler) Retreat(c *gin.Context) {
	if err := h.machine.Retreat(c.Request.Context()); err != nil {
		h.log.Warn("Retreat rejected", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.machine.Progress())
}

// Questions serves the active question set and the current cursor.
func (h *WizardHandler) Questions(c *gin.Context) {
	qs := h.machine.Questions()
	views := make([]questionView, len(qs))
	for i, q := range qs {
		views[i] = questionView{ID: q.ID, Prompt: q.Prompt, Choices: q.Choices, Difficulty: q.Difficulty}
	}

	resp := gin.H{"questions": views, "answered": h.machine.AnsweredCount()}
	if current, ok := h.machine.CurrentQuestion(); ok {
		resp["current"] = current.ID
	}
	c.JSON(http.StatusOK, resp)
}

// Answer records the operator's choice for the displayed question.
func (h *WizardHandler) Answer(c *gin.Context) {
	var body struct {
		QuestionID string `json:"questionId"`
		Selected   string `json:"selectedAnswer"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.log.Error("Failed to bind answer", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	if err := h.machine.Answer(c.Request.Context(), body.QuestionID, body.Selected); err != nil {
		h.log.Warn("Answer rejected",
			zap.String("question_id", body.QuestionID),
			zap.Error(err),
		)
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"answered": h.machine.AnsweredCount(), "total": len(h.machine.Questions())}
	if next, ok := h.machine.CurrentQuestion(); ok {
		resp["current"] = next.ID
	}
	c.JSON(http.StatusOK, resp)
}

// OpenSession retries opening the calibration session after a failure.
func (h *WizardHandler) OpenSession(c *gin.Context) {
	if err := h.machine.OpenSession(c.Request.Context()); err != nil {
		h.log.Warn("Session open failed", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": h.machine.SessionState().String()})
}

// Train triggers a training run on the collaborator.
func (h *WizardHandler) Train(c *gin.Context) {
	result, err := h.machine.RunTraining(c.Request.Context())
	if err != nil {
		h.log.Error("Training run failed", zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// statusForError maps the error taxonomy onto HTTP statuses: validation
// problems are the caller's fault, gate/session conflicts are state
// conflicts, and submission failures are an upstream fault.
func statusForError(err error) int {
	switch {
	case errors.Is(err, calibration.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, calibration.ErrSession),
		errors.Is(err, wizard.ErrGateClosed),
		errors.Is(err, wizard.ErrWrongStage):
		return http.StatusConflict
	case errors.Is(err, backend.ErrSubmission),
		errors.Is(err, backend.ErrConnectivity):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
