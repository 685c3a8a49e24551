package backend

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ericjkge/eeg-tutor/internal/calibration"
)

// FetchQuestions retrieves the server-side calibration test set.
func (c *Client) FetchQuestions(ctx context.Context) ([]calibration.Question, error) {
	var payload struct {
		Tests []calibration.Question `json:"tests"`
	}
	if err := c.doJSON(ctx, "GET", "/calibration/tests", nil, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return payload.Tests, nil
}

// OpenSession opens a server-side calibration session and returns its
// opaque identifier. An empty identifier is reported as an error so the
// caller never proceeds without a valid session.
func (c *Client) OpenSession(ctx context.Context) (string, error) {
	var payload struct {
		SessionID string `json:"session_id"`
	}
	if err := c.doJSON(ctx, "POST", "/calibration/start", nil, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return payload.SessionID, nil
}

// SubmitAnswer posts one answer record for the open session. On any
// failure the record is NOT durable and the caller must surface it.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID string, rec calibration.AnswerRecord) error {
	body := map[string]interface{}{
		"session_id":     sessionID,
		"testId":         rec.QuestionID,
		"question":       rec.Question,
		"difficulty":     rec.Difficulty,
		"selectedAnswer": rec.SelectedAnswer,
		"correctAnswer":  rec.CorrectAnswer,
		"isCorrect":      rec.IsCorrect,
		"timestamp":      rec.DecidedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		"timeSpent":      rec.TimeSpent.Milliseconds(),
	}

	var ack struct {
		Success bool `json:"success"`
	}
	if err := c.doJSON(ctx, "POST", "/calibration/answer", body, &ack); err != nil {
		return fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	if !ack.Success {
		return fmt.Errorf("%w: answer rejected", ErrSubmission)
	}
	return nil
}

// CloseSession marks the session complete on the server. Best-effort
// cleanup: the caller treats failures as non-blocking.
func (c *Client) CloseSession(ctx context.Context, sessionID string) error {
	path := "/calibration/complete?session_id=" + url.QueryEscape(sessionID)
	if err := c.doJSON(ctx, "POST", path, nil, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	return nil
}
