package backend

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ericjkge/eeg-tutor/internal/signal"
)

// StatusReport is the acquisition service's connection report.
type StatusReport struct {
	IsConnected       bool    `json:"is_connected"`
	ConnectionQuality string  `json:"connection_quality"`
	SampleRate        float64 `json:"sample_rate"`
	DataCount         int64   `json:"data_count"`
}

// Status fetches the current device connection report.
func (c *Client) Status(ctx context.Context) (StatusReport, error) {
	var report StatusReport
	if err := c.doJSON(ctx, "GET", "/eeg/status", nil, &report); err != nil {
		return StatusReport{}, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return report, nil
}

// StartAcquisition asks the backend to start its OSC listener.
func (c *Client) StartAcquisition(ctx context.Context) error {
	if err := c.doJSON(ctx, "POST", "/eeg/start", nil, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return nil
}

// StopAcquisition asks the backend to stop its OSC listener.
func (c *Client) StopAcquisition(ctx context.Context) error {
	if err := c.doJSON(ctx, "POST", "/eeg/stop", nil, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return nil
}

// Window fetches the samples from the last N seconds.
func (c *Client) Window(ctx context.Context, seconds float64) ([]signal.Sample, error) {
	var payload struct {
		Data []signal.Sample `json:"data"`
	}
	path := fmt.Sprintf("/eeg/data?seconds=%g", seconds)
	if err := c.doJSON(ctx, "GET", path, nil, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return payload.Data, nil
}

// Snapshot captures a single sample tied to a question. Loss of a snapshot
// degrades training data quality but never blocks the user flow, so the
// caller only logs the returned error.
func (c *Client) Snapshot(ctx context.Context, sessionID, questionID string) error {
	var ack struct {
		Success bool `json:"success"`
	}
	path := "/eeg/snapshot?session_id=" + url.QueryEscape(sessionID) +
		"&question_id=" + url.QueryEscape(questionID)
	if err := c.doJSON(ctx, "POST", path, nil, &ack); err != nil {
		return fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	if !ack.Success {
		return fmt.Errorf("%w: snapshot rejected", ErrSubmission)
	}
	return nil
}
