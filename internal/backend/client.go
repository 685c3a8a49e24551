// Package backend is the HTTP/JSON client for the acquisition,
// calibration, and training collaborator. The wire contract is fixed:
// non-2xx responses and malformed JSON are treated identically to an
// explicit success:false.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Error taxonomy for collaborator calls. Callers match with errors.Is.
var (
	// ErrConnectivity covers unreachable backend, timeouts, non-2xx
	// statuses and unparseable bodies on acquisition reads. Non-fatal:
	// polling degrades to an error status and continues.
	ErrConnectivity = errors.New("backend connectivity failure")
	// ErrSubmission covers failed answer/snapshot/close POSTs. The
	// submitted record is not durable; the caller decides on retry.
	ErrSubmission = errors.New("backend submission failure")
)

// Client talks to the collaborator over its JSON API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// New builds a client for the given base URL. The request timeout bounds
// how long a hung backend can delay the next polling opportunity.
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// doJSON issues one request and decodes the response body into out (when
// out is non-nil). Any transport error, non-2xx status, or undecodable
// body is returned as a plain error for the caller to classify.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request %s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}
