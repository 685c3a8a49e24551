package backend

import (
	"context"
	"encoding/json"
	"fmt"
)

// TrainRequest carries the parameters for a training run.
type TrainRequest struct {
	ValidationSplit  float64 `json:"validation_split"`
	SaveAsNewVersion bool    `json:"save_as_new_version"`
}

// TrainResult is the training engine's report. Metrics are passed through
// opaquely; their shape belongs to the ML collaborator.
type TrainResult struct {
	Success         bool            `json:"success"`
	ModelVersion    int             `json:"model_version"`
	TrainingMetrics json.RawMessage `json:"training_metrics"`
}

// Train triggers a model training run on the collaborator.
func (c *Client) Train(ctx context.Context, req TrainRequest) (TrainResult, error) {
	var result TrainResult
	if err := c.doJSON(ctx, "POST", "/ml/train", req, &result); err != nil {
		return TrainResult{}, fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	if !result.Success {
		return result, fmt.Errorf("%w: training rejected", ErrSubmission)
	}
	return result, nil
}
