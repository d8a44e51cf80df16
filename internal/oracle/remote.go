package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"weatherpredict/internal/external"
)

// remoteMetadata is the body of GET {base}/metadata.
type remoteMetadata struct {
	Classes  []any    `json:"classes"`
	Features []string `json:"features"`
}

// remoteRequest is the body of POST {base}/predict.
type remoteRequest struct {
	Instances [][]float64 `json:"instances"`
}

// remoteResponse is the reply to POST {base}/predict.
type remoteResponse struct {
	Predictions   []any       `json:"predictions"`
	Probabilities [][]float64 `json:"probabilities,omitempty"`
}

// RemoteModel scores vectors against a scoring service over HTTP.
type RemoteModel struct {
	baseURL string
	client  *external.BaseClient
}

// remoteClassifier is a RemoteModel whose metadata reported class labels.
type remoteClassifier struct {
	*RemoteModel
	classes []any
}

// DialRemote fetches the service metadata once and returns a Model whose
// capabilities match it. The returned model implements ClassModel only when
// the service reports class labels.
func DialRemote(ctx context.Context, baseURL string, client *external.BaseClient) (Model, error) {
	m := &RemoteModel{baseURL: strings.TrimRight(baseURL, "/"), client: client}

	var meta remoteMetadata
	if err := m.call(ctx, http.MethodGet, "/metadata", nil, &meta); err != nil {
		return nil, fmt.Errorf("fetching model metadata: %w", err)
	}
	if err := CheckFeatureOrder(meta.Features); err != nil {
		return nil, err
	}

	if len(meta.Classes) > 0 {
		return &remoteClassifier{RemoteModel: m, classes: meta.Classes}, nil
	}
	return m, nil
}

// Predict implements Model.
func (m *RemoteModel) Predict(ctx context.Context, x []float64) (any, error) {
	resp, err := m.score(ctx, x)
	if err != nil {
		return nil, err
	}
	if len(resp.Predictions) != 1 {
		return nil, fmt.Errorf("scoring service returned %d predictions for 1 instance", len(resp.Predictions))
	}
	return resp.Predictions[0], nil
}

// Classes implements ClassModel.
func (m *remoteClassifier) Classes() []any {
	return m.classes
}

// PredictProba implements ClassModel.
func (m *remoteClassifier) PredictProba(ctx context.Context, x []float64) ([]float64, error) {
	resp, err := m.score(ctx, x)
	if err != nil {
		return nil, err
	}
	if len(resp.Probabilities) != 1 {
		return nil, fmt.Errorf("scoring service returned %d probability rows for 1 instance", len(resp.Probabilities))
	}
	return resp.Probabilities[0], nil
}

func (m *RemoteModel) score(ctx context.Context, x []float64) (*remoteResponse, error) {
	var out remoteResponse
	if err := m.call(ctx, http.MethodPost, "/predict", remoteRequest{Instances: [][]float64{x}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *RemoteModel) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("scoring service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
