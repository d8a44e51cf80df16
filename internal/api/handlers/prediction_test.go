package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weatherpredict/internal/core"
	"weatherpredict/internal/features"
	"weatherpredict/internal/oracle"
	"weatherpredict/internal/prediction"
	"weatherpredict/internal/scenario"
	"weatherpredict/internal/types"
)

// =============================================================================
// Stubs
// =============================================================================

// mockPredictionService lets each test supply only the behaviour it needs.
type mockPredictionService struct {
	predictFn  func(ctx context.Context, v features.Vector) (*prediction.Result, error)
	simulateFn func(ctx context.Context, req prediction.SimulationRequest) (*prediction.Simulation, error)
	info       prediction.ModelInfo
}

func (m *mockPredictionService) Predict(ctx context.Context, v features.Vector) (*prediction.Result, error) {
	if m.predictFn != nil {
		return m.predictFn(ctx, v)
	}
	return nil, errors.New("predictFn not set")
}

func (m *mockPredictionService) Simulate(ctx context.Context, req prediction.SimulationRequest) (*prediction.Simulation, error) {
	if m.simulateFn != nil {
		return m.simulateFn(ctx, req)
	}
	return nil, errors.New("simulateFn not set")
}

func (m *mockPredictionService) ModelInfo() prediction.ModelInfo { return m.info }

// uniformClassifier is an oracle.ClassModel that always returns label and a
// uniform distribution.
type uniformClassifier struct {
	classes []any
	label   any
}

func (c uniformClassifier) Predict(context.Context, []float64) (any, error) { return c.label, nil }
func (c uniformClassifier) Classes() []any                                 { return c.classes }
func (c uniformClassifier) PredictProba(context.Context, []float64) ([]float64, error) {
	p := make([]float64, len(c.classes))
	for i := range p {
		p[i] = 1 / float64(len(c.classes))
	}
	return p, nil
}

// =============================================================================
// Helpers
// =============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRouter(svc PredictionService) http.Handler {
	logger := testLogger()
	h := NewPredictionHandler(svc, core.NewValidator(logger), logger)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// newServiceRouter wires the handler to a real prediction.Service. A nil
// model means no model was loaded.
func newServiceRouter(t *testing.T, m oracle.Model) http.Handler {
	t.Helper()
	var o *oracle.Oracle
	if m != nil {
		var err error
		o, err = oracle.New(m)
		require.NoError(t, err)
	}
	gen := scenario.NewGenerator(scenario.WithSeed(1, 2))
	return newRouter(prediction.NewService(o, testLogger(), prediction.WithGenerator(gen)))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const exampleBody = `{"temp":20.0,"dwpt":15.0,"rhum":65.0,"prcp":0.0,"snow":0.0,"wdir":180.0,"wspd":10.0,"wpgt":15.0,"pres":1013.0,"hour":14,"day_of_week":2}`

// =============================================================================
// GET /
// =============================================================================

func TestHandleRoot(t *testing.T) {
	rec := do(t, newServiceRouter(t, nil), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Weather Prediction API is running"}`, rec.Body.String())
}

// =============================================================================
// POST /predict
// =============================================================================

func TestHandlePredict_RoundTrip(t *testing.T) {
	model := uniformClassifier{classes: []any{float64(0), float64(9), float64(11), float64(18)}, label: float64(9)}
	rec := do(t, newServiceRouter(t, model), http.MethodPost, "/predict", exampleBody)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"prediction": "9",
		"probabilities": {"0": 0.25, "9": 0.25, "11": 0.25, "18": 0.25},
		"condition": "Sunny"
	}`, rec.Body.String())
}

func TestHandlePredict_PassesVectorInSchemaOrder(t *testing.T) {
	var got features.Vector
	svc := &mockPredictionService{predictFn: func(_ context.Context, v features.Vector) (*prediction.Result, error) {
		got = v
		return &prediction.Result{Kind: oracle.KindRegressor, Value: 1.5}, nil
	}}

	// Keys deliberately out of order.
	body := `{"day_of_week":2,"hour":14,"pres":1013,"wpgt":15,"wspd":10,"wdir":180,"snow":0,"prcp":0,"rhum":65,"dwpt":15,"temp":20}`
	rec := do(t, newRouter(svc), http.MethodPost, "/predict", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"prediction":1.5}`, rec.Body.String())
	assert.Equal(t, []float64{20, 15, 65, 0, 0, 180, 10, 15, 1013, 14, 2}, features.Assemble(got))
}

func TestHandlePredict_ValidationFailures(t *testing.T) {
	svc := &mockPredictionService{predictFn: func(context.Context, features.Vector) (*prediction.Result, error) {
		t.Fatal("service must not be called for invalid input")
		return nil, nil
	}}
	h := newRouter(svc)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"missing field", strings.Replace(exampleBody, `"temp":20.0,`, "", 1), "validation_missing_required_field"},
		{"empty object", `{}`, "validation_missing_required_field"},
		{"string for number", strings.Replace(exampleBody, `"temp":20.0`, `"temp":"warm"`, 1), "validation_invalid_field"},
		{"fractional hour", strings.Replace(exampleBody, `"hour":14`, `"hour":14.5`, 1), "validation_invalid_field"},
		{"null field", strings.Replace(exampleBody, `"pres":1013.0`, `"pres":null`, 1), "validation_missing_required_field"},
		{"malformed", `{"temp":`, "validation_invalid_json"},
		{"no body", ``, "validation_invalid_json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/predict", tt.body)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			body := decodeMap(t, rec)
			assert.Equal(t, tt.wantCode, body["code"])
			assert.NotEmpty(t, body["detail"])
		})
	}
}

func TestHandlePredict_MissingFieldNamed(t *testing.T) {
	rec := do(t, newServiceRouter(t, nil), http.MethodPost, "/predict",
		strings.Replace(exampleBody, `"wdir":180.0,`, "", 1))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeMap(t, rec)["detail"], "wdir")
}

func TestHandlePredict_ModelUnavailable(t *testing.T) {
	rec := do(t, newServiceRouter(t, nil), http.MethodPost, "/predict", exampleBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Model not loaded", decodeMap(t, rec)["detail"])
}

func TestHandlePredict_ServiceErrorPropagates(t *testing.T) {
	svc := &mockPredictionService{predictFn: func(context.Context, features.Vector) (*prediction.Result, error) {
		return nil, types.NewAppError(types.ErrCodeInternalPredictionFailed, "Prediction error: bad shape", nil)
	}}
	rec := do(t, newRouter(svc), http.MethodPost, "/predict", exampleBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Prediction error: bad shape", decodeMap(t, rec)["detail"])
}

// =============================================================================
// POST /simulate
// =============================================================================

func TestHandleSimulate_ThreeSamples(t *testing.T) {
	model := uniformClassifier{classes: []any{"rain", "sun"}, label: "sun"}
	rec := do(t, newServiceRouter(t, model), http.MethodPost, "/simulate", `{"samples":3,"season":"winter"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Season      string           `json:"season"`
		Simulations []map[string]any `json:"simulations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "winter", body.Season)
	require.Len(t, body.Simulations, 3)

	for _, sim := range body.Simulations {
		for _, name := range features.Names() {
			assert.Contains(t, sim, name)
		}
		assert.Equal(t, "sun", sim["prediction"])
		assert.Equal(t, map[string]any{"rain": 0.5, "sun": 0.5}, sim["probabilities"])
	}
}

func TestHandleSimulate_Defaults(t *testing.T) {
	var got prediction.SimulationRequest
	svc := &mockPredictionService{simulateFn: func(_ context.Context, req prediction.SimulationRequest) (*prediction.Simulation, error) {
		got = req
		return &prediction.Simulation{Season: scenario.Summer, Simulations: []prediction.Scenario{}}, nil
	}}
	h := newRouter(svc)

	for _, body := range []string{"", "{}"} {
		rec := do(t, h, http.MethodPost, "/simulate", body)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, got.Samples)
		assert.Nil(t, got.Season)
	}
}

func TestHandleSimulate_DefaultCountWithRealService(t *testing.T) {
	model := uniformClassifier{classes: []any{"a", "b"}, label: "a"}
	rec := do(t, newServiceRouter(t, model), http.MethodPost, "/simulate", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var raw struct {
		Season      string            `json:"season"`
		Simulations []json.RawMessage `json:"simulations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "summer", raw.Season)
	assert.Len(t, raw.Simulations, scenario.DefaultSamples)
}

func TestHandleSimulate_NonIntegerSamples(t *testing.T) {
	rec := do(t, newServiceRouter(t, nil), http.MethodPost, "/simulate", `{"samples":"three"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleSimulate_ModelUnavailable(t *testing.T) {
	rec := do(t, newServiceRouter(t, nil), http.MethodPost, "/simulate", `{"samples":3}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Model not loaded", decodeMap(t, rec)["detail"])
}

func TestModelUnavailable_RootStillResponds(t *testing.T) {
	h := newServiceRouter(t, nil)

	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodPost, "/predict", exampleBody).Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodPost, "/simulate", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/", "").Code)
}

// =============================================================================
// GET /model
// =============================================================================

func TestHandleModel(t *testing.T) {
	model := uniformClassifier{classes: []any{float64(1), float64(2)}, label: float64(1)}
	rec := do(t, newServiceRouter(t, model), http.MethodGet, "/model", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	assert.Equal(t, true, body["loaded"])
	assert.Equal(t, "classifier", body["kind"])
	assert.Equal(t, []any{"1", "2"}, body["classes"])
	assert.Len(t, body["features"], features.NumFields)
}
