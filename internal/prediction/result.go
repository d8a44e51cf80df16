package prediction

import (
	"encoding/json"

	"weatherpredict/internal/features"
	"weatherpredict/internal/oracle"
	"weatherpredict/internal/scenario"
)

// Result is a shaped model outcome. Classifier results carry Label and
// Probabilities; regressor results carry Value.
type Result struct {
	Kind          oracle.Kind
	Label         string
	Probabilities map[string]float64
	Value         float64
	// Condition is the display name of Label when it is a known weather
	// condition code.
	Condition string
}

type resultJSON struct {
	Prediction    any                `json:"prediction"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Condition     string             `json:"condition,omitempty"`
}

func (r Result) wire() resultJSON {
	if r.Kind == oracle.KindClassifier {
		return resultJSON{
			Prediction:    r.Label,
			Probabilities: r.Probabilities,
			Condition:     r.Condition,
		}
	}
	return resultJSON{Prediction: r.Value}
}

// MarshalJSON renders {"prediction": label, "probabilities": {...}} for
// classifiers and {"prediction": value} for regressors.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.wire())
}

// Scenario pairs a display-rounded generated input with its prediction.
type Scenario struct {
	Input  features.Vector
	Result Result
}

// MarshalJSON flattens the input fields and the prediction into one object.
func (s Scenario) MarshalJSON() ([]byte, error) {
	type flat struct {
		features.Vector
		resultJSON
	}
	return json.Marshal(flat{Vector: s.Input, resultJSON: s.Result.wire()})
}

// SimulationRequest is the body of a simulation call. Both fields are
// optional.
type SimulationRequest struct {
	Samples *int    `json:"samples"`
	Season  *string `json:"season"`
}

// Simulation is a batch of generated scenarios.
type Simulation struct {
	Season      scenario.Season `json:"season"`
	Simulations []Scenario      `json:"simulations"`
}

// ModelInfo describes the loaded model.
type ModelInfo struct {
	Loaded   bool        `json:"loaded"`
	Kind     oracle.Kind `json:"kind,omitempty"`
	Classes  []string    `json:"classes,omitempty"`
	Features []string    `json:"features"`
}
