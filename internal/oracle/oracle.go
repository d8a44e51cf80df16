// Package oracle wraps the pre-trained weather model behind a small adapter.
//
// The model itself is opaque: anything implementing Model can be scored. Models
// that also implement ClassModel and report at least one class label are
// treated as classifiers. The capability is detected once, in New, and cached
// for the lifetime of the Oracle.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math"

	"weatherpredict/internal/features"
)

// Model is an opaque pre-trained scoring object.
type Model interface {
	// Predict returns the raw outcome for one feature row. Classifiers return
	// a class label of any native type; regressors return a number.
	Predict(ctx context.Context, x []float64) (any, error)
}

// ClassModel is implemented by models that expose class labels.
type ClassModel interface {
	Model
	// Classes returns the known class labels in the model's native type.
	Classes() []any
	// PredictProba returns one probability per entry of Classes, in the same
	// order.
	PredictProba(ctx context.Context, x []float64) ([]float64, error)
}

// Kind is the outcome shape of the loaded model.
type Kind string

const (
	KindClassifier Kind = "classifier"
	KindRegressor  Kind = "regressor"
)

// ErrOracleUnavailable is returned by every scoring method when no model was
// loaded.
var ErrOracleUnavailable = errors.New("model not loaded")

// ErrProbabilitiesUnsupported is returned by PredictProbabilities on a
// regressor.
var ErrProbabilitiesUnsupported = errors.New("model does not expose class probabilities")

// ScoringError reports that the model rejected a vector or failed internally.
type ScoringError struct {
	Err error
}

// Error implements the error interface.
func (e *ScoringError) Error() string {
	return "scoring failed: " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ScoringError) Unwrap() error {
	return e.Err
}

// Outcome is a shaped prediction. Label is set for classifiers, Value for
// regressors.
type Outcome struct {
	Kind  Kind
	Label string
	Value float64
}

// Oracle is the read-only, process-wide model adapter. A nil *Oracle is valid
// and reports ErrOracleUnavailable from every scoring method.
type Oracle struct {
	model      Model
	classModel ClassModel
	kind       Kind
	labels     []string
}

// New wraps m and detects its capabilities.
func New(m Model) (*Oracle, error) {
	if m == nil {
		return nil, errors.New("oracle: model must not be nil")
	}

	o := &Oracle{model: m, kind: KindRegressor}
	if cm, ok := m.(ClassModel); ok {
		if classes := cm.Classes(); len(classes) > 0 {
			o.classModel = cm
			o.kind = KindClassifier
			o.labels = make([]string, len(classes))
			seen := make(map[string]struct{}, len(classes))
			for i, c := range classes {
				label := FormatLabel(c)
				if _, dup := seen[label]; dup {
					return nil, fmt.Errorf("oracle: class labels collide as %q", label)
				}
				seen[label] = struct{}{}
				o.labels[i] = label
			}
		}
	}
	return o, nil
}

// Available reports whether a model is loaded.
func (o *Oracle) Available() bool {
	return o != nil && o.model != nil
}

// Kind returns the outcome shape. The zero Kind is returned when no model is
// loaded.
func (o *Oracle) Kind() Kind {
	if !o.Available() {
		return ""
	}
	return o.kind
}

// Classes returns a copy of the class labels rendered as strings.
func (o *Oracle) Classes() []string {
	if !o.Available() || len(o.labels) == 0 {
		return nil
	}
	out := make([]string, len(o.labels))
	copy(out, o.labels)
	return out
}

// SupportsClassProbabilities reports whether PredictProbabilities may be called.
func (o *Oracle) SupportsClassProbabilities() bool {
	return o.Available() && o.classModel != nil
}

// Predict scores v and shapes the raw outcome.
func (o *Oracle) Predict(ctx context.Context, v features.Vector) (Outcome, error) {
	if !o.Available() {
		return Outcome{}, ErrOracleUnavailable
	}

	var raw any
	err := guard(func() error {
		var perr error
		raw, perr = o.model.Predict(ctx, features.Assemble(v))
		return perr
	})
	if err != nil {
		return Outcome{}, err
	}

	if o.kind == KindClassifier {
		return Outcome{Kind: KindClassifier, Label: FormatLabel(raw)}, nil
	}

	value, ok := toFloat(raw)
	if !ok {
		return Outcome{}, &ScoringError{Err: fmt.Errorf("regressor returned non-numeric outcome %T", raw)}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Outcome{}, &ScoringError{Err: fmt.Errorf("regressor returned non-finite outcome %v", value)}
	}
	return Outcome{Kind: KindRegressor, Value: value}, nil
}

// PredictProbabilities returns the class distribution for v keyed by label.
func (o *Oracle) PredictProbabilities(ctx context.Context, v features.Vector) (map[string]float64, error) {
	if !o.Available() {
		return nil, ErrOracleUnavailable
	}
	if o.classModel == nil {
		return nil, ErrProbabilitiesUnsupported
	}

	var probs []float64
	err := guard(func() error {
		var perr error
		probs, perr = o.classModel.PredictProba(ctx, features.Assemble(v))
		return perr
	})
	if err != nil {
		return nil, err
	}
	if len(probs) != len(o.labels) {
		return nil, &ScoringError{Err: fmt.Errorf("got %d probabilities for %d classes", len(probs), len(o.labels))}
	}

	out := make(map[string]float64, len(probs))
	for i, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, &ScoringError{Err: fmt.Errorf("probability %v for class %q out of range", p, o.labels[i])}
		}
		out[o.labels[i]] = p
	}
	return out, nil
}

// guard runs fn and converts both returned errors and panics into
// *ScoringError. Context errors pass through unchanged.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ScoringError{Err: fmt.Errorf("model panicked: %v", r)}
		}
	}()

	if ferr := fn(); ferr != nil {
		if errors.Is(ferr, context.Canceled) || errors.Is(ferr, context.DeadlineExceeded) {
			return ferr
		}
		var se *ScoringError
		if errors.As(ferr, &se) {
			return ferr
		}
		return &ScoringError{Err: ferr}
	}
	return nil
}

// FormatLabel renders a native class label as a string. Whole-number floats
// render without a fractional part, so a label decoded from JSON as 3.0
// becomes "3".
func FormatLabel(label any) string {
	switch l := label.(type) {
	case string:
		return l
	case float64:
		// Beyond 2^53 whole floats are not exact integers and may overflow int64.
		if l == math.Trunc(l) && math.Abs(l) < 1<<53 {
			return fmt.Sprintf("%d", int64(l))
		}
		return fmt.Sprint(l)
	case float32:
		return FormatLabel(float64(l))
	case fmt.Stringer:
		return l.String()
	default:
		return fmt.Sprint(l)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
