package oracle

import (
	"context"
	"fmt"
	"math"
)

// LinearRegressor scores y = coef·x + intercept.
type LinearRegressor struct {
	Coef      []float64
	Intercept float64
}

// Predict implements Model.
func (m *LinearRegressor) Predict(_ context.Context, x []float64) (any, error) {
	if len(x) != len(m.Coef) {
		return nil, fmt.Errorf("expected %d features, got %d", len(m.Coef), len(x))
	}
	return dot(m.Coef, x) + m.Intercept, nil
}

// LogisticClassifier is a multinomial logistic regression. With two labels
// and a single coefficient row it behaves as a binary classifier where the row
// scores the second label.
type LogisticClassifier struct {
	Labels    []any
	Coef      [][]float64
	Intercept []float64
}

// Validate checks that the coefficient shapes agree with each other and with
// the expected number of features.
func (m *LogisticClassifier) Validate(numFeatures int) error {
	if len(m.Labels) < 2 {
		return fmt.Errorf("classifier needs at least 2 classes, got %d", len(m.Labels))
	}
	rows := len(m.Labels)
	if m.binary() {
		rows = 1
	}
	if len(m.Coef) != rows {
		return fmt.Errorf("expected %d coefficient rows, got %d", rows, len(m.Coef))
	}
	if len(m.Intercept) != rows {
		return fmt.Errorf("expected %d intercepts, got %d", rows, len(m.Intercept))
	}
	for i, row := range m.Coef {
		if len(row) != numFeatures {
			return fmt.Errorf("coefficient row %d has %d values, expected %d", i, len(row), numFeatures)
		}
	}
	return nil
}

// Classes implements ClassModel.
func (m *LogisticClassifier) Classes() []any {
	return m.Labels
}

// Predict implements Model. It returns the label with the highest probability.
func (m *LogisticClassifier) Predict(ctx context.Context, x []float64) (any, error) {
	probs, err := m.PredictProba(ctx, x)
	if err != nil {
		return nil, err
	}
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return m.Labels[best], nil
}

// PredictProba implements ClassModel.
func (m *LogisticClassifier) PredictProba(_ context.Context, x []float64) ([]float64, error) {
	if len(m.Coef) == 0 || len(x) != len(m.Coef[0]) {
		return nil, fmt.Errorf("expected %d features, got %d", m.numFeatures(), len(x))
	}

	if m.binary() {
		p := sigmoid(dot(m.Coef[0], x) + m.Intercept[0])
		return []float64{1 - p, p}, nil
	}

	scores := make([]float64, len(m.Coef))
	for i, row := range m.Coef {
		scores[i] = dot(row, x) + m.Intercept[i]
	}
	return softmax(scores), nil
}

func (m *LogisticClassifier) binary() bool {
	return len(m.Labels) == 2 && len(m.Coef) == 1
}

func (m *LogisticClassifier) numFeatures() int {
	if len(m.Coef) == 0 {
		return 0
	}
	return len(m.Coef[0])
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// softmax is shifted by the max score so large logits do not overflow.
func softmax(scores []float64) []float64 {
	maxScore := math.Inf(-1)
	for _, s := range scores {
		maxScore = math.Max(maxScore, s)
	}
	var sum float64
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
