package oracle

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/klauspost/compress/zstd"

	"weatherpredict/internal/features"
)

// Artifact is the persisted form of a trained linear model.
//
// Classifier:
//
//	{"kind":"classifier","features":[...],"classes":[0,1,2],"coef":[[...],[...],[...]],"intercept":[a,b,c]}
//
// Regressor:
//
//	{"kind":"regressor","features":[...],"coef":[...],"intercept":a}
//
// When features is present it must list the schema names in canonical order.
type Artifact struct {
	Kind      Kind            `json:"kind"`
	Features  []string        `json:"features,omitempty"`
	Classes   []any           `json:"classes,omitempty"`
	Coef      json.RawMessage `json:"coef"`
	Intercept json.RawMessage `json:"intercept"`
}

// zstdSuffix marks a compressed artifact.
const zstdSuffix = ".zst"

// LoadFile reads a model artifact from path. Files ending in ".zst" are
// decompressed with zstd first.
func LoadFile(path string) (Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model artifact: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, zstdSuffix) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	m, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return m, nil
}

// Decode parses an artifact document and builds the model it describes.
func Decode(r io.Reader) (Model, error) {
	var art Artifact
	if err := json.NewDecoder(r).Decode(&art); err != nil {
		return nil, fmt.Errorf("decoding model artifact: %w", err)
	}
	return art.Build()
}

// Build validates the artifact and returns its model.
func (a Artifact) Build() (Model, error) {
	if err := CheckFeatureOrder(a.Features); err != nil {
		return nil, err
	}

	switch a.Kind {
	case KindClassifier:
		m := &LogisticClassifier{Labels: a.Classes}
		if err := json.Unmarshal(a.Coef, &m.Coef); err != nil {
			return nil, fmt.Errorf("classifier coef: %w", err)
		}
		if err := json.Unmarshal(a.Intercept, &m.Intercept); err != nil {
			return nil, fmt.Errorf("classifier intercept: %w", err)
		}
		if err := m.Validate(features.NumFields); err != nil {
			return nil, err
		}
		return m, nil

	case KindRegressor:
		m := &LinearRegressor{}
		if err := json.Unmarshal(a.Coef, &m.Coef); err != nil {
			return nil, fmt.Errorf("regressor coef: %w", err)
		}
		if len(a.Intercept) > 0 {
			if err := json.Unmarshal(a.Intercept, &m.Intercept); err != nil {
				return nil, fmt.Errorf("regressor intercept: %w", err)
			}
		}
		if len(m.Coef) != features.NumFields {
			return nil, fmt.Errorf("regressor has %d coefficients, expected %d", len(m.Coef), features.NumFields)
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unknown model kind %q", a.Kind)
	}
}

// CheckFeatureOrder fails unless names is empty or exactly the canonical
// schema order.
func CheckFeatureOrder(names []string) error {
	if len(names) == 0 {
		return nil
	}
	if want := features.Names(); !slices.Equal(names, want) {
		return fmt.Errorf("model feature order %v does not match schema %v", names, want)
	}
	return nil
}
