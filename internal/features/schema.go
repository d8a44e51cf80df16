// Package features defines the fixed, ordered feature schema consumed by the
// prediction model.
//
// The order of Schema is the order the model was trained on. Every caller that
// builds a model input (direct prediction and simulation alike) goes through
// Assemble, so the order is defined exactly once.
package features

import (
	"fmt"
	"math"
)

// Field identifies one feature. Its integer value is the field's position in
// the assembled vector.
type Field int

// Canonical feature order. Do not reorder.
const (
	Temp Field = iota
	Dwpt
	Rhum
	Prcp
	Snow
	Wdir
	Wspd
	Wpgt
	Pres
	Hour
	DayOfWeek

	// NumFields is the length of an assembled vector.
	NumFields int = iota
)

// ValueKind distinguishes real-valued features from integer features.
type ValueKind string

const (
	KindReal    ValueKind = "real"
	KindInteger ValueKind = "integer"
)

// FieldSpec describes a single feature in the schema.
type FieldSpec struct {
	Field Field
	Name  string
	Kind  ValueKind
	// Decimals is the number of decimal places used when the value is
	// rendered for display. The model always sees full precision.
	Decimals int
}

// Schema lists every feature in canonical order.
var Schema = [NumFields]FieldSpec{
	{Field: Temp, Name: "temp", Kind: KindReal, Decimals: 1},
	{Field: Dwpt, Name: "dwpt", Kind: KindReal, Decimals: 1},
	{Field: Rhum, Name: "rhum", Kind: KindReal, Decimals: 1},
	{Field: Prcp, Name: "prcp", Kind: KindReal, Decimals: 2},
	{Field: Snow, Name: "snow", Kind: KindReal, Decimals: 2},
	{Field: Wdir, Name: "wdir", Kind: KindReal, Decimals: 1},
	{Field: Wspd, Name: "wspd", Kind: KindReal, Decimals: 1},
	{Field: Wpgt, Name: "wpgt", Kind: KindReal, Decimals: 1},
	{Field: Pres, Name: "pres", Kind: KindReal, Decimals: 1},
	{Field: Hour, Name: "hour", Kind: KindInteger},
	{Field: DayOfWeek, Name: "day_of_week", Kind: KindInteger},
}

// String returns the wire name of the field.
func (f Field) String() string {
	if f < 0 || int(f) >= NumFields {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return Schema[f].Name
}

// Names returns the feature names in canonical order.
func Names() []string {
	names := make([]string, NumFields)
	for i, spec := range Schema {
		names[i] = spec.Name
	}
	return names
}

// Vector is one complete set of feature values. The struct field order
// mirrors Schema but callers must not rely on that; use Assemble.
type Vector struct {
	Temp      float64 `json:"temp"`
	Dwpt      float64 `json:"dwpt"`
	Rhum      float64 `json:"rhum"`
	Prcp      float64 `json:"prcp"`
	Snow      float64 `json:"snow"`
	Wdir      float64 `json:"wdir"`
	Wspd      float64 `json:"wspd"`
	Wpgt      float64 `json:"wpgt"`
	Pres      float64 `json:"pres"`
	Hour      int     `json:"hour"`
	DayOfWeek int     `json:"day_of_week"`
}

// Get returns the value of field f as a float64.
func (v Vector) Get(f Field) float64 {
	switch f {
	case Temp:
		return v.Temp
	case Dwpt:
		return v.Dwpt
	case Rhum:
		return v.Rhum
	case Prcp:
		return v.Prcp
	case Snow:
		return v.Snow
	case Wdir:
		return v.Wdir
	case Wspd:
		return v.Wspd
	case Wpgt:
		return v.Wpgt
	case Pres:
		return v.Pres
	case Hour:
		return float64(v.Hour)
	case DayOfWeek:
		return float64(v.DayOfWeek)
	}
	return math.NaN()
}

// Assemble returns the model input for v in canonical order.
func Assemble(v Vector) []float64 {
	out := make([]float64, NumFields)
	for i := range Schema {
		out[i] = v.Get(Field(i))
	}
	return out
}

// FromValues is the inverse of Assemble. Integer fields are truncated toward
// zero.
func FromValues(values [NumFields]float64) Vector {
	return Vector{
		Temp:      values[Temp],
		Dwpt:      values[Dwpt],
		Rhum:      values[Rhum],
		Prcp:      values[Prcp],
		Snow:      values[Snow],
		Wdir:      values[Wdir],
		Wspd:      values[Wspd],
		Wpgt:      values[Wpgt],
		Pres:      values[Pres],
		Hour:      int(values[Hour]),
		DayOfWeek: int(values[DayOfWeek]),
	}
}

// Rounded returns a copy of v with every real field rounded to its display
// precision. Only used when shaping responses.
func (v Vector) Rounded() Vector {
	var values [NumFields]float64
	for i, spec := range Schema {
		val := v.Get(Field(i))
		if spec.Kind == KindReal {
			val = Round(val, spec.Decimals)
		}
		values[i] = val
	}
	return FromValues(values)
}

// Round rounds x half away from zero to the given number of decimals.
func Round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}
