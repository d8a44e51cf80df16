package features

// Request is the transport shape of a prediction request. Pointer fields let
// the validator tell a missing value apart from an explicit zero.
type Request struct {
	Temp      *float64 `json:"temp" validate:"required"`
	Dwpt      *float64 `json:"dwpt" validate:"required"`
	Rhum      *float64 `json:"rhum" validate:"required"`
	Prcp      *float64 `json:"prcp" validate:"required"`
	Snow      *float64 `json:"snow" validate:"required"`
	Wdir      *float64 `json:"wdir" validate:"required"`
	Wspd      *float64 `json:"wspd" validate:"required"`
	Wpgt      *float64 `json:"wpgt" validate:"required"`
	Pres      *float64 `json:"pres" validate:"required"`
	Hour      *int     `json:"hour" validate:"required"`
	DayOfWeek *int     `json:"day_of_week" validate:"required"`
}

// Vector converts a validated request into a Vector. Missing fields become
// zero; callers are expected to validate first.
func (r Request) Vector() Vector {
	return Vector{
		Temp:      deref(r.Temp),
		Dwpt:      deref(r.Dwpt),
		Rhum:      deref(r.Rhum),
		Prcp:      deref(r.Prcp),
		Snow:      deref(r.Snow),
		Wdir:      deref(r.Wdir),
		Wspd:      deref(r.Wspd),
		Wpgt:      deref(r.Wpgt),
		Pres:      deref(r.Pres),
		Hour:      deref(r.Hour),
		DayOfWeek: deref(r.DayOfWeek),
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
