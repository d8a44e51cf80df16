// Package scenario fabricates plausible weather feature vectors for a season.
//
// Season-dependent ranges live in profiles; the per-field sampling policy is
// the ordered steps table in generator.go. Both are plain data so they can be
// audited and tested on their own.
package scenario

import (
	"strings"

	"weatherpredict/internal/features"
)

// Season names a climate regime.
type Season string

const (
	Summer Season = "summer"
	Winter Season = "winter"
	Spring Season = "spring"
	Autumn Season = "autumn"
)

// DefaultSeason is used for empty or unrecognized season names.
const DefaultSeason = Summer

// Seasons lists every supported season.
var Seasons = []Season{Summer, Winter, Spring, Autumn}

// Range is a closed interval [Min, Max].
type Range struct {
	Min float64
	Max float64
}

// Profile maps each season-dependent field to its sampling range.
type Profile map[features.Field]Range

// profiles holds the season-dependent ranges. Units: temp/dwpt °C, rhum %,
// prcp/snow mm, wspd km/h.
var profiles = map[Season]Profile{
	Summer: {
		features.Temp: {18, 35},
		features.Dwpt: {10, 24},
		features.Rhum: {40, 90},
		features.Prcp: {0, 30},
		features.Snow: {0, 0},
		features.Wspd: {0, 25},
	},
	Winter: {
		features.Temp: {-15, 8},
		features.Dwpt: {-20, 3},
		features.Rhum: {60, 100},
		features.Prcp: {0, 15},
		features.Snow: {0, 40},
		features.Wspd: {5, 40},
	},
	Spring: {
		features.Temp: {5, 22},
		features.Dwpt: {-2, 14},
		features.Rhum: {45, 90},
		features.Prcp: {0, 25},
		features.Snow: {0, 5},
		features.Wspd: {3, 30},
	},
	Autumn: {
		features.Temp: {2, 20},
		features.Dwpt: {-4, 13},
		features.Rhum: {55, 95},
		features.Prcp: {0, 25},
		features.Snow: {0, 8},
		features.Wspd: {4, 35},
	},
}

// ParseSeason normalizes name. Unknown names fall back to DefaultSeason; this
// is never an error.
func ParseSeason(name string) Season {
	s := Season(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := profiles[s]; ok {
		return s
	}
	return DefaultSeason
}

// ProfileFor returns a copy of the ranges for s, or of DefaultSeason when s is
// unknown.
func ProfileFor(s Season) Profile {
	p, ok := profiles[s]
	if !ok {
		p = profiles[DefaultSeason]
	}
	out := make(Profile, len(p))
	for f, r := range p {
		out[f] = r
	}
	return out
}
