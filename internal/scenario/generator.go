package scenario

import (
	"math/rand/v2"

	"weatherpredict/internal/features"
)

// Sample count bounds for a simulation request.
const (
	DefaultSamples = 5
	MinSamples     = 1
	MaxSamples     = 50
)

// ClampSamples returns n when it lies in [MinSamples, MaxSamples] and
// DefaultSamples otherwise.
func ClampSamples(n int) int {
	if n < MinSamples || n > MaxSamples {
		return DefaultSamples
	}
	return n
}

// Fixed, season-independent ranges.
var (
	windDirRange  = Range{0, 360}
	pressureRange = Range{990, 1030}
	gustExtra     = Range{0, 10}
)

// draw holds the state of one sample while its steps run.
type draw struct {
	rng     *rand.Rand
	profile Profile
	values  [features.NumFields]float64
}

func (d *draw) uniform(r Range) float64 {
	return r.Min + d.rng.Float64()*(r.Max-r.Min)
}

// step produces the value of one field. Steps run in table order, so a step
// may read any field set by an earlier step.
type step struct {
	field  features.Field
	sample func(d *draw) float64
}

// steps is the sampling policy. Order matters: dwpt depends on temp and wpgt
// depends on wspd.
var steps = []step{
	{features.Temp, seasonal(features.Temp)},
	{features.Dwpt, cappedBy(features.Dwpt, features.Temp)},
	{features.Rhum, seasonal(features.Rhum)},
	{features.Prcp, skewed(features.Prcp, 0.7, 0.3)},
	{features.Snow, skewed(features.Snow, 0.8, 0.2)},
	{features.Wdir, fixed(windDirRange)},
	{features.Wspd, seasonal(features.Wspd)},
	{features.Wpgt, offsetFrom(features.Wspd, gustExtra)},
	{features.Pres, fixed(pressureRange)},
	{features.Hour, integer(0, 23)},
	{features.DayOfWeek, integer(0, 6)},
}

// seasonal draws uniformly from the season's range for f.
func seasonal(f features.Field) func(*draw) float64 {
	return func(d *draw) float64 {
		return d.uniform(d.profile[f])
	}
}

// cappedBy draws from [seasonMin(f), min(seasonMax(f), value(limit))]. When the
// season minimum already exceeds the limit the range is empty and the limit
// itself is used.
func cappedBy(f, limit features.Field) func(*draw) float64 {
	return func(d *draw) float64 {
		r := d.profile[f]
		upper := min(r.Max, d.values[limit])
		if r.Min > upper {
			return d.values[limit]
		}
		return d.uniform(Range{r.Min, upper})
	}
}

// skewed draws from the season's range, then with probability p scales the
// result by factor.
func skewed(f features.Field, p, factor float64) func(*draw) float64 {
	return func(d *draw) float64 {
		v := d.uniform(d.profile[f])
		if d.rng.Float64() < p {
			v *= factor
		}
		return v
	}
}

func fixed(r Range) func(*draw) float64 {
	return func(d *draw) float64 {
		return d.uniform(r)
	}
}

// offsetFrom returns value(base) plus a uniform draw from extra.
func offsetFrom(base features.Field, extra Range) func(*draw) float64 {
	return func(d *draw) float64 {
		return d.values[base] + d.uniform(extra)
	}
}

// integer draws uniformly from the integers in [lo, hi].
func integer(lo, hi int) func(*draw) float64 {
	return func(d *draw) float64 {
		return float64(lo + d.rng.IntN(hi-lo+1))
	}
}

// Generator produces synthetic scenarios. It holds no random state itself;
// every Generate call builds its own source, so a Generator is safe for
// concurrent use.
type Generator struct {
	newSource func() rand.Source
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes every Generate call start from the same PCG seed. Intended
// for tests and reproducible offline runs.
func WithSeed(seed1, seed2 uint64) Option {
	return func(g *Generator) {
		g.newSource = func() rand.Source { return rand.NewPCG(seed1, seed2) }
	}
}

// NewGenerator returns a Generator seeded from the runtime's random source.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		newSource: func() rand.Source { return rand.NewPCG(rand.Uint64(), rand.Uint64()) },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns n vectors sampled for season. Values are full precision.
// Callers normalize season and n first (see ParseSeason and ClampSamples);
// n <= 0 yields no vectors.
func (g *Generator) Generate(season Season, n int) []features.Vector {
	if n <= 0 {
		return nil
	}

	rng := rand.New(g.newSource())
	profile := ProfileFor(season)

	out := make([]features.Vector, n)
	for i := range out {
		d := draw{rng: rng, profile: profile}
		for _, s := range steps {
			d.values[s.field] = s.sample(&d)
		}
		out[i] = features.FromValues(d.values)
	}
	return out
}
