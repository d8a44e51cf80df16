// Package prediction orchestrates model scoring for direct predictions and for
// simulated scenario batches.
package prediction

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"weatherpredict/internal/features"
	"weatherpredict/internal/oracle"
	"weatherpredict/internal/scenario"
	"weatherpredict/internal/types"
)

// DefaultConcurrency bounds how many generated scenarios are scored at once.
const DefaultConcurrency = 4

// Service scores feature vectors against the loaded oracle. Shape validation
// of incoming requests belongs to the transport layer.
type Service struct {
	oracle      *oracle.Oracle
	generator   *scenario.Generator
	concurrency int
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConcurrency sets the scoring parallelism for Simulate. Values below 1
// are ignored.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n >= 1 {
			s.concurrency = n
		}
	}
}

// WithGenerator replaces the default scenario generator.
func WithGenerator(g *scenario.Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.generator = g
		}
	}
}

// NewService creates a Service. o may be nil, in which case every scoring call
// fails with a model-unavailable error.
func NewService(o *oracle.Oracle, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		oracle:      o,
		generator:   scenario.NewGenerator(),
		concurrency: DefaultConcurrency,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ModelInfo reports what was loaded at startup.
func (s *Service) ModelInfo() ModelInfo {
	return ModelInfo{
		Loaded:   s.oracle.Available(),
		Kind:     s.oracle.Kind(),
		Classes:  s.oracle.Classes(),
		Features: features.Names(),
	}
}

// Predict scores a single vector.
func (s *Service) Predict(ctx context.Context, v features.Vector) (*Result, error) {
	if !s.oracle.Available() {
		return nil, errModelUnavailable()
	}
	r, err := s.score(ctx, v)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Simulate generates scenarios for the requested season and scores each one.
// Unknown seasons and out-of-range sample counts are corrected silently.
// Availability is checked once, before any sampling.
func (s *Service) Simulate(ctx context.Context, req SimulationRequest) (*Simulation, error) {
	season := scenario.DefaultSeason
	if req.Season != nil {
		season = scenario.ParseSeason(*req.Season)
	}
	n := scenario.DefaultSamples
	if req.Samples != nil {
		n = scenario.ClampSamples(*req.Samples)
	}

	if !s.oracle.Available() {
		return nil, errModelUnavailable()
	}

	vectors := s.generator.Generate(season, n)
	scenarios := make([]Scenario, len(vectors))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, v := range vectors {
		g.Go(func() error {
			r, err := s.score(gCtx, v)
			if err != nil {
				return err
			}
			scenarios[i] = Scenario{Input: v.Rounded(), Result: r}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "simulation scored",
		"season", string(season),
		"samples", n,
	)

	return &Simulation{Season: season, Simulations: scenarios}, nil
}

// score runs v through the oracle at full precision and shapes the outcome.
func (s *Service) score(ctx context.Context, v features.Vector) (Result, error) {
	out, err := s.oracle.Predict(ctx, v)
	if err != nil {
		return Result{}, s.mapError(ctx, err)
	}

	r := Result{Kind: out.Kind, Label: out.Label, Value: out.Value}
	if !s.oracle.SupportsClassProbabilities() {
		return r, nil
	}

	probs, err := s.oracle.PredictProbabilities(ctx, v)
	if err != nil {
		return Result{}, s.mapError(ctx, err)
	}
	r.Probabilities = probs
	if name, ok := features.ConditionName(r.Label); ok {
		r.Condition = name
	}
	return r, nil
}

func (s *Service) mapError(ctx context.Context, err error) error {
	if errors.Is(err, oracle.ErrOracleUnavailable) {
		return errModelUnavailable()
	}

	s.logger.ErrorContext(ctx, "prediction failed",
		"error", err,
		"request_id", types.GetRequestID(ctx),
	)
	return types.NewAppError(
		types.ErrCodeInternalPredictionFailed,
		"Prediction error: "+errorCause(err),
		err,
	)
}

// errorCause strips the oracle wrapper so the message names the real failure.
func errorCause(err error) string {
	var se *oracle.ScoringError
	if errors.As(err, &se) && se.Err != nil {
		return se.Err.Error()
	}
	return err.Error()
}

func errModelUnavailable() *types.AppError {
	return types.NewAppError(types.ErrCodeInternalModelUnavailable, "Model not loaded", oracle.ErrOracleUnavailable)
}
