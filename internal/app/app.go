// Package app assembles the weather prediction service from configuration:
// logger, oracle, prediction service, HTTP server and optional CloudWatch
// metrics. Both the API binary and the weatherctl CLI start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"weatherpredict/internal/api/handlers"
	"weatherpredict/internal/config"
	"weatherpredict/internal/core"
	"weatherpredict/internal/metrics"
	"weatherpredict/internal/oracle"
	"weatherpredict/internal/prediction"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// App is a fully wired service.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Oracle  *oracle.Oracle
	Service *prediction.Service
	Server  *core.Server

	// Metrics is nil unless METRICS_ENABLED is set.
	Metrics *metrics.CloudWatchCollector
}

var _ core.MetricsCollector = (*metrics.CloudWatchCollector)(nil)

// NewLogger creates a JSON slog.Logger on stdout for the given level name.
func NewLogger(level string) *slog.Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo is NewLogger writing to w.
func NewLoggerTo(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// LoadOracle opens the configured model. A failure is logged and yields a
// nil oracle; the service then starts degraded and model-dependent endpoints
// answer 500.
func LoadOracle(ctx context.Context, cfg *config.Config, logger *slog.Logger) *oracle.Oracle {
	src := oracle.Source{
		Path:       cfg.Model.Path,
		URL:        cfg.Model.URL,
		Timeout:    cfg.Model.Timeout,
		MaxRetries: cfg.Model.MaxRetries,
		UserAgent:  fmt.Sprintf("%s/%s", cfg.Service, cfg.Build.Version),
	}

	o, err := oracle.Open(ctx, src)
	if err != nil {
		logger.Error("model load failed; prediction endpoints will return errors",
			"error", err,
			"model_path", src.Path,
			"model_url", src.URL,
		)
		return nil
	}

	logger.Info("model loaded",
		"kind", string(o.Kind()),
		"classes", len(o.Classes()),
	)
	return o
}

// New wires every component. Only invalid wiring is an error; a missing model
// is not.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	o := LoadOracle(ctx, cfg, logger)
	svc := prediction.NewService(o, logger, prediction.WithConcurrency(cfg.Simulation.Concurrency))

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, Oracle: o, Service: svc, Server: srv}

	if cfg.Observability.MetricsEnabled {
		client, err := newCloudWatchClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("creating cloudwatch client: %w", err)
		}
		a.Metrics = metrics.NewCloudWatchCollector(client, cfg.Observability.MetricNamespace, logger)
		srv.Metrics = a.Metrics
	}

	srv.HealthProbes = append(srv.HealthProbes, core.ProbeFunc{
		ProbeName: "model",
		Fn: func(context.Context) error {
			if !o.Available() {
				return oracle.ErrOracleUnavailable
			}
			return nil
		},
	})

	h := handlers.NewPredictionHandler(svc, srv.Validator, logger)
	srv.RouteRegistrars = append(srv.RouteRegistrars, h.RegisterRoutes)
	srv.MountRoutes()

	return a, nil
}

func newCloudWatchClient(ctx context.Context, cfg *config.Config) (*cloudwatch.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	}), nil
}

// IsLambdaEnvironment reports whether the process runs inside AWS Lambda.
func IsLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	_, hasServerPort := os.LookupEnv("_LAMBDA_SERVER_PORT")
	return hasRuntimeAPI || hasServerPort
}

// ListenAndServe serves HTTP on the configured port until ctx is cancelled,
// then shuts down gracefully and drains metrics.
func (a *App) ListenAndServe(ctx context.Context) error {
	addr := ":" + a.Config.Server.Port
	timeout := a.Config.Server.RequestTimeout

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           a.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	metricsCtx, stopMetrics := context.WithCancel(context.WithoutCancel(ctx))
	defer stopMetrics()
	if a.Metrics != nil {
		go a.Metrics.Run(metricsCtx, metrics.DefaultFlushInterval)
	}

	serverErr := make(chan error, 1)
	go func() {
		a.Logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("HTTP server shutdown error", "error", err)
	}
	stopMetrics()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	a.Logger.Info("server stopped cleanly")
	return nil
}
