// Package config defines the process configuration for the weather prediction
// service. Configuration is loaded once at startup and is immutable
// thereafter.
//
// Values are resolved with OS environment variables taking priority over a
// .env file in the working directory. Invalid values fail startup; a missing
// or broken model does not (see the oracle package).
package config

import "time"

// Config is the top-level configuration struct.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"OTEL_SERVICE_NAME" default:"weather-prediction-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Model         ModelConfig
	Simulation    SimulationConfig
	Security      SecurityConfig
	AWS           AWSConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"8000" validate:"required,numeric"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s" validate:"gt=0"`
}

// ModelConfig says where the pre-trained model is loaded from. URL takes
// precedence over Path when both are set.
type ModelConfig struct {
	Path       string        `envconfig:"MODEL_PATH" default:"model.json"`
	URL        string        `envconfig:"MODEL_URL" validate:"omitempty,url"`
	Timeout    time.Duration `envconfig:"MODEL_TIMEOUT" default:"5s" validate:"gt=0"`
	MaxRetries int           `envconfig:"MODEL_MAX_RETRIES" default:"2" validate:"min=0,max=10"`
}

// SimulationConfig tunes the simulation endpoint.
type SimulationConfig struct {
	Concurrency int `envconfig:"SIMULATION_CONCURRENCY" default:"4" validate:"min=1,max=64"`
}

// SecurityConfig holds CORS settings.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// AWSConfig holds regional configuration for the metrics backend.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL" validate:"omitempty,url"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricsEnabled  bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"WeatherPrediction"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
