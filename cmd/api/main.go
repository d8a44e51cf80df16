// Package main is the entry point for the weather prediction API.
//
// It loads configuration, wires the service through internal/app and serves
// requests. Inside AWS Lambda the router is driven by API Gateway proxy
// events; everywhere else it listens on PORT and shuts down gracefully on
// SIGINT or SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"

	"weatherpredict/internal/app"
	"weatherpredict/internal/config"
	"weatherpredict/internal/core"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := app.NewLogger(cfg.LogLevel)
	logger.Info("weather prediction API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if app.IsLambdaEnvironment() {
		logger.Info("running in Lambda mode")
		if a.Metrics != nil {
			go a.Metrics.Run(ctx, 0)
		}
		lambda.Start(core.NewLambdaProxyHandler(a.Server.Handler()).Handle)
		return nil
	}

	return a.ListenAndServe(ctx)
}
