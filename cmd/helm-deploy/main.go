package main

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/nathantilsley/helm-deploy/internal/platform/config"
	"github.com/nathantilsley/helm-deploy/internal/platform/logger"
	"github.com/nathantilsley/helm-deploy/internal/platform/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.LogLevel)
	ctx := context.Background()

	tel, err := telemetry.New(ctx, cfg.OTelEnabled)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() { _ = tel.Shutdown(context.Background()) }()

	container, err := NewContainer(cfg, log)
	if err != nil {
		return fmt.Errorf("building container: %w", err)
	}

	runs, err := tel.Meter.Int64Counter("helm_deploy.runs")
	if err != nil {
		return fmt.Errorf("creating run counter: %w", err)
	}

	ctx, span := tel.Tracer.Start(ctx, "deploy")
	defer span.End()

	if err := container.Deployer.Execute(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failure")))
		return err
	}

	runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "success")))
	return nil
}
