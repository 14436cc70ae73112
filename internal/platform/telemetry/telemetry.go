// Package telemetry initializes OpenTelemetry tracing and metrics for the
// single-run process.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const serviceName = "helm-deploy"

// Telemetry holds the tracer and meter plus a shutdown function that
// flushes exporters before the process exits. A single-run CLI lives and
// dies inside one trace, so shutdown must be called on every path.
type Telemetry struct {
	Tracer   trace.Tracer
	Meter    metric.Meter
	Shutdown func(ctx context.Context) error
}

// New creates a Telemetry instance. When enabled is false, noop
// implementations are returned. When enabled, the OTel SDK discovers
// OTEL_EXPORTER_OTLP_ENDPOINT and friends from the environment.
func New(ctx context.Context, enabled bool) (*Telemetry, error) {
	if !enabled {
		return &Telemetry{
			Tracer:   nooptrace.NewTracerProvider().Tracer(serviceName),
			Meter:    noopmetric.NewMeterProvider().Meter(serviceName),
			Shutdown: func(context.Context) error { return nil },
		}, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, err
	}

	tp, err := traceProvider(ctx, res)
	if err != nil {
		return nil, err
	}
	mp, err := meterProvider(ctx, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	// Global registration so otelhttp picks the providers up for outbound
	// GitHub API spans.
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return &Telemetry{
		Tracer: tp.Tracer(serviceName),
		Meter:  mp.Meter(serviceName),
		Shutdown: func(ctx context.Context) error {
			mErr := mp.Shutdown(ctx)
			tErr := tp.Shutdown(ctx)
			if mErr != nil {
				return mErr
			}
			return tErr
		},
	}, nil
}

func traceProvider(ctx context.Context, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exp, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	), nil
}

func meterProvider(ctx context.Context, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	exp, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(10*time.Second))),
		sdkmetric.WithResource(res),
	), nil
}
