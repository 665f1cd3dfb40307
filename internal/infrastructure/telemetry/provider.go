// Package telemetry configura los proveedores OpenTelemetry (trazas y métricas) exportados por OTLP/HTTP.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"

	"github.com/khoaugment/pos-api/pkg/config"
)

// Providers agrupa los proveedores SDK para poder cerrarlos al apagar.
// Con telemetría deshabilitada ambos son nil y se usan los no-op globales.
type Providers struct {
	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
	logger zerolog.Logger
}

// Setup instala los proveedores globales si cfg.Enabled.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger zerolog.Logger) (*Providers, error) {
	p := &Providers{logger: logger}
	if !cfg.Enabled {
		logger.Info().Msg("telemetría deshabilitada, proveedores no-op")
		return p, nil
	}

	res := resource.NewSchemaless(semconv.ServiceName(cfg.ServiceName))

	traceOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	metricOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
		metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
	}

	traceExp, err := otlptracehttp.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: exportador de trazas: %w", err)
	}
	metricExp, err := otlpmetrichttp.New(ctx, metricOpts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: exportador de métricas: %w", err)
	}

	p.tracer = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	p.meter = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(30*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetTracerProvider(p.tracer)
	otel.SetMeterProvider(p.meter)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info().Str("endpoint", cfg.Endpoint).Str("service", cfg.ServiceName).Msg("OpenTelemetry inicializado")
	return p, nil
}

// Enabled indica si hay proveedores SDK activos.
func (p *Providers) Enabled() bool { return p != nil && p.tracer != nil }

// Shutdown vacía y cierra los exportadores.
func (p *Providers) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	err := errors.Join(p.tracer.Shutdown(ctx), p.meter.Shutdown(ctx))
	if err != nil {
		p.logger.Error().Err(err).Msg("error al cerrar telemetría")
	}
	return err
}
