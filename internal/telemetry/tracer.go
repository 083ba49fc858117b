package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation scope for spans emitted by the scraper
const TracerName = "github.com/stacklok/layermap-scraper"

// TracerProviderOption adjusts how NewTracerProvider exports spans
type TracerProviderOption func(*tracerProviderConfig)

type tracerProviderConfig struct {
	exporter sdktrace.SpanExporter
}

// WithSpanExporter replaces the OTLP exporter derived from the configuration
func WithSpanExporter(exp sdktrace.SpanExporter) TracerProviderOption {
	return func(cfg *tracerProviderConfig) {
		cfg.exporter = exp
	}
}

// tracingEnabled reports whether cfg asks for spans to be exported
func tracingEnabled(cfg *Config) bool {
	return cfg != nil && cfg.Enabled && cfg.Tracing != nil && cfg.Tracing.Enabled
}

// NewTracerProvider builds the tracer provider described by cfg, or a no-op
// provider when tracing is off. It does not touch the otel globals; see
// installGlobalTracing. The caller shuts the returned provider down.
//
// Sampling is parent based: a poll cycle started under a sampled span is
// always kept, root spans are sampled at the configured ratio.
func NewTracerProvider(ctx context.Context, cfg *Config, opts ...TracerProviderOption) (trace.TracerProvider, error) {
	if !tracingEnabled(cfg) {
		slog.Debug("Tracing disabled, using no-op tracer provider")
		return noop.NewTracerProvider(), nil
	}

	tpCfg := &tracerProviderConfig{}
	for _, opt := range opts {
		opt(tpCfg)
	}

	res, err := newResource(ctx, cfg.GetServiceName(), cfg.GetServiceVersion())
	if err != nil {
		return nil, err
	}

	exporter := tpCfg.exporter
	if exporter == nil {
		exporter, err = newOTLPSpanExporter(ctx, cfg.GetEndpoint(), cfg.GetInsecure())
		if err != nil {
			return nil, err
		}
		if cfg.GetInsecure() {
			slog.Warn("Traces are exported over plain HTTP", "endpoint", cfg.GetEndpoint())
		}
	}

	sampling := cfg.Tracing.GetSampling()
	slog.Info("Tracing initialized", "endpoint", cfg.GetEndpoint(), "sampling_ratio", sampling)

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampling))),
	), nil
}

// installGlobalTracing makes tp the global provider and enables W3C trace
// context on outbound pageserver requests.
func installGlobalTracing(tp trace.TracerProvider) {
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

func newOTLPSpanExporter(ctx context.Context, endpoint string, insecure bool) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exporter, nil
}
