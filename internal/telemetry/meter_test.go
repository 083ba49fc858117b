package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestNewMeterProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		opts       []MeterProviderOption
		expectNoOp bool
	}{
		{
			name:       "returns no-op provider when no config provided",
			opts:       []MeterProviderOption{},
			expectNoOp: true,
		},
		{
			name: "returns no-op provider when metrics disabled",
			opts: []MeterProviderOption{
				WithMetricsConfig(&MetricsConfig{
					Enabled: false,
				}),
			},
			expectNoOp: true,
		},
		{
			name: "returns SDK provider with prometheus exporter",
			opts: []MeterProviderOption{
				WithMetricsConfig(&MetricsConfig{
					Enabled:  true,
					Exporter: MetricsExporterPrometheus,
				}),
				WithPrometheusRegisterer(prometheus.NewRegistry()),
			},
			expectNoOp: false,
		},
		{
			name: "returns SDK provider when metrics enabled",
			opts: []MeterProviderOption{
				WithMetricsConfig(&MetricsConfig{
					Enabled: true,
				}),
				WithMeterInsecure(true),
			},
			expectNoOp: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			mp, err := NewMeterProvider(ctx, tt.opts...)

			require.NoError(t, err)
			require.NotNil(t, mp)

			if tt.expectNoOp {
				_, ok := mp.(noop.MeterProvider)
				assert.True(t, ok, "expected no-op meter provider")
			} else {
				sdkMP, ok := mp.(*sdkmetric.MeterProvider)
				assert.True(t, ok, "expected SDK meter provider")

				// No collector is running, so the OTLP flush on shutdown may fail
				if sdkMP != nil {
					_ = sdkMP.Shutdown(ctx)
				}
			}
		})
	}
}

func TestNewMeterProvider_PrometheusRequiresRegisterer(t *testing.T) {
	t.Parallel()

	_, err := NewMeterProvider(context.Background(),
		WithMetricsConfig(&MetricsConfig{Enabled: true, Exporter: MetricsExporterPrometheus}),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a registerer")
}

func TestNewMeterProvider_PrometheusGathersScrapeMetrics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	mp, err := NewMeterProvider(ctx,
		WithMetricsConfig(&MetricsConfig{Enabled: true, Exporter: MetricsExporterPrometheus}),
		WithPrometheusRegisterer(reg),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.(*sdkmetric.MeterProvider).Shutdown(ctx) })

	metrics, err := NewScrapeMetrics(mp)
	require.NoError(t, err)
	metrics.RecordResolutionFailure(ctx)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "layermap_scraper_resolution_failures_total")
}

func TestMeterProviderOptions(t *testing.T) {
	t.Parallel()

	t.Run("WithMeterServiceName sets service name", func(t *testing.T) {
		t.Parallel()
		cfg := &meterProviderConfig{}
		WithMeterServiceName("my-service")(cfg)
		assert.Equal(t, "my-service", cfg.serviceName)
	})

	t.Run("WithMeterServiceVersion sets service version", func(t *testing.T) {
		t.Parallel()
		cfg := &meterProviderConfig{}
		WithMeterServiceVersion("2.0.0")(cfg)
		assert.Equal(t, "2.0.0", cfg.serviceVersion)
	})

	t.Run("WithMetricsConfig sets metrics config", func(t *testing.T) {
		t.Parallel()
		metricsCfg := &MetricsConfig{Enabled: true}
		cfg := &meterProviderConfig{}
		WithMetricsConfig(metricsCfg)(cfg)
		assert.Equal(t, metricsCfg, cfg.metricsConfig)
	})

	t.Run("WithMeterEndpoint sets endpoint", func(t *testing.T) {
		t.Parallel()
		cfg := &meterProviderConfig{}
		WithMeterEndpoint("collector.example.com:4318")(cfg)
		assert.Equal(t, "collector.example.com:4318", cfg.endpoint)
	})

	t.Run("WithMeterInsecure sets insecure flag", func(t *testing.T) {
		t.Parallel()
		cfg := &meterProviderConfig{}
		WithMeterInsecure(true)(cfg)
		assert.True(t, cfg.insecure)
	})

	t.Run("WithPrometheusRegisterer sets registerer", func(t *testing.T) {
		t.Parallel()
		reg := prometheus.NewRegistry()
		cfg := &meterProviderConfig{}
		WithPrometheusRegisterer(reg)(cfg)
		assert.Same(t, reg, cfg.registerer)
	})
}
