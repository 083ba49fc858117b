package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/layermap-scraper/internal/versions"
)

func TestConfig_Getters(t *testing.T) {
	t.Parallel()

	t.Run("defaults when empty", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{}
		assert.Equal(t, DefaultServiceName, cfg.GetServiceName())
		assert.Equal(t, versions.GetVersionInfo().Version, cfg.GetServiceVersion())
		assert.Equal(t, DefaultEndpoint, cfg.GetEndpoint())
		assert.False(t, cfg.GetInsecure())
	})

	t.Run("configured values win", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{
			ServiceName:    "scraper-eu",
			ServiceVersion: "1.2.3",
			Endpoint:       "otel-collector:4318",
			Insecure:       true,
		}
		assert.Equal(t, "scraper-eu", cfg.GetServiceName())
		assert.Equal(t, "1.2.3", cfg.GetServiceVersion())
		assert.Equal(t, "otel-collector:4318", cfg.GetEndpoint())
		assert.True(t, cfg.GetInsecure())
	})
}

func TestTracingConfig_GetSampling(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, DefaultSampling, (&TracingConfig{}).GetSampling(), 0.0001)
	assert.InDelta(t, 0.5, (&TracingConfig{Sampling: 0.5}).GetSampling(), 0.0001)
	assert.InDelta(t, 1.0, (&TracingConfig{Sampling: 1.0}).GetSampling(), 0.0001)
}

func TestMetricsConfig_GetExporter(t *testing.T) {
	t.Parallel()

	var nilCfg *MetricsConfig
	assert.Equal(t, MetricsExporterOTLP, nilCfg.GetExporter())
	assert.Equal(t, MetricsExporterOTLP, (&MetricsConfig{}).GetExporter())
	assert.Equal(t, MetricsExporterPrometheus, (&MetricsConfig{Exporter: "prometheus"}).GetExporter())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{
			name:   "nil config is valid",
			config: nil,
		},
		{
			name:   "disabled config is valid even with bad children",
			config: &Config{Tracing: &TracingConfig{Enabled: true, Sampling: 5}},
		},
		{
			name:   "enabled config with no tracing or metrics is valid",
			config: &Config{Enabled: true},
		},
		{
			name: "valid full config",
			config: &Config{
				Enabled:  true,
				Endpoint: "localhost:4318",
				Tracing:  &TracingConfig{Enabled: true, Sampling: 0.25},
				Metrics:  &MetricsConfig{Enabled: true, Exporter: MetricsExporterPrometheus},
			},
		},
		{
			name: "disabled tracing is not validated",
			config: &Config{
				Enabled: true,
				Tracing: &TracingConfig{Enabled: false, Sampling: 2},
			},
		},
		{
			name: "sampling above 1.0",
			config: &Config{
				Enabled: true,
				Tracing: &TracingConfig{Enabled: true, Sampling: 1.5},
			},
			wantErr: "tracing: sampling must be between 0.0 and 1.0",
		},
		{
			name: "negative sampling",
			config: &Config{
				Enabled: true,
				Tracing: &TracingConfig{Enabled: true, Sampling: -0.1},
			},
			wantErr: "tracing: sampling must be between 0.0 and 1.0",
		},
		{
			name: "unknown metrics exporter",
			config: &Config{
				Enabled: true,
				Metrics: &MetricsConfig{Enabled: true, Exporter: "statsd"},
			},
			wantErr: `metrics: exporter must be "otlp" or "prometheus"`,
		},
		{
			name: "errors from both sections are joined",
			config: &Config{
				Enabled: true,
				Tracing: &TracingConfig{Enabled: true, Sampling: 3},
				Metrics: &MetricsConfig{Enabled: true, Exporter: "statsd"},
			},
			wantErr: "metrics:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.config.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
