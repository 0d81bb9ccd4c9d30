package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
run:
  samplesPerChunk: 1000
execution:
  threadCount: 4
sampler:
  kind: constant
  value: 5
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Run.SamplesPerChunk)
	assert.Equal(t, 1, cfg.Run.PrintEvery)
	assert.Equal(t, uint64(0), cfg.Run.TotalSampleBudget)
	assert.NotEmpty(t, cfg.Run.ID, "single-process runs get a generated id")
	assert.Equal(t, 1, cfg.Execution.ProcessCount)
	assert.Equal(t, 0, cfg.Execution.ProcessRank)
	assert.True(t, cfg.Execution.Coordinator())
	assert.Equal(t, 4, cfg.Execution.ThreadCount)
	assert.Equal(t, 0.0, cfg.Histogram.Min)
	assert.Equal(t, 1000.0, cfg.Histogram.Sup)
	assert.Equal(t, 1000, cfg.Histogram.Bins)
	assert.Equal(t, TransportLocal, cfg.Transport.Kind)
	assert.Equal(t, ReportText, cfg.Report.Format)
	assert.Equal(t, 10_000, cfg.Outliers.Limit())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, uint64(1000), cfg.SamplesPerIteration())
}

func TestLoad_FullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
run:
  id: nightly
  samplesPerChunk: 2000
  totalSampleBudget: 1000000
  printEvery: 10
  seed: 7
execution:
  processCount: 3
  processRank: 2
  threadCount: 2
sampler:
  kind: mixture
  weights: [0.3, 0.7]
  components:
    - kind: beta
      alpha: 2
      beta: 20
    - kind: to
      low: 1
      high: 7
histogram:
  min: 0
  sup: 10
  binWidth: 0.5
outliers:
  enabled: false
transport:
  kind: kafka
  kafka:
    brokers: ["localhost:9092"]
report:
  format: json
alerts:
  meanMax: 4.5
`))
	require.NoError(t, err)

	assert.Equal(t, "nightly", cfg.Run.ID)
	assert.Equal(t, uint64(7), cfg.Run.Seed)
	assert.Equal(t, 3, cfg.Execution.ProcessCount)
	assert.False(t, cfg.Execution.Coordinator())
	assert.Equal(t, uint64(6000), cfg.SamplesPerIteration())
	require.Len(t, cfg.Sampler.Components, 2)
	assert.Equal(t, "beta", cfg.Sampler.Components[0].Kind)
	assert.Equal(t, 20.0, cfg.Sampler.Components[0].Beta)
	assert.Equal(t, []float64{0.3, 0.7}, cfg.Sampler.Weights)
	assert.Equal(t, 0.5, cfg.Histogram.BinWidth)
	assert.Equal(t, 0, cfg.Histogram.Bins, "bins are derived later from the width")
	assert.Equal(t, -1, cfg.Outliers.Limit())
	assert.Equal(t, "samplestream-partials", cfg.Transport.Kafka.PartialsTopic)
	require.NotNil(t, cfg.Alerts.MeanMax)
	assert.Equal(t, 4.5, *cfg.Alerts.MeanMax)
	assert.Nil(t, cfg.Alerts.MeanMin)
}

func TestLoad_ExecutionContextFromEnv(t *testing.T) {
	t.Setenv("SAMPLESTREAM_EXECUTION_PROCESSCOUNT", "4")
	t.Setenv("SAMPLESTREAM_EXECUTION_PROCESSRANK", "1")
	t.Setenv("SAMPLESTREAM_RUN_ID", "env-run")
	t.Setenv("SAMPLESTREAM_TRANSPORT_KIND", "kafka")
	t.Setenv("SAMPLESTREAM_TRANSPORT_KAFKA_BROKERS", "broker:9092")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Execution.ProcessCount)
	assert.Equal(t, 1, cfg.Execution.ProcessRank)
	assert.Equal(t, "env-run", cfg.Run.ID)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
	}{
		{"rank out of range", "run:\n  samplesPerChunk: 10\nexecution:\n  processRank: 1\n  threadCount: 1\nsampler:\n  kind: constant\n", ErrInvalidProcessRank},
		{"no sampler", "run:\n  samplesPerChunk: 10\nexecution:\n  threadCount: 1\n", ErrMissingSampler},
		{"chunk smaller than thread count", "run:\n  samplesPerChunk: 2\nexecution:\n  threadCount: 4\nsampler:\n  kind: constant\n", ErrInvalidSamplesPerChunk},
		{"inconsistent histogram", minimalConfig + "histogram:\n  min: 0\n  sup: 10\n  binWidth: 1\n  bins: 3\n", ErrInvalidHistogram},
		{"local transport with peers", "run:\n  id: x\n  samplesPerChunk: 10\nexecution:\n  processCount: 2\n  threadCount: 1\nsampler:\n  kind: constant\n", ErrLocalTransportMultiProcess},
		{"kafka without brokers", minimalConfig + "transport:\n  kind: kafka\n", ErrEmptyKafkaBrokers},
		{"multi-process without run id", "run:\n  samplesPerChunk: 10\nexecution:\n  processCount: 2\n  threadCount: 1\nsampler:\n  kind: constant\ntransport:\n  kind: kafka\n  kafka:\n    brokers: [b]\n", ErrMissingRunID},
		{"bad report format", minimalConfig + "report:\n  format: xml\n", ErrUnknownReportFormat},
		{"unknown transport", minimalConfig + "transport:\n  kind: mpi\n", ErrUnknownTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
