package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sanspareilsmyn/samplestream/internal/config"
	"github.com/sanspareilsmyn/samplestream/internal/stats"
)

// memoryHub connects the gatherers of processes running in one test binary.
type memoryHub struct {
	n        int
	partials chan memoryPartial
	release  []chan int
}

type memoryPartial struct {
	iteration, rank int
	agg             *stats.Aggregate
}

func newMemoryHub(n int) *memoryHub {
	h := &memoryHub{n: n, partials: make(chan memoryPartial, n), release: make([]chan int, n)}
	for i := range h.release {
		h.release[i] = make(chan int, 1)
	}
	return h
}

type memoryGatherer struct {
	hub  *memoryHub
	rank int
}

func (g memoryGatherer) Gather(ctx context.Context, iteration int, local *stats.Aggregate) ([]*stats.Aggregate, error) {
	h := g.hub
	if g.rank != 0 {
		select {
		case h.partials <- memoryPartial{iteration: iteration, rank: g.rank, agg: local}:
		case <-ctx.Done():
			return nil, context.Canceled
		}
		select {
		case <-h.release[g.rank]:
			return nil, nil
		case <-ctx.Done():
			return nil, context.Canceled
		}
	}

	parts := make([]*stats.Aggregate, h.n)
	parts[0] = local
	for range h.n - 1 {
		select {
		case p := <-h.partials:
			if p.iteration != iteration {
				panic("partial of another iteration")
			}
			parts[p.rank] = p.agg
		case <-ctx.Done():
			return nil, context.Canceled
		}
	}
	for r := 1; r < h.n; r++ {
		h.release[r] <- iteration
	}
	return parts, nil
}

func (memoryGatherer) Close() error { return nil }

func testConfig(processCount, rank int) *config.Config {
	transport := config.TransportLocal
	if processCount > 1 {
		transport = config.TransportKafka
	}
	return &config.Config{
		Run: config.RunConfig{
			ID:                "pipeline-test",
			SamplesPerChunk:   10,
			TotalSampleBudget: 90,
			PrintEvery:        2,
			Seed:              7,
		},
		Execution: config.ExecutionConfig{ProcessCount: processCount, ProcessRank: rank, ThreadCount: 2},
		Sampler:   config.SamplerConfig{Kind: "constant", Value: 5},
		Histogram: testHistogram,
		Outliers:  config.OutlierConfig{Enabled: true, PrintLimit: 10},
		Transport: config.TransportConfig{Kind: transport},
		Report:    config.ReportConfig{Format: config.ReportText},
	}
}

func TestPipeline_SingleProcess(t *testing.T) {
	var out bytes.Buffer
	p, err := New(testConfig(1, 0), zaptest.NewLogger(t), WithOutput(&out))
	require.NoError(t, err)

	require.NoError(t, p.Run(context.Background()))

	// 90 samples in chunks of 10: nine iterations, reported every second one
	// and on the last.
	text := out.String()
	assert.Equal(t, 5, strings.Count(text, "Iter "))
	assert.Contains(t, text, "Iter 8:")
	assert.Contains(t, text, "Iter 9:")
	assert.NotContains(t, text, "Iter 1:")

	assert.EqualValues(t, 90, p.global.Stats.N)
	assert.Equal(t, 5.0, p.global.Stats.Mean)
	assert.Equal(t, 0.0, p.global.Stats.Variance)
	assert.True(t, p.global.Conserved())
}

func TestPipeline_MultiProcess(t *testing.T) {
	const n = 3
	hub := newMemoryHub(n)
	var out bytes.Buffer

	pipelines := make([]*Pipeline, n)
	for rank := range n {
		var err error
		pipelines[rank], err = New(testConfig(n, rank), zaptest.NewLogger(t),
			WithGatherer(memoryGatherer{hub: hub, rank: rank}), WithOutput(&out))
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for rank, p := range pipelines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[rank] = p.Run(context.Background())
		}()
	}
	wg.Wait()

	for rank, err := range errs {
		require.NoError(t, err, "rank %d", rank)
	}

	// Each iteration draws 30 samples: the budget of 90 takes three.
	global := pipelines[0].global
	assert.EqualValues(t, 90, global.Stats.N)
	assert.Equal(t, 5.0, global.Stats.Mean)
	assert.Equal(t, 0.0, global.Stats.Variance)
	assert.Equal(t, 5.0, global.Stats.Min)
	assert.Equal(t, 5.0, global.Stats.Max)
	assert.EqualValues(t, 90, global.Histogram.Counts()[5])

	assert.Nil(t, pipelines[1].global, "only the coordinator aggregates")
	assert.Equal(t, 2, strings.Count(out.String(), "Iter "), "iterations 2 and 3")
}

func TestPipeline_ReportFile(t *testing.T) {
	cfg := testConfig(1, 0)
	cfg.Sampler = config.SamplerConfig{Kind: "uniform", From: -5, To: 15}
	cfg.Report = config.ReportConfig{Format: config.ReportJSON, Path: filepath.Join(t.TempDir(), "report.json")}

	var out bytes.Buffer
	p, err := New(cfg, zaptest.NewLogger(t), WithOutput(&out))
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background()))

	data, err := os.ReadFile(cfg.Report.Path)
	require.NoError(t, err)
	var rep map[string]any
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.EqualValues(t, 9, rep["iteration"])
	assert.EqualValues(t, 90, rep["samples"])
	assert.True(t, p.global.Conserved())
	assert.Positive(t, p.global.Outliers.Count())
}

func TestPipeline_CancelledBeforeStart(t *testing.T) {
	var out bytes.Buffer
	p, err := New(testConfig(1, 0), zaptest.NewLogger(t), WithOutput(&out))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Run(ctx))
	assert.Empty(t, out.String())
	assert.Zero(t, p.global.Stats.N)
}

func TestPipeline_ReportFailureStopsRun(t *testing.T) {
	cfg := testConfig(1, 0)
	cfg.Run.TotalSampleBudget = 0 // unlimited
	cfg.Report.Path = filepath.Join(t.TempDir(), "missing", "report.txt")

	p, err := New(cfg, zaptest.NewLogger(t), WithOutput(&bytes.Buffer{}))
	require.NoError(t, err)
	err = p.Run(context.Background())
	assert.ErrorIs(t, err, ErrReporterRunFailed)
}

func TestNew_InvalidSampler(t *testing.T) {
	cfg := testConfig(1, 0)
	cfg.Sampler = config.SamplerConfig{Kind: "nope"}
	_, err := New(cfg, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, ErrSamplerCreation)
}
