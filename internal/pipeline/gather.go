package pipeline

import (
	"context"

	"github.com/sanspareilsmyn/samplestream/internal/stats"
)

// Gatherer collects the process aggregates of one iteration. Gather is a
// collective: every process calls it once per iteration with increasing
// iteration numbers. The coordinator receives all partials, indexed by rank;
// the other processes receive nil. No process returns before the coordinator
// holds the full iteration.
type Gatherer interface {
	Gather(ctx context.Context, iteration int, local *stats.Aggregate) ([]*stats.Aggregate, error)
	Close() error
}

// LocalGatherer is the gatherer of a single-process run.
type LocalGatherer struct{}

func (LocalGatherer) Gather(_ context.Context, _ int, local *stats.Aggregate) ([]*stats.Aggregate, error) {
	return []*stats.Aggregate{local}, nil
}

func (LocalGatherer) Close() error { return nil }
