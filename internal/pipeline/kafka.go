package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/samplestream/internal/config"
	"github.com/sanspareilsmyn/samplestream/internal/message"
	"github.com/sanspareilsmyn/samplestream/internal/stats"
)

type kafkaZapLogger struct {
	log *zap.Logger
}

func (l kafkaZapLogger) Printf(msg string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(msg, args...))
}

type kafkaZapErrorLogger struct {
	log *zap.Logger
}

func (l kafkaZapErrorLogger) Printf(msg string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(msg, args...))
}

// messageReader is the part of *kafka.Reader the gatherer needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// messageWriter is the part of *kafka.Writer the gatherer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaGatherer runs the gather collective over two Kafka topics. Workers
// publish their partial on the partials topic and wait for the coordinator's
// barrier on the barrier topic; the coordinator consumes partials until every
// rank has reported the iteration, then publishes the barrier.
type KafkaGatherer struct {
	runID        string
	rank         int
	processCount int
	outlierLimit int
	reader       messageReader
	writer       messageWriter
	logger       *zap.Logger

	// coordinator only: partials that arrived ahead of their iteration
	pending map[int]map[int]message.Partial
}

// NewKafkaGatherer connects the process to the partials and barrier topics
// with the reader and writer matching its role.
func NewKafkaGatherer(cfg config.KafkaConfig, runID string, exec config.ExecutionConfig, outlierLimit int, logger *zap.Logger) (*KafkaGatherer, error) {
	if len(cfg.Brokers) == 0 || cfg.PartialsTopic == "" || cfg.BarrierTopic == "" || cfg.GroupID == "" {
		logger.Error("Kafka configuration validation failed",
			zap.Strings("brokers", cfg.Brokers),
			zap.String("partials_topic", cfg.PartialsTopic),
			zap.String("barrier_topic", cfg.BarrierTopic),
			zap.String("group_id", cfg.GroupID),
		)
		return nil, ErrInvalidKafkaConfig
	}

	readTopic, writeTopic := cfg.BarrierTopic, cfg.PartialsTopic
	groupID := cfg.GroupID + "-barrier-" + strconv.Itoa(exec.ProcessRank)
	if exec.Coordinator() {
		readTopic, writeTopic = cfg.PartialsTopic, cfg.BarrierTopic
		groupID = cfg.GroupID + "-coordinator"
	}

	readerCfg := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     groupID,
		Topic:       readTopic,
		StartOffset: kafka.FirstOffset,
		Logger:      kafkaZapLogger{logger.Named("kafka-reader").WithOptions(zap.AddCallerSkip(1))},
		ErrorLogger: kafkaZapErrorLogger{logger.Named("kafka-reader-error").WithOptions(zap.AddCallerSkip(1))},
	}
	reader := kafka.NewReader(readerCfg)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  writeTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Logger:                 kafkaZapLogger{logger.Named("kafka-writer").WithOptions(zap.AddCallerSkip(1))},
		ErrorLogger:            kafkaZapErrorLogger{logger.Named("kafka-writer-error").WithOptions(zap.AddCallerSkip(1))},
	}

	logger.Info("Kafka gatherer created",
		zap.String("run_id", runID),
		zap.Int("rank", exec.ProcessRank),
		zap.Int("process_count", exec.ProcessCount),
		zap.String("read_topic", readTopic),
		zap.String("write_topic", writeTopic),
		zap.String("group_id", groupID),
		zap.Strings("brokers", cfg.Brokers),
	)

	return newKafkaGatherer(reader, writer, runID, exec, outlierLimit, logger), nil
}

func newKafkaGatherer(reader messageReader, writer messageWriter, runID string, exec config.ExecutionConfig, outlierLimit int, logger *zap.Logger) *KafkaGatherer {
	return &KafkaGatherer{
		runID:        runID,
		rank:         exec.ProcessRank,
		processCount: exec.ProcessCount,
		outlierLimit: outlierLimit,
		reader:       reader,
		writer:       writer,
		logger:       logger,
		pending:      make(map[int]map[int]message.Partial),
	}
}

func (g *KafkaGatherer) Gather(ctx context.Context, iteration int, local *stats.Aggregate) ([]*stats.Aggregate, error) {
	if g.rank == 0 {
		return g.collect(ctx, iteration, local)
	}
	return nil, g.contribute(ctx, iteration, local)
}

// contribute publishes the local partial and blocks until the coordinator
// releases the iteration.
func (g *KafkaGatherer) contribute(ctx context.Context, iteration int, local *stats.Aggregate) error {
	data, err := message.Encode(message.NewPartial(g.runID, iteration, g.rank, local))
	if err != nil {
		return err
	}
	err = g.writer.WriteMessages(ctx, kafka.Message{Key: []byte(strconv.Itoa(g.rank)), Value: data})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKafkaWriteFailed, err)
	}
	g.logger.Debug("Partial published", zap.Int("iteration", iteration))

	for {
		m, err := g.fetch(ctx)
		if err != nil {
			return err
		}

		b, err := message.DecodeBarrier(m.Value)
		switch {
		case err != nil:
			g.logger.Warn("Failed to decode barrier, skipping", zap.Error(err), zap.Int64("offset", m.Offset))
		case b.RunID != g.runID:
			g.logger.Debug("Skipping barrier of another run", zap.String("run_id", b.RunID))
		case b.Iteration != iteration:
			g.logger.Debug("Skipping barrier of another iteration",
				zap.Int("iteration", b.Iteration), zap.Int("waiting_for", iteration))
		default:
			return g.commit(ctx, m)
		}
		if err := g.commit(ctx, m); err != nil {
			return err
		}
	}
}

// collect consumes partials until every rank has reported the iteration, then
// releases the workers. Partials of later iterations are kept for later calls.
func (g *KafkaGatherer) collect(ctx context.Context, iteration int, local *stats.Aggregate) ([]*stats.Aggregate, error) {
	got := g.pending[iteration]
	if got == nil {
		got = make(map[int]message.Partial)
	}
	delete(g.pending, iteration)

	for len(got) < g.processCount-1 {
		m, err := g.fetch(ctx)
		if err != nil {
			return nil, err
		}

		p, err := message.DecodePartial(m.Value)
		switch {
		case err != nil:
			g.logger.Warn("Failed to decode partial, skipping", zap.Error(err), zap.Int64("offset", m.Offset))
		case p.RunID != g.runID:
			g.logger.Debug("Skipping partial of another run", zap.String("run_id", p.RunID))
		case p.Rank <= 0 || p.Rank >= g.processCount:
			g.logger.Warn("Skipping partial with invalid rank", zap.Int("rank", p.Rank))
		case p.Iteration < iteration:
			g.logger.Debug("Skipping stale partial", zap.Int("rank", p.Rank), zap.Int("iteration", p.Iteration))
		case p.Iteration == iteration:
			g.keep(got, p)
		default:
			early := g.pending[p.Iteration]
			if early == nil {
				early = make(map[int]message.Partial)
				g.pending[p.Iteration] = early
			}
			g.keep(early, p)
		}
		if err := g.commit(ctx, m); err != nil {
			return nil, err
		}
	}

	parts := make([]*stats.Aggregate, g.processCount)
	parts[0] = local
	for rank, p := range got {
		agg, err := p.Aggregate(g.outlierLimit)
		if err != nil {
			return nil, fmt.Errorf("%w: rank %d: %w", ErrPartialRejected, rank, err)
		}
		parts[rank] = agg
	}

	data, err := message.Encode(message.Barrier{RunID: g.runID, Iteration: iteration})
	if err != nil {
		return nil, err
	}
	if err := g.writer.WriteMessages(ctx, kafka.Message{Value: data}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKafkaWriteFailed, err)
	}
	g.logger.Debug("Iteration released", zap.Int("iteration", iteration), zap.Int("partials", len(got)))

	return parts, nil
}

func (g *KafkaGatherer) keep(into map[int]message.Partial, p message.Partial) {
	if _, dup := into[p.Rank]; dup {
		g.logger.Warn("Duplicate partial, keeping the first",
			zap.Int("rank", p.Rank), zap.Int("iteration", p.Iteration))
		return
	}
	into[p.Rank] = p
}

func (g *KafkaGatherer) fetch(ctx context.Context) (kafka.Message, error) {
	m, err := g.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return kafka.Message{}, context.Canceled
		}
		return kafka.Message{}, fmt.Errorf("%w: %w", ErrKafkaFetchFailed, err)
	}
	return m, nil
}

func (g *KafkaGatherer) commit(ctx context.Context, m kafka.Message) error {
	if err := g.reader.CommitMessages(ctx, m); err != nil {
		return fmt.Errorf("%w: %w", ErrKafkaCommitFailed, err)
	}
	return nil
}

// Close shuts down the reader and the writer.
func (g *KafkaGatherer) Close() error {
	return errors.Join(g.reader.Close(), g.writer.Close())
}
