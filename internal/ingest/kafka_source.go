package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/devrev/graphmesh/internal/config"
	graphErrors "github.com/devrev/graphmesh/internal/errors"
	"github.com/devrev/graphmesh/internal/metrics"
	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

const defaultMaxPollRecords = 500

// Fetcher is the subset of *kgo.Client the source needs
type Fetcher interface {
	PollRecords(ctx context.Context, maxPollRecords int) kgo.Fetches
	Close()
}

// SourceOptions tunes a Source
type SourceOptions struct {
	PollTimeout    time.Duration
	PollInterval   time.Duration
	MaxPollRecords int
}

// Source polls a broker and hands each record value to a handler. It is a
// poller.Source.
type Source struct {
	fetcher  Fetcher
	handler  Handler
	opts     SourceOptions
	metrics  *metrics.Metrics
	logger   *zap.Logger
	lastPoll int
}

// NewSource creates a source over an existing fetcher
func NewSource(fetcher Fetcher, handler Handler, opts SourceOptions, m *metrics.Metrics, logger *zap.Logger) *Source {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 100 * time.Millisecond
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Millisecond
	}
	if opts.MaxPollRecords <= 0 {
		opts.MaxPollRecords = defaultMaxPollRecords
	}
	return &Source{
		fetcher: fetcher,
		handler: handler,
		opts:    opts,
		metrics: m,
		logger:  logger.Named("ingest"),
	}
}

// NewKafkaSource builds a Kafka consumer from cfg. Brokers and topic are
// required; a missing client id is generated.
func NewKafkaSource(cfg config.IngestionConfig, handler Handler, m *metrics.Metrics, logger *zap.Logger) (*Source, error) {
	if len(cfg.Brokers) == 0 {
		return nil, graphErrors.Misconfigured("ingestion requires at least one bootstrap broker")
	}
	if cfg.Topic == "" {
		return nil, graphErrors.Misconfigured("ingestion requires a topic")
	}
	if handler == nil {
		return nil, graphErrors.Misconfigured("ingestion requires a handler")
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "graphmesh-" + uuid.NewString()
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ClientID(clientID),
		kgo.FetchMaxWait(cfg.PollTimeout),
	}
	if cfg.Group != "" {
		opts = append(opts, kgo.ConsumerGroup(cfg.Group))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, graphErrors.Misconfigured("failed to create kafka client: " + err.Error())
	}

	logger.Info("Kafka ingestion configured",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
		zap.String("group", cfg.Group),
		zap.String("client_id", clientID))

	return NewSource(client, handler, SourceOptions{
		PollTimeout:  cfg.PollTimeout,
		PollInterval: cfg.PollInterval,
	}, m, logger), nil
}

// Poll fetches whatever is available within the poll timeout and hands
// each record to the handler in order.
func (s *Source) Poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.PollTimeout)
	defer cancel()

	fetches := s.fetcher.PollRecords(ctx, s.opts.MaxPollRecords)
	if fetches.IsClientClosed() {
		s.lastPoll = 0
		return
	}

	for _, fe := range fetches.Errors() {
		if errors.Is(fe.Err, context.DeadlineExceeded) || errors.Is(fe.Err, context.Canceled) {
			continue
		}
		s.logger.Warn("Fetch error",
			zap.String("topic", fe.Topic),
			zap.Int32("partition", fe.Partition),
			zap.Error(fe.Err))
	}

	n := 0
	fetches.EachRecord(func(r *kgo.Record) {
		s.handler.Handle(r.Value)
		n++
	})
	s.lastPoll = n

	if n > 0 && s.metrics != nil {
		s.metrics.IngestPayloads.WithLabelValues("received").Add(float64(n))
	}
}

// NextPollInterval polls again immediately after a non-empty fetch
func (s *Source) NextPollInterval() time.Duration {
	if s.lastPoll > 0 {
		return 0
	}
	return s.opts.PollInterval
}

// Stop closes the broker client
func (s *Source) Stop() {
	s.fetcher.Close()
	s.logger.Info("Ingestion source stopped")
}
