package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/devrev/graphmesh/internal/algorithm"
	"github.com/devrev/graphmesh/internal/client"
	graphErrors "github.com/devrev/graphmesh/internal/errors"
	"github.com/devrev/graphmesh/internal/health"
	"github.com/devrev/graphmesh/internal/metrics"
	"github.com/devrev/graphmesh/internal/model"
	"github.com/devrev/graphmesh/internal/queue"
	"github.com/devrev/graphmesh/internal/workerpool"
	pb "github.com/devrev/graphmesh/pkg/proto"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Options tunes the orchestrator
type Options struct {
	HealthInterval time.Duration
	PingTimeout    time.Duration
	GateWait       time.Duration
	PollInterval   time.Duration
	InitWorkers    int
}

func (o *Options) setDefaults() {
	if o.HealthInterval <= 0 {
		o.HealthInterval = time.Second
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = time.Second
	}
	if o.GateWait <= 0 {
		o.GateWait = time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 10 * time.Millisecond
	}
	if o.InitWorkers <= 0 {
		o.InitWorkers = 4
	}
}

// GraphOrchestrator routes graph operations to the shard owning each vertex,
// tracks fleet health and drains the ingestion queue.
type GraphOrchestrator struct {
	placement *algorithm.Placement
	shards    []ShardClient
	queue     *queue.LockFree[string]
	monitor   *health.Monitor
	pool      *workerpool.WorkerPool
	opts      Options
	metrics   *metrics.Metrics
	logger    *zap.Logger

	// pending holds a payload dequeued while the fleet was unhealthy. Only
	// the ingestion dispatcher touches it.
	pending *string

	closeOnce sync.Once
}

// NewGraphOrchestrator creates an orchestrator over shards. Placement order
// is the order of shards.
func NewGraphOrchestrator(
	shards []ShardClient,
	q *queue.LockFree[string],
	opts Options,
	m *metrics.Metrics,
	logger *zap.Logger,
) (*GraphOrchestrator, error) {
	if len(shards) == 0 {
		return nil, graphErrors.Misconfigured("orchestrator requires at least one shard")
	}
	if q == nil {
		q = queue.New[string]()
	}
	opts.setDefaults()

	workers := make([]model.WorkerDescriptor, len(shards))
	for i, s := range shards {
		workers[i] = model.WorkerDescriptor{ID: s.ID(), Address: s.Address()}
	}
	placement, err := algorithm.NewPlacement(workers)
	if err != nil {
		return nil, graphErrors.Misconfigured(err.Error())
	}

	o := &GraphOrchestrator{
		placement: placement,
		shards:    shards,
		queue:     q,
		opts:      opts,
		metrics:   m,
		logger:    logger.Named("orchestrator"),
		pool: workerpool.NewWorkerPool(workerpool.Config{
			Name:       "init",
			MaxWorkers: opts.InitWorkers,
			Metrics:    m,
			Logger:     logger,
		}),
	}
	o.monitor = health.NewMonitor(o.pingShards, opts.HealthInterval, m, logger)
	return o, nil
}

// Placement returns the routing table
func (o *GraphOrchestrator) Placement() *algorithm.Placement {
	return o.placement
}

// Monitor returns the fleet health monitor, to be driven by a dispatcher
func (o *GraphOrchestrator) Monitor() *health.Monitor {
	return o.monitor
}

// RouteVertex returns the index of the shard owning key
func (o *GraphOrchestrator) RouteVertex(key string) int {
	return o.placement.Route(key)
}

func (o *GraphOrchestrator) shardFor(key string) ShardClient {
	return o.shards[o.placement.Route(key)]
}

// Init tells every shard how to reach every other shard
func (o *GraphOrchestrator) Init(ctx context.Context) error {
	workers := o.placement.Workers()
	for _, s := range o.shards {
		s := s
		err := o.pool.Go(ctx, workerpool.Task{
			ID: "add-hosts-" + s.ID(),
			Fn: func(ctx context.Context) error {
				var errs error
				for _, w := range workers {
					err := s.AddHost(ctx, w.ID, w.Address)
					o.metrics.RecordShardRequest("AddHost", err)
					errs = multierr.Append(errs, err)
				}
				return errs
			},
		})
		if err != nil {
			_ = o.pool.Wait()
			return err
		}
	}

	err := o.pool.Wait()
	stats := o.pool.Stats()
	if err != nil {
		o.logger.Error("Shard mesh initialisation failed",
			zap.Uint64("failed", stats.FailedTasks),
			zap.Float64("success_rate", stats.SuccessRate()))
		return graphErrors.Unavailable("failed to initialise shard mesh", err)
	}

	o.logger.Info("Shard mesh initialised",
		zap.Int("shards", len(o.shards)),
		zap.Uint64("tasks", stats.TotalTasks))
	return nil
}

// pingShards pings every shard in turn
func (o *GraphOrchestrator) pingShards(ctx context.Context) error {
	var errs error
	for _, s := range o.shards {
		err := s.Ping(ctx, o.opts.PingTimeout)
		o.metrics.RecordShardRequest("Ping", err)
		errs = multierr.Append(errs, err)
	}
	return errs
}

// Ping checks every shard and updates the health state
func (o *GraphOrchestrator) Ping(ctx context.Context) error {
	return o.monitor.Check(ctx)
}

// WaitForShards pings the fleet with exponential backoff until every shard
// answers, maxElapsed passes or ctx is done.
func (o *GraphOrchestrator) WaitForShards(ctx context.Context, maxElapsed time.Duration) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = maxElapsed

	attempt := 1
	err := backoff.Retry(func() error {
		if err := o.Ping(ctx); err != nil {
			o.logger.Info("Waiting for shards", zap.Int("attempt", attempt), zap.Error(err))
			attempt++
			return err
		}
		return nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return graphErrors.Unavailable("shards did not become healthy", err)
	}
	return nil
}

// Healthy reports whether the last ping round succeeded
func (o *GraphOrchestrator) Healthy() bool {
	return o.monitor.Healthy()
}

// AddVertex stores a vertex on its owning shard
func (o *GraphOrchestrator) AddVertex(ctx context.Context, key, value string) (MutationResult, error) {
	if key == "" {
		return MutationResult{}, graphErrors.InvalidArgument("vertex key is required", nil)
	}

	summary, err := o.shardFor(key).AddVertex(ctx, &pb.Vertex{Key: key, Value: value})
	o.metrics.RecordShardRequest("AddVertex", err)
	if err != nil {
		return MutationResult{}, graphErrors.Unavailable("AddVertex failed", err).WithDetail("key", key)
	}

	var res MutationResult
	res.add(summary)
	return res, nil
}

// DeleteVertex removes a vertex and its outgoing edges from its owning shard.
// Reverse halves held by other vertices are left in place.
func (o *GraphOrchestrator) DeleteVertex(ctx context.Context, key string) (MutationResult, error) {
	if key == "" {
		return MutationResult{}, graphErrors.InvalidArgument("vertex key is required", nil)
	}

	summary, err := o.shardFor(key).DeleteVertex(ctx, &pb.Vertex{Key: key})
	o.metrics.RecordShardRequest("DeleteVertex", err)
	if err != nil {
		return MutationResult{}, graphErrors.Unavailable("DeleteVertex failed", err).WithDetail("key", key)
	}

	var res MutationResult
	res.add(summary)
	return res, nil
}

// AddEdge inserts an undirected edge as two directed halves, each filed on
// the shard owning its source. If the second half cannot be applied and the
// first was inserted by this call, that labelled half is deleted again.
func (o *GraphOrchestrator) AddEdge(ctx context.Context, from, to, label string) (MutationResult, error) {
	if from == "" || to == "" {
		return MutationResult{}, graphErrors.InvalidArgument("edge endpoints are required", nil)
	}

	fromShard := o.shardFor(from)
	toShard := o.shardFor(to)

	var res MutationResult
	forward, err := fromShard.AddEdge(ctx, &pb.Edge{
		From:       from,
		To:         to,
		Label:      label,
		LookupFrom: fromShard.ID(),
		LookupTo:   toShard.ID(),
	})
	o.metrics.RecordShardRequest("AddEdge", err)
	if err != nil {
		return res, graphErrors.Unavailable("AddEdge failed", err).WithDetail("from", from).WithDetail("to", to)
	}
	res.add(forward)
	if forward != nil && forward.Missing > 0 {
		o.logger.Info("Edge rejected, source vertex missing",
			zap.String("from", from),
			zap.String("to", to))
		return res, nil
	}

	reverse, err := toShard.AddEdge(ctx, &pb.Edge{
		From:       to,
		To:         from,
		Label:      label,
		LookupFrom: toShard.ID(),
		LookupTo:   fromShard.ID(),
	})
	o.metrics.RecordShardRequest("AddEdge", err)
	if err == nil && (reverse == nil || reverse.Missing == 0) {
		res.add(reverse)
		return res, nil
	}

	var rbErr error
	if forward != nil && forward.Applied > 0 {
		o.logger.Warn("Reverse edge half failed, rolling back forward half",
			zap.String("from", from),
			zap.String("to", to),
			zap.String("label", label),
			zap.Error(err))

		_, rbErr = fromShard.DeleteEdge(ctx, &pb.Edge{From: from, To: to, Label: label, MatchLabel: true})
		o.metrics.RecordShardRequest("DeleteEdge", rbErr)
		if rbErr != nil {
			o.logger.Error("Failed to roll back forward edge half",
				zap.String("from", from),
				zap.String("to", to),
				zap.Error(rbErr))
		}
	} else {
		// the forward half predates this call
		o.logger.Warn("Reverse edge half failed, forward half already existed",
			zap.String("from", from),
			zap.String("to", to),
			zap.String("label", label),
			zap.Error(err))
	}

	if err != nil {
		return MutationResult{}, graphErrors.Unavailable("AddEdge failed", multierr.Append(err, rbErr)).
			WithDetail("from", from).WithDetail("to", to)
	}
	return MutationResult{Missing: reverse.Missing}, nil
}

// DeleteEdge removes both directed halves between from and to, whatever
// their label.
func (o *GraphOrchestrator) DeleteEdge(ctx context.Context, from, to string) (MutationResult, error) {
	if from == "" || to == "" {
		return MutationResult{}, graphErrors.InvalidArgument("edge endpoints are required", nil)
	}

	var res MutationResult
	var errs error

	forward, err := o.shardFor(from).DeleteEdge(ctx, &pb.Edge{From: from, To: to})
	o.metrics.RecordShardRequest("DeleteEdge", err)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else {
		res.add(forward)
	}

	reverse, err := o.shardFor(to).DeleteEdge(ctx, &pb.Edge{From: to, To: from})
	o.metrics.RecordShardRequest("DeleteEdge", err)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else {
		res.add(reverse)
	}

	if errs != nil {
		return res, graphErrors.Unavailable("DeleteEdge failed", errs).WithDetail("from", from).WithDetail("to", to)
	}
	return res, nil
}

// Search runs a breadth-first search of up to level hops from key, starting
// on the shard owning key.
func (o *GraphOrchestrator) Search(ctx context.Context, key string, level int) (*SearchResult, error) {
	if key == "" {
		return nil, graphErrors.InvalidArgument("search key is required", nil)
	}
	if level < 0 {
		return nil, graphErrors.InvalidArgument(fmt.Sprintf("search level must be non-negative, got %d", level), nil)
	}

	resp, err := o.shardFor(key).Search(ctx, key, level, nil)
	o.metrics.RecordShardRequest("Search", err)
	if err != nil {
		return nil, graphErrors.Unavailable("Search failed", err).WithDetail("key", key)
	}

	acc := model.NewSearchAccumulator()
	client.MergeResponse(acc, resp)
	return &SearchResult{
		Vertices: acc.SortedVertices(),
		Edges:    acc.SortedEdges(),
	}, nil
}

// Close releases every shard client
func (o *GraphOrchestrator) Close() error {
	var err error
	o.closeOnce.Do(func() {
		for _, s := range o.shards {
			err = multierr.Append(err, s.Close())
		}
	})
	return err
}
