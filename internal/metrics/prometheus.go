package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for a graphmesh process
type Metrics struct {
	// Shard store metrics
	MutationsTotal  *prometheus.CounterVec
	VerticesTotal   prometheus.Gauge
	EdgesTotal      prometheus.Gauge
	SearchDuration  prometheus.Histogram
	SearchHopsTotal prometheus.Counter

	// Orchestrator metrics
	ShardRequestsTotal *prometheus.CounterVec
	ShardsHealthy      prometheus.Gauge
	QueueDepth         prometheus.Gauge
	IngestPayloads     *prometheus.CounterVec

	// Scheduler metrics
	PollIterationsTotal *prometheus.CounterVec
	PollDuration        *prometheus.HistogramVec

	// Log drain metrics
	LogFlushesTotal prometheus.Counter
	LogBatchEntries prometheus.Histogram

	// Gossip metrics
	GossipMembersTotal prometheus.Gauge

	// Worker pool metrics
	PoolTasksTotal    *prometheus.CounterVec
	PoolActiveWorkers *prometheus.GaugeVec
}

// NewMetrics creates and registers all metrics on reg, labelled with the
// process role ("shard" or "orchestrator") and its id.
func NewMetrics(role, id string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"role": role, "instance_id": id}

	return &Metrics{
		MutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "graphmesh",
			Subsystem:   "store",
			Name:        "mutations_total",
			Help:        "Total number of graph mutations by operation and result",
			ConstLabels: labels,
		}, []string{"op", "result"}),
		VerticesTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   "graphmesh",
			Subsystem:   "store",
			Name:        "vertices",
			Help:        "Number of vertices held by this shard",
			ConstLabels: labels,
		}),
		EdgesTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   "graphmesh",
			Subsystem:   "store",
			Name:        "directed_edges",
			Help:        "Number of directed edge records held by this shard",
			ConstLabels: labels,
		}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "graphmesh",
			Subsystem:   "store",
			Name:        "search_duration_seconds",
			Help:        "Histogram of search durations including remote hops",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		SearchHopsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "graphmesh",
			Subsystem:   "store",
			Name:        "search_hops_total",
			Help:        "Total number of search continuations sent to peer shards",
			ConstLabels: labels,
		}),

		ShardRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "graphmesh",
			Subsystem:   "orchestrator",
			Name:        "shard_requests_total",
			Help:        "Total number of RPCs sent to shards by method and result",
			ConstLabels: labels,
		}, []string{"method", "result"}),
		ShardsHealthy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   "graphmesh",
			Subsystem:   "orchestrator",
			Name:        "shards_healthy",
			Help:        "1 when every shard answered the last ping, 0 otherwise",
			ConstLabels: labels,
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   "graphmesh",
			Subsystem:   "orchestrator",
			Name:        "ingest_queue_depth",
			Help:        "Approximate number of payloads waiting in the ingestion queue",
			ConstLabels: labels,
		}),
		IngestPayloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "graphmesh",
			Subsystem:   "orchestrator",
			Name:        "ingest_payloads_total",
			Help:        "Total number of ingestion payloads by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),

		PollIterationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "graphmesh",
			Subsystem:   "scheduler",
			Name:        "poll_iterations_total",
			Help:        "Total number of poll iterations per source",
			ConstLabels: labels,
		}, []string{"source"}),
		PollDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "graphmesh",
			Subsystem:   "scheduler",
			Name:        "poll_duration_seconds",
			Help:        "Histogram of poll durations per source",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"source"}),

		LogFlushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "graphmesh",
			Subsystem:   "logging",
			Name:        "flushes_total",
			Help:        "Total number of deferred log batches written to the sink",
			ConstLabels: labels,
		}),
		LogBatchEntries: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "graphmesh",
			Subsystem:   "logging",
			Name:        "batch_entries",
			Help:        "Histogram of log entries written per flush",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1, 4, 8),
		}),

		GossipMembersTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   "graphmesh",
			Subsystem:   "gossip",
			Name:        "members",
			Help:        "Number of live gossip members",
			ConstLabels: labels,
		}),

		PoolTasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "graphmesh",
			Subsystem:   "workerpool",
			Name:        "tasks_total",
			Help:        "Total number of worker pool tasks by pool and result",
			ConstLabels: labels,
		}, []string{"pool", "result"}),
		PoolActiveWorkers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "graphmesh",
			Subsystem:   "workerpool",
			Name:        "active_workers",
			Help:        "Number of workers currently running a task",
			ConstLabels: labels,
		}, []string{"pool"}),
	}
}

// RecordMutation records a store mutation outcome
func (m *Metrics) RecordMutation(op, result string) {
	m.MutationsTotal.WithLabelValues(op, result).Inc()
}

// UpdateGraphSize updates the vertex and edge gauges
func (m *Metrics) UpdateGraphSize(vertices, edges int) {
	m.VerticesTotal.Set(float64(vertices))
	m.EdgesTotal.Set(float64(edges))
}

// RecordShardRequest records an RPC outcome against a shard
func (m *Metrics) RecordShardRequest(method string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ShardRequestsTotal.WithLabelValues(method, result).Inc()
}

// SetHealthy records the fleet health state
func (m *Metrics) SetHealthy(healthy bool) {
	if healthy {
		m.ShardsHealthy.Set(1)
		return
	}
	m.ShardsHealthy.Set(0)
}

// RecordPoll records one poll iteration for a source
func (m *Metrics) RecordPoll(source string, duration time.Duration) {
	m.PollIterationsTotal.WithLabelValues(source).Inc()
	m.PollDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordLogFlush records a deferred log batch reaching the sink
func (m *Metrics) RecordLogFlush(entries int) {
	m.LogFlushesTotal.Inc()
	m.LogBatchEntries.Observe(float64(entries))
}

// RecordPoolTask records a finished worker pool task
func (m *Metrics) RecordPoolTask(pool string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PoolTasksTotal.WithLabelValues(pool, result).Inc()
}
