package service

import (
	"context"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Enqueue hands a raw edge payload to the orchestrator. Safe for concurrent
// producers.
func (o *GraphOrchestrator) Enqueue(payload string) {
	o.queue.Push(payload)
	o.metrics.QueueDepth.Set(float64(o.queue.Len()))
}

// Pending reports how many payloads are waiting to be applied
func (o *GraphOrchestrator) Pending() int {
	n := o.queue.Len()
	if o.pending != nil {
		n++
	}
	return n
}

func (o *GraphOrchestrator) next() (string, bool) {
	if o.pending != nil {
		payload := *o.pending
		o.pending = nil
		return payload, true
	}
	return o.queue.Pop()
}

// Poll applies at most one queued payload. While the fleet is unhealthy the
// payload is held and retried first on the next Poll, so ordering is kept.
// Poll implements poller.Source and must only be driven by one dispatcher.
func (o *GraphOrchestrator) Poll(ctx context.Context) {
	payload, ok := o.next()
	if !ok {
		return
	}

	if !o.monitor.Healthy() && !o.monitor.WaitHealthy(ctx, o.opts.GateWait) {
		o.pending = &payload
		o.metrics.IngestPayloads.WithLabelValues("deferred").Inc()
		o.logger.Debug("Shards unhealthy, deferring payload")
		return
	}

	o.ingest(ctx, payload)
	o.metrics.QueueDepth.Set(float64(o.queue.Len()))
}

// ingest parses {"from","to","label"} and materialises both endpoints and
// the edge between them. Endpoint values default to their keys.
func (o *GraphOrchestrator) ingest(ctx context.Context, payload string) {
	if !gjson.Valid(payload) {
		o.logger.Error("Dropping malformed payload", zap.String("payload", payload))
		o.metrics.IngestPayloads.WithLabelValues("malformed").Inc()
		return
	}

	fields := gjson.GetMany(payload, "from", "to", "label")
	from, to, label := fields[0], fields[1], fields[2]
	if from.Type != gjson.String || to.Type != gjson.String || from.Str == "" || to.Str == "" {
		o.logger.Error("Dropping payload without edge endpoints", zap.String("payload", payload))
		o.metrics.IngestPayloads.WithLabelValues("malformed").Inc()
		return
	}

	if _, err := o.AddVertex(ctx, from.Str, from.Str); err != nil {
		o.ingestFailed(payload, err)
		return
	}
	if _, err := o.AddVertex(ctx, to.Str, to.Str); err != nil {
		o.ingestFailed(payload, err)
		return
	}
	if _, err := o.AddEdge(ctx, from.Str, to.Str, label.String()); err != nil {
		o.ingestFailed(payload, err)
		return
	}

	o.metrics.IngestPayloads.WithLabelValues("applied").Inc()
}

func (o *GraphOrchestrator) ingestFailed(payload string, err error) {
	o.logger.Error("Failed to apply payload", zap.String("payload", payload), zap.Error(err))
	o.metrics.IngestPayloads.WithLabelValues("failed").Inc()
}

// NextPollInterval implements poller.Source. A non-empty queue is polled
// again without pause.
func (o *GraphOrchestrator) NextPollInterval() time.Duration {
	if o.pending != nil || o.queue.Empty() {
		return o.opts.PollInterval
	}
	return 0
}

// Stop implements poller.Source
func (o *GraphOrchestrator) Stop() {
	o.logger.Info("Ingestion stopped", zap.Int("pending", o.Pending()))
}
