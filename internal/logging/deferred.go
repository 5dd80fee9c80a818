// Package logging builds the process logger. Ordinary entries are encoded
// immediately but written to the real output by a background drainer that
// yields to data processing through the priority gate.
package logging

import (
	"context"
	"sync"
	"time"

	"github.com/devrev/graphmesh/internal/metrics"
	"github.com/devrev/graphmesh/internal/priority"
	"github.com/devrev/graphmesh/internal/queue"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// DeferredSink is a zapcore.WriteSyncer that parks encoded entries until a
// Drainer writes them out.
type DeferredSink struct {
	pending *queue.LockFree[[]byte]
	notify  chan struct{}
}

// NewDeferredSink creates an empty sink
func NewDeferredSink() *DeferredSink {
	return &DeferredSink{
		pending: queue.New[[]byte](),
		notify:  make(chan struct{}, 1),
	}
}

// Write copies p into the pending queue. It never blocks.
func (s *DeferredSink) Write(p []byte) (int, error) {
	entry := make([]byte, len(p))
	copy(entry, p)
	s.pending.Push(entry)

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return len(p), nil
}

// Sync is a no-op; entries reach the output when the drainer flushes.
func (s *DeferredSink) Sync() error {
	return nil
}

// Pending returns the approximate number of parked entries
func (s *DeferredSink) Pending() int {
	return s.pending.Len()
}

// Drainer moves parked entries from a DeferredSink to the real output
type Drainer struct {
	sink    *DeferredSink
	out     zapcore.WriteSyncer
	gate    *priority.Gate
	wait    time.Duration
	metrics *metrics.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDrainer creates a drainer. wait bounds how long a batch waits for the
// gate to go idle before it is written regardless.
func NewDrainer(sink *DeferredSink, out zapcore.WriteSyncer, gate *priority.Gate, wait time.Duration) *Drainer {
	if wait <= 0 {
		wait = 10 * time.Second
	}
	return &Drainer{
		sink: sink,
		out:  out,
		gate: gate,
		wait: wait,
	}
}

// SetMetrics attaches metrics once they exist; the logger is built first.
func (d *Drainer) SetMetrics(m *metrics.Metrics) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.metrics = m
}

// Start launches the drain loop
func (d *Drainer) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	go d.run(ctx, d.done)
}

// Stop ends the drain loop and writes everything still parked
func (d *Drainer) Stop() error {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return d.Flush()
}

func (d *Drainer) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.sink.notify:
		}

		// data processing goes first, up to the configured bound
		d.gate.WaitIdle(ctx, d.wait)
		_ = d.Flush()
	}
}

// Flush writes every parked entry to the output in one batch
func (d *Drainer) Flush() error {
	var err error
	n := 0
	for {
		entry, ok := d.sink.pending.Pop()
		if !ok {
			break
		}
		if _, werr := d.out.Write(entry); werr != nil {
			err = multierr.Append(err, werr)
		}
		n++
	}
	if n == 0 {
		return err
	}

	err = multierr.Append(err, d.out.Sync())

	d.mu.Lock()
	m := d.metrics
	d.mu.Unlock()
	if m != nil {
		m.RecordLogFlush(n)
	}
	return err
}
