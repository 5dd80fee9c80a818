// Package poller runs pollable sources on dedicated goroutines. Each
// iteration is bracketed by the priority gate so deferred work can yield to
// data processing.
package poller

import (
	"context"
	"time"

	"github.com/devrev/graphmesh/internal/metrics"
	"github.com/devrev/graphmesh/internal/priority"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWaitTimeout is how long the dispatcher waits for shutdown before
// each poll.
const DefaultWaitTimeout = 5 * time.Millisecond

// Source is a unit of work the dispatcher polls repeatedly
type Source interface {
	// Poll performs one bounded unit of work. It must not block indefinitely.
	Poll(ctx context.Context)
	// NextPollInterval is the pause before the next Poll.
	NextPollInterval() time.Duration
	// Stop is called once when the dispatcher shuts down.
	Stop()
}

// Dispatcher drives a single Source until its context is cancelled
type Dispatcher struct {
	name        string
	source      Source
	gate        *priority.Gate
	waitTimeout time.Duration
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// Config holds dispatcher configuration
type Config struct {
	Name        string
	WaitTimeout time.Duration
}

// NewDispatcher creates a dispatcher for source
func NewDispatcher(cfg Config, source Source, gate *priority.Gate, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = DefaultWaitTimeout
	}
	return &Dispatcher{
		name:        cfg.Name,
		source:      source,
		gate:        gate,
		waitTimeout: cfg.WaitTimeout,
		metrics:     m,
		logger:      logger.Named("dispatcher").With(zap.String("source", cfg.Name)),
	}
}

// Name returns the dispatcher's source name
func (d *Dispatcher) Name() string {
	return d.name
}

// Run polls the source until ctx is cancelled, then stops it. An in-flight
// Poll is always allowed to finish.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("Dispatcher started")

	timer := time.NewTimer(d.waitTimeout)
	defer timer.Stop()

	for {
		resetTimer(timer, d.waitTimeout)
		select {
		case <-ctx.Done():
			d.source.Stop()
			d.logger.Info("Dispatcher stopped")
			return nil
		case <-timer.C:
		}

		d.pollOnce(ctx)

		if interval := d.source.NextPollInterval(); interval > 0 {
			resetTimer(timer, interval)
			select {
			case <-ctx.Done():
				// observed at the top of the loop
			case <-timer.C:
			}
		}
	}
}

func (d *Dispatcher) pollOnce(ctx context.Context) {
	d.gate.Enter()
	defer d.gate.Leave()

	start := time.Now()
	d.source.Poll(ctx)
	if d.metrics != nil {
		d.metrics.RecordPoll(d.name, time.Since(start))
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// Group runs several dispatchers and waits for all of them to stop
type Group struct {
	dispatchers []*Dispatcher
}

// NewGroup creates a group from dispatchers
func NewGroup(dispatchers ...*Dispatcher) *Group {
	return &Group{dispatchers: dispatchers}
}

// Add appends a dispatcher to the group. Must be called before Run.
func (g *Group) Add(d *Dispatcher) {
	g.dispatchers = append(g.dispatchers, d)
}

// Run starts every dispatcher and blocks until all have returned
func (g *Group) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, d := range g.dispatchers {
		d := d
		eg.Go(func() error {
			return d.Run(ctx)
		})
	}
	return eg.Wait()
}
