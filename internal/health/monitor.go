package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/devrev/graphmesh/internal/metrics"
	"github.com/devrev/graphmesh/internal/model"
	"go.uber.org/zap"
)

// CheckFunc probes every shard and returns an error if any is unreachable
type CheckFunc func(ctx context.Context) error

// Monitor tracks fleet health. It starts Unhealthy, becomes Healthy once a
// check passes and drops back to Unhealthy on the first failed check.
// Monitor is a poller.Source.
type Monitor struct {
	mu       sync.Mutex
	state    model.HealthState
	changed  chan struct{}
	lastErr  error
	check    CheckFunc
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewMonitor creates a monitor in the Unhealthy state
func NewMonitor(check CheckFunc, interval time.Duration, m *metrics.Metrics, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = time.Second
	}
	if m != nil {
		m.SetHealthy(false)
	}
	return &Monitor{
		state:    model.HealthStateUnhealthy,
		changed:  make(chan struct{}),
		check:    check,
		interval: interval,
		metrics:  m,
		logger:   logger.Named("health"),
	}
}

// Check runs the probe once and records the outcome
func (m *Monitor) Check(ctx context.Context) error {
	err := m.check(ctx)
	m.record(err)
	return err
}

func (m *Monitor) record(err error) {
	next := model.HealthStateHealthy
	if err != nil {
		next = model.HealthStateUnhealthy
	}

	m.mu.Lock()
	prev := m.state
	m.state = next
	m.lastErr = err
	if prev != next {
		close(m.changed)
		m.changed = make(chan struct{})
	}
	m.mu.Unlock()

	if prev == next {
		return
	}
	if m.metrics != nil {
		m.metrics.SetHealthy(next == model.HealthStateHealthy)
	}
	if err != nil {
		m.logger.Warn("Shard fleet became unhealthy", zap.Error(err))
	} else {
		m.logger.Info("Shard fleet became healthy")
	}
}

// State returns the current health state
func (m *Monitor) State() model.HealthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Healthy reports whether the last check passed
func (m *Monitor) Healthy() bool {
	return m.State() == model.HealthStateHealthy
}

// LastError returns the error of the last check, if any
func (m *Monitor) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Probe adapts the monitor to a readiness probe
func (m *Monitor) Probe() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == model.HealthStateHealthy {
		return nil
	}
	if m.lastErr != nil {
		return m.lastErr
	}
	return errors.New("shards not checked yet")
}

// Changed returns a channel closed on the next state transition
func (m *Monitor) Changed() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changed
}

// WaitHealthy blocks until the fleet is healthy, timeout elapses or ctx is
// done, and reports whether it is healthy on return.
func (m *Monitor) WaitHealthy(ctx context.Context, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		m.mu.Lock()
		healthy := m.state == model.HealthStateHealthy
		changed := m.changed
		m.mu.Unlock()
		if healthy {
			return true
		}

		select {
		case <-changed:
		case <-timer.C:
			return m.Healthy()
		case <-ctx.Done():
			return false
		}
	}
}

// Poll implements poller.Source
func (m *Monitor) Poll(ctx context.Context) {
	_ = m.Check(ctx)
}

// NextPollInterval implements poller.Source
func (m *Monitor) NextPollInterval() time.Duration {
	return m.interval
}

// Stop implements poller.Source
func (m *Monitor) Stop() {
	m.logger.Info("Health monitor stopped", zap.String("state", string(m.State())))
}
