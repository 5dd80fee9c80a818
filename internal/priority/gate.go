// Package priority arbitrates between data processing and deferred work such
// as log output. Data processors Enter and Leave the gate around each unit of
// work; deferred work waits until the gate is idle.
package priority

import (
	"context"
	"sync"
	"time"
)

// Gate counts active data processors
type Gate struct {
	mu     sync.Mutex
	active int
	idle   chan struct{}
}

// NewGate creates an idle gate
func NewGate() *Gate {
	idle := make(chan struct{})
	close(idle)
	return &Gate{idle: idle}
}

// Enter marks one more processor as active
func (g *Gate) Enter() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active == 0 {
		g.idle = make(chan struct{})
	}
	g.active++
}

// Leave marks a processor as finished. The gate becomes idle when the last
// active processor leaves.
func (g *Gate) Leave() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active == 0 {
		return
	}
	g.active--
	if g.active == 0 {
		close(g.idle)
	}
}

// Active returns the number of processors currently inside the gate
func (g *Gate) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Idle returns a channel closed once no processor is active
func (g *Gate) Idle() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.idle
}

// WaitIdle blocks until no processor is active, timeout elapses or ctx is
// done. It reports whether the gate was idle when it returned.
func (g *Gate) WaitIdle(ctx context.Context, timeout time.Duration) bool {
	idle := g.Idle()
	select {
	case <-idle:
		return true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-idle:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
