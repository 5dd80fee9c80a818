package priority

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGate_IdleByDefault(t *testing.T) {
	g := NewGate()

	assert.Equal(t, 0, g.Active())
	assert.True(t, g.WaitIdle(context.Background(), time.Millisecond))
}

func TestGate_WaitIdleTimesOutWhileActive(t *testing.T) {
	g := NewGate()
	g.Enter()

	assert.Equal(t, 1, g.Active())
	assert.False(t, g.WaitIdle(context.Background(), 10*time.Millisecond))

	g.Leave()
	assert.True(t, g.WaitIdle(context.Background(), 10*time.Millisecond))
}

func TestGate_WaitIdleWakesOnLastLeave(t *testing.T) {
	g := NewGate()
	g.Enter()
	g.Enter()

	done := make(chan bool, 1)
	go func() {
		done <- g.WaitIdle(context.Background(), 5*time.Second)
	}()

	g.Leave()
	select {
	case <-done:
		t.Fatal("gate reported idle with a processor still active")
	case <-time.After(20 * time.Millisecond):
	}

	g.Leave()
	select {
	case idle := <-done:
		assert.True(t, idle)
	case <-time.After(time.Second):
		t.Fatal("WaitIdle did not return after last Leave")
	}
}

func TestGate_WaitIdleHonoursContext(t *testing.T) {
	g := NewGate()
	g.Enter()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, g.WaitIdle(ctx, time.Second))
}

func TestGate_ExtraLeaveIsIgnored(t *testing.T) {
	g := NewGate()
	g.Leave()
	assert.Equal(t, 0, g.Active())

	g.Enter()
	assert.Equal(t, 1, g.Active())
}

func TestGate_ConcurrentProcessors(t *testing.T) {
	g := NewGate()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Enter()
			time.Sleep(time.Millisecond)
			g.Leave()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, g.Active())
	assert.True(t, g.WaitIdle(context.Background(), time.Millisecond))
}
