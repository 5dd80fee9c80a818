package algorithm

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/devrev/graphmesh/internal/model"
)

// Placement maps vertex keys to shards by hash modulo the worker count. The
// mapping is a pure function of the key and the worker list, so it never
// changes while the process runs.
type Placement struct {
	workers []model.WorkerDescriptor
	byID    map[model.ShardID]int
}

// NewPlacement creates a placement table over workers, in order
func NewPlacement(workers []model.WorkerDescriptor) (*Placement, error) {
	if len(workers) == 0 {
		return nil, fmt.Errorf("placement requires at least one worker")
	}

	p := &Placement{
		workers: make([]model.WorkerDescriptor, len(workers)),
		byID:    make(map[model.ShardID]int, len(workers)),
	}
	for i, w := range workers {
		if _, dup := p.byID[w.ID]; dup {
			return nil, fmt.Errorf("duplicate worker id %q", w.ID)
		}
		w.Index = i
		p.workers[i] = w
		p.byID[w.ID] = i
	}
	return p, nil
}

// Hash returns the placement hash of key
func Hash(key string) uint64 {
	return xxhash.Sum64String(key)
}

// Route returns the index of the shard owning key
func (p *Placement) Route(key string) int {
	return int(Hash(key) % uint64(len(p.workers)))
}

// Owner returns the descriptor of the shard owning key
func (p *Placement) Owner(key string) model.WorkerDescriptor {
	return p.workers[p.Route(key)]
}

// Worker returns the descriptor at index i
func (p *Placement) Worker(i int) model.WorkerDescriptor {
	return p.workers[i]
}

// Lookup finds a worker by shard id
func (p *Placement) Lookup(id model.ShardID) (model.WorkerDescriptor, bool) {
	i, ok := p.byID[id]
	if !ok {
		return model.WorkerDescriptor{}, false
	}
	return p.workers[i], true
}

// Workers returns a copy of the worker list in placement order
func (p *Placement) Workers() []model.WorkerDescriptor {
	out := make([]model.WorkerDescriptor, len(p.workers))
	copy(out, p.workers)
	return out
}

// Size returns the number of workers
func (p *Placement) Size() int {
	return len(p.workers)
}
