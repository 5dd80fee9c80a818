package client

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/devrev/graphmesh/internal/model"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// PeerRegistry holds clients for the other shards of the mesh, learned via
// AddHost or gossip. It continues searches on the shard owning a frontier
// entry. Peers registered through AddHost are pinned: gossip departures do
// not remove them.
type PeerRegistry struct {
	mu       sync.RWMutex
	self     model.ShardID
	peers    map[model.ShardID]*ShardClient
	pinned   map[model.ShardID]bool
	timeout  time.Duration
	dialOpts []grpc.DialOption
	logger   *zap.Logger
}

// NewPeerRegistry creates an empty registry for the shard self
func NewPeerRegistry(self model.ShardID, timeout time.Duration, logger *zap.Logger, dialOpts ...grpc.DialOption) *PeerRegistry {
	return &PeerRegistry{
		self:     self,
		peers:    make(map[model.ShardID]*ShardClient),
		pinned:   make(map[model.ShardID]bool),
		timeout:  timeout,
		dialOpts: dialOpts,
		logger:   logger.Named("peers"),
	}
}

// AddHost registers and pins the peer id reachable at address. Registering
// the local shard is a no-op; re-registering with a new address replaces the
// client.
func (r *PeerRegistry) AddHost(id model.ShardID, address string) error {
	return r.register(id, address, true)
}

// LearnHost registers a peer discovered through gossip. It does not pin it.
func (r *PeerRegistry) LearnHost(id model.ShardID, address string) error {
	return r.register(id, address, false)
}

func (r *PeerRegistry) register(id model.ShardID, address string, pin bool) error {
	if id == r.self {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if pin {
		r.pinned[id] = true
	}

	if existing, ok := r.peers[id]; ok {
		if existing.Address() == address {
			return nil
		}
		if err := existing.Close(); err != nil {
			r.logger.Warn("Failed to close replaced peer client", zap.String("peer", id), zap.Error(err))
		}
	}

	c, err := NewShardClient(id, address, r.timeout, r.logger, r.dialOpts...)
	if err != nil {
		delete(r.peers, id)
		return err
	}
	r.peers[id] = c

	r.logger.Info("Peer registered",
		zap.String("peer", id),
		zap.String("address", address),
		zap.Bool("pinned", r.pinned[id]))
	return nil
}

// RemoveHost forgets a peer, pinned or not
func (r *PeerRegistry) RemoveHost(id model.ShardID) error {
	r.mu.Lock()
	c, ok := r.peers[id]
	delete(r.peers, id)
	delete(r.pinned, id)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	r.logger.Info("Peer removed", zap.String("peer", id))
	return c.Close()
}

// ForgetHost handles a gossip departure. Pinned peers are kept; it reports
// whether the peer was removed.
func (r *PeerRegistry) ForgetHost(id model.ShardID) (bool, error) {
	r.mu.RLock()
	pinned := r.pinned[id]
	r.mu.RUnlock()

	if pinned {
		r.logger.Warn("Gossip reports peer gone, keeping pinned client", zap.String("peer", id))
		return false, nil
	}
	return true, r.RemoveHost(id)
}

// Hosts returns the registered peer ids, sorted
func (r *PeerRegistry) Hosts() []model.ShardID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]model.ShardID, 0, len(r.peers))
	for id := range r.peers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *PeerRegistry) get(id model.ShardID) (*ShardClient, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.peers[id]
	return c, ok
}

// SearchPeer implements graph.PeerSearcher
func (r *PeerRegistry) SearchPeer(ctx context.Context, owner model.ShardID, key string, remaining int, acc *model.SearchAccumulator) error {
	c, ok := r.get(owner)
	if !ok {
		return fmt.Errorf("unknown peer shard %s", owner)
	}

	resp, err := c.Search(ctx, key, remaining, acc.SeenKeys())
	if err != nil {
		return err
	}
	MergeResponse(acc, resp)
	return nil
}

// Close closes every peer client
func (r *PeerRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	for id, c := range r.peers {
		err = multierr.Append(err, c.Close())
		delete(r.peers, id)
	}
	return err
}
