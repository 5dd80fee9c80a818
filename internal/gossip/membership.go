// Package gossip lets shards discover each other through memberlist, in
// addition to the orchestrator's AddHost fan-out.
package gossip

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/devrev/graphmesh/internal/config"
	"github.com/devrev/graphmesh/internal/metrics"
	"github.com/devrev/graphmesh/internal/model"
	"github.com/hashicorp/memberlist"
	"go.uber.org/zap"
)

// NodeMeta is what a shard advertises to the cluster
type NodeMeta struct {
	ShardID    model.ShardID `json:"shard_id"`
	RPCAddress string        `json:"rpc_address"`
}

// PeerRegistrar receives membership changes. ForgetHost may keep a peer
// registered by other means and reports whether it was removed.
type PeerRegistrar interface {
	LearnHost(id model.ShardID, address string) error
	ForgetHost(id model.ShardID) (bool, error)
}

// Membership tracks live shards and keeps the peer registry in step
type Membership struct {
	cfg     config.GossipConfig
	self    NodeMeta
	peers   PeerRegistrar
	list    *memberlist.Memberlist
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu      sync.Mutex
	members map[string]NodeMeta
}

// NewMembership creates a membership tracker for self. Call Start to join
// the cluster.
func NewMembership(cfg config.GossipConfig, self NodeMeta, peers PeerRegistrar, m *metrics.Metrics, logger *zap.Logger) *Membership {
	return &Membership{
		cfg:     cfg,
		self:    self,
		peers:   peers,
		metrics: m,
		logger:  logger.Named("gossip"),
		members: make(map[string]NodeMeta),
	}
}

// Start creates the memberlist and joins the seed nodes
func (g *Membership) Start() error {
	mlConfig := memberlist.DefaultLocalConfig()
	mlConfig.Name = g.self.ShardID
	mlConfig.BindPort = g.cfg.BindPort
	mlConfig.AdvertisePort = g.cfg.BindPort
	if g.cfg.GossipInterval > 0 {
		mlConfig.GossipInterval = g.cfg.GossipInterval
	}
	if g.cfg.ProbeTimeout > 0 {
		mlConfig.ProbeTimeout = g.cfg.ProbeTimeout
	}
	if g.cfg.ProbeInterval > 0 {
		mlConfig.ProbeInterval = g.cfg.ProbeInterval
	}
	mlConfig.Delegate = g
	mlConfig.Events = &eventDelegate{membership: g}
	mlConfig.LogOutput = zap.NewStdLog(g.logger).Writer()

	list, err := memberlist.Create(mlConfig)
	if err != nil {
		return fmt.Errorf("failed to create memberlist: %w", err)
	}
	g.list = list

	if len(g.cfg.SeedNodes) > 0 {
		n, err := list.Join(g.cfg.SeedNodes)
		if err != nil {
			g.logger.Warn("Failed to join some seed nodes", zap.Int("joined", n), zap.Error(err))
		}
	}
	return nil
}

// Members returns the known live shards, self included, sorted by id
func (g *Membership) Members() []NodeMeta {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]NodeMeta, 0, len(g.members))
	for _, m := range g.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShardID < out[j].ShardID })
	return out
}

// Shutdown leaves the cluster
func (g *Membership) Shutdown(timeout time.Duration) error {
	if g.list == nil {
		return nil
	}
	if err := g.list.Leave(timeout); err != nil {
		g.logger.Warn("Failed to leave cluster cleanly", zap.Error(err))
	}
	return g.list.Shutdown()
}

func (g *Membership) join(node *memberlist.Node) {
	var meta NodeMeta
	if err := json.Unmarshal(node.Meta, &meta); err != nil || meta.ShardID == "" {
		g.logger.Warn("Ignoring member without shard metadata",
			zap.String("node", node.Name),
			zap.Error(err))
		return
	}

	g.mu.Lock()
	g.members[node.Name] = meta
	count := len(g.members)
	g.mu.Unlock()
	g.setMemberCount(count)

	if meta.ShardID == g.self.ShardID {
		return
	}
	if err := g.peers.LearnHost(meta.ShardID, meta.RPCAddress); err != nil {
		g.logger.Error("Failed to register gossiped peer",
			zap.String("peer", meta.ShardID),
			zap.String("address", meta.RPCAddress),
			zap.Error(err))
		return
	}
	g.logger.Info("Shard joined",
		zap.String("peer", meta.ShardID),
		zap.String("address", meta.RPCAddress))
}

func (g *Membership) leave(node *memberlist.Node) {
	g.mu.Lock()
	meta, ok := g.members[node.Name]
	delete(g.members, node.Name)
	count := len(g.members)
	g.mu.Unlock()
	g.setMemberCount(count)

	if !ok || meta.ShardID == g.self.ShardID {
		return
	}
	removed, err := g.peers.ForgetHost(meta.ShardID)
	if err != nil {
		g.logger.Warn("Failed to remove departed peer", zap.String("peer", meta.ShardID), zap.Error(err))
	}
	g.logger.Info("Shard left",
		zap.String("peer", meta.ShardID),
		zap.Bool("peer_removed", removed))
}

func (g *Membership) setMemberCount(n int) {
	if g.metrics != nil {
		g.metrics.GossipMembersTotal.Set(float64(n))
	}
}

// NodeMeta implements memberlist.Delegate
func (g *Membership) NodeMeta(limit int) []byte {
	data, err := json.Marshal(g.self)
	if err != nil || len(data) > limit {
		g.logger.Error("Node metadata does not fit", zap.Int("limit", limit), zap.Int("size", len(data)))
		return nil
	}
	return data
}

// NotifyMsg implements memberlist.Delegate
func (g *Membership) NotifyMsg([]byte) {}

// GetBroadcasts implements memberlist.Delegate
func (g *Membership) GetBroadcasts(overhead, limit int) [][]byte {
	return nil
}

// LocalState implements memberlist.Delegate
func (g *Membership) LocalState(join bool) []byte {
	return nil
}

// MergeRemoteState implements memberlist.Delegate
func (g *Membership) MergeRemoteState(buf []byte, join bool) {}

type eventDelegate struct {
	membership *Membership
}

// NotifyJoin is called when a node joins
func (d *eventDelegate) NotifyJoin(node *memberlist.Node) {
	d.membership.join(node)
}

// NotifyLeave is called when a node leaves
func (d *eventDelegate) NotifyLeave(node *memberlist.Node) {
	d.membership.leave(node)
}

// NotifyUpdate is called when a node's metadata changes
func (d *eventDelegate) NotifyUpdate(node *memberlist.Node) {
	d.membership.join(node)
}
