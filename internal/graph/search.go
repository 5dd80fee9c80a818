package graph

import (
	"context"
	"time"

	"github.com/devrev/graphmesh/internal/model"
	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"go.uber.org/zap"
)

// PeerSearcher continues a search on another shard. Implementations send the
// accumulator's visited set with the request and merge the response back
// into acc before returning.
type PeerSearcher interface {
	SearchPeer(ctx context.Context, owner model.ShardID, key string, remaining int, acc *model.SearchAccumulator) error
}

type frontierEntry struct {
	key   string
	level int
	owner model.ShardID
}

// Search expands the graph breadth-first from start up to maxLevel hops and
// accumulates vertices, edges and visited keys into acc.
//
// Entries owned by this shard are expanded locally. Entries owned by another
// shard are handed to peers with the remaining hop budget. A start key this
// shard does not hold yields no results.
func (s *Store) Search(ctx context.Context, start string, maxLevel int, acc *model.SearchAccumulator, peers PeerSearcher) error {
	started := time.Now()
	defer func() {
		s.metrics.SearchDuration.Observe(time.Since(started).Seconds())
	}()

	if !s.HasVertex(start) {
		s.logger.Debug("Search start vertex not on this shard", zap.String("key", start))
		return nil
	}

	acc.MarkSeen(start)
	frontier := linkedlistqueue.New()
	frontier.Enqueue(frontierEntry{key: start, level: 0, owner: s.self})

	for !frontier.Empty() {
		if err := ctx.Err(); err != nil {
			return err
		}

		v, _ := frontier.Dequeue()
		entry := v.(frontierEntry)

		if entry.owner != s.self {
			s.continueRemote(ctx, entry, maxLevel, acc, peers)
			continue
		}

		s.mu.RLock()
		record, edges, ok := s.snapshotLocked(entry.key)
		s.mu.RUnlock()
		if !ok {
			// a local target whose vertex was never inserted or was deleted
			continue
		}

		acc.AddVertex(model.SearchVertex{Key: record.Key, Value: record.Data})
		if entry.level >= maxLevel {
			continue
		}

		for _, e := range edges {
			acc.AddEdge(model.SearchEdge{
				Key:        model.CanonicalEdgeKey(entry.key, e.To, e.Label),
				From:       entry.key,
				To:         e.To,
				Label:      e.Label,
				LookupFrom: s.self,
				LookupTo:   e.OwnerOfTo,
			})
			if acc.MarkSeen(e.To) {
				frontier.Enqueue(frontierEntry{key: e.To, level: entry.level + 1, owner: e.OwnerOfTo})
			}
		}
	}

	return nil
}

func (s *Store) continueRemote(ctx context.Context, entry frontierEntry, maxLevel int, acc *model.SearchAccumulator, peers PeerSearcher) {
	remaining := maxLevel - entry.level
	if remaining < 0 {
		return
	}
	if peers == nil {
		s.logger.Warn("No peer searcher for remote frontier entry",
			zap.String("key", entry.key),
			zap.String("owner", entry.owner))
		return
	}

	s.metrics.SearchHopsTotal.Inc()
	if err := peers.SearchPeer(ctx, entry.owner, entry.key, remaining, acc); err != nil {
		s.logger.Warn("Remote search continuation failed",
			zap.String("key", entry.key),
			zap.String("owner", entry.owner),
			zap.Int("remaining", remaining),
			zap.Error(err))
	}
}
