package graph

import (
	"strings"
	"sync"

	graphErrors "github.com/devrev/graphmesh/internal/errors"
	"github.com/devrev/graphmesh/internal/metrics"
	"github.com/devrev/graphmesh/internal/model"
	"github.com/emirpasic/gods/sets/treeset"
	"go.uber.org/zap"
)

// vertexSlot holds a vertex and its outgoing adjacency set. Slots of deleted
// vertices are recycled through the store's free list.
type vertexSlot struct {
	record model.VertexRecord
	edges  *treeset.Set
}

// edgeComparator orders adjacency entries by (To, Label). Entries that
// compare equal collapse into one.
func edgeComparator(a, b interface{}) int {
	ea := a.(model.DirectedEdgeRecord)
	eb := b.(model.DirectedEdgeRecord)
	if c := strings.Compare(ea.To, eb.To); c != 0 {
		return c
	}
	return strings.Compare(ea.Label, eb.Label)
}

// Store is the in-memory graph partition owned by a single shard
type Store struct {
	mu        sync.RWMutex
	self      model.ShardID
	slots     []vertexSlot
	index     map[string]int
	free      []int
	edgeCount int
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewStore creates an empty store for the shard identified by self
func NewStore(self model.ShardID, m *metrics.Metrics, logger *zap.Logger) *Store {
	return &Store{
		self:    self,
		index:   make(map[string]int),
		logger:  logger.Named("store"),
		metrics: m,
	}
}

// Self returns the shard id this store belongs to
func (s *Store) Self() model.ShardID {
	return s.self
}

// AddVertex inserts a vertex. An existing key is left untouched and a
// conflict error is returned.
func (s *Store) AddVertex(key, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[key]; ok {
		s.logger.Info("Vertex already exists", zap.String("key", key))
		s.metrics.RecordMutation("add_vertex", "conflict")
		return graphErrors.VertexConflict(key)
	}

	slot := vertexSlot{
		record: model.VertexRecord{Key: key, Data: data},
		edges:  treeset.NewWith(edgeComparator),
	}

	if n := len(s.free); n > 0 {
		i := s.free[n-1]
		s.free = s.free[:n-1]
		s.slots[i] = slot
		s.index[key] = i
	} else {
		s.slots = append(s.slots, slot)
		s.index[key] = len(s.slots) - 1
	}

	s.metrics.RecordMutation("add_vertex", "ok")
	s.updateSizeLocked()
	return nil
}

// DeleteVertex removes a vertex and all of its outgoing edges. Reverse edges
// held by other vertices are not touched.
func (s *Store) DeleteVertex(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[key]
	if !ok {
		s.logger.Info("Vertex not found for delete", zap.String("key", key))
		s.metrics.RecordMutation("delete_vertex", "missing")
		return graphErrors.VertexNotFound(key)
	}

	s.edgeCount -= s.slots[i].edges.Size()
	s.slots[i] = vertexSlot{}
	s.free = append(s.free, i)
	delete(s.index, key)

	s.metrics.RecordMutation("delete_vertex", "ok")
	s.updateSizeLocked()
	return nil
}

// AddEdge inserts the directed half from→to. The source vertex must exist.
// An identical (to, label) half is left alone and reported as a conflict.
func (s *Store) AddEdge(from, to, label string, ownerOfTo model.ShardID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.addEdgeLocked(from, to, label, ownerOfTo); err != nil {
		return err
	}
	s.updateSizeLocked()
	return nil
}

// AddUndirectedEdge inserts both halves of an edge whose endpoints both live
// on this shard. It reports a conflict only when both halves already existed.
func (s *Store) AddUndirectedEdge(a, b, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[b]; !ok {
		s.metrics.RecordMutation("add_edge", "missing")
		return graphErrors.VertexNotFound(b)
	}
	errAB := s.addEdgeLocked(a, b, label, s.self)
	if errAB != nil && !graphErrors.IsConflict(errAB) {
		return errAB
	}
	errBA := s.addEdgeLocked(b, a, label, s.self)
	if errBA != nil && !graphErrors.IsConflict(errBA) {
		return errBA
	}
	if errAB != nil && errBA != nil {
		return errAB
	}
	s.updateSizeLocked()
	return nil
}

func (s *Store) addEdgeLocked(from, to, label string, ownerOfTo model.ShardID) error {
	i, ok := s.index[from]
	if !ok {
		s.logger.Info("Edge source not found",
			zap.String("from", from),
			zap.String("to", to))
		s.metrics.RecordMutation("add_edge", "missing")
		return graphErrors.VertexNotFound(from)
	}

	edge := model.DirectedEdgeRecord{To: to, Label: label, OwnerOfTo: ownerOfTo}
	set := s.slots[i].edges
	if set.Contains(edge) {
		s.metrics.RecordMutation("add_edge", "duplicate")
		return graphErrors.EdgeConflict(from, to, label)
	}
	set.Add(edge)
	s.edgeCount++
	s.metrics.RecordMutation("add_edge", "ok")
	return nil
}

// DeleteEdge removes every outgoing edge of from that targets to, whatever
// its label, and returns how many were removed.
func (s *Store) DeleteEdge(from, to string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[from]
	if !ok {
		s.logger.Info("Edge source not found for delete",
			zap.String("from", from),
			zap.String("to", to))
		s.metrics.RecordMutation("delete_edge", "missing")
		return 0, graphErrors.VertexNotFound(from)
	}

	set := s.slots[i].edges
	var matches []interface{}
	set.Each(func(_ int, v interface{}) {
		if v.(model.DirectedEdgeRecord).To == to {
			matches = append(matches, v)
		}
	})
	set.Remove(matches...)
	s.edgeCount -= len(matches)

	s.metrics.RecordMutation("delete_edge", "ok")
	s.updateSizeLocked()
	return len(matches), nil
}

// DeleteLabeledEdge removes the single half from→to carrying label and
// reports whether it was there. Edges to the same target with other labels
// are kept.
func (s *Store) DeleteLabeledEdge(from, to, label string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[from]
	if !ok {
		s.metrics.RecordMutation("delete_edge", "missing")
		return false, graphErrors.VertexNotFound(from)
	}

	// the comparator ignores OwnerOfTo
	edge := model.DirectedEdgeRecord{To: to, Label: label}
	set := s.slots[i].edges
	if !set.Contains(edge) {
		return false, nil
	}
	set.Remove(edge)
	s.edgeCount--

	s.metrics.RecordMutation("delete_edge", "ok")
	s.updateSizeLocked()
	return true, nil
}

// HasVertex reports whether key is stored on this shard
func (s *Store) HasVertex(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[key]
	return ok
}

// Vertex returns the stored record for key
func (s *Store) Vertex(key string) (model.VertexRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[key]
	if !ok {
		return model.VertexRecord{}, false
	}
	return s.slots[i].record, true
}

// EdgesOf returns a snapshot of key's adjacency in (To, Label) order
func (s *Store) EdgesOf(key string) []model.DirectedEdgeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, edges, _ := s.snapshotLocked(key)
	return edges
}

// VertexCount returns the number of vertices on this shard
func (s *Store) VertexCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}

// EdgeCount returns the number of directed edge halves on this shard
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edgeCount
}

func (s *Store) snapshotLocked(key string) (model.VertexRecord, []model.DirectedEdgeRecord, bool) {
	i, ok := s.index[key]
	if !ok {
		return model.VertexRecord{}, nil, false
	}
	slot := s.slots[i]
	edges := make([]model.DirectedEdgeRecord, 0, slot.edges.Size())
	for _, v := range slot.edges.Values() {
		edges = append(edges, v.(model.DirectedEdgeRecord))
	}
	return slot.record, edges, true
}

func (s *Store) updateSizeLocked() {
	s.metrics.UpdateGraphSize(len(s.index), s.edgeCount)
}
