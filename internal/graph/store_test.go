package graph

import (
	"strings"
	"testing"

	graphErrors "github.com/devrev/graphmesh/internal/errors"
	"github.com/devrev/graphmesh/internal/metrics"
	"github.com/devrev/graphmesh/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(self model.ShardID) *Store {
	m := metrics.NewMetrics("shard", self, prometheus.NewRegistry())
	return NewStore(self, m, zap.NewNop())
}

func TestStore_AddVertex_Idempotent(t *testing.T) {
	s := newTestStore("s0")

	require.NoError(t, s.AddVertex("a", "first"))
	err := s.AddVertex("a", "second")

	assert.True(t, graphErrors.IsConflict(err))
	assert.Equal(t, 1, s.VertexCount())

	v, ok := s.Vertex("a")
	require.True(t, ok)
	assert.Equal(t, "first", v.Data)
}

func TestStore_DeleteVertex(t *testing.T) {
	s := newTestStore("s0")
	require.NoError(t, s.AddVertex("a", "A"))
	require.NoError(t, s.AddVertex("b", "B"))
	require.NoError(t, s.AddUndirectedEdge("a", "b", "friend"))
	assert.Equal(t, 2, s.EdgeCount())

	require.NoError(t, s.DeleteVertex("a"))
	assert.False(t, s.HasVertex("a"))
	assert.Equal(t, 1, s.VertexCount())
	// the reverse half under b is not cascaded
	assert.Equal(t, 1, s.EdgeCount())
	assert.Len(t, s.EdgesOf("b"), 1)

	err := s.DeleteVertex("a")
	assert.True(t, graphErrors.IsNotFound(err))

	// freed slot is reused without leaking old adjacency
	require.NoError(t, s.AddVertex("c", "C"))
	assert.Empty(t, s.EdgesOf("c"))
	assert.Equal(t, 2, s.VertexCount())
}

func TestStore_AddEdge(t *testing.T) {
	tests := []struct {
		name      string
		from      string
		wantErr   bool
		wantEdges int
	}{
		{name: "source exists", from: "a", wantEdges: 1},
		{name: "source missing", from: "zz", wantErr: true, wantEdges: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore("s0")
			require.NoError(t, s.AddVertex("a", "A"))

			// the target does not need to exist on this shard
			err := s.AddEdge(tt.from, "remote", "knows", "s1")
			if tt.wantErr {
				assert.True(t, graphErrors.IsNotFound(err))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantEdges, s.EdgeCount())
		})
	}
}

func TestStore_AddEdge_CollapsesDuplicates(t *testing.T) {
	s := newTestStore("s0")
	require.NoError(t, s.AddVertex("a", "A"))

	require.NoError(t, s.AddEdge("a", "b", "friend", "s1"))
	err := s.AddEdge("a", "b", "friend", "s1")
	assert.True(t, graphErrors.IsConflict(err))
	require.NoError(t, s.AddEdge("a", "b", "coworker", "s1"))
	require.NoError(t, s.AddEdge("a", "0", "friend", "s0"))

	edges := s.EdgesOf("a")
	require.Len(t, edges, 3)
	assert.Equal(t, "0", edges[0].To)
	assert.Equal(t, model.DirectedEdgeRecord{To: "b", Label: "coworker", OwnerOfTo: "s1"}, edges[1])
	assert.Equal(t, model.DirectedEdgeRecord{To: "b", Label: "friend", OwnerOfTo: "s1"}, edges[2])
}

func TestStore_AddUndirectedEdge_RepairsMissingHalf(t *testing.T) {
	s := newTestStore("s0")
	require.NoError(t, s.AddVertex("a", "A"))
	require.NoError(t, s.AddVertex("b", "B"))
	require.NoError(t, s.AddEdge("a", "b", "friend", "s0"))

	require.NoError(t, s.AddUndirectedEdge("a", "b", "friend"))
	assert.Equal(t, 2, s.EdgeCount())

	err := s.AddUndirectedEdge("a", "b", "friend")
	assert.True(t, graphErrors.IsConflict(err))
	assert.Equal(t, 2, s.EdgeCount())
}

func TestStore_DeleteLabeledEdge(t *testing.T) {
	s := newTestStore("s0")
	require.NoError(t, s.AddVertex("a", "A"))
	require.NoError(t, s.AddEdge("a", "b", "friend", "s1"))
	require.NoError(t, s.AddEdge("a", "b", "coworker", "s1"))

	removed, err := s.DeleteLabeledEdge("a", "b", "coworker")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []model.DirectedEdgeRecord{{To: "b", Label: "friend", OwnerOfTo: "s1"}}, s.EdgesOf("a"))
	assert.Equal(t, 1, s.EdgeCount())

	removed, err = s.DeleteLabeledEdge("a", "b", "coworker")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = s.DeleteLabeledEdge("ghost", "b", "friend")
	assert.True(t, graphErrors.IsNotFound(err))
}

func TestStore_DeleteEdge_AnyLabel(t *testing.T) {
	s := newTestStore("s0")
	require.NoError(t, s.AddVertex("a", "A"))
	require.NoError(t, s.AddEdge("a", "b", "friend", "s0"))
	require.NoError(t, s.AddEdge("a", "b", "coworker", "s0"))
	require.NoError(t, s.AddEdge("a", "c", "friend", "s0"))

	removed, err := s.DeleteEdge("a", "b")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, s.EdgeCount())

	removed, err = s.DeleteEdge("a", "b")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	_, err = s.DeleteEdge("missing", "b")
	assert.True(t, graphErrors.IsNotFound(err))
}

func TestStore_LoadJSON(t *testing.T) {
	doc := `{
		"nodes": {
			"a": {"data": {"value": "Alice"}},
			"b": {"data": {"value": "Bob"}},
			"c": {"data": {"value": "Carol"}}
		},
		"edges": {
			"e1": {"from": "a", "to": "b", "data": {"label": "friend"}},
			"e2": {"from": "b", "to": "c", "data": {"label": "coworker"}},
			"e3": {"from": "a", "to": "nobody", "data": {"label": "friend"}},
			"e4": {"to": "a"}
		}
	}`

	s := newTestStore("s0")
	stats, err := s.LoadJSON(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, LoadStats{Vertices: 3, Edges: 2, Skipped: 2}, stats)
	assert.Equal(t, 3, s.VertexCount())
	assert.Equal(t, 4, s.EdgeCount())

	v, _ := s.Vertex("a")
	assert.Equal(t, "Alice", v.Data)
	assert.Equal(t, []model.DirectedEdgeRecord{{To: "a", Label: "friend", OwnerOfTo: "s0"}, {To: "c", Label: "coworker", OwnerOfTo: "s0"}}, s.EdgesOf("b"))
}

func TestStore_LoadJSON_Invalid(t *testing.T) {
	s := newTestStore("s0")
	_, err := s.LoadJSON(strings.NewReader("{not json"))
	assert.Equal(t, graphErrors.ErrCodeMalformedPayload, graphErrors.GetCode(err))
}
