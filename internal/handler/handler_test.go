package handler

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/devrev/graphmesh/internal/client"
	graphErrors "github.com/devrev/graphmesh/internal/errors"
	"github.com/devrev/graphmesh/internal/graph"
	"github.com/devrev/graphmesh/internal/metrics"
	"github.com/devrev/graphmesh/internal/queue"
	"github.com/devrev/graphmesh/internal/service"
	pb "github.com/devrev/graphmesh/pkg/proto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1024 * 1024

// testMesh runs shard servers on in-memory listeners keyed by shard id
type testMesh struct {
	ids       []string
	listeners map[string]*bufconn.Listener
	servers   map[string]*grpc.Server
	stores    map[string]*graph.Store
}

func (m *testMesh) dialer(ctx context.Context, addr string) (net.Conn, error) {
	l, ok := m.listeners[addr]
	if !ok {
		return nil, fmt.Errorf("no listener for %s", addr)
	}
	return l.Dial()
}

func (m *testMesh) dialOption() grpc.DialOption {
	return grpc.WithContextDialer(m.dialer)
}

func address(id string) string {
	return "passthrough:///" + id
}

func newTestMesh(t *testing.T, ids ...string) *testMesh {
	t.Helper()
	mesh := &testMesh{
		ids:       ids,
		listeners: make(map[string]*bufconn.Listener),
		servers:   make(map[string]*grpc.Server),
		stores:    make(map[string]*graph.Store),
	}
	for _, id := range ids {
		mesh.listeners[id] = bufconn.Listen(bufSize)
	}

	for _, id := range ids {
		m := metrics.NewMetrics("shard", id, prometheus.NewRegistry())
		store := graph.NewStore(id, m, zap.NewNop())
		peers := client.NewPeerRegistry(id, 2*time.Second, zap.NewNop(), mesh.dialOption())
		t.Cleanup(func() { _ = peers.Close() })

		srv := grpc.NewServer()
		pb.RegisterGraphServer(srv, NewGraphHandler(store, peers, zap.NewNop()))

		lis := mesh.listeners[id]
		go func() {
			_ = srv.Serve(lis)
		}()
		t.Cleanup(srv.Stop)

		mesh.servers[id] = srv
		mesh.stores[id] = store
	}
	return mesh
}

func (m *testMesh) shardClient(t *testing.T, id string) *client.ShardClient {
	t.Helper()
	c, err := client.NewShardClient(id, address(id), 2*time.Second, zap.NewNop(), m.dialOption())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func (m *testMesh) orchestrator(t *testing.T) *service.GraphOrchestrator {
	t.Helper()
	shards := make([]service.ShardClient, len(m.ids))
	for i, id := range m.ids {
		shards[i] = m.shardClient(t, id)
	}
	o, err := service.NewGraphOrchestrator(shards, queue.New[string](), service.Options{
		GateWait:    50 * time.Millisecond,
		PingTimeout: time.Second,
	}, metrics.NewMetrics("orchestrator", "test", prometheus.NewRegistry()), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, o.Init(context.Background()))
	return o
}

func keysOf(vertices []*pb.ApiVertex) []string {
	keys := make([]string, len(vertices))
	for i, v := range vertices {
		keys[i] = v.Key
	}
	return keys
}

func edgeKeysOf(edges []*pb.ApiSearchEdge) []string {
	keys := make([]string, len(edges))
	for i, e := range edges {
		keys[i] = e.Key
	}
	return keys
}

func TestGraphHandler_StreamedMutationSummary(t *testing.T) {
	mesh := newTestMesh(t, "localhost:5001")
	c := mesh.shardClient(t, "localhost:5001")
	ctx := context.Background()

	summary, err := c.AddVertex(ctx,
		&pb.Vertex{Key: "a", Value: "A"},
		&pb.Vertex{Key: "b", Value: "B"},
		&pb.Vertex{Key: "a", Value: "again"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Applied)
	assert.Equal(t, int64(1), summary.Conflicts)
	assert.Equal(t, int64(2), summary.VertexCount)

	summary, err = c.AddEdge(ctx,
		&pb.Edge{From: "a", To: "b", Label: "friend", LookupTo: "localhost:5001"},
		&pb.Edge{From: "a", To: "b", Label: "friend", LookupTo: "localhost:5001"},
		&pb.Edge{From: "zz", To: "b", Label: "friend"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Applied)
	assert.Equal(t, int64(1), summary.Conflicts)
	assert.Equal(t, int64(1), summary.Missing)
	assert.Equal(t, int64(1), summary.EdgeCount)

	summary, err = c.DeleteEdge(ctx, &pb.Edge{From: "a", To: "b", Label: "coworker", MatchLabel: true})
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Applied)
	assert.Equal(t, int64(1), summary.Missing)
	assert.Equal(t, int64(1), summary.EdgeCount)

	summary, err = c.DeleteEdge(ctx, &pb.Edge{From: "a", To: "b"}, &pb.Edge{From: "a", To: "b"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Applied)
	assert.Equal(t, int64(1), summary.Missing)
	assert.Equal(t, int64(0), summary.EdgeCount)

	summary, err = c.DeleteVertex(ctx, &pb.Vertex{Key: "a"}, &pb.Vertex{Key: "missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Applied)
	assert.Equal(t, int64(1), summary.Missing)
	assert.Equal(t, int64(1), summary.VertexCount)
}

func TestGraphHandler_RejectsInvalidItems(t *testing.T) {
	mesh := newTestMesh(t, "localhost:5001")
	c := mesh.shardClient(t, "localhost:5001")

	_, err := c.AddVertex(context.Background(), &pb.Vertex{Key: ""})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Search(context.Background(), "a", -1, nil)
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGraphHandler_Ping(t *testing.T) {
	mesh := newTestMesh(t, "localhost:5001")
	c := mesh.shardClient(t, "localhost:5001")

	assert.NoError(t, c.Ping(context.Background(), time.Second))
}

// Two shards, a-b friend, b-c coworker
func TestOrchestrator_TwoShardSearch(t *testing.T) {
	mesh := newTestMesh(t, "localhost:5001", "localhost:5002")
	o := mesh.orchestrator(t)
	h := NewOrchestratorHandler(o, zap.NewNop())
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		resp, err := h.AddVertex(ctx, &pb.ApiVertex{Key: key, Value: key})
		require.NoError(t, err)
		assert.True(t, resp.Success)
	}

	resp, err := h.AddEdge(ctx, &pb.ApiEdge{From: "a", To: "b", Label: "friend"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	resp, err = h.AddEdge(ctx, &pb.ApiEdge{From: "b", To: "c", Label: "coworker"})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	result, err := h.Search(ctx, &pb.ApiSearchRequest{QueryKey: "a", Level: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keysOf(result.Vertices))
	assert.Equal(t, []string{"afriendb"}, edgeKeysOf(result.Edges))

	result, err = h.Search(ctx, &pb.ApiSearchRequest{QueryKey: "a", Level: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keysOf(result.Vertices))
	assert.Equal(t, []string{"afriendb", "bcoworkerc"}, edgeKeysOf(result.Edges))

	again, err := h.Search(ctx, &pb.ApiSearchRequest{QueryKey: "a", Level: 2})
	require.NoError(t, err)
	assert.Equal(t, result, again)

	result, err = h.Search(ctx, &pb.ApiSearchRequest{QueryKey: "c", Level: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, keysOf(result.Vertices))
	assert.Empty(t, result.Edges)
}

func TestOrchestrator_EdgeHalvesLandOnOwners(t *testing.T) {
	mesh := newTestMesh(t, "localhost:5001", "localhost:5002")
	o := mesh.orchestrator(t)
	ctx := context.Background()

	for _, key := range []string{"x", "y"} {
		_, err := o.AddVertex(ctx, key, key)
		require.NoError(t, err)
	}
	_, err := o.AddEdge(ctx, "x", "y", "knows")
	require.NoError(t, err)

	xOwner := o.Placement().Owner("x").ID
	yOwner := o.Placement().Owner("y").ID

	xEdges := mesh.stores[xOwner].EdgesOf("x")
	require.Len(t, xEdges, 1)
	assert.Equal(t, "y", xEdges[0].To)
	assert.Equal(t, yOwner, xEdges[0].OwnerOfTo)

	yEdges := mesh.stores[yOwner].EdgesOf("y")
	require.Len(t, yEdges, 1)
	assert.Equal(t, "x", yEdges[0].To)
	assert.Equal(t, xOwner, yEdges[0].OwnerOfTo)

	_, err = o.DeleteEdge(ctx, "x", "y")
	require.NoError(t, err)
	assert.Empty(t, mesh.stores[xOwner].EdgesOf("x"))
	assert.Empty(t, mesh.stores[yOwner].EdgesOf("y"))
}

func TestOrchestrator_EdgeToMissingVertexIsRolledBack(t *testing.T) {
	mesh := newTestMesh(t, "localhost:5001", "localhost:5002")
	o := mesh.orchestrator(t)
	h := NewOrchestratorHandler(o, zap.NewNop())
	ctx := context.Background()

	_, err := o.AddVertex(ctx, "x", "x")
	require.NoError(t, err)

	resp, err := h.AddEdge(ctx, &pb.ApiEdge{From: "x", To: "ghost", Label: "knows"})
	require.NoError(t, err)
	assert.False(t, resp.Success)

	xOwner := o.Placement().Owner("x").ID
	assert.Empty(t, mesh.stores[xOwner].EdgesOf("x"))
}

// splitKeys returns two keys owned by different shards
func splitKeys(t *testing.T, o *service.GraphOrchestrator) (string, string) {
	t.Helper()
	for i := 0; i < 100; i++ {
		x, y := fmt.Sprintf("x%d", i), fmt.Sprintf("y%d", i)
		if o.RouteVertex(x) != o.RouteVertex(y) {
			return x, y
		}
	}
	t.Fatal("no keys split across shards")
	return "", ""
}

func TestOrchestrator_FailedEdgeKeepsExistingEdge(t *testing.T) {
	tests := []struct {
		name  string
		label string
	}{
		{name: "different label", label: "coworker"},
		{name: "same label", label: "friend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh := newTestMesh(t, "localhost:5001", "localhost:5002")
			o := mesh.orchestrator(t)
			ctx := context.Background()

			x, y := splitKeys(t, o)
			for _, key := range []string{x, y} {
				_, err := o.AddVertex(ctx, key, key)
				require.NoError(t, err)
			}
			res, err := o.AddEdge(ctx, x, y, "friend")
			require.NoError(t, err)
			require.True(t, res.Succeeded())

			xOwner := o.Placement().Owner(x).ID
			yOwner := o.Placement().Owner(y).ID
			mesh.servers[yOwner].Stop()

			_, err = o.AddEdge(ctx, x, y, tt.label)
			require.Error(t, err)
			assert.Equal(t, graphErrors.ErrCodeUnavailable, graphErrors.GetCode(err))

			xEdges := mesh.stores[xOwner].EdgesOf(x)
			require.Len(t, xEdges, 1)
			assert.Equal(t, y, xEdges[0].To)
			assert.Equal(t, "friend", xEdges[0].Label)
			assert.Len(t, mesh.stores[yOwner].EdgesOf(y), 1)
		})
	}
}

func TestOrchestrator_DuplicateEdgeReportsConflict(t *testing.T) {
	mesh := newTestMesh(t, "localhost:5001", "localhost:5002")
	o := mesh.orchestrator(t)
	h := NewOrchestratorHandler(o, zap.NewNop())
	ctx := context.Background()

	for _, key := range []string{"a", "b"} {
		_, err := o.AddVertex(ctx, key, key)
		require.NoError(t, err)
	}
	resp, err := h.AddEdge(ctx, &pb.ApiEdge{From: "a", To: "b", Label: "friend"})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	resp, err = h.AddEdge(ctx, &pb.ApiEdge{From: "a", To: "b", Label: "friend"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "already exists", resp.Message)
	assert.Len(t, mesh.stores[o.Placement().Owner("a").ID].EdgesOf("a"), 1)
}

func TestOrchestrator_DuplicateVertexReportsConflict(t *testing.T) {
	mesh := newTestMesh(t, "localhost:5001")
	h := NewOrchestratorHandler(mesh.orchestrator(t), zap.NewNop())
	ctx := context.Background()

	resp, err := h.AddVertex(ctx, &pb.ApiVertex{Key: "a", Value: "1"})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	resp, err = h.AddVertex(ctx, &pb.ApiVertex{Key: "a", Value: "2"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "already exists", resp.Message)

	_, err = h.Search(ctx, &pb.ApiSearchRequest{QueryKey: "a", Level: -1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestOrchestrator_ShardDownIsUnhealthy(t *testing.T) {
	mesh := newTestMesh(t, "localhost:5001", "localhost:5002")
	o := mesh.orchestrator(t)
	ctx := context.Background()

	require.NoError(t, o.Ping(ctx))
	assert.True(t, o.Healthy())

	mesh.servers["localhost:5002"].Stop()

	assert.Error(t, o.Ping(ctx))
	assert.False(t, o.Healthy())

	o.Enqueue(`{"from":"a","to":"b","label":"friend"}`)
	o.Poll(ctx)
	assert.Equal(t, 1, o.Pending())
	assert.Equal(t, 0, mesh.stores["localhost:5001"].VertexCount())
}

func TestOrchestrator_GRPCOverBufconn(t *testing.T) {
	mesh := newTestMesh(t, "localhost:5001", "localhost:5002")
	o := mesh.orchestrator(t)

	lis := bufconn.Listen(bufSize)
	srv := grpc.NewServer()
	pb.RegisterOrchestratorServer(srv, NewOrchestratorHandler(o, zap.NewNop()))
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///orchestrator",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		pb.CallOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	api := pb.NewOrchestratorClient(conn)
	ctx := context.Background()

	_, err = api.AddVertex(ctx, &pb.ApiVertex{Key: "p", Value: "P"})
	require.NoError(t, err)
	_, err = api.AddVertex(ctx, &pb.ApiVertex{Key: "q", Value: "Q"})
	require.NoError(t, err)
	_, err = api.AddEdge(ctx, &pb.ApiEdge{From: "p", To: "q", Label: "likes"})
	require.NoError(t, err)

	result, err := api.Search(ctx, &pb.ApiSearchRequest{QueryKey: "q", Level: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"p", "q"}, keysOf(result.Vertices))
	require.Len(t, result.Edges, 1)
	assert.Equal(t, "plikesq", result.Edges[0].Key)

	_, err = api.AddVertex(ctx, &pb.ApiVertex{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
