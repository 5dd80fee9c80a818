package client

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/devrev/graphmesh/internal/model"
	pb "github.com/devrev/graphmesh/pkg/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

// fakeGraph answers Search and Ping and records the last search request
type fakeGraph struct {
	pb.UnimplementedGraphServer

	mu    sync.Mutex
	last  *pb.SearchRequest
	reply string
}

func (f *fakeGraph) Search(ctx context.Context, req *pb.SearchRequest) (*pb.SearchResponse, error) {
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()

	return &pb.SearchResponse{
		Vertices: []*pb.SearchVertex{{Key: req.StartKey, Value: "remote"}},
		Edges:    []*pb.SearchEdge{{Key: "bfriendc", From: "b", To: "c", Label: "friend"}},
		IdsSoFar: append(req.IdsSoFar, "c"),
	}, nil
}

func (f *fakeGraph) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {
	return &pb.PingResponse{Data: f.reply}, nil
}

func (f *fakeGraph) lastRequest() *pb.SearchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func startFakeGraph(t *testing.T, srv *fakeGraph) grpc.DialOption {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer()
	pb.RegisterGraphServer(s, srv)
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)

	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

func newTestRegistry(t *testing.T, opts ...grpc.DialOption) *PeerRegistry {
	t.Helper()
	r := NewPeerRegistry("self", time.Second, zap.NewNop(), opts...)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestPeerRegistry_AddHost(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.AddHost("self", "passthrough:///self"))
	assert.Empty(t, r.Hosts())

	require.NoError(t, r.AddHost("b", "passthrough:///b1"))
	require.NoError(t, r.AddHost("a", "passthrough:///a"))
	assert.Equal(t, []model.ShardID{"a", "b"}, r.Hosts())

	first, ok := r.get("b")
	require.True(t, ok)

	// same address keeps the client
	require.NoError(t, r.AddHost("b", "passthrough:///b1"))
	same, _ := r.get("b")
	assert.Same(t, first, same)

	// a new address replaces it
	require.NoError(t, r.AddHost("b", "passthrough:///b2"))
	replaced, _ := r.get("b")
	assert.NotSame(t, first, replaced)
	assert.Equal(t, "passthrough:///b2", replaced.Address())
}

func TestPeerRegistry_RemoveHost(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.AddHost("b", "passthrough:///b"))
	require.NoError(t, r.RemoveHost("b"))
	assert.Empty(t, r.Hosts())

	assert.NoError(t, r.RemoveHost("unknown"))
}

func TestPeerRegistry_ForgetHost(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.AddHost("pinned", "passthrough:///pinned"))
	require.NoError(t, r.LearnHost("gossiped", "passthrough:///gossiped"))
	// gossip re-learning a pinned peer does not unpin it
	require.NoError(t, r.LearnHost("pinned", "passthrough:///pinned"))

	removed, err := r.ForgetHost("pinned")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = r.ForgetHost("gossiped")
	require.NoError(t, err)
	assert.True(t, removed)

	assert.Equal(t, []model.ShardID{"pinned"}, r.Hosts())

	// an explicit removal clears the pin
	require.NoError(t, r.RemoveHost("pinned"))
	require.NoError(t, r.LearnHost("pinned", "passthrough:///pinned"))
	removed, err = r.ForgetHost("pinned")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, r.Hosts())
}

func TestPeerRegistry_SearchPeerUnknown(t *testing.T) {
	r := newTestRegistry(t)

	err := r.SearchPeer(context.Background(), "ghost", "a", 1, model.NewSearchAccumulator())
	assert.Error(t, err)
}

func TestPeerRegistry_SearchPeerMergesResponse(t *testing.T) {
	srv := &fakeGraph{}
	r := newTestRegistry(t, startFakeGraph(t, srv))
	require.NoError(t, r.AddHost("b-shard", "passthrough:///b-shard"))

	acc := model.NewSearchAccumulator()
	acc.MarkSeen("a")
	acc.MarkSeen("b")
	acc.AddVertex(model.SearchVertex{Key: "a", Value: "local"})

	require.NoError(t, r.SearchPeer(context.Background(), "b-shard", "b", 2, acc))

	req := srv.lastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "b", req.StartKey)
	assert.Equal(t, int32(2), req.Level)
	assert.ElementsMatch(t, []string{"a", "b"}, req.IdsSoFar)
	// only the visited set travels
	assert.Empty(t, req.Vertices)

	assert.Equal(t, []model.SearchVertex{{Key: "a", Value: "local"}, {Key: "b", Value: "remote"}}, acc.SortedVertices())
	require.Len(t, acc.SortedEdges(), 1)
	assert.True(t, acc.HasSeen("c"))
}

func TestShardClient_Ping(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantErr bool
	}{
		{name: "alive", reply: model.PingReply},
		{name: "unexpected reply", reply: "pong", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dial := startFakeGraph(t, &fakeGraph{reply: tt.reply})
			c, err := NewShardClient("s0", "passthrough:///s0", time.Second, zap.NewNop(), dial)
			require.NoError(t, err)
			defer c.Close()

			err = c.Ping(context.Background(), 0)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
