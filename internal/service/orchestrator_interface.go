package service

import (
	"context"
	"time"

	"github.com/devrev/graphmesh/internal/model"
	pb "github.com/devrev/graphmesh/pkg/proto"
)

// ShardClient is the orchestrator's view of one shard. *client.ShardClient
// satisfies it.
type ShardClient interface {
	ID() model.ShardID
	Address() string
	AddHost(ctx context.Context, key, address string) error
	AddVertex(ctx context.Context, vertices ...*pb.Vertex) (*pb.GraphSummary, error)
	DeleteVertex(ctx context.Context, vertices ...*pb.Vertex) (*pb.GraphSummary, error)
	AddEdge(ctx context.Context, edges ...*pb.Edge) (*pb.GraphSummary, error)
	DeleteEdge(ctx context.Context, edges ...*pb.Edge) (*pb.GraphSummary, error)
	Search(ctx context.Context, key string, level int, seen []string) (*pb.SearchResponse, error)
	Ping(ctx context.Context, timeout time.Duration) error
	Close() error
}

// MutationResult summarises a routed mutation
type MutationResult struct {
	Applied   int64
	Conflicts int64
	Missing   int64
}

// Succeeded reports whether the mutation changed the graph
func (r MutationResult) Succeeded() bool {
	return r.Applied > 0 && r.Missing == 0
}

func (r *MutationResult) add(s *pb.GraphSummary) {
	if s == nil {
		return
	}
	r.Applied += s.Applied
	r.Conflicts += s.Conflicts
	r.Missing += s.Missing
}

// SearchResult holds the vertices and edges reached by a search, sorted by
// key.
type SearchResult struct {
	Vertices []model.SearchVertex
	Edges    []model.SearchEdge
}
