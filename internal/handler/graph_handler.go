package handler

import (
	"context"
	"errors"
	"io"

	"github.com/devrev/graphmesh/internal/client"
	graphErrors "github.com/devrev/graphmesh/internal/errors"
	"github.com/devrev/graphmesh/internal/graph"
	"github.com/devrev/graphmesh/internal/model"
	pb "github.com/devrev/graphmesh/pkg/proto"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Peers is the shard's registry of other shards
type Peers interface {
	graph.PeerSearcher
	AddHost(id model.ShardID, address string) error
}

// GraphHandler implements the gRPC shard service
type GraphHandler struct {
	store  *graph.Store
	peers  Peers
	logger *zap.Logger
	pb.UnimplementedGraphServer
}

// NewGraphHandler creates a new shard handler
func NewGraphHandler(store *graph.Store, peers Peers, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		store:  store,
		peers:  peers,
		logger: logger,
	}
}

// AddHost registers a peer shard
func (h *GraphHandler) AddHost(ctx context.Context, req *pb.Host) (*pb.Empty, error) {
	if req.Key == "" || req.Address == "" {
		return nil, status.Error(codes.InvalidArgument, "host key and address are required")
	}
	if err := h.peers.AddHost(req.Key, req.Address); err != nil {
		h.logger.Error("AddHost failed",
			zap.String("peer", req.Key),
			zap.String("address", req.Address),
			zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to register host")
	}
	return &pb.Empty{}, nil
}

// AddVertex handles a stream of vertex inserts
func (h *GraphHandler) AddVertex(stream pb.Graph_AddVertexServer) error {
	return drain(h, stream, func(v *pb.Vertex, summary *pb.GraphSummary) error {
		if v.Key == "" {
			return graphErrors.InvalidArgument("vertex key is required", nil)
		}
		return h.store.AddVertex(v.Key, v.Value)
	})
}

// DeleteVertex handles a stream of vertex deletes
func (h *GraphHandler) DeleteVertex(stream pb.Graph_DeleteVertexServer) error {
	return drain(h, stream, func(v *pb.Vertex, summary *pb.GraphSummary) error {
		return h.store.DeleteVertex(v.Key)
	})
}

// AddEdge handles a stream of directed edge inserts
func (h *GraphHandler) AddEdge(stream pb.Graph_AddEdgeServer) error {
	return drain(h, stream, func(e *pb.Edge, summary *pb.GraphSummary) error {
		if e.From == "" || e.To == "" {
			return graphErrors.InvalidArgument("edge endpoints are required", nil)
		}
		owner := e.LookupTo
		if owner == "" {
			owner = h.store.Self()
		}
		return h.store.AddEdge(e.From, e.To, e.Label, owner)
	})
}

// DeleteEdge handles a stream of directed edge deletes. Items flagged
// MatchLabel remove only the half with their label.
func (h *GraphHandler) DeleteEdge(stream pb.Graph_DeleteEdgeServer) error {
	return drain(h, stream, func(e *pb.Edge, summary *pb.GraphSummary) error {
		if e.MatchLabel {
			removed, err := h.store.DeleteLabeledEdge(e.From, e.To, e.Label)
			if err != nil {
				return err
			}
			if !removed {
				summary.Missing++
				return errNoop
			}
			return nil
		}

		removed, err := h.store.DeleteEdge(e.From, e.To)
		if err != nil {
			return err
		}
		if removed == 0 {
			summary.Missing++
			return errNoop
		}
		return nil
	})
}

// Search expands the request's start key on this shard, continuing on
// peers as needed, and returns everything found so far.
func (h *GraphHandler) Search(ctx context.Context, req *pb.SearchRequest) (*pb.SearchResponse, error) {
	if req.StartKey == "" {
		return nil, status.Error(codes.InvalidArgument, "start key is required")
	}
	if req.Level < 0 {
		return nil, status.Error(codes.InvalidArgument, "level must be non-negative")
	}

	acc := client.AccumulatorFromRequest(req)
	if err := h.store.Search(ctx, req.StartKey, int(req.Level), acc, h.peers); err != nil {
		h.logger.Warn("Search aborted",
			zap.String("key", req.StartKey),
			zap.Int32("level", req.Level),
			zap.Error(err))
		return nil, status.FromContextError(err).Err()
	}
	return client.ResponseFromAccumulator(acc), nil
}

// Ping answers liveness probes
func (h *GraphHandler) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {
	return &pb.PingResponse{Data: model.PingReply}, nil
}

// errNoop marks an item that was accepted but changed nothing and has
// already been counted.
var errNoop = errors.New("no-op")

// drain applies every item of a client stream and replies with a summary.
// Conflicts and missing vertices are counted, not surfaced as failures. An
// invalid item aborts the stream.
func drain[T any](h *GraphHandler, stream grpc.ClientStreamingServer[T, pb.GraphSummary], apply func(*T, *pb.GraphSummary) error) error {
	summary := &pb.GraphSummary{}
	for {
		item, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		err = apply(item, summary)
		switch {
		case err == nil:
			summary.Applied++
		case errors.Is(err, errNoop):
		case graphErrors.IsConflict(err):
			summary.Conflicts++
		case graphErrors.IsNotFound(err):
			summary.Missing++
		default:
			h.logger.Warn("Rejecting mutation stream", zap.Error(err))
			return graphErrors.ToStatusError(err)
		}
	}

	summary.VertexCount = int64(h.store.VertexCount())
	summary.EdgeCount = int64(h.store.EdgeCount())
	return stream.SendAndClose(summary)
}
