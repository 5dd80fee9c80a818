package handler

import (
	"context"

	graphErrors "github.com/devrev/graphmesh/internal/errors"
	"github.com/devrev/graphmesh/internal/service"
	pb "github.com/devrev/graphmesh/pkg/proto"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// OrchestratorHandler implements the client-facing gRPC API
type OrchestratorHandler struct {
	pb.UnimplementedOrchestratorServer
	orchestrator *service.GraphOrchestrator
	logger       *zap.Logger
}

// NewOrchestratorHandler creates a new orchestrator handler
func NewOrchestratorHandler(orchestrator *service.GraphOrchestrator, logger *zap.Logger) *OrchestratorHandler {
	return &OrchestratorHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// AddVertex handles vertex inserts
func (h *OrchestratorHandler) AddVertex(ctx context.Context, req *pb.ApiVertex) (*pb.ApiGraphSummary, error) {
	if req.Key == "" {
		return nil, status.Error(codes.InvalidArgument, "key is required")
	}

	res, err := h.orchestrator.AddVertex(ctx, req.Key, req.Value)
	if err != nil {
		h.logger.Error("AddVertex failed", zap.String("key", req.Key), zap.Error(err))
		return nil, graphErrors.ToStatusError(err)
	}
	return ToAPISummary(res), nil
}

// DeleteVertex handles vertex deletes
func (h *OrchestratorHandler) DeleteVertex(ctx context.Context, req *pb.ApiVertex) (*pb.ApiGraphSummary, error) {
	if req.Key == "" {
		return nil, status.Error(codes.InvalidArgument, "key is required")
	}

	res, err := h.orchestrator.DeleteVertex(ctx, req.Key)
	if err != nil {
		h.logger.Error("DeleteVertex failed", zap.String("key", req.Key), zap.Error(err))
		return nil, graphErrors.ToStatusError(err)
	}
	return ToAPISummary(res), nil
}

// AddEdge handles undirected edge inserts
func (h *OrchestratorHandler) AddEdge(ctx context.Context, req *pb.ApiEdge) (*pb.ApiGraphSummary, error) {
	if req.From == "" || req.To == "" {
		return nil, status.Error(codes.InvalidArgument, "from and to are required")
	}

	res, err := h.orchestrator.AddEdge(ctx, req.From, req.To, req.Label)
	if err != nil {
		h.logger.Error("AddEdge failed",
			zap.String("from", req.From),
			zap.String("to", req.To),
			zap.Error(err))
		return nil, graphErrors.ToStatusError(err)
	}
	return ToAPISummary(res), nil
}

// DeleteEdge handles undirected edge deletes
func (h *OrchestratorHandler) DeleteEdge(ctx context.Context, req *pb.ApiEdge) (*pb.ApiGraphSummary, error) {
	if req.From == "" || req.To == "" {
		return nil, status.Error(codes.InvalidArgument, "from and to are required")
	}

	res, err := h.orchestrator.DeleteEdge(ctx, req.From, req.To)
	if err != nil {
		h.logger.Error("DeleteEdge failed",
			zap.String("from", req.From),
			zap.String("to", req.To),
			zap.Error(err))
		return nil, graphErrors.ToStatusError(err)
	}
	return ToAPISummary(res), nil
}

// Search handles bounded breadth-first searches
func (h *OrchestratorHandler) Search(ctx context.Context, req *pb.ApiSearchRequest) (*pb.ApiSearchResponse, error) {
	if req.QueryKey == "" {
		return nil, status.Error(codes.InvalidArgument, "query_key is required")
	}

	res, err := h.orchestrator.Search(ctx, req.QueryKey, int(req.Level))
	if err != nil {
		h.logger.Error("Search failed",
			zap.String("key", req.QueryKey),
			zap.Int32("level", req.Level),
			zap.Error(err))
		return nil, graphErrors.ToStatusError(err)
	}
	return ToAPISearchResponse(res), nil
}

// ToAPISummary converts a mutation result to its API form
func ToAPISummary(res service.MutationResult) *pb.ApiGraphSummary {
	switch {
	case res.Missing > 0:
		return &pb.ApiGraphSummary{Success: false, Message: "not found"}
	case res.Conflicts > 0 && res.Applied == 0:
		return &pb.ApiGraphSummary{Success: false, Message: "already exists"}
	default:
		return &pb.ApiGraphSummary{Success: true}
	}
}

// ToAPISearchResponse converts a search result to its API form
func ToAPISearchResponse(res *service.SearchResult) *pb.ApiSearchResponse {
	out := &pb.ApiSearchResponse{
		Vertices: make([]*pb.ApiVertex, len(res.Vertices)),
		Edges:    make([]*pb.ApiSearchEdge, len(res.Edges)),
	}
	for i, v := range res.Vertices {
		out.Vertices[i] = &pb.ApiVertex{Key: v.Key, Value: v.Value}
	}
	for i, e := range res.Edges {
		out.Edges[i] = &pb.ApiSearchEdge{Key: e.Key, From: e.From, To: e.To, Label: e.Label}
	}
	return out
}
