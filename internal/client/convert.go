package client

import (
	"github.com/devrev/graphmesh/internal/model"
	pb "github.com/devrev/graphmesh/pkg/proto"
)

// ToProtoVertices converts search vertices to their wire form
func ToProtoVertices(vertices []model.SearchVertex) []*pb.SearchVertex {
	out := make([]*pb.SearchVertex, len(vertices))
	for i, v := range vertices {
		out[i] = &pb.SearchVertex{Key: v.Key, Value: v.Value}
	}
	return out
}

// ToProtoEdges converts search edges to their wire form
func ToProtoEdges(edges []model.SearchEdge) []*pb.SearchEdge {
	out := make([]*pb.SearchEdge, len(edges))
	for i, e := range edges {
		out[i] = &pb.SearchEdge{
			Key:        e.Key,
			From:       e.From,
			To:         e.To,
			Label:      e.Label,
			LookupFrom: e.LookupFrom,
			LookupTo:   e.LookupTo,
		}
	}
	return out
}

// FromProtoVertices converts wire vertices to search vertices
func FromProtoVertices(vertices []*pb.SearchVertex) []model.SearchVertex {
	out := make([]model.SearchVertex, 0, len(vertices))
	for _, v := range vertices {
		if v == nil {
			continue
		}
		out = append(out, model.SearchVertex{Key: v.Key, Value: v.Value})
	}
	return out
}

// FromProtoEdges converts wire edges to search edges
func FromProtoEdges(edges []*pb.SearchEdge) []model.SearchEdge {
	out := make([]model.SearchEdge, 0, len(edges))
	for _, e := range edges {
		if e == nil {
			continue
		}
		out = append(out, model.SearchEdge{
			Key:        e.Key,
			From:       e.From,
			To:         e.To,
			Label:      e.Label,
			LookupFrom: e.LookupFrom,
			LookupTo:   e.LookupTo,
		})
	}
	return out
}

// AccumulatorFromRequest seeds an accumulator with what a caller sent
func AccumulatorFromRequest(req *pb.SearchRequest) *model.SearchAccumulator {
	acc := model.NewSearchAccumulator()
	acc.Merge(FromProtoVertices(req.Vertices), FromProtoEdges(req.Edges), req.IdsSoFar)
	return acc
}

// ResponseFromAccumulator builds the wire response for acc
func ResponseFromAccumulator(acc *model.SearchAccumulator) *pb.SearchResponse {
	return &pb.SearchResponse{
		Vertices: ToProtoVertices(acc.SortedVertices()),
		Edges:    ToProtoEdges(acc.SortedEdges()),
		IdsSoFar: acc.SeenKeys(),
	}
}

// MergeResponse folds a peer's response into acc
func MergeResponse(acc *model.SearchAccumulator, resp *pb.SearchResponse) {
	acc.Merge(FromProtoVertices(resp.Vertices), FromProtoEdges(resp.Edges), resp.IdsSoFar)
}
