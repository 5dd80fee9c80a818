package proto

// Vertex is a vertex mutation sent to a shard.
type Vertex struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// Edge is one directed half of an undirected edge. LookupFrom and LookupTo
// carry the shard ids owning each endpoint.
type Edge struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Label      string `json:"label,omitempty"`
	LookupFrom string `json:"lookup_from,omitempty"`
	LookupTo   string `json:"lookup_to,omitempty"`
	// MatchLabel restricts DeleteEdge to the half carrying Label.
	MatchLabel bool `json:"match_label,omitempty"`
}

// Host advertises a peer shard: Key is its shard id, Address is what to dial.
type Host struct {
	Key     string `json:"key"`
	Address string `json:"address"`
}

// Empty is returned by calls with no payload.
type Empty struct{}

// GraphSummary is returned by the streaming mutation calls once the client
// closes its side.
type GraphSummary struct {
	VertexCount int64 `json:"vertex_count"`
	EdgeCount   int64 `json:"edge_count"`
	Applied     int64 `json:"applied"`
	Conflicts   int64 `json:"conflicts"`
	Missing     int64 `json:"missing"`
}

// SearchVertex is a vertex projection in a search result.
type SearchVertex struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SearchEdge is an edge projection in a search result, keyed by its
// canonical key.
type SearchEdge struct {
	Key        string `json:"key"`
	From       string `json:"from"`
	To         string `json:"to"`
	Label      string `json:"label"`
	LookupFrom string `json:"lookup_from,omitempty"`
	LookupTo   string `json:"lookup_to,omitempty"`
}

// SearchRequest asks a shard to expand StartKey with Level hops remaining.
// IdsSoFar carries every key already visited by the caller.
type SearchRequest struct {
	StartKey string          `json:"start_key"`
	Level    int32           `json:"level"`
	Vertices []*SearchVertex `json:"vertices,omitempty"`
	Edges    []*SearchEdge   `json:"edges,omitempty"`
	IdsSoFar []string        `json:"ids_so_far,omitempty"`
}

// SearchResponse carries everything the callee discovered plus the grown
// visited set.
type SearchResponse struct {
	Vertices []*SearchVertex `json:"vertices,omitempty"`
	Edges    []*SearchEdge   `json:"edges,omitempty"`
	IdsSoFar []string        `json:"ids_so_far,omitempty"`
}

type PingRequest struct {
	Data string `json:"data"`
}

type PingResponse struct {
	Data string `json:"data"`
}
