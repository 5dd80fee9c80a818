package proto

// ApiVertex is a vertex submitted to, or returned by, the orchestrator.
type ApiVertex struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// ApiEdge is an undirected edge submitted to the orchestrator.
type ApiEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// ApiSearchEdge is an edge in an orchestrator search result.
type ApiSearchEdge struct {
	Key   string `json:"key"`
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

type ApiGraphSummary struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ApiSearchRequest struct {
	QueryKey string `json:"query_key"`
	Level    int32  `json:"level"`
}

type ApiSearchResponse struct {
	Vertices []*ApiVertex     `json:"vertices"`
	Edges    []*ApiSearchEdge `json:"edges"`
}
