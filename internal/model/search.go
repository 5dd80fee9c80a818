package model

import "sort"

// SearchVertex is a vertex projection collected during a search
type SearchVertex struct {
	Key   string
	Value string
}

// SearchEdge is an edge projection collected during a search.
// Key is the canonical key; From and To keep the expansion direction.
type SearchEdge struct {
	Key        string
	From       string
	To         string
	Label      string
	LookupFrom ShardID
	LookupTo   ShardID
}

// SearchAccumulator collects the results of a single distributed search call.
// Seen only ever grows: once a key is in it, it is never expanded again.
type SearchAccumulator struct {
	Vertices map[string]SearchVertex
	Edges    map[string]SearchEdge
	Seen     map[string]struct{}
}

// NewSearchAccumulator creates an empty accumulator
func NewSearchAccumulator() *SearchAccumulator {
	return &SearchAccumulator{
		Vertices: make(map[string]SearchVertex),
		Edges:    make(map[string]SearchEdge),
		Seen:     make(map[string]struct{}),
	}
}

// MarkSeen adds key to the visited set and reports whether it was new.
func (a *SearchAccumulator) MarkSeen(key string) bool {
	if _, ok := a.Seen[key]; ok {
		return false
	}
	a.Seen[key] = struct{}{}
	return true
}

// HasSeen reports whether key has been visited
func (a *SearchAccumulator) HasSeen(key string) bool {
	_, ok := a.Seen[key]
	return ok
}

// AddVertex records a vertex projection
func (a *SearchAccumulator) AddVertex(v SearchVertex) {
	a.Vertices[v.Key] = v
}

// AddEdge records an edge projection under its canonical key. The first
// projection recorded for a key wins.
func (a *SearchAccumulator) AddEdge(e SearchEdge) {
	if _, ok := a.Edges[e.Key]; ok {
		return
	}
	a.Edges[e.Key] = e
}

// SeenKeys returns the visited set as a sorted slice
func (a *SearchAccumulator) SeenKeys() []string {
	keys := make([]string, 0, len(a.Seen))
	for k := range a.Seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge folds a remote shard's findings into the accumulator.
func (a *SearchAccumulator) Merge(vertices []SearchVertex, edges []SearchEdge, seen []string) {
	for _, v := range vertices {
		a.AddVertex(v)
	}
	for _, e := range edges {
		a.AddEdge(e)
	}
	for _, k := range seen {
		a.Seen[k] = struct{}{}
	}
}

// SortedVertices returns the collected vertices ordered by key
func (a *SearchAccumulator) SortedVertices() []SearchVertex {
	out := make([]SearchVertex, 0, len(a.Vertices))
	for _, v := range a.Vertices {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// SortedEdges returns the collected edges ordered by canonical key
func (a *SearchAccumulator) SortedEdges() []SearchEdge {
	out := make([]SearchEdge, 0, len(a.Edges))
	for _, e := range a.Edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
