package graph

import (
	"fmt"
	"io"

	graphErrors "github.com/devrev/graphmesh/internal/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// LoadStats summarises a bulk load
type LoadStats struct {
	Vertices int
	Edges    int
	Skipped  int
}

// LoadJSON seeds the store from a graph document of the form
//
//	{"nodes": {"<key>": {"data": {"value": "..."}}},
//	 "edges": {"<id>": {"from": "...", "to": "...", "data": {"label": "..."}}}}
//
// Every edge is inserted as a local undirected edge. Vertices that already
// exist and edges with a missing endpoint are counted as skipped.
func (s *Store) LoadJSON(r io.Reader) (LoadStats, error) {
	var stats LoadStats

	data, err := io.ReadAll(r)
	if err != nil {
		return stats, fmt.Errorf("failed to read graph document: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return stats, graphErrors.MalformedPayload("graph document is not valid JSON", nil)
	}

	doc := gjson.ParseBytes(data)
	doc.Get("nodes").ForEach(func(key, node gjson.Result) bool {
		if err := s.AddVertex(key.String(), node.Get("data.value").String()); err != nil {
			stats.Skipped++
			return true
		}
		stats.Vertices++
		return true
	})

	doc.Get("edges").ForEach(func(id, edge gjson.Result) bool {
		from := edge.Get("from")
		to := edge.Get("to")
		if !from.Exists() || !to.Exists() {
			s.logger.Warn("Skipping edge without endpoints", zap.String("id", id.String()))
			stats.Skipped++
			return true
		}
		if err := s.AddUndirectedEdge(from.String(), to.String(), edge.Get("data.label").String()); err != nil {
			stats.Skipped++
			return true
		}
		stats.Edges++
		return true
	})

	s.logger.Info("Graph document loaded",
		zap.Int("vertices", stats.Vertices),
		zap.Int("edges", stats.Edges),
		zap.Int("skipped", stats.Skipped))

	return stats, nil
}
