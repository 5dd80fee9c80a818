package model

// ShardID identifies a worker shard. It is also the address other processes
// dial to reach it, e.g. "localhost:50061".
type ShardID = string

// VertexRecord is a vertex stored on its owning shard
type VertexRecord struct {
	Key  string
	Data string
}

// DirectedEdgeRecord is one half of an undirected edge, stored under its
// source vertex. OwnerOfTo names the shard holding the target vertex.
type DirectedEdgeRecord struct {
	To        string
	Label     string
	OwnerOfTo ShardID
}

// WorkerDescriptor describes one shard in the orchestrator's placement table
type WorkerDescriptor struct {
	Index   int
	ID      ShardID
	Address string
}

// CanonicalEdgeKey returns the order-independent key of the undirected edge
// between x and y carrying label.
func CanonicalEdgeKey(x, y, label string) string {
	if x < y {
		return x + label + y
	}
	return y + label + x
}
