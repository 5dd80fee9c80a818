package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/devrev/graphmesh/internal/model"
	pb "github.com/devrev/graphmesh/pkg/proto"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ShardClient talks to a single shard over gRPC
type ShardClient struct {
	id      model.ShardID
	address string
	conn    *grpc.ClientConn
	client  pb.GraphClient
	timeout time.Duration
	logger  *zap.Logger
}

// NewShardClient creates a client for the shard id reachable at address.
// The connection is established lazily on first use.
func NewShardClient(id model.ShardID, address string, timeout time.Duration, logger *zap.Logger, opts ...grpc.DialOption) (*ShardClient, error) {
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		pb.CallOptions(),
	}, opts...)

	conn, err := grpc.NewClient(address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for shard %s: %w", id, err)
	}

	return &ShardClient{
		id:      id,
		address: address,
		conn:    conn,
		client:  pb.NewGraphClient(conn),
		timeout: timeout,
		logger:  logger.With(zap.String("shard", id)),
	}, nil
}

// ID returns the shard id this client targets
func (c *ShardClient) ID() model.ShardID {
	return c.id
}

// Address returns the dial address of the shard
func (c *ShardClient) Address() string {
	return c.address
}

// AddHost tells the shard how to reach the peer identified by key
func (c *ShardClient) AddHost(ctx context.Context, key, address string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.client.AddHost(ctx, &pb.Host{Key: key, Address: address}); err != nil {
		return fmt.Errorf("AddHost RPC failed: %w", err)
	}
	return nil
}

// AddVertex inserts vertices on the shard
func (c *ShardClient) AddVertex(ctx context.Context, vertices ...*pb.Vertex) (*pb.GraphSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream, err := c.client.AddVertex(ctx)
	if err != nil {
		return nil, fmt.Errorf("AddVertex RPC failed: %w", err)
	}
	summary, err := sendAll(stream, vertices)
	if err != nil {
		return nil, fmt.Errorf("AddVertex RPC failed: %w", err)
	}
	return summary, nil
}

// DeleteVertex removes vertices, and their outgoing edges, from the shard
func (c *ShardClient) DeleteVertex(ctx context.Context, vertices ...*pb.Vertex) (*pb.GraphSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream, err := c.client.DeleteVertex(ctx)
	if err != nil {
		return nil, fmt.Errorf("DeleteVertex RPC failed: %w", err)
	}
	summary, err := sendAll(stream, vertices)
	if err != nil {
		return nil, fmt.Errorf("DeleteVertex RPC failed: %w", err)
	}
	return summary, nil
}

// AddEdge inserts directed edge halves on the shard
func (c *ShardClient) AddEdge(ctx context.Context, edges ...*pb.Edge) (*pb.GraphSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream, err := c.client.AddEdge(ctx)
	if err != nil {
		return nil, fmt.Errorf("AddEdge RPC failed: %w", err)
	}
	summary, err := sendAll(stream, edges)
	if err != nil {
		return nil, fmt.Errorf("AddEdge RPC failed: %w", err)
	}
	return summary, nil
}

// DeleteEdge removes directed edge halves from the shard
func (c *ShardClient) DeleteEdge(ctx context.Context, edges ...*pb.Edge) (*pb.GraphSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream, err := c.client.DeleteEdge(ctx)
	if err != nil {
		return nil, fmt.Errorf("DeleteEdge RPC failed: %w", err)
	}
	summary, err := sendAll(stream, edges)
	if err != nil {
		return nil, fmt.Errorf("DeleteEdge RPC failed: %w", err)
	}
	return summary, nil
}

// Search asks the shard to expand key with level hops remaining. seen is the
// caller's visited set; vertices and edges already found are not resent.
func (c *ShardClient) Search(ctx context.Context, key string, level int, seen []string) (*pb.SearchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Search(ctx, &pb.SearchRequest{
		StartKey: key,
		Level:    int32(level),
		IdsSoFar: seen,
	})
	if err != nil {
		return nil, fmt.Errorf("Search RPC failed: %w", err)
	}
	return resp, nil
}

// Ping checks the shard is alive
func (c *ShardClient) Ping(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.client.Ping(ctx, &pb.PingRequest{Data: "ping"})
	if err != nil {
		return fmt.Errorf("ping %s failed: %w", c.id, err)
	}
	if resp.Data != model.PingReply {
		return fmt.Errorf("ping %s: unexpected reply %q", c.id, resp.Data)
	}
	return nil
}

// Close closes the underlying connection
func (c *ShardClient) Close() error {
	return c.conn.Close()
}

// sendAll streams items and returns the shard's summary once the stream is
// closed. A server-side abort surfaces from CloseAndRecv.
func sendAll[T any](stream grpc.ClientStreamingClient[T, pb.GraphSummary], items []*T) (*pb.GraphSummary, error) {
	for _, item := range items {
		if err := stream.Send(item); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
	}
	return stream.CloseAndRecv()
}
