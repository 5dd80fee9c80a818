package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	Graph_AddHost_FullMethodName      = "/graph.Graph/AddHost"
	Graph_AddVertex_FullMethodName    = "/graph.Graph/AddVertex"
	Graph_DeleteVertex_FullMethodName = "/graph.Graph/DeleteVertex"
	Graph_AddEdge_FullMethodName      = "/graph.Graph/AddEdge"
	Graph_DeleteEdge_FullMethodName   = "/graph.Graph/DeleteEdge"
	Graph_Search_FullMethodName       = "/graph.Graph/Search"
	Graph_Ping_FullMethodName         = "/graph.Graph/Ping"
)

// GraphClient is the client API for the shard service.
type GraphClient interface {
	AddHost(ctx context.Context, in *Host, opts ...grpc.CallOption) (*Empty, error)
	AddVertex(ctx context.Context, opts ...grpc.CallOption) (Graph_AddVertexClient, error)
	DeleteVertex(ctx context.Context, opts ...grpc.CallOption) (Graph_DeleteVertexClient, error)
	AddEdge(ctx context.Context, opts ...grpc.CallOption) (Graph_AddEdgeClient, error)
	DeleteEdge(ctx context.Context, opts ...grpc.CallOption) (Graph_DeleteEdgeClient, error)
	Search(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
}

type (
	Graph_AddVertexClient    = grpc.ClientStreamingClient[Vertex, GraphSummary]
	Graph_DeleteVertexClient = grpc.ClientStreamingClient[Vertex, GraphSummary]
	Graph_AddEdgeClient      = grpc.ClientStreamingClient[Edge, GraphSummary]
	Graph_DeleteEdgeClient   = grpc.ClientStreamingClient[Edge, GraphSummary]

	Graph_AddVertexServer    = grpc.ClientStreamingServer[Vertex, GraphSummary]
	Graph_DeleteVertexServer = grpc.ClientStreamingServer[Vertex, GraphSummary]
	Graph_AddEdgeServer      = grpc.ClientStreamingServer[Edge, GraphSummary]
	Graph_DeleteEdgeServer   = grpc.ClientStreamingServer[Edge, GraphSummary]
)

type graphClient struct {
	cc grpc.ClientConnInterface
}

func NewGraphClient(cc grpc.ClientConnInterface) GraphClient {
	return &graphClient{cc}
}

func (c *graphClient) AddHost(ctx context.Context, in *Host, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, Graph_AddHost_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *graphClient) AddVertex(ctx context.Context, opts ...grpc.CallOption) (Graph_AddVertexClient, error) {
	stream, err := c.cc.NewStream(ctx, &Graph_ServiceDesc.Streams[0], Graph_AddVertex_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[Vertex, GraphSummary]{ClientStream: stream}, nil
}

func (c *graphClient) DeleteVertex(ctx context.Context, opts ...grpc.CallOption) (Graph_DeleteVertexClient, error) {
	stream, err := c.cc.NewStream(ctx, &Graph_ServiceDesc.Streams[1], Graph_DeleteVertex_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[Vertex, GraphSummary]{ClientStream: stream}, nil
}

func (c *graphClient) AddEdge(ctx context.Context, opts ...grpc.CallOption) (Graph_AddEdgeClient, error) {
	stream, err := c.cc.NewStream(ctx, &Graph_ServiceDesc.Streams[2], Graph_AddEdge_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[Edge, GraphSummary]{ClientStream: stream}, nil
}

func (c *graphClient) DeleteEdge(ctx context.Context, opts ...grpc.CallOption) (Graph_DeleteEdgeClient, error) {
	stream, err := c.cc.NewStream(ctx, &Graph_ServiceDesc.Streams[3], Graph_DeleteEdge_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[Edge, GraphSummary]{ClientStream: stream}, nil
}

func (c *graphClient) Search(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error) {
	out := new(SearchResponse)
	if err := c.cc.Invoke(ctx, Graph_Search_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *graphClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	out := new(PingResponse)
	if err := c.cc.Invoke(ctx, Graph_Ping_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GraphServer is the server API for the shard service.
type GraphServer interface {
	AddHost(context.Context, *Host) (*Empty, error)
	AddVertex(Graph_AddVertexServer) error
	DeleteVertex(Graph_DeleteVertexServer) error
	AddEdge(Graph_AddEdgeServer) error
	DeleteEdge(Graph_DeleteEdgeServer) error
	Search(context.Context, *SearchRequest) (*SearchResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// UnimplementedGraphServer can be embedded for forward compatibility.
type UnimplementedGraphServer struct{}

func (UnimplementedGraphServer) AddHost(context.Context, *Host) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method AddHost not implemented")
}
func (UnimplementedGraphServer) AddVertex(Graph_AddVertexServer) error {
	return status.Error(codes.Unimplemented, "method AddVertex not implemented")
}
func (UnimplementedGraphServer) DeleteVertex(Graph_DeleteVertexServer) error {
	return status.Error(codes.Unimplemented, "method DeleteVertex not implemented")
}
func (UnimplementedGraphServer) AddEdge(Graph_AddEdgeServer) error {
	return status.Error(codes.Unimplemented, "method AddEdge not implemented")
}
func (UnimplementedGraphServer) DeleteEdge(Graph_DeleteEdgeServer) error {
	return status.Error(codes.Unimplemented, "method DeleteEdge not implemented")
}
func (UnimplementedGraphServer) Search(context.Context, *SearchRequest) (*SearchResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Search not implemented")
}
func (UnimplementedGraphServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}

func RegisterGraphServer(s grpc.ServiceRegistrar, srv GraphServer) {
	s.RegisterService(&Graph_ServiceDesc, srv)
}

func _Graph_AddHost_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Host)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GraphServer).AddHost(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Graph_AddHost_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GraphServer).AddHost(ctx, req.(*Host))
	}
	return interceptor(ctx, in, info, handler)
}

func _Graph_Search_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SearchRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GraphServer).Search(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Graph_Search_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GraphServer).Search(ctx, req.(*SearchRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Graph_Ping_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GraphServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Graph_Ping_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GraphServer).Ping(ctx, req.(*PingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Graph_AddVertex_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(GraphServer).AddVertex(&grpc.GenericServerStream[Vertex, GraphSummary]{ServerStream: stream})
}

func _Graph_DeleteVertex_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(GraphServer).DeleteVertex(&grpc.GenericServerStream[Vertex, GraphSummary]{ServerStream: stream})
}

func _Graph_AddEdge_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(GraphServer).AddEdge(&grpc.GenericServerStream[Edge, GraphSummary]{ServerStream: stream})
}

func _Graph_DeleteEdge_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(GraphServer).DeleteEdge(&grpc.GenericServerStream[Edge, GraphSummary]{ServerStream: stream})
}

// Graph_ServiceDesc is the grpc.ServiceDesc for the shard service.
var Graph_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "graph.Graph",
	HandlerType: (*GraphServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddHost", Handler: _Graph_AddHost_Handler},
		{MethodName: "Search", Handler: _Graph_Search_Handler},
		{MethodName: "Ping", Handler: _Graph_Ping_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "AddVertex", Handler: _Graph_AddVertex_Handler, ClientStreams: true},
		{StreamName: "DeleteVertex", Handler: _Graph_DeleteVertex_Handler, ClientStreams: true},
		{StreamName: "AddEdge", Handler: _Graph_AddEdge_Handler, ClientStreams: true},
		{StreamName: "DeleteEdge", Handler: _Graph_DeleteEdge_Handler, ClientStreams: true},
	},
	Metadata: "graph.proto",
}
