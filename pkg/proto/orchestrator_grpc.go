package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	Orchestrator_AddVertex_FullMethodName    = "/orchestrator.Orchestrator/AddVertex"
	Orchestrator_DeleteVertex_FullMethodName = "/orchestrator.Orchestrator/DeleteVertex"
	Orchestrator_AddEdge_FullMethodName      = "/orchestrator.Orchestrator/AddEdge"
	Orchestrator_DeleteEdge_FullMethodName   = "/orchestrator.Orchestrator/DeleteEdge"
	Orchestrator_Search_FullMethodName       = "/orchestrator.Orchestrator/Search"
)

// OrchestratorClient is the client API for the user-facing service.
type OrchestratorClient interface {
	AddVertex(ctx context.Context, in *ApiVertex, opts ...grpc.CallOption) (*ApiGraphSummary, error)
	DeleteVertex(ctx context.Context, in *ApiVertex, opts ...grpc.CallOption) (*ApiGraphSummary, error)
	AddEdge(ctx context.Context, in *ApiEdge, opts ...grpc.CallOption) (*ApiGraphSummary, error)
	DeleteEdge(ctx context.Context, in *ApiEdge, opts ...grpc.CallOption) (*ApiGraphSummary, error)
	Search(ctx context.Context, in *ApiSearchRequest, opts ...grpc.CallOption) (*ApiSearchResponse, error)
}

type orchestratorClient struct {
	cc grpc.ClientConnInterface
}

func NewOrchestratorClient(cc grpc.ClientConnInterface) OrchestratorClient {
	return &orchestratorClient{cc}
}

func (c *orchestratorClient) AddVertex(ctx context.Context, in *ApiVertex, opts ...grpc.CallOption) (*ApiGraphSummary, error) {
	out := new(ApiGraphSummary)
	if err := c.cc.Invoke(ctx, Orchestrator_AddVertex_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orchestratorClient) DeleteVertex(ctx context.Context, in *ApiVertex, opts ...grpc.CallOption) (*ApiGraphSummary, error) {
	out := new(ApiGraphSummary)
	if err := c.cc.Invoke(ctx, Orchestrator_DeleteVertex_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orchestratorClient) AddEdge(ctx context.Context, in *ApiEdge, opts ...grpc.CallOption) (*ApiGraphSummary, error) {
	out := new(ApiGraphSummary)
	if err := c.cc.Invoke(ctx, Orchestrator_AddEdge_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orchestratorClient) DeleteEdge(ctx context.Context, in *ApiEdge, opts ...grpc.CallOption) (*ApiGraphSummary, error) {
	out := new(ApiGraphSummary)
	if err := c.cc.Invoke(ctx, Orchestrator_DeleteEdge_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orchestratorClient) Search(ctx context.Context, in *ApiSearchRequest, opts ...grpc.CallOption) (*ApiSearchResponse, error) {
	out := new(ApiSearchResponse)
	if err := c.cc.Invoke(ctx, Orchestrator_Search_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// OrchestratorServer is the server API for the user-facing service.
type OrchestratorServer interface {
	AddVertex(context.Context, *ApiVertex) (*ApiGraphSummary, error)
	DeleteVertex(context.Context, *ApiVertex) (*ApiGraphSummary, error)
	AddEdge(context.Context, *ApiEdge) (*ApiGraphSummary, error)
	DeleteEdge(context.Context, *ApiEdge) (*ApiGraphSummary, error)
	Search(context.Context, *ApiSearchRequest) (*ApiSearchResponse, error)
}

type UnimplementedOrchestratorServer struct{}

func (UnimplementedOrchestratorServer) AddVertex(context.Context, *ApiVertex) (*ApiGraphSummary, error) {
	return nil, status.Error(codes.Unimplemented, "method AddVertex not implemented")
}
func (UnimplementedOrchestratorServer) DeleteVertex(context.Context, *ApiVertex) (*ApiGraphSummary, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteVertex not implemented")
}
func (UnimplementedOrchestratorServer) AddEdge(context.Context, *ApiEdge) (*ApiGraphSummary, error) {
	return nil, status.Error(codes.Unimplemented, "method AddEdge not implemented")
}
func (UnimplementedOrchestratorServer) DeleteEdge(context.Context, *ApiEdge) (*ApiGraphSummary, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteEdge not implemented")
}
func (UnimplementedOrchestratorServer) Search(context.Context, *ApiSearchRequest) (*ApiSearchResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Search not implemented")
}

func RegisterOrchestratorServer(s grpc.ServiceRegistrar, srv OrchestratorServer) {
	s.RegisterService(&Orchestrator_ServiceDesc, srv)
}

func _Orchestrator_AddVertex_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ApiVertex)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrchestratorServer).AddVertex(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Orchestrator_AddVertex_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrchestratorServer).AddVertex(ctx, req.(*ApiVertex))
	}
	return interceptor(ctx, in, info, handler)
}

func _Orchestrator_DeleteVertex_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ApiVertex)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrchestratorServer).DeleteVertex(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Orchestrator_DeleteVertex_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrchestratorServer).DeleteVertex(ctx, req.(*ApiVertex))
	}
	return interceptor(ctx, in, info, handler)
}

func _Orchestrator_AddEdge_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ApiEdge)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrchestratorServer).AddEdge(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Orchestrator_AddEdge_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrchestratorServer).AddEdge(ctx, req.(*ApiEdge))
	}
	return interceptor(ctx, in, info, handler)
}

func _Orchestrator_DeleteEdge_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ApiEdge)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrchestratorServer).DeleteEdge(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Orchestrator_DeleteEdge_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrchestratorServer).DeleteEdge(ctx, req.(*ApiEdge))
	}
	return interceptor(ctx, in, info, handler)
}

func _Orchestrator_Search_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ApiSearchRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrchestratorServer).Search(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Orchestrator_Search_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrchestratorServer).Search(ctx, req.(*ApiSearchRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Orchestrator_ServiceDesc is the grpc.ServiceDesc for the orchestrator service.
var Orchestrator_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "orchestrator.Orchestrator",
	HandlerType: (*OrchestratorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddVertex", Handler: _Orchestrator_AddVertex_Handler},
		{MethodName: "DeleteVertex", Handler: _Orchestrator_DeleteVertex_Handler},
		{MethodName: "AddEdge", Handler: _Orchestrator_AddEdge_Handler},
		{MethodName: "DeleteEdge", Handler: _Orchestrator_DeleteEdge_Handler},
		{MethodName: "Search", Handler: _Orchestrator_Search_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orchestrator.proto",
}
