package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "attrition.v1.AttritionEngine"

const (
	methodAnalyze  = "/" + ServiceName + "/Analyze"
	methodExport   = "/" + ServiceName + "/Export"
	methodDescribe = "/" + ServiceName + "/Describe"
	methodReload   = "/" + ServiceName + "/Reload"
)

// AttritionEngineServer is the server API for the AttritionEngine service.
// Requests and responses are google.protobuf.Struct documents.
type AttritionEngineServer interface {
	Analyze(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Export(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Describe(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reload(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAttritionEngineServer registers srv on s.
func RegisterAttritionEngineServer(s grpc.ServiceRegistrar, srv AttritionEngineServer) {
	s.RegisterService(&AttritionEngineServiceDesc, srv)
}

type unaryMethod func(srv AttritionEngineServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

// methodHandler matches grpc.MethodDesc.Handler.
type methodHandler = func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error)

func unaryHandler(fullMethod string, call unaryMethod) methodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AttritionEngineServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AttritionEngineServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AttritionEngineServiceDesc describes the AttritionEngine service for
// grpc.Server.RegisterService.
var AttritionEngineServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AttritionEngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Analyze",
			Handler: unaryHandler(methodAnalyze, func(srv AttritionEngineServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.Analyze(ctx, in)
			}),
		},
		{
			MethodName: "Export",
			Handler: unaryHandler(methodExport, func(srv AttritionEngineServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.Export(ctx, in)
			}),
		},
		{
			MethodName: "Describe",
			Handler: unaryHandler(methodDescribe, func(srv AttritionEngineServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.Describe(ctx, in)
			}),
		},
		{
			MethodName: "Reload",
			Handler: unaryHandler(methodReload, func(srv AttritionEngineServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.Reload(ctx, in)
			}),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// AttritionEngineClient is the client API for the AttritionEngine service.
type AttritionEngineClient struct {
	cc grpc.ClientConnInterface
}

// NewAttritionEngineClient wraps an existing connection.
func NewAttritionEngineClient(cc grpc.ClientConnInterface) *AttritionEngineClient {
	return &AttritionEngineClient{cc: cc}
}

func (c *AttritionEngineClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Analyze runs an analysis for the filter in the request.
func (c *AttritionEngineClient) Analyze(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodAnalyze, in, opts...)
}

// Export renders one export kind for the filter in the request.
func (c *AttritionEngineClient) Export(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodExport, in, opts...)
}

// Describe reports the loaded dataset and engine settings.
func (c *AttritionEngineClient) Describe(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodDescribe, in, opts...)
}

// Reload re-reads the configured dataset.
func (c *AttritionEngineClient) Reload(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodReload, in, opts...)
}
