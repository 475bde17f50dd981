package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "recquery.v1.QueryService"

// Full method names.
const (
	FindMethod         = "/" + ServiceName + "/Find"
	ExtractMethod      = "/" + ServiceName + "/Extract"
	ListDatasetsMethod = "/" + ServiceName + "/ListDatasets"
)

// ProtoFile is the descriptor path of the service definition.
const ProtoFile = "recquery/v1/query.proto"

// File_recquery_v1_query_proto describes the service so that reflection
// clients can resolve its methods. It is registered in
// protoregistry.GlobalFiles on package initialisation.
var File_recquery_v1_query_proto = registerQueryProto()

func registerQueryProto() protoreflect.FileDescriptor {
	const structType = ".google.protobuf.Struct"
	method := func(name string) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(structType),
			OutputType: proto.String(structType),
		}
	}

	// Importing structpb registers google/protobuf/struct.proto.
	fdp := &descriptorpb.FileDescriptorProto{
		Name:       proto.String(ProtoFile),
		Package:    proto.String("recquery.v1"),
		Dependency: []string{(&structpb.Struct{}).ProtoReflect().Descriptor().ParentFile().Path()},
		Syntax:     proto.String("proto3"),
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("QueryService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("Find"),
				method("Extract"),
				method("ListDatasets"),
			},
		}},
	}

	fd, err := protodesc.NewFile(fdp, protoregistry.GlobalFiles)
	if err != nil {
		panic("recquery: invalid service descriptor: " + err.Error())
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic("recquery: " + err.Error())
	}
	return fd
}

// QueryServiceServer is the server API for the query service. Requests and
// responses are google.protobuf.Struct documents so records keep their
// schemaless shape on the wire.
type QueryServiceServer interface {
	// Find runs a query against a named dataset.
	//
	// Request:  {"dataset": "people", "options": {...}, "select": "all", "reindex": false}
	// Response: {"found": true, "key": ..., "record": ..., "records": [{"key": ..., "record": ...}], "diagnostics": [...]}
	Find(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Extract resolves a key path against one record.
	//
	// Request:  {"dataset": "people", "key": 0, "path": "address.city"} or {"item": {...}, "path": "..."}
	// Response: {"values": [...]}
	Extract(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ListDatasets reports the registered datasets.
	//
	// Response: {"datasets": [{"name": "people", "records": 4}]}
	ListDatasets(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterQueryServiceServer registers srv with s.
func RegisterQueryServiceServer(s grpc.ServiceRegistrar, srv QueryServiceServer) {
	s.RegisterService(&QueryServiceDesc, srv)
}

func unaryHandler(method string, call func(QueryServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(QueryServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(QueryServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// QueryServiceDesc is the grpc.ServiceDesc for the query service.
var QueryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QueryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Find",
			Handler:    unaryHandler(FindMethod, QueryServiceServer.Find),
		},
		{
			MethodName: "Extract",
			Handler:    unaryHandler(ExtractMethod, QueryServiceServer.Extract),
		},
		{
			MethodName: "ListDatasets",
			Handler:    unaryHandler(ListDatasetsMethod, QueryServiceServer.ListDatasets),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: ProtoFile,
}

// QueryClient calls the query service over a client connection.
type QueryClient struct {
	cc grpc.ClientConnInterface
}

// NewQueryClient creates a client over cc.
func NewQueryClient(cc grpc.ClientConnInterface) *QueryClient {
	return &QueryClient{cc: cc}
}

func (c *QueryClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Find calls QueryService.Find.
func (c *QueryClient) Find(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, FindMethod, in, opts...)
}

// Extract calls QueryService.Extract.
func (c *QueryClient) Extract(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ExtractMethod, in, opts...)
}

// ListDatasets calls QueryService.ListDatasets.
func (c *QueryClient) ListDatasets(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ListDatasetsMethod, &structpb.Struct{}, opts...)
}
