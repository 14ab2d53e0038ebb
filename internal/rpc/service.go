// Package rpc serves comparisons over gRPC. Requests and reports travel as
// google.protobuf.Struct values shaped like the HTTP API's JSON bodies.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified gRPC name of the comparison service.
	ServiceName   = "tcpspectra.v1.CompareService"
	compareMethod = "/" + ServiceName + "/Compare"
)

// CompareServiceServer is the server API for the comparison service.
type CompareServiceServer interface {
	Compare(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func compareHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CompareServiceServer).Compare(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: compareMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CompareServiceServer).Compare(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// CompareServiceDesc describes the comparison service for grpc.Server.RegisterService.
var CompareServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CompareServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Compare",
			Handler:    compareHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tcpspectra/v1/compare.proto",
}

// RegisterCompareServiceServer registers srv on s.
func RegisterCompareServiceServer(s grpc.ServiceRegistrar, srv CompareServiceServer) {
	s.RegisterService(&CompareServiceDesc, srv)
}
