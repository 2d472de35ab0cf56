package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "blockwire.v1.BlockRelay"

const (
	submitBlockMethod = "/" + ServiceName + "/SubmitBlock"
	getBlockMethod    = "/" + ServiceName + "/GetBlock"
	getTipMethod      = "/" + ServiceName + "/GetTip"
)

// BlockRelayServer is the server API for the block relay service. Blocks
// travel as wire frames and hashes as their 32 raw bytes.
type BlockRelayServer interface {
	SubmitBlock(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	GetBlock(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	GetTip(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
}

// RegisterBlockRelayServer registers srv on s.
func RegisterBlockRelayServer(s grpc.ServiceRegistrar, srv BlockRelayServer) {
	s.RegisterService(&blockRelayServiceDesc, srv)
}

var blockRelayServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BlockRelayServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitBlock", Handler: submitBlockHandler},
		{MethodName: "GetBlock", Handler: getBlockHandler},
		{MethodName: "GetTip", Handler: getTipHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "blockwire/v1/relay.proto",
}

func submitBlockHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BlockRelayServer).SubmitBlock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: submitBlockMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BlockRelayServer).SubmitBlock(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getBlockHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BlockRelayServer).GetBlock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getBlockMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BlockRelayServer).GetBlock(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getTipHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BlockRelayServer).GetTip(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getTipMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BlockRelayServer).GetTip(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
