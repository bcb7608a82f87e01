package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages are google.protobuf.Struct documents shaped like the HTTP JSON
// bodies, which keeps the service usable without generated stubs.

const (
	ServiceName = "thequeue.v1.QueueService"

	listRequestsMethod   = "/" + ServiceName + "/ListRequests"
	submitMutationMethod = "/" + ServiceName + "/SubmitMutation"
	streamSessionMethod  = "/" + ServiceName + "/StreamSession"
)

type QueueServiceServer interface {
	ListRequests(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitMutation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StreamSession(*structpb.Struct, QueueService_StreamSessionServer) error
}

type QueueService_StreamSessionServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type queueServiceStreamSessionServer struct {
	grpc.ServerStream
}

func (x *queueServiceStreamSessionServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

func RegisterQueueServiceServer(s grpc.ServiceRegistrar, srv QueueServiceServer) {
	s.RegisterService(&QueueService_ServiceDesc, srv)
}

func _QueueService_ListRequests_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueueServiceServer).ListRequests(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: listRequestsMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueueServiceServer).ListRequests(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _QueueService_SubmitMutation_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueueServiceServer).SubmitMutation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: submitMutationMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueueServiceServer).SubmitMutation(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _QueueService_StreamSession_Handler(srv any, stream grpc.ServerStream) error {
	m := new(structpb.Struct)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(QueueServiceServer).StreamSession(m, &queueServiceStreamSessionServer{stream})
}

var QueueService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QueueServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListRequests",
			Handler:    _QueueService_ListRequests_Handler,
		},
		{
			MethodName: "SubmitMutation",
			Handler:    _QueueService_SubmitMutation_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamSession",
			Handler:       _QueueService_StreamSession_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "thequeue/v1/queue.proto",
}

// QueueServiceClient is the client side of QueueService.
type QueueServiceClient interface {
	ListRequests(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SubmitMutation(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	StreamSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (QueueService_StreamSessionClient, error)
}

type QueueService_StreamSessionClient interface {
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

type queueServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewQueueServiceClient(cc grpc.ClientConnInterface) QueueServiceClient {
	return &queueServiceClient{cc}
}

func (c *queueServiceClient) ListRequests(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, listRequestsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *queueServiceClient) SubmitMutation(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, submitMutationMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *queueServiceClient) StreamSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (QueueService_StreamSessionClient, error) {
	stream, err := c.cc.NewStream(ctx, &QueueService_ServiceDesc.Streams[0], streamSessionMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &queueServiceStreamSessionClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type queueServiceStreamSessionClient struct {
	grpc.ClientStream
}

func (x *queueServiceStreamSessionClient) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
