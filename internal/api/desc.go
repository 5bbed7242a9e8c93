// Package api exposes the inbox controller over gRPC. Requests and replies
// are google.protobuf.Struct values carrying the JSON form of the types in
// types.go, so no generated code is needed on either side.
package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "freightmsg.v1.Inbox"

// Method names.
const (
	MethodGetSession         = "GetSession"
	MethodGetView            = "GetView"
	MethodListConversations  = "ListConversations"
	MethodOpenConversation   = "OpenConversation"
	MethodSetDraft           = "SetDraft"
	MethodSendMessage        = "SendMessage"
	MethodDeleteConversation = "DeleteConversation"
	MethodApplyDeepLink      = "ApplyDeepLink"
	MethodSearchMessages     = "SearchMessages"
	MethodListOutbox         = "ListOutbox"
	MethodLogout             = "Logout"
	MethodWatchEvents        = "WatchEvents"
)

// InboxServer is the server side of the Inbox service.
type InboxServer interface {
	GetSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetView(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListConversations(context.Context, *structpb.Struct) (*structpb.Struct, error)
	OpenConversation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetDraft(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SendMessage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteConversation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyDeepLink(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SearchMessages(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListOutbox(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchEvents(*structpb.Struct, grpc.ServerStream) error
}

type unaryFunc func(InboxServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(InboxServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(InboxServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(InboxServer).WatchEvents(in, stream)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// ServiceDesc describes the Inbox service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InboxServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodGetSession, InboxServer.GetSession),
		unary(MethodGetView, InboxServer.GetView),
		unary(MethodListConversations, InboxServer.ListConversations),
		unary(MethodOpenConversation, InboxServer.OpenConversation),
		unary(MethodSetDraft, InboxServer.SetDraft),
		unary(MethodSendMessage, InboxServer.SendMessage),
		unary(MethodDeleteConversation, InboxServer.DeleteConversation),
		unary(MethodApplyDeepLink, InboxServer.ApplyDeepLink),
		unary(MethodSearchMessages, InboxServer.SearchMessages),
		unary(MethodListOutbox, InboxServer.ListOutbox),
		unary(MethodLogout, InboxServer.Logout),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    MethodWatchEvents,
			Handler:       watchEventsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "freightmsg/v1/inbox.proto",
}

// RegisterInboxServer registers srv on s.
func RegisterInboxServer(s grpc.ServiceRegistrar, srv InboxServer) {
	s.RegisterService(&ServiceDesc, srv)
}
