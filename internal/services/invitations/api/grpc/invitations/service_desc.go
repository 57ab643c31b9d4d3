package invitations

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "livemory.invitations.v1.InvitationService"

const (
	MethodCreateInvitation      = "/" + ServiceName + "/CreateInvitation"
	MethodGetInvitation         = "/" + ServiceName + "/GetInvitation"
	MethodAcceptInvitation      = "/" + ServiceName + "/AcceptInvitation"
	MethodDeclineInvitation     = "/" + ServiceName + "/DeclineInvitation"
	MethodListInvitations       = "/" + ServiceName + "/ListInvitations"
	MethodCreateGuest           = "/" + ServiceName + "/CreateGuest"
	MethodGetGuest              = "/" + ServiceName + "/GetGuest"
	MethodConvertGuest          = "/" + ServiceName + "/ConvertGuest"
	MethodListGroupMembers      = "/" + ServiceName + "/ListGroupMembers"
	MethodListEventParticipants = "/" + ServiceName + "/ListEventParticipants"
	MethodCreateUser            = "/" + ServiceName + "/CreateUser"
	MethodCreateGroup           = "/" + ServiceName + "/CreateGroup"
	MethodCreateEvent           = "/" + ServiceName + "/CreateEvent"
)

// InvitationServiceServer is the server API for the invitation service.
type InvitationServiceServer interface {
	CreateInvitation(context.Context, *CreateInvitationRequest) (*CreateInvitationResponse, error)
	GetInvitation(context.Context, *GetInvitationRequest) (*GetInvitationResponse, error)
	AcceptInvitation(context.Context, *AcceptInvitationRequest) (*AcceptInvitationResponse, error)
	DeclineInvitation(context.Context, *DeclineInvitationRequest) (*DeclineInvitationResponse, error)
	ListInvitations(context.Context, *ListInvitationsRequest) (*ListInvitationsResponse, error)
	CreateGuest(context.Context, *CreateGuestRequest) (*CreateGuestResponse, error)
	GetGuest(context.Context, *GetGuestRequest) (*GetGuestResponse, error)
	ConvertGuest(context.Context, *ConvertGuestRequest) (*ConvertGuestResponse, error)
	ListGroupMembers(context.Context, *ListGroupMembersRequest) (*ListGroupMembersResponse, error)
	ListEventParticipants(context.Context, *ListEventParticipantsRequest) (*ListEventParticipantsResponse, error)
	CreateUser(context.Context, *CreateUserRequest) (*CreateUserResponse, error)
	CreateGroup(context.Context, *CreateGroupRequest) (*CreateGroupResponse, error)
	CreateEvent(context.Context, *CreateEventRequest) (*CreateEventResponse, error)
}

// ServiceDesc describes the invitation service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InvitationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateInvitation", Handler: unaryHandler(MethodCreateInvitation, InvitationServiceServer.CreateInvitation)},
		{MethodName: "GetInvitation", Handler: unaryHandler(MethodGetInvitation, InvitationServiceServer.GetInvitation)},
		{MethodName: "AcceptInvitation", Handler: unaryHandler(MethodAcceptInvitation, InvitationServiceServer.AcceptInvitation)},
		{MethodName: "DeclineInvitation", Handler: unaryHandler(MethodDeclineInvitation, InvitationServiceServer.DeclineInvitation)},
		{MethodName: "ListInvitations", Handler: unaryHandler(MethodListInvitations, InvitationServiceServer.ListInvitations)},
		{MethodName: "CreateGuest", Handler: unaryHandler(MethodCreateGuest, InvitationServiceServer.CreateGuest)},
		{MethodName: "GetGuest", Handler: unaryHandler(MethodGetGuest, InvitationServiceServer.GetGuest)},
		{MethodName: "ConvertGuest", Handler: unaryHandler(MethodConvertGuest, InvitationServiceServer.ConvertGuest)},
		{MethodName: "ListGroupMembers", Handler: unaryHandler(MethodListGroupMembers, InvitationServiceServer.ListGroupMembers)},
		{MethodName: "ListEventParticipants", Handler: unaryHandler(MethodListEventParticipants, InvitationServiceServer.ListEventParticipants)},
		{MethodName: "CreateUser", Handler: unaryHandler(MethodCreateUser, InvitationServiceServer.CreateUser)},
		{MethodName: "CreateGroup", Handler: unaryHandler(MethodCreateGroup, InvitationServiceServer.CreateGroup)},
		{MethodName: "CreateEvent", Handler: unaryHandler(MethodCreateEvent, InvitationServiceServer.CreateEvent)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "livemory/invitations/v1/invitations.json",
}

// RegisterInvitationServiceServer registers srv on s.
func RegisterInvitationServiceServer(s grpc.ServiceRegistrar, srv InvitationServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unaryHandler adapts a typed server method to grpc.MethodHandler.
func unaryHandler[Req, Resp any](fullMethod string, call func(InvitationServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(InvitationServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(server, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
