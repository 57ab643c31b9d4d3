package invitations

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls the invitation service over a JSON-coded connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc. Calls always select the JSON content subtype.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(ContentSubtype)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateInvitation(ctx context.Context, in *CreateInvitationRequest, opts ...grpc.CallOption) (*CreateInvitationResponse, error) {
	return invoke[CreateInvitationResponse](ctx, c.cc, MethodCreateInvitation, in, opts)
}

func (c *Client) GetInvitation(ctx context.Context, in *GetInvitationRequest, opts ...grpc.CallOption) (*GetInvitationResponse, error) {
	return invoke[GetInvitationResponse](ctx, c.cc, MethodGetInvitation, in, opts)
}

func (c *Client) AcceptInvitation(ctx context.Context, in *AcceptInvitationRequest, opts ...grpc.CallOption) (*AcceptInvitationResponse, error) {
	return invoke[AcceptInvitationResponse](ctx, c.cc, MethodAcceptInvitation, in, opts)
}

func (c *Client) DeclineInvitation(ctx context.Context, in *DeclineInvitationRequest, opts ...grpc.CallOption) (*DeclineInvitationResponse, error) {
	return invoke[DeclineInvitationResponse](ctx, c.cc, MethodDeclineInvitation, in, opts)
}

func (c *Client) ListInvitations(ctx context.Context, in *ListInvitationsRequest, opts ...grpc.CallOption) (*ListInvitationsResponse, error) {
	return invoke[ListInvitationsResponse](ctx, c.cc, MethodListInvitations, in, opts)
}

func (c *Client) CreateGuest(ctx context.Context, in *CreateGuestRequest, opts ...grpc.CallOption) (*CreateGuestResponse, error) {
	return invoke[CreateGuestResponse](ctx, c.cc, MethodCreateGuest, in, opts)
}

func (c *Client) GetGuest(ctx context.Context, in *GetGuestRequest, opts ...grpc.CallOption) (*GetGuestResponse, error) {
	return invoke[GetGuestResponse](ctx, c.cc, MethodGetGuest, in, opts)
}

func (c *Client) ConvertGuest(ctx context.Context, in *ConvertGuestRequest, opts ...grpc.CallOption) (*ConvertGuestResponse, error) {
	return invoke[ConvertGuestResponse](ctx, c.cc, MethodConvertGuest, in, opts)
}

func (c *Client) ListGroupMembers(ctx context.Context, in *ListGroupMembersRequest, opts ...grpc.CallOption) (*ListGroupMembersResponse, error) {
	return invoke[ListGroupMembersResponse](ctx, c.cc, MethodListGroupMembers, in, opts)
}

func (c *Client) ListEventParticipants(ctx context.Context, in *ListEventParticipantsRequest, opts ...grpc.CallOption) (*ListEventParticipantsResponse, error) {
	return invoke[ListEventParticipantsResponse](ctx, c.cc, MethodListEventParticipants, in, opts)
}

func (c *Client) CreateUser(ctx context.Context, in *CreateUserRequest, opts ...grpc.CallOption) (*CreateUserResponse, error) {
	return invoke[CreateUserResponse](ctx, c.cc, MethodCreateUser, in, opts)
}

func (c *Client) CreateGroup(ctx context.Context, in *CreateGroupRequest, opts ...grpc.CallOption) (*CreateGroupResponse, error) {
	return invoke[CreateGroupResponse](ctx, c.cc, MethodCreateGroup, in, opts)
}

func (c *Client) CreateEvent(ctx context.Context, in *CreateEventRequest, opts ...grpc.CallOption) (*CreateEventResponse, error) {
	return invoke[CreateEventResponse](ctx, c.cc, MethodCreateEvent, in, opts)
}
