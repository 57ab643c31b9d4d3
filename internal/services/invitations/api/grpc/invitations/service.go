// Package invitations exposes the invitation lifecycle, guest identities,
// and membership rosters over gRPC.
package invitations

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/ITOUMEUCK/livemory/internal/platform/errors"
	"github.com/ITOUMEUCK/livemory/internal/platform/grpc/pagination"
	"github.com/ITOUMEUCK/livemory/internal/platform/requestctx"
	"github.com/ITOUMEUCK/livemory/internal/platform/storage/cursor"
	"github.com/ITOUMEUCK/livemory/internal/services/invitations/domain"
)

// DefaultBaseURL prefixes invitation links when none is configured.
const DefaultBaseURL = "http://localhost:8080"

// Deps wires a Service.
type Deps struct {
	Invitations *domain.InvitationService
	Guests      *domain.GuestService
	Roster      *domain.Roster
	Directory   *domain.DirectoryService
	// BaseURL is the public origin invitation links point at.
	BaseURL string
}

// Service implements InvitationServiceServer over the domain services.
type Service struct {
	invitations *domain.InvitationService
	guests      *domain.GuestService
	roster      *domain.Roster
	directory   *domain.DirectoryService
	baseURL     string
}

var _ InvitationServiceServer = (*Service)(nil)

// NewService creates the gRPC invitation service.
func NewService(deps Deps) *Service {
	baseURL := strings.TrimRight(strings.TrimSpace(deps.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Service{
		invitations: deps.Invitations,
		guests:      deps.Guests,
		roster:      deps.Roster,
		directory:   deps.Directory,
		baseURL:     baseURL,
	}
}

// CreateInvitation issues a pending invitation for a group or an event.
func (s *Service) CreateInvitation(ctx context.Context, in *CreateInvitationRequest) (*CreateInvitationResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "create invitation request is required")
	}
	if s == nil || s.invitations == nil {
		return nil, status.Error(codes.Internal, "invitation service is not configured")
	}
	target, err := domain.NewTarget(in.GroupID, in.EventID)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	inv, err := s.invitations.Create(ctx, domain.CreateInvitationInput{
		Target:          target,
		InvitedByUserID: in.InvitedByUserID,
		InvitedEmail:    in.InvitedEmail,
		InvitedPhone:    in.InvitedPhone,
		Role:            in.Role,
		ValidityDays:    int(in.ValidityDays),
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &CreateInvitationResponse{Invitation: s.invitationToWire(inv)}, nil
}

// GetInvitation looks an invitation up by token, expiring it if overdue.
func (s *Service) GetInvitation(ctx context.Context, in *GetInvitationRequest) (*GetInvitationResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "get invitation request is required")
	}
	if s == nil || s.invitations == nil {
		return nil, status.Error(codes.Internal, "invitation service is not configured")
	}
	inv, err := s.invitations.Lookup(ctx, in.Token)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &GetInvitationResponse{Invitation: s.invitationToWire(inv)}, nil
}

// AcceptInvitation accepts a pending invitation and materializes membership.
func (s *Service) AcceptInvitation(ctx context.Context, in *AcceptInvitationRequest) (*AcceptInvitationResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "accept invitation request is required")
	}
	if s == nil || s.invitations == nil {
		return nil, status.Error(codes.Internal, "invitation service is not configured")
	}
	result, err := s.invitations.Accept(ctx, domain.AcceptInvitationInput{
		Token:          in.Token,
		AcceptorUserID: in.UserID,
		GuestToken:     in.GuestToken,
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	resp := &AcceptInvitationResponse{
		Invitation:        s.invitationToWire(result.Invitation),
		MembershipCreated: result.MembershipCreated,
	}
	if result.GroupMember != nil {
		resp.GroupMember = groupMemberToWire(*result.GroupMember)
	}
	if result.Participant != nil {
		resp.Participant = participantToWire(*result.Participant)
	}
	return resp, nil
}

// DeclineInvitation declines a pending invitation.
func (s *Service) DeclineInvitation(ctx context.Context, in *DeclineInvitationRequest) (*DeclineInvitationResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "decline invitation request is required")
	}
	if s == nil || s.invitations == nil {
		return nil, status.Error(codes.Internal, "invitation service is not configured")
	}
	inv, err := s.invitations.Decline(ctx, in.Token)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &DeclineInvitationResponse{Invitation: s.invitationToWire(inv)}, nil
}

// ListInvitations returns one page of invitations for an email, group, or
// event.
func (s *Service) ListInvitations(ctx context.Context, in *ListInvitationsRequest) (*ListInvitationsResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "list invitations request is required")
	}
	if s == nil || s.invitations == nil {
		return nil, status.Error(codes.Internal, "invitation service is not configured")
	}
	filter := strings.TrimSpace(in.Filter)
	scope := listScope(in)
	afterID, err := cursor.ResumeAfter(in.PageToken, filter, scope)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "page token is invalid")
	}
	pageSize := pagination.ClampPageSize(in.PageSize, pagination.PageSizeConfig{
		Default: domain.DefaultPageSize,
		Max:     domain.MaxPageSize,
	})

	page, err := s.invitations.List(ctx, domain.ListInvitationsInput{
		Scope: domain.InvitationScope{
			InvitedEmail: in.InvitedEmail,
			GroupID:      in.GroupID,
			EventID:      in.EventID,
		},
		Filter:   in.Filter,
		PageSize: pageSize,
		AfterID:  afterID,
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	nextToken, err := cursor.NextPageToken(page.NextAfterID, filter, scope)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode page token: %v", err)
	}
	resp := &ListInvitationsResponse{
		Invitations:   make([]*Invitation, 0, len(page.Invitations)),
		NextPageToken: nextToken,
	}
	for _, inv := range page.Invitations {
		resp.Invitations = append(resp.Invitations, s.invitationToWire(inv))
	}
	return resp, nil
}

// CreateGuest creates a guest identity, optionally linked to the invitation
// that brought it in.
func (s *Service) CreateGuest(ctx context.Context, in *CreateGuestRequest) (*CreateGuestResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "create guest request is required")
	}
	if s == nil || s.guests == nil {
		return nil, status.Error(codes.Internal, "guest service is not configured")
	}
	guest, err := s.guests.Create(ctx, domain.CreateGuestInput{
		Name:                  in.Name,
		Email:                 in.Email,
		Phone:                 in.Phone,
		OriginInvitationToken: in.InvitationToken,
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &CreateGuestResponse{Guest: guestToWire(guest)}, nil
}

// GetGuest authenticates a guest by token.
func (s *Service) GetGuest(ctx context.Context, in *GetGuestRequest) (*GetGuestResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "get guest request is required")
	}
	if s == nil || s.guests == nil {
		return nil, status.Error(codes.Internal, "guest service is not configured")
	}
	guest, err := s.guests.GetByToken(ctx, in.Token)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &GetGuestResponse{Guest: guestToWire(guest)}, nil
}

// ConvertGuest turns a guest into a registered user.
func (s *Service) ConvertGuest(ctx context.Context, in *ConvertGuestRequest) (*ConvertGuestResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "convert guest request is required")
	}
	if s == nil || s.guests == nil {
		return nil, status.Error(codes.Internal, "guest service is not configured")
	}
	result, err := s.guests.Convert(ctx, domain.ConvertGuestInput{
		Token:    in.Token,
		Email:    in.Email,
		Password: in.Password,
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &ConvertGuestResponse{
		Guest: guestToWire(result.Guest),
		User:  userToWire(result.User),
	}, nil
}

// ListGroupMembers lists a group's members.
func (s *Service) ListGroupMembers(ctx context.Context, in *ListGroupMembersRequest) (*ListGroupMembersResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "list group members request is required")
	}
	if s == nil || s.roster == nil {
		return nil, status.Error(codes.Internal, "roster is not configured")
	}
	members, err := s.roster.GroupMembers(ctx, in.GroupID)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	resp := &ListGroupMembersResponse{Members: make([]*GroupMember, 0, len(members))}
	for _, member := range members {
		resp.Members = append(resp.Members, groupMemberToWire(member))
	}
	return resp, nil
}

// ListEventParticipants lists an event's participants.
func (s *Service) ListEventParticipants(ctx context.Context, in *ListEventParticipantsRequest) (*ListEventParticipantsResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "list event participants request is required")
	}
	if s == nil || s.roster == nil {
		return nil, status.Error(codes.Internal, "roster is not configured")
	}
	participants, err := s.roster.EventParticipants(ctx, in.EventID)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	resp := &ListEventParticipantsResponse{Participants: make([]*Participant, 0, len(participants))}
	for _, participant := range participants {
		resp.Participants = append(resp.Participants, participantToWire(participant))
	}
	return resp, nil
}

// CreateUser registers a user.
func (s *Service) CreateUser(ctx context.Context, in *CreateUserRequest) (*CreateUserResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "create user request is required")
	}
	if s == nil || s.directory == nil {
		return nil, status.Error(codes.Internal, "directory is not configured")
	}
	user, err := s.directory.CreateUser(ctx, domain.CreateUserInput{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  in.Password,
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &CreateUserResponse{User: userToWire(user)}, nil
}

// CreateGroup creates a group owned by its creator.
func (s *Service) CreateGroup(ctx context.Context, in *CreateGroupRequest) (*CreateGroupResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "create group request is required")
	}
	if s == nil || s.directory == nil {
		return nil, status.Error(codes.Internal, "directory is not configured")
	}
	group, err := s.directory.CreateGroup(ctx, domain.CreateGroupInput{
		Name:            in.Name,
		Description:     in.Description,
		CreatedByUserID: in.CreatedByUserID,
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &CreateGroupResponse{Group: groupToWire(group)}, nil
}

// CreateEvent creates an event organized by its creator.
func (s *Service) CreateEvent(ctx context.Context, in *CreateEventRequest) (*CreateEventResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "create event request is required")
	}
	if s == nil || s.directory == nil {
		return nil, status.Error(codes.Internal, "directory is not configured")
	}
	event, err := s.directory.CreateEvent(ctx, domain.CreateEventInput{
		Name:            in.Name,
		Description:     in.Description,
		GroupID:         in.GroupID,
		CreatedByUserID: in.CreatedByUserID,
		StartsAt:        in.StartsAt,
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &CreateEventResponse{Event: eventToWire(event)}, nil
}

// listScope identifies the listing a page token belongs to.
func listScope(in *ListInvitationsRequest) string {
	return cursor.Scope(
		strings.ToLower(strings.TrimSpace(in.InvitedEmail)),
		strconv.FormatInt(in.GroupID, 10),
		strconv.FormatInt(in.EventID, 10),
	)
}

// fail renders err for the caller's locale.
func (s *Service) fail(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrStoreNotConfigured) {
		return status.Error(codes.Internal, err.Error())
	}
	return apperrors.HandleError(err, requestctx.LocaleFromContext(ctx))
}

func (s *Service) invitationLink(token string) string {
	return s.baseURL + "/invitations/" + token
}
