package invitations

import "time"

// Invitation is the wire form of an invitation.
type Invitation struct {
	ID                int64      `json:"id"`
	Token             string     `json:"token"`
	GroupID           *int64     `json:"group_id,omitempty"`
	EventID           *int64     `json:"event_id,omitempty"`
	InvitedByUserID   int64      `json:"invited_by_user_id"`
	InvitedEmail      string     `json:"invited_email,omitempty"`
	InvitedPhone      string     `json:"invited_phone,omitempty"`
	Role              string     `json:"role"`
	Status            string     `json:"status"`
	ExpiresAt         time.Time  `json:"expires_at"`
	AcceptedAt        *time.Time `json:"accepted_at,omitempty"`
	AcceptedByUserID  *int64     `json:"accepted_by_user_id,omitempty"`
	AcceptedByGuestID *int64     `json:"accepted_by_guest_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	InvitationLink    string     `json:"invitation_link"`
}

// Guest is the wire form of a guest identity.
type Guest struct {
	ID                 int64      `json:"id"`
	Token              string     `json:"token"`
	Name               string     `json:"name"`
	Email              string     `json:"email,omitempty"`
	Phone              string     `json:"phone,omitempty"`
	OriginInvitationID *int64     `json:"origin_invitation_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	LastActiveAt       time.Time  `json:"last_active_at"`
	ConvertedToUserID  *int64     `json:"converted_to_user_id,omitempty"`
	ConvertedAt        *time.Time `json:"converted_at,omitempty"`
}

// User is the public wire form of a registered user.
type User struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name,omitempty"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Group is the wire form of a group.
type Group struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	CreatedByUserID int64     `json:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// Event is the wire form of an event.
type Event struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	GroupID         *int64     `json:"group_id,omitempty"`
	CreatedByUserID int64      `json:"created_by_user_id"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// GroupMember is the wire form of a group membership.
type GroupMember struct {
	ID       int64     `json:"id"`
	GroupID  int64     `json:"group_id"`
	UserID   int64     `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Participant is the wire form of an event participation.
type Participant struct {
	ID       int64     `json:"id"`
	EventID  int64     `json:"event_id"`
	UserID   int64     `json:"user_id"`
	StepID   *int64    `json:"step_id,omitempty"`
	Role     string    `json:"role"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}

type CreateInvitationRequest struct {
	InvitedByUserID int64  `json:"invited_by_user_id"`
	GroupID         *int64 `json:"group_id,omitempty"`
	EventID         *int64 `json:"event_id,omitempty"`
	InvitedEmail    string `json:"invited_email,omitempty"`
	InvitedPhone    string `json:"invited_phone,omitempty"`
	Role            string `json:"role,omitempty"`
	ValidityDays    int32  `json:"validity_days,omitempty"`
}

type CreateInvitationResponse struct {
	Invitation *Invitation `json:"invitation"`
}

type GetInvitationRequest struct {
	Token string `json:"token"`
}

type GetInvitationResponse struct {
	Invitation *Invitation `json:"invitation"`
}

// AcceptInvitationRequest identifies the acceptor by user id or guest token.
// Neither is an anonymous accept.
type AcceptInvitationRequest struct {
	Token      string `json:"token"`
	UserID     *int64 `json:"user_id,omitempty"`
	GuestToken string `json:"guest_token,omitempty"`
}

type AcceptInvitationResponse struct {
	Invitation        *Invitation  `json:"invitation"`
	GroupMember       *GroupMember `json:"group_member,omitempty"`
	Participant       *Participant `json:"participant,omitempty"`
	MembershipCreated bool         `json:"membership_created"`
}

type DeclineInvitationRequest struct {
	Token string `json:"token"`
}

type DeclineInvitationResponse struct {
	Invitation *Invitation `json:"invitation"`
}

type ListInvitationsRequest struct {
	InvitedEmail string `json:"invited_email,omitempty"`
	GroupID      int64  `json:"group_id,omitempty"`
	EventID      int64  `json:"event_id,omitempty"`
	Filter       string `json:"filter,omitempty"`
	PageSize     int32  `json:"page_size,omitempty"`
	PageToken    string `json:"page_token,omitempty"`
}

type ListInvitationsResponse struct {
	Invitations   []*Invitation `json:"invitations"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

type CreateGuestRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	InvitationToken string `json:"invitation_token,omitempty"`
}

type CreateGuestResponse struct {
	Guest *Guest `json:"guest"`
}

type GetGuestRequest struct {
	Token string `json:"token"`
}

type GetGuestResponse struct {
	Guest *Guest `json:"guest"`
}

type ConvertGuestRequest struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ConvertGuestResponse struct {
	Guest *Guest `json:"guest"`
	User  *User  `json:"user"`
}

type ListGroupMembersRequest struct {
	GroupID int64 `json:"group_id"`
}

type ListGroupMembersResponse struct {
	Members []*GroupMember `json:"members"`
}

type ListEventParticipantsRequest struct {
	EventID int64 `json:"event_id"`
}

type ListEventParticipantsResponse struct {
	Participants []*Participant `json:"participants"`
}

type CreateUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
}

type CreateUserResponse struct {
	User *User `json:"user"`
}

type CreateGroupRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	CreatedByUserID int64  `json:"created_by_user_id"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type CreateEventRequest struct {
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	GroupID         *int64     `json:"group_id,omitempty"`
	CreatedByUserID int64      `json:"created_by_user_id"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
}

type CreateEventResponse struct {
	Event *Event `json:"event"`
}
