package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a record was not found.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates an insert hit a uniqueness constraint on a
	// natural key.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrTokenConflict indicates an insert collided on its token.
	ErrTokenConflict = errors.New("token already issued")
	// ErrStaleState indicates a guarded update found the record already moved on.
	ErrStaleState = errors.New("record state changed")
	// ErrInvalidFilter indicates a list filter could not be applied.
	ErrInvalidFilter = errors.New("invalid list filter")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("invitation store is not configured")
)

// InvitationTransition describes a compare-and-swap status update.
type InvitationTransition struct {
	Token string
	From  Status
	To    Status
	At    time.Time
	// RequireUnexpired additionally guards on expires_at >= At.
	RequireUnexpired  bool
	AcceptedByUserID  *int64
	AcceptedByGuestID *int64
}

// InvitationScope selects which invitations a list returns. At least one
// field must be set; set fields combine with AND.
type InvitationScope struct {
	InvitedEmail string
	GroupID      int64
	EventID      int64
}

// IsZero reports whether no scope field is set.
func (s InvitationScope) IsZero() bool {
	return s.InvitedEmail == "" && s.GroupID == 0 && s.EventID == 0
}

// InvitationQuery is a normalized list request.
type InvitationQuery struct {
	Scope    InvitationScope
	Filter   string
	PageSize int
	AfterID  int64
}

// InvitationPage is one page of a list.
type InvitationPage struct {
	Invitations []Invitation
	NextAfterID int64
}

// GuestConversion links a guest to a newly created user.
type GuestConversion struct {
	GuestID int64
	User    User
	At      time.Time
}

// InvitationStore persists invitations.
type InvitationStore interface {
	// CreateInvitation inserts inv and returns it with its id. It returns
	// ErrTokenConflict when the token is taken.
	CreateInvitation(ctx context.Context, inv Invitation) (Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (Invitation, error)
	// TransitionInvitation applies t if the invitation is still in t.From and
	// reports whether it did.
	TransitionInvitation(ctx context.Context, t InvitationTransition) (bool, error)
	ListInvitations(ctx context.Context, q InvitationQuery) (InvitationPage, error)
}

// MembershipStore reads and writes materialized memberships.
type MembershipStore interface {
	GetGroupMember(ctx context.Context, groupID, userID int64) (GroupMember, error)
	// PutGroupMember returns ErrAlreadyExists when (group, user) exists.
	PutGroupMember(ctx context.Context, member GroupMember) (GroupMember, error)
	// GetEventParticipant returns the event-wide participant row.
	GetEventParticipant(ctx context.Context, eventID, userID int64) (Participant, error)
	// PutEventParticipant returns ErrAlreadyExists when the key exists.
	PutEventParticipant(ctx context.Context, participant Participant) (Participant, error)
}

// UnitOfWork is the store surface available inside a transaction.
type UnitOfWork interface {
	MembershipStore
	TransitionInvitation(ctx context.Context, t InvitationTransition) (bool, error)
}

// Transactor runs fn atomically. Returning an error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(UnitOfWork) error) error
}

// UserDirectory resolves and creates users.
type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// GroupDirectory resolves groups and enumerates their members.
type GroupDirectory interface {
	GetGroup(ctx context.Context, id int64) (Group, error)
	ListGroupMembers(ctx context.Context, groupID int64) ([]GroupMember, error)
}

// EventDirectory resolves events and enumerates their participants.
type EventDirectory interface {
	GetEvent(ctx context.Context, id int64) (Event, error)
	ListEventParticipants(ctx context.Context, eventID int64) ([]Participant, error)
}

// GuestStore persists guest identities.
type GuestStore interface {
	// CreateGuest returns ErrTokenConflict when the token is taken.
	CreateGuest(ctx context.Context, guest Guest) (Guest, error)
	GetGuestByToken(ctx context.Context, token string) (Guest, error)
	TouchGuest(ctx context.Context, guestID int64, at time.Time) error
	// ConvertGuest inserts the user and links it to the guest atomically. It
	// returns ErrAlreadyExists when the email is taken and ErrStaleState when
	// the guest was already converted.
	ConvertGuest(ctx context.Context, conversion GuestConversion) (User, error)
}

// CredentialIssuer turns a raw credential into a storable hash.
type CredentialIssuer interface {
	HashPassword(password string) (string, error)
}

// Observer receives lifecycle outcomes for metrics.
type Observer interface {
	InvitationCreated(target Target)
	InvitationTransitioned(from, to Status)
	GuestCreated()
	GuestConverted()
	TokenCollision(kind string)
}

type noopObserver struct{}

func (noopObserver) InvitationCreated(Target)              {}
func (noopObserver) InvitationTransitioned(Status, Status) {}
func (noopObserver) GuestCreated()                         {}
func (noopObserver) GuestConverted()                       {}
func (noopObserver) TokenCollision(string)                 {}
