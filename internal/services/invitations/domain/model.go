package domain

import (
	"strings"
	"time"
)

// Invitation is a token-bound offer to join a group or an event.
type Invitation struct {
	ID                int64
	Token             string
	Target            Target
	InvitedByUserID   int64
	InvitedEmail      string
	InvitedPhone      string
	Role              string
	Status            Status
	ExpiresAt         time.Time
	AcceptedAt        *time.Time
	AcceptedByUserID  *int64
	AcceptedByGuestID *int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ExpiredAt reports whether a pending invitation has passed its expiry at now.
func (i Invitation) ExpiredAt(now time.Time) bool {
	return i.Status == StatusPending && now.After(i.ExpiresAt)
}

// Guest is an anonymous, token-authenticated identity.
type Guest struct {
	ID                 int64
	Token              string
	Name               string
	Email              string
	Phone              string
	OriginInvitationID *int64
	CreatedAt          time.Time
	LastActiveAt       time.Time
	ConvertedToUserID  *int64
	ConvertedAt        *time.Time
}

// Converted reports whether the guest already merged into a user.
func (g Guest) Converted() bool {
	return g.ConvertedToUserID != nil
}

// User is a registered account in the user directory.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Group is a set of users sharing events.
type Group struct {
	ID              int64
	Name            string
	Description     string
	CreatedByUserID int64
	CreatedAt       time.Time
}

// GroupMember is a user's membership in a group.
type GroupMember struct {
	ID       int64
	GroupID  int64
	UserID   int64
	Role     GroupRole
	JoinedAt time.Time
}

// Event is a planned gathering, optionally owned by a group.
type Event struct {
	ID              int64
	Name            string
	Description     string
	GroupID         *int64
	CreatedByUserID int64
	StartsAt        *time.Time
	CreatedAt       time.Time
}

// Participant is a user's participation in an event. Event-wide
// participants have no step.
type Participant struct {
	ID       int64
	EventID  int64
	UserID   int64
	StepID   *int64
	Role     EventRole
	Status   ParticipantStatus
	JoinedAt time.Time
}

// SplitDisplayName splits a display name on its first space. The remainder,
// kept as written, is the last name. Only the outer whitespace of name is
// trimmed.
func SplitDisplayName(name string) (first, last string) {
	first, last, _ = strings.Cut(strings.TrimSpace(name), " ")
	return first, last
}

// storedTime normalizes t to the UTC millisecond precision stores keep, so
// values returned from a write match a later read.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeRole(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}
