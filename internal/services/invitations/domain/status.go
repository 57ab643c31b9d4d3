// Package domain owns invitation, guest identity, and membership
// materialization behavior for the invitations service.
package domain

import "strings"

// Status represents the lifecycle status of an invitation.
type Status int

const (
	// StatusUnspecified represents an invalid invitation status.
	StatusUnspecified Status = iota
	// StatusPending indicates the invitation can still be answered.
	StatusPending
	// StatusAccepted indicates the invitation was accepted.
	StatusAccepted
	// StatusDeclined indicates the invitation was declined.
	StatusDeclined
	// StatusExpired indicates the invitation passed its expiry while pending.
	StatusExpired
)

// String returns the storage and wire label for the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusAccepted:
		return "ACCEPTED"
	case StatusDeclined:
		return "DECLINED"
	case StatusExpired:
		return "EXPIRED"
	default:
		return "UNSPECIFIED"
	}
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined || s == StatusExpired
}

// StatusFromLabel parses a status label. Unknown labels map to
// StatusUnspecified.
func StatusFromLabel(label string) Status {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "PENDING":
		return StatusPending
	case "ACCEPTED":
		return StatusAccepted
	case "DECLINED":
		return StatusDeclined
	case "EXPIRED":
		return StatusExpired
	default:
		return StatusUnspecified
	}
}

// GroupRole is a member's role within a group.
type GroupRole string

const (
	GroupRoleOwner  GroupRole = "OWNER"
	GroupRoleAdmin  GroupRole = "ADMIN"
	GroupRoleMember GroupRole = "MEMBER"
)

// ParseGroupRole matches label against the group roles, ignoring case and
// surrounding space.
func ParseGroupRole(label string) (GroupRole, bool) {
	switch role := GroupRole(strings.ToUpper(strings.TrimSpace(label))); role {
	case GroupRoleOwner, GroupRoleAdmin, GroupRoleMember:
		return role, true
	default:
		return "", false
	}
}

// EventRole is a participant's role within an event.
type EventRole string

const (
	EventRoleOrganizer   EventRole = "ORGANIZER"
	EventRoleParticipant EventRole = "PARTICIPANT"
)

// EventRoleForInvitation maps an invitation role label to an event role.
// Only ORGANIZER is special; every other label yields a plain participant.
func EventRoleForInvitation(label string) EventRole {
	if strings.ToUpper(strings.TrimSpace(label)) == string(EventRoleOrganizer) {
		return EventRoleOrganizer
	}
	return EventRoleParticipant
}

// ParticipantStatus tracks a participant's attendance answer.
type ParticipantStatus string

const (
	ParticipantInvited   ParticipantStatus = "INVITED"
	ParticipantConfirmed ParticipantStatus = "CONFIRMED"
	ParticipantDeclined  ParticipantStatus = "DECLINED"
)
