package domain

import (
	"context"
	"errors"
	"time"
)

// MembershipMaterializer creates the membership an accepted invitation
// implies, at most once per key. It never overwrites an existing row.
type MembershipMaterializer struct {
	clock func() time.Time
}

// NewMembershipMaterializer builds a materializer reading time from clock.
func NewMembershipMaterializer(clock func() time.Time) *MembershipMaterializer {
	if clock == nil {
		clock = time.Now
	}
	return &MembershipMaterializer{clock: clock}
}

// EnsureGroupMembership returns the existing (group, user) membership, or
// inserts one with role. created reports whether this call inserted it.
func (m *MembershipMaterializer) EnsureGroupMembership(ctx context.Context, store MembershipStore, groupID, userID int64, role GroupRole) (GroupMember, bool, error) {
	if store == nil {
		return GroupMember{}, false, ErrStoreNotConfigured
	}
	existing, err := store.GetGroupMember(ctx, groupID, userID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return GroupMember{}, false, err
	}

	member, err := store.PutGroupMember(ctx, GroupMember{
		GroupID:  groupID,
		UserID:   userID,
		Role:     role,
		JoinedAt: m.now(),
	})
	if errors.Is(err, ErrAlreadyExists) {
		existing, err := store.GetGroupMember(ctx, groupID, userID)
		return existing, false, err
	}
	if err != nil {
		return GroupMember{}, false, err
	}
	return member, true, nil
}

// EnsureEventParticipant returns the existing event-wide participant for
// (event, user), or inserts a confirmed one with role. Step-scoped rows are
// a different key and never match.
func (m *MembershipMaterializer) EnsureEventParticipant(ctx context.Context, store MembershipStore, eventID, userID int64, role EventRole) (Participant, bool, error) {
	if store == nil {
		return Participant{}, false, ErrStoreNotConfigured
	}
	existing, err := store.GetEventParticipant(ctx, eventID, userID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Participant{}, false, err
	}

	participant, err := store.PutEventParticipant(ctx, Participant{
		EventID:  eventID,
		UserID:   userID,
		Role:     role,
		Status:   ParticipantConfirmed,
		JoinedAt: m.now(),
	})
	if errors.Is(err, ErrAlreadyExists) {
		existing, err := store.GetEventParticipant(ctx, eventID, userID)
		return existing, false, err
	}
	if err != nil {
		return Participant{}, false, err
	}
	return participant, true, nil
}

func (m *MembershipMaterializer) now() time.Time {
	if m == nil || m.clock == nil {
		return storedTime(time.Now())
	}
	return storedTime(m.clock())
}
