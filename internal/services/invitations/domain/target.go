package domain

import (
	"strconv"

	apperrors "github.com/ITOUMEUCK/livemory/internal/platform/errors"
)

type targetKind uint8

const (
	targetNone targetKind = iota
	targetGroup
	targetEvent
)

// Target is the group or event an invitation grants access to. The zero
// value targets nothing and is rejected wherever a target is required.
type Target struct {
	kind targetKind
	id   int64
}

// GroupTarget targets the group with the given id.
func GroupTarget(groupID int64) Target {
	return Target{kind: targetGroup, id: groupID}
}

// EventTarget targets the event with the given id.
func EventTarget(eventID int64) Target {
	return Target{kind: targetEvent, id: eventID}
}

// NewTarget builds a target from the two optional references a request
// carries. Exactly one must be set.
func NewTarget(groupID, eventID *int64) (Target, error) {
	switch {
	case groupID != nil && eventID != nil:
		return Target{}, apperrors.New(apperrors.CodeInvitationInvalidTarget, "invitation cannot target both a group and an event")
	case groupID != nil:
		if *groupID <= 0 {
			return Target{}, apperrors.New(apperrors.CodeInvitationInvalidTarget, "group id must be positive")
		}
		return GroupTarget(*groupID), nil
	case eventID != nil:
		if *eventID <= 0 {
			return Target{}, apperrors.New(apperrors.CodeInvitationInvalidTarget, "event id must be positive")
		}
		return EventTarget(*eventID), nil
	default:
		return Target{}, apperrors.New(apperrors.CodeInvitationInvalidTarget, "invitation must target a group or an event")
	}
}

// IsZero reports whether the target is unset.
func (t Target) IsZero() bool { return t.kind == targetNone }

// IsGroup reports whether the target is a group.
func (t Target) IsGroup() bool { return t.kind == targetGroup }

// IsEvent reports whether the target is an event.
func (t Target) IsEvent() bool { return t.kind == targetEvent }

// ID returns the referenced group or event id, zero when unset.
func (t Target) ID() int64 {
	if t.kind == targetNone {
		return 0
	}
	return t.id
}

// GroupID returns the group id and whether the target is a group.
func (t Target) GroupID() (int64, bool) {
	return t.id, t.kind == targetGroup
}

// EventID returns the event id and whether the target is an event.
func (t Target) EventID() (int64, bool) {
	return t.id, t.kind == targetEvent
}

func (t Target) String() string {
	switch t.kind {
	case targetGroup:
		return "group/" + strconv.FormatInt(t.id, 10)
	case targetEvent:
		return "event/" + strconv.FormatInt(t.id, 10)
	default:
		return "none"
	}
}
