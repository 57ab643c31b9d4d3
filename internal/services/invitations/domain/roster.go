package domain

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	apperrors "github.com/ITOUMEUCK/livemory/internal/platform/errors"
)

// Roster enumerates the memberships invitations materialize.
type Roster struct {
	groups GroupDirectory
	events EventDirectory
}

// NewRoster builds a roster over the group and event directories.
func NewRoster(groups GroupDirectory, events EventDirectory) *Roster {
	return &Roster{groups: groups, events: events}
}

// GroupMembers lists a group's members ordered by join.
func (r *Roster) GroupMembers(ctx context.Context, groupID int64) ([]GroupMember, error) {
	if r == nil || r.groups == nil {
		return nil, ErrStoreNotConfigured
	}
	if _, err := r.groups.GetGroup(ctx, groupID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.WithMetadata(apperrors.CodeGroupNotFound, fmt.Sprintf("group %d not found", groupID),
				map[string]string{"GroupID": strconv.FormatInt(groupID, 10)})
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	members, err := r.groups.ListGroupMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return members, nil
}

// EventParticipants lists an event's participants ordered by join.
func (r *Roster) EventParticipants(ctx context.Context, eventID int64) ([]Participant, error) {
	if r == nil || r.events == nil {
		return nil, ErrStoreNotConfigured
	}
	if _, err := r.events.GetEvent(ctx, eventID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.WithMetadata(apperrors.CodeEventNotFound, fmt.Sprintf("event %d not found", eventID),
				map[string]string{"EventID": strconv.FormatInt(eventID, 10)})
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	participants, err := r.events.ListEventParticipants(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event participants: %w", err)
	}
	return participants, nil
}
