package invitations

import "github.com/ITOUMEUCK/livemory/internal/services/invitations/domain"

func (s *Service) invitationToWire(inv domain.Invitation) *Invitation {
	out := &Invitation{
		ID:                inv.ID,
		Token:             inv.Token,
		InvitedByUserID:   inv.InvitedByUserID,
		InvitedEmail:      inv.InvitedEmail,
		InvitedPhone:      inv.InvitedPhone,
		Role:              inv.Role,
		Status:            inv.Status.String(),
		ExpiresAt:         inv.ExpiresAt,
		AcceptedAt:        inv.AcceptedAt,
		AcceptedByUserID:  inv.AcceptedByUserID,
		AcceptedByGuestID: inv.AcceptedByGuestID,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
		InvitationLink:    s.invitationLink(inv.Token),
	}
	if id, ok := inv.Target.GroupID(); ok {
		out.GroupID = &id
	}
	if id, ok := inv.Target.EventID(); ok {
		out.EventID = &id
	}
	return out
}

func guestToWire(guest domain.Guest) *Guest {
	return &Guest{
		ID:                 guest.ID,
		Token:              guest.Token,
		Name:               guest.Name,
		Email:              guest.Email,
		Phone:              guest.Phone,
		OriginInvitationID: guest.OriginInvitationID,
		CreatedAt:          guest.CreatedAt,
		LastActiveAt:       guest.LastActiveAt,
		ConvertedToUserID:  guest.ConvertedToUserID,
		ConvertedAt:        guest.ConvertedAt,
	}
}

func userToWire(user domain.User) *User {
	return &User{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

func groupToWire(group domain.Group) *Group {
	return &Group{
		ID:              group.ID,
		Name:            group.Name,
		Description:     group.Description,
		CreatedByUserID: group.CreatedByUserID,
		CreatedAt:       group.CreatedAt,
	}
}

func eventToWire(event domain.Event) *Event {
	return &Event{
		ID:              event.ID,
		Name:            event.Name,
		Description:     event.Description,
		GroupID:         event.GroupID,
		CreatedByUserID: event.CreatedByUserID,
		StartsAt:        event.StartsAt,
		CreatedAt:       event.CreatedAt,
	}
}

func groupMemberToWire(member domain.GroupMember) *GroupMember {
	return &GroupMember{
		ID:       member.ID,
		GroupID:  member.GroupID,
		UserID:   member.UserID,
		Role:     string(member.Role),
		JoinedAt: member.JoinedAt,
	}
}

func participantToWire(participant domain.Participant) *Participant {
	return &Participant{
		ID:       participant.ID,
		EventID:  participant.EventID,
		UserID:   participant.UserID,
		StepID:   participant.StepID,
		Role:     string(participant.Role),
		Status:   string(participant.Status),
		JoinedAt: participant.JoinedAt,
	}
}
