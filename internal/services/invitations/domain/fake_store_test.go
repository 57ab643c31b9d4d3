package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// movableClock is a clock tests can advance between calls.
type movableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *movableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sequentialTokens yields issuers whose random source replays values.
func sequentialTokens(prefix string, values ...string) *TokenIssuer {
	var mu sync.Mutex
	index := 0
	return &TokenIssuer{
		prefix: prefix,
		random: func() (uuid.UUID, error) {
			mu.Lock()
			defer mu.Unlock()
			if index >= len(values) {
				return uuid.UUID{}, errors.New("token sequence exhausted")
			}
			value := values[index]
			index++
			return uuid.Parse(value)
		},
	}
}

type prefixHasher struct{}

func (prefixHasher) HashPassword(password string) (string, error) {
	return "hash:" + password, nil
}

type countingObserver struct {
	mu          sync.Mutex
	created     int
	transitions map[string]int
	guests      int
	conversions int
	collisions  map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{transitions: map[string]int{}, collisions: map[string]int{}}
}

func (o *countingObserver) InvitationCreated(Target) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.created++
}

func (o *countingObserver) InvitationTransitioned(from, to Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions[from.String()+"->"+to.String()]++
}

func (o *countingObserver) GuestCreated() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.guests++
}

func (o *countingObserver) GuestConverted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conversions++
}

func (o *countingObserver) TokenCollision(kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.collisions[kind]++
}

func (o *countingObserver) transitionCount(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transitions[key]
}

// fakeStore is an in-memory store. WithinTx holds the lock for the whole
// callback and restores a snapshot when it fails.
type fakeStore struct {
	mu sync.Mutex

	nextID       int64
	users        map[int64]User
	groups       map[int64]Group
	events       map[int64]Event
	invitations  map[int64]Invitation
	guests       map[int64]Guest
	members      []GroupMember
	participants []Participant

	appliedTransitions int
	putMemberErr       error
	convertErr         error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[int64]User{},
		groups:      map[int64]Group{},
		events:      map[int64]Event{},
		invitations: map[int64]Invitation{},
		guests:      map[int64]Guest{},
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addUser(first, last, email string) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := User{ID: s.id(), FirstName: first, LastName: last, Email: email}
	s.users[user.ID] = user
	return user
}

func (s *fakeStore) addGroup(name string, ownerID int64) Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	group := Group{ID: s.id(), Name: name, CreatedByUserID: ownerID}
	s.groups[group.ID] = group
	s.members = append(s.members, GroupMember{ID: s.id(), GroupID: group.ID, UserID: ownerID, Role: GroupRoleOwner})
	return group
}

func (s *fakeStore) addEvent(name string, organizerID int64) Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	event := Event{ID: s.id(), Name: name, CreatedByUserID: organizerID}
	s.events[event.ID] = event
	return event
}

func (s *fakeStore) addMember(groupID, userID int64, role GroupRole) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = append(s.members, GroupMember{ID: s.id(), GroupID: groupID, UserID: userID, Role: role})
}

func (s *fakeStore) invitation(token string) Invitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, _ := s.invitationByToken(token)
	return inv
}

func (s *fakeStore) guest(id int64) Guest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.guests[id]
}

func (s *fakeStore) groupMembers(groupID, userID int64) []GroupMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []GroupMember
	for _, m := range s.members {
		if m.GroupID == groupID && m.UserID == userID {
			out = append(out, m)
		}
	}
	return out
}

func (s *fakeStore) eventParticipants(eventID int64) []Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Participant
	for _, p := range s.participants {
		if p.EventID == eventID {
			out = append(out, p)
		}
	}
	return out
}

func (s *fakeStore) transitions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appliedTransitions
}

func (s *fakeStore) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// InvitationStore

func (s *fakeStore) CreateInvitation(_ context.Context, inv Invitation) (Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invitationByToken(inv.Token); ok {
		return Invitation{}, ErrTokenConflict
	}
	inv.ID = s.id()
	s.invitations[inv.ID] = inv
	return inv, nil
}

func (s *fakeStore) GetInvitationByToken(_ context.Context, token string) (Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitationByToken(token)
	if !ok {
		return Invitation{}, ErrNotFound
	}
	return inv, nil
}

func (s *fakeStore) TransitionInvitation(_ context.Context, t InvitationTransition) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(t), nil
}

func (s *fakeStore) ListInvitations(_ context.Context, q InvitationQuery) (InvitationPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.Contains(q.Filter, "bogus") {
		return InvitationPage{}, fmt.Errorf("%w: unknown field", ErrInvalidFilter)
	}
	var matched []Invitation
	for _, inv := range s.invitations {
		if inv.ID <= q.AfterID {
			continue
		}
		if q.Scope.InvitedEmail != "" && inv.InvitedEmail != q.Scope.InvitedEmail {
			continue
		}
		if groupID, ok := inv.Target.GroupID(); q.Scope.GroupID != 0 && (!ok || groupID != q.Scope.GroupID) {
			continue
		}
		if eventID, ok := inv.Target.EventID(); q.Scope.EventID != 0 && (!ok || eventID != q.Scope.EventID) {
			continue
		}
		matched = append(matched, inv)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	page := InvitationPage{}
	if len(matched) > q.PageSize {
		matched = matched[:q.PageSize]
		page.NextAfterID = matched[len(matched)-1].ID
	}
	page.Invitations = matched
	return page, nil
}

// Transactor

type fakeTx struct{ s *fakeStore }

func (s *fakeStore) WithinTx(_ context.Context, fn func(UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	invitations := make(map[int64]Invitation, len(s.invitations))
	for k, v := range s.invitations {
		invitations[k] = v
	}
	members := append([]GroupMember(nil), s.members...)
	participants := append([]Participant(nil), s.participants...)
	applied := s.appliedTransitions

	if err := fn(fakeTx{s: s}); err != nil {
		s.invitations = invitations
		s.members = members
		s.participants = participants
		s.appliedTransitions = applied
		return err
	}
	return nil
}

func (tx fakeTx) TransitionInvitation(_ context.Context, t InvitationTransition) (bool, error) {
	return tx.s.transition(t), nil
}

func (tx fakeTx) GetGroupMember(_ context.Context, groupID, userID int64) (GroupMember, error) {
	return tx.s.getGroupMember(groupID, userID)
}

func (tx fakeTx) PutGroupMember(_ context.Context, member GroupMember) (GroupMember, error) {
	return tx.s.putGroupMember(member)
}

func (tx fakeTx) GetEventParticipant(_ context.Context, eventID, userID int64) (Participant, error) {
	return tx.s.getEventParticipant(eventID, userID)
}

func (tx fakeTx) PutEventParticipant(_ context.Context, participant Participant) (Participant, error) {
	return tx.s.putEventParticipant(participant)
}

// Directories

func (s *fakeStore) GetUser(_ context.Context, id int64) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *fakeStore) CreateUser(_ context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return User{}, ErrAlreadyExists
		}
	}
	user.ID = s.id()
	s.users[user.ID] = user
	return user, nil
}

func (s *fakeStore) CreateGroup(_ context.Context, group Group) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group.ID = s.id()
	s.groups[group.ID] = group
	s.members = append(s.members, GroupMember{ID: s.id(), GroupID: group.ID, UserID: group.CreatedByUserID, Role: GroupRoleOwner, JoinedAt: group.CreatedAt})
	return group, nil
}

func (s *fakeStore) CreateEvent(_ context.Context, event Event) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.ID = s.id()
	s.events[event.ID] = event
	s.participants = append(s.participants, Participant{
		ID: s.id(), EventID: event.ID, UserID: event.CreatedByUserID,
		Role: EventRoleOrganizer, Status: ParticipantConfirmed, JoinedAt: event.CreatedAt,
	})
	return event, nil
}

func (s *fakeStore) GetUserByEmail(_ context.Context, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *fakeStore) GetGroup(_ context.Context, id int64) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[id]
	if !ok {
		return Group{}, ErrNotFound
	}
	return group, nil
}

func (s *fakeStore) ListGroupMembers(_ context.Context, groupID int64) ([]GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []GroupMember
	for _, m := range s.members {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) GetEvent(_ context.Context, id int64) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return event, nil
}

func (s *fakeStore) ListEventParticipants(_ context.Context, eventID int64) ([]Participant, error) {
	return s.eventParticipants(eventID), nil
}

// GuestStore

func (s *fakeStore) CreateGuest(_ context.Context, guest Guest) (Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.guests {
		if existing.Token == guest.Token {
			return Guest{}, ErrTokenConflict
		}
	}
	guest.ID = s.id()
	s.guests[guest.ID] = guest
	return guest, nil
}

func (s *fakeStore) GetGuestByToken(_ context.Context, token string) (Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, guest := range s.guests {
		if guest.Token == token {
			return guest, nil
		}
	}
	return Guest{}, ErrNotFound
}

func (s *fakeStore) TouchGuest(_ context.Context, guestID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	guest, ok := s.guests[guestID]
	if !ok {
		return ErrNotFound
	}
	guest.LastActiveAt = at
	s.guests[guestID] = guest
	return nil
}

func (s *fakeStore) ConvertGuest(_ context.Context, c GuestConversion) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.convertErr != nil {
		return User{}, s.convertErr
	}
	guest, ok := s.guests[c.GuestID]
	if !ok {
		return User{}, ErrNotFound
	}
	for _, user := range s.users {
		if user.Email == c.User.Email {
			return User{}, ErrAlreadyExists
		}
	}
	if guest.ConvertedToUserID != nil {
		return User{}, ErrStaleState
	}
	user := c.User
	user.ID = s.id()
	s.users[user.ID] = user
	at := c.At
	guest.ConvertedToUserID = &user.ID
	guest.ConvertedAt = &at
	s.guests[guest.ID] = guest
	return user, nil
}

// MembershipStore outside a transaction.

func (s *fakeStore) GetGroupMember(_ context.Context, groupID, userID int64) (GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getGroupMember(groupID, userID)
}

func (s *fakeStore) PutGroupMember(_ context.Context, member GroupMember) (GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putGroupMember(member)
}

func (s *fakeStore) GetEventParticipant(_ context.Context, eventID, userID int64) (Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getEventParticipant(eventID, userID)
}

func (s *fakeStore) PutEventParticipant(_ context.Context, participant Participant) (Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putEventParticipant(participant)
}

// Unlocked helpers.

func (s *fakeStore) invitationByToken(token string) (Invitation, bool) {
	for _, inv := range s.invitations {
		if inv.Token == token {
			return inv, true
		}
	}
	return Invitation{}, false
}

func (s *fakeStore) transition(t InvitationTransition) bool {
	inv, ok := s.invitationByToken(t.Token)
	if !ok || inv.Status != t.From {
		return false
	}
	if t.RequireUnexpired && t.At.After(inv.ExpiresAt) {
		return false
	}
	inv.Status = t.To
	inv.UpdatedAt = t.At
	if t.To == StatusAccepted {
		at := t.At
		inv.AcceptedAt = &at
		inv.AcceptedByUserID = t.AcceptedByUserID
		inv.AcceptedByGuestID = t.AcceptedByGuestID
	}
	s.invitations[inv.ID] = inv
	s.appliedTransitions++
	return true
}

func (s *fakeStore) getGroupMember(groupID, userID int64) (GroupMember, error) {
	for _, m := range s.members {
		if m.GroupID == groupID && m.UserID == userID {
			return m, nil
		}
	}
	return GroupMember{}, ErrNotFound
}

func (s *fakeStore) putGroupMember(member GroupMember) (GroupMember, error) {
	if s.putMemberErr != nil {
		return GroupMember{}, s.putMemberErr
	}
	if _, err := s.getGroupMember(member.GroupID, member.UserID); err == nil {
		return GroupMember{}, ErrAlreadyExists
	}
	member.ID = s.id()
	s.members = append(s.members, member)
	return member, nil
}

func (s *fakeStore) getEventParticipant(eventID, userID int64) (Participant, error) {
	for _, p := range s.participants {
		if p.EventID == eventID && p.UserID == userID && p.StepID == nil {
			return p, nil
		}
	}
	return Participant{}, ErrNotFound
}

func (s *fakeStore) putEventParticipant(participant Participant) (Participant, error) {
	if _, err := s.getEventParticipant(participant.EventID, participant.UserID); err == nil && participant.StepID == nil {
		return Participant{}, ErrAlreadyExists
	}
	participant.ID = s.id()
	s.participants = append(s.participants, participant)
	return participant, nil
}
