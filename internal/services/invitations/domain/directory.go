package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/ITOUMEUCK/livemory/internal/platform/errors"
	"github.com/ITOUMEUCK/livemory/internal/platform/requestctx"
)

// DirectoryStore writes the users, groups and events invitations point at.
type DirectoryStore interface {
	UserDirectory
	GroupDirectory
	// CreateUser returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, user User) (User, error)
	// CreateGroup also makes the creator the group OWNER.
	CreateGroup(ctx context.Context, group Group) (Group, error)
	// CreateEvent also makes the creator a confirmed ORGANIZER.
	CreateEvent(ctx context.Context, event Event) (Event, error)
}

// DirectoryDeps wires a DirectoryService.
type DirectoryDeps struct {
	Store DirectoryStore
	// Credentials hashes optional user passwords.
	Credentials CredentialIssuer
	Clock       func() time.Time
	Logger      *slog.Logger
}

// DirectoryService registers users and creates the groups and events they
// invite others to.
type DirectoryService struct {
	store       DirectoryStore
	credentials CredentialIssuer
	clock       func() time.Time
	logger      *slog.Logger
}

// NewDirectoryService constructs directory use-cases.
func NewDirectoryService(deps DirectoryDeps) *DirectoryService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &DirectoryService{
		store:       deps.Store,
		credentials: deps.Credentials,
		clock:       clock,
		logger:      requestctx.NewLogger(deps.Logger),
	}
}

// CreateUserInput describes a new user. Password is optional; users without
// one can only sign in through a later credential flow.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// CreateGroupInput describes a new group.
type CreateGroupInput struct {
	Name            string
	Description     string
	CreatedByUserID int64
}

// CreateEventInput describes a new event, optionally inside a group.
type CreateEventInput struct {
	Name            string
	Description     string
	GroupID         *int64
	CreatedByUserID int64
	StartsAt        *time.Time
}

// CreateUser registers a user under a unique email.
func (s *DirectoryService) CreateUser(ctx context.Context, input CreateUserInput) (user User, err error) {
	ctx, span := tracer.Start(ctx, "DirectoryService.CreateUser")
	defer func() { endSpan(span, err) }()

	if err := s.ready(); err != nil {
		return User{}, err
	}
	firstName := strings.TrimSpace(input.FirstName)
	if firstName == "" {
		return User{}, apperrors.New(apperrors.CodeDirectoryNameRequired, "first name is required")
	}
	email := normalizeEmail(input.Email)
	if email == "" {
		return User{}, apperrors.New(apperrors.CodeUserEmailRequired, "email is required")
	}

	var hash string
	if input.Password != "" {
		if s.credentials == nil {
			return User{}, errors.New("credential issuer is not configured")
		}
		if hash, err = s.credentials.HashPassword(input.Password); err != nil {
			return User{}, fmt.Errorf("hash credential: %w", err)
		}
	}

	user, err = s.store.CreateUser(ctx, User{
		FirstName:    firstName,
		LastName:     strings.TrimSpace(input.LastName),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	})
	if errors.Is(err, ErrAlreadyExists) {
		return User{}, apperrors.WithMetadata(apperrors.CodeUserEmailInUse, fmt.Sprintf("email %s is already registered", email),
			map[string]string{"Email": email})
	}
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.InfoContext(ctx, "user.created", "user_id", user.ID)
	return user, nil
}

// CreateGroup creates a group owned by an existing user.
func (s *DirectoryService) CreateGroup(ctx context.Context, input CreateGroupInput) (group Group, err error) {
	ctx, span := tracer.Start(ctx, "DirectoryService.CreateGroup")
	defer func() { endSpan(span, err) }()

	if err := s.ready(); err != nil {
		return Group{}, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Group{}, apperrors.New(apperrors.CodeDirectoryNameRequired, "group name is required")
	}
	if err := s.requireUser(ctx, input.CreatedByUserID); err != nil {
		return Group{}, err
	}

	group, err = s.store.CreateGroup(ctx, Group{
		Name:            name,
		Description:     strings.TrimSpace(input.Description),
		CreatedByUserID: input.CreatedByUserID,
		CreatedAt:       s.now(),
	})
	if err != nil {
		return Group{}, fmt.Errorf("create group: %w", err)
	}
	s.logger.InfoContext(ctx, "group.created", "group_id", group.ID, "owner_id", group.CreatedByUserID)
	return group, nil
}

// CreateEvent creates an event organized by an existing user. When GroupID is
// set the group must exist.
func (s *DirectoryService) CreateEvent(ctx context.Context, input CreateEventInput) (event Event, err error) {
	ctx, span := tracer.Start(ctx, "DirectoryService.CreateEvent")
	defer func() { endSpan(span, err) }()

	if err := s.ready(); err != nil {
		return Event{}, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Event{}, apperrors.New(apperrors.CodeDirectoryNameRequired, "event name is required")
	}
	if err := s.requireUser(ctx, input.CreatedByUserID); err != nil {
		return Event{}, err
	}
	if input.GroupID != nil {
		_, err := s.store.GetGroup(ctx, *input.GroupID)
		if errors.Is(err, ErrNotFound) {
			return Event{}, apperrors.WithMetadata(apperrors.CodeGroupNotFound, fmt.Sprintf("group %d not found", *input.GroupID),
				map[string]string{"GroupID": strconv.FormatInt(*input.GroupID, 10)})
		}
		if err != nil {
			return Event{}, fmt.Errorf("get group: %w", err)
		}
	}
	var startsAt *time.Time
	if input.StartsAt != nil {
		at := storedTime(*input.StartsAt)
		startsAt = &at
	}

	event, err = s.store.CreateEvent(ctx, Event{
		Name:            name,
		Description:     strings.TrimSpace(input.Description),
		GroupID:         input.GroupID,
		CreatedByUserID: input.CreatedByUserID,
		StartsAt:        startsAt,
		CreatedAt:       s.now(),
	})
	if err != nil {
		return Event{}, fmt.Errorf("create event: %w", err)
	}
	s.logger.InfoContext(ctx, "event.created", "event_id", event.ID, "organizer_id", event.CreatedByUserID)
	return event, nil
}

func (s *DirectoryService) ready() error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	return nil
}

func (s *DirectoryService) requireUser(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return apperrors.New(apperrors.CodeDirectoryCreatorRequired, "creator user id is required")
	}
	_, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return apperrors.WithMetadata(apperrors.CodeUserNotFound, fmt.Sprintf("user %d not found", userID),
			map[string]string{"UserID": strconv.FormatInt(userID, 10)})
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	return nil
}

func (s *DirectoryService) now() time.Time {
	return storedTime(s.clock())
}
