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

// GuestDeps wires a GuestService.
type GuestDeps struct {
	Guests      GuestStore
	Invitations InvitationStore
	Users       UserDirectory
	Credentials CredentialIssuer
	Tokens      *TokenIssuer
	Clock       func() time.Time
	Logger      *slog.Logger
	Observer    Observer
}

// GuestService creates, authenticates, and converts guest identities.
type GuestService struct {
	guests      GuestStore
	invitations InvitationStore
	users       UserDirectory
	credentials CredentialIssuer
	tokens      *TokenIssuer
	clock       func() time.Time
	logger      *slog.Logger
	observer    Observer
}

// NewGuestService constructs guest identity use-cases.
func NewGuestService(deps GuestDeps) *GuestService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := requestctx.NewLogger(deps.Logger)
	observer := deps.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	tokens := deps.Tokens
	if tokens == nil {
		tokens = NewTokenIssuer(GuestTokenPrefix)
	}
	return &GuestService{
		guests:      deps.Guests,
		invitations: deps.Invitations,
		users:       deps.Users,
		credentials: deps.Credentials,
		tokens:      tokens,
		clock:       clock,
		logger:      logger,
		observer:    observer,
	}
}

// CreateGuestInput describes a new guest.
type CreateGuestInput struct {
	Name  string
	Email string
	Phone string
	// OriginInvitationToken is recorded as provenance when it resolves.
	OriginInvitationToken string
}

// ConvertGuestInput carries the account details for a guest conversion.
type ConvertGuestInput struct {
	Token    string
	Email    string
	Password string
}

// ConvertResult is a converted guest and the user it became.
type ConvertResult struct {
	Guest Guest
	User  User
}

// Create persists a guest under a fresh token. An origin invitation token
// that does not resolve is dropped rather than failing the call.
func (s *GuestService) Create(ctx context.Context, input CreateGuestInput) (guest Guest, err error) {
	ctx, span := tracer.Start(ctx, "GuestService.Create")
	defer func() { endSpan(span, err) }()

	if s == nil || s.guests == nil {
		return Guest{}, ErrStoreNotConfigured
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Guest{}, apperrors.New(apperrors.CodeGuestEmptyName, "guest name is required")
	}

	var origin *int64
	if token := strings.TrimSpace(input.OriginInvitationToken); token != "" && s.invitations != nil {
		inv, err := s.invitations.GetInvitationByToken(ctx, token)
		switch {
		case err == nil:
			origin = &inv.ID
		case errors.Is(err, ErrNotFound):
			s.logger.WarnContext(ctx, "guest.origin_invitation_dropped", "reason", "unknown invitation token")
		default:
			return Guest{}, fmt.Errorf("resolve origin invitation: %w", err)
		}
	}

	now := s.now()
	draft := Guest{
		Name:               name,
		Email:              normalizeEmail(input.Email),
		Phone:              strings.TrimSpace(input.Phone),
		OriginInvitationID: origin,
		CreatedAt:          now,
		LastActiveAt:       now,
	}
	created, err := insertWithFreshToken(ctx, s.tokens,
		func() { s.observer.TokenCollision("guest") },
		func(token string) (Guest, error) {
			draft.Token = token
			return s.guests.CreateGuest(ctx, draft)
		})
	if err != nil {
		return Guest{}, fmt.Errorf("create guest: %w", err)
	}

	s.observer.GuestCreated()
	s.logger.InfoContext(ctx, "guest.created",
		"guest_id", created.ID,
		"origin_invitation_id", optionalID(created.OriginInvitationID),
	)
	return created, nil
}

// GetByToken authenticates a guest and records the activity.
func (s *GuestService) GetByToken(ctx context.Context, token string) (guest Guest, err error) {
	ctx, span := tracer.Start(ctx, "GuestService.GetByToken")
	defer func() { endSpan(span, err) }()

	if s == nil || s.guests == nil {
		return Guest{}, ErrStoreNotConfigured
	}
	guest, err = s.get(ctx, token)
	if err != nil {
		return Guest{}, err
	}
	now := s.now()
	if err := s.guests.TouchGuest(ctx, guest.ID, now); err != nil {
		return Guest{}, fmt.Errorf("touch guest: %w", err)
	}
	guest.LastActiveAt = now
	return guest, nil
}

// Convert turns a guest into a registered user exactly once. The display
// name splits on its first space into first and last name.
func (s *GuestService) Convert(ctx context.Context, input ConvertGuestInput) (result ConvertResult, err error) {
	ctx, span := tracer.Start(ctx, "GuestService.Convert")
	defer func() { endSpan(span, err) }()

	if s == nil || s.guests == nil {
		return ConvertResult{}, ErrStoreNotConfigured
	}
	if s.credentials == nil {
		return ConvertResult{}, errors.New("credential issuer is not configured")
	}
	email := normalizeEmail(input.Email)
	if email == "" {
		return ConvertResult{}, apperrors.New(apperrors.CodeGuestEmailRequired, "email is required")
	}
	if input.Password == "" {
		return ConvertResult{}, apperrors.New(apperrors.CodeGuestCredentialEmpty, "password is required")
	}

	guest, err := s.get(ctx, input.Token)
	if err != nil {
		return ConvertResult{}, err
	}
	if guest.Converted() {
		return ConvertResult{}, alreadyConverted(guest)
	}
	if s.users != nil {
		_, err := s.users.GetUserByEmail(ctx, email)
		if err == nil {
			return ConvertResult{}, emailInUse(email)
		}
		if !errors.Is(err, ErrNotFound) {
			return ConvertResult{}, fmt.Errorf("check email: %w", err)
		}
	}

	hash, err := s.credentials.HashPassword(input.Password)
	if err != nil {
		return ConvertResult{}, fmt.Errorf("hash credential: %w", err)
	}
	first, last := SplitDisplayName(guest.Name)
	now := s.now()
	user, err := s.guests.ConvertGuest(ctx, GuestConversion{
		GuestID: guest.ID,
		User: User{
			FirstName:    first,
			LastName:     last,
			Email:        email,
			PasswordHash: hash,
			CreatedAt:    now,
		},
		At: now,
	})
	switch {
	case errors.Is(err, ErrAlreadyExists):
		return ConvertResult{}, emailInUse(email)
	case errors.Is(err, ErrStaleState):
		return ConvertResult{}, alreadyConverted(guest)
	case err != nil:
		return ConvertResult{}, fmt.Errorf("convert guest: %w", err)
	}

	guest.ConvertedToUserID = &user.ID
	guest.ConvertedAt = &now
	s.observer.GuestConverted()
	s.logger.InfoContext(ctx, "guest.converted", "guest_id", guest.ID, "user_id", user.ID)
	return ConvertResult{Guest: guest, User: user}, nil
}

func (s *GuestService) get(ctx context.Context, token string) (Guest, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Guest{}, apperrors.New(apperrors.CodeGuestTokenRequired, "guest token is required")
	}
	guest, err := s.guests.GetGuestByToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return Guest{}, apperrors.New(apperrors.CodeGuestNotFound, "guest not found")
	}
	if err != nil {
		return Guest{}, fmt.Errorf("get guest: %w", err)
	}
	return guest, nil
}

func (s *GuestService) now() time.Time {
	return storedTime(s.clock())
}

func alreadyConverted(guest Guest) error {
	return apperrors.WithMetadata(apperrors.CodeGuestAlreadyConverted,
		fmt.Sprintf("guest %d is already converted", guest.ID),
		map[string]string{"GuestID": strconv.FormatInt(guest.ID, 10)})
}

func emailInUse(email string) error {
	return apperrors.WithMetadata(apperrors.CodeGuestEmailInUse, "email already in use",
		map[string]string{"Email": email})
}
