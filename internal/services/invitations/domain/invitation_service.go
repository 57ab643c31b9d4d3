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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "livemory/invitations"

var tracer = otel.Tracer(tracerName)

const (
	// DefaultValidityDays is the invitation lifetime when a caller sets none.
	DefaultValidityDays = 7
	// DefaultPageSize is the list page size when a caller sets none.
	DefaultPageSize = 25
	// MaxPageSize caps list page sizes.
	MaxPageSize = 100
	// MaxValidityDays caps how far in the future an invitation may expire.
	MaxValidityDays = 365
)

// errLostRace signals a guarded transition that another caller won.
var errLostRace = errors.New("invitation transition lost race")

// InvitationDeps wires an InvitationService.
type InvitationDeps struct {
	Invitations InvitationStore
	Tx          Transactor
	Users       UserDirectory
	Groups      GroupDirectory
	Events      EventDirectory
	// Guests resolves guest acceptors. Optional.
	Guests *GuestService

	Tokens       *TokenIssuer
	Materializer *MembershipMaterializer
	Clock        func() time.Time
	Logger       *slog.Logger
	Observer     Observer

	// ValidityDays overrides DefaultValidityDays when positive.
	ValidityDays int
}

// InvitationService owns the invitation state machine.
type InvitationService struct {
	invitations  InvitationStore
	tx           Transactor
	users        UserDirectory
	groups       GroupDirectory
	events       EventDirectory
	guests       *GuestService
	tokens       *TokenIssuer
	materializer *MembershipMaterializer
	clock        func() time.Time
	logger       *slog.Logger
	observer     Observer
	validityDays int
}

// NewInvitationService constructs the invitation lifecycle.
func NewInvitationService(deps InvitationDeps) *InvitationService {
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
		tokens = NewTokenIssuer("")
	}
	materializer := deps.Materializer
	if materializer == nil {
		materializer = NewMembershipMaterializer(clock)
	}
	validity := deps.ValidityDays
	if validity <= 0 {
		validity = DefaultValidityDays
	}
	if validity > MaxValidityDays {
		validity = MaxValidityDays
	}
	return &InvitationService{
		invitations:  deps.Invitations,
		tx:           deps.Tx,
		users:        deps.Users,
		groups:       deps.Groups,
		events:       deps.Events,
		guests:       deps.Guests,
		tokens:       tokens,
		materializer: materializer,
		clock:        clock,
		logger:       logger,
		observer:     observer,
		validityDays: validity,
	}
}

// CreateInvitationInput describes a new invitation.
type CreateInvitationInput struct {
	Target          Target
	InvitedByUserID int64
	InvitedEmail    string
	InvitedPhone    string
	Role            string
	// ValidityDays of zero selects the service default.
	ValidityDays int
}

// AcceptInvitationInput identifies an invitation and who accepts it. Both
// acceptor fields empty is an anonymous accept.
type AcceptInvitationInput struct {
	Token          string
	AcceptorUserID *int64
	GuestToken     string
}

// AcceptResult is an accepted invitation and the membership it produced.
type AcceptResult struct {
	Invitation  Invitation
	GroupMember *GroupMember
	Participant *Participant
	// MembershipCreated is false when the acceptor already held the membership.
	MembershipCreated bool
}

// ListInvitationsInput configures an invitation list.
type ListInvitationsInput struct {
	Scope    InvitationScope
	Filter   string
	PageSize int
	AfterID  int64
}

// Create validates and persists a pending invitation under a fresh token.
func (s *InvitationService) Create(ctx context.Context, input CreateInvitationInput) (inv Invitation, err error) {
	ctx, span := tracer.Start(ctx, "InvitationService.Create")
	defer func() { endSpan(span, err) }()

	if err := s.ready(); err != nil {
		return Invitation{}, err
	}
	if input.Target.IsZero() {
		return Invitation{}, apperrors.New(apperrors.CodeInvitationInvalidTarget, "invitation must target a group or an event")
	}
	if input.InvitedByUserID <= 0 {
		return Invitation{}, apperrors.New(apperrors.CodeInvitationInviterRequired, "inviter user id is required")
	}
	days := input.ValidityDays
	if days < 0 || days > MaxValidityDays {
		return Invitation{}, apperrors.WithMetadata(apperrors.CodeInvitationInvalidValidity,
			fmt.Sprintf("validity days must be between 1 and %d, got %d", MaxValidityDays, days),
			map[string]string{"ValidityDays": strconv.Itoa(days), "MaxValidityDays": strconv.Itoa(MaxValidityDays)})
	}
	if days == 0 {
		days = s.validityDays
	}
	span.SetAttributes(attribute.String("invitation.target", input.Target.String()))

	if _, err := s.resolveUser(ctx, input.InvitedByUserID); err != nil {
		return Invitation{}, err
	}
	if err := s.resolveTarget(ctx, input.Target); err != nil {
		return Invitation{}, err
	}

	role := normalizeRole(input.Role)
	if role == "" {
		role = defaultRole(input.Target)
	}
	now := s.now()
	draft := Invitation{
		Target:          input.Target,
		InvitedByUserID: input.InvitedByUserID,
		InvitedEmail:    normalizeEmail(input.InvitedEmail),
		InvitedPhone:    strings.TrimSpace(input.InvitedPhone),
		Role:            role,
		Status:          StatusPending,
		ExpiresAt:       now.AddDate(0, 0, days),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := insertWithFreshToken(ctx, s.tokens,
		func() { s.observer.TokenCollision("invitation") },
		func(token string) (Invitation, error) {
			draft.Token = token
			return s.invitations.CreateInvitation(ctx, draft)
		})
	if err != nil {
		return Invitation{}, fmt.Errorf("create invitation: %w", err)
	}

	s.observer.InvitationCreated(created.Target)
	s.logger.InfoContext(ctx, "invitation.created",
		"invitation_id", created.ID,
		"target", created.Target.String(),
		"invited_by", created.InvitedByUserID,
		"role", created.Role,
		"expires_at", created.ExpiresAt,
	)
	return created, nil
}

// Lookup returns the invitation for token, persisting the EXPIRED
// transition first when a pending invitation has passed its expiry.
func (s *InvitationService) Lookup(ctx context.Context, token string) (inv Invitation, err error) {
	ctx, span := tracer.Start(ctx, "InvitationService.Lookup")
	defer func() { endSpan(span, err) }()

	if err := s.ready(); err != nil {
		return Invitation{}, err
	}
	return s.lookup(ctx, token)
}

func (s *InvitationService) lookup(ctx context.Context, token string) (Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Invitation{}, apperrors.New(apperrors.CodeInvitationTokenRequired, "invitation token is required")
	}
	inv, err := s.getByToken(ctx, token)
	if err != nil {
		return Invitation{}, err
	}

	now := s.now()
	if !inv.ExpiredAt(now) {
		return inv, nil
	}
	applied, err := s.invitations.TransitionInvitation(ctx, InvitationTransition{
		Token: token,
		From:  StatusPending,
		To:    StatusExpired,
		At:    now,
	})
	if err != nil {
		return Invitation{}, fmt.Errorf("expire invitation: %w", err)
	}
	if !applied {
		// Another caller moved it first; report whatever won.
		return s.getByToken(ctx, token)
	}

	inv.Status = StatusExpired
	inv.UpdatedAt = now
	s.observer.InvitationTransitioned(StatusPending, StatusExpired)
	s.logger.InfoContext(ctx, "invitation.expired",
		"invitation_id", inv.ID,
		"expires_at", inv.ExpiresAt,
	)
	return inv, nil
}

// Accept moves a pending invitation to ACCEPTED and materializes the
// acceptor's membership in the same transaction.
func (s *InvitationService) Accept(ctx context.Context, input AcceptInvitationInput) (result AcceptResult, err error) {
	ctx, span := tracer.Start(ctx, "InvitationService.Accept")
	defer func() { endSpan(span, err) }()

	if err := s.ready(); err != nil {
		return AcceptResult{}, err
	}
	if s.tx == nil {
		return AcceptResult{}, ErrStoreNotConfigured
	}
	guestToken := strings.TrimSpace(input.GuestToken)
	if input.AcceptorUserID != nil && guestToken != "" {
		return AcceptResult{}, apperrors.New(apperrors.CodeInvitationAcceptorConflict, "accept as a user or as a guest, not both")
	}

	inv, err := s.lookup(ctx, input.Token)
	if err != nil {
		return AcceptResult{}, err
	}
	if inv.Status != StatusPending {
		return AcceptResult{}, notPending(inv)
	}

	acceptorUserID, acceptorGuestID, err := s.resolveAcceptor(ctx, input.AcceptorUserID, guestToken)
	if err != nil {
		return AcceptResult{}, err
	}

	var groupRole GroupRole
	if groupID, ok := inv.Target.GroupID(); ok && acceptorUserID != nil {
		role, valid := ParseGroupRole(inv.Role)
		if !valid {
			return AcceptResult{}, apperrors.WithMetadata(apperrors.CodeInvitationInvalidRole,
				fmt.Sprintf("role %q is not a group role for group %d", inv.Role, groupID),
				map[string]string{"Role": inv.Role})
		}
		groupRole = role
	}

	now := s.now()
	result = AcceptResult{}
	err = s.tx.WithinTx(ctx, func(uow UnitOfWork) error {
		applied, err := uow.TransitionInvitation(ctx, InvitationTransition{
			Token:             inv.Token,
			From:              StatusPending,
			To:                StatusAccepted,
			At:                now,
			RequireUnexpired:  true,
			AcceptedByUserID:  acceptorUserID,
			AcceptedByGuestID: acceptorGuestID,
		})
		if err != nil {
			return err
		}
		if !applied {
			return errLostRace
		}
		if acceptorUserID == nil {
			return nil
		}

		if groupID, ok := inv.Target.GroupID(); ok {
			member, created, err := s.materializer.EnsureGroupMembership(ctx, uow, groupID, *acceptorUserID, groupRole)
			if err != nil {
				return fmt.Errorf("materialize group membership: %w", err)
			}
			result.GroupMember = &member
			result.MembershipCreated = created
			return nil
		}
		eventID, _ := inv.Target.EventID()
		participant, created, err := s.materializer.EnsureEventParticipant(ctx, uow, eventID, *acceptorUserID, EventRoleForInvitation(inv.Role))
		if err != nil {
			return fmt.Errorf("materialize event participant: %w", err)
		}
		result.Participant = &participant
		result.MembershipCreated = created
		return nil
	})
	if errors.Is(err, errLostRace) {
		return AcceptResult{}, s.lostRace(ctx, inv.Token)
	}
	if err != nil {
		return AcceptResult{}, fmt.Errorf("accept invitation: %w", err)
	}

	inv.Status = StatusAccepted
	inv.AcceptedAt = &now
	inv.AcceptedByUserID = acceptorUserID
	inv.AcceptedByGuestID = acceptorGuestID
	inv.UpdatedAt = now
	result.Invitation = inv

	s.observer.InvitationTransitioned(StatusPending, StatusAccepted)
	s.logger.InfoContext(ctx, "invitation.accepted",
		"invitation_id", inv.ID,
		"target", inv.Target.String(),
		"user_id", optionalID(acceptorUserID),
		"guest_id", optionalID(acceptorGuestID),
		"membership_created", result.MembershipCreated,
	)
	return result, nil
}

// Decline moves a pending invitation to DECLINED.
func (s *InvitationService) Decline(ctx context.Context, token string) (inv Invitation, err error) {
	ctx, span := tracer.Start(ctx, "InvitationService.Decline")
	defer func() { endSpan(span, err) }()

	if err := s.ready(); err != nil {
		return Invitation{}, err
	}
	inv, err = s.lookup(ctx, token)
	if err != nil {
		return Invitation{}, err
	}
	if inv.Status != StatusPending {
		return Invitation{}, notPending(inv)
	}

	now := s.now()
	applied, err := s.invitations.TransitionInvitation(ctx, InvitationTransition{
		Token:            inv.Token,
		From:             StatusPending,
		To:               StatusDeclined,
		At:               now,
		RequireUnexpired: true,
	})
	if err != nil {
		return Invitation{}, fmt.Errorf("decline invitation: %w", err)
	}
	if !applied {
		return Invitation{}, s.lostRace(ctx, inv.Token)
	}

	inv.Status = StatusDeclined
	inv.UpdatedAt = now
	s.observer.InvitationTransitioned(StatusPending, StatusDeclined)
	s.logger.InfoContext(ctx, "invitation.declined", "invitation_id", inv.ID, "target", inv.Target.String())
	return inv, nil
}

// List returns invitations in scope ordered by id. Statuses are reported as
// persisted.
func (s *InvitationService) List(ctx context.Context, input ListInvitationsInput) (page InvitationPage, err error) {
	ctx, span := tracer.Start(ctx, "InvitationService.List")
	defer func() { endSpan(span, err) }()

	if err := s.ready(); err != nil {
		return InvitationPage{}, err
	}
	scope := InvitationScope{
		InvitedEmail: normalizeEmail(input.Scope.InvitedEmail),
		GroupID:      input.Scope.GroupID,
		EventID:      input.Scope.EventID,
	}
	if scope.IsZero() {
		return InvitationPage{}, apperrors.New(apperrors.CodeInvitationListScope, "list requires an email, group, or event")
	}
	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	page, err = s.invitations.ListInvitations(ctx, InvitationQuery{
		Scope:    scope,
		Filter:   strings.TrimSpace(input.Filter),
		PageSize: pageSize,
		AfterID:  input.AfterID,
	})
	if errors.Is(err, ErrInvalidFilter) {
		return InvitationPage{}, apperrors.Wrap(apperrors.CodeInvitationInvalidFilter, err.Error(), err)
	}
	if err != nil {
		return InvitationPage{}, fmt.Errorf("list invitations: %w", err)
	}
	return page, nil
}

func (s *InvitationService) ready() error {
	if s == nil || s.invitations == nil {
		return ErrStoreNotConfigured
	}
	return nil
}

func (s *InvitationService) getByToken(ctx context.Context, token string) (Invitation, error) {
	inv, err := s.invitations.GetInvitationByToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return Invitation{}, apperrors.New(apperrors.CodeInvitationNotFound, "invitation not found")
	}
	if err != nil {
		return Invitation{}, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

// lostRace re-reads an invitation whose guarded update did not apply and
// reports its current state.
func (s *InvitationService) lostRace(ctx context.Context, token string) error {
	current, err := s.lookup(ctx, token)
	if err != nil {
		return err
	}
	if current.Status == StatusPending {
		// The guard only misses a pending row when it expired in between.
		current.Status = StatusExpired
	}
	return notPending(current)
}

func (s *InvitationService) resolveAcceptor(ctx context.Context, userID *int64, guestToken string) (*int64, *int64, error) {
	if userID != nil {
		user, err := s.resolveUser(ctx, *userID)
		if err != nil {
			return nil, nil, err
		}
		return &user.ID, nil, nil
	}
	if guestToken == "" {
		return nil, nil, nil
	}
	if s.guests == nil {
		return nil, nil, apperrors.New(apperrors.CodeGuestNotFound, "guest acceptance is not available")
	}
	guest, err := s.guests.GetByToken(ctx, guestToken)
	if err != nil {
		return nil, nil, err
	}
	if guest.Converted() {
		id := *guest.ConvertedToUserID
		return &id, nil, nil
	}
	id := guest.ID
	return nil, &id, nil
}

func (s *InvitationService) resolveUser(ctx context.Context, userID int64) (User, error) {
	if s.users == nil {
		return User{}, ErrStoreNotConfigured
	}
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return User{}, apperrors.WithMetadata(apperrors.CodeUserNotFound, fmt.Sprintf("user %d not found", userID),
			map[string]string{"UserID": strconv.FormatInt(userID, 10)})
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *InvitationService) resolveTarget(ctx context.Context, target Target) error {
	if groupID, ok := target.GroupID(); ok {
		if s.groups == nil {
			return ErrStoreNotConfigured
		}
		_, err := s.groups.GetGroup(ctx, groupID)
		if errors.Is(err, ErrNotFound) {
			return apperrors.WithMetadata(apperrors.CodeGroupNotFound, fmt.Sprintf("group %d not found", groupID),
				map[string]string{"GroupID": strconv.FormatInt(groupID, 10)})
		}
		if err != nil {
			return fmt.Errorf("get group: %w", err)
		}
		return nil
	}
	eventID, _ := target.EventID()
	if s.events == nil {
		return ErrStoreNotConfigured
	}
	_, err := s.events.GetEvent(ctx, eventID)
	if errors.Is(err, ErrNotFound) {
		return apperrors.WithMetadata(apperrors.CodeEventNotFound, fmt.Sprintf("event %d not found", eventID),
			map[string]string{"EventID": strconv.FormatInt(eventID, 10)})
	}
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}
	return nil
}

func (s *InvitationService) now() time.Time {
	return storedTime(s.clock())
}

func defaultRole(target Target) string {
	if target.IsEvent() {
		return string(EventRoleParticipant)
	}
	return string(GroupRoleMember)
}

func notPending(inv Invitation) error {
	return apperrors.WithMetadata(apperrors.CodeInvitationNotPending,
		fmt.Sprintf("invitation %d is %s", inv.ID, inv.Status),
		map[string]string{"Status": inv.Status.String()})
}

func optionalID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.End()
}
