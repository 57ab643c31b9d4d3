package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ITOUMEUCK/livemory/internal/services/invitations/domain"
	"github.com/ITOUMEUCK/livemory/internal/services/invitations/filter"
)

const invitationColumns = `id, token, group_id, event_id, invited_by_user_id, invited_email,
	invited_phone, role, status, expires_at, accepted_at, accepted_by_user_id,
	accepted_by_guest_id, created_at, updated_at`

// CreateInvitation inserts inv. A taken token yields domain.ErrTokenConflict.
func (s *Store) CreateInvitation(ctx context.Context, inv domain.Invitation) (domain.Invitation, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Invitation{}, err
	}
	if strings.TrimSpace(inv.Token) == "" {
		return domain.Invitation{}, fmt.Errorf("invitation token is required")
	}
	if inv.Target.IsZero() {
		return domain.Invitation{}, fmt.Errorf("invitation target is required")
	}

	var groupID, eventID sql.NullInt64
	if id, ok := inv.Target.GroupID(); ok {
		groupID = sql.NullInt64{Int64: id, Valid: true}
	}
	if id, ok := inv.Target.EventID(); ok {
		eventID = sql.NullInt64{Int64: id, Valid: true}
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO invitations (token, group_id, event_id, invited_by_user_id, invited_email,
		   invited_phone, role, status, expires_at, accepted_at, accepted_by_user_id,
		   accepted_by_guest_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.Token,
		groupID,
		eventID,
		inv.InvitedByUserID,
		inv.InvitedEmail,
		inv.InvitedPhone,
		inv.Role,
		inv.Status.String(),
		toMillis(inv.ExpiresAt),
		nullMillis(inv.AcceptedAt),
		nullID(inv.AcceptedByUserID),
		nullID(inv.AcceptedByGuestID),
		toMillis(inv.CreatedAt),
		toMillis(inv.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "invitations.token") {
			return domain.Invitation{}, domain.ErrTokenConflict
		}
		return domain.Invitation{}, fmt.Errorf("insert invitation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return domain.Invitation{}, fmt.Errorf("invitation id: %w", err)
	}
	inv.ID = id
	return inv, nil
}

// GetInvitationByToken returns the invitation issued under token.
func (s *Store) GetInvitationByToken(ctx context.Context, token string) (domain.Invitation, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Invitation{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE token = ?`,
		strings.TrimSpace(token),
	)
	inv, err := scanInvitation(row)
	if err != nil {
		return domain.Invitation{}, fmt.Errorf("get invitation by token: %w", err)
	}
	return inv, nil
}

// TransitionInvitation applies t outside a transaction.
func (s *Store) TransitionInvitation(ctx context.Context, t domain.InvitationTransition) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	return transitionInvitation(ctx, s.sqlDB, t)
}

// ListInvitations returns one keyset page ordered by id.
func (s *Store) ListInvitations(ctx context.Context, q domain.InvitationQuery) (domain.InvitationPage, error) {
	if err := s.ready(ctx); err != nil {
		return domain.InvitationPage{}, err
	}
	if q.Scope.IsZero() {
		return domain.InvitationPage{}, fmt.Errorf("list scope is required")
	}
	if q.PageSize <= 0 {
		return domain.InvitationPage{}, fmt.Errorf("page size must be greater than zero")
	}
	cond, err := filter.Parse(q.Filter)
	if err != nil {
		if errors.Is(err, filter.ErrInvalid) {
			return domain.InvitationPage{}, fmt.Errorf("%w: %v", domain.ErrInvalidFilter, err)
		}
		return domain.InvitationPage{}, err
	}

	clauses := []string{"id > ?"}
	params := []any{q.AfterID}
	if q.Scope.InvitedEmail != "" {
		clauses = append(clauses, "invited_email = ?")
		params = append(params, q.Scope.InvitedEmail)
	}
	if q.Scope.GroupID != 0 {
		clauses = append(clauses, "group_id = ?")
		params = append(params, q.Scope.GroupID)
	}
	if q.Scope.EventID != 0 {
		clauses = append(clauses, "event_id = ?")
		params = append(params, q.Scope.EventID)
	}
	if !cond.Empty() {
		clauses = append(clauses, cond.Clause)
		params = append(params, cond.Params...)
	}
	params = append(params, q.PageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		 WHERE `+strings.Join(clauses, " AND ")+`
		 ORDER BY id ASC
		 LIMIT ?`,
		params...,
	)
	if err != nil {
		return domain.InvitationPage{}, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	page := domain.InvitationPage{Invitations: make([]domain.Invitation, 0, q.PageSize)}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return domain.InvitationPage{}, fmt.Errorf("list invitations: %w", err)
		}
		page.Invitations = append(page.Invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return domain.InvitationPage{}, fmt.Errorf("list invitations: %w", err)
	}
	if len(page.Invitations) > q.PageSize {
		page.Invitations = page.Invitations[:q.PageSize]
		page.NextAfterID = page.Invitations[q.PageSize-1].ID
	}
	return page, nil
}

// transitionInvitation is the compare-and-swap every status change goes
// through. It reports false when the row is gone, no longer in t.From, or
// expired under RequireUnexpired.
func transitionInvitation(ctx context.Context, q queryer, t domain.InvitationTransition) (bool, error) {
	var acceptedAt sql.NullInt64
	if t.To == domain.StatusAccepted {
		acceptedAt = sql.NullInt64{Int64: toMillis(t.At), Valid: true}
	}
	requireUnexpired := 0
	if t.RequireUnexpired {
		requireUnexpired = 1
	}
	result, err := q.ExecContext(ctx,
		`UPDATE invitations SET
		   status = ?,
		   updated_at = ?,
		   accepted_at = COALESCE(?, accepted_at),
		   accepted_by_user_id = COALESCE(?, accepted_by_user_id),
		   accepted_by_guest_id = COALESCE(?, accepted_by_guest_id)
		 WHERE token = ? AND status = ? AND (? = 0 OR expires_at >= ?)`,
		t.To.String(),
		toMillis(t.At),
		acceptedAt,
		nullID(t.AcceptedByUserID),
		nullID(t.AcceptedByGuestID),
		t.Token,
		t.From.String(),
		requireUnexpired,
		toMillis(t.At),
	)
	if err != nil {
		return false, fmt.Errorf("transition invitation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition invitation rows: %w", err)
	}
	return affected == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvitation(row rowScanner) (domain.Invitation, error) {
	var (
		inv               domain.Invitation
		groupID, eventID  sql.NullInt64
		status            string
		expiresAt         int64
		acceptedAt        sql.NullInt64
		acceptedByUserID  sql.NullInt64
		acceptedByGuestID sql.NullInt64
		createdAt         int64
		updatedAt         int64
	)
	err := row.Scan(
		&inv.ID,
		&inv.Token,
		&groupID,
		&eventID,
		&inv.InvitedByUserID,
		&inv.InvitedEmail,
		&inv.InvitedPhone,
		&inv.Role,
		&status,
		&expiresAt,
		&acceptedAt,
		&acceptedByUserID,
		&acceptedByGuestID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Invitation{}, domain.ErrNotFound
		}
		return domain.Invitation{}, err
	}
	switch {
	case groupID.Valid:
		inv.Target = domain.GroupTarget(groupID.Int64)
	case eventID.Valid:
		inv.Target = domain.EventTarget(eventID.Int64)
	}
	inv.Status = domain.StatusFromLabel(status)
	inv.ExpiresAt = fromMillis(expiresAt)
	inv.AcceptedAt = fromNullMillis(acceptedAt)
	inv.AcceptedByUserID = fromNullID(acceptedByUserID)
	inv.AcceptedByGuestID = fromNullID(acceptedByGuestID)
	inv.CreatedAt = fromMillis(createdAt)
	inv.UpdatedAt = fromMillis(updatedAt)
	return inv, nil
}
