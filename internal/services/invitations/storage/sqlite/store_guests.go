package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ITOUMEUCK/livemory/internal/services/invitations/domain"
)

const guestColumns = `id, token, name, email, phone, origin_invitation_id, created_at,
	last_active_at, converted_to_user_id, converted_at`

// CreateGuest inserts guest. A taken token yields domain.ErrTokenConflict.
func (s *Store) CreateGuest(ctx context.Context, guest domain.Guest) (domain.Guest, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Guest{}, err
	}
	if strings.TrimSpace(guest.Token) == "" {
		return domain.Guest{}, fmt.Errorf("guest token is required")
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO guests (token, name, email, phone, origin_invitation_id, created_at,
		   last_active_at, converted_to_user_id, converted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		guest.Token,
		guest.Name,
		guest.Email,
		guest.Phone,
		nullID(guest.OriginInvitationID),
		toMillis(guest.CreatedAt),
		toMillis(guest.LastActiveAt),
		nullID(guest.ConvertedToUserID),
		nullMillis(guest.ConvertedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "guests.token") {
			return domain.Guest{}, domain.ErrTokenConflict
		}
		return domain.Guest{}, fmt.Errorf("insert guest: %w", err)
	}
	if guest.ID, err = result.LastInsertId(); err != nil {
		return domain.Guest{}, fmt.Errorf("guest id: %w", err)
	}
	return guest, nil
}

// GetGuestByToken returns the guest authenticated by token.
func (s *Store) GetGuestByToken(ctx context.Context, token string) (domain.Guest, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Guest{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+guestColumns+` FROM guests WHERE token = ?`, strings.TrimSpace(token))
	guest, err := scanGuest(row)
	if err != nil {
		return domain.Guest{}, fmt.Errorf("get guest by token: %w", err)
	}
	return guest, nil
}

// TouchGuest records guest activity at at.
func (s *Store) TouchGuest(ctx context.Context, guestID int64, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE guests SET last_active_at = ? WHERE id = ?`, toMillis(at), guestID)
	if err != nil {
		return fmt.Errorf("touch guest: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch guest rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ConvertGuest inserts the user and links the guest to it in one
// transaction. The link only applies while the guest is unconverted.
func (s *Store) ConvertGuest(ctx context.Context, conversion domain.GuestConversion) (domain.User, error) {
	if err := s.ready(ctx); err != nil {
		return domain.User{}, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var convertedTo sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT converted_to_user_id FROM guests WHERE id = ?`, conversion.GuestID,
	).Scan(&convertedTo)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load guest: %w", err)
	}
	if convertedTo.Valid {
		return domain.User{}, domain.ErrStaleState
	}

	user, err := insertUser(ctx, tx, conversion.User)
	if err != nil {
		return domain.User{}, err
	}
	result, err := tx.ExecContext(ctx,
		`UPDATE guests SET converted_to_user_id = ?, converted_at = ?
		 WHERE id = ? AND converted_to_user_id IS NULL`,
		user.ID,
		toMillis(conversion.At),
		conversion.GuestID,
	)
	if err != nil {
		return domain.User{}, fmt.Errorf("link guest: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.User{}, fmt.Errorf("link guest rows: %w", err)
	}
	if affected != 1 {
		return domain.User{}, domain.ErrStaleState
	}
	if err := tx.Commit(); err != nil {
		return domain.User{}, fmt.Errorf("commit conversion: %w", err)
	}
	return user, nil
}

func scanGuest(row rowScanner) (domain.Guest, error) {
	var (
		guest        domain.Guest
		origin       sql.NullInt64
		createdAt    int64
		lastActiveAt int64
		convertedTo  sql.NullInt64
		convertedAt  sql.NullInt64
	)
	err := row.Scan(
		&guest.ID,
		&guest.Token,
		&guest.Name,
		&guest.Email,
		&guest.Phone,
		&origin,
		&createdAt,
		&lastActiveAt,
		&convertedTo,
		&convertedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Guest{}, domain.ErrNotFound
		}
		return domain.Guest{}, err
	}
	guest.OriginInvitationID = fromNullID(origin)
	guest.CreatedAt = fromMillis(createdAt)
	guest.LastActiveAt = fromMillis(lastActiveAt)
	guest.ConvertedToUserID = fromNullID(convertedTo)
	guest.ConvertedAt = fromNullMillis(convertedAt)
	return guest, nil
}
