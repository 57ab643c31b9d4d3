package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/ITOUMEUCK/livemory/internal/platform/storage/sqlitemigrate"
	"github.com/ITOUMEUCK/livemory/internal/services/invitations/domain"
	"github.com/ITOUMEUCK/livemory/internal/services/invitations/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists invitations state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var (
	_ domain.InvitationStore = (*Store)(nil)
	_ domain.MembershipStore = (*Store)(nil)
	_ domain.Transactor      = (*Store)(nil)
	_ domain.UserDirectory   = (*Store)(nil)
	_ domain.GroupDirectory  = (*Store)(nil)
	_ domain.EventDirectory  = (*Store)(nil)
	_ domain.GuestStore      = (*Store)(nil)
)

// queryer is the statement surface shared by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func nullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

func fromNullMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

func nullID(value *int64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *value, Valid: true}
}

func fromNullID(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	id := value.Int64
	return &id
}

// Open opens a SQLite invitations store and applies embedded migrations.
// Transactions take the write lock up front so concurrent accepts serialize
// instead of failing on lock upgrades.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := "file:" + cleanPath +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return domain.ErrStoreNotConfigured
	}
	return nil
}

// WithinTx runs fn in one transaction, committing only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(domain.UnitOfWork) error) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(unitOfWork{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// unitOfWork binds the membership and transition statements to one tx.
type unitOfWork struct {
	q queryer
}

func (u unitOfWork) TransitionInvitation(ctx context.Context, t domain.InvitationTransition) (bool, error) {
	return transitionInvitation(ctx, u.q, t)
}

func (u unitOfWork) GetGroupMember(ctx context.Context, groupID, userID int64) (domain.GroupMember, error) {
	return getGroupMember(ctx, u.q, groupID, userID)
}

func (u unitOfWork) PutGroupMember(ctx context.Context, member domain.GroupMember) (domain.GroupMember, error) {
	return putGroupMember(ctx, u.q, member)
}

func (u unitOfWork) GetEventParticipant(ctx context.Context, eventID, userID int64) (domain.Participant, error) {
	return getEventParticipant(ctx, u.q, eventID, userID)
}

func (u unitOfWork) PutEventParticipant(ctx context.Context, participant domain.Participant) (domain.Participant, error) {
	return putEventParticipant(ctx, u.q, participant)
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY failure,
// optionally on the named table.column.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return column == "" || strings.Contains(strings.ToLower(err.Error()), column)
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		(column == "" || strings.Contains(message, column))
}
