package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ITOUMEUCK/livemory/internal/services/invitations/domain"
)

// CreateUser inserts a user. A taken email yields domain.ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	if err := s.ready(ctx); err != nil {
		return domain.User{}, err
	}
	return insertUser(ctx, s.sqlDB, user)
}

// GetUser returns the user with id.
func (s *Store) GetUser(ctx context.Context, id int64) (domain.User, error) {
	if err := s.ready(ctx); err != nil {
		return domain.User{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, email, password_hash, created_at
		 FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail returns the user registered under email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	if err := s.ready(ctx); err != nil {
		return domain.User{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, email, password_hash, created_at
		 FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// CreateGroup inserts a group and makes its creator the OWNER.
func (s *Store) CreateGroup(ctx context.Context, group domain.Group) (domain.Group, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Group{}, err
	}
	if strings.TrimSpace(group.Name) == "" {
		return domain.Group{}, fmt.Errorf("group name is required")
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Group{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO user_groups (name, description, created_by_user_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		strings.TrimSpace(group.Name),
		group.Description,
		group.CreatedByUserID,
		toMillis(group.CreatedAt),
	)
	if err != nil {
		return domain.Group{}, fmt.Errorf("insert group: %w", err)
	}
	if group.ID, err = result.LastInsertId(); err != nil {
		return domain.Group{}, fmt.Errorf("group id: %w", err)
	}
	if _, err := putGroupMember(ctx, tx, domain.GroupMember{
		GroupID:  group.ID,
		UserID:   group.CreatedByUserID,
		Role:     domain.GroupRoleOwner,
		JoinedAt: group.CreatedAt,
	}); err != nil {
		return domain.Group{}, fmt.Errorf("add group owner: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Group{}, fmt.Errorf("commit group: %w", err)
	}
	return group, nil
}

// GetGroup returns the group with id.
func (s *Store) GetGroup(ctx context.Context, id int64) (domain.Group, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Group{}, err
	}
	var (
		group     domain.Group
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, description, created_by_user_id, created_at
		 FROM user_groups WHERE id = ?`, id,
	).Scan(&group.ID, &group.Name, &group.Description, &group.CreatedByUserID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Group{}, domain.ErrNotFound
		}
		return domain.Group{}, fmt.Errorf("get group: %w", err)
	}
	group.CreatedAt = fromMillis(createdAt)
	return group, nil
}

// ListGroupMembers returns a group's members in join order.
func (s *Store) ListGroupMembers(ctx context.Context, groupID int64) ([]domain.GroupMember, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, group_id, user_id, role, joined_at
		 FROM group_members WHERE group_id = ?
		 ORDER BY joined_at ASC, id ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	defer rows.Close()

	var members []domain.GroupMember
	for rows.Next() {
		member, err := scanGroupMember(rows)
		if err != nil {
			return nil, fmt.Errorf("list group members: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return members, nil
}

// CreateEvent inserts an event and makes its creator a confirmed ORGANIZER.
func (s *Store) CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Event{}, err
	}
	if strings.TrimSpace(event.Name) == "" {
		return domain.Event{}, fmt.Errorf("event name is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO events (name, description, group_id, created_by_user_id, starts_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(event.Name),
		event.Description,
		nullID(event.GroupID),
		event.CreatedByUserID,
		nullMillis(event.StartsAt),
		toMillis(event.CreatedAt),
	)
	if err != nil {
		return domain.Event{}, fmt.Errorf("insert event: %w", err)
	}
	if event.ID, err = result.LastInsertId(); err != nil {
		return domain.Event{}, fmt.Errorf("event id: %w", err)
	}
	if _, err := putEventParticipant(ctx, tx, domain.Participant{
		EventID:  event.ID,
		UserID:   event.CreatedByUserID,
		Role:     domain.EventRoleOrganizer,
		Status:   domain.ParticipantConfirmed,
		JoinedAt: event.CreatedAt,
	}); err != nil {
		return domain.Event{}, fmt.Errorf("add event organizer: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Event{}, fmt.Errorf("commit event: %w", err)
	}
	return event, nil
}

// GetEvent returns the event with id.
func (s *Store) GetEvent(ctx context.Context, id int64) (domain.Event, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Event{}, err
	}
	var (
		event     domain.Event
		groupID   sql.NullInt64
		startsAt  sql.NullInt64
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, description, group_id, created_by_user_id, starts_at, created_at
		 FROM events WHERE id = ?`, id,
	).Scan(&event.ID, &event.Name, &event.Description, &groupID, &event.CreatedByUserID, &startsAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Event{}, domain.ErrNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	event.GroupID = fromNullID(groupID)
	event.StartsAt = fromNullMillis(startsAt)
	event.CreatedAt = fromMillis(createdAt)
	return event, nil
}

// ListEventParticipants returns every participant row of an event, step
// rows included, in join order.
func (s *Store) ListEventParticipants(ctx context.Context, eventID int64) ([]domain.Participant, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, event_id, user_id, step_id, role, status, joined_at
		 FROM participants WHERE event_id = ?
		 ORDER BY joined_at ASC, id ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event participants: %w", err)
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		participant, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("list event participants: %w", err)
		}
		participants = append(participants, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list event participants: %w", err)
	}
	return participants, nil
}

// GetGroupMember returns the (group, user) membership outside a transaction.
func (s *Store) GetGroupMember(ctx context.Context, groupID, userID int64) (domain.GroupMember, error) {
	if err := s.ready(ctx); err != nil {
		return domain.GroupMember{}, err
	}
	return getGroupMember(ctx, s.sqlDB, groupID, userID)
}

// PutGroupMember inserts a membership outside a transaction.
func (s *Store) PutGroupMember(ctx context.Context, member domain.GroupMember) (domain.GroupMember, error) {
	if err := s.ready(ctx); err != nil {
		return domain.GroupMember{}, err
	}
	return putGroupMember(ctx, s.sqlDB, member)
}

// GetEventParticipant returns the event-wide participant outside a transaction.
func (s *Store) GetEventParticipant(ctx context.Context, eventID, userID int64) (domain.Participant, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Participant{}, err
	}
	return getEventParticipant(ctx, s.sqlDB, eventID, userID)
}

// PutEventParticipant inserts a participant outside a transaction.
func (s *Store) PutEventParticipant(ctx context.Context, participant domain.Participant) (domain.Participant, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Participant{}, err
	}
	return putEventParticipant(ctx, s.sqlDB, participant)
}

func insertUser(ctx context.Context, q queryer, user domain.User) (domain.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" {
		return domain.User{}, fmt.Errorf("user email is required")
	}
	result, err := q.ExecContext(ctx,
		`INSERT INTO users (first_name, last_name, email, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		toMillis(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return domain.User{}, domain.ErrAlreadyExists
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	if user.ID, err = result.LastInsertId(); err != nil {
		return domain.User{}, fmt.Errorf("user id: %w", err)
	}
	return user, nil
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		user      domain.User
		createdAt int64
	)
	if err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}

func getGroupMember(ctx context.Context, q queryer, groupID, userID int64) (domain.GroupMember, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, group_id, user_id, role, joined_at
		 FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)
	member, err := scanGroupMember(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.GroupMember{}, err
		}
		return domain.GroupMember{}, fmt.Errorf("get group member: %w", err)
	}
	return member, nil
}

func putGroupMember(ctx context.Context, q queryer, member domain.GroupMember) (domain.GroupMember, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role, joined_at)
		 VALUES (?, ?, ?, ?)`,
		member.GroupID,
		member.UserID,
		string(member.Role),
		toMillis(member.JoinedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "group_members") {
			return domain.GroupMember{}, domain.ErrAlreadyExists
		}
		return domain.GroupMember{}, fmt.Errorf("insert group member: %w", err)
	}
	if member.ID, err = result.LastInsertId(); err != nil {
		return domain.GroupMember{}, fmt.Errorf("group member id: %w", err)
	}
	return member, nil
}

func scanGroupMember(row rowScanner) (domain.GroupMember, error) {
	var (
		member   domain.GroupMember
		role     string
		joinedAt int64
	)
	if err := row.Scan(&member.ID, &member.GroupID, &member.UserID, &role, &joinedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.GroupMember{}, domain.ErrNotFound
		}
		return domain.GroupMember{}, err
	}
	member.Role = domain.GroupRole(role)
	member.JoinedAt = fromMillis(joinedAt)
	return member, nil
}

func getEventParticipant(ctx context.Context, q queryer, eventID, userID int64) (domain.Participant, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, event_id, user_id, step_id, role, status, joined_at
		 FROM participants WHERE event_id = ? AND user_id = ? AND step_id IS NULL`, eventID, userID)
	participant, err := scanParticipant(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Participant{}, err
		}
		return domain.Participant{}, fmt.Errorf("get event participant: %w", err)
	}
	return participant, nil
}

func putEventParticipant(ctx context.Context, q queryer, participant domain.Participant) (domain.Participant, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO participants (event_id, user_id, step_id, role, status, joined_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		participant.EventID,
		participant.UserID,
		nullID(participant.StepID),
		string(participant.Role),
		string(participant.Status),
		toMillis(participant.JoinedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "participants") {
			return domain.Participant{}, domain.ErrAlreadyExists
		}
		return domain.Participant{}, fmt.Errorf("insert participant: %w", err)
	}
	if participant.ID, err = result.LastInsertId(); err != nil {
		return domain.Participant{}, fmt.Errorf("participant id: %w", err)
	}
	return participant, nil
}

func scanParticipant(row rowScanner) (domain.Participant, error) {
	var (
		participant domain.Participant
		stepID      sql.NullInt64
		role        string
		status      string
		joinedAt    int64
	)
	if err := row.Scan(&participant.ID, &participant.EventID, &participant.UserID, &stepID, &role, &status, &joinedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Participant{}, domain.ErrNotFound
		}
		return domain.Participant{}, err
	}
	participant.StepID = fromNullID(stepID)
	participant.Role = domain.EventRole(role)
	participant.Status = domain.ParticipantStatus(status)
	participant.JoinedAt = fromMillis(joinedAt)
	return participant, nil
}
