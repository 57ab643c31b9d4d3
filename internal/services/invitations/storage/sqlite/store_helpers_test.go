package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ITOUMEUCK/livemory/internal/services/invitations/domain"
)

var testNow = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "invitations.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedUser(t *testing.T, store *Store, first, email string) domain.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), domain.User{
		FirstName: first,
		Email:     email,
		CreatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func seedGroup(t *testing.T, store *Store, ownerID int64) domain.Group {
	t.Helper()
	group, err := store.CreateGroup(context.Background(), domain.Group{
		Name:            "Weekend hikers",
		CreatedByUserID: ownerID,
		CreatedAt:       testNow,
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	return group
}

func seedEvent(t *testing.T, store *Store, organizerID int64) domain.Event {
	t.Helper()
	event, err := store.CreateEvent(context.Background(), domain.Event{
		Name:            "Summit day",
		CreatedByUserID: organizerID,
		CreatedAt:       testNow,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return event
}

func seedInvitation(t *testing.T, store *Store, token string, target domain.Target, inviterID int64, email string) domain.Invitation {
	t.Helper()
	inv, err := store.CreateInvitation(context.Background(), domain.Invitation{
		Token:           token,
		Target:          target,
		InvitedByUserID: inviterID,
		InvitedEmail:    email,
		Role:            "MEMBER",
		Status:          domain.StatusPending,
		ExpiresAt:       testNow.AddDate(0, 0, 7),
		CreatedAt:       testNow,
		UpdatedAt:       testNow,
	})
	if err != nil {
		t.Fatalf("create invitation %s: %v", token, err)
	}
	return inv
}
