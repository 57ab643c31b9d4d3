package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ITOUMEUCK/livemory/internal/services/invitations/domain"
)

func seedGuest(t *testing.T, store *Store, token string, origin *int64) domain.Guest {
	t.Helper()
	guest, err := store.CreateGuest(context.Background(), domain.Guest{
		Token:              token,
		Name:               "Jane Doe",
		Email:              "jane@x.com",
		OriginInvitationID: origin,
		CreatedAt:          testNow,
		LastActiveAt:       testNow,
	})
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}
	return guest
}

func TestGuestRoundTripAndTouch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "Olga", "olga@x.com")
	group := seedGroup(t, store, owner.ID)
	inv := seedInvitation(t, store, "origin", domain.GroupTarget(group.ID), owner.ID, "")
	guest := seedGuest(t, store, "guest_abc", &inv.ID)

	if _, err := store.CreateGuest(ctx, domain.Guest{Token: "guest_abc", Name: "Other", CreatedAt: testNow, LastActiveAt: testNow}); !errors.Is(err, domain.ErrTokenConflict) {
		t.Fatalf("duplicate token err = %v", err)
	}

	later := testNow.Add(2 * time.Hour)
	if err := store.TouchGuest(ctx, guest.ID, later); err != nil {
		t.Fatalf("touch: %v", err)
	}
	got, err := store.GetGuestByToken(ctx, "guest_abc")
	if err != nil {
		t.Fatalf("get guest: %v", err)
	}
	if !got.LastActiveAt.Equal(later) || !got.CreatedAt.Equal(testNow) {
		t.Fatalf("timestamps = %v / %v", got.CreatedAt, got.LastActiveAt)
	}
	if got.OriginInvitationID == nil || *got.OriginInvitationID != inv.ID || got.Converted() {
		t.Fatalf("guest = %+v", got)
	}
	if err := store.TouchGuest(ctx, 999, later); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("touch missing err = %v", err)
	}
}

func TestConvertGuestOnce(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	guest := seedGuest(t, store, "guest_conv", nil)

	at := testNow.Add(time.Hour)
	user, err := store.ConvertGuest(ctx, domain.GuestConversion{
		GuestID: guest.ID,
		User:    domain.User{FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", PasswordHash: "h", CreatedAt: at},
		At:      at,
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	got, _ := store.GetGuestByToken(ctx, "guest_conv")
	if got.ConvertedToUserID == nil || *got.ConvertedToUserID != user.ID || got.ConvertedAt == nil || !got.ConvertedAt.Equal(at) {
		t.Fatalf("guest = %+v", got)
	}

	_, err = store.ConvertGuest(ctx, domain.GuestConversion{
		GuestID: guest.ID,
		User:    domain.User{FirstName: "Jane", Email: "other@x.com", CreatedAt: at},
		At:      at,
	})
	if !errors.Is(err, domain.ErrStaleState) {
		t.Fatalf("second convert err = %v", err)
	}
	if _, err := store.GetUserByEmail(ctx, "other@x.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second conversion leaked a user: %v", err)
	}
}

func TestConvertGuestEmailTakenRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedUser(t, store, "Taken", "taken@x.com")
	guest := seedGuest(t, store, "guest_late", nil)

	_, err := store.ConvertGuest(ctx, domain.GuestConversion{
		GuestID: guest.ID,
		User:    domain.User{FirstName: "Jane", Email: "taken@x.com", CreatedAt: testNow},
		At:      testNow,
	})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("err = %v", err)
	}
	got, _ := store.GetGuestByToken(ctx, "guest_late")
	if got.Converted() {
		t.Fatal("guest must stay unconverted")
	}
	if _, err := store.ConvertGuest(ctx, domain.GuestConversion{GuestID: 404, User: domain.User{Email: "n@x.com"}, At: testNow}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing guest err = %v", err)
	}
}
