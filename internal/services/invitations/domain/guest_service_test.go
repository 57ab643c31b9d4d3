package domain

import (
	"context"
	"strings"
	"testing"
	"time"

	apperrors "github.com/ITOUMEUCK/livemory/internal/platform/errors"
)

func newGuestFixture(t *testing.T) (*fakeStore, *movableClock, *GuestService) {
	t.Helper()
	store := newFakeStore()
	clock := &movableClock{now: time.Date(2026, 4, 10, 18, 0, 0, 0, time.UTC)}
	svc := NewGuestService(GuestDeps{
		Guests:      store,
		Invitations: store,
		Users:       store,
		Credentials: prefixHasher{},
		Clock:       clock.Now,
		Logger:      discardLogger(),
	})
	return store, clock, svc
}

func TestCreateGuest(t *testing.T) {
	t.Parallel()
	_, clock, svc := newGuestFixture(t)

	guest, err := svc.Create(context.Background(), CreateGuestInput{Name: "  Jane Doe ", Email: " JANE@x.com", Phone: "0600"})
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}
	if !strings.HasPrefix(guest.Token, GuestTokenPrefix) {
		t.Fatalf("token = %q", guest.Token)
	}
	if guest.Name != "Jane Doe" || guest.Email != "jane@x.com" || guest.Phone != "0600" {
		t.Fatalf("unexpected profile %+v", guest)
	}
	if !guest.CreatedAt.Equal(clock.Now()) || !guest.LastActiveAt.Equal(clock.Now()) {
		t.Fatalf("timestamps = %v / %v", guest.CreatedAt, guest.LastActiveAt)
	}
	if guest.Converted() || guest.OriginInvitationID != nil {
		t.Fatal("fresh guest must be unconverted without provenance")
	}

	if _, err := svc.Create(context.Background(), CreateGuestInput{Name: "   "}); !apperrors.IsCode(err, apperrors.CodeGuestEmptyName) {
		t.Fatalf("empty name err = %v", err)
	}
}

func TestCreateGuestOriginInvitation(t *testing.T) {
	t.Parallel()
	store, _, svc := newGuestFixture(t)
	ctx := context.Background()
	inv, err := store.CreateInvitation(ctx, Invitation{Token: "origin-token", Target: GroupTarget(1), Status: StatusPending})
	if err != nil {
		t.Fatalf("seed invitation: %v", err)
	}

	linked, err := svc.Create(ctx, CreateGuestInput{Name: "Linked", OriginInvitationToken: "origin-token"})
	if err != nil {
		t.Fatalf("create linked guest: %v", err)
	}
	if linked.OriginInvitationID == nil || *linked.OriginInvitationID != inv.ID {
		t.Fatalf("origin = %v, want %d", linked.OriginInvitationID, inv.ID)
	}

	dropped, err := svc.Create(ctx, CreateGuestInput{Name: "Dropped", OriginInvitationToken: "stale-token"})
	if err != nil {
		t.Fatalf("unknown origin must not fail: %v", err)
	}
	if dropped.OriginInvitationID != nil {
		t.Fatalf("origin = %v, want dropped", *dropped.OriginInvitationID)
	}
}

func TestGetGuestByTokenTouchesActivity(t *testing.T) {
	t.Parallel()
	store, clock, svc := newGuestFixture(t)
	ctx := context.Background()
	guest, err := svc.Create(ctx, CreateGuestInput{Name: "Toucher"})
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}

	clock.Advance(3 * time.Hour)
	got, err := svc.GetByToken(ctx, guest.Token)
	if err != nil {
		t.Fatalf("get guest: %v", err)
	}
	if !got.LastActiveAt.Equal(clock.Now()) {
		t.Fatalf("returned last active = %v", got.LastActiveAt)
	}
	if stored := store.guest(guest.ID); !stored.LastActiveAt.Equal(clock.Now()) {
		t.Fatalf("persisted last active = %v", stored.LastActiveAt)
	}

	if _, err := svc.GetByToken(ctx, "guest_unknown"); !apperrors.IsCode(err, apperrors.CodeGuestNotFound) {
		t.Fatalf("unknown err = %v", err)
	}
	if _, err := svc.GetByToken(ctx, ""); !apperrors.IsCode(err, apperrors.CodeGuestTokenRequired) {
		t.Fatalf("empty err = %v", err)
	}
}

func TestConvertGuestSplitsName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name, first, last string
	}{
		{"Jane Doe", "Jane", "Doe"},
		{"Madonna", "Madonna", ""},
		{"Jane  Doe", "Jane", " Doe"},
	}
	for _, tc := range tests {
		store, _, svc := newGuestFixture(t)
		ctx := context.Background()
		guest, err := svc.Create(ctx, CreateGuestInput{Name: tc.name})
		if err != nil {
			t.Fatalf("create guest: %v", err)
		}

		result, err := svc.Convert(ctx, ConvertGuestInput{Token: guest.Token, Email: "Jane@X.com", Password: "pw"})
		if err != nil {
			t.Fatalf("convert %q: %v", tc.name, err)
		}
		if result.User.FirstName != tc.first || result.User.LastName != tc.last {
			t.Fatalf("convert %q = (%q, %q)", tc.name, result.User.FirstName, result.User.LastName)
		}
		if result.User.Email != "jane@x.com" || result.User.PasswordHash != "hash:pw" {
			t.Fatalf("user = %+v", result.User)
		}
		stored := store.guest(guest.ID)
		if stored.ConvertedToUserID == nil || *stored.ConvertedToUserID != result.User.ID || stored.ConvertedAt == nil {
			t.Fatalf("guest not linked: %+v", stored)
		}
	}
}

func TestConvertGuestTwiceFails(t *testing.T) {
	t.Parallel()
	store, _, svc := newGuestFixture(t)
	ctx := context.Background()
	guest, _ := svc.Create(ctx, CreateGuestInput{Name: "Once Only"})

	first, err := svc.Convert(ctx, ConvertGuestInput{Token: guest.Token, Email: "once@x.com", Password: "pw"})
	if err != nil {
		t.Fatalf("first convert: %v", err)
	}
	_, err = svc.Convert(ctx, ConvertGuestInput{Token: guest.Token, Email: "twice@x.com", Password: "pw"})
	if !apperrors.IsCode(err, apperrors.CodeGuestAlreadyConverted) {
		t.Fatalf("second convert err = %v", err)
	}
	if got := store.guest(guest.ID).ConvertedToUserID; got == nil || *got != first.User.ID {
		t.Fatalf("conversion target changed to %v", got)
	}
	if store.userCount() != 1 {
		t.Fatalf("users = %d, want 1", store.userCount())
	}
}

func TestConvertGuestEmailConflict(t *testing.T) {
	t.Parallel()
	store, _, svc := newGuestFixture(t)
	ctx := context.Background()
	store.addUser("Existing", "User", "taken@x.com")
	guest, _ := svc.Create(ctx, CreateGuestInput{Name: "Late Comer"})

	_, err := svc.Convert(ctx, ConvertGuestInput{Token: guest.Token, Email: " TAKEN@x.com ", Password: "pw"})
	if !apperrors.IsCode(err, apperrors.CodeGuestEmailInUse) {
		t.Fatalf("err = %v", err)
	}
	if store.guest(guest.ID).Converted() {
		t.Fatal("guest must stay unconverted")
	}
}

func TestConvertGuestStoreRaces(t *testing.T) {
	t.Parallel()
	store, _, svc := newGuestFixture(t)
	ctx := context.Background()
	guest, _ := svc.Create(ctx, CreateGuestInput{Name: "Racer"})

	store.convertErr = ErrAlreadyExists
	if _, err := svc.Convert(ctx, ConvertGuestInput{Token: guest.Token, Email: "r@x.com", Password: "pw"}); !apperrors.IsCode(err, apperrors.CodeGuestEmailInUse) {
		t.Fatalf("email race err = %v", err)
	}
	store.convertErr = ErrStaleState
	if _, err := svc.Convert(ctx, ConvertGuestInput{Token: guest.Token, Email: "r@x.com", Password: "pw"}); !apperrors.IsCode(err, apperrors.CodeGuestAlreadyConverted) {
		t.Fatalf("conversion race err = %v", err)
	}
}

func TestConvertGuestValidation(t *testing.T) {
	t.Parallel()
	_, _, svc := newGuestFixture(t)
	ctx := context.Background()
	guest, _ := svc.Create(ctx, CreateGuestInput{Name: "Valid"})

	if _, err := svc.Convert(ctx, ConvertGuestInput{Token: guest.Token, Password: "pw"}); !apperrors.IsCode(err, apperrors.CodeGuestEmailRequired) {
		t.Fatalf("missing email err = %v", err)
	}
	if _, err := svc.Convert(ctx, ConvertGuestInput{Token: guest.Token, Email: "v@x.com"}); !apperrors.IsCode(err, apperrors.CodeGuestCredentialEmpty) {
		t.Fatalf("missing password err = %v", err)
	}
	if _, err := svc.Convert(ctx, ConvertGuestInput{Token: "guest_nope", Email: "v@x.com", Password: "pw"}); !apperrors.IsCode(err, apperrors.CodeGuestNotFound) {
		t.Fatalf("unknown guest err = %v", err)
	}
}
