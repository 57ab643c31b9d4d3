package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"

	platformgrpc "github.com/ITOUMEUCK/livemory/internal/platform/grpc"
	"github.com/ITOUMEUCK/livemory/internal/platform/timeouts"
	invitationsapi "github.com/ITOUMEUCK/livemory/internal/services/invitations/api/grpc/invitations"
)

func startServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Fatalf("serve: %v", serveErr)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for server shutdown")
		}
	})
	return srv
}

func TestServer_InviteAcceptRoundTrip(t *testing.T) {
	srv := startServer(t, Config{
		Addr:        "127.0.0.1:0",
		MetricsAddr: "127.0.0.1:0",
		DBPath:      filepath.Join(t.TempDir(), "invitations.db"),
		BaseURL:     "https://livemory.test",
		BcryptCost:  4,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	ctx := context.Background()
	dialCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCDial)
	defer cancel()
	conn, err := platformgrpc.DialWithHealth(dialCtx, grpc.NewClient, srv.Addr(), invitationsapi.ServiceName,
		timeouts.GRPCDial, t.Logf, platformgrpc.DefaultClientDialOptions(invitationsapi.ContentSubtype)...)
	if err != nil {
		t.Fatalf("dial invitations server: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := conn.Close(); closeErr != nil {
			t.Fatalf("close gRPC connection: %v", closeErr)
		}
	})
	client := invitationsapi.NewClient(conn)

	ownerResp, err := client.CreateUser(ctx, &invitationsapi.CreateUserRequest{FirstName: "Olga", Email: "olga@x.com"})
	if err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	owner := ownerResp.User
	groupResp, err := client.CreateGroup(ctx, &invitationsapi.CreateGroupRequest{Name: "Hikers", CreatedByUserID: owner.ID})
	if err != nil {
		t.Fatalf("seed group: %v", err)
	}
	group := groupResp.Group

	created, err := client.CreateInvitation(ctx, &invitationsapi.CreateInvitationRequest{
		InvitedByUserID: owner.ID,
		GroupID:         &group.ID,
		InvitedEmail:    "guest@x.com",
	})
	if err != nil {
		t.Fatalf("create invitation: %v", err)
	}
	if !strings.HasPrefix(created.Invitation.InvitationLink, "https://livemory.test/invitations/") {
		t.Fatalf("link = %q", created.Invitation.InvitationLink)
	}

	guest, err := client.CreateGuest(ctx, &invitationsapi.CreateGuestRequest{
		Name:            "Jane Doe",
		InvitationToken: created.Invitation.Token,
	})
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}
	if guest.Guest.OriginInvitationID == nil || *guest.Guest.OriginInvitationID != created.Invitation.ID {
		t.Fatalf("origin = %v", guest.Guest.OriginInvitationID)
	}
	converted, err := client.ConvertGuest(ctx, &invitationsapi.ConvertGuestRequest{
		Token:    guest.Guest.Token,
		Email:    "jane@x.com",
		Password: "pw",
	})
	if err != nil {
		t.Fatalf("convert guest: %v", err)
	}

	accepted, err := client.AcceptInvitation(ctx, &invitationsapi.AcceptInvitationRequest{
		Token:      created.Invitation.Token,
		GuestToken: guest.Guest.Token,
	})
	if err != nil {
		t.Fatalf("accept invitation: %v", err)
	}
	if accepted.GroupMember == nil || accepted.GroupMember.UserID != converted.User.ID {
		t.Fatalf("converted guest should join as its user: %+v", accepted.GroupMember)
	}

	listed, err := client.ListInvitations(ctx, &invitationsapi.ListInvitationsRequest{
		InvitedEmail: "guest@x.com",
		Filter:       `status = "ACCEPTED"`,
	})
	if err != nil {
		t.Fatalf("list invitations: %v", err)
	}
	if len(listed.Invitations) != 1 || listed.Invitations[0].ID != created.Invitation.ID {
		t.Fatalf("listed = %+v", listed.Invitations)
	}

	resp, err := http.Get("http://" + srv.MetricsAddr() + "/metrics")
	if err != nil {
		t.Fatalf("scrape metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	for _, want := range []string{
		`livemory_invitations_created_total{target="group"} 1`,
		`livemory_invitations_transitions_total{from="PENDING",to="ACCEPTED"} 1`,
		"livemory_guests_converted_total 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}

func TestNewFailsOnBusyAddress(t *testing.T) {
	first := startServer(t, Config{
		Addr:   "127.0.0.1:0",
		DBPath: filepath.Join(t.TempDir(), "a.db"),
	})
	if _, err := New(Config{Addr: first.Addr(), DBPath: filepath.Join(t.TempDir(), "b.db")}); err == nil {
		t.Fatal("expected listen error on busy address")
	}
	if first.MetricsAddr() != "" {
		t.Fatalf("metrics should be disabled, got %q", first.MetricsAddr())
	}
}
