package seed

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	invitationsapi "github.com/ITOUMEUCK/livemory/internal/services/invitations/api/grpc/invitations"
	server "github.com/ITOUMEUCK/livemory/internal/services/invitations/app"
)

type fakeDirectory struct {
	nextID   int64
	users    []*invitationsapi.CreateUserRequest
	groups   []*invitationsapi.CreateGroupRequest
	events   []*invitationsapi.CreateEventRequest
	deadline bool
	failOn   string
}

func (f *fakeDirectory) id() int64 {
	f.nextID++
	return f.nextID * 10
}

func (f *fakeDirectory) CreateUser(ctx context.Context, in *invitationsapi.CreateUserRequest, _ ...grpc.CallOption) (*invitationsapi.CreateUserResponse, error) {
	_, f.deadline = ctx.Deadline()
	if in.Email == f.failOn {
		return nil, status.Error(codes.AlreadyExists, "taken")
	}
	f.users = append(f.users, in)
	return &invitationsapi.CreateUserResponse{User: &invitationsapi.User{ID: f.id(), Email: in.Email}}, nil
}

func (f *fakeDirectory) CreateGroup(_ context.Context, in *invitationsapi.CreateGroupRequest, _ ...grpc.CallOption) (*invitationsapi.CreateGroupResponse, error) {
	f.groups = append(f.groups, in)
	return &invitationsapi.CreateGroupResponse{Group: &invitationsapi.Group{ID: f.id(), Name: in.Name}}, nil
}

func (f *fakeDirectory) CreateEvent(_ context.Context, in *invitationsapi.CreateEventRequest, _ ...grpc.CallOption) (*invitationsapi.CreateEventResponse, error) {
	f.events = append(f.events, in)
	return &invitationsapi.CreateEventResponse{Event: &invitationsapi.Event{ID: f.id(), Name: in.Name}}, nil
}

func demoFixture() Fixture {
	return Fixture{
		Name: "demo",
		Users: []UserFixture{
			{Key: "olga", FirstName: "Olga", Email: "olga@x.com"},
			{Key: "mia", FirstName: "Mia", Email: "mia@x.com"},
		},
		Groups: []GroupFixture{{Key: "hikers", Name: "Hikers", Owner: "mia"}},
		Events: []EventFixture{
			{Key: "summit", Name: "Summit", Group: "hikers", Organizer: "olga"},
			{Key: "party", Name: "Party", Organizer: "mia"},
		},
	}
}

func TestApplyResolvesKeys(t *testing.T) {
	client := &fakeDirectory{}
	result, err := Apply(context.Background(), client, demoFixture())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !client.deadline {
		t.Fatal("expected each call to carry a deadline")
	}
	if result.Users["olga"] != 10 || result.Users["mia"] != 20 || result.Groups["hikers"] != 30 {
		t.Fatalf("result = %+v", result)
	}
	if got := client.groups[0].CreatedByUserID; got != 20 {
		t.Fatalf("group owner = %d, want 20", got)
	}
	summit := client.events[0]
	if summit.CreatedByUserID != 10 || summit.GroupID == nil || *summit.GroupID != 30 {
		t.Fatalf("summit = %+v", summit)
	}
	if client.events[1].GroupID != nil {
		t.Fatalf("party group = %v, want none", *client.events[1].GroupID)
	}
}

func TestApplyStopsOnFirstError(t *testing.T) {
	client := &fakeDirectory{failOn: "mia@x.com"}
	_, err := Apply(context.Background(), client, demoFixture())
	if status.Code(errors.Unwrap(err)) != codes.AlreadyExists || !strings.Contains(err.Error(), `user "mia"`) {
		t.Fatalf("err = %v", err)
	}
	if len(client.groups) != 0 || len(client.events) != 0 {
		t.Fatalf("groups = %d, events = %d after failure", len(client.groups), len(client.events))
	}
	if _, err := Apply(context.Background(), nil, demoFixture()); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestRunSeedsLiveServer(t *testing.T) {
	srv, err := server.New(server.Config{
		Addr:       "127.0.0.1:0",
		DBPath:     filepath.Join(t.TempDir(), "invitations.db"),
		BcryptCost: 4,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() { serveDone <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-serveDone:
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for server shutdown")
		}
	})

	cfg := DefaultConfig()
	cfg.RepoRoot = "."
	cfg.FixturesDir = "fixtures"
	cfg.GRPCAddr = srv.Addr()
	var out bytes.Buffer
	if err := Run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Seeded demo: 3 users, 2 groups, 2 events") {
		t.Fatalf("output = %q", out.String())
	}

	err = Run(context.Background(), cfg, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "already") {
		t.Fatalf("second run err = %v, want duplicate email", err)
	}
}

func TestRunFailsWithoutFixtures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RepoRoot = t.TempDir()
	if err := os.MkdirAll(filepath.Join(cfg.RepoRoot, cfg.FixturesDir), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := Run(context.Background(), cfg, io.Discard); err == nil || !strings.Contains(err.Error(), "load fixtures") {
		t.Fatalf("err = %v", err)
	}
}

func TestListScenarios(t *testing.T) {
	names, err := ListScenarios(Config{RepoRoot: ".", FixturesDir: "fixtures"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 1 || names[0] != "demo" {
		t.Fatalf("names = %v", names)
	}
}
