// Package seed populates a local invitations service with demo users, groups
// and events through its gRPC API.
package seed

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"google.golang.org/grpc"

	platformgrpc "github.com/ITOUMEUCK/livemory/internal/platform/grpc"
	"github.com/ITOUMEUCK/livemory/internal/platform/timeouts"
	invitationsapi "github.com/ITOUMEUCK/livemory/internal/services/invitations/api/grpc/invitations"
)

// Config holds seed runner configuration.
type Config struct {
	RepoRoot    string
	GRPCAddr    string
	Scenario    string
	Verbose     bool
	FixturesDir string
}

// DefaultConfig returns configuration with common defaults.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:    "localhost:8095",
		FixturesDir: "internal/seed/fixtures",
	}
}

// DirectoryClient is the part of the invitations API the seeder calls.
type DirectoryClient interface {
	CreateUser(ctx context.Context, in *invitationsapi.CreateUserRequest, opts ...grpc.CallOption) (*invitationsapi.CreateUserResponse, error)
	CreateGroup(ctx context.Context, in *invitationsapi.CreateGroupRequest, opts ...grpc.CallOption) (*invitationsapi.CreateGroupResponse, error)
	CreateEvent(ctx context.Context, in *invitationsapi.CreateEventRequest, opts ...grpc.CallOption) (*invitationsapi.CreateEventResponse, error)
}

// Result maps fixture keys to the ids the service assigned.
type Result struct {
	Users  map[string]int64
	Groups map[string]int64
	Events map[string]int64
}

// Run loads fixtures and applies them to the invitations service at
// cfg.GRPCAddr once it reports healthy.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	fixtures, err := LoadFixtures(fixturePattern(cfg))
	if err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}
	if cfg.Verbose {
		fmt.Fprintf(out, "Loaded %d fixture(s)\n", len(fixtures))
	}

	logf := func(string, ...any) {}
	if cfg.Verbose {
		logf = func(format string, args ...any) { fmt.Fprintf(out, format+"\n", args...) }
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCDial)
	defer cancel()
	conn, err := platformgrpc.DialWithHealth(dialCtx, grpc.NewClient, cfg.GRPCAddr, invitationsapi.ServiceName,
		timeouts.GRPCDial, logf, platformgrpc.DefaultClientDialOptions(invitationsapi.ContentSubtype)...)
	if err != nil {
		return fmt.Errorf("dial invitations: %w", err)
	}
	defer conn.Close()
	client := invitationsapi.NewClient(conn)

	for _, fixture := range fixtures {
		result, err := Apply(ctx, client, fixture)
		if err != nil {
			return fmt.Errorf("scenario %q: %w", fixture.Name, err)
		}
		fmt.Fprintf(out, "Seeded %s: %d users, %d groups, %d events\n",
			fixture.Name, len(result.Users), len(result.Groups), len(result.Events))
	}
	return nil
}

// ListScenarios returns available scenario names.
func ListScenarios(cfg Config) ([]string, error) {
	fixtures, err := LoadFixtures(filepath.Join(cfg.RepoRoot, cfg.FixturesDir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(fixtures))
	for i, f := range fixtures {
		names[i] = f.Name
	}
	return names, nil
}

// Apply creates a fixture's users, then groups, then events, resolving keys
// to the ids the service assigned. Each call is bounded by
// timeouts.GRPCRequest.
func Apply(ctx context.Context, client DirectoryClient, fixture Fixture) (Result, error) {
	if client == nil {
		return Result{}, fmt.Errorf("directory client is required")
	}
	if err := fixture.Validate(); err != nil {
		return Result{}, err
	}
	result := Result{
		Users:  make(map[string]int64, len(fixture.Users)),
		Groups: make(map[string]int64, len(fixture.Groups)),
		Events: make(map[string]int64, len(fixture.Events)),
	}

	for _, user := range fixture.Users {
		resp, err := callWithTimeout(ctx, func(ctx context.Context) (*invitationsapi.CreateUserResponse, error) {
			return client.CreateUser(ctx, &invitationsapi.CreateUserRequest{
				FirstName: user.FirstName,
				LastName:  user.LastName,
				Email:     user.Email,
				Password:  user.Password,
			})
		})
		if err != nil {
			return result, fmt.Errorf("user %q: %w", user.Key, err)
		}
		result.Users[user.Key] = resp.User.ID
	}

	for _, group := range fixture.Groups {
		resp, err := callWithTimeout(ctx, func(ctx context.Context) (*invitationsapi.CreateGroupResponse, error) {
			return client.CreateGroup(ctx, &invitationsapi.CreateGroupRequest{
				Name:            group.Name,
				Description:     group.Description,
				CreatedByUserID: result.Users[group.Owner],
			})
		})
		if err != nil {
			return result, fmt.Errorf("group %q: %w", group.Key, err)
		}
		result.Groups[group.Key] = resp.Group.ID
	}

	for _, event := range fixture.Events {
		req := &invitationsapi.CreateEventRequest{
			Name:            event.Name,
			Description:     event.Description,
			CreatedByUserID: result.Users[event.Organizer],
			StartsAt:        event.StartsAt,
		}
		if key := strings.TrimSpace(event.Group); key != "" {
			groupID := result.Groups[key]
			req.GroupID = &groupID
		}
		resp, err := callWithTimeout(ctx, func(ctx context.Context) (*invitationsapi.CreateEventResponse, error) {
			return client.CreateEvent(ctx, req)
		})
		if err != nil {
			return result, fmt.Errorf("event %q: %w", event.Key, err)
		}
		result.Events[event.Key] = resp.Event.ID
	}
	return result, nil
}

func callWithTimeout[Resp any](ctx context.Context, call func(context.Context) (*Resp, error)) (*Resp, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
	defer cancel()
	return call(callCtx)
}

func fixturePattern(cfg Config) string {
	name := "*"
	if cfg.Scenario != "" {
		name = cfg.Scenario
	}
	return filepath.Join(cfg.RepoRoot, cfg.FixturesDir, name+".yaml")
}
