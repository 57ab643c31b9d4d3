package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadBundledFixtures(t *testing.T) {
	fixtures, err := LoadFixtures(filepath.Join("fixtures", "*.yaml"))
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	if len(fixtures) == 0 || fixtures[0].Name != "demo" {
		t.Fatalf("fixtures = %+v", fixtures)
	}
	demo := fixtures[0]
	if len(demo.Users) != 3 || len(demo.Groups) != 2 || len(demo.Events) != 2 {
		t.Fatalf("demo = %d users, %d groups, %d events", len(demo.Users), len(demo.Groups), len(demo.Events))
	}
	want := time.Date(2026, time.June, 13, 5, 30, 0, 0, time.UTC)
	if demo.Events[0].StartsAt == nil || !demo.Events[0].StartsAt.Equal(want) {
		t.Fatalf("starts at = %v, want %v", demo.Events[0].StartsAt, want)
	}
}

func TestLoadFixturesNamesFromFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "solo.yaml"), []byte("users:\n  - key: a\n    first_name: A\n    email: a@x.com\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	fixtures, err := LoadFixtures(filepath.Join(dir, "*.yaml"))
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	if len(fixtures) != 1 || fixtures[0].Name != "solo" {
		t.Fatalf("fixtures = %+v", fixtures)
	}
	if _, err := LoadFixtures(filepath.Join(dir, "missing-*.yaml")); err == nil {
		t.Fatal("expected error when nothing matches")
	}
}

func TestParseFixtureRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "users:\n  - key: a\n    nickname: x\n",
			want: "nickname",
		},
		{
			name: "duplicate user",
			yaml: "users:\n  - key: a\n  - key: a\n",
			want: "duplicate key",
		},
		{
			name: "unknown owner",
			yaml: "groups:\n  - key: g\n    name: G\n    owner: nobody\n",
			want: "unknown owner",
		},
		{
			name: "unknown organizer",
			yaml: "users:\n  - key: a\nevents:\n  - key: e\n    organizer: b\n",
			want: "unknown organizer",
		},
		{
			name: "unknown group",
			yaml: "users:\n  - key: a\nevents:\n  - key: e\n    organizer: a\n    group: g\n",
			want: "unknown group",
		},
		{
			name: "missing key",
			yaml: "users:\n  - first_name: A\n",
			want: "key is required",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFixture([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestParseFixtureEmptyDocument(t *testing.T) {
	fixture, err := ParseFixture(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(fixture.Users) != 0 {
		t.Fatalf("fixture = %+v", fixture)
	}
}
