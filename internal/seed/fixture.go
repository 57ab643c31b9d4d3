package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Fixture is one named scenario of users, groups and events. Groups and
// events refer to users and groups by key.
type Fixture struct {
	Name   string         `yaml:"name"`
	Users  []UserFixture  `yaml:"users"`
	Groups []GroupFixture `yaml:"groups"`
	Events []EventFixture `yaml:"events"`
}

// UserFixture declares a user.
type UserFixture struct {
	Key       string `yaml:"key"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
}

// GroupFixture declares a group owned by a seeded user.
type GroupFixture struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Owner       string `yaml:"owner"`
}

// EventFixture declares an event organized by a seeded user, optionally
// inside a seeded group.
type EventFixture struct {
	Key         string     `yaml:"key"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Group       string     `yaml:"group"`
	Organizer   string     `yaml:"organizer"`
	StartsAt    *time.Time `yaml:"starts_at"`
}

// LoadFixtures reads every fixture matching pattern, sorted by file name.
func LoadFixtures(pattern string) ([]Fixture, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob fixtures: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no fixtures match %s", pattern)
	}
	sort.Strings(paths)

	fixtures := make([]Fixture, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", path, err)
		}
		fixture, err := ParseFixture(data)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", path, err)
		}
		if fixture.Name == "" {
			fixture.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		fixtures = append(fixtures, fixture)
	}
	return fixtures, nil
}

// ParseFixture decodes and validates one YAML fixture. Unknown fields are
// rejected.
func ParseFixture(data []byte) (Fixture, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var fixture Fixture
	if err := decoder.Decode(&fixture); err != nil && !errors.Is(err, io.EOF) {
		return Fixture{}, fmt.Errorf("decode yaml: %w", err)
	}
	if err := fixture.Validate(); err != nil {
		return Fixture{}, err
	}
	return fixture, nil
}

// Validate checks keys are unique and every reference points at an earlier
// declaration.
func (f Fixture) Validate() error {
	users := make(map[string]bool, len(f.Users))
	for i, user := range f.Users {
		if user.Key == "" {
			return fmt.Errorf("user %d: key is required", i)
		}
		if users[user.Key] {
			return fmt.Errorf("user %q: duplicate key", user.Key)
		}
		users[user.Key] = true
	}
	groups := make(map[string]bool, len(f.Groups))
	for i, group := range f.Groups {
		if group.Key == "" {
			return fmt.Errorf("group %d: key is required", i)
		}
		if groups[group.Key] {
			return fmt.Errorf("group %q: duplicate key", group.Key)
		}
		if !users[group.Owner] {
			return fmt.Errorf("group %q: unknown owner %q", group.Key, group.Owner)
		}
		groups[group.Key] = true
	}
	events := make(map[string]bool, len(f.Events))
	for i, event := range f.Events {
		if event.Key == "" {
			return fmt.Errorf("event %d: key is required", i)
		}
		if events[event.Key] {
			return fmt.Errorf("event %q: duplicate key", event.Key)
		}
		if !users[event.Organizer] {
			return fmt.Errorf("event %q: unknown organizer %q", event.Key, event.Organizer)
		}
		if event.Group != "" && !groups[event.Group] {
			return fmt.Errorf("event %q: unknown group %q", event.Key, event.Group)
		}
		events[event.Key] = true
	}
	return nil
}
