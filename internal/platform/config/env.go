// Package config loads service settings from the environment and an optional
// YAML overrides file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// FileEnv names the variable pointing at an optional YAML file of
// environment-style keys. Process environment wins over file values.
const FileEnv = "LIVEMORY_CONFIG_FILE"

// ParseEnv loads configuration from environment variables, layered over the
// file named by LIVEMORY_CONFIG_FILE when set.
func ParseEnv(target any) error {
	environ := env.ToMap(os.Environ())
	if path := strings.TrimSpace(environ[FileEnv]); path != "" {
		fileValues, err := ReadFile(path)
		if err != nil {
			return err
		}
		for key, value := range fileValues {
			if _, ok := environ[key]; !ok {
				environ[key] = value
			}
		}
	}
	if err := env.ParseWithOptions(target, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ReadFile decodes a flat YAML mapping of variable names to scalar values.
func ReadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	values := make(map[string]string, len(raw))
	for key, node := range raw {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("config file %s: %s must be a scalar", path, key)
		}
		values[strings.TrimSpace(key)] = node.Value
	}
	return values, nil
}
