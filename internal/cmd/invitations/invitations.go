// Package invitations parses invitation service flags and launches the service.
package invitations

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/ITOUMEUCK/livemory/internal/platform/cmd"
	server "github.com/ITOUMEUCK/livemory/internal/services/invitations/app"
	"github.com/ITOUMEUCK/livemory/internal/services/invitations/domain"
)

// Config holds invitations command configuration.
type Config struct {
	Port         int    `env:"LIVEMORY_INVITATIONS_PORT" envDefault:"8095"`
	MetricsAddr  string `env:"LIVEMORY_INVITATIONS_METRICS_ADDR"`
	DBPath       string `env:"LIVEMORY_INVITATIONS_DB_PATH" envDefault:"data/invitations.db"`
	BaseURL      string `env:"LIVEMORY_INVITATIONS_BASE_URL" envDefault:"http://localhost:8080"`
	ValidityDays int    `env:"LIVEMORY_INVITATIONS_VALIDITY_DAYS" envDefault:"7"`
	BcryptCost   int    `env:"LIVEMORY_INVITATIONS_BCRYPT_COST"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The invitations gRPC server port")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Address for the Prometheus metrics endpoint (empty disables it)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.ValidityDays < 0 || cfg.ValidityDays > domain.MaxValidityDays {
		return Config{}, fmt.Errorf("validity days must be between 0 and %d, got %d", domain.MaxValidityDays, cfg.ValidityDays)
	}
	return cfg, nil
}

// ServerConfig maps command configuration onto the server.
func (c Config) ServerConfig() server.Config {
	return server.Config{
		Addr:         fmt.Sprintf(":%d", c.Port),
		MetricsAddr:  c.MetricsAddr,
		DBPath:       c.DBPath,
		BaseURL:      c.BaseURL,
		ValidityDays: c.ValidityDays,
		BcryptCost:   c.BcryptCost,
	}
}

// Run starts the invitations gRPC API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceInvitations, func(context.Context) error {
		return server.Run(ctx, cfg.ServerConfig())
	})
}
