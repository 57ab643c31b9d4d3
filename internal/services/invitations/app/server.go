// Package server wires the invitations runtime, its gRPC lifecycle, and the
// optional metrics endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ITOUMEUCK/livemory/internal/platform/timeouts"
	invitationsapi "github.com/ITOUMEUCK/livemory/internal/services/invitations/api/grpc/invitations"
	"github.com/ITOUMEUCK/livemory/internal/services/invitations/credential"
	"github.com/ITOUMEUCK/livemory/internal/services/invitations/domain"
	"github.com/ITOUMEUCK/livemory/internal/services/invitations/observability/metrics"
	invitationsqlite "github.com/ITOUMEUCK/livemory/internal/services/invitations/storage/sqlite"
)

// Config configures one invitations server.
type Config struct {
	// Addr is the gRPC listen address.
	Addr string
	// MetricsAddr serves /metrics when set.
	MetricsAddr string
	DBPath      string
	// BaseURL prefixes invitation links.
	BaseURL      string
	ValidityDays int
	BcryptCost   int
	Logger       *slog.Logger
}

// Server hosts the invitations gRPC API and storage lifecycle.
type Server struct {
	listener      net.Listener
	grpcServer    *grpc.Server
	health        *health.Server
	store         *invitationsqlite.Store
	metricsServer *http.Server
	metricsLn     net.Listener
}

// New creates a configured invitations server.
func New(cfg Config) (*Server, error) {
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "invitations.db")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	store, err := openInvitationsStore(cfg.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	collector := metrics.New()
	hasher := credential.NewBcryptHasher(cfg.BcryptCost)
	guests := domain.NewGuestService(domain.GuestDeps{
		Guests:      store,
		Invitations: store,
		Users:       store,
		Credentials: hasher,
		Logger:      logger,
		Observer:    collector,
	})
	invitations := domain.NewInvitationService(domain.InvitationDeps{
		Invitations:  store,
		Tx:           store,
		Users:        store,
		Groups:       store,
		Events:       store,
		Guests:       guests,
		Logger:       logger,
		Observer:     collector,
		ValidityDays: cfg.ValidityDays,
	})
	directory := domain.NewDirectoryService(domain.DirectoryDeps{
		Store:       store,
		Credentials: hasher,
		Logger:      logger,
	})
	apiService := invitationsapi.NewService(invitationsapi.Deps{
		Invitations: invitations,
		Guests:      guests,
		Roster:      domain.NewRoster(store, store),
		Directory:   directory,
		BaseURL:     cfg.BaseURL,
	})

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(invitationsapi.RequestMetadataInterceptor(logger)),
	)
	healthServer := health.NewServer()
	invitationsapi.RegisterInvitationServiceServer(grpcServer, apiService)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(invitationsapi.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	server := &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
	}
	if addr := strings.TrimSpace(cfg.MetricsAddr); addr != "" {
		metricsLn, err := net.Listen("tcp", addr)
		if err != nil {
			server.Close()
			return nil, fmt.Errorf("listen metrics on %s: %w", addr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		server.metricsLn = metricsLn
		server.metricsServer = &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: timeouts.ReadHeader,
		}
	}
	return server, nil
}

// Addr returns the gRPC listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// MetricsAddr returns the metrics listener address, empty when disabled.
func (s *Server) MetricsAddr() string {
	if s == nil || s.metricsLn == nil {
		return ""
	}
	return s.metricsLn.Addr().String()
}

// Run creates and serves an invitations server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the gRPC server, and the metrics server when configured,
// until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("invitations server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 2)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()
	if s.metricsServer != nil {
		log.Printf("invitations metrics listening at %v", s.metricsLn.Addr())
		go func() {
			if err := s.metricsServer.Serve(s.metricsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- fmt.Errorf("serve metrics: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		s.shutdownMetrics()
		if s.health != nil {
			s.health.Shutdown()
		}
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

// Close releases invitations server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.shutdownMetrics()
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close invitations store: %v", err)
		}
	}
}

func (s *Server) shutdownMetrics() {
	if s.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.metricsServer.Shutdown(ctx); err != nil {
			log.Printf("shutdown metrics server: %v", err)
		}
	}
	if s.metricsLn != nil {
		_ = s.metricsLn.Close()
	}
}

func openInvitationsStore(path string) (*invitationsqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := invitationsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open invitations sqlite store: %w", err)
	}
	return store, nil
}
