package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/karmachain/feedback-engine/engine/bridge"
	"github.com/karmachain/feedback-engine/engine/infra/monitoring"
	"github.com/karmachain/feedback-engine/engine/infra/store"
	"github.com/karmachain/feedback-engine/engine/signal"
	"github.com/karmachain/feedback-engine/pkg/config"
	"github.com/karmachain/feedback-engine/pkg/logger"
)

const (
	httpReadTimeout       = 15 * time.Second
	httpWriteTimeout      = 15 * time.Second
	httpIdleTimeout       = 60 * time.Second
	serverShutdownTimeout = 5 * time.Second
)

// Server assembles the feedback engine: karma ledger store, normalization
// service, STP bridge and the HTTP surface that exposes them.
type Server struct {
	config *config.Config
	log    logger.Logger
	router *gin.Engine
	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer(cfg *config.Config, log logger.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		config: cfg,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Run wires dependencies, builds the router and serves HTTP until SIGINT or
// SIGTERM, then shuts down gracefully.
func (s *Server) Run() error {
	deps, cleanupFuncs, err := s.setupDependencies()
	if err != nil {
		s.cleanup(cleanupFuncs)
		return err
	}
	defer s.cleanup(cleanupFuncs)

	s.buildRouter(deps)
	return s.startAndRunServer()
}

type dependencies struct {
	monitoring *monitoring.Service
	normalizer *signal.Service
	forwarder  *bridge.Bridge
}

func (s *Server) setupDependencies() (*dependencies, []func(), error) {
	var cleanupFuncs []func()
	ctx := logger.ContextWithLogger(s.ctx, s.log)

	mon, err := monitoring.NewService(ctx, &monitoring.Config{
		Enabled: s.config.Monitoring.Enabled,
		Path:    s.config.Monitoring.Path,
	})
	if err != nil {
		return nil, cleanupFuncs, fmt.Errorf("failed to setup monitoring: %w", err)
	}
	cleanupFuncs = append(cleanupFuncs, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()
		if err := mon.Shutdown(shutdownCtx); err != nil {
			s.log.Error("Failed to shutdown monitoring", "error", err)
		}
	})

	db, err := store.NewDB(ctx, &store.Config{
		ConnString:  s.config.Database.ConnString,
		Host:        s.config.Database.Host,
		Port:        s.config.Database.Port,
		User:        s.config.Database.User,
		Password:    s.config.Database.Password.Value(),
		DBName:      s.config.Database.DBName,
		SSLMode:     s.config.Database.SSLMode,
		AutoMigrate: s.config.Database.AutoMigrate,
	})
	if err != nil {
		return nil, cleanupFuncs, fmt.Errorf("failed to setup karma ledger store: %w", err)
	}
	cleanupFuncs = append(cleanupFuncs, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			s.log.Error("Failed to close ledger store", "error", err)
		}
	})
	if s.config.Database.AutoMigrate {
		if err := db.RunMigrations(ctx); err != nil {
			return nil, cleanupFuncs, fmt.Errorf("failed to run ledger migrations: %w", err)
		}
	}

	var weights signal.WeightProvider
	if s.config.Weights.Path != "" {
		weights = signal.NewFileWeightProvider(s.config.Weights.Path)
	} else {
		weights = signal.NewStaticWeightProvider(nil)
	}

	signalMetrics, err := signal.NewMetrics(ctx, mon.Meter())
	if err != nil {
		return nil, cleanupFuncs, fmt.Errorf("failed to create normalizer metrics: %w", err)
	}
	normalizer := signal.NewService(
		signal.NewPostgresRepository(db),
		weights,
		signalMetrics,
	)

	forwarder := bridge.New(&bridge.Config{
		Endpoint:      s.config.Bridge.Endpoint,
		RetryAttempts: s.config.Bridge.RetryAttempts,
		Timeout:       s.config.Bridge.Timeout,
		Enabled:       s.config.Bridge.Enabled,
		RetryBackoff:  s.config.Bridge.RetryBackoff,
	}, bridge.WithMetrics(bridge.NewMetrics(ctx, mon.Meter())))

	return &dependencies{
		monitoring: mon,
		normalizer: normalizer,
		forwarder:  forwarder,
	}, cleanupFuncs, nil
}

func (s *Server) buildRouter(deps *dependencies) {
	if s.config.Runtime.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(s.log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "karmachain-feedback-engine",
		})
	})
	if s.config.Monitoring.Enabled {
		r.GET(deps.monitoring.Path(), deps.monitoring.Handler())
	}

	api := r.Group("/api/v1")
	signal.Register(api, deps.normalizer)
	bridge.Register(api, deps.forwarder)

	s.router = r
}

func (s *Server) cleanup(cleanupFuncs []func()) {
	for i := len(cleanupFuncs) - 1; i >= 0; i-- {
		cleanupFuncs[i]()
	}
}

func (s *Server) startAndRunServer() error {
	srv := s.createHTTPServer()
	go s.startServer(srv)
	return s.handleGracefulShutdown(srv)
}

func (s *Server) createHTTPServer() *http.Server {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.log.Info("Starting HTTP server", "address", fmt.Sprintf("http://%s", addr))
	return &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  httpReadTimeout,
		WriteTimeout: httpWriteTimeout,
		IdleTimeout:  httpIdleTimeout,
	}
}

func (s *Server) startServer(srv *http.Server) {
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Error("Server failed to start", "error", err)
		os.Exit(1)
	}
}

func (s *Server) handleGracefulShutdown(srv *http.Server) error {
	quit := make(chan os.Signal, 1)
	ossignal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.log.Debug("Received shutdown signal, initiating graceful shutdown")

	s.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("Server shutdown completed successfully")
	return nil
}
