package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	apimiddleware "github.com/geekskaran/Cattel-Backend/src/internal/api/middleware"
	"github.com/geekskaran/Cattel-Backend/src/internal/auth"
	"github.com/geekskaran/Cattel-Backend/src/internal/cache"
	"github.com/geekskaran/Cattel-Backend/src/internal/identify"
	"github.com/geekskaran/Cattel-Backend/src/internal/identity"
	"github.com/geekskaran/Cattel-Backend/src/internal/notifications"
	"github.com/geekskaran/Cattel-Backend/src/internal/registry"
	"github.com/geekskaran/Cattel-Backend/src/internal/transfer"
)

// Server wires the services behind the HTTP API
type Server struct {
	echo     *echo.Echo
	config   *viper.Viper
	db       *gorm.DB
	logger   *slog.Logger
	identity *identity.Store
	auth     *auth.Service
	notifier *notifications.Service
	registry *registry.Service
	identify *identify.Service
	transfer *transfer.Service
}

// New creates a server with all services wired
func New(cfg *viper.Viper, db *gorm.DB, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewEchoValidator()

	identityStore := identity.NewStore(db)
	mailer := notifications.NewMailer(cfg)
	notifier := notifications.NewService(db, identityStore, mailer, logger)
	cacheManager := cache.NewManager(cfg)

	authService := auth.NewService(
		cfg.GetString("security.secret_key"),
		"cattle-backend",
		cfg.GetDuration("security.jwt.access_token_ttl"),
	)

	s := &Server{
		echo:     e,
		config:   cfg,
		db:       db,
		logger:   logger,
		identity: identityStore,
		auth:     authService,
		notifier: notifier,
		registry: registry.NewService(db, cfg, identityStore, notifier, logger),
		identify: identify.NewService(db, cfg, identityStore, notifier, cacheManager, logger),
		transfer: transfer.NewService(db, cfg, identityStore, notifier, logger),
	}

	errorHandler := apperrors.NewErrorHandler(logger, cfg.GetString("environment") == "production")
	e.HTTPErrorHandler = errorHandler.HTTPErrorHandler

	e.Use(middleware.RequestID())
	e.Use(errorHandler.RecoverMiddleware())
	e.Use(apimiddleware.RateLimit(cfg))
	e.Use(auth.NewMiddleware(authService, identityStore).Auth())

	s.registerRoutes()
	return s
}

// Start runs the HTTP server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.GetString("server.host"), s.config.GetInt("server.port"))

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.config.GetDuration("server.shutdown_timeout")
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(shutdownCtx)
}
