package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"evelis/internal/config"
	apierrors "evelis/internal/errors"
	"evelis/internal/infrastructure"
	customMiddleware "evelis/internal/middleware"
	"evelis/internal/services"
	"evelis/internal/store"
	handlers "evelis/internal/transport/http"
)

const AppName = "EVELIS Analytics"

// Application is the main dependency container: configuration, the
// observability stack, the snapshot store and the reconciliation
// service, wired into one HTTP server.
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	Store            *store.Store
	ReconcileService *services.ReconcileService
}

// NewApplication builds the full application from configuration.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", infrastructure.ServiceVersion))

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	if err := infrastructure.RegisterRuntimeMetrics(otelProviders.Meter); err != nil {
		logger.Warn("runtime metrics registration failed", slog.String("error", err.Error()))
	}

	st, err := store.New(cfg.Paths.DatabaseFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Store:         st,
	}

	if err := app.initializeServices(); err != nil {
		return nil, err
	}
	app.setupRouter()
	app.createServer()

	return app, nil
}

func (a *Application) initializeServices() error {
	metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		a.Logger.Warn("business metrics creation failed", slog.String("error", err.Error()))
	}

	a.ReconcileService = services.NewReconcileService(
		a.Logger,
		a.Store,
		metrics,
		a.Config.Processing.Workers,
	)

	// A missing or unreadable snapshot just means starting empty
	if err := a.ReconcileService.Restore(context.Background()); err != nil {
		a.Logger.Warn("snapshot restore failed, starting with empty state",
			slog.String("error", err.Error()))
	}
	return nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	respondError := customMiddleware.NewErrorResponder(a.Logger)
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, customMiddleware.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		problem := customMiddleware.ProblemFromStatus(
			http.StatusMethodNotAllowed,
			"method not allowed for this resource",
			infrastructure.GetTraceID(req.Context()),
		)
		_ = problem.Render(w, req)
	})

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
			r.Use(customMiddleware.BusinessMetricsMiddleware(otelMiddleware.Metrics()))
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(a.corsConfig()))

		if a.Config.Server.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Server.RateLimit.RPS,
				a.Config.Server.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)

		// Probe alias outside /api for load balancers
		healthHandler := handlers.NewHealthHandler(a.ReconcileService, a.Logger)
		r.Get("/healthz", healthHandler.Health)
	})

	// Prometheus scrape endpoint stays outside the middleware group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		errorHandler := apierrors.NewErrorHandler(a.Logger, false)

		validationMiddleware := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)
		r.Use(validationMiddleware.ValidateRequest)

		healthHandler := handlers.NewHealthHandler(a.ReconcileService, a.Logger)
		r.Mount("/health", healthHandler.Routes())

		dataHandler := handlers.NewDataHandler(
			a.ReconcileService,
			a.Logger,
			errorHandler,
			a.Config.Processing.MaxUploadBytes,
		)
		r.Mount("/data", dataHandler.Routes())
	})
}

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: []string{
			fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
			"http://localhost:3000",
		},
		AllowCredentials: true,
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start launches the HTTP server without blocking. Server failures
// cancel the supplied context.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting server",
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
		slog.String("database", a.Config.Paths.DatabaseFile),
		slog.Int("master_entries", a.ReconcileService.MasterEntries()))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop shuts everything down in reverse dependency order.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "server shutdown error", slog.String("error", err.Error()))
		firstErr = err
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.ErrorContext(ctx, "store close error", slog.String("error", err.Error()))
		if firstErr == nil {
			firstErr = err
		}
	}
	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "telemetry shutdown error", slog.String("error", err.Error()))
		if firstErr == nil {
			firstErr = err
		}
	}
	if err := infrastructure.CloseLogFile(); err != nil && firstErr == nil {
		firstErr = err
	}

	a.Logger.Info("shutdown complete")
	return firstErr
}

// Run starts the application and blocks until an interrupt arrives.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "received signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "context cancelled")
	}

	// Use a fresh context, the run context is already cancelled
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*a.Config.Server.ShutdownTimeout)
	defer stopCancel()
	return a.Stop(stopCtx)
}
