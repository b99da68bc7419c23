package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avasquez/catador/internal/auth"
	"github.com/avasquez/catador/internal/config"
	"github.com/avasquez/catador/internal/handlers"
	"github.com/avasquez/catador/internal/logger"
	"github.com/avasquez/catador/internal/metrics"
	"github.com/avasquez/catador/internal/repository"
	"github.com/avasquez/catador/internal/services"
	"github.com/avasquez/catador/internal/websocket"
	"github.com/avasquez/catador/pkg/payments"
)

// App holds all application dependencies
type App struct {
	log      logger.Logger
	handlers *handlers.Handlers
	repo     *repository.Repository
	server   *http.Server
}

// New creates and initializes a new application instance
func New(log logger.Logger, cfg *config.Config, gateway payments.Client, sessionAuth *auth.Auth) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	m, metricsHandler := metrics.New()

	// WebSocket hub fans notifications out to connected clients
	hub := websocket.New(log.With("component", "websocket"), m)
	hub.Start()

	svcLog := log.With("component", "services")
	notifyService := services.NewNotificationService(svcLog, repo, hub)
	resultsService := services.NewResultsService(svcLog, repo, notifyService)
	contestService := services.NewContestService(svcLog, repo, resultsService, notifyService, cfg.DefaultTopN)
	sampleService := services.NewSampleService(svcLog, repo)
	lifecycleService := services.NewLifecycleService(svcLog, repo, notifyService, m)
	assignmentService := services.NewAssignmentService(svcLog, repo, notifyService, m, cfg.DefaultMaxAssignments)
	evaluationService := services.NewEvaluationService(svcLog, repo, notifyService, m)
	finalStageService := services.NewFinalStageService(svcLog, repo, resultsService, gateway, notifyService, m)

	h := handlers.New(
		contestService,
		sampleService,
		lifecycleService,
		assignmentService,
		evaluationService,
		finalStageService,
		resultsService,
		notifyService,
		sessionAuth,
		hub,
		log,
		metricsHandler,
	)

	return &App{
		log:      log,
		handlers: h,
		repo:     repo,
	}, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Run starts the HTTP server and blocks until the context is cancelled
func (a *App) Run(ctx context.Context, addr string) error {
	a.server = &http.Server{
		Addr:    addr,
		Handler: a.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Server starting", "addr", addr)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		a.log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return a.Close()
	}
}

// Close releases app resources
func (a *App) Close() error {
	if a.repo != nil {
		return a.repo.Close()
	}
	return nil
}
