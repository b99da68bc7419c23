package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/avasquez/catador/internal/models"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger) // Custom conditional HTTP logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	// WebSocket
	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}

	// Prometheus metrics
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	// Auth (public)
	r.Post("/api/login", h.handleLogin)
	r.Post("/api/logout", h.handleLogout)

	// Public sample tracking by anonymous code
	r.Get("/api/track/{code}", h.handleTrackSample)

	// Public contest listing and results
	r.Get("/api/contests", h.handleListContests)
	r.Get("/api/contests/{id}", h.handleGetContest)
	r.Get("/api/contests/{id}/status", h.handleContestStatus)
	r.Get("/api/contests/{id}/rankings", h.handleRankings)
	r.Get("/api/contests/{id}/top", h.handleTopN)

	// Authenticated API. Fine-grained role checks live in the services;
	// only staff-shaped route groups get a role gate here.
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuth)

		r.Get("/api/me", h.handleMe)

		// Samples
		r.Post("/api/samples", h.handleRegisterSample)
		r.Get("/api/samples/{id}", h.handleGetSample)
		r.Get("/api/samples/{id}/qr", h.handleSampleQR)
		r.Get("/api/my/samples", h.handleMySamples)
		r.Get("/api/my/stats", h.handleMyStats)
		r.Post("/api/samples/{id}/submit", h.handleSubmitSample)

		// Evaluations
		r.Post("/api/samples/{id}/evaluation/start", h.handleStartEvaluation)
		r.Post("/api/evaluations", h.handleSubmitEvaluation)
		r.Get("/api/samples/{id}/evaluations", h.handleListEvaluations)

		// Final stage
		r.Get("/api/samples/{id}/final/gate", h.handleFinalStageGate)
		r.Post("/api/samples/{id}/final/pay", h.handlePayForSample)
		r.Post("/api/final-evaluations", h.handleSubmitFinalEvaluation)

		// Notifications
		r.Get("/api/notifications", h.handleListNotifications)
		r.Post("/api/notifications/{id}/read", h.handleMarkNotificationRead)
	})

	// Staff API
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireRole(models.RoleDirector, models.RoleAdmin))

		// Contests
		r.Post("/api/contests", h.handleCreateContest)
		r.Put("/api/contests/{id}", h.handleUpdateContest)
		r.Post("/api/contests/{id}/final-stage", h.handleEnableFinalStage)
		r.Post("/api/contests/{id}/publish", h.handlePublishFinalRanking)
		r.Get("/api/contests/{id}/stats", h.handleContestStats)
		r.Get("/api/contests/{id}/samples", h.handleListContestSamples)

		// Sample lifecycle
		r.Post("/api/samples/{id}/receive", h.handleReceiveSample)
		r.Post("/api/samples/{id}/physical-evaluation/start", h.handleStartPhysicalEvaluation)
		r.Post("/api/samples/{id}/physical-evaluation", h.handleRecordPhysicalEvaluation)
		r.Post("/api/samples/{id}/disqualify", h.handleDisqualifySample)

		// Judges
		r.Get("/api/judges", h.handleListJudges)
		r.Post("/api/judges", h.handleRegisterJudge)
		r.Put("/api/judges/default-capacity", h.handleSetDefaultCapacity)
		r.Post("/api/samples/{id}/judges", h.handleAssignJudges)
		r.Post("/api/assignments/bulk", h.handleBulkAssign)
	})

	return r
}
