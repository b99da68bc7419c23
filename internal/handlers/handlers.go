package handlers

import (
	"net/http"

	"github.com/avasquez/catador/internal/auth"
	"github.com/avasquez/catador/internal/services"
	"github.com/avasquez/catador/internal/websocket"
)

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Contest    services.ContestServicer
	Sample     services.SampleServicer
	Lifecycle  services.LifecycleServicer
	Assignment services.AssignmentServicer
	Evaluation services.EvaluationServicer
	FinalStage services.FinalStageServicer
	Results    services.ResultsServicer
	Notify     services.NotificationServicer
	Auth       *auth.Auth
	Hub        *websocket.Hub
	Log        HTTPLogger
	Metrics    http.Handler
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// New creates a new Handlers instance with all dependencies
func New(
	contest services.ContestServicer,
	sample services.SampleServicer,
	lifecycle services.LifecycleServicer,
	assignment services.AssignmentServicer,
	evaluation services.EvaluationServicer,
	finalStage services.FinalStageServicer,
	results services.ResultsServicer,
	notify services.NotificationServicer,
	sessionAuth *auth.Auth,
	hub *websocket.Hub,
	log HTTPLogger,
	metricsHandler http.Handler,
) *Handlers {
	return &Handlers{
		Contest:    contest,
		Sample:     sample,
		Lifecycle:  lifecycle,
		Assignment: assignment,
		Evaluation: evaluation,
		FinalStage: finalStage,
		Results:    results,
		Notify:     notify,
		Auth:       sessionAuth,
		Hub:        hub,
		Log:        log,
		Metrics:    metricsHandler,
	}
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }

// NewForTesting creates a Handlers instance with a known session password
func NewForTesting(
	contest services.ContestServicer,
	sample services.SampleServicer,
	lifecycle services.LifecycleServicer,
	assignment services.AssignmentServicer,
	evaluation services.EvaluationServicer,
	finalStage services.FinalStageServicer,
	results services.ResultsServicer,
	notify services.NotificationServicer,
) *Handlers {
	return &Handlers{
		Contest:    contest,
		Sample:     sample,
		Lifecycle:  lifecycle,
		Assignment: assignment,
		Evaluation: evaluation,
		FinalStage: finalStage,
		Results:    results,
		Notify:     notify,
		Auth:       auth.New("test-password"),
		Log:        NoopHTTPLogger{},
	}
}
