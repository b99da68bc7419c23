package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avasquez/catador/internal/auth"
	"github.com/avasquez/catador/internal/config"
	"github.com/avasquez/catador/internal/logger"
	"github.com/avasquez/catador/pkg/payments"
)

func testConfig() *config.Config {
	cfg := config.New()
	cfg.DBPath = ":memory:"
	return cfg
}

func TestNew_InitializesApp(t *testing.T) {
	log := logger.New()
	sessionAuth := auth.New("test-password")
	gateway := payments.NewMockClient()

	a, err := New(log, testConfig(), gateway, sessionAuth)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	defer a.Close()

	if a.handlers == nil {
		t.Error("expected handlers to be initialized")
	}
	if a.repo == nil {
		t.Error("expected repo to be initialized")
	}
}

func TestNew_FailsWithBadDBPath(t *testing.T) {
	log := logger.New()
	sessionAuth := auth.New("test-password")
	gateway := payments.NewMockClient()

	cfg := testConfig()
	cfg.DBPath = "/nonexistent/path/db.sqlite"

	if _, err := New(log, cfg, gateway, sessionAuth); err == nil {
		t.Error("expected error for invalid db path")
	}
}

func TestRouter_ServesPublicEndpoints(t *testing.T) {
	log := logger.New()
	a, err := New(log, testConfig(), payments.NewMockClient(), auth.New("test-password"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	server := httptest.NewServer(a.Router())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/contests")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from contests listing, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from metrics, got %d", resp.StatusCode)
	}

	// Protected endpoint without a session
	resp, err = http.Get(server.URL + "/api/my/samples")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without session, got %d", resp.StatusCode)
	}
}

func TestRun_ShutsDownOnContextCancel(t *testing.T) {
	log := logger.New()
	a, err := New(log, testConfig(), payments.NewMockClient(), auth.New("test-password"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(ctx, "127.0.0.1:0")
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("expected clean shutdown, got: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("server did not shut down after context cancel")
	}
}
