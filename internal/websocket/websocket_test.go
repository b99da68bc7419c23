package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/avasquez/catador/internal/logger"
	"github.com/avasquez/catador/internal/metrics"
	"github.com/avasquez/catador/internal/models"
)

func newTestHub() *Hub {
	m, _ := metrics.New()
	return New(logger.New(), m)
}

func TestNew_CreatesHubWithDependencies(t *testing.T) {
	hub := newTestHub()

	if hub == nil {
		t.Fatal("expected hub to be created")
	}
	if hub.log == nil {
		t.Error("expected logger to be set")
	}
	if hub.clients == nil {
		t.Error("expected clients map to be initialized")
	}
	if hub.broadcast == nil {
		t.Error("expected broadcast channel to be initialized")
	}
	if hub.register == nil {
		t.Error("expected register channel to be initialized")
	}
	if hub.unregister == nil {
		t.Error("expected unregister channel to be initialized")
	}
}

func TestHub_BroadcastMessage(t *testing.T) {
	hub := newTestHub()
	hub.Start()

	// Give hub time to start
	time.Sleep(10 * time.Millisecond)

	// BroadcastMessage should not block even with no clients
	done := make(chan bool)
	go func() {
		hub.BroadcastMessage("test", map[string]string{"key": "value"})
		done <- true
	}()

	select {
	case <-done:
		// Success - didn't block
	case <-time.After(100 * time.Millisecond):
		t.Error("BroadcastMessage blocked with no clients")
	}
}

func TestHub_Broadcast_ImplementsBroadcaster(t *testing.T) {
	hub := newTestHub()
	hub.Start()

	time.Sleep(10 * time.Millisecond)

	done := make(chan bool)
	go func() {
		hub.Broadcast(models.WSMessage{Type: "notification", Payload: nil})
		done <- true
	}()

	select {
	case <-done:
		// Success
	case <-time.After(100 * time.Millisecond):
		t.Error("Broadcast blocked")
	}
}

func TestHub_ClientRegistration(t *testing.T) {
	hub := newTestHub()
	hub.Start()

	time.Sleep(10 * time.Millisecond)

	client := &Client{
		hub:  hub,
		send: make(chan models.WSMessage, 256),
	}

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	hub.mutex.RLock()
	_, exists := hub.clients[client]
	hub.mutex.RUnlock()

	if !exists {
		t.Error("expected client to be registered")
	}
}

func TestHub_ClientUnregistration(t *testing.T) {
	hub := newTestHub()
	hub.Start()

	time.Sleep(10 * time.Millisecond)

	client := &Client{
		hub:  hub,
		send: make(chan models.WSMessage, 256),
	}

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(50 * time.Millisecond)

	hub.mutex.RLock()
	_, exists := hub.clients[client]
	hub.mutex.RUnlock()

	if exists {
		t.Error("expected client to be unregistered")
	}
}

// ==================== WebSocket Integration Tests ====================

func TestServeWs_ClientConnection(t *testing.T) {
	hub := newTestHub()
	hub.Start()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer server.Close()

	// Convert http://... to ws://...
	url := "ws" + server.URL[4:]

	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer ws.Close()

	// Give server time to register client
	time.Sleep(100 * time.Millisecond)

	hub.mutex.RLock()
	clientCount := len(hub.clients)
	hub.mutex.RUnlock()

	if clientCount != 1 {
		t.Errorf("expected 1 client, got %d", clientCount)
	}
}

func TestServeWs_GreetsNewClient(t *testing.T) {
	hub := newTestHub()
	hub.Start()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer server.Close()

	url := "ws" + server.URL[4:]
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer ws.Close()

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read greeting: %v", err)
	}

	var msg models.WSMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		t.Fatalf("failed to unmarshal greeting: %v", err)
	}
	if msg.Type != "connected" {
		t.Errorf("expected type 'connected', got %s", msg.Type)
	}
}

func TestServeWs_BroadcastToClient(t *testing.T) {
	hub := newTestHub()
	hub.Start()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer server.Close()

	url := "ws" + server.URL[4:]
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer ws.Close()

	time.Sleep(100 * time.Millisecond)

	// Read and discard the greeting
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err != nil {
		t.Fatalf("failed to read greeting: %v", err)
	}

	hub.BroadcastSampleStatus("CAT-1A2B3C4D", "evaluated")

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}

	var msg models.WSMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		t.Fatalf("failed to unmarshal message: %v", err)
	}

	if msg.Type != "sample_status" {
		t.Errorf("expected type 'sample_status', got %s", msg.Type)
	}
	payload, ok := msg.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected payload shape: %T", msg.Payload)
	}
	if payload["tracking_code"] != "CAT-1A2B3C4D" {
		t.Errorf("unexpected tracking code in payload: %v", payload["tracking_code"])
	}
}

func TestServeWs_ClientDisconnect(t *testing.T) {
	hub := newTestHub()
	hub.Start()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer server.Close()

	url := "ws" + server.URL[4:]
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	ws.Close()

	// Give server time to unregister client
	time.Sleep(200 * time.Millisecond)

	hub.mutex.RLock()
	clientCount := len(hub.clients)
	hub.mutex.RUnlock()

	if clientCount != 0 {
		t.Errorf("expected 0 clients after disconnect, got %d", clientCount)
	}
}

func TestServeWs_MultipleClients(t *testing.T) {
	hub := newTestHub()
	hub.Start()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer server.Close()

	url := "ws" + server.URL[4:]

	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		ws, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("failed to connect client %d: %v", i+1, err)
		}
		defer ws.Close()
		conns[i] = ws
	}

	time.Sleep(200 * time.Millisecond)

	// Discard greetings
	for i, ws := range conns {
		ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := ws.ReadMessage(); err != nil {
			t.Errorf("client %d failed to read greeting: %v", i+1, err)
		}
	}

	hub.mutex.RLock()
	clientCount := len(hub.clients)
	hub.mutex.RUnlock()

	if clientCount != 3 {
		t.Errorf("expected 3 clients, got %d", clientCount)
	}

	hub.BroadcastMessage("broadcast_test", map[string]int{"count": 123})

	for i, ws := range conns {
		ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, message, err := ws.ReadMessage()
		if err != nil {
			t.Errorf("client %d failed to read message: %v", i+1, err)
			continue
		}

		var msg models.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			t.Errorf("client %d failed to unmarshal: %v", i+1, err)
			continue
		}

		if msg.Type != "broadcast_test" {
			t.Errorf("client %d got wrong type: %s", i+1, msg.Type)
		}
	}
}

func TestServeWs_UpgradeError(t *testing.T) {
	hub := newTestHub()
	hub.Start()

	// A request without upgrade headers must fail cleanly
	req := httptest.NewRequest("GET", "/ws", nil)
	w := httptest.NewRecorder()

	hub.ServeWs(w, req)
}

func TestWritePump_WriteError(t *testing.T) {
	hub := newTestHub()
	hub.Start()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer server.Close()

	url := "ws" + server.URL[4:]
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	ws.ReadMessage()

	// Close from the client side, then broadcast into the dead connection
	ws.Close()
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastMessage("test", map[string]string{"key": "value"})

	time.Sleep(200 * time.Millisecond)

	hub.mutex.RLock()
	clientCount := len(hub.clients)
	hub.mutex.RUnlock()

	if clientCount != 0 {
		t.Errorf("expected 0 clients after write error, got %d", clientCount)
	}
}
