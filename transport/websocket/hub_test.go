package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}

	if hub.races == nil {
		t.Error("Hub races map is nil")
	}

	if hub.broadcast == nil {
		t.Error("Hub broadcast channel is nil")
	}

	if hub.register == nil {
		t.Error("Hub register channel is nil")
	}

	if hub.unregister == nil {
		t.Error("Hub unregister channel is nil")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()

	client := &Client{
		hub:    hub,
		raceID: "test-race",
		send:   make(chan []byte, 256),
	}

	hub.registerClient(client)

	if _, exists := hub.races["test-race"]; !exists {
		t.Error("Race entry was not created")
	}

	if !hub.races["test-race"][client] {
		t.Error("Client was not registered for race")
	}

	if len(hub.races["test-race"]) != 1 {
		t.Errorf("Expected 1 client for race, got %d", len(hub.races["test-race"]))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub()

	client := &Client{
		hub:    hub,
		raceID: "test-race",
		send:   make(chan []byte, 256),
	}

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.races["test-race"]; exists {
		t.Error("Race entry should have been cleaned up after last client unregistered")
	}

	if _, ok := <-client.send; ok {
		t.Error("send channel should be closed")
	}

	// A second unregister is a no-op
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInRace(t *testing.T) {
	hub := NewHub()
	raceID := "multi-client-race"

	client1 := &Client{hub: hub, raceID: raceID, send: make(chan []byte, 256)}
	client2 := &Client{hub: hub, raceID: raceID, send: make(chan []byte, 256)}

	hub.registerClient(client1)
	hub.registerClient(client2)

	if len(hub.races[raceID]) != 2 {
		t.Errorf("Expected 2 clients for race, got %d", len(hub.races[raceID]))
	}

	hub.unregisterClient(client1)

	if len(hub.races[raceID]) != 1 {
		t.Errorf("Expected 1 client remaining, got %d", len(hub.races[raceID]))
	}

	if !hub.races[raceID][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub()

	watcher := &Client{hub: hub, raceID: "race-1", send: make(chan []byte, 256)}
	other := &Client{hub: hub, raceID: "race-2", send: make(chan []byte, 256)}
	hub.registerClient(watcher)
	hub.registerClient(other)

	hub.broadcastMessage(&Message{RaceID: "race-1", Event: "turn", Data: map[string]int{"turn": 3}})

	select {
	case data := <-watcher.send:
		var message struct {
			RaceID string         `json:"race_id"`
			Event  string         `json:"event"`
			Data   map[string]int `json:"data"`
		}
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.RaceID != "race-1" || message.Event != "turn" {
			t.Errorf("Unexpected message %+v", message)
		}
		if message.Data["turn"] != 3 {
			t.Errorf("Expected turn 3, got %v", message.Data)
		}
	default:
		t.Error("No message queued for watcher")
	}

	if len(other.send) != 0 {
		t.Error("Clients of other races should not receive the message")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()

	slow := &Client{hub: hub, raceID: "slow", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{RaceID: "slow", Event: "turn"})

	if _, exists := hub.races["slow"]; exists {
		t.Error("Slow client should have been unregistered")
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub()

	hub.BroadcastEvent("event-test", "finish", "test-data")

	select {
	case message := <-hub.broadcast:
		if message.RaceID != "event-test" {
			t.Errorf("Expected raceID 'event-test', got %s", message.RaceID)
		}
		if message.Event != "finish" {
			t.Errorf("Expected event 'finish', got %s", message.Event)
		}
		if message.Data != "test-data" {
			t.Errorf("Expected data 'test-data', got %v", message.Data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No broadcast message received within timeout")
	}
}

func TestHubBroadcastEventNeverBlocks(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer+10; i++ {
			hub.BroadcastEvent("busy", "turn", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BroadcastEvent blocked on a full hub")
	}
	if len(hub.broadcast) != broadcastBuffer {
		t.Errorf("Expected %d queued events, got %d", broadcastBuffer, len(hub.broadcast))
	}
}

func newTestServer(hub *Hub, snapshot interface{}) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("race"), snapshot)
	}))
}

func dial(t *testing.T, server *httptest.Server, raceID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?race=" + raceID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	return conn
}

// waitForClients polls the hub until raceID has want clients.
func waitForClients(t *testing.T, hub *Hub, raceID string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		got := hub.ClientCounts()[raceID]
		if got == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients for race %s, got %d", want, raceID, got)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	var message map[string]interface{}
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	return message
}

func TestWebSocketLifecycle(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := newTestServer(hub, nil)
	defer server.Close()

	conn := dial(t, server, "ws-test")
	waitForClients(t, hub, "ws-test", 1)

	conn.Close()
	waitForClients(t, hub, "ws-test", 0)

	if _, exists := hub.ClientCounts()["ws-test"]; exists {
		t.Error("Race entry should have been cleaned up after WebSocket close")
	}
}

func TestWebSocketMessageReceive(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := newTestServer(hub, map[string]interface{}{"status": "running"})
	defer server.Close()

	conn := dial(t, server, "msg-test")
	defer conn.Close()

	snapshot := readMessage(t, conn)
	if snapshot["event"] != EventSnapshot || snapshot["race_id"] != "msg-test" {
		t.Errorf("Unexpected first message %v", snapshot)
	}
	if data, _ := snapshot["data"].(map[string]interface{}); data["status"] != "running" {
		t.Errorf("Snapshot data not transmitted: %v", snapshot["data"])
	}

	waitForClients(t, hub, "msg-test", 1)
	hub.BroadcastEvent("msg-test", "turn", map[string]int{"turn": 2})
	hub.BroadcastEvent("msg-test", "finish", map[string]int{"turn": 3})

	for _, want := range []string{"turn", "finish"} {
		message := readMessage(t, conn)
		if message["event"] != want {
			t.Errorf("Expected event %q, got %v", want, message["event"])
		}
	}
}
