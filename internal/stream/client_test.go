package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MetaRPC/PyMT5-sub000/internal/config"
)

// mockFeed creates a test websocket quote feed.
func mockFeed(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func feedConfig(url string) config.StreamConfig {
	return config.StreamConfig{
		Enabled:      true,
		URL:          url,
		Symbols:      []string{"EURUSD"},
		PingTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   100,
	}
}

func TestClient_Connect(t *testing.T) {
	server := mockFeed(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := NewClient(feedConfig(wsURL(server)), "sess-1", nil)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !client.IsConnected() {
		t.Error("expected IsConnected to return true")
	}

	client.Stop()

	if client.IsConnected() {
		t.Error("expected IsConnected to return false after Stop")
	}
}

func TestClient_Subscribe(t *testing.T) {
	var received []byte
	var mu sync.Mutex

	server := mockFeed(t, func(conn *websocket.Conn) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			mu.Lock()
			received = msg
			mu.Unlock()
		}
	})
	defer server.Close()

	client := NewClient(feedConfig(wsURL(server)), "sess-1", nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Stop()

	if err := client.Subscribe("EURUSD", "GBPUSD"); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	// Wait for the command to reach the server
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	var cmd Command
	if err := json.Unmarshal(received, &cmd); err != nil {
		t.Fatalf("unmarshal command: %v", err)
	}
	if cmd.Cmd != "subscribe" {
		t.Errorf("cmd = %q, want subscribe", cmd.Cmd)
	}
	params, _ := cmd.Params.(map[string]any)
	if params["session_id"] != "sess-1" {
		t.Errorf("session_id = %v, want sess-1", params["session_id"])
	}
}

func TestClient_Ticks(t *testing.T) {
	frames := []string{
		`{"id": 1, "type": "subscribed"}`, // command response, must be skipped
		`{"symbol": "EURUSD", "bid": 1.0851, "ask": 1.0853}`,
		`{"symbol": "GBPUSD", "bid": 1.2701, "ask": 1.2704}`,
	}

	server := mockFeed(t, func(conn *websocket.Conn) {
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		time.Sleep(time.Second)
	})
	defer server.Close()

	client := NewClient(feedConfig(wsURL(server)), "", nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Stop()

	var ticks []Tick
	timeout := time.After(2 * time.Second)
	for len(ticks) < 2 {
		select {
		case tick := <-client.Ticks():
			ticks = append(ticks, tick)
		case <-timeout:
			t.Fatalf("got %d ticks, want 2", len(ticks))
		}
	}

	if ticks[0].Symbol != "EURUSD" || ticks[0].Bid != 1.0851 {
		t.Errorf("first tick = %+v, want EURUSD bid 1.0851", ticks[0])
	}
	if ticks[1].Symbol != "GBPUSD" {
		t.Errorf("second tick symbol = %q, want GBPUSD", ticks[1].Symbol)
	}
	if ticks[0].ReceivedAt.IsZero() {
		t.Error("tick missing local receive timestamp")
	}
}

func TestClient_StopIdempotent(t *testing.T) {
	server := mockFeed(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := NewClient(feedConfig(wsURL(server)), "", nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	client.Stop()
	client.Stop()

	if err := client.Connect(context.Background()); err != ErrAlreadyClosed {
		t.Errorf("Connect after Stop = %v, want ErrAlreadyClosed", err)
	}
	if err := client.Subscribe("EURUSD"); err != ErrNotConnected {
		t.Errorf("Subscribe after Stop = %v, want ErrNotConnected", err)
	}
}
