package stream

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/MetaRPC/PyMT5-sub000/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client is a tick-stream connection to the gateway's quote feed. It
// implements the engine's Stopper contract so session teardown closes it.
type Client interface {
	// Connect establishes the websocket connection and starts the read and
	// heartbeat loops.
	Connect(ctx context.Context) error

	// Subscribe requests tick updates for the given symbols.
	Subscribe(symbols ...string) error

	// Ticks returns the channel of decoded quote updates.
	Ticks() <-chan Tick

	// Errors returns the channel of connection errors.
	Errors() <-chan error

	// IsConnected returns the current connection state.
	IsConnected() bool

	// Stop closes the stream. Safe to call repeatedly.
	Stop()
}

// client implements the Client interface.
type client struct {
	cfg       config.StreamConfig
	sessionID string
	logger    *slog.Logger

	conn   *websocket.Conn
	nextID atomic.Int64

	ticks  chan Tick
	errors chan error
	done   chan struct{}

	// Write serialization
	writeMu sync.Mutex

	// State
	mu         sync.RWMutex
	connected  bool
	lastPingAt time.Time
	closed     bool
}

// NewClient creates a tick-stream client. The session identity rides along
// on the handshake headers and subscribe commands so the feed can associate
// the stream with the RPC session.
func NewClient(cfg config.StreamConfig, sessionID string, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &client{
		cfg:       cfg,
		sessionID: sessionID,
		logger:    logger,
		ticks:     make(chan Tick, cfg.BufferSize),
		errors:    make(chan error, 1),
		done:      make(chan struct{}),
	}
}

// Connect establishes the websocket connection.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	c.mu.Unlock()

	header := http.Header{}
	header.Set("Accept", "application/json")
	if c.sessionID != "" {
		header.Set("Mt5-Session-Id", c.sessionID)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.lastPingAt = time.Now()
	c.mu.Unlock()

	// Server pings, we pong and refresh the staleness clock.
	conn.SetPingHandler(func(data string) error {
		c.mu.Lock()
		c.lastPingAt = time.Now()
		c.mu.Unlock()

		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})

	conn.SetPongHandler(func(string) error {
		c.mu.Lock()
		c.lastPingAt = time.Now()
		c.mu.Unlock()
		return nil
	})

	go c.readLoop()
	go c.heartbeatLoop()

	c.logger.Debug("tick stream connected", "url", c.cfg.URL)

	return nil
}

// Subscribe requests tick updates for the given symbols.
func (c *client) Subscribe(symbols ...string) error {
	if len(symbols) == 0 {
		symbols = c.cfg.Symbols
	}

	cmd := Command{
		ID:  c.nextID.Add(1),
		Cmd: "subscribe",
		Params: SubscribeParams{
			Symbols:   symbols,
			SessionID: c.sessionID,
		},
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return c.send(data)
}

// Stop closes the stream. Safe to call repeatedly.
func (c *client) Stop() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.connected = false
	c.mu.Unlock()

	close(c.done)

	if c.conn != nil {
		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.conn.Close()
	}
}

func (c *client) send(data []byte) error {
	c.mu.RLock()
	if !c.connected {
		c.mu.RUnlock()
		return ErrNotConnected
	}
	c.mu.RUnlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Ticks returns the ticks channel.
func (c *client) Ticks() <-chan Tick {
	return c.ticks
}

// Errors returns the errors channel.
func (c *client) Errors() <-chan error {
	return c.errors
}

// IsConnected returns the current connection state.
func (c *client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// readLoop reads frames from the websocket, decodes ticks, and delivers
// them to the ticks channel. Frames that do not decode as ticks are command
// responses and are skipped.
func (c *client) readLoop() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			// Ignore errors after Stop() was called
			select {
			case <-c.done:
				return
			default:
				select {
				case c.errors <- err:
				default:
				}
				return
			}
		}

		var tick Tick
		if err := json.Unmarshal(data, &tick); err != nil || tick.Symbol == "" {
			continue
		}
		tick.ReceivedAt = receivedAt

		select {
		case c.ticks <- tick:
		case <-c.done:
			return
		default:
			c.logger.Warn("tick buffer full, dropping tick", "symbol", tick.Symbol)
		}
	}
}

// heartbeatLoop pings the feed and tears the stream down when no ping or
// pong arrived within the configured timeout.
func (c *client) heartbeatLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.RLock()
			conn := c.conn
			c.mu.RUnlock()

			if conn != nil {
				deadline := time.Now().Add(c.cfg.WriteTimeout)
				if err := conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
					c.logger.Debug("failed to send ping", "error", err)
				}
			}

			c.mu.RLock()
			lastPing := c.lastPingAt
			c.mu.RUnlock()

			if time.Since(lastPing) > c.cfg.PingTimeout {
				c.logger.Warn("no ping received, tick stream stale",
					"last_ping", lastPing,
					"timeout", c.cfg.PingTimeout,
				)
				select {
				case c.errors <- ErrStaleConnection:
				default:
				}
				return
			}
		}
	}
}
