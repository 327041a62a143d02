package stream

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// Tick is one quote update from the feed.
type Tick struct {
	Symbol     string    `json:"symbol"`
	Bid        float64   `json:"bid"`
	Ask        float64   `json:"ask"`
	Last       float64   `json:"last,omitempty"`
	Volume     float64   `json:"volume,omitempty"`
	Time       int64     `json:"time,omitempty"` // server timestamp, unix ms
	ReceivedAt time.Time `json:"-"`              // local receive time
}

// Command is a feed command sent to the server.
type Command struct {
	ID     int64  `json:"id"`
	Cmd    string `json:"cmd"` // "subscribe" or "unsubscribe"
	Params any    `json:"params,omitempty"`
}

// SubscribeParams are parameters for a subscribe command.
type SubscribeParams struct {
	Symbols   []string `json:"symbols"`
	SessionID string   `json:"session_id,omitempty"`
}
