package journal

import (
	"testing"
	"time"

	"github.com/MetaRPC/PyMT5-sub000/internal/config"
	"github.com/MetaRPC/PyMT5-sub000/internal/session"
)

// Record must never block the engine's connect path: events beyond the
// buffer are dropped and counted.
func TestWriterRecordNeverBlocks(t *testing.T) {
	cfg := config.JournalConfig{
		BufferSize:    2,
		BatchSize:     10,
		FlushInterval: time.Second,
	}
	w := NewWriter(cfg, nil, nil)

	ev := session.Event{Time: time.Now(), Kind: "state", Name: "connecting"}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			w.Record(ev)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full buffer")
	}

	if got := w.Stats().Dropped; got != 3 {
		t.Errorf("Dropped = %d, want 3", got)
	}
}
