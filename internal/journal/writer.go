package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MetaRPC/PyMT5-sub000/internal/config"
	"github.com/MetaRPC/PyMT5-sub000/internal/session"
)

// WriterMetrics counts writer activity.
type WriterMetrics struct {
	Inserts int64
	Flushes int64
	Errors  int64
	Dropped int64
}

// Writer persists engine events to the session_events table in batches. It
// implements session.Recorder; Record never blocks, events beyond the buffer
// are dropped and counted.
type Writer struct {
	cfg    config.JournalConfig
	logger *slog.Logger

	input chan session.Event
	db    *pgxpool.Pool

	// Batching
	batch       []session.Event
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics WriterMetrics
}

// NewWriter creates a journal writer on the given pool.
func NewWriter(cfg config.JournalConfig, db *pgxpool.Pool, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		cfg:    cfg,
		db:     db,
		logger: logger,
		input:  make(chan session.Event, cfg.BufferSize),
		batch:  make([]session.Event, 0, cfg.BatchSize),
	}
}

// Record buffers one engine event. Called inline from the engine's connect
// path, so it never blocks: a full buffer drops the event.
func (w *Writer) Record(ev session.Event) {
	select {
	case w.input <- ev:
	default:
		w.batchMu.Lock()
		w.metrics.Dropped++
		w.batchMu.Unlock()
	}
}

// Start begins consuming events and writing to the database.
func (w *Writer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("journal writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts the writer down, flushing the remaining batch.
func (w *Writer) Stop(ctx context.Context) error {
	w.logger.Info("stopping journal writer")

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("journal writer stopped")
	case <-ctx.Done():
		w.logger.Warn("journal writer stop timed out")
	}

	// Drain whatever Record buffered after the consumer exited.
	for {
		select {
		case ev := <-w.input:
			w.batchMu.Lock()
			w.batch = append(w.batch, ev)
			w.batchMu.Unlock()
		default:
			w.flush()
			return nil
		}
	}
}

// Stats returns current metrics.
func (w *Writer) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop accumulates events into batches.
func (w *Writer) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case ev := <-w.input:
			w.batchMu.Lock()
			w.batch = append(w.batch, ev)
			shouldFlush := len(w.batch) >= w.cfg.BatchSize
			w.batchMu.Unlock()

			if shouldFlush {
				w.flush()
			}
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *Writer) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

// flush writes the current batch to the database.
func (w *Writer) flush() {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of the current batch
	batch := w.batch
	w.batch = make([]session.Event, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	if err := w.batchInsert(batch); err != nil {
		w.logger.Error("journal batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch))
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed journal events",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

// batchInsert inserts events using pgx.Batch.
func (w *Writer) batchInsert(events []session.Event) error {
	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(`
			INSERT INTO session_events (at, kind, name, outcome, detail)
			VALUES ($1, $2, $3, $4, $5)`,
			ev.Time, ev.Kind, ev.Name, ev.Outcome, ev.Detail,
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
