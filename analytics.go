package main

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	analyticsQueueSize = 1024
	analyticsBatchSize = 50
	analyticsFlushRate = 5 * time.Second
)

// Host-side event kinds recorded next to the simulation's own events.
const (
	EvtRunStart = "run_start"
	EvtRunEnd   = "run_end"
	EvtNewHigh  = "new_high"
)

// RunEvent is one recorded event of a run.
type RunEvent struct {
	RunID    string
	UserID   int64
	Kind     string
	Detail   string
	GameTime float64
	At       time.Time
}

// Analytics writes run events to the database in batches from a background
// goroutine. Track never blocks the game loop.
type Analytics struct {
	db     *DB
	log    *zap.Logger
	events chan RunEvent
	stop   chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	dropped int
}

// NewAnalytics creates and starts the background writer. db may be nil, in
// which case events are discarded.
func NewAnalytics(db *DB, log *zap.Logger) *Analytics {
	a := &Analytics{
		db:     db,
		log:    log,
		events: make(chan RunEvent, analyticsQueueSize),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event, dropping it if the queue is full.
func (a *Analytics) Track(ev RunEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	select {
	case a.events <- ev:
	default:
		a.mu.Lock()
		a.dropped++
		a.mu.Unlock()
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (a *Analytics) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Stop flushes queued events and stops the writer. Track must not be called
// afterwards.
func (a *Analytics) Stop() {
	close(a.stop)
	a.wg.Wait()
}

func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]RunEvent, 0, analyticsBatchSize)
	ticker := time.NewTicker(analyticsFlushRate)
	defer ticker.Stop()

	for {
		select {
		case ev := <-a.events:
			batch = append(batch, ev)
			if len(batch) >= analyticsBatchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			for {
				select {
				case ev := <-a.events:
					batch = append(batch, ev)
				default:
					a.flush(batch)
					return
				}
			}
		}
	}
}

func (a *Analytics) flush(events []RunEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := a.db.conn.BeginTx(ctx, nil)
	if err != nil {
		a.log.Warn("analytics: begin tx", zap.Error(err))
		return
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, a.db.q(`
		INSERT INTO run_events (run_id, user_id, kind, detail, game_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		a.log.Warn("analytics: prepare", zap.Error(err))
		return
	}
	defer stmt.Close()

	for _, ev := range events {
		uid := sql.NullInt64{Int64: ev.UserID, Valid: ev.UserID > 0}
		if _, err := stmt.ExecContext(ctx, ev.RunID, uid, ev.Kind, ev.Detail, ev.GameTime, ev.At.Unix()); err != nil {
			a.log.Warn("analytics: insert", zap.String("kind", ev.Kind), zap.Error(err))
		}
	}
	if err := tx.Commit(); err != nil {
		a.log.Warn("analytics: commit", zap.Error(err))
	}
}

// EventCounts returns how often each event kind occurred in a run.
func (a *Analytics) EventCounts(ctx context.Context, runID string) (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.QueryContext(ctx, a.db.q(`
		SELECT kind, COUNT(*) FROM run_events WHERE run_id = ?
		GROUP BY kind ORDER BY COUNT(*) DESC`), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		result[kind] = n
	}
	return result, rows.Err()
}
