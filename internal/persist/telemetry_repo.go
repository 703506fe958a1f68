package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ActionRow is one dispatched action recorded for later analysis.
type ActionRow struct {
	Tick     int64
	Kind     string
	Priority string
	Phase    string
}

type RiskRow struct {
	Tick  int64
	Score int
}

type FleeRow struct {
	Tick   int64
	Reason string
	Method string
}

type TelemetryRepo struct {
	db *DB
}

func NewTelemetryRepo(db *DB) *TelemetryRepo {
	return &TelemetryRepo{db: db}
}

// CreateSession opens a new telemetry session and returns its ID.
func (r *TelemetryRepo) CreateSession(ctx context.Context, profile string, seed int64) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO sessions (id, profile, seed) VALUES ($1, $2, $3)`,
		id, profile, seed,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// EndSession stamps the session end time and final tick count.
func (r *TelemetryRepo) EndSession(ctx context.Context, id uuid.UUID, ticks int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE sessions SET ended_at = NOW(), ticks = $2 WHERE id = $1`,
		id, ticks,
	)
	return err
}

// Flush atomically writes one tick window's worth of telemetry in a single
// transaction. If it fails the caller drops the batch; telemetry is never
// allowed to stall the engine.
func (r *TelemetryRepo) Flush(ctx context.Context, session uuid.UUID,
	actions []ActionRow, risks []RiskRow, flees []FleeRow) error {

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("telemetry begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, a := range actions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO actions (session_id, tick, kind, priority, phase)
			 VALUES ($1, $2, $3, $4, $5)`,
			session, a.Tick, a.Kind, a.Priority, a.Phase,
		); err != nil {
			return fmt.Errorf("telemetry action insert: %w", err)
		}
	}
	for _, s := range risks {
		if _, err := tx.Exec(ctx,
			`INSERT INTO risk_samples (session_id, tick, score) VALUES ($1, $2, $3)`,
			session, s.Tick, s.Score,
		); err != nil {
			return fmt.Errorf("telemetry risk insert: %w", err)
		}
	}
	for _, f := range flees {
		if _, err := tx.Exec(ctx,
			`INSERT INTO flee_events (session_id, tick, reason, method)
			 VALUES ($1, $2, $3, $4)`,
			session, f.Tick, f.Reason, f.Method,
		); err != nil {
			return fmt.Errorf("telemetry flee insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// UpdateFlickStats overwrites the cumulative flick counters for the session.
func (r *TelemetryRepo) UpdateFlickStats(ctx context.Context, session uuid.UUID, hits, misses int) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO flick_stats (session_id, hits, misses) VALUES ($1, $2, $3)
		 ON CONFLICT (session_id) DO UPDATE SET hits = $2, misses = $3`,
		session, hits, misses,
	)
	return err
}
