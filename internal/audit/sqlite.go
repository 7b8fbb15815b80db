package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSink persists events to a local SQLite database so the audit trail
// can be queried and aggregated after the fact (`pm audit list`, `pm audit
// stats`). The schema is created on open.
type SQLiteSink struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteSink opens (creating if needed) the event database at path.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	s := &SQLiteSink{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSink) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		decision_id TEXT,
		utterance TEXT,
		intent_id TEXT,
		confidence REAL,
		match_kind TEXT,
		state TEXT,
		command TEXT,
		safety_verdict TEXT,
		block_rule TEXT,
		block_reason TEXT,
		exit_code INTEGER,
		duration_ms INTEGER,
		timed_out INTEGER NOT NULL DEFAULT 0,
		cancelled INTEGER NOT NULL DEFAULT 0,
		truncated INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
	CREATE INDEX IF NOT EXISTS idx_events_intent ON events(intent_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}
	return nil
}

// Record inserts one event.
func (s *SQLiteSink) Record(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exitCode interface{}
	if ev.ExitCode != nil {
		exitCode = *ev.ExitCode
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO events
		 (id, type, timestamp, decision_id, utterance, intent_id, confidence,
		  match_kind, state, command, safety_verdict, block_rule, block_reason,
		  exit_code, duration_ms, timed_out, cancelled, truncated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Type, ev.Timestamp, ev.DecisionID, ev.Utterance, ev.IntentID,
		ev.Confidence, ev.MatchKind, ev.State, ev.Command, ev.SafetyVerdict,
		ev.BlockRule, ev.BlockReason, exitCode, ev.DurationMS,
		boolToInt(ev.TimedOut), boolToInt(ev.Cancelled), boolToInt(ev.Truncated),
	)
	return err
}

// Filter narrows a Query. Zero fields match everything.
type Filter struct {
	Type     string
	IntentID string
	State    string
	Since    time.Time
	Limit    int
}

// Query returns matching events, newest first.
func (s *SQLiteSink) Query(f Filter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var conditions []string
	var args []interface{}
	if f.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, f.Type)
	}
	if f.IntentID != "" {
		conditions = append(conditions, "intent_id = ?")
		args = append(args, f.IntentID)
	}
	if f.State != "" {
		conditions = append(conditions, "state = ?")
		args = append(args, f.State)
	}
	if !f.Since.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, f.Since.UTC())
	}

	query := `SELECT id, type, timestamp, decision_id, utterance, intent_id,
		confidence, match_kind, state, command, safety_verdict, block_rule,
		block_reason, exit_code, duration_ms, timed_out, cancelled, truncated
		FROM events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var exitCode sql.NullInt64
		var timedOut, cancelled, truncated int
		if err := rows.Scan(
			&ev.ID, &ev.Type, &ev.Timestamp, &ev.DecisionID, &ev.Utterance,
			&ev.IntentID, &ev.Confidence, &ev.MatchKind, &ev.State, &ev.Command,
			&ev.SafetyVerdict, &ev.BlockRule, &ev.BlockReason,
			&exitCode, &ev.DurationMS, &timedOut, &cancelled, &truncated,
		); err != nil {
			return nil, err
		}
		if exitCode.Valid {
			code := int(exitCode.Int64)
			ev.ExitCode = &code
		}
		ev.TimedOut = timedOut != 0
		ev.Cancelled = cancelled != 0
		ev.Truncated = truncated != 0
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Stats aggregates the recorded trail.
type Stats struct {
	Total         int64            `json:"total"`
	ByType        map[string]int64 `json:"byType"`
	ByState       map[string]int64 `json:"byState"`
	Blocked       int64            `json:"blocked"`
	TimedOut      int64            `json:"timedOut"`
	AvgDurationMS float64          `json:"avgDurationMs"`
}

// Stats computes aggregate counts over the whole trail.
func (s *SQLiteSink) Stats() (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &Stats{
		ByType:  make(map[string]int64),
		ByState: make(map[string]int64),
	}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&st.Total); err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT type, COUNT(*) FROM events GROUP BY type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var t string
		var n int64
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		st.ByType[t] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stateRows, err := s.db.Query(
		"SELECT state, COUNT(*) FROM events WHERE type = ? GROUP BY state", TypeRouteDecision)
	if err != nil {
		return nil, err
	}
	defer stateRows.Close()
	for stateRows.Next() {
		var state string
		var n int64
		if err := stateRows.Scan(&state, &n); err != nil {
			return nil, err
		}
		st.ByState[state] = n
	}
	if err := stateRows.Err(); err != nil {
		return nil, err
	}
	st.Blocked = st.ByState["blocked"]

	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM events WHERE timed_out = 1").Scan(&st.TimedOut); err != nil {
		return nil, err
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRow(
		"SELECT AVG(duration_ms) FROM events WHERE type = ?", TypeExecutionOutcome).Scan(&avg); err != nil {
		return nil, err
	}
	if avg.Valid {
		st.AvgDurationMS = avg.Float64
	}
	return st, nil
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
