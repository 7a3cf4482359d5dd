package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// Rebuild is one recorded segment rebuild.
type Rebuild struct {
	ID        string
	Segment   string
	Trigger   string
	Members   int
	Duration  time.Duration
	Timestamp time.Time
}

// Store persists rebuild events so a development session's churn can be
// inspected after the fact.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRebuild inserts one rebuild event, assigning an id and timestamp when
// the caller left them empty.
func (s *Store) RecordRebuild(r Rebuild) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	if r.Trigger == "" {
		r.Trigger = "unknown"
	}

	_, err := s.db.Exec(
		`INSERT INTO rebuilds (id, segment, trigger_kind, member_count, duration_ms, ts_utc)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Segment, r.Trigger, r.Members,
		r.Duration.Milliseconds(), r.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record rebuild for %q: %w", r.Segment, err)
	}
	return nil
}

// Recent returns the latest rebuild events, newest first.
func (s *Store) Recent(limit int) ([]Rebuild, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, segment, trigger_kind, member_count, duration_ms, ts_utc
		 FROM rebuilds ORDER BY ts_utc DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query rebuild history: %w", err)
	}
	defer rows.Close()

	out := make([]Rebuild, 0, limit)
	for rows.Next() {
		var r Rebuild
		var durationMS int64
		var ts string
		if err := rows.Scan(&r.ID, &r.Segment, &r.Trigger, &r.Members, &durationMS, &ts); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			r.Timestamp = parsed
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
