package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/iconidentify/reddex/internal/config"
	"github.com/iconidentify/reddex/internal/domain"
)

// EventService manages operational events with an in-memory ring buffer
// and optional SQLite persistence. Rate-limit hits, degraded embeds and
// resolve failures are recorded here for operational visibility; post
// content never is.
type EventService struct {
	cfg    config.EventsConfig
	logger *slog.Logger

	mu     sync.RWMutex
	events []domain.Event
	head   int
	count  int

	db *sql.DB
}

// NewEventService creates a new event service. SQLite persistence is
// enabled when a path is configured.
func NewEventService(cfg config.EventsConfig, logger *slog.Logger) (*EventService, error) {
	if cfg.RingSize <= 0 {
		cfg.RingSize = 1000
	}

	svc := &EventService{
		cfg:    cfg,
		logger: logger,
		events: make([]domain.Event, cfg.RingSize),
	}

	if cfg.SQLitePath != "" {
		if err := svc.initSQLite(); err != nil {
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
		logger.Info("event persistence enabled", "path", cfg.SQLitePath)
	}

	return svc, nil
}

// initSQLite initializes the SQLite database.
func (s *EventService) initSQLite() error {
	db, err := sql.Open("sqlite", s.cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			timestamp DATETIME NOT NULL,
			severity TEXT NOT NULL,
			category TEXT NOT NULL,
			message TEXT NOT NULL,
			source TEXT,
			metadata TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
		CREATE INDEX IF NOT EXISTS idx_events_category ON events(category);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("create table: %w", err)
	}

	s.db = db

	if s.cfg.RetentionDays > 0 {
		go s.pruneLoop()
	}
	return nil
}

// Close closes the event service and any open resources.
func (s *EventService) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Emit records an event to the event log.
func (s *EventService) Emit(event domain.Event) {
	if event.ID == "" {
		event.ID = domain.EventID("evt_" + uuid.New().String()[:8])
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	s.mu.Lock()
	s.events[s.head] = event
	s.head = (s.head + 1) % s.cfg.RingSize
	if s.count < s.cfg.RingSize {
		s.count++
	}
	s.mu.Unlock()

	if s.db != nil {
		go s.persistEvent(event)
	}

	logLevel := slog.LevelInfo
	switch event.Severity {
	case domain.EventSeverityWarning:
		logLevel = slog.LevelWarn
	case domain.EventSeverityError:
		logLevel = slog.LevelError
	}
	s.logger.Log(context.Background(), logLevel, "event emitted",
		"event_id", event.ID,
		"category", event.Category,
		"severity", event.Severity,
		"message", event.Message,
		"source", event.Source,
	)
}

// EmitWarning is a convenience method for warning-level events.
func (s *EventService) EmitWarning(category domain.EventCategory, source, message string, metadata domain.EventMetadata) {
	s.Emit(domain.Event{
		Severity: domain.EventSeverityWarning,
		Category: category,
		Source:   source,
		Message:  message,
		Metadata: metadata.ToJSON(),
	})
}

// EmitError is a convenience method for error-level events.
func (s *EventService) EmitError(category domain.EventCategory, source, message string, metadata domain.EventMetadata) {
	s.Emit(domain.Event{
		Severity: domain.EventSeverityError,
		Category: category,
		Source:   source,
		Message:  message,
		Metadata: metadata.ToJSON(),
	})
}

// List returns buffered events newest first, filtered and paginated.
func (s *EventService) List(filter domain.EventFilter, limit, offset int) ([]domain.Event, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Event, 0, s.count)
	for i := 0; i < s.count; i++ {
		// Walk backwards from the most recent write.
		idx := (s.head - 1 - i + s.cfg.RingSize) % s.cfg.RingSize
		event := s.events[idx]
		if filter.Severity != nil && event.Severity != *filter.Severity {
			continue
		}
		if filter.Category != nil && event.Category != *filter.Category {
			continue
		}
		if filter.Source != "" && event.Source != filter.Source {
			continue
		}
		matched = append(matched, event)
	}

	total := len(matched)
	if offset >= total {
		return nil, total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return matched[offset:end], total
}

// Stats summarizes the buffer contents by severity.
func (s *EventService) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]int)
	for i := 0; i < s.count; i++ {
		idx := (s.head - 1 - i + s.cfg.RingSize) % s.cfg.RingSize
		stats[string(s.events[idx].Severity)]++
	}
	return stats
}

// persistEvent saves an event to SQLite.
func (s *EventService) persistEvent(event domain.Event) {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO events (id, timestamp, severity, category, message, source, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID.String(),
		event.Timestamp,
		string(event.Severity),
		string(event.Category),
		event.Message,
		event.Source,
		string(event.Metadata),
	)
	if err != nil {
		s.logger.Error("persist event failed", "event_id", event.ID, "error", err)
	}
}

// pruneLoop deletes events past the retention window once a day.
func (s *EventService) pruneLoop() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
		if _, err := s.db.Exec(`DELETE FROM events WHERE timestamp < ?`, cutoff); err != nil {
			s.logger.Error("prune events failed", "error", err)
		}
	}
}
