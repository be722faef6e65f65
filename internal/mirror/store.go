package mirror

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-switchd/internal/model"
)

// defaultWriteTimeout bounds a single mirror write.
const defaultWriteTimeout = 5 * time.Second

// StoredEntity is one row of the mirrored state tree.
type StoredEntity struct {
	DeviceID  string          `json:"device_id"`
	Kind      model.Kind      `json:"kind"`
	EntityID  string          `json:"entity_id"`
	Snapshot  json.RawMessage `json:"snapshot"`
	EventID   string          `json:"event_id"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Logger is the subset of logging.Logger the mirror listeners use.
type Logger interface {
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}

// Store is a Listener that persists the state tree in SQLite
// (table mirror_entities). Added and Updated upsert, Removed deletes.
type Store struct {
	db *sql.DB

	logger   Logger
	loggerMu sync.RWMutex
}

// NewStore creates a store on an open, migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, logger: noopLogger{}}
}

// SetLogger sets the logger for failed writes.
func (s *Store) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.loggerMu.Lock()
	s.logger = logger
	s.loggerMu.Unlock()
}

// HandleMirrorEvent implements Listener. Write failures are logged; the
// registry is already correct and the tree catches up on the next event
// for the same entity.
func (s *Store) HandleMirrorEvent(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultWriteTimeout)
	defer cancel()

	if err := s.Apply(ctx, ev); err != nil {
		s.loggerMu.RLock()
		logger := s.logger
		s.loggerMu.RUnlock()
		logger.Error("mirror store write failed",
			"device_id", ev.DeviceID, "kind", ev.EntityKind, "entity_id", ev.EntityID, "error", err)
	}
}

// Apply writes one event to the tree.
func (s *Store) Apply(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case Added, Updated:
		snapshot, err := json.Marshal(ev.Snapshot)
		if err != nil {
			return fmt.Errorf("encoding snapshot: %w", err)
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO mirror_entities (device_id, kind, entity_id, snapshot, event_id, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (device_id, kind, entity_id) DO UPDATE SET
				snapshot = excluded.snapshot,
				event_id = excluded.event_id,
				updated_at = excluded.updated_at`,
			ev.DeviceID, string(ev.EntityKind), ev.EntityID, string(snapshot),
			ev.ID.String(), ev.Timestamp.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("upserting mirror entity: %w", err)
		}
	case Removed:
		_, err := s.db.ExecContext(ctx,
			"DELETE FROM mirror_entities WHERE device_id = ? AND kind = ? AND entity_id = ?",
			ev.DeviceID, string(ev.EntityKind), ev.EntityID,
		)
		if err != nil {
			return fmt.Errorf("deleting mirror entity: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventKind, ev.Kind)
	}
	return nil
}

// Get returns one mirrored entity, or ErrNotFound.
func (s *Store) Get(ctx context.Context, deviceID string, kind model.Kind, entityID string) (*StoredEntity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT device_id, kind, entity_id, snapshot, event_id, updated_at
		FROM mirror_entities
		WHERE device_id = ? AND kind = ? AND entity_id = ?`,
		deviceID, string(kind), entityID,
	)
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying mirror entity: %w", err)
	}
	return e, nil
}

// List returns a device's mirrored entities, optionally limited to one kind.
func (s *Store) List(ctx context.Context, deviceID string, kind model.Kind) ([]StoredEntity, error) {
	query := `
		SELECT device_id, kind, entity_id, snapshot, event_id, updated_at
		FROM mirror_entities
		WHERE device_id = ?`
	args := []any{deviceID}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY kind, entity_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying mirror entities: %w", err)
	}
	defer rows.Close()

	var out []StoredEntity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning mirror entity: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mirror entities: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*StoredEntity, error) {
	var (
		e         StoredEntity
		kind      string
		snapshot  string
		updatedAt string
	)
	if err := row.Scan(&e.DeviceID, &kind, &e.EntityID, &snapshot, &e.EventID, &updatedAt); err != nil {
		return nil, err
	}
	e.Kind = model.Kind(kind)
	e.Snapshot = json.RawMessage(snapshot)
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt) //nolint:errcheck // format is ours
	return &e, nil
}
