package shipbay

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cargo-console/internal/shared/database"
)

// Store persists one arena record per (room, user). Writes replace the
// whole record.
type Store interface {
	Get(ctx context.Context, roomID, userID int) (*Record, error)
	Upsert(ctx context.Context, roomID, userID int, arena string) (*Record, error)
	Ping(ctx context.Context) error
}

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing ship bay repository")

	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) Get(ctx context.Context, roomID, userID int) (*Record, error) {
	logger := r.logger.With(
		"component", "shipbay_repository",
		"operation", "get",
		"room_id", roomID,
		"user_id", userID,
	)
	logger.Debug("Getting ship bay record")

	query := `
		SELECT room_id, user_id, arena::text, updated_at
		FROM ship_bays
		WHERE room_id = $1 AND user_id = $2
	`

	var record Record
	err := r.db.QueryRowContext(ctx, query, roomID, userID).Scan(
		&record.RoomID,
		&record.UserID,
		&record.Arena,
		&record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ship bay record: %w", err)
	}

	return &record, nil
}

func (r *Repository) Upsert(ctx context.Context, roomID, userID int, arena string) (*Record, error) {
	logger := r.logger.With(
		"component", "shipbay_repository",
		"operation", "upsert",
		"room_id", roomID,
		"user_id", userID,
	)

	query := `
		INSERT INTO ship_bays (room_id, user_id, arena, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (room_id, user_id)
		DO UPDATE SET arena = EXCLUDED.arena, updated_at = EXCLUDED.updated_at
		RETURNING room_id, user_id, arena::text, updated_at
	`

	var record Record
	err := r.db.QueryRowContext(ctx, query, roomID, userID, arena).Scan(
		&record.RoomID,
		&record.UserID,
		&record.Arena,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert ship bay record: %w", err)
	}

	logger.Debug("Ship bay record saved")
	return &record, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type recordKey struct {
	roomID int
	userID int
}

// MemoryStore keeps records in process. It backs the server when the
// database is disabled and the package tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[recordKey]Record),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, roomID, userID int) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[recordKey{roomID, userID}]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, roomID, userID int, arena string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := Record{
		RoomID:    roomID,
		UserID:    userID,
		Arena:     arena,
		UpdatedAt: s.now().UTC(),
	}
	s.records[recordKey{roomID, userID}] = record
	return &record, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }
