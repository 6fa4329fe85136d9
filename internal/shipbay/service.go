package shipbay

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"cargo-console/internal/bay"
	"cargo-console/internal/realtime"
	"cargo-console/internal/shared/errors"
)

// Publisher is the slice of the realtime broker the service needs.
type Publisher interface {
	Publish(ctx context.Context, event realtime.Event) error
}

type Service struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
}

func NewService(store Store, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Load returns the stored arrangement. A participant who never saved gets
// an empty arena.
func (s *Service) Load(ctx context.Context, roomID, userID int) (*Record, error) {
	logger := s.logger.With("component", "shipbay_service", "operation", "load", "room_id", roomID, "user_id", userID)

	if err := validateIDs(roomID, userID); err != nil {
		return nil, err
	}

	record, err := s.store.Get(ctx, roomID, userID)
	if stderrors.Is(err, ErrNotFound) {
		logger.Debug("No arena stored yet, returning empty arena")
		return &Record{RoomID: roomID, UserID: userID, Arena: "[]", UpdatedAt: time.Time{}}, nil
	}
	if err != nil {
		return nil, errors.WrapExternal("failed to load ship bays", err)
	}
	return record, nil
}

// Save replaces the stored arrangement and tells the room about it. The
// record stays saved even if the notification cannot be published.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*Record, error) {
	logger := s.logger.With("component", "shipbay_service", "operation", "save", "room_id", req.RoomID, "user_id", req.UserID)

	if err := validateIDs(req.RoomID, req.UserID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Arena) == "" {
		return nil, errors.Validation("arena is required")
	}
	arena, err := bay.DecodeArena(req.Arena)
	if err != nil {
		return nil, errors.WrapValidation("invalid arena", err)
	}
	if err := arena.Validate(); err != nil {
		return nil, errors.WrapValidation("invalid arena", err)
	}

	// Store the canonical encoding so every reader sees the same text.
	encoded, err := arena.Encode()
	if err != nil {
		return nil, errors.WrapInternal("failed to encode arena", err)
	}

	record, err := s.store.Upsert(ctx, req.RoomID, req.UserID, encoded)
	if err != nil {
		return nil, errors.WrapExternal("failed to save ship bays", err)
	}

	if err := s.publisher.Publish(ctx, realtime.SwapBays(req.RoomID, req.UserID)); err != nil {
		logger.Warn("Arena saved but swap_bays was not published", "error", err)
	}

	logger.Debug("Arena saved", "placements", len(arena.Placements()))
	return record, nil
}

// Ping reports whether the record store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func validateIDs(roomID, userID int) error {
	if roomID <= 0 {
		return errors.Validationf("invalid room ID %d", roomID)
	}
	if userID <= 0 {
		return errors.Validationf("invalid user ID %d", userID)
	}
	return nil
}
