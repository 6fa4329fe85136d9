package room

import (
	"context"
	"log/slog"

	"cargo-console/internal/realtime"
	"cargo-console/internal/shared/errors"
)

type Publisher interface {
	Publish(ctx context.Context, event realtime.Event) error
}

// Service runs the administrator's room lifecycle actions. Room records
// live in another service; here an action is only its broadcast.
type Service struct {
	publisher Publisher
	logger    *slog.Logger
}

func NewService(publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		publisher: publisher,
		logger:    logger,
	}
}

// KickParticipant tells every client in the room that userID was removed.
// Only that participant's console leaves the room.
func (s *Service) KickParticipant(ctx context.Context, roomID, userID int) error {
	logger := s.logger.With("component", "room_service", "operation", "kick_participant", "room_id", roomID, "user_id", userID)

	if roomID <= 0 || userID <= 0 {
		return errors.Validationf("invalid room %d or user %d", roomID, userID)
	}

	if err := s.publisher.Publish(ctx, realtime.UserKicked(roomID, userID)); err != nil {
		return errors.WrapExternal("failed to broadcast user_kicked", err)
	}

	logger.Info("Participant kicked")
	return nil
}

// EndSimulation closes the room for every connected participant.
func (s *Service) EndSimulation(ctx context.Context, roomID int) error {
	logger := s.logger.With("component", "room_service", "operation", "end_simulation", "room_id", roomID)

	if roomID <= 0 {
		return errors.Validationf("invalid room %d", roomID)
	}

	if err := s.publisher.Publish(ctx, realtime.EndSimulation(roomID)); err != nil {
		return errors.WrapExternal("failed to broadcast end_simulation", err)
	}

	logger.Info("Simulation ended")
	return nil
}
