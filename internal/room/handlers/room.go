package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"cargo-console/internal/room"
	"cargo-console/internal/shared/errors"
	"cargo-console/internal/shared/response"
)

type RoomHandler struct {
	service *room.Service
}

func NewRoomHandler(service *room.Service) *RoomHandler {
	return &RoomHandler{service: service}
}

type lifecycleResponse struct {
	Status string `json:"status"`
	RoomID int    `json:"room_id"`
	UserID int    `json:"user_id,omitempty"`
}

// KickParticipant serves POST /api/rooms/{room}/participants/{user}/kick.
func (h *RoomHandler) KickParticipant(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "kick_participant")

	roomID, err := strconv.Atoi(r.PathValue("room"))
	if err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid room ID format", err))
		return
	}
	userID, err := strconv.Atoi(r.PathValue("user"))
	if err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid user ID format", err))
		return
	}

	if err := h.service.KickParticipant(r.Context(), roomID, userID); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusAccepted, lifecycleResponse{Status: "kicked", RoomID: roomID, UserID: userID})
}

// EndSimulation serves POST /api/rooms/{room}/end.
func (h *RoomHandler) EndSimulation(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "end_simulation")

	roomID, err := strconv.Atoi(r.PathValue("room"))
	if err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid room ID format", err))
		return
	}

	if err := h.service.EndSimulation(r.Context(), roomID); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusAccepted, lifecycleResponse{Status: "ended", RoomID: roomID})
}
