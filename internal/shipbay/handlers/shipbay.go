package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"cargo-console/internal/middleware"
	"cargo-console/internal/shipbay"
	"cargo-console/internal/shared/errors"
	"cargo-console/internal/shared/response"
)

type ShipBayHandler struct {
	service *shipbay.Service
}

func NewShipBayHandler(service *shipbay.Service) *ShipBayHandler {
	return &ShipBayHandler{service: service}
}

// GetShipBays serves GET /api/ship-bays/{room}/{user}.
func (h *ShipBayHandler) GetShipBays(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_ship_bays")

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

	record, err := h.service.Load(r.Context(), roomID, userID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, record)
}

// SaveShipBays serves POST /api/ship-bays.
func (h *ShipBayHandler) SaveShipBays(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "save_ship_bays")

	var req shipbay.SaveRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid JSON in request body", err))
		return
	}

	claims := middleware.GetUserFromContext(r)
	if !claims.CanActFor(req.UserID) {
		response.Error(w, r, logger, errors.Forbidden("cannot save another participant's ship bays"))
		return
	}

	record, err := h.service.Save(r.Context(), req)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, record)
}
