package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"cargo-console/internal/shared/errors"
	"cargo-console/internal/shared/response"
)

// RequireParticipant authenticates the request and, when the route carries a
// {user} path value, only lets that user (or an admin) through.
func RequireParticipant(next http.Handler) http.Handler {
	return JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "participant_access",
			"method", r.Method,
			"path", r.URL.Path,
		)

		claims := GetUserFromContext(r)
		if claims == nil {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		userIDStr := r.PathValue("user")
		if userIDStr == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := strconv.Atoi(userIDStr)
		if err != nil {
			response.Error(w, r, logger, errors.WrapValidation("invalid user ID format", err))
			return
		}

		if !claims.CanActFor(userID) {
			response.Error(w, r, logger, errors.Forbidden("cannot access another participant's ship bays"))
			return
		}

		next.ServeHTTP(w, r)
	}))
}
