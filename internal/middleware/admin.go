package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"infinite-experiment/poolroster/internal/auth"
	"infinite-experiment/poolroster/internal/common"
	"infinite-experiment/poolroster/internal/constants"
	"infinite-experiment/poolroster/internal/logging"
	"infinite-experiment/poolroster/internal/services"
)

// RequireAdmin rejects requests without a valid, unused admin token.
func RequireAdmin(adminAuth *services.AdminAuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			initTime := time.Now()

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				common.RespondError(w, initTime, nil, constants.ErrCodeInvalidToken, http.StatusUnauthorized)
				return
			}

			token, err := adminAuth.Validate(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
			switch {
			case errors.Is(err, services.ErrAdminDisabled):
				common.RespondError(w, initTime, err, constants.ErrCodeAdminDisabled, http.StatusForbidden)
				return
			case errors.Is(err, services.ErrInvalidToken):
				logging.Warn("Admin token rejected", "error", err)
				common.RespondError(w, initTime, err, constants.ErrCodeInvalidToken, http.StatusUnauthorized)
				return
			case err != nil:
				common.RespondError(w, initTime, err, constants.ErrCodeInternal, http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetAdminToken(r.Context(), token)))
		})
	}
}
