package middleware

import (
	"net/http"
	"time"

	"infinite-experiment/poolroster/internal/auth"
	"infinite-experiment/poolroster/internal/common"
	"infinite-experiment/poolroster/internal/constants"
)

const maxConsoleIDLength = 64

// ConsoleMiddleware resolves the caller's console from the X-Console-Id
// header, or the console query parameter for EventSource clients that
// cannot set headers, and activates it on first use.
func ConsoleMiddleware(registry *common.ConsoleRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			consoleID := r.Header.Get(constants.HeaderConsoleID)
			if consoleID == "" {
				consoleID = r.URL.Query().Get("console")
			}
			if consoleID == "" || len(consoleID) > maxConsoleIDLength {
				common.RespondError(w, time.Now(), nil, constants.ErrCodeConsoleNotRegistered, http.StatusBadRequest)
				return
			}

			console := registry.GetOrCreate(consoleID)
			next.ServeHTTP(w, r.WithContext(auth.SetConsole(r.Context(), console)))
		})
	}
}
