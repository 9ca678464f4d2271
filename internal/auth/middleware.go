package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/facturante/facturante/internal/platform/httpx"
	"github.com/facturante/facturante/internal/shared"
)

// Middleware guards routes with a bearer API-key check.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Require rejects requests without a valid Authorization bearer token.
func (m Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		if err := m.Service.Verify(r.Context(), token); err != nil {
			if m.Logger != nil {
				m.Logger.Warn("api key rejected", slog.String("path", r.URL.Path))
			}
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
