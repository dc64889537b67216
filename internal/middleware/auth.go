package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vancomm/minefield/internal/config"
)

type CtxKey int

const (
	CtxFieldClaims CtxKey = iota
)

// bearerToken reads the token from the Authorization header, falling back to
// the "token" query parameter that browsers must use for websockets.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// Auth attaches valid field claims to the request context. Requests without
// a valid token pass through unauthenticated.
func Auth(log *slog.Logger, j *config.JWT) Middleware {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				h.ServeHTTP(w, r)
				return
			}
			claims, err := j.ParseFieldClaims(token)
			if err != nil {
				log.Debug("rejected token", slog.Any("error", err))
				h.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), CtxFieldClaims, claims)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func FieldClaims(ctx context.Context) (*config.FieldClaims, bool) {
	claims, ok := ctx.Value(CtxFieldClaims).(*config.FieldClaims)
	return claims, ok
}
