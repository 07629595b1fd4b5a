package clinictest

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const ctxKeyPrincipal ctxKey = "principal"

func principalFromContext(ctx context.Context) *principal {
	p, _ := ctx.Value(ctxKeyPrincipal).(*principal)
	return p
}

// recordMiddleware remembers the Authorization header of every request.
func (s *Server) recordMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.authHeaders = append(s.authHeaders, r.Header.Get("Authorization"))
		s.requestIDs = append(s.requestIDs, r.Header.Get("X-Request-ID"))
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// bearerMiddleware rejects requests without a live bearer token.
func (s *Server) bearerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			respondText(w, http.StatusUnauthorized, "Missing token")
			return
		}
		p := s.lookup(token)
		if p == nil {
			respondText(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyPrincipal, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole answers 403 when the caller's role differs.
func requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := principalFromContext(r.Context())
			if p == nil || p.role != role {
				respondText(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
