package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"fareglitch/pkg/errcodes"
	"fareglitch/pkg/httpx/reply"
)

const bearerPrefix = "Bearer "

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}

	return strings.TrimSpace(header[len(bearerPrefix):])
}

// adminOnly rejects requests whose bearer token is not the admin token. An
// empty admin token disables the admin zone.
func adminOnly(adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)

			if adminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) != 1 {
				reply.CodeError(r.Context(), w, http.StatusUnauthorized, errcodes.AccessTokenInvalid, "admin token required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
