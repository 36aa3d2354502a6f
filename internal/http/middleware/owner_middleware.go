package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hubooks/reading-service/internal/http/response"
	"github.com/hubooks/reading-service/internal/observability"
)

// RequireOwner lets a request through only when the caller is the reader
// named by the URL parameter param. It never looks the target up, so a
// mismatch says nothing about whether that reader exists.
func RequireOwner(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
				return
			}
			targetID, err := strconv.ParseUint(chi.URLParam(r, param), 10, 64)
			if err != nil {
				response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid reader id", nil)
				return
			}
			if uint(targetID) != identity.ReaderID {
				observability.Audit(r, "authz.owner", "outcome", "denied", "reason", "not_owner")
				response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "not allowed to modify another reader", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
