package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hubooks/reading-service/internal/http/response"
	"github.com/hubooks/reading-service/internal/security"
	"github.com/hubooks/reading-service/internal/service"
)

type contextKey string

const (
	IdentityContextKey contextKey = "identity"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	ReaderID uint
}

// IdentityGate resolves the session cookie of a request into an Identity.
type IdentityGate struct {
	resolver service.SessionResolver
}

func NewIdentityGate(resolver service.SessionResolver) *IdentityGate {
	return &IdentityGate{resolver: resolver}
}

// CurrentIdentity reports the caller behind r. A missing, malformed, unknown,
// expired or revoked cookie all yield ok=false with a nil error; err is only
// set when session storage could not be consulted.
func (g *IdentityGate) CurrentIdentity(r *http.Request) (Identity, bool, error) {
	token := security.GetCookie(r, security.SessionCookieName)
	if token == "" {
		return Identity{}, false, nil
	}
	readerID, ok, err := g.resolver.Resolve(r.Context(), token)
	if err != nil || !ok {
		return Identity{}, false, err
	}
	return Identity{ReaderID: readerID}, true, nil
}

// Authenticate attaches the caller's Identity to the request context when
// there is one. Anonymous requests pass through unchanged.
func (g *IdentityGate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok, err := g.CurrentIdentity(r)
		if err != nil {
			slog.ErrorContext(r.Context(), "session resolution failed", "error", err.Error())
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
			return
		}
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireIdentity rejects anonymous requests. It must run after Authenticate.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(Identity)
	return identity, ok
}
