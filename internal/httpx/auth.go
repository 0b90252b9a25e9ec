package httpx

import (
	"context"
	"net/http"

	"github.com/empowher/marketplace/internal/market"
)

// Identity is resolved upstream (gateway/auth service) and forwarded via
// trusted headers. Session handling does not live in this service.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

type actorKey struct{}

// RequireIdentity rejects requests without a caller id and stashes the
// actor in the request context.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(HeaderUserID)
		if userID == "" {
			fail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		role := market.Role(r.Header.Get(HeaderUserRole))
		switch role {
		case market.RoleBuyer, market.RoleSeller, market.RoleAdmin:
		default:
			role = market.RoleBuyer
		}
		actor := market.Actor{UserID: userID, Role: role}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

func actorFrom(r *http.Request) market.Actor {
	a, _ := r.Context().Value(actorKey{}).(market.Actor)
	return a
}
