package chi

import (
	"net/http"
	"strings"

	"github.com/lumenpress/discovery/internal/domain"
)

// Identity headers. The platform gateway authenticates callers and forwards
// the actor identity; this service only scopes visibility and
// personalization by it.
const (
	headerActorID  = "X-Actor-Id"
	headerActorOrg = "X-Actor-Org"
)

// ActorMiddleware extracts the caller identity from gateway headers into
// the request context. Absent headers mean an anonymous actor; that is a
// valid caller, not an error.
func ActorMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := domain.ActorContext{
				ID:    strings.TrimSpace(r.Header.Get(headerActorID)),
				OrgID: strings.TrimSpace(r.Header.Get(headerActorOrg)),
			}
			if actor.IsAnonymous() {
				next.ServeHTTP(w, r)
				return
			}
			ctx := domain.ContextWithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
