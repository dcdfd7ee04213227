package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumenpress/discovery/internal/domain"
)

func TestActorMiddleware_ExtractsHeaders(t *testing.T) {
	var got domain.ActorContext
	handler := ActorMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = domain.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil)
	req.Header.Set("X-Actor-Id", "actor-42")
	req.Header.Set("X-Actor-Org", "org-7")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got.ID != "actor-42" || got.OrgID != "org-7" {
		t.Errorf("actor = %+v, want actor-42/org-7", got)
	}
}

func TestActorMiddleware_AnonymousPassesThrough(t *testing.T) {
	var got domain.ActorContext
	handler := ActorMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = domain.ActorFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/search", nil))

	if !got.IsAnonymous() {
		t.Errorf("actor = %+v, want anonymous", got)
	}
}

func TestActorMiddleware_TrimsWhitespace(t *testing.T) {
	var got domain.ActorContext
	handler := ActorMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = domain.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Actor-Id", "  actor-1  ")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got.ID != "actor-1" {
		t.Errorf("ID = %q, want trimmed actor-1", got.ID)
	}
}
