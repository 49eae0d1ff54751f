package workflows

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"social-explore-client/internal/apiclient"
	"social-explore-client/internal/services"

	"github.com/go-chi/chi/v5"
)

type staticProvider struct{ client *apiclient.Client }

func (p staticProvider) Client() *apiclient.Client { return p.client }

func newProvider(t *testing.T, r chi.Router) services.ClientProvider {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return staticProvider{client: apiclient.New(srv.URL, "token", nil, 2*time.Second)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// hits counts requests by route
type hits struct {
	mu sync.Mutex
	n  map[string]int
}

func (h *hits) add(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.n == nil {
		h.n = map[string]int{}
	}
	h.n[key]++
}

func (h *hits) get(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.n[key]
}
