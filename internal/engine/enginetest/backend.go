// Package enginetest provides an in-process stand-in for the remote profile,
// recommendation and lock services.
package enginetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"studyabroad-workers/internal/backend"
	httpclient "studyabroad-workers/internal/common/http"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/discovery"
	"studyabroad-workers/internal/engine"
	"studyabroad-workers/internal/models"
	"studyabroad-workers/internal/store"
)

// Backend serves /profile/, /profile/update, /universities/recommend and
// /universities/lock/{id} from memory.
type Backend struct {
	mu           sync.Mutex
	profile      models.UserProfile
	universities []models.University
	locked       []string
	authHeaders  []string
	rejectAll    bool

	server *httptest.Server
	Store  *store.MemoryStore
}

func NewBackend(t testing.TB, profile models.UserProfile, universities []models.University) *Backend {
	t.Helper()
	b := &Backend{
		profile:      profile,
		universities: universities,
		Store:        store.NewMemoryStore(logger.NewTestLogger(t)),
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.server.Close)
	return b
}

// Engine returns an engine over the fake services and an in-memory store.
// catalog may be nil to use the recommendation endpoint.
func (b *Backend) Engine(t testing.TB, catalog discovery.Source) *engine.Engine {
	t.Helper()
	log := logger.NewTestLogger(t)
	client := httpclient.NewClient(httpclient.Options{BaseURL: b.server.URL, Logger: log})
	return engine.New(engine.Options{
		Store:   b.Store,
		Backend: backend.New(client),
		Catalog: catalog,
		Logger:  log,
	})
}

// RejectAuth makes every request answer 401.
func (b *Backend) RejectAuth() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectAll = true
}

func (b *Backend) Profile() models.UserProfile {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profile
}

func (b *Backend) LockCalls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.locked...)
}

func (b *Backend) AuthHeaders() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.authHeaders...)
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.authHeaders = append(b.authHeaders, r.Header.Get("Authorization"))

	if b.rejectAll {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/profile/":
		writeJSON(w, http.StatusOK, b.profile)
	case r.Method == http.MethodPost && r.URL.Path == "/profile/update":
		var patch models.ProfileUpdate
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		b.profile = *patch.ApplyTo(&b.profile)
		writeJSON(w, http.StatusOK, b.profile)
	case r.Method == http.MethodGet && r.URL.Path == "/universities/recommend":
		writeJSON(w, http.StatusOK, b.universities)
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/universities/lock/"):
		id := strings.TrimPrefix(r.URL.Path, "/universities/lock/")
		if !b.knows(id) {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "University not found"})
			return
		}
		b.locked = append(b.locked, id)
		b.profile.CurrentStage = models.StageApplications
		writeJSON(w, http.StatusOK, models.LockResult{
			Message:      "University locked successfully",
			TasksCreated: 6,
			Stage:        models.StageApplications,
		})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
	}
}

func (b *Backend) knows(id string) bool {
	for _, u := range b.universities {
		if u.ID.String() == id {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
