// Package itemstest provides an in-memory items API for tests.
package itemstest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/samvad-hq/marketplace-items/pkg/items"
)

// Request records what the server received.
type Request struct {
	Method      string
	Path        string
	ContentType string
	Accept      string
}

// Server is an httptest.Server serving /api/items backed by a map.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	items       map[string]items.Item
	order       []string
	requests    []Request
	failStatus  int
	failBody    string
	insertAck   bool
	legacyKeys  bool
	noContentOK bool
	updateReply UpdateReply
}

// UpdateReply selects how update answers.
type UpdateReply int

const (
	// UpdateEcho answers with the stored item including its id.
	UpdateEcho UpdateReply = iota
	// UpdateWithoutID answers with the stored item minus its id.
	UpdateWithoutID
	// UpdateNoContent answers 204 with no body.
	UpdateNoContent
)

// Option configures a Server.
type Option func(*Server)

// WithInsertAck makes create answer {"InsertedID": id} instead of the item.
func WithInsertAck() Option {
	return func(s *Server) { s.insertAck = true }
}

// WithLegacyKeys makes responses use "_id" and "Collection-Location".
func WithLegacyKeys() Option {
	return func(s *Server) { s.legacyKeys = true }
}

// WithNoContentDelete makes delete answer 204 with no body. The default
// answers 200 with a JSON message.
func WithNoContentDelete() Option {
	return func(s *Server) { s.noContentOK = true }
}

// WithBareUpdate makes update answer as reply selects instead of echoing the
// stored item.
func WithBareUpdate(reply UpdateReply) Option {
	return func(s *Server) { s.updateReply = reply }
}

// NewServer starts a server. Callers must Close it.
func NewServer(opts ...Option) *Server {
	s := &Server{items: make(map[string]items.Item)}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/api/items", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Get("/{id}", s.get)
		r.Put("/{id}", s.update)
		r.Delete("/{id}", s.delete)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// BaseURL is the API root to hand to items.NewClient.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// Seed stores items directly and returns them with assigned ids.
func (s *Server) Seed(list ...items.Item) []items.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]items.Item, 0, len(list))
	for _, it := range list {
		out = append(out, s.insertLocked(it))
	}
	return out
}

// Items returns a snapshot of the stored items in insertion order.
func (s *Server) Items() []items.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]items.Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// FailWith makes every following request answer status with body.
// A zero status restores normal behaviour.
func (s *Server) FailWith(status int, body string) {
	s.mu.Lock()
	s.failStatus = status
	s.failBody = body
	s.mu.Unlock()
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:      r.Method,
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			Accept:      r.Header.Get("Accept"),
		})
		status, body := s.failStatus, s.failBody
		s.mu.Unlock()

		if status != 0 {
			http.Error(w, body, status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) list(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	var out []any
	for _, id := range s.order {
		out = append(out, s.encode(s.items[id]))
	}
	s.mu.Unlock()

	// An empty collection is encoded as null, like the Mongo-backed API.
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	it, ok := s.items[id]
	s.mu.Unlock()

	if !ok {
		http.Error(w, "mongo: no documents in result", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.encode(it))
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var it items.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	stored := s.insertLocked(it)
	s.mu.Unlock()

	if s.insertAck {
		writeJSON(w, http.StatusOK, map[string]string{"InsertedID": stored.ID})
		return
	}
	writeJSON(w, http.StatusOK, s.encode(stored))
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var it items.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	_, ok := s.items[id]
	if ok {
		it.ID = id
		s.items[id] = it
	}
	s.mu.Unlock()

	if !ok {
		http.Error(w, "mongo: no documents in result", http.StatusNotFound)
		return
	}
	switch s.updateReply {
	case UpdateNoContent:
		w.WriteHeader(http.StatusNoContent)
	case UpdateWithoutID:
		bare := it
		bare.ID = ""
		writeJSON(w, http.StatusOK, s.encode(bare))
	default:
		writeJSON(w, http.StatusOK, s.encode(it))
	}
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	_, ok := s.items[id]
	if ok {
		delete(s.items, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		http.Error(w, "mongo: no documents in result", http.StatusNotFound)
		return
	}
	if s.noContentOK {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item deleted successfully"})
}

func (s *Server) insertLocked(it items.Item) items.Item {
	it.ID = uuid.NewString()
	s.items[it.ID] = it
	s.order = append(s.order, it.ID)
	return it
}

// encode renders it with either the client's canonical keys or the legacy
// spellings.
func (s *Server) encode(it items.Item) any {
	if !s.legacyKeys {
		return it
	}
	out := make(map[string]any, len(it.Extra)+7)
	for k, v := range it.Extra {
		out[k] = v
	}
	out["_id"] = it.ID
	out["FirstName"] = it.FirstName
	out["LastName"] = it.LastName
	out["Product"] = it.Product
	out["Quantity"] = it.Quantity
	out["Condition"] = it.Condition
	out["Collection-Location"] = it.CollectionLocation
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
