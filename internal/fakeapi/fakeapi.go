// Package fakeapi emulates the subset of JSONPlaceholder the catalog uses.
// Reads come from embedded fixtures; writes are faked the same way the
// public service fakes them and never change the fixtures.
package fakeapi

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/alexliesenfeld/health"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/moamenhredeen/jptest/internal/logging"
	"github.com/samber/lo"
)

// CreatedPostID is the id JSONPlaceholder assigns to every created post
const CreatedPostID = 101

//go:embed fixtures/*.json
var fixtures embed.FS

type record = map[string]interface{}

// Store holds the fixture data served by the fake API
type Store struct {
	posts []record
	users []record
}

// LoadStore decodes the embedded fixtures
func LoadStore() (*Store, error) {
	posts, err := loadFixture("fixtures/posts.json")
	if err != nil {
		return nil, err
	}
	users, err := loadFixture("fixtures/users.json")
	if err != nil {
		return nil, err
	}
	return &Store{posts: posts, users: users}, nil
}

func loadFixture(name string) ([]record, error) {
	data, err := fixtures.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", name, err)
	}
	var out []record
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode fixture %s: %w", name, err)
	}
	return out, nil
}

// Post returns the fixture post with the given id
func (s *Store) Post(id int) (record, bool) {
	return findByID(s.posts, id)
}

// User returns the fixture user with the given id
func (s *Store) User(id int) (record, bool) {
	return findByID(s.users, id)
}

func findByID(records []record, id int) (record, bool) {
	return lo.Find(records, func(r record) bool {
		n, ok := r["id"].(float64)
		return ok && int(n) == id
	})
}

// NewHandler builds the router for the fake API
func NewHandler(store *Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", store.listPosts)
		r.Post("/", store.createPost)
		r.Get("/{id}", store.getPost)
		r.Put("/{id}", store.updatePost)
		r.Patch("/{id}", store.updatePost)
		r.Delete("/{id}", deleteResource)
	})
	r.Get("/users/{id}", store.getUser)
	r.Method(http.MethodGet, "/healthz", health.NewHandler(newChecker(store)))

	return r
}

// New loads the fixtures and returns a ready handler
func New() (http.Handler, error) {
	store, err := LoadStore()
	if err != nil {
		return nil, err
	}
	return NewHandler(store), nil
}

func newChecker(store *Store) health.Checker {
	return health.NewChecker(
		health.WithCacheDuration(time.Second),
		health.WithCheck(health.Check{
			Name: "fixtures",
			Check: func(_ context.Context) error {
				if len(store.posts) == 0 || len(store.users) == 0 {
					return fmt.Errorf("fixtures are empty")
				}
				return nil
			},
		}),
	)
}

func (s *Store) listPosts(w http.ResponseWriter, r *http.Request) {
	posts := s.posts
	if raw := r.URL.Query().Get("userId"); raw != "" {
		userID, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusOK, []record{})
			return
		}
		posts = lo.Filter(posts, func(p record, _ int) bool {
			n, ok := p["userId"].(float64)
			return ok && int(n) == userID
		})
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Store) getPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, record{})
		return
	}
	post, found := s.Post(id)
	if !found {
		writeJSON(w, http.StatusNotFound, record{})
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Store) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, record{})
		return
	}
	user, found := s.User(id)
	if !found {
		writeJSON(w, http.StatusNotFound, record{})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Store) createPost(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, record{"error": err.Error()})
		return
	}
	payload["id"] = CreatedPostID
	writeJSON(w, http.StatusCreated, payload)
}

// JSONPlaceholder answers 500 when asked to update a post it does not have.
func (s *Store) updatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, record{})
		return
	}
	existing, found := s.Post(id)
	if !found {
		writeJSON(w, http.StatusInternalServerError, record{})
		return
	}
	payload, err := decodePayload(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, record{"error": err.Error()})
		return
	}

	out := record{}
	if r.Method == http.MethodPatch {
		for k, v := range existing {
			out[k] = v
		}
	}
	for k, v := range payload {
		out[k] = v
	}
	out["id"] = id
	writeJSON(w, http.StatusOK, out)
}

func deleteResource(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, record{})
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil
}

func decodePayload(r *http.Request) (record, error) {
	payload := record{}
	if r.Body == nil {
		return payload, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return payload, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.GetLogger().Warn("failed to write response", "error", err)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.GetLogger().Debug("fake api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}
