package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/emberhollow/phoenixmem/internal/engine"
)

// Server is the phoenixmem HTTP API: a thin front door over the engine.
// All memory semantics live in the engine and stores; handlers only decode,
// delegate and encode.
type Server struct {
	engine  *engine.Engine
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server over the given engine.
func New(eng *engine.Engine, version string) *Server {
	s := &Server{
		engine:  eng,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/context", s.handleAssembleContext)

		r.Post("/memories", s.handlePutMemory)
		r.Get("/memories", s.handleScanMemories)
		r.Delete("/memories", s.handleDeleteMemory)
		r.Post("/session/end", s.handleEndSession)

		r.Post("/vault/{namespace}", s.handleVaultStore)
		r.Get("/vault/{namespace}", s.handleVaultRecall)
		r.Delete("/vault/{namespace}", s.handleVaultForget)
		r.Get("/vault/{namespace}/scan", s.handleVaultScan)

		r.Post("/index", s.handleIndexInsert)
		r.Get("/search", s.handleSearch)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	counts, err := s.engine.Layers.CountByLayer()
	storeOK := err == nil

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"store":   storeOK,
		"layers":  counts,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
