package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/emberhollow/phoenixmem/internal/engine"
	"github.com/emberhollow/phoenixmem/internal/store"
)

// statusFor maps store errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrDecryption):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleAssembleContext(w http.ResponseWriter, r *http.Request) {
	var req engine.BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Owner == "" {
		writeError(w, http.StatusBadRequest, "owner required")
		return
	}

	res := s.engine.BuildContext(r.Context(), req)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePutMemory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Layer string `json:"layer"`
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := s.engine.Layers.Put(store.Layer(req.Layer), req.Key, req.Value); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "stored"})
}

func (s *Server) handleScanMemories(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if key := r.URL.Query().Get("key"); key != "" {
		rec, err := s.engine.Layers.Get(key)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		if rec == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, rec)
		return
	}

	records, err := s.engine.Layers.ScanPrefix(prefix, limit)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})
}

func (s *Server) handleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key required")
		return
	}

	existed, err := s.engine.Layers.Delete(key)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": existed})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	s.engine.EndSession()
	writeJSON(w, http.StatusOK, map[string]string{"status": "session ended"})
}

func (s *Server) handleVaultStore(w http.ResponseWriter, r *http.Request) {
	ns := store.Namespace(chi.URLParam(r, "namespace"))

	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := s.engine.Vault.Store(ns, req.Key, req.Value); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "stored"})
}

func (s *Server) handleVaultRecall(w http.ResponseWriter, r *http.Request) {
	ns := store.Namespace(chi.URLParam(r, "namespace"))
	key := r.URL.Query().Get("key")

	value, found, err := s.engine.Vault.Recall(ns, key)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
}

func (s *Server) handleVaultForget(w http.ResponseWriter, r *http.Request) {
	ns := store.Namespace(chi.URLParam(r, "namespace"))
	key := r.URL.Query().Get("key")

	forgotten, err := s.engine.Vault.Forget(ns, key)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"forgotten": forgotten})
}

func (s *Server) handleVaultScan(w http.ResponseWriter, r *http.Request) {
	ns := store.Namespace(chi.URLParam(r, "namespace"))
	prefix := r.URL.Query().Get("prefix")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.engine.Vault.ScanPrefix(ns, prefix, limit)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

func (s *Server) handleIndexInsert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text     string `json:"text"`
		Metadata string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text required")
		return
	}

	mem, err := s.engine.Memorize(r.Context(), req.Text, req.Metadata)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, mem)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q required")
		return
	}
	topK, _ := strconv.Atoi(r.URL.Query().Get("k"))

	hits, err := s.engine.Index.Search(r.Context(), query, topK)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hits": hits, "count": len(hits)})
}
