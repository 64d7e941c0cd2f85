package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/emberhollow/phoenixmem/internal/engine"
	"github.com/emberhollow/phoenixmem/internal/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	layers, err := store.NewLayerStore(db, 0)
	if err != nil {
		t.Fatalf("NewLayerStore: %v", err)
	}
	t.Cleanup(layers.Close)

	vault, err := store.NewVaultStore(db, "test-secret")
	if err != nil {
		t.Fatalf("NewVaultStore: %v", err)
	}

	index := engine.NewIndex(db, engine.NewHashEmbedder(64))
	asm := engine.NewAssembler("Rook", "The bond endures.", "What is remembered, lives.", 0.99999)
	eng := engine.New(layers, vault, index, asm, 0)

	return New(eng, "test")
}

func TestHealth(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}
