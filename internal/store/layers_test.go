package store

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func testLayers(t *testing.T) *LayerStore {
	t.Helper()
	s, err := NewLayerStore(testDB(t), 0)
	if err != nil {
		t.Fatalf("NewLayerStore: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestPutGet(t *testing.T) {
	s := testLayers(t)

	if err := s.Put(Episodic, "episodic:u1:00000000000000001000", "we talked"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	rec, err := s.Get("episodic:u1:00000000000000001000")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec == nil {
		t.Fatal("expected record, got nil")
	}
	if rec.Layer != Episodic {
		t.Errorf("layer = %q, want episodic", rec.Layer)
	}
	if rec.Value != "we talked" {
		t.Errorf("value = %q, want %q", rec.Value, "we talked")
	}
	if rec.CreatedAt == 0 {
		t.Error("expected non-zero created_at")
	}
}

func TestGetAbsent(t *testing.T) {
	s := testLayers(t)

	rec, err := s.Get("nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil for absent key, got %+v", rec)
	}
}

func TestPutOverwrite(t *testing.T) {
	s := testLayers(t)

	s.Put(Working, "working:u1:draft", "v1")
	if err := s.Put(Working, "working:u1:draft", "v2"); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	rec, _ := s.Get("working:u1:draft")
	if rec.Value != "v2" {
		t.Errorf("value = %q, want v2 (last writer wins)", rec.Value)
	}
}

func TestPutInvalidInput(t *testing.T) {
	s := testLayers(t)

	tests := []struct {
		name  string
		layer Layer
		key   string
		value string
	}{
		{"unknown layer", Layer("ephemeral"), "k", "v"},
		{"empty key", Episodic, "", "v"},
		{"oversized key", Episodic, strings.Repeat("k", MaxKeyLen+1), "v"},
		{"oversized value", Episodic, "k", strings.Repeat("v", MaxValueLen+1)},
	}

	for _, tt := range tests {
		err := s.Put(tt.layer, tt.key, tt.value)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", tt.name, err)
		}
	}
}

func TestScanPrefixNewestFirst(t *testing.T) {
	s := testLayers(t)

	for _, ts := range []int64{1000, 5000, 3000} {
		key := fmt.Sprintf("episodic:u1:%020d", ts)
		if err := s.Put(Episodic, key, fmt.Sprintf("at %d", ts)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	// Different owner must not leak into the scan
	s.Put(Episodic, fmt.Sprintf("episodic:u2:%020d", 9000), "other owner")

	records, err := s.ScanPrefix("episodic:u1:", 10)
	if err != nil {
		t.Fatalf("ScanPrefix: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	wantOrder := []string{"at 5000", "at 3000", "at 1000"}
	for i, want := range wantOrder {
		if records[i].Value != want {
			t.Errorf("records[%d] = %q, want %q", i, records[i].Value, want)
		}
	}
}

func TestScanPrefixLimit(t *testing.T) {
	s := testLayers(t)

	for i := 0; i < 5; i++ {
		s.Put(Episodic, fmt.Sprintf("episodic:u1:%020d", i), "x")
	}

	records, err := s.ScanPrefix("episodic:u1:", 2)
	if err != nil {
		t.Fatalf("ScanPrefix: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
}

func TestScanPrefixEscapesWildcards(t *testing.T) {
	s := testLayers(t)

	s.Put(LongTerm, "notes_a:1", "underscore")
	s.Put(LongTerm, "notesXa:1", "wildcard bait")

	records, err := s.ScanPrefix("notes_a:", 10)
	if err != nil {
		t.Fatalf("ScanPrefix: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (LIKE _ must be literal)", len(records))
	}
	if records[0].Value != "underscore" {
		t.Errorf("value = %q, want underscore", records[0].Value)
	}
}

func TestFleetingExpires(t *testing.T) {
	db := testDB(t)
	s, err := NewLayerStore(db, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewLayerStore: %v", err)
	}
	defer s.Close()

	if err := s.Put(Fleeting, "fleeting:u1:hunch", "maybe"); err != nil {
		t.Fatalf("Put fleeting: %v", err)
	}

	rec, err := s.Get("fleeting:u1:hunch")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// Admission may drop the entry early — that is within the Fleeting
	// contract — but if present it must carry the stored value.
	if rec != nil && rec.Value != "maybe" {
		t.Errorf("value = %q, want maybe", rec.Value)
	}

	time.Sleep(100 * time.Millisecond)
	rec, err = s.Get("fleeting:u1:hunch")
	if err != nil {
		t.Fatalf("Get after TTL: %v", err)
	}
	if rec != nil {
		t.Errorf("expected fleeting record to be reaped, got %+v", rec)
	}
}

func TestFleetingNotDurable(t *testing.T) {
	s := testLayers(t)

	s.Put(Fleeting, "fleeting:u1:hunch", "maybe")

	records, err := s.ScanPrefix("fleeting:", 10)
	if err != nil {
		t.Fatalf("ScanPrefix: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("fleeting records must not appear in durable scans, got %d", len(records))
	}
}

func TestDelete(t *testing.T) {
	s := testLayers(t)

	s.Put(LongTerm, "longterm:u1:fact", "the sky is blue")

	ok, err := s.Delete("longterm:u1:fact")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !ok {
		t.Error("Delete existing = false, want true")
	}

	ok, err = s.Delete("longterm:u1:fact")
	if err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
	if ok {
		t.Error("Delete absent = true, want false")
	}
}

func TestClearWorking(t *testing.T) {
	s := testLayers(t)

	s.Put(Working, "working:u1:a", "x")
	s.Put(Working, "working:u1:b", "y")
	s.Put(LongTerm, "longterm:u1:keep", "z")

	n, err := s.ClearWorking()
	if err != nil {
		t.Fatalf("ClearWorking: %v", err)
	}
	if n != 2 {
		t.Errorf("cleared %d, want 2", n)
	}

	rec, _ := s.Get("longterm:u1:keep")
	if rec == nil {
		t.Error("long-term record must survive ClearWorking")
	}
}

func TestCountByLayer(t *testing.T) {
	s := testLayers(t)

	s.Put(Episodic, "episodic:u1:1", "a")
	s.Put(Episodic, "episodic:u1:2", "b")
	s.Put(Instinctual, "instinct:core", "c")

	counts, err := s.CountByLayer()
	if err != nil {
		t.Fatalf("CountByLayer: %v", err)
	}
	if counts[Episodic] != 2 {
		t.Errorf("episodic count = %d, want 2", counts[Episodic])
	}
	if counts[Instinctual] != 1 {
		t.Errorf("instinctual count = %d, want 1", counts[Instinctual])
	}
}
