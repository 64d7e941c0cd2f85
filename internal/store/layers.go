package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Layer is a retention tier for memory records, in order of eternality.
type Layer string

const (
	// Instinctual never decays — identity-level memory.
	Instinctual Layer = "instinctual"
	// LongTerm is near-eternal.
	LongTerm Layer = "longterm"
	// Episodic decays by age at assembly time.
	Episodic Layer = "episodic"
	// Working is session-scoped and may be cleared wholesale.
	Working Layer = "working"
	// Fleeting lives seconds to minutes and is advisory only —
	// the store may reap it at will.
	Fleeting Layer = "fleeting"
)

// Valid reports whether l is a known layer.
func (l Layer) Valid() bool {
	switch l {
	case Instinctual, LongTerm, Episodic, Working, Fleeting:
		return true
	}
	return false
}

// Record is one stored memory.
type Record struct {
	Layer     Layer  `json:"layer"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	CreatedAt int64  `json:"created_at"` // unix seconds
}

// Size limits for Put. Oversized input is rejected with ErrInvalidInput.
const (
	MaxKeyLen   = 512
	MaxValueLen = 1 << 20 // 1 MiB
)

// DefaultFleetingTTL is how long Fleeting records live unless configured.
const DefaultFleetingTTL = 90 * time.Second

// LayerStore holds memory records across the five retention tiers.
// Instinctual, LongTerm, Episodic and Working rows are durable in SQLite;
// Fleeting records live only in a TTL'd in-process cache whose admission
// policy may drop entries early, which the Fleeting contract allows.
type LayerStore struct {
	db       *DB
	fleeting *ristretto.Cache
	ttl      time.Duration
}

// NewLayerStore creates a LayerStore over db. fleetingTTL <= 0 selects
// DefaultFleetingTTL.
func NewLayerStore(db *DB, fleetingTTL time.Duration) (*LayerStore, error) {
	if fleetingTTL <= 0 {
		fleetingTTL = DefaultFleetingTTL
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 14,
		MaxCost:     1 << 12, // cost 1 per record: up to 4096 fleeting entries
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("fleeting cache: %w", err)
	}
	return &LayerStore{db: db, fleeting: cache, ttl: fleetingTTL}, nil
}

// Close releases the fleeting cache. The DB is owned by the caller.
func (s *LayerStore) Close() {
	s.fleeting.Close()
}

// Put stores a record. On return the record is durable for every layer
// except Fleeting. Oversized keys or values are rejected.
func (s *LayerStore) Put(layer Layer, key, value string) error {
	if !layer.Valid() {
		return fmt.Errorf("put %q: unknown layer %q: %w", key, layer, ErrInvalidInput)
	}
	if key == "" || len(key) > MaxKeyLen {
		return fmt.Errorf("put: key length %d: %w", len(key), ErrInvalidInput)
	}
	if len(value) > MaxValueLen {
		return fmt.Errorf("put %q: value length %d: %w", key, len(value), ErrInvalidInput)
	}

	rec := Record{Layer: layer, Key: key, Value: value, CreatedAt: time.Now().Unix()}

	if layer == Fleeting {
		s.fleeting.SetWithTTL(key, rec, 1, s.ttl)
		// Flush the set buffer so the record is visible to an immediate Get.
		s.fleeting.Wait()
		return nil
	}

	_, err := s.db.Exec(`
		INSERT INTO memories (layer, key, value, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET layer = ?, value = ?, created_at = ?
	`, string(layer), key, value, rec.CreatedAt,
		string(layer), value, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Get returns the record for key, or nil if absent. Fleeting records are
// consulted first; an expired entry simply reads as absent.
func (s *LayerStore) Get(key string) (*Record, error) {
	if v, ok := s.fleeting.Get(key); ok {
		rec := v.(Record)
		return &rec, nil
	}

	var rec Record
	var layer string
	err := s.db.QueryRow(`
		SELECT layer, key, value, created_at FROM memories WHERE key = ?
	`, key).Scan(&layer, &rec.Key, &rec.Value, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	rec.Layer = Layer(layer)
	return &rec, nil
}

// ScanPrefix returns at most limit durable records whose key starts with
// prefix, ordered by key descending. Keys that encode fixed-width unix
// timestamps therefore come back most-recent-first. Fleeting records are
// advisory and excluded.
func (s *LayerStore) ScanPrefix(prefix string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
		SELECT layer, key, value, created_at FROM memories
		WHERE key LIKE ? ESCAPE '\'
		ORDER BY key DESC LIMIT ?
	`, escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("scan prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var layer string
		if err := rows.Scan(&layer, &rec.Key, &rec.Value, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Layer = Layer(layer)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes a record by key. Returns true if a durable record existed.
// Fleeting entries are dropped from the cache but not reported, since the
// cache may already have reaped them.
func (s *LayerStore) Delete(key string) (bool, error) {
	s.fleeting.Del(key)

	result, err := s.db.Exec("DELETE FROM memories WHERE key = ?", key)
	if err != nil {
		return false, fmt.Errorf("delete %q: %w", key, err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// ClearWorking drops every Working-layer record and returns how many were
// removed. Called at session end.
func (s *LayerStore) ClearWorking() (int, error) {
	result, err := s.db.Exec("DELETE FROM memories WHERE layer = ?", string(Working))
	if err != nil {
		return 0, fmt.Errorf("clear working: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// CountByLayer returns the number of durable records per layer.
func (s *LayerStore) CountByLayer() (map[Layer]int, error) {
	rows, err := s.db.Query("SELECT layer, COUNT(*) FROM memories GROUP BY layer")
	if err != nil {
		return nil, fmt.Errorf("count by layer: %w", err)
	}
	defer rows.Close()

	counts := make(map[Layer]int)
	for rows.Next() {
		var layer string
		var n int
		if err := rows.Scan(&layer, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[Layer(layer)] = n
	}
	return counts, rows.Err()
}

// escapeLike escapes LIKE wildcards so a prefix containing % or _ matches
// literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
