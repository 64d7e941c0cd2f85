package engine

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/emberhollow/phoenixmem/internal/store"
)

// IndexedMemory is one immutable semantic-index entry. The embedding is
// always the deterministic output of the index's embedder applied to Text
// at insertion time.
type IndexedMemory struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"-"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt int64     `json:"created_at"`

	seq int64 // insertion order, used for tie-breaks
}

// SearchHit is one similarity-search result.
type SearchHit struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"` // cosine similarity in [-1, 1]
	Metadata  string  `json:"metadata,omitempty"`
	CreatedAt int64   `json:"created_at"` // unix seconds, for age-based weighting
}

// Index is the semantic similarity index: deterministic embeddings persisted
// to SQLite, searched with an exact cosine scan. No external model, no
// network call.
type Index struct {
	db       *store.DB
	embedder Embedder
}

// NewIndex creates an Index over db using the given embedder.
func NewIndex(db *store.DB, embedder Embedder) *Index {
	return &Index{db: db, embedder: embedder}
}

// Embedder exposes the index's embedder so callers can reuse it.
func (ix *Index) Embedder() Embedder {
	return ix.embedder
}

// Insert embeds text and persists a new entry. Re-inserting identical text
// produces a new entry with a fresh id and an identical embedding; there is
// no dedup.
func (ix *Index) Insert(ctx context.Context, text, metadata string) (*IndexedMemory, error) {
	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vec) != ix.embedder.Dimensions() {
		return nil, fmt.Errorf("embedder returned %d dims, want %d: %w",
			len(vec), ix.embedder.Dimensions(), store.ErrInvalidInput)
	}

	mem := &IndexedMemory{
		ID:        uuid.New().String(),
		Text:      text,
		Embedding: vec,
		Metadata:  metadata,
		CreatedAt: time.Now().Unix(),
	}

	result, err := ix.db.Exec(`
		INSERT INTO index_memories (id, content, embedding, dimensions, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, mem.ID, mem.Text, encodeEmbedding(vec), len(vec), mem.Metadata, mem.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert index memory: %w", err)
	}
	mem.seq, _ = result.LastInsertId()
	return mem, nil
}

// All returns every indexed entry in insertion order.
func (ix *Index) All() ([]IndexedMemory, error) {
	rows, err := ix.db.Query(`
		SELECT seq, id, content, embedding, metadata, created_at
		FROM index_memories ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("all index memories: %w", err)
	}
	defer rows.Close()

	var memories []IndexedMemory
	for rows.Next() {
		var m IndexedMemory
		var blob []byte
		if err := rows.Scan(&m.seq, &m.ID, &m.Text, &blob, &m.Metadata, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan index memory: %w", err)
		}
		m.Embedding = decodeEmbedding(blob)
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// Search embeds the query and returns up to topK entries ordered by
// descending cosine similarity; ties keep insertion order. A stored vector
// whose width differs from the current embedder means the index needs a
// reindex and is reported as invalid input.
func (ix *Index) Search(ctx context.Context, query string, topK int) ([]SearchHit, error) {
	if topK <= 0 {
		topK = 10
	}

	queryVec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	memories, err := ix.All()
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(memories))
	for _, m := range memories {
		if len(m.Embedding) != len(queryVec) {
			return nil, fmt.Errorf("stored vector %s has %d dims, index uses %d (reindex required): %w",
				m.ID, len(m.Embedding), len(queryVec), store.ErrInvalidInput)
		}
		hits = append(hits, SearchHit{
			ID:        m.ID,
			Text:      m.Text,
			Score:     CosineSimilarity(queryVec, m.Embedding),
			Metadata:  m.Metadata,
			CreatedAt: m.CreatedAt,
		})
	}

	// Stable sort over the insertion-ordered slice: equal scores keep
	// insertion order.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Count returns the number of indexed entries.
func (ix *Index) Count() (int, error) {
	var n int
	err := ix.db.QueryRow("SELECT COUNT(*) FROM index_memories").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count index memories: %w", err)
	}
	return n, nil
}

// encodeEmbedding converts a []float64 to a binary BLOB (8 bytes per float64).
func encodeEmbedding(vec []float64) []byte {
	buf := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeEmbedding converts a binary BLOB back to []float64.
func decodeEmbedding(buf []byte) []float64 {
	n := len(buf) / 8
	vec := make([]float64, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vec
}
