package engine

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultDimensions is the embedding width unless configured otherwise.
const DefaultDimensions = 384

// Embedder generates vector embeddings for text.
//
// The interface is the capability boundary the semantic index and assembler
// depend on: a real model-backed embedder can be substituted without
// touching either, as long as it keeps "text -> fixed-length float vector".
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Model() string
	Dimensions() int
}

// HashEmbedder is a deterministic, dependency-free embedder: each token is
// hashed to a vector slot and counted, then the vector is L2-normalized.
// Identical text always yields the identical vector, across processes and
// machines, which the index relies on.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a HashEmbedder. dims <= 0 selects
// DefaultDimensions. The dimension is fixed for the life of an index;
// changing it requires reindexing every entry.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

func (h *HashEmbedder) Model() string   { return "hash-v1" }
func (h *HashEmbedder) Dimensions() int { return h.dims }

// Embed accumulates +1.0 at slot hash(token) % dims for every token
// occurrence, then L2-normalizes. Empty or tokenless text yields the zero
// vector; cosine similarity against it is defined as 0, never NaN.
func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, h.dims)
	for _, tok := range tokenize(text) {
		vec[int(hashToken(tok))%h.dims] += 1.0
	}
	normalize(vec)
	return vec, nil
}

// hashToken maps a token to a stable 32-bit value. FNV-1a is deterministic
// across processes, unlike the runtime's seeded string hash.
func hashToken(tok string) uint32 {
	f := fnv.New32a()
	f.Write([]byte(tok))
	return f.Sum32()
}

// tokenize splits text on non-alphanumeric boundaries and lowercases each
// token. Letters and digits from any script count as token runes, so
// accented or non-Latin words survive whole. Every token counts, including
// single characters.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	var tokens []string
	var current strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
			}
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// normalize performs in-place L2 normalization. The zero vector is left
// untouched.
func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched lengths or a zero vector on either side yield 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
