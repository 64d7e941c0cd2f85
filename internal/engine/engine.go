package engine

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/emberhollow/phoenixmem/internal/store"
)

// DefaultEpisodicLimit caps how many recent episodic records feed one
// assembly.
const DefaultEpisodicLimit = 8

// Engine orchestrates the layer store, vault, semantic index and assembler.
//
// The write path (RecordInteraction, RememberRelational, Memorize) is called
// by the front door after each interaction completes. The read path
// (BuildContext) runs once per interaction before the downstream generation
// call; it only reads and degrades gracefully when a source fails, because
// partial context beats no response.
type Engine struct {
	Layers    *store.LayerStore
	Vault     *store.VaultStore
	Index     *Index
	Assembler *Assembler

	episodicLimit int
}

// New creates an Engine. episodicLimit <= 0 selects DefaultEpisodicLimit.
func New(layers *store.LayerStore, vault *store.VaultStore, index *Index, asm *Assembler, episodicLimit int) *Engine {
	if episodicLimit <= 0 {
		episodicLimit = DefaultEpisodicLimit
	}
	return &Engine{
		Layers:        layers,
		Vault:         vault,
		Index:         index,
		Assembler:     asm,
		episodicLimit: episodicLimit,
	}
}

// EpisodicKey encodes owner and timestamp into a prefix-scannable key.
// The timestamp is zero-padded so lexicographic order equals chronological
// order.
func EpisodicKey(owner string, ts int64) string {
	return fmt.Sprintf("episodic:%s:%020d", owner, ts)
}

// episodicTimestamp recovers the unix timestamp from an episodic key.
// Returns 0 when the key does not follow the encoding.
func episodicTimestamp(key string) int64 {
	idx := strings.LastIndex(key, ":")
	if idx < 0 || idx == len(key)-1 {
		return 0
	}
	ts, err := strconv.ParseInt(key[idx+1:], 10, 64)
	if err != nil {
		return 0
	}
	return ts
}

// RecordInteraction persists one input/response pair as an episodic record
// keyed by owner and timestamp.
func (e *Engine) RecordInteraction(owner, input, response string, ts int64) error {
	if owner == "" {
		return fmt.Errorf("record interaction: empty owner: %w", store.ErrInvalidInput)
	}
	value := input
	if response != "" {
		value = input + "\n" + response
	}
	if err := e.Layers.Put(store.Episodic, EpisodicKey(owner, ts), value); err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}
	return nil
}

// RememberRelational stores an extracted relational snippet for owner. The
// vault encrypts it at rest.
func (e *Engine) RememberRelational(owner, snippet string) error {
	if err := e.Vault.Store(store.Relational, "bond:"+owner, snippet); err != nil {
		return fmt.Errorf("remember relational: %w", err)
	}
	return nil
}

// Memorize indexes free text for later similarity recall.
func (e *Engine) Memorize(ctx context.Context, text, metadata string) (*IndexedMemory, error) {
	return e.Index.Insert(ctx, text, metadata)
}

// BuildRequest describes one context-assembly call.
type BuildRequest struct {
	Owner          string   `json:"owner"`
	Input          string   `json:"input"`
	Emotion        string   `json:"emotion,omitempty"`
	EternalAnchors []string `json:"eternal_anchors,omitempty"`
	Exploratory    bool     `json:"exploratory,omitempty"`
	Now            int64    `json:"now,omitempty"`
}

// BuildContext gathers fragments from every source and assembles them.
// A failed read from any single source logs and omits that fragment rather
// than aborting the assembly.
func (e *Engine) BuildContext(ctx context.Context, req BuildRequest) AssembleResult {
	asmReq := AssembleRequest{
		Input:           req.Input,
		DetectedEmotion: req.Emotion,
		EternalAnchors:  req.EternalAnchors,
		ExploratoryMode: req.Exploratory,
		Now:             req.Now,
	}

	// Recent episodic records for this owner, newest first.
	records, err := e.Layers.ScanPrefix("episodic:"+req.Owner+":", e.episodicLimit)
	if err != nil {
		log.Printf("build context: episodic scan: %v", err)
	}
	for _, rec := range records {
		ts := episodicTimestamp(rec.Key)
		if ts == 0 {
			ts = rec.CreatedAt
		}
		asmReq.EpisodicCandidates = append(asmReq.EpisodicCandidates, ContextMemory{
			Layer:     ContextEpisodic,
			Text:      rec.Value,
			Timestamp: ts,
			Intensity: 1.0,
		})
	}

	// Relational snippet from the encrypted vault.
	if snippet, ok, err := e.Vault.Recall(store.Relational, "bond:"+req.Owner); err != nil {
		log.Printf("build context: relational recall: %v", err)
	} else if ok {
		asmReq.RelationalMemory = snippet
	}

	// Exploratory mode borrows the closest indexed memory; if the index
	// has nothing the assembler falls back to its default snippet. The
	// borrowed snippet keeps the entry's insertion time so it ages like
	// an episodic fragment.
	if req.Exploratory {
		hits, err := e.Index.Search(ctx, req.Input, 1)
		if err != nil {
			log.Printf("build context: exploratory search: %v", err)
		} else if len(hits) > 0 {
			asmReq.ExploratorySnippet = hits[0].Text
			asmReq.ExploratoryTimestamp = hits[0].CreatedAt
		}
	}

	return e.Assembler.Assemble(asmReq)
}

// EndSession clears the session-scoped Working layer.
func (e *Engine) EndSession() {
	if n, err := e.Layers.ClearWorking(); err != nil {
		log.Printf("end session: clear working: %v", err)
	} else if n > 0 {
		log.Printf("end session: cleared %d working records", n)
	}
}
