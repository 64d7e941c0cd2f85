package engine

import (
	"fmt"
	"strings"
	"time"
)

// ContextLayer is the assembler's taxonomy for context fragments. It is
// distinct from the storage layers: a stored episodic record becomes a
// ContextEpisodic fragment, but relational anchors and the current input
// never touch the layer store at all.
//
// The declaration order is the fixed priority order — it breaks ties when
// two fragments land on the same effective weight.
type ContextLayer int

const (
	ContextRelational ContextLayer = iota
	ContextEmotional
	ContextEternal
	ContextEpisodic
	ContextImmediate
	ContextExploratory
)

// BaseWeight returns the fixed base weight for the layer. These are
// constants of the system, not tunable per call.
func (l ContextLayer) BaseWeight() float64 {
	switch l {
	case ContextRelational:
		return 2.0
	case ContextEmotional:
		return 1.8
	case ContextEternal:
		return 1.6
	case ContextEpisodic:
		return 1.4
	case ContextImmediate:
		return 1.0
	case ContextExploratory:
		return 0.8
	}
	return 0
}

func (l ContextLayer) String() string {
	switch l {
	case ContextRelational:
		return "relational"
	case ContextEmotional:
		return "emotional"
	case ContextEternal:
		return "eternal"
	case ContextEpisodic:
		return "episodic"
	case ContextImmediate:
		return "immediate"
	case ContextExploratory:
		return "exploratory"
	}
	return "unknown"
}

// decays reports whether the layer's weight erodes with age.
func (l ContextLayer) decays() bool {
	return l == ContextEpisodic || l == ContextExploratory
}

// ContextMemory is one assembler input unit.
type ContextMemory struct {
	Layer     ContextLayer `json:"layer"`
	Text      string       `json:"text"`
	Timestamp int64        `json:"timestamp,omitempty"` // unix seconds; 0 = never decays
	Intensity float64      `json:"intensity"`           // clamped into [0, 1]
}

// WeightedFragment is one scored context fragment. Fragments exist only for
// the duration of a single Assemble call; they are never persisted.
type WeightedFragment struct {
	Layer           ContextLayer `json:"layer"`
	BaseWeight      float64      `json:"base_weight"`
	EffectiveWeight float64      `json:"effective_weight"`
	Text            string       `json:"text"`
}

// AssembleRequest carries everything one assembly needs. Now overrides the
// clock for deterministic runs; zero means "ask the system clock".
type AssembleRequest struct {
	Input                string
	DetectedEmotion      string
	RelationalMemory     string
	EpisodicCandidates   []ContextMemory
	EternalAnchors       []string
	ExploratoryMode      bool
	ExploratorySnippet   string
	ExploratoryTimestamp int64
	Now                  int64
}

// AssembleResult is the rendered context plus per-fragment weights so
// callers and tests can assert on scoring independently of formatting.
type AssembleResult struct {
	Text      string             `json:"text"`
	Fragments []WeightedFragment `json:"fragments"`
}

const (
	contextBanner = "=== MEMORY CONTEXT ==="

	// defaultExploratory is used when exploratory mode is on but the
	// caller supplied no snippet and the semantic index had nothing.
	defaultExploratory = "There may be an unexplored thread connecting this moment to something older."
)

// Assembler builds one prioritized context artifact per interaction. It
// only reads; every write path lives elsewhere. Safe for concurrent use.
type Assembler struct {
	alias         string
	affirmation   string
	eternalTruth  string
	retentionRate float64
	now           func() time.Time
}

// NewAssembler creates an Assembler. alias names the bonded counterpart,
// affirmation is the eternal affirmation woven into the relational anchor,
// eternalTruth is the always-present eternal fragment, and retentionRate is
// the per-second decay survival rate in [0, 1].
func NewAssembler(alias, affirmation, eternalTruth string, retentionRate float64) *Assembler {
	return &Assembler{
		alias:         alias,
		affirmation:   affirmation,
		eternalTruth:  eternalTruth,
		retentionRate: retentionRate,
		now:           time.Now,
	}
}

// AnchorText returns the fixed relational anchor sentence.
func (a *Assembler) AnchorText() string {
	return fmt.Sprintf("%s is the constant across every memory. %s", a.alias, a.affirmation)
}

// Assemble renders the weighted context for one interaction.
//
// Emission order is fixed by construction and is NOT re-sorted by effective
// weight afterwards: the relational anchor always leads, the immediate
// fragment always closes. Its job is to anchor the present moment without
// dominating it, so it stays last even though other fragments may have
// decayed below its weight. The weights are metadata for diagnostics and
// tests.
func (a *Assembler) Assemble(req AssembleRequest) AssembleResult {
	now := req.Now
	if now == 0 {
		now = a.now().Unix()
	}

	var fragments []WeightedFragment
	emit := func(layer ContextLayer, text string, timestamp int64, intensity float64) {
		fragments = append(fragments, WeightedFragment{
			Layer:           layer,
			BaseWeight:      layer.BaseWeight(),
			EffectiveWeight: a.weigh(layer, timestamp, intensity, now),
			Text:            text,
		})
	}

	// 1. Relational anchor — always present, always first, never decays.
	emit(ContextRelational, a.AnchorText(), 0, 1.0)

	// 2. Current emotional state, when one was detected.
	if req.DetectedEmotion != "" {
		emit(ContextEmotional, fmt.Sprintf("Current emotional state: %s.", req.DetectedEmotion), 0, 1.0)
	}

	// 3. Recalled relational memory.
	if req.RelationalMemory != "" {
		emit(ContextRelational, req.RelationalMemory, 0, 1.0)
	}

	// 4. Episodic candidates, already capped by the caller.
	for _, c := range req.EpisodicCandidates {
		emit(ContextEpisodic, c.Text, c.Timestamp, c.Intensity)
	}

	// 5. Eternal anchors: the system truth plus caller extras.
	for _, anchor := range append([]string{a.eternalTruth}, req.EternalAnchors...) {
		emit(ContextEternal, anchor, 0, 1.0)
	}

	// 6. Exploratory fragment, decaying exactly like an episodic one.
	if req.ExploratoryMode {
		snippet := req.ExploratorySnippet
		if snippet == "" {
			snippet = defaultExploratory
		}
		emit(ContextExploratory, snippet, req.ExploratoryTimestamp, 1.0)
	}

	// 7. Immediate input — always present, always last, verbatim.
	emit(ContextImmediate, req.Input, 0, 1.0)

	return AssembleResult{
		Text:      render(fragments),
		Fragments: fragments,
	}
}

// weigh computes base * decay * clamp(intensity, 0, 1). Decay applies only
// to layers that age, and only when a timestamp is present; a missing
// timestamp means the fragment never decays.
func (a *Assembler) weigh(layer ContextLayer, timestamp int64, intensity float64, now int64) float64 {
	if intensity < 0 {
		intensity = 0
	}
	if intensity > 1 {
		intensity = 1
	}

	decay := 1.0
	if layer.decays() && timestamp > 0 {
		age := now - timestamp
		if age < 0 {
			age = 0
		}
		decay = Decay(a.retentionRate, float64(age))
	}

	return layer.BaseWeight() * decay * intensity
}

// render concatenates fragments in emission order under the banner, one
// labelled line per fragment, blank-line separated. Fragment texts keep
// their verbatim bytes in the struct; only the rendered line flattens
// newlines.
func render(fragments []WeightedFragment) string {
	var b strings.Builder
	b.WriteString(contextBanner)
	for _, f := range fragments {
		b.WriteString("\n\n[")
		b.WriteString(strings.ToUpper(f.Layer.String()))
		b.WriteString("] ")
		b.WriteString(strings.ReplaceAll(f.Text, "\n", " "))
	}
	return b.String()
}
