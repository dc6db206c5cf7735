package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"promptparse/internal/classify"
	"promptparse/internal/logging"
	"promptparse/internal/roles"
	"promptparse/internal/types"
)

// =============================================================================
// ANALYZER STRATEGIES
// =============================================================================

// Analyzer is one analysis strategy. Implementations never return nil and
// never propagate errors past this boundary; a failed strategy degrades to
// the deterministic keyword path internally.
type Analyzer interface {
	Analyze(ctx context.Context, text string, reg *roles.Registry) *types.ParseResult
}

// DeterministicAnalyzer runs the keyword classifier directly.
type DeterministicAnalyzer struct {
	cfg classify.Config
}

// NewDeterministicAnalyzer wraps the classifier as an analyzer strategy.
// The config is validated once here so per-call construction cannot fail.
func NewDeterministicAnalyzer(cfg classify.Config) (*DeterministicAnalyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analyzer config: %w", err)
	}
	return &DeterministicAnalyzer{cfg: cfg}, nil
}

// Analyze classifies text against the given role registry.
func (a *DeterministicAnalyzer) Analyze(_ context.Context, text string, reg *roles.Registry) *types.ParseResult {
	return classify.MustNew(reg, a.cfg).Parse(text)
}

// Confidence assigned to generative blocks; the model reports none itself.
const generativeConfidence = 0.8

// llmBlock is one classified block as the generative backend reports it.
type llmBlock struct {
	Role        string   `json:"role"`
	Text        string   `json:"text"`
	Category    string   `json:"category,omitempty"`
	OntologyIDs []string `json:"ontology_ids,omitempty"`
}

// llmEnvelope is the structured response contract sent to the backend.
// The model's own tag list is parsed but discarded; tags are recomputed
// locally from the normalized segments.
type llmEnvelope struct {
	Blocks []llmBlock `json:"blocks"`
	Tags   []string   `json:"tags,omitempty"`
}

// LLMAnalyzer delegates classification to a generative backend and
// normalizes the response into the deterministic schema. Every failure
// mode resolves to the keyword classifier on the same input.
type LLMAnalyzer struct {
	client LLMClient
	cfg    classify.Config
}

// NewLLMAnalyzer creates a generative analyzer. A nil client is legal; the
// analyzer then always takes the deterministic path.
func NewLLMAnalyzer(client LLMClient, cfg classify.Config) (*LLMAnalyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analyzer config: %w", err)
	}
	return &LLMAnalyzer{client: client, cfg: cfg}, nil
}

// Analyze asks the backend to classify text, falling back to the keyword
// classifier on any failure. It never returns nil and never errors.
func (a *LLMAnalyzer) Analyze(ctx context.Context, text string, reg *roles.Registry) *types.ParseResult {
	result, err := a.tryGenerative(ctx, text, reg)
	if err != nil {
		logging.AnalyzerWarn("Generative analysis failed (%v), using deterministic path", err)
		return classify.MustNew(reg, a.cfg).Parse(text)
	}
	return result
}

func (a *LLMAnalyzer) tryGenerative(ctx context.Context, text string, reg *roles.Registry) (*types.ParseResult, error) {
	if a.client == nil {
		return nil, fmt.Errorf("no generative backend registered")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("blank input")
	}

	timer := logging.StartTimer(logging.CategoryAnalyzer, "generative_analyze")

	raw, err := a.client.CompleteWithSystem(ctx, buildSystemPrompt(reg), buildUserPrompt(text))
	if err != nil {
		timer.Stop()
		return nil, err
	}

	var envelope llmEnvelope
	if err := json.Unmarshal([]byte(extractJSON(raw)), &envelope); err != nil {
		timer.Stop()
		return nil, fmt.Errorf("unparsable response: %w", err)
	}
	if len(envelope.Blocks) == 0 {
		timer.Stop()
		return nil, fmt.Errorf("response contained no blocks")
	}

	result := a.normalize(text, envelope, reg)
	timer.StopWithInfo()
	logging.Analyzer("Generative analysis: %d blocks -> %d segments", len(envelope.Blocks), len(result.Segments))
	return result, nil
}

// normalize converts the backend's blocks into schema-conformant segments:
// unknown role values collapse to the default role, offsets are located in
// the original text, and ontology ids carry over verbatim.
func (a *LLMAnalyzer) normalize(text string, envelope llmEnvelope, reg *roles.Registry) *types.ParseResult {
	defaultRole := a.cfg.DefaultRole
	if defaultRole == "" {
		defaultRole = classify.DefaultConfig().DefaultRole
	}

	segments := make([]types.Segment, 0, len(envelope.Blocks))
	cursor := 0
	for i, block := range envelope.Blocks {
		blockText := strings.TrimSpace(block.Text)
		if blockText == "" {
			continue
		}

		roleID, known := reg.ResolveRoleID(block.Role)
		if !known {
			logging.AnalyzerDebug("Unknown role %q from backend, using %q", block.Role, defaultRole)
			roleID = defaultRole
		}

		start, end := locateSpan(text, blockText, cursor)
		cursor = end

		seg := types.Segment{
			Role:          roleID,
			Text:          blockText,
			Start:         start,
			End:           end,
			SentenceIndex: i,
			Confidence:    generativeConfidence,
			Scores:        map[string]float64{roleID: generativeConfidence},
			Metadata: types.SegmentMetadata{
				OntologyIDs: append([]string(nil), block.OntologyIDs...),
			},
		}
		if inferred, ok := reg.ResolveRoleID(block.Category); ok && inferred != roleID {
			seg.Metadata.InferredRole = inferred
		}
		segments = append(segments, seg)
	}

	if len(segments) == 0 {
		trimmed := strings.TrimSpace(text)
		start := strings.Index(text, trimmed)
		segments = append(segments, types.Segment{
			Role:       defaultRole,
			Text:       trimmed,
			Start:      start,
			End:        start + len(trimmed),
			Confidence: 0,
			Scores:     map[string]float64{},
		})
	}

	return &types.ParseResult{Text: text, Segments: segments}
}

// locateSpan finds blockText in the original text, searching forward from
// cursor first so repeated phrases map to distinct spans. When the backend
// paraphrased and the text cannot be found, the span is approximated at the
// cursor and clamped to the input bounds.
func locateSpan(text, blockText string, cursor int) (int, int) {
	if cursor <= len(text) {
		if idx := strings.Index(text[cursor:], blockText); idx >= 0 {
			start := cursor + idx
			return start, start + len(blockText)
		}
	}
	if idx := strings.Index(text, blockText); idx >= 0 {
		return idx, idx + len(blockText)
	}
	start := cursor
	if start > len(text) {
		start = len(text)
	}
	end := start + len(blockText)
	if end > len(text) {
		end = len(text)
	}
	return start, end
}

// buildSystemPrompt renders the role catalog from the live registry so
// pack-defined roles are visible to the backend.
func buildSystemPrompt(reg *roles.Registry) string {
	var sb strings.Builder
	sb.WriteString("You classify visual prompt text into role-tagged blocks.\n")
	sb.WriteString("Available roles:\n")

	ids := reg.IDs()
	for _, id := range ids {
		def, ok := reg.Get(id)
		if !ok {
			continue
		}
		sb.WriteString("- ")
		sb.WriteString(def.ID)
		if def.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(def.Description)
		}
		if len(def.Keywords) > 0 {
			sample := def.Keywords
			if len(sample) > 8 {
				sample = sample[:8]
			}
			sorted := append([]string(nil), sample...)
			sort.Strings(sorted)
			sb.WriteString(" (e.g. ")
			sb.WriteString(strings.Join(sorted, ", "))
			sb.WriteString(")")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nSplit the input into contiguous blocks and assign each the single best role id.\n")
	sb.WriteString("Respond with JSON only, no prose:\n")
	sb.WriteString(`{"blocks":[{"role":"<role id>","text":"<verbatim span>","category":"<optional secondary role>","ontology_ids":["<role:concept>"]}],"tags":[]}`)
	return sb.String()
}

func buildUserPrompt(text string) string {
	return "Classify this prompt:\n\n" + text
}
