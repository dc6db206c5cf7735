package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"promptparse/internal/classify"
	"promptparse/internal/logging"
	"promptparse/internal/roles"
	"promptparse/internal/tags"
	"promptparse/internal/types"
)

// =============================================================================
// ANALYSIS SERVICE
// =============================================================================

// Built-in analyzer ids. AnalyzerRuleLegacy is the historical name of the
// keyword analyzer and resolves to AnalyzerKeywordRules.
const (
	AnalyzerKeywordRules = "keyword-rules"
	AnalyzerLLMGemini    = "llm-gemini"
	AnalyzerRuleLegacy   = "rule-based-v1"

	// TargetPrompt is the sole analysis target this engine serves.
	TargetPrompt = "prompt"
)

// batchConcurrency bounds parallel generative calls in AnalyzeBatch.
const batchConcurrency = 4

// Analysis is one completed analysis: the parse result plus the tags
// derived locally from its segments.
type Analysis struct {
	RequestID  string             `json:"request_id"`
	AnalyzerID string             `json:"analyzer_id"`
	Result     *types.ParseResult `json:"result"`
	Tags       []types.Tag        `json:"tags"`
	FlatTags   []string           `json:"flat_tags"`
	Cached     bool               `json:"cached,omitempty"`
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	// ParseConfig is the classifier configuration every strategy shares.
	ParseConfig classify.Config

	// Client backs the generative analyzer; nil disables it.
	Client LLMClient

	// Model names the generative model, recorded on the descriptor.
	Model string

	// CacheSize bounds the parse-result cache; zero or negative disables it.
	CacheSize int
}

// Service composes the analyzer catalog, the shared role registry, and the
// analysis strategies behind one never-failing Analyze surface.
type Service struct {
	catalog  *Registry
	roles    *roles.Registry
	impls    map[string]Analyzer
	fallback *DeterministicAnalyzer
	cache    *lru.Cache[string, Analysis]
	cfgHash  string
}

// NewService wires the built-in analyzers and returns a ready service.
func NewService(roleReg *roles.Registry, opts ServiceOptions) (*Service, error) {
	if roleReg == nil {
		roleReg = roles.NewRegistry(nil)
	}

	det, err := NewDeterministicAnalyzer(opts.ParseConfig)
	if err != nil {
		return nil, err
	}
	gen, err := NewLLMAnalyzer(opts.Client, opts.ParseConfig)
	if err != nil {
		return nil, err
	}

	catalog := NewRegistry()
	if err := catalog.Register(Descriptor{
		ID:          AnalyzerKeywordRules,
		Name:        "Keyword Rules",
		Description: "Deterministic keyword classifier with negation and stemming",
		Kind:        KindDeterministic,
		Target:      TargetPrompt,
		Enabled:     true,
		Default:     true,
	}); err != nil {
		return nil, err
	}
	if err := catalog.Register(Descriptor{
		ID:          AnalyzerLLMGemini,
		Name:        "Gemini",
		Description: "Generative classification with deterministic fallback",
		Kind:        KindGenerative,
		Target:      TargetPrompt,
		Model:       opts.Model,
		Enabled:     opts.Client != nil,
	}); err != nil {
		return nil, err
	}
	catalog.RegisterLegacyID(AnalyzerRuleLegacy, AnalyzerKeywordRules)

	s := &Service{
		catalog:  catalog,
		roles:    roleReg,
		fallback: det,
		impls: map[string]Analyzer{
			AnalyzerKeywordRules: det,
			AnalyzerLLMGemini:    gen,
		},
		cfgHash: hashConfig(opts.ParseConfig),
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New[string, Analysis](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create result cache: %w", err)
		}
		s.cache = cache
	}

	return s, nil
}

// Catalog exposes the analyzer registry for listing and plugin management.
func (s *Service) Catalog() *Registry {
	return s.catalog
}

// Roles exposes the shared role registry.
func (s *Service) Roles() *roles.Registry {
	return s.roles
}

// Analyze runs the default analyzer for the prompt target.
func (s *Service) Analyze(ctx context.Context, text string) Analysis {
	desc, ok := s.catalog.GetDefault(TargetPrompt)
	if !ok {
		return s.AnalyzeWith(ctx, AnalyzerKeywordRules, text)
	}
	return s.AnalyzeWith(ctx, desc.ID, text)
}

// AnalyzeWith runs the named analyzer. Unknown or disabled ids degrade to
// the deterministic path with a warning; the call always yields a result.
func (s *Service) AnalyzeWith(ctx context.Context, analyzerID, text string) Analysis {
	reqID := uuid.NewString()

	impl := Analyzer(s.fallback)
	resolvedID := AnalyzerKeywordRules
	if desc, ok := s.catalog.Resolve(analyzerID); !ok {
		logging.AnalyzerWarn("[%s] Unknown analyzer %q, using %q", reqID, analyzerID, AnalyzerKeywordRules)
	} else if !desc.Enabled {
		logging.AnalyzerWarn("[%s] Analyzer %q is disabled, using %q", reqID, desc.ID, AnalyzerKeywordRules)
	} else if candidate, have := s.impls[desc.ID]; !have {
		logging.AnalyzerWarn("[%s] Analyzer %q has no implementation, using %q", reqID, desc.ID, AnalyzerKeywordRules)
	} else {
		impl = candidate
		resolvedID = desc.ID
	}

	key := resolvedID + "\x00" + s.cfgHash + "\x00" + text
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			logging.AnalyzerDebug("[%s] Cache hit for %q (%s)", reqID, resolvedID, logging.TruncateForLog(text, 60))
			hit.RequestID = reqID
			hit.Cached = true
			return hit
		}
	}

	logging.Analyzer("[%s] Analyzing with %q: %s", reqID, resolvedID, logging.TruncateForLog(text, 80))
	result := impl.Analyze(ctx, text, s.roles)

	structured, flat := tags.Derive(result.Segments, s.defaultRole())
	analysis := Analysis{
		RequestID:  reqID,
		AnalyzerID: resolvedID,
		Result:     result,
		Tags:       structured,
		FlatTags:   flat,
	}

	if s.cache != nil {
		s.cache.Add(key, analysis)
	}
	return analysis
}

// AnalyzeBatch analyzes texts concurrently with the named analyzer,
// preserving input order. Individual analyses cannot fail, so the batch
// cannot either; cancellation surfaces as deterministic-path results.
func (s *Service) AnalyzeBatch(ctx context.Context, analyzerID string, texts []string) []Analysis {
	out := make([]Analysis, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, text := range texts {
		g.Go(func() error {
			out[i] = s.AnalyzeWith(ctx, analyzerID, text)
			return nil
		})
	}
	// The group never returns an error; Wait only joins the workers.
	_ = g.Wait()

	return out
}

func (s *Service) defaultRole() string {
	if r := s.fallback.cfg.DefaultRole; r != "" {
		return r
	}
	return classify.DefaultConfig().DefaultRole
}

// hashConfig fingerprints the parse configuration for cache keying.
func hashConfig(cfg classify.Config) string {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return "unhashable"
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}
