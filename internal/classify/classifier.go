// Package classify implements the deterministic keyword classification
// pipeline: segmentation, negation-aware scoring, ordered role resolution,
// and ontology annotation. A Classifier holds no mutable state beyond its
// registry snapshot; Parse is safe for concurrent use and never panics past
// its boundary.
package classify

import (
	"math"
	"regexp"
	"strings"

	"promptparse/internal/logging"
	"promptparse/internal/negation"
	"promptparse/internal/ontology"
	"promptparse/internal/roles"
	"promptparse/internal/stem"
	"promptparse/internal/textseg"
	"promptparse/internal/types"
)

var (
	wordRe          = regexp.MustCompile(`[a-z0-9']+`)
	delimNormalizer = strings.NewReplacer("_", " ", "-", " ")
)

// Classifier scores text units against a role registry snapshot.
type Classifier struct {
	registry *roles.Registry
	onto     *ontology.Store
	cfg      Config
	disabled map[string]bool
}

// New builds a classifier. Keyword patches are applied to a private clone of
// the registry, so the caller's instance is never mutated. Structurally
// invalid configuration is the only error this package ever returns.
func New(registry *roles.Registry, cfg Config) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalize()

	if registry == nil {
		registry = roles.NewRegistry(nil)
	}
	if len(cfg.KeywordPatches) > 0 {
		patched := registry.Clone()
		for id, patch := range cfg.KeywordPatches {
			patched.AddKeywords(id, patch.Add)
			patched.RemoveKeywords(id, patch.Remove)
		}
		registry = patched
	}

	disabled := make(map[string]bool, len(cfg.DisabledRoles))
	for _, id := range cfg.DisabledRoles {
		disabled[roles.NormalizeID(id)] = true
	}

	return &Classifier{
		registry: registry,
		onto:     registry.Ontology(),
		cfg:      cfg,
		disabled: disabled,
	}, nil
}

// MustNew is New for known-good configuration; it panics on config errors.
func MustNew(registry *roles.Registry, cfg Config) *Classifier {
	c, err := New(registry, cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// Registry exposes the classifier's (possibly patched) registry snapshot.
func (c *Classifier) Registry() *roles.Registry {
	return c.registry
}

// Config returns the normalized configuration in effect.
func (c *Classifier) Config() Config {
	return c.cfg
}

// Parse classifies text into role-tagged segments. It always returns a
// valid, non-empty ParseResult; any internal panic degrades to a single
// default-role segment spanning the whole input.
func (c *Classifier) Parse(text string) (result *types.ParseResult) {
	timer := logging.StartTimer(logging.CategoryClassify, "Classifier.Parse")
	defer timer.Stop()

	defer func() {
		if r := recover(); r != nil {
			logging.ClassifyWarn("Recovered from parse panic: %v", r)
			result = &types.ParseResult{Text: text, Segments: []types.Segment{c.defaultSegment(text)}}
		}
	}()

	logging.ClassifyDebug("Parsing input: %q", logging.TruncateForLog(text, 100))

	if strings.TrimSpace(text) == "" {
		return &types.ParseResult{Text: text, Segments: []types.Segment{c.defaultSegment(text)}}
	}

	var segments []types.Segment
	var sections []types.Section

	if c.cfg.Sections {
		if secs := textseg.SplitSections(text); secs != nil {
			for si, sec := range secs {
				sectionRole := ""
				if sec.Label != "" {
					sectionRole, _ = c.registry.ResolveRoleID(sec.Label)
				}
				tsec := types.Section{Label: sec.Label}
				for _, sent := range textseg.SplitSentences(text[sec.Start:sec.End]) {
					seg := c.buildSegment(sent.Text, sec.Start+sent.Start, sec.Start+sent.End,
						len(segments), si, sec.Label, sectionRole)
					tsec.SegmentIndices = append(tsec.SegmentIndices, len(segments))
					segments = append(segments, seg)
				}
				sections = append(sections, tsec)
			}
		}
	}

	if sections == nil {
		for _, sent := range textseg.SplitSentences(text) {
			seg := c.buildSegment(sent.Text, sent.Start, sent.End, len(segments), -1, "", "")
			segments = append(segments, seg)
		}
	}

	if len(segments) == 0 {
		segments = []types.Segment{c.defaultSegment(text)}
	}

	logging.ClassifyDebug("Parse produced %d segments, %d sections", len(segments), len(sections))
	return &types.ParseResult{Text: text, Segments: segments, Sections: sections}
}

// unitScore is the per-unit scoring scratchpad.
type unitScore struct {
	scores      map[string]float64
	roleMatches map[string][]string
	matched     []string
	negated     []string
	verb        bool
}

// scoreUnit runs keyword matching, negation filtering, and verb detection
// over one lower-cased unit.
func (c *Classifier) scoreUnit(text string) unitScore {
	lower := strings.ToLower(text)
	norm := delimNormalizer.Replace(lower)
	tokens := wordRe.FindAllString(norm, -1)

	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}

	stemOf := make(map[string]string, len(tokens))
	if c.cfg.Stemming {
		for _, t := range tokens {
			stemOf[t] = stem.Stem(t)
		}
	}

	negSet := make(map[string]bool)
	us := unitScore{
		scores:      make(map[string]float64),
		roleMatches: make(map[string][]string),
	}
	if c.cfg.Negation {
		for _, w := range negation.NegatedWords(lower) {
			negSet[w] = true
			us.negated = append(us.negated, w)
		}
	}

	seenMatch := make(map[string]bool)
	for _, id := range c.registry.IDs() {
		if c.disabled[id] {
			continue
		}
		def, ok := c.registry.Get(id)
		if !ok || len(def.Keywords) == 0 {
			continue
		}

		var matches []string
		for _, kw := range def.Keywords {
			k := delimNormalizer.Replace(strings.ToLower(kw))
			if k == "" {
				continue
			}

			if strings.Contains(k, " ") {
				// Multi-word: substring on the delimiter-normalized unit,
				// discarded if any constituent word is negated.
				if strings.Contains(norm, k) && !anyNegated(strings.Fields(k), negSet) {
					matches = append(matches, k)
				}
				continue
			}

			if tokenSet[k] {
				if !negSet[k] {
					matches = append(matches, k)
				}
				// A negated exact hit must not fall through to the stem
				// path and re-match via its own stem.
				continue
			}

			if c.cfg.Stemming {
				ks := stem.Stem(k)
				for _, t := range tokens {
					if !negSet[t] && stemOf[t] == ks {
						matches = append(matches, k)
						break
					}
				}
			}
		}

		if len(matches) == 0 {
			continue
		}
		us.scores[id] = float64(len(matches)) / math.Max(float64(len(def.Keywords)), 1)
		us.roleMatches[id] = matches
		for _, m := range matches {
			if !seenMatch[m] {
				seenMatch[m] = true
				us.matched = append(us.matched, m)
			}
		}
	}

	for _, t := range tokens {
		if negSet[t] {
			continue
		}
		if c.onto.IsActionVerb(t) || (c.cfg.Stemming && c.onto.IsActionVerb(stemOf[t])) {
			us.verb = true
			break
		}
	}

	return us
}

// buildSegment scores one unit and resolves its role through the rule table.
func (c *Classifier) buildSegment(unitText string, start, end, sentenceIdx, sectionIdx int, sectionLabel, sectionRole string) types.Segment {
	us := c.scoreUnit(unitText)

	out := resolveRole(&resolutionContext{
		scores:      us.scores,
		verb:        us.verb,
		sectionRole: sectionRole,
		cfg:         &c.cfg,
		registry:    c.registry,
	})

	role, conf := out.role, out.confidence

	// Confidence floor: applied last, independent of how the role was won.
	if c.cfg.MinConfidence > 0 && conf < c.cfg.MinConfidence {
		role = c.cfg.DefaultRole
		conf = 0
	}

	meta := types.SegmentMetadata{
		NegatedWords:    us.negated,
		VerbDetected:    us.verb,
		CharacterAction: out.compound,
		SectionLabel:    sectionLabel,
		InferredRole:    out.inferred,
	}
	if len(us.roleMatches) > 0 {
		meta.RoleKeywords = us.roleMatches
	}
	if c.cfg.OntologyAnnotation && len(us.matched) > 0 {
		meta.OntologyIDs = c.onto.ResolveAll(us.matched)
	}

	return types.Segment{
		Role:            role,
		Text:            unitText,
		Start:           start,
		End:             end,
		SentenceIndex:   sentenceIdx,
		SectionIndex:    sectionIdx,
		Confidence:      round3(conf),
		MatchedKeywords: us.matched,
		Scores:          us.scores,
		Metadata:        meta,
	}
}

// defaultSegment spans the trimmed input at confidence 0; it is the
// worst-case (and empty-input) result. Offsets locate the trimmed text in
// the original so text[Start:End] == Text holds here too.
func (c *Classifier) defaultSegment(text string) types.Segment {
	trimmed := strings.TrimSpace(text)
	start := strings.Index(text, trimmed)
	return types.Segment{
		Role:          c.cfg.DefaultRole,
		Text:          trimmed,
		Start:         start,
		End:           start + len(trimmed),
		SentenceIndex: 0,
		SectionIndex:  -1,
		Confidence:    0,
		Scores:        map[string]float64{},
	}
}

func anyNegated(words []string, negSet map[string]bool) bool {
	for _, w := range words {
		if negSet[w] {
			return true
		}
	}
	return false
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
