package classify

import (
	"math"

	"promptparse/internal/ontology"
	"promptparse/internal/roles"
)

// resolutionContext is everything a resolution rule may consult for one unit.
type resolutionContext struct {
	scores      map[string]float64
	verb        bool
	sectionRole string // normalized role from a header label, "" otherwise
	cfg         *Config
	registry    *roles.Registry
}

// resolutionOutcome is one rule's verdict.
type resolutionOutcome struct {
	role       string
	confidence float64
	inferred   string // keyword-derived role demoted to metadata by a header
	compound   bool   // character+verb promotion fired
}

// resolutionRule is one entry of the ordered role-resolution table. Rules
// evaluate in order and the first one that fires wins; the minimum-confidence
// floor is a separate post-pass, not a rule.
type resolutionRule struct {
	name  string
	apply func(*resolutionContext) (resolutionOutcome, bool)
}

var resolutionRules = []resolutionRule{
	{name: "section_header", apply: sectionHeaderRule},
	{name: "character_action", apply: compoundActionRule},
	{name: "top_score", apply: topScoreRule},
	{name: "default_role", apply: defaultRule},
}

// resolveRole runs the rule table with short-circuit evaluation.
func resolveRole(ctx *resolutionContext) resolutionOutcome {
	for _, rule := range resolutionRules {
		if out, ok := rule.apply(ctx); ok {
			return out
		}
	}
	// The default rule always fires; this is unreachable.
	return resolutionOutcome{role: ctx.cfg.DefaultRole}
}

// sectionHeaderRule: a header is the role. Keyword-derived roles become
// metadata only and never override it.
func sectionHeaderRule(ctx *resolutionContext) (resolutionOutcome, bool) {
	if ctx.sectionRole == "" {
		return resolutionOutcome{}, false
	}
	conf := ctx.cfg.SectionConfidence
	if s := ctx.scores[ctx.sectionRole]; s > conf {
		conf = s
	}
	inferred := ""
	if top, score := topScoringRole(ctx); score > 0 && top != ctx.sectionRole {
		inferred = top
	}
	return resolutionOutcome{role: ctx.sectionRole, confidence: conf, inferred: inferred}, true
}

// compoundActionRule: character keywords plus a detected verb promote the
// unit to the action role.
func compoundActionRule(ctx *resolutionContext) (resolutionOutcome, bool) {
	if !ctx.cfg.CompoundHeuristic || !ctx.verb {
		return resolutionOutcome{}, false
	}
	charScore := ctx.scores[ontology.RoleCharacter]
	if charScore <= 0 {
		return resolutionOutcome{}, false
	}
	conf := math.Min(0.95, (charScore+ctx.scores[ontology.RoleAction]+0.3)/2)
	return resolutionOutcome{role: ontology.RoleAction, confidence: conf, compound: true}, true
}

// topScoreRule: highest score wins, ties break by registry priority.
func topScoreRule(ctx *resolutionContext) (resolutionOutcome, bool) {
	role, score := topScoringRole(ctx)
	if score <= 0 {
		return resolutionOutcome{}, false
	}
	return resolutionOutcome{role: role, confidence: score}, true
}

// defaultRule: nothing scored, fall back to the configured default role.
func defaultRule(ctx *resolutionContext) (resolutionOutcome, bool) {
	return resolutionOutcome{role: ctx.cfg.DefaultRole, confidence: 0}, true
}

// topScoringRole scans roles in registry priority order so an equal score
// resolves to the higher-priority role.
func topScoringRole(ctx *resolutionContext) (string, float64) {
	best := ""
	bestScore := 0.0
	for _, id := range ctx.registry.IDs() {
		if s := ctx.scores[id]; s > bestScore {
			best = id
			bestScore = s
		}
	}
	return best, bestScore
}
