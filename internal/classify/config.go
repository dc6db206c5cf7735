package classify

import (
	"fmt"
	"strings"

	"promptparse/internal/ontology"
)

// KeywordPatch adds or removes keywords for one role before scoring.
// Adding to an unknown role creates it.
type KeywordPatch struct {
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

// Config is the per-call configuration surface of the classifier. Every
// toggle defaults to enabled; use DefaultConfig and override fields rather
// than building from zero.
type Config struct {
	// Sections enables the header-aware section pre-pass.
	Sections bool `json:"sections"`

	// Stemming enables stem-based keyword matching.
	Stemming bool `json:"stemming"`

	// Negation enables negated-span filtering.
	Negation bool `json:"negation"`

	// CompoundHeuristic enables character+verb promotion to the action role.
	CompoundHeuristic bool `json:"compound_heuristic"`

	// OntologyAnnotation enables ontology-id resolution of matched keywords.
	OntologyAnnotation bool `json:"ontology_annotation"`

	// MinConfidence forces any segment scoring below it to the default role
	// at confidence 0. Zero disables the floor.
	MinConfidence float64 `json:"min_confidence"`

	// DisabledRoles are excluded from scoring entirely.
	DisabledRoles []string `json:"disabled_roles,omitempty"`

	// KeywordPatches are applied pre-scoring, case-insensitively.
	KeywordPatches map[string]KeywordPatch `json:"keyword_patches,omitempty"`

	// DefaultRole receives segments that match nothing.
	DefaultRole string `json:"default_role"`

	// SectionConfidence is the confidence floor for header-labeled segments.
	// Values <= 0 are treated as unset and default to 0.9; the floor cannot
	// be disabled outright, only lowered.
	SectionConfidence float64 `json:"section_confidence"`
}

// DefaultConfig returns the fully-enabled configuration.
func DefaultConfig() Config {
	return Config{
		Sections:           true,
		Stemming:           true,
		Negation:           true,
		CompoundHeuristic:  true,
		OntologyAnnotation: true,
		MinConfidence:      0,
		DefaultRole:        ontology.RoleOther,
		SectionConfidence:  0.9,
	}
}

// Validate rejects structurally invalid configuration. Called at classifier
// construction; nothing is checked mid-parse.
func (c Config) Validate() error {
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence %v outside [0,1]", c.MinConfidence)
	}
	if c.SectionConfidence < 0 || c.SectionConfidence > 1 {
		return fmt.Errorf("section_confidence %v outside [0,1]", c.SectionConfidence)
	}
	return nil
}

// normalize clamps numeric fields and fills zero-value defaults so the
// pipeline never branches on missing configuration.
func (c Config) normalize() Config {
	if c.MinConfidence < 0 {
		c.MinConfidence = 0
	}
	if c.MinConfidence > 1 {
		c.MinConfidence = 1
	}
	// Zero means unset here, not "no floor"; see the field doc.
	if c.SectionConfidence <= 0 {
		c.SectionConfidence = 0.9
	}
	if c.SectionConfidence > 1 {
		c.SectionConfidence = 1
	}
	if strings.TrimSpace(c.DefaultRole) == "" {
		c.DefaultRole = ontology.RoleOther
	}
	c.DefaultRole = strings.ToLower(strings.TrimSpace(c.DefaultRole))
	return c
}
