package roles

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"promptparse/internal/logging"
)

// RoleHint is the validated schema for one pack-provided role definition.
// Unknown YAML fields are tolerated; a missing id is not.
type RoleHint struct {
	ID          string   `yaml:"id" json:"id"`
	Label       string   `yaml:"label,omitempty" json:"label,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Aliases     []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Priority    int      `yaml:"priority,omitempty" json:"priority,omitempty"`
}

// PackDefinition is an externally-managed bundle of role definitions and
// keyword hints extending the vocabulary without code changes.
type PackDefinition struct {
	ID    string     `yaml:"id" json:"id"`
	Name  string     `yaml:"name,omitempty" json:"name,omitempty"`
	Roles []RoleHint `yaml:"roles,omitempty" json:"roles,omitempty"`

	// Hints maps "role:<id>" or bare role ids to extra keywords.
	Hints map[string][]string `yaml:"hints,omitempty" json:"hints,omitempty"`
}

// Validate checks the pack schema at the loading boundary so the classifier
// never has to defensively type-check at runtime.
func (p *PackDefinition) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("pack id is required")
	}
	for i, role := range p.Roles {
		if NormalizeID(role.ID) == "" {
			return fmt.Errorf("pack %q: role %d has empty id", p.ID, i)
		}
	}
	for key := range p.Hints {
		if NormalizeID(key) == "" {
			return fmt.Errorf("pack %q: hint key %q normalizes to empty", p.ID, key)
		}
	}
	return nil
}

// ParsePack decodes and validates a YAML pack definition.
func ParsePack(data []byte) (*PackDefinition, error) {
	var pack PackDefinition
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse pack: %w", err)
	}
	if err := pack.Validate(); err != nil {
		return nil, err
	}
	return &pack, nil
}

// LoadPackFile reads and parses a pack definition from disk.
func LoadPackFile(path string) (*PackDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pack file: %w", err)
	}
	pack, err := ParsePack(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pack, nil
}

// RegisterPack merges a pack's structured role list and loose hints into
// the registry. Structured definitions go first so hint keywords union into
// the freshly registered roles.
func (r *Registry) RegisterPack(pack *PackDefinition) error {
	if pack == nil {
		return fmt.Errorf("nil pack")
	}
	if err := pack.Validate(); err != nil {
		return err
	}

	timer := logging.StartTimer(logging.CategoryRegistry, "RegisterPack")
	defer timer.Stop()

	for _, hint := range pack.Roles {
		r.Register(Definition{
			ID:          hint.ID,
			Label:       hint.Label,
			Description: hint.Description,
			Keywords:    hint.Keywords,
			Aliases:     hint.Aliases,
			Priority:    hint.Priority,
		}, false)
	}
	r.ApplyHints(pack.Hints)

	logging.Registry("Registered pack %q: %d roles, %d hint entries", pack.ID, len(pack.Roles), len(pack.Hints))
	return nil
}
