// Package analyzer hosts the pluggable analysis strategies: the descriptor
// catalog, the deterministic keyword analyzer, and the generative analyzer
// with its mandatory deterministic fallback. Every strategy resolves to the
// same types.ParseResult schema and the analysis boundary never fails.
package analyzer

import (
	"fmt"
	"strings"

	"promptparse/internal/logging"
)

// Kind is an analyzer's execution kind.
type Kind string

const (
	KindDeterministic Kind = "deterministic"
	KindGenerative    Kind = "generative"
)

// Descriptor describes one registered analysis strategy.
type Descriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Kind        Kind   `json:"kind"`

	// Target names what the analyzer consumes ("prompt" for this engine).
	Target string `json:"target"`

	// Model references the backing generative model, when any.
	Model string `json:"model,omitempty"`

	Enabled bool `json:"enabled"`
	Default bool `json:"default"`
	Legacy  bool `json:"legacy"`

	// Plugin is the owning plugin id; empty for built-ins.
	Plugin string `json:"plugin,omitempty"`
}

// Registry is the in-memory analyzer catalog. Reads are safe concurrently
// once registration settles; mutation (plugin load/unload) must be
// externally serialized, matching the role registry's contract.
type Registry struct {
	descriptors map[string]Descriptor
	legacy      map[string]string
	order       []string // registration order, for deterministic listing
}

// NewRegistry returns an empty catalog.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[string]Descriptor),
		legacy:      make(map[string]string),
	}
}

// Register adds or replaces a descriptor. A collision between two sources
// (different plugins, or plugin vs built-in) logs a warning; the most
// recent registration wins.
func (r *Registry) Register(desc Descriptor) error {
	id := strings.ToLower(strings.TrimSpace(desc.ID))
	if id == "" {
		return fmt.Errorf("analyzer descriptor requires an id")
	}
	desc.ID = id

	if prev, exists := r.descriptors[id]; exists {
		if prev.Plugin != desc.Plugin {
			logging.AnalyzerWarn("Analyzer id collision: %q re-registered by %q (was %q)",
				id, sourceName(desc.Plugin), sourceName(prev.Plugin))
		}
		if desc.Default && !prev.Default {
			r.clearDefault(desc.Target)
		}
		r.descriptors[id] = desc
		return nil
	}

	if desc.Default {
		r.clearDefault(desc.Target)
	}
	r.descriptors[id] = desc
	r.order = append(r.order, id)
	logging.AnalyzerDebug("Registered analyzer %q (kind=%s, target=%s)", id, desc.Kind, desc.Target)
	return nil
}

func sourceName(plugin string) string {
	if plugin == "" {
		return "built-in"
	}
	return plugin
}

// RegisterLegacyID maps an old analyzer id to its canonical replacement.
func (r *Registry) RegisterLegacyID(oldID, canonicalID string) {
	r.legacy[strings.ToLower(strings.TrimSpace(oldID))] = strings.ToLower(strings.TrimSpace(canonicalID))
}

// RegisterPlugin bulk-registers descriptors under one plugin scope.
func (r *Registry) RegisterPlugin(plugin string, descs ...Descriptor) error {
	for _, d := range descs {
		d.Plugin = plugin
		if err := r.Register(d); err != nil {
			return err
		}
	}
	logging.Analyzer("Plugin %q registered %d analyzers", plugin, len(descs))
	return nil
}

// UnregisterPlugin removes every descriptor owned by plugin and returns the
// removed count.
func (r *Registry) UnregisterPlugin(plugin string) int {
	removed := 0
	kept := r.order[:0]
	for _, id := range r.order {
		if r.descriptors[id].Plugin == plugin {
			delete(r.descriptors, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	if removed > 0 {
		logging.Analyzer("Plugin %q unregistered %d analyzers", plugin, removed)
	}
	return removed
}

// Resolve follows legacy-id mapping and returns the descriptor for id.
func (r *Registry) Resolve(id string) (Descriptor, bool) {
	norm := strings.ToLower(strings.TrimSpace(id))
	if canonical, ok := r.legacy[norm]; ok {
		norm = canonical
	}
	desc, ok := r.descriptors[norm]
	return desc, ok
}

// SetDefault marks id as the sole default for its target.
func (r *Registry) SetDefault(target, id string) error {
	desc, ok := r.Resolve(id)
	if !ok {
		return fmt.Errorf("unknown analyzer %q", id)
	}
	if desc.Target != target {
		return fmt.Errorf("analyzer %q targets %q, not %q", id, desc.Target, target)
	}
	r.clearDefault(target)
	desc.Default = true
	r.descriptors[desc.ID] = desc
	return nil
}

func (r *Registry) clearDefault(target string) {
	for id, d := range r.descriptors {
		if d.Target == target && d.Default {
			d.Default = false
			r.descriptors[id] = d
		}
	}
}

// GetDefault returns the default analyzer for target, falling back to the
// first enabled, non-legacy registration when no explicit default exists.
func (r *Registry) GetDefault(target string) (Descriptor, bool) {
	for _, id := range r.order {
		d := r.descriptors[id]
		if d.Target == target && d.Default {
			return d, true
		}
	}
	for _, id := range r.order {
		d := r.descriptors[id]
		if d.Target == target && d.Enabled && !d.Legacy {
			return d, true
		}
	}
	return Descriptor{}, false
}

// List returns all descriptors in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.descriptors[id])
	}
	return out
}
