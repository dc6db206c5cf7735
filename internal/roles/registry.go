// Package roles manages the dynamic role catalog: built-in definitions,
// pack-provided extensions, and transient per-call hint overrides. The
// registry is an explicit injectable object; construct one shared instance
// and pass it by reference. Concurrent reads are safe once mutation stops;
// mutation itself (hint application, pack registration) must be externally
// serialized.
package roles

import (
	"sort"
	"strings"

	"promptparse/internal/logging"
	"promptparse/internal/ontology"
)

// Definition describes one role: its canonical id, display metadata,
// matchable vocabulary, and tie-break priority.
type Definition struct {
	// ID is canonical: lower-case, no "role:" prefix.
	ID          string
	Label       string
	Description string

	// Keywords are deduplicated case-insensitively, first spelling wins.
	Keywords []string

	// Aliases resolve to this role via the registry alias index.
	Aliases []string

	// Priority breaks scoring ties; higher wins.
	Priority int

	// ActionVerbs optionally narrows the verb set for this role.
	ActionVerbs []string
}

func (d Definition) clone() Definition {
	out := d
	out.Keywords = append([]string(nil), d.Keywords...)
	out.Aliases = append([]string(nil), d.Aliases...)
	out.ActionVerbs = append([]string(nil), d.ActionVerbs...)
	return out
}

// Registry is the role-id -> Definition map plus the alias -> canonical-id
// index. Alias collisions resolve last-registration-wins with a logged
// warning.
type Registry struct {
	defs    map[string]*Definition
	aliases map[string]string
	onto    *ontology.Store
}

// NewRegistry builds a registry seeded with the built-in roles from the
// ontology store.
func NewRegistry(onto *ontology.Store) *Registry {
	if onto == nil {
		onto = ontology.NewStore()
	}
	r := &Registry{
		defs:    make(map[string]*Definition),
		aliases: make(map[string]string),
		onto:    onto,
	}
	for _, id := range onto.RoleIDs() {
		def := Definition{
			ID:       id,
			Label:    strings.Title(id),
			Keywords: append([]string(nil), onto.Keywords(id)...),
			Priority: ontology.BuiltinPriorities[id],
		}
		r.defs[id] = &def
	}
	logging.RegistryDebug("Registry seeded with %d built-in roles", len(r.defs))
	return r
}

// Ontology returns the static vocabulary this registry was seeded from.
func (r *Registry) Ontology() *ontology.Store {
	return r.onto
}

// NormalizeID strips an optional "role:" prefix and lower-cases.
func NormalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.TrimPrefix(id, "role:")
}

// ResolveRoleID normalizes id and follows the alias index. The second
// return value reports whether the resolved id names a registered role.
func (r *Registry) ResolveRoleID(id string) (string, bool) {
	norm := NormalizeID(id)
	if canonical, ok := r.aliases[norm]; ok {
		norm = canonical
	}
	_, known := r.defs[norm]
	return norm, known
}

// Get returns a copy of the definition for id (after alias resolution).
func (r *Registry) Get(id string) (Definition, bool) {
	norm, ok := r.ResolveRoleID(id)
	if !ok {
		return Definition{}, false
	}
	return r.defs[norm].clone(), true
}

// IDs returns all registered role ids sorted by priority descending,
// id ascending on equal priority.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		pi, pj := r.defs[ids[i]].Priority, r.defs[ids[j]].Priority
		if pi != pj {
			return pi > pj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Priority returns the tie-break priority for id, 0 when unknown.
func (r *Registry) Priority(id string) int {
	if norm, ok := r.ResolveRoleID(id); ok {
		return r.defs[norm].Priority
	}
	return 0
}

// Register merges def into the registry. With overwrite false (the normal
// path) keywords and aliases union into an existing entry and priority is
// overwritten only when explicitly supplied (non-zero); overwrite true
// replaces the entry wholesale.
func (r *Registry) Register(def Definition, overwrite bool) {
	id := NormalizeID(def.ID)
	if id == "" {
		logging.RegistryWarn("Ignoring role definition with empty id")
		return
	}
	def.ID = id

	existing, exists := r.defs[id]
	if !exists || overwrite {
		stored := def.clone()
		stored.Keywords = dedupeFold(stored.Keywords)
		stored.Aliases = dedupeFold(stored.Aliases)
		if stored.Priority == 0 && !exists {
			stored.Priority = ontology.DynamicRolePriority
		}
		r.defs[id] = &stored
	} else {
		existing.Keywords = dedupeFold(append(existing.Keywords, def.Keywords...))
		existing.Aliases = dedupeFold(append(existing.Aliases, def.Aliases...))
		existing.ActionVerbs = dedupeFold(append(existing.ActionVerbs, def.ActionVerbs...))
		if def.Label != "" {
			existing.Label = def.Label
		}
		if def.Description != "" {
			existing.Description = def.Description
		}
		if def.Priority != 0 {
			existing.Priority = def.Priority
		}
	}

	for _, alias := range r.defs[id].Aliases {
		a := NormalizeID(alias)
		if a == "" || a == id {
			continue
		}
		if prev, ok := r.aliases[a]; ok && prev != id {
			logging.RegistryWarn("Alias collision: %q moves from role %q to %q", a, prev, id)
		}
		r.aliases[a] = id
	}

	logging.RegistryDebug("Registered role %q (overwrite=%v, keywords=%d)", id, overwrite, len(r.defs[id].Keywords))
}

// ApplyHints merges a role-id -> keywords map into the registry. Unknown
// roles are auto-created at the default dynamic priority. Hint keys accept
// the "role:" prefix and aliases.
func (r *Registry) ApplyHints(hints map[string][]string) {
	for rawID, keywords := range hints {
		id, _ := r.ResolveRoleID(rawID)
		if id == "" {
			continue
		}
		r.Register(Definition{ID: id, Keywords: keywords}, false)
	}
}

// AddKeywords appends keywords to a role, creating it if unknown.
func (r *Registry) AddKeywords(roleID string, keywords []string) {
	r.ApplyHints(map[string][]string{roleID: keywords})
}

// RemoveKeywords deletes keywords from a role, case-insensitively.
// Unknown roles are a no-op.
func (r *Registry) RemoveKeywords(roleID string, keywords []string) {
	id, ok := r.ResolveRoleID(roleID)
	if !ok {
		return
	}
	drop := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		drop[strings.ToLower(strings.TrimSpace(kw))] = true
	}
	def := r.defs[id]
	kept := def.Keywords[:0]
	for _, kw := range def.Keywords {
		if !drop[strings.ToLower(kw)] {
			kept = append(kept, kw)
		}
	}
	def.Keywords = kept
}

// Clone deep-copies the registry so transient mutation never touches the
// shared instance.
func (r *Registry) Clone() *Registry {
	out := &Registry{
		defs:    make(map[string]*Definition, len(r.defs)),
		aliases: make(map[string]string, len(r.aliases)),
		onto:    r.onto,
	}
	for id, def := range r.defs {
		c := def.clone()
		out.defs[id] = &c
	}
	for a, id := range r.aliases {
		out.aliases[a] = id
	}
	return out
}

// WithOverrides returns a new registry equal to base with hints applied.
// base is never mutated; this is the copy-on-write entry point for
// per-call hint application.
func WithOverrides(base *Registry, hints map[string][]string) *Registry {
	out := base.Clone()
	if len(hints) > 0 {
		out.ApplyHints(hints)
	}
	return out
}

// dedupeFold removes case-insensitive duplicates and blanks, keeping the
// first spelling seen.
func dedupeFold(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		trimmed := strings.TrimSpace(s)
		key := strings.ToLower(trimmed)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, trimmed)
	}
	return out
}
