// Package ontology holds the static vocabulary: the built-in role keyword
// table, the action-verb list used by the compound heuristic, and the global
// keyword -> canonical ontology id index. Everything here is read-only after
// construction; dynamic vocabulary lives in the roles package.
package ontology

import (
	"strings"

	"promptparse/internal/logging"
)

// Built-in role ids. "other" is the default catch-all with no keywords.
const (
	RoleCharacter = "character"
	RoleAction    = "action"
	RoleSetting   = "setting"
	RoleMood      = "mood"
	RoleRomance   = "romance"
	RoleCamera    = "camera"
	RoleOther     = "other"
)

// BuiltinRoleOrder lists built-in roles in priority order, highest first.
// Ties in keyword scoring break along this order.
var BuiltinRoleOrder = []string{
	RoleRomance, RoleMood, RoleSetting, RoleAction, RoleCharacter, RoleCamera, RoleOther,
}

// BuiltinPriorities maps built-in role ids to their tie-break priority.
// Dynamically registered roles default to DynamicRolePriority, which slots
// between camera and character.
var BuiltinPriorities = map[string]int{
	RoleRomance:   60,
	RoleMood:      50,
	RoleSetting:   40,
	RoleAction:    30,
	RoleCharacter: 20,
	RoleCamera:    10,
	RoleOther:     0,
}

// DynamicRolePriority is the default priority for roles created from hints.
const DynamicRolePriority = 15

// roleKeywords is the static role -> keyword table.
var roleKeywords = map[string][]string{
	RoleCharacter: {
		"woman", "man", "girl", "boy", "person", "figure", "couple",
		"stranger", "child", "lady", "gentleman", "warrior", "knight",
		"princess", "prince", "queen", "king", "wizard", "witch",
		"vampire", "elf", "dragon", "ghost", "angel", "demon", "hero",
		"villain", "dancer", "singer", "soldier", "hunter", "thief",
	},
	RoleAction: {
		"walk", "run", "dance", "jump", "fight", "chase", "climb",
		"swim", "ride", "throw", "catch", "grab", "push", "pull",
		"turn", "lean", "sit", "stand", "hold", "open", "close",
		"whisper", "laugh", "cry", "smile", "gaze", "stare", "wander",
		"stroll", "spin", "reach", "wave",
	},
	RoleSetting: {
		"forest", "castle", "beach", "city", "village", "room",
		"bedroom", "kitchen", "garden", "mountain", "river", "lake",
		"ocean", "desert", "cave", "dungeon", "tavern", "street",
		"rooftop", "balcony", "night", "sunset", "sunrise", "dawn",
		"dusk", "rain", "snow", "storm", "fog", "moonlight", "candlelight",
	},
	RoleMood: {
		"happy", "sad", "dark", "bright", "mysterious", "tense",
		"dramatic", "cheerful", "gloomy", "melancholy", "eerie",
		"peaceful", "serene", "chaotic", "intense", "gentle", "soft",
		"harsh", "rough", "violent", "playful", "somber", "dreamy",
		"nostalgic", "ominous", "tender",
	},
	RoleRomance: {
		"kiss", "love", "romantic", "romance", "intimate", "passion",
		"passionate", "embrace", "caress", "flirt", "seduce", "cuddle",
		"affection", "desire", "longing", "sensual", "adore",
	},
	RoleCamera: {
		"close-up", "closeup", "wide shot", "medium shot", "pov",
		"first-person", "point of view", "angle", "zoom", "pan",
		"dolly", "tracking", "aerial", "overhead", "handheld",
		"slow motion", "framing", "tilt", "crane",
	},
	RoleOther: {},
}

// actionVerbs feeds the character+verb compound heuristic only; it never
// drives role scoring directly.
var actionVerbs = map[string]bool{
	"walk": true, "run": true, "dance": true, "jump": true, "fight": true,
	"chase": true, "climb": true, "swim": true, "ride": true, "throw": true,
	"catch": true, "grab": true, "push": true, "pull": true, "turn": true,
	"lean": true, "sit": true, "stand": true, "hold": true, "open": true,
	"close": true, "whisper": true, "laugh": true, "cry": true, "smile": true,
	"gaze": true, "stare": true, "wander": true, "stroll": true, "spin": true,
	"reach": true, "wave": true, "kiss": true, "embrace": true, "caress": true,
	"hug": true, "carry": true, "lift": true, "sing": true, "play": true,
}

// defaultKeywordIndex maps keywords to canonical ontology ids. It is
// consulted after role classification to annotate matches, never to drive
// role selection.
var defaultKeywordIndex = map[string]string{
	"pov":            "camera:angle_pov",
	"first-person":   "camera:angle_pov",
	"point of view":  "camera:angle_pov",
	"close-up":       "camera:framing_closeup",
	"closeup":        "camera:framing_closeup",
	"wide shot":      "camera:framing_wide",
	"dolly":          "camera:move_dolly",
	"zoom":           "camera:move_zoom",
	"pan":            "camera:move_pan",
	"tracking":       "camera:move_tracking",
	"aerial":         "camera:angle_aerial",
	"overhead":       "camera:angle_overhead",
	"slow motion":    "camera:speed_slowmo",
	"night":          "setting:time_night",
	"sunset":         "setting:time_sunset",
	"sunrise":        "setting:time_sunrise",
	"dawn":           "setting:time_dawn",
	"dusk":           "setting:time_dusk",
	"rain":           "setting:weather_rain",
	"snow":           "setting:weather_snow",
	"storm":          "setting:weather_storm",
	"fog":            "setting:weather_fog",
	"forest":         "setting:location_forest",
	"castle":         "setting:location_castle",
	"beach":          "setting:location_beach",
	"moonlight":      "setting:light_moon",
	"candlelight":    "setting:light_candle",
	"kiss":           "romance:act_kiss",
	"embrace":        "romance:act_embrace",
	"caress":         "romance:act_caress",
	"cuddle":         "romance:act_cuddle",
	"gentle":         "mood:tone_soft",
	"soft":           "mood:tone_soft",
	"intense":        "mood:tone_intense",
	"violent":        "mood:tone_intense",
}

// keyNormalizer folds delimiter variants so "close-up", "close_up", and
// "close up" share one index entry. The classifier records matched
// keywords in this same normalized form.
var keyNormalizer = strings.NewReplacer("_", " ", "-", " ")

func normalizeKey(k string) string {
	return keyNormalizer.Replace(strings.ToLower(strings.TrimSpace(k)))
}

var normalizedDefaultIndex = func() map[string]string {
	out := make(map[string]string, len(defaultKeywordIndex))
	for k, v := range defaultKeywordIndex {
		out[normalizeKey(k)] = v
	}
	return out
}()

// Store is the static vocabulary snapshot handed to registries and
// classifiers. Construct once, treat read-only.
type Store struct {
	keywords map[string][]string
	verbs    map[string]bool
	index    map[string]string
}

// NewStore returns the built-in vocabulary.
func NewStore() *Store {
	return &Store{
		keywords: roleKeywords,
		verbs:    actionVerbs,
		index:    normalizedDefaultIndex,
	}
}

// NewStoreWithIndex returns the built-in vocabulary with an external
// keyword -> ontology id index layered over the default one. The external
// index wins on collision.
func NewStoreWithIndex(index map[string]string) *Store {
	merged := make(map[string]string, len(normalizedDefaultIndex)+len(index))
	for k, v := range normalizedDefaultIndex {
		merged[k] = v
	}
	for k, v := range index {
		key := normalizeKey(k)
		if key == "" || v == "" {
			continue
		}
		merged[key] = v
	}
	logging.OntologyDebug("Keyword index loaded: %d entries (%d external)", len(merged), len(index))
	return &Store{
		keywords: roleKeywords,
		verbs:    actionVerbs,
		index:    merged,
	}
}

// RoleIDs returns the built-in role ids in priority order.
func (s *Store) RoleIDs() []string {
	out := make([]string, len(BuiltinRoleOrder))
	copy(out, BuiltinRoleOrder)
	return out
}

// Keywords returns the built-in keywords for a role (nil for unknown roles).
// Callers must not mutate the returned slice.
func (s *Store) Keywords(roleID string) []string {
	return s.keywords[strings.ToLower(roleID)]
}

// IsActionVerb reports whether w (already lowered, surface or stem form)
// is in the action-verb list.
func (s *Store) IsActionVerb(w string) bool {
	return s.verbs[w]
}

// Resolve returns the canonical ontology id for a keyword, if any. Lookup
// is delimiter-insensitive, matching how the classifier records matches.
func (s *Store) Resolve(keyword string) (string, bool) {
	id, ok := s.index[normalizeKey(keyword)]
	return id, ok
}

// ResolveAll maps matched keywords to their ontology ids, deduplicated,
// order preserved.
func (s *Store) ResolveAll(keywords []string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, kw := range keywords {
		id, ok := s.Resolve(kw)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
