// Package stem reduces inflected English words to a base form using ordered
// suffix rules plus small irregular/exception tables. It is pure and
// table-driven: no external state, same input always yields the same output.
// This is intentionally not a full Porter stemmer - it only needs to be good
// enough to match prompt keywords against their common inflections.
package stem

import (
	"regexp"
	"strings"
)

// irregular maps inflected forms that no suffix rule can reach.
var irregular = map[string]string{
	"ran":      "run",
	"went":     "go",
	"gone":     "go",
	"took":     "take",
	"taken":    "take",
	"gave":     "give",
	"given":    "give",
	"made":     "make",
	"got":      "get",
	"saw":      "see",
	"seen":     "see",
	"came":     "come",
	"held":     "hold",
	"stood":    "stand",
	"sat":      "sit",
	"felt":     "feel",
	"kept":     "keep",
	"left":     "leave",
	"met":      "meet",
	"told":     "tell",
	"thought":  "think",
	"brought":  "bring",
	"caught":   "catch",
	"taught":   "teach",
	"fought":   "fight",
	"bought":   "buy",
	"wore":     "wear",
	"worn":     "wear",
	"lay":      "lie",
	"men":      "man",
	"women":    "woman",
	"children": "child",
	"people":   "person",
	"feet":     "foot",
}

// exceptions are words that end in an inflection-shaped suffix but are
// already base forms ("this" is not "thi" + s, "bring" is not "br" + ing).
var exceptions = map[string]bool{
	"this":       true,
	"his":        true,
	"its":        true,
	"was":        true,
	"has":        true,
	"yes":        true,
	"gas":        true,
	"bus":        true,
	"lens":       true,
	"bring":      true,
	"cling":      true,
	"sting":      true,
	"swing":      true,
	"thing":      true,
	"nothing":    true,
	"something":  true,
	"anything":   true,
	"everything": true,
	"during":     true,
	"morning":    true,
	"evening":    true,
	"ceiling":    true,
	"darling":    true,
	"sibling":    true,
	"lightning":  true,
	"series":     true,
	"species":    true,
	"always":     true,
	"perhaps":    true,
	"towards":    true,
	"sideways":   true,
}

// knownBases anchors doubled-consonant undoubling and silent-e restoration.
// A stripped candidate found here (or here after appending "e") is accepted
// verbatim before any undoubling guess is made.
var knownBases = map[string]bool{
	// verbs whose doubled forms must not be undoubled
	"fall": true, "tell": true, "kiss": true, "miss": true, "pass": true,
	"press": true, "dress": true, "cross": true, "toss": true, "pull": true,
	"roll": true, "fill": true, "call": true, "smell": true, "yell": true,
	// silent-e verbs common in prompt text
	"make": true, "take": true, "give": true, "love": true, "move": true,
	"come": true, "dance": true, "smile": true, "gaze": true, "stare": true,
	"embrace": true, "caress": true, "close": true, "pose": true, "ride": true,
	"write": true, "hide": true, "shine": true, "glide": true, "wave": true,
	"whisper": true, "stroke": true, "breathe": true, "leave": true,
	"chase": true, "raise": true, "place": true, "face": true, "frame": true,
	"zoom": true, "pan": true, "tilt": true, "fade": true, "dissolve": true,
	// plain bases, listed so undoubling logic never sees them
	"walk": true, "watch": true, "want": true, "hold": true, "look": true,
	"open": true, "turn": true, "lean": true, "jump": true, "laugh": true,
	"fight": true, "climb": true, "stand": true, "wander": true,
}

var wordRe = regexp.MustCompile(`[a-z0-9']+`)

// Stem reduces a word to its canonical base form.
// Words under 3 characters pass through unchanged.
func Stem(word string) string {
	w := strings.ToLower(strings.TrimSpace(word))
	if len(w) < 3 {
		return w
	}
	if base, ok := irregular[w]; ok {
		return base
	}
	if exceptions[w] {
		return w
	}

	switch {
	case strings.HasSuffix(w, "ing") && len(w) > 4:
		return restoreBase(w[:len(w)-3])

	case strings.HasSuffix(w, "ied") && len(w) > 3:
		return w[:len(w)-3] + "y"

	case strings.HasSuffix(w, "ies") && len(w) > 3:
		return w[:len(w)-3] + "y"

	case strings.HasSuffix(w, "ed") && len(w) > 3:
		return restoreBase(w[:len(w)-2])

	case strings.HasSuffix(w, "es") && len(w) > 3:
		trunk := w[:len(w)-2]
		if sibilantOrO(trunk) {
			// watches -> watch, heroes -> hero
			return trunk
		}
		// scenes -> scene, makes -> make: only the s comes off
		return w[:len(w)-1]

	case strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && len(w) > 3:
		return w[:len(w)-1]
	}

	return w
}

// restoreBase repairs a candidate left over after stripping -ing/-ed.
func restoreBase(base string) string {
	if knownBases[base] {
		return base
	}
	if knownBases[base+"e"] {
		// mak -> make, lov -> love
		return base + "e"
	}
	n := len(base)
	if n >= 3 && base[n-1] == base[n-2] && undoubles(base[n-1]) {
		// runn -> run, stopp -> stop
		return base[:n-1]
	}
	return base
}

// undoubles reports whether c is a consonant that English doubles before
// -ing/-ed (l and s excluded: "falling", "kissing" keep their doubles).
func undoubles(c byte) bool {
	switch c {
	case 'b', 'd', 'g', 'm', 'n', 'p', 'r', 't':
		return true
	}
	return false
}

// sibilantOrO reports whether trunk ends in a sibilant or -o, i.e. the -es
// plural was epenthetic and the whole "es" comes off.
func sibilantOrO(trunk string) bool {
	if trunk == "" {
		return false
	}
	switch trunk[len(trunk)-1] {
	case 's', 'x', 'z', 'o':
		return true
	}
	return strings.HasSuffix(trunk, "ch") || strings.HasSuffix(trunk, "sh")
}

// FindStemMatches returns the keywords whose literal or stemmed form occurs
// in text, matching inflected surface forms without enumerating inflections.
// Multi-word keywords match by substring on the lowered text.
func FindStemMatches(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	words := wordRe.FindAllString(lower, -1)

	surface := make(map[string]bool, len(words))
	stems := make(map[string]bool, len(words))
	for _, w := range words {
		surface[w] = true
		stems[Stem(w)] = true
	}

	var matched []string
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if strings.ContainsAny(k, " -_") {
			if strings.Contains(lower, k) {
				matched = append(matched, kw)
			}
			continue
		}
		if surface[k] || stems[k] || stems[Stem(k)] {
			matched = append(matched, kw)
		}
	}
	return matched
}
