// Package negation finds negated text spans from a fixed pattern table.
// It operates on raw text only: no role, sentence, or registry logic. A
// trigger word ("not", "without", ...) negates a fixed number of following
// words, or everything up to the next clause boundary for unbounded triggers.
package negation

import (
	"regexp"
	"sort"
	"strings"
)

// Span marks a negated region of text. Spans from different patterns are
// independent; they are sorted by start but never merged.
type Span struct {
	Start     int    // byte offset of the first negated word
	End       int    // byte offset just past the last negated word
	PatternID string // trigger that produced the span
	Text      string // literal negated text
}

// pattern is one entry of the fixed trigger table. Scope is the number of
// following words negated; 0 means "until the next clause boundary".
type pattern struct {
	trigger string
	scope   int
}

// patterns is ordered: multi-word triggers first so "none of" wins over "no".
var patterns = []pattern{
	{"none of", 0},
	{"lack of", 4},
	{"absence of", 4},
	{"free from", 4},
	{"isn't", 3},
	{"aren't", 3},
	{"wasn't", 3},
	{"weren't", 3},
	{"doesn't", 3},
	{"don't", 3},
	{"didn't", 3},
	{"can't", 3},
	{"cannot", 3},
	{"won't", 3},
	{"wouldn't", 3},
	{"shouldn't", 3},
	{"without", 4},
	{"never", 4},
	{"neither", 0},
	{"not", 3},
	{"no", 3},
}

var wordRe = regexp.MustCompile(`[a-zA-Z0-9']+`)

// clauseBoundary characters end an unbounded negation scope.
const clauseBoundary = ",;:.!?"

// word is a token with its absolute offsets.
type word struct {
	text  string
	start int
	end   int
}

func tokenize(text string) []word {
	locs := wordRe.FindAllStringIndex(text, -1)
	out := make([]word, 0, len(locs))
	for _, loc := range locs {
		out = append(out, word{
			text:  strings.ToLower(text[loc[0]:loc[1]]),
			start: loc[0],
			end:   loc[1],
		})
	}
	return out
}

// triggerAt reports the pattern starting at word index i, if any.
// Multi-word triggers consume multiple tokens.
func triggerAt(words []word, i int) (pattern, int, bool) {
	for _, p := range patterns {
		parts := strings.Fields(p.trigger)
		if i+len(parts) > len(words) {
			continue
		}
		hit := true
		for j, part := range parts {
			if words[i+j].text != part {
				hit = false
				break
			}
		}
		if hit {
			return p, len(parts), true
		}
	}
	return pattern{}, 0, false
}

// FindNegatedSpans returns every negated span in text, sorted by start.
func FindNegatedSpans(text string) []Span {
	words := tokenize(text)
	var spans []Span

	for i := 0; i < len(words); i++ {
		p, consumed, ok := triggerAt(words, i)
		if !ok {
			continue
		}
		first := i + consumed
		if first >= len(words) {
			continue
		}

		last := first
		if p.scope == 0 {
			// Unbounded: extend to the next clause boundary or end of text.
			for last+1 < len(words) {
				gap := text[words[last].end:words[last+1].start]
				if strings.ContainsAny(gap, clauseBoundary) {
					break
				}
				last++
			}
		} else {
			last = first + p.scope - 1
			if last >= len(words) {
				last = len(words) - 1
			}
			// A fixed scope still stops at a clause boundary.
			for j := first; j < last; j++ {
				gap := text[words[j].end:words[j+1].start]
				if strings.ContainsAny(gap, clauseBoundary) {
					last = j
					break
				}
			}
		}

		spans = append(spans, Span{
			Start:     words[first].start,
			End:       words[last].end,
			PatternID: p.trigger,
			Text:      text[words[first].start:words[last].end],
		})
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

// NegatedWords returns the lowered words of text covered by any negated span.
// A word counts as negated if its offset falls inside a span or a span
// starts inside it.
func NegatedWords(text string) []string {
	spans := FindNegatedSpans(text)
	if len(spans) == 0 {
		return nil
	}
	words := tokenize(text)

	var out []string
	seen := make(map[string]bool)
	for _, w := range words {
		if !covered(w, spans) {
			continue
		}
		if !seen[w.text] {
			seen[w.text] = true
			out = append(out, w.text)
		}
	}
	return out
}

func covered(w word, spans []Span) bool {
	for _, s := range spans {
		inSpan := w.start >= s.Start && w.start < s.End
		spanStartsInside := s.Start >= w.start && s.Start < w.end
		if inSpan || spanStartsInside {
			return true
		}
	}
	return false
}

// FilterNegatedKeywords splits keywords into those safe to match positively
// and those excluded because they appear negated in text.
func FilterNegatedKeywords(keywords []string, text string) (kept, negated []string) {
	negSet := make(map[string]bool)
	for _, w := range NegatedWords(text) {
		negSet[w] = true
	}

	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		excluded := false
		for _, part := range strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(k)) {
			if negSet[part] {
				excluded = true
				break
			}
		}
		if excluded {
			negated = append(negated, kw)
		} else {
			kept = append(kept, kw)
		}
	}
	return kept, negated
}

// RemoveNegatedFromText strips every negated span (and its trigger has
// already done its work, so only the span text goes) and collapses the
// leftover whitespace.
func RemoveNegatedFromText(text string) string {
	spans := FindNegatedSpans(text)
	if len(spans) == 0 {
		return text
	}

	var sb strings.Builder
	pos := 0
	for _, s := range spans {
		if s.Start > pos {
			sb.WriteString(text[pos:s.Start])
		}
		if s.End > pos {
			pos = s.End
		}
	}
	if pos < len(text) {
		sb.WriteString(text[pos:])
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
