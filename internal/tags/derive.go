// Package tags turns classified segments into structured and flat tag lists.
// Derivation is a pure function: identical segment lists always yield
// identical, name-sorted output.
package tags

import (
	"sort"
	"strings"

	"promptparse/internal/types"
)

// keywordTags is the fixed matched-keyword -> tag table. It is applied to
// keywords the classifier already matched, never to raw text, so negation
// and stemming have already done their filtering.
var keywordTags = map[string]string{
	"gentle":        "tone:soft",
	"soft":          "tone:soft",
	"tender":        "tone:soft",
	"intense":       "tone:intense",
	"harsh":         "tone:intense",
	"rough":         "tone:intense",
	"violent":       "tone:intense",
	"pov":           "camera:pov",
	"first person":  "camera:pov",
	"point of view": "camera:pov",
	"close up":      "camera:closeup",
	"closeup":       "camera:closeup",
	"tight framing": "camera:closeup",
}

var delimNormalizer = strings.NewReplacer("_", " ", "-", " ")

// Derive produces the structured tag list (sorted by tag name) and a
// parallel flat string list for linkage-agnostic consumers. defaultRole
// segments contribute no "has:" tag.
func Derive(segments []types.Segment, defaultRole string) ([]types.Tag, []string) {
	acc := make(map[string]*types.Tag)

	add := func(name string, source types.TagSource, segIdx int, confidence float64) {
		tag, ok := acc[name]
		if !ok {
			tag = &types.Tag{Name: name, Source: source}
			acc[name] = tag
		}
		tag.Segments = append(tag.Segments, segIdx)
		if confidence > tag.Confidence {
			tag.Confidence = confidence
		}
	}

	for i, seg := range segments {
		if seg.Role != defaultRole && seg.Role != "" {
			add("has:"+seg.Role, types.TagSourceRole, i, seg.Confidence)
		}

		for _, kw := range seg.MatchedKeywords {
			norm := delimNormalizer.Replace(strings.ToLower(kw))
			if name, ok := keywordTags[norm]; ok {
				add(name, types.TagSourceKeyword, i, seg.Confidence)
			}
		}

		for _, id := range seg.Metadata.OntologyIDs {
			add(id, types.TagSourceOntology, i, seg.Confidence)
		}
	}

	names := make([]string, 0, len(acc))
	for name := range acc {
		names = append(names, name)
	}
	sort.Strings(names)

	structured := make([]types.Tag, 0, len(names))
	flat := make([]string, 0, len(names))
	for _, name := range names {
		tag := acc[name]
		tag.Segments = dedupeInts(tag.Segments)
		structured = append(structured, *tag)
		flat = append(flat, name)
	}
	return structured, flat
}

func dedupeInts(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := in[:0]
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
