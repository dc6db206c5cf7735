// Package types defines the shared result schema produced by every analyzer:
// role-tagged segments, optional header sections, and derived tags. All
// analyzers (deterministic or generative) must resolve to these types so
// downstream consumers never branch on the strategy that produced a result.
package types

// Segment is a contiguous span of prompt text assigned exactly one role.
type Segment struct {
	// Role is the resolved canonical role id (lower-case, no "role:" prefix).
	Role string `json:"role"`

	// Text is the trimmed segment text.
	Text string `json:"text"`

	// Start and End are absolute byte offsets of the trimmed span in the
	// original input text.
	Start int `json:"start"`
	End   int `json:"end"`

	// SentenceIndex is the position of this segment among all segments.
	SentenceIndex int `json:"sentence_index"`

	// SectionIndex is the index of the owning section, or -1 when the text
	// had no header sections.
	SectionIndex int `json:"section_index"`

	// Confidence is the winning role's score in [0,1], rounded to 3 decimals.
	Confidence float64 `json:"confidence"`

	// MatchedKeywords lists every keyword that matched, deduplicated,
	// in first-match order across roles.
	MatchedKeywords []string `json:"matched_keywords,omitempty"`

	// Scores maps role id to its raw keyword score for this segment.
	Scores map[string]float64 `json:"scores,omitempty"`

	// Metadata carries per-segment diagnostics.
	Metadata SegmentMetadata `json:"metadata"`
}

// SegmentMetadata is the structured diagnostic bag attached to a segment.
type SegmentMetadata struct {
	// NegatedWords are words excluded from positive matching in this segment.
	NegatedWords []string `json:"negated_words,omitempty"`

	// RoleKeywords maps role id to the keywords that matched for that role.
	RoleKeywords map[string][]string `json:"role_keywords,omitempty"`

	// VerbDetected is set when any non-negated token is a known action verb.
	VerbDetected bool `json:"verb_detected,omitempty"`

	// CharacterAction is set when the character+verb compound heuristic
	// promoted this segment to the action role.
	CharacterAction bool `json:"character_action,omitempty"`

	// SectionLabel is the raw header label when the segment belongs to a
	// labeled section.
	SectionLabel string `json:"section_label,omitempty"`

	// InferredRole is the keyword-derived role when a section header
	// assigned the role instead.
	InferredRole string `json:"inferred_role,omitempty"`

	// OntologyIDs are canonical ontology ids resolved from matched keywords,
	// deduplicated, in match order.
	OntologyIDs []string `json:"ontology_ids,omitempty"`
}

// Section groups the segments that appeared under one explicit header.
// Label is empty for the unlabeled preamble before the first header.
type Section struct {
	Label string `json:"label,omitempty"`

	// SegmentIndices index into ParseResult.Segments, in order.
	SegmentIndices []int `json:"segment_indices"`
}

// ParseResult is the immutable output of one analysis pass.
// Sections is nil unless at least one header line was detected.
type ParseResult struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Sections []Section `json:"sections,omitempty"`
}

// TagSource identifies what produced a tag.
type TagSource string

const (
	TagSourceRole     TagSource = "role"
	TagSourceKeyword  TagSource = "keyword"
	TagSourceOntology TagSource = "ontology"
)

// Tag is a derived, search-oriented label over a ParseResult.
type Tag struct {
	Name string `json:"name"`

	Source TagSource `json:"source"`

	// Segments are the indices of contributing segments, in order.
	Segments []int `json:"segments"`

	// Confidence is the maximum confidence among contributing segments.
	Confidence float64 `json:"confidence"`
}
