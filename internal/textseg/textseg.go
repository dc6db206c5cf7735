// Package textseg segments raw prompt text: header-aware section splitting
// and punctuation-based sentence splitting. All spans carry absolute byte
// offsets into the input so downstream segments can point back at the
// original text.
package textseg

import (
	"strings"
	"unicode/utf8"
)

// maxHeaderLen bounds the label length of a section header line.
const maxHeaderLen = 48

// Sentence is a trimmed sentence span with absolute offsets.
type Sentence struct {
	Text  string
	Start int
	End   int
}

// Section is a header-delimited body span. Label is empty for the unlabeled
// preamble before the first header. Start/End bound the body, not the header
// line.
type Section struct {
	Label string
	Start int
	End   int
}

// IsHeaderLine reports whether a line has header shape: short, ends in a
// colon, and the colon terminates the line with no trailing body. An inline
// colon in running prose ("It's 5:30 now") never qualifies because the line
// does not end with the colon.
func IsHeaderLine(line string) bool {
	t := strings.TrimSpace(line)
	if !strings.HasSuffix(t, ":") {
		return false
	}
	head := strings.TrimSpace(t[:len(t)-1])
	if head == "" || len(head) > maxHeaderLen {
		return false
	}
	if strings.ContainsAny(head, ".!?:") {
		return false
	}
	return true
}

// SplitSections splits text at header lines. It returns nil when no line has
// header shape; otherwise leading text becomes an unlabeled preamble section.
func SplitSections(text string) []Section {
	type line struct {
		text  string
		start int
		end   int // exclusive, not counting the newline
	}

	var lines []line
	pos := 0
	for pos <= len(text) {
		nl := strings.IndexByte(text[pos:], '\n')
		if nl < 0 {
			lines = append(lines, line{text: text[pos:], start: pos, end: len(text)})
			break
		}
		lines = append(lines, line{text: text[pos : pos+nl], start: pos, end: pos + nl})
		pos += nl + 1
	}

	anyHeader := false
	for _, l := range lines {
		if IsHeaderLine(l.text) {
			anyHeader = true
			break
		}
	}
	if !anyHeader {
		return nil
	}

	var sections []Section
	current := -1 // index into sections of the open section
	for _, l := range lines {
		if IsHeaderLine(l.text) {
			t := strings.TrimSpace(l.text)
			label := strings.TrimSpace(t[:len(t)-1])
			sections = append(sections, Section{Label: label, Start: l.end + 1, End: l.end + 1})
			if sections[len(sections)-1].Start > len(text) {
				sections[len(sections)-1].Start = len(text)
				sections[len(sections)-1].End = len(text)
			}
			current = len(sections) - 1
			continue
		}
		if current == -1 {
			if strings.TrimSpace(l.text) == "" {
				continue
			}
			// Unlabeled preamble before the first header.
			sections = append(sections, Section{Label: "", Start: l.start, End: l.end})
			current = len(sections) - 1
			continue
		}
		if l.end > sections[current].End {
			sections[current].End = l.end
		}
	}

	return sections
}

// SplitSentences splits text into trimmed sentence spans. Terminators are
// '.', '!', '?' (runs collapse, so "..." and "?!" end one sentence), the
// ellipsis rune, and an em or en dash followed by whitespace or end of text.
// A trailing unterminated fragment is kept as a final sentence.
func SplitSentences(text string) []Sentence {
	var sentences []Sentence
	start := 0
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch r {
		case '.', '!', '?':
			j := i + size
			for j < len(text) {
				r2, s2 := utf8.DecodeRuneInString(text[j:])
				if r2 != '.' && r2 != '!' && r2 != '?' {
					break
				}
				j += s2
			}
			if s, ok := trimSpan(text, start, j); ok {
				sentences = append(sentences, s)
			}
			start = j
			i = j
		case '…': // ellipsis
			j := i + size
			if s, ok := trimSpan(text, start, j); ok {
				sentences = append(sentences, s)
			}
			start = j
			i = j
		case '—', '–': // em dash, en dash
			j := i + size
			if j >= len(text) || isSpace(text[j]) {
				if s, ok := trimSpan(text, start, i); ok {
					sentences = append(sentences, s)
				}
				start = j
			}
			i = j
		default:
			i += size
		}
	}
	if s, ok := trimSpan(text, start, len(text)); ok {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// trimSpan trims whitespace from text[s:e] and keeps the offsets absolute.
func trimSpan(text string, s, e int) (Sentence, bool) {
	seg := text[s:e]
	left := strings.TrimLeft(seg, " \t\r\n")
	startOff := s + len(seg) - len(left)
	trimmed := strings.TrimRight(left, " \t\r\n")
	if trimmed == "" {
		return Sentence{}, false
	}
	return Sentence{Text: trimmed, Start: startOff, End: startOff + len(trimmed)}, true
}
