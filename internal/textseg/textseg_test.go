package textseg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHeaderLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"CAMERA:", true},
		{"  Mood:  ", true},
		{"setting:", true},
		{"The time is 5:30 in the afternoon.", false},
		{"It's 5:30 now", false},
		{"CAMERA: slow dolly", false}, // body after the colon
		{":", false},
		{"", false},
		{"A header label that is entirely too long to plausibly be one:", false},
		{"Wait. Really:", false}, // sentence punctuation inside
		{"Time: 5:30:", false},   // nested colon
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsHeaderLine(tt.line), "line %q", tt.line)
	}
}

func TestSplitSections(t *testing.T) {
	t.Run("single header", func(t *testing.T) {
		text := "CAMERA:\nSlow dolly-in."
		sections := SplitSections(text)
		require.Len(t, sections, 1)
		assert.Equal(t, "CAMERA", sections[0].Label)
		assert.Equal(t, "Slow dolly-in.", text[sections[0].Start:sections[0].End])
	})

	t.Run("preamble before first header", func(t *testing.T) {
		text := "A quiet intro.\nMOOD:\ndark and tense"
		sections := SplitSections(text)
		require.Len(t, sections, 2)
		assert.Equal(t, "", sections[0].Label)
		assert.Equal(t, "A quiet intro.", text[sections[0].Start:sections[0].End])
		assert.Equal(t, "MOOD", sections[1].Label)
		assert.Equal(t, "dark and tense", text[sections[1].Start:sections[1].End])
	})

	t.Run("multiple headers with multi-line bodies", func(t *testing.T) {
		text := "SETTING:\nA castle.\nAt night.\nCAMERA:\nwide shot"
		sections := SplitSections(text)
		require.Len(t, sections, 2)
		assert.Equal(t, "SETTING", sections[0].Label)
		assert.Equal(t, "A castle.\nAt night.", text[sections[0].Start:sections[0].End])
		assert.Equal(t, "CAMERA", sections[1].Label)
	})

	t.Run("inline colon never makes a header", func(t *testing.T) {
		assert.Nil(t, SplitSections("The time is 5:30 in the afternoon."))
	})

	t.Run("no headers yields nil", func(t *testing.T) {
		assert.Nil(t, SplitSections("Just prose.\nMore prose."))
	})
}

func TestSplitSentences(t *testing.T) {
	t.Run("basic terminators", func(t *testing.T) {
		text := "Hello world. How are you? Fine!"
		got := SplitSentences(text)
		require.Len(t, got, 3)
		assert.Equal(t, "Hello world.", got[0].Text)
		assert.Equal(t, "How are you?", got[1].Text)
		assert.Equal(t, "Fine!", got[2].Text)
	})

	t.Run("offsets are absolute", func(t *testing.T) {
		text := "  One. Two."
		got := SplitSentences(text)
		require.Len(t, got, 2)
		for _, s := range got {
			assert.Equal(t, s.Text, text[s.Start:s.End])
		}
	})

	t.Run("punctuation runs collapse", func(t *testing.T) {
		got := SplitSentences("Wait... what?! Nothing.")
		require.Len(t, got, 3)
		assert.Equal(t, "Wait...", got[0].Text)
		assert.Equal(t, "what?!", got[1].Text)
	})

	t.Run("em dash followed by space splits", func(t *testing.T) {
		got := SplitSentences("A dream — then darkness")
		require.Len(t, got, 2)
		assert.Equal(t, "A dream", got[0].Text)
		assert.Equal(t, "then darkness", got[1].Text)
	})

	t.Run("dash inside a word does not split", func(t *testing.T) {
		// en dash glued to text on both sides, e.g. a range
		got := SplitSentences("pages 3–4 are missing")
		require.Len(t, got, 1)
	})

	t.Run("trailing fragment kept", func(t *testing.T) {
		got := SplitSentences("A full sentence. and a trailing fragment")
		require.Len(t, got, 2)
		assert.Equal(t, "and a trailing fragment", got[1].Text)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, SplitSentences(""))
		assert.Empty(t, SplitSentences("   "))
	})
}
