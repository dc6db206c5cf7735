package analyzer

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptparse/internal/classify"
	"promptparse/internal/roles"
)

// mockClient returns a canned response or error for every completion.
type mockClient struct {
	response string
	err      error
	calls    int
	system   string
}

func (m *mockClient) CompleteWithSystem(_ context.Context, system, _ string) (string, error) {
	m.calls++
	m.system = system
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func newLLM(t *testing.T, client LLMClient) *LLMAnalyzer {
	t.Helper()
	a, err := NewLLMAnalyzer(client, classify.DefaultConfig())
	require.NoError(t, err)
	return a
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"blocks":[]}`, `{"blocks":[]}`},
		{"json fence", "```json\n{\"blocks\":[]}\n```", `{"blocks":[]}`},
		{"plain fence", "```\n{\"blocks\":[]}\n```", `{"blocks":[]}`},
		{"surrounding prose", "Here you go:\n{\"blocks\":[]}\nHope that helps!", `{"blocks":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestLLMAnalyzeNormalizesBlocks(t *testing.T) {
	text := "A knight rides. The castle glows."
	client := &mockClient{response: `{
		"blocks": [
			{"role": "character", "text": "A knight rides.", "ontology_ids": ["character:knight"]},
			{"role": "setting", "text": "The castle glows.", "category": "mood"}
		],
		"tags": ["model-invented-tag"]
	}`}

	result := newLLM(t, client).Analyze(context.Background(), text, roles.NewRegistry(nil))
	require.Len(t, result.Segments, 2)

	first := result.Segments[0]
	assert.Equal(t, "character", first.Role)
	assert.Equal(t, "A knight rides.", first.Text)
	assert.Equal(t, 0, first.Start)
	assert.Equal(t, 15, first.End)
	assert.Equal(t, []string{"character:knight"}, first.Metadata.OntologyIDs)

	second := result.Segments[1]
	assert.Equal(t, "setting", second.Role)
	assert.Equal(t, "mood", second.Metadata.InferredRole)
	assert.Equal(t, text[second.Start:second.End], second.Text, "offsets point into the original text")
}

func TestLLMAnalyzeUnknownRoleBecomesDefault(t *testing.T) {
	client := &mockClient{response: `{"blocks":[{"role":"spaceship","text":"warp speed"}]}`}

	result := newLLM(t, client).Analyze(context.Background(), "warp speed", roles.NewRegistry(nil))
	require.Len(t, result.Segments, 1)
	assert.Equal(t, "other", result.Segments[0].Role)
}

func TestLLMAnalyzeFencedResponse(t *testing.T) {
	client := &mockClient{response: "```json\n{\"blocks\":[{\"role\":\"mood\",\"text\":\"a serene field\"}]}\n```"}

	result := newLLM(t, client).Analyze(context.Background(), "a serene field", roles.NewRegistry(nil))
	require.Len(t, result.Segments, 1)
	assert.Equal(t, "mood", result.Segments[0].Role)
	assert.Equal(t, generativeConfidence, result.Segments[0].Confidence)
}

func TestLLMFallbackOnFailure(t *testing.T) {
	text := "A woman runs through the forest."
	reg := roles.NewRegistry(nil)
	deterministic := classify.MustNew(reg, classify.DefaultConfig()).Parse(text)

	tests := []struct {
		name   string
		client LLMClient
	}{
		{"nil backend", nil},
		{"transport error", &mockClient{err: fmt.Errorf("connection refused")}},
		{"malformed json", &mockClient{response: "not json at all"}},
		{"empty blocks", &mockClient{response: `{"blocks":[]}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newLLM(t, tt.client).Analyze(context.Background(), text, reg)
			require.NotNil(t, result)
			if diff := cmp.Diff(deterministic, result); diff != "" {
				t.Errorf("fallback differs from deterministic parse (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLLMFallbackOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &mockClient{err: context.Canceled}

	result := newLLM(t, client).Analyze(ctx, "a quiet sunset", roles.NewRegistry(nil))
	require.NotNil(t, result)
	require.NotEmpty(t, result.Segments)
}

func TestLLMSystemPromptListsPackRoles(t *testing.T) {
	reg := roles.NewRegistry(nil)
	reg.Register(roles.Definition{
		ID:          "creature",
		Label:       "Creature",
		Description: "Fantastical beings",
		Keywords:    []string{"dragon", "griffin"},
		Priority:    25,
	}, false)

	client := &mockClient{response: `{"blocks":[{"role":"creature","text":"a dragon"}]}`}
	result := newLLM(t, client).Analyze(context.Background(), "a dragon", reg)

	assert.Contains(t, client.system, "creature", "pack-defined roles must reach the backend")
	assert.Contains(t, client.system, "dragon")
	require.Len(t, result.Segments, 1)
	assert.Equal(t, "creature", result.Segments[0].Role)
}

func TestDeterministicAnalyzer(t *testing.T) {
	a, err := NewDeterministicAnalyzer(classify.DefaultConfig())
	require.NoError(t, err)

	result := a.Analyze(context.Background(), "A woman runs.", roles.NewRegistry(nil))
	require.NotNil(t, result)
	require.NotEmpty(t, result.Segments)
	assert.Equal(t, "action", result.Segments[0].Role)
}

func TestAnalyzerRejectsInvalidConfig(t *testing.T) {
	bad := classify.DefaultConfig()
	bad.MinConfidence = -1

	_, err := NewDeterministicAnalyzer(bad)
	assert.Error(t, err)
	_, err = NewLLMAnalyzer(nil, bad)
	assert.Error(t, err)
}

func TestLocateSpanRepeatedPhrase(t *testing.T) {
	text := "the sea. the sea."
	start, end := locateSpan(text, "the sea.", 0)
	assert.Equal(t, 0, start)

	start2, _ := locateSpan(text, "the sea.", end)
	assert.Equal(t, 9, start2, "second occurrence maps past the first")
}
