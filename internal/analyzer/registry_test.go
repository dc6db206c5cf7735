package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// The genai import starts an opencensus stats worker at init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{
		ID:      "Keyword-Rules",
		Name:    "Keyword Rules",
		Kind:    KindDeterministic,
		Target:  TargetPrompt,
		Enabled: true,
	}))

	desc, ok := r.Resolve("keyword-rules")
	require.True(t, ok)
	assert.Equal(t, "keyword-rules", desc.ID, "ids normalize to lowercase")

	_, ok = r.Resolve("nonexistent")
	assert.False(t, ok)
}

func TestRegistryRejectsEmptyID(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(Descriptor{Name: "anonymous"}))
}

func TestRegistryLegacyIDResolution(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{ID: AnalyzerKeywordRules, Kind: KindDeterministic, Target: TargetPrompt, Enabled: true}))
	r.RegisterLegacyID(AnalyzerRuleLegacy, AnalyzerKeywordRules)

	desc, ok := r.Resolve(AnalyzerRuleLegacy)
	require.True(t, ok)
	assert.Equal(t, AnalyzerKeywordRules, desc.ID)
}

func TestRegistrySingleDefaultPerTarget(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{ID: "a", Target: TargetPrompt, Enabled: true, Default: true}))
	require.NoError(t, r.Register(Descriptor{ID: "b", Target: TargetPrompt, Enabled: true}))

	require.NoError(t, r.SetDefault(TargetPrompt, "b"))

	defaults := 0
	for _, d := range r.List() {
		if d.Default {
			defaults++
			assert.Equal(t, "b", d.ID)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestRegistrySetDefaultErrors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{ID: "a", Target: "other-target", Enabled: true}))

	assert.Error(t, r.SetDefault(TargetPrompt, "missing"))
	assert.Error(t, r.SetDefault(TargetPrompt, "a"), "target mismatch must be rejected")
}

func TestRegistryGetDefaultFallsBackToFirstEnabled(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{ID: "legacy-one", Target: TargetPrompt, Enabled: true, Legacy: true}))
	require.NoError(t, r.Register(Descriptor{ID: "disabled-one", Target: TargetPrompt}))
	require.NoError(t, r.Register(Descriptor{ID: "live-one", Target: TargetPrompt, Enabled: true}))

	desc, ok := r.GetDefault(TargetPrompt)
	require.True(t, ok)
	assert.Equal(t, "live-one", desc.ID, "legacy and disabled entries are skipped")

	_, ok = r.GetDefault("unknown-target")
	assert.False(t, ok)
}

func TestRegistryPluginLifecycle(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{ID: "builtin", Target: TargetPrompt, Enabled: true}))
	require.NoError(t, r.RegisterPlugin("vision-pack",
		Descriptor{ID: "vp-a", Target: TargetPrompt, Enabled: true},
		Descriptor{ID: "vp-b", Target: TargetPrompt, Enabled: true},
	))
	assert.Len(t, r.List(), 3)

	removed := r.UnregisterPlugin("vision-pack")
	assert.Equal(t, 2, removed)
	assert.Len(t, r.List(), 1)

	_, ok := r.Resolve("vp-a")
	assert.False(t, ok)

	assert.Equal(t, 0, r.UnregisterPlugin("vision-pack"), "second unregister removes nothing")
}

func TestRegistryCollisionLastWins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{ID: "shared", Target: TargetPrompt, Name: "built-in copy"}))
	require.NoError(t, r.RegisterPlugin("ext", Descriptor{ID: "shared", Target: TargetPrompt, Name: "plugin copy"}))

	desc, ok := r.Resolve("shared")
	require.True(t, ok)
	assert.Equal(t, "plugin copy", desc.Name)
	assert.Equal(t, "ext", desc.Plugin)
	assert.Len(t, r.List(), 1, "collision replaces, never duplicates")
}

func TestRegistryListPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, r.Register(Descriptor{ID: id, Target: TargetPrompt}))
	}

	var got []string
	for _, d := range r.List() {
		got = append(got, d.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, got)
}
