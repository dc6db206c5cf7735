package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptparse/internal/ontology"
)

func TestNewRegistrySeedsBuiltins(t *testing.T) {
	r := NewRegistry(nil)

	for _, id := range []string{"romance", "mood", "setting", "action", "character", "camera", "other"} {
		def, ok := r.Get(id)
		require.True(t, ok, "role %s", id)
		assert.Equal(t, id, def.ID)
	}

	// Priority order: romance > mood > setting > action > character > camera > other.
	ids := r.IDs()
	assert.Equal(t, "romance", ids[0])
	assert.Equal(t, "other", ids[len(ids)-1])
}

func TestResolveRoleID(t *testing.T) {
	r := NewRegistry(nil)

	id, known := r.ResolveRoleID("role:Character")
	assert.True(t, known)
	assert.Equal(t, "character", id)

	id, known = r.ResolveRoleID("  MOOD ")
	assert.True(t, known)
	assert.Equal(t, "mood", id)

	_, known = r.ResolveRoleID("wardrobe")
	assert.False(t, known)
}

func TestRegisterMergeSemantics(t *testing.T) {
	r := NewRegistry(nil)

	before, _ := r.Get("character")
	r.Register(Definition{ID: "character", Keywords: []string{"Minotaur", "woman"}}, false)
	after, _ := r.Get("character")

	// Union: one new keyword, case-insensitive dedupe of "woman".
	assert.Len(t, after.Keywords, len(before.Keywords)+1)
	assert.Contains(t, after.Keywords, "Minotaur")

	// Priority untouched when not supplied.
	assert.Equal(t, before.Priority, after.Priority)

	// Explicit priority overwrites.
	r.Register(Definition{ID: "character", Priority: 99}, false)
	after, _ = r.Get("character")
	assert.Equal(t, 99, after.Priority)
}

func TestRegisterOverwriteReplacesWholesale(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(Definition{ID: "camera", Keywords: []string{"only-this"}, Priority: 5}, true)

	def, _ := r.Get("camera")
	assert.Equal(t, []string{"only-this"}, def.Keywords)
	assert.Equal(t, 5, def.Priority)
}

func TestAliasResolutionLastWins(t *testing.T) {
	r := NewRegistry(nil)

	r.Register(Definition{ID: "scenery", Aliases: []string{"environment"}}, false)
	id, known := r.ResolveRoleID("environment")
	assert.True(t, known)
	assert.Equal(t, "scenery", id)

	// Later registration claims the same alias: last wins.
	r.Register(Definition{ID: "backdrop", Aliases: []string{"environment"}}, false)
	id, known = r.ResolveRoleID("environment")
	assert.True(t, known)
	assert.Equal(t, "backdrop", id)
}

func TestApplyHintsAutoCreates(t *testing.T) {
	r := NewRegistry(nil)

	r.ApplyHints(map[string][]string{
		"role:wardrobe": {"dress", "cloak"},
		"mood":          {"wistful"},
	})

	def, ok := r.Get("wardrobe")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"dress", "cloak"}, def.Keywords)
	assert.Equal(t, ontology.DynamicRolePriority, def.Priority)

	mood, _ := r.Get("mood")
	assert.Contains(t, mood.Keywords, "wistful")
}

func TestDynamicPrioritySlotsBetweenCameraAndCharacter(t *testing.T) {
	r := NewRegistry(nil)
	r.ApplyHints(map[string][]string{"wardrobe": {"dress"}})

	assert.Greater(t, r.Priority("character"), r.Priority("wardrobe"))
	assert.Greater(t, r.Priority("wardrobe"), r.Priority("camera"))
}

func TestRemoveKeywords(t *testing.T) {
	r := NewRegistry(nil)
	r.RemoveKeywords("character", []string{"VAMPIRE"})

	def, _ := r.Get("character")
	assert.NotContains(t, def.Keywords, "vampire")
}

func TestCloneIsDeep(t *testing.T) {
	r := NewRegistry(nil)
	c := r.Clone()

	c.AddKeywords("character", []string{"minotaur"})

	orig, _ := r.Get("character")
	assert.NotContains(t, orig.Keywords, "minotaur")

	cloned, _ := c.Get("character")
	assert.Contains(t, cloned.Keywords, "minotaur")
}

func TestWithOverridesNeverMutatesBase(t *testing.T) {
	base := NewRegistry(nil)
	derived := WithOverrides(base, map[string][]string{"character": {"minotaur"}})

	baseDef, _ := base.Get("character")
	assert.NotContains(t, baseDef.Keywords, "minotaur")

	derivedDef, _ := derived.Get("character")
	assert.Contains(t, derivedDef.Keywords, "minotaur")
}
