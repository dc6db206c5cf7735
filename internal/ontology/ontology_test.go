package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinRoles(t *testing.T) {
	s := NewStore()

	ids := s.RoleIDs()
	assert.Equal(t, []string{"romance", "mood", "setting", "action", "character", "camera", "other"}, ids)

	// Every built-in role except "other" carries keywords.
	for _, id := range ids {
		if id == RoleOther {
			assert.Empty(t, s.Keywords(id))
			continue
		}
		assert.NotEmpty(t, s.Keywords(id), "role %s", id)
	}
}

func TestPriorityOrderMatchesTable(t *testing.T) {
	prev := BuiltinPriorities[BuiltinRoleOrder[0]]
	for _, id := range BuiltinRoleOrder[1:] {
		cur := BuiltinPriorities[id]
		assert.Greater(t, prev, cur, "priority of %s", id)
		prev = cur
	}
	assert.Greater(t, BuiltinPriorities[RoleCharacter], DynamicRolePriority)
	assert.Greater(t, DynamicRolePriority, BuiltinPriorities[RoleCamera])
}

func TestIsActionVerb(t *testing.T) {
	s := NewStore()
	assert.True(t, s.IsActionVerb("run"))
	assert.True(t, s.IsActionVerb("kiss"))
	assert.False(t, s.IsActionVerb("castle"))
}

func TestResolve(t *testing.T) {
	s := NewStore()

	id, ok := s.Resolve("pov")
	require.True(t, ok)
	assert.Equal(t, "camera:angle_pov", id)

	// Case and whitespace insensitive.
	id, ok = s.Resolve("  POV ")
	require.True(t, ok)
	assert.Equal(t, "camera:angle_pov", id)

	_, ok = s.Resolve("unmapped")
	assert.False(t, ok)
}

func TestResolveDelimiterVariants(t *testing.T) {
	s := NewStore()
	for _, spelling := range []string{"close-up", "close up", "close_up", "Close-Up"} {
		id, ok := s.Resolve(spelling)
		require.True(t, ok, "spelling %q", spelling)
		assert.Equal(t, "camera:framing_closeup", id, "spelling %q", spelling)
	}

	id, ok := s.Resolve("first person")
	require.True(t, ok)
	assert.Equal(t, "camera:angle_pov", id)
}

func TestExternalIndexKeysNormalized(t *testing.T) {
	s := NewStoreWithIndex(map[string]string{"Slow-Burn": "romance:pace_slowburn"})

	id, ok := s.Resolve("slow burn")
	require.True(t, ok)
	assert.Equal(t, "romance:pace_slowburn", id)
}

func TestResolveAllDeduplicates(t *testing.T) {
	s := NewStore()
	ids := s.ResolveAll([]string{"pov", "first-person", "sunset", "unmapped"})
	assert.Equal(t, []string{"camera:angle_pov", "setting:time_sunset"}, ids)
}

func TestExternalIndexWinsOnCollision(t *testing.T) {
	s := NewStoreWithIndex(map[string]string{
		"pov":      "camera:custom_pov",
		"minotaur": "character:species_minotaur",
		"":         "ignored:blank",
	})

	id, ok := s.Resolve("pov")
	require.True(t, ok)
	assert.Equal(t, "camera:custom_pov", id)

	id, ok = s.Resolve("minotaur")
	require.True(t, ok)
	assert.Equal(t, "character:species_minotaur", id)

	// Default entries survive the merge.
	id, ok = s.Resolve("sunset")
	require.True(t, ok)
	assert.Equal(t, "setting:time_sunset", id)
}
