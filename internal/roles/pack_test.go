package roles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePack = `
id: fantasy-pack
name: Fantasy Creatures
roles:
  - id: creature
    label: Creature
    keywords: [minotaur, griffin, basilisk]
    aliases: [beast, monster]
    priority: 25
hints:
  "role:character": [sorceress]
  setting: [labyrinth]
`

func TestParsePack(t *testing.T) {
	pack, err := ParsePack([]byte(samplePack))
	require.NoError(t, err)

	assert.Equal(t, "fantasy-pack", pack.ID)
	require.Len(t, pack.Roles, 1)
	assert.Equal(t, "creature", pack.Roles[0].ID)
	assert.Equal(t, 25, pack.Roles[0].Priority)
	assert.Len(t, pack.Hints, 2)
}

func TestParsePackValidation(t *testing.T) {
	t.Run("missing pack id", func(t *testing.T) {
		_, err := ParsePack([]byte(`name: nameless`))
		assert.Error(t, err)
	})

	t.Run("role with empty id", func(t *testing.T) {
		_, err := ParsePack([]byte("id: p\nroles:\n  - label: NoID\n"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParsePack([]byte("id: [unclosed"))
		assert.Error(t, err)
	})
}

func TestLoadPackFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePack), 0644))

	pack, err := LoadPackFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fantasy-pack", pack.ID)

	_, err = LoadPackFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestRegisterPack(t *testing.T) {
	r := NewRegistry(nil)
	pack, err := ParsePack([]byte(samplePack))
	require.NoError(t, err)

	require.NoError(t, r.RegisterPack(pack))

	creature, ok := r.Get("creature")
	require.True(t, ok)
	assert.Contains(t, creature.Keywords, "minotaur")
	assert.Equal(t, 25, creature.Priority)

	// Aliases from the pack resolve.
	id, known := r.ResolveRoleID("beast")
	assert.True(t, known)
	assert.Equal(t, "creature", id)

	// Loose hints landed too.
	character, _ := r.Get("character")
	assert.Contains(t, character.Keywords, "sorceress")
	setting, _ := r.Get("setting")
	assert.Contains(t, setting.Keywords, "labyrinth")
}

func TestRegisterPackRejectsInvalid(t *testing.T) {
	r := NewRegistry(nil)
	assert.Error(t, r.RegisterPack(nil))
	assert.Error(t, r.RegisterPack(&PackDefinition{}))
}
