package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeguides/server/internal/models"
	"homeguides/server/internal/textkey"
)

func home(id, name string) models.Home {
	return models.Home{Base: models.Base{ID: id}, Name: name}
}

func TestHomeIndexResolve(t *testing.T) {
	idx := NewHomeIndex([]models.Home{
		home("h1", "Casa Olivo"),
		home("h2", "Villa Mar Azul"),
	}, nil)

	// Raw names, prefixed variants and accent noise all land.
	for _, raw := range []string{"Casa Olivo", "olivo", "OLIVO", "Casa  Olivo!!"} {
		id, ok := idx.Resolve(raw)
		require.True(t, ok, "raw %q", raw)
		assert.Equal(t, "h1", id)
	}

	id, ok := idx.Resolve("mar azul")
	require.True(t, ok)
	assert.Equal(t, "h2", id)

	_, ok = idx.Resolve("Casa Desconocida")
	assert.False(t, ok)
	_, ok = idx.Resolve("")
	assert.False(t, ok)
}

func TestHomeIndexAliases(t *testing.T) {
	aliases := NewAliasList(AliasEntry{Alias: "el olivar", Target: "olivo"})
	idx := NewHomeIndex([]models.Home{home("h1", "Casa Olivo")}, aliases)

	id, ok := idx.Resolve("El Olivar")
	require.True(t, ok)
	assert.Equal(t, "h1", id)
}

func TestHomeIndexFirstWriterWins(t *testing.T) {
	idx := NewHomeIndex([]models.Home{
		home("h1", "Casa Olivo"),
		home("h2", "Villa Olivo"),
	}, nil)

	id, ok := idx.Resolve("olivo")
	require.True(t, ok)
	assert.Equal(t, "h1", id)
}

func TestLoadAliasFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "home_aliases.json")
	data := `[
		{"alias": "El Olivar", "target": "Casa Olivo"},
		{"alias": "  ", "target": "ignored"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	list, err := LoadAliasFile(path, textkey.NormalizeHomeName, textkey.NormalizeHomeName)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Len())
	assert.Equal(t, "olivo", list.Resolve("el olivar"))

	// Unknown keys resolve to themselves.
	assert.Equal(t, "otra", list.Resolve("otra"))
}

func TestLoadAliasFileMissing(t *testing.T) {
	list, err := LoadAliasFile(filepath.Join(t.TempDir(), "nope.json"), textkey.Normalize, textkey.Normalize)
	require.NoError(t, err)
	assert.Equal(t, 0, list.Len())
}

func TestLoadAliasFileInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "a list"}`), 0o644))

	_, err := LoadAliasFile(path, textkey.Normalize, textkey.Normalize)
	assert.Error(t, err)
}
