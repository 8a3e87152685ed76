package reconcile

import (
	"homeguides/server/internal/models"
	"homeguides/server/internal/textkey"
)

// HomeIndex resolves external home references by normalized name, with an
// optional ordered alias table consulted between normalization and lookup.
type HomeIndex struct {
	keyToID map[string]string
	aliases *AliasList
}

// NewHomeIndex builds the index from the full homes table. Earlier rows
// win normalized-name collisions.
func NewHomeIndex(homes []models.Home, aliases *AliasList) *HomeIndex {
	idx := &HomeIndex{
		keyToID: make(map[string]string, len(homes)),
		aliases: aliases,
	}
	for _, h := range homes {
		key := textkey.NormalizeHomeName(h.Name)
		if key == "" {
			continue
		}
		if _, ok := idx.keyToID[key]; !ok {
			idx.keyToID[key] = h.ID
		}
	}
	return idx
}

// Resolve maps a raw external home name to a canonical home id.
func (idx *HomeIndex) Resolve(rawName string) (string, bool) {
	key := textkey.NormalizeHomeName(rawName)
	if key == "" {
		return "", false
	}
	target := idx.aliases.Resolve(key)
	id, ok := idx.keyToID[target]
	return id, ok
}

// ResolveKey is Resolve for a name that is already normalized.
func (idx *HomeIndex) ResolveKey(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	target := idx.aliases.Resolve(key)
	id, ok := idx.keyToID[target]
	return id, ok
}
