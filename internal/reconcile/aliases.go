package reconcile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// AliasEntry maps one external spelling to its canonical target.
type AliasEntry struct {
	Alias  string `json:"alias"`
	Target string `json:"target"`
}

// AliasList is an explicitly ordered alias table. Order matters: when
// several aliases match, the first entry in file order wins.
type AliasList struct {
	entries []AliasEntry
}

// LoadAliasFile reads an ordered alias list from a JSON array file,
// normalizing aliases with keyFn and targets with targetFn. Alias tables
// that map onto normalized keys (homes, amenities) pass the same function
// twice; the room-type table keeps its display-form targets by passing an
// identity targetFn. A missing file yields an empty list, not an error.
func LoadAliasFile(path string, keyFn, targetFn func(string) string) (*AliasList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &AliasList{}, nil
		}
		return nil, fmt.Errorf("failed to read alias file %s: %w", path, err)
	}
	var raw []AliasEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse alias file %s: %w", path, err)
	}
	list := &AliasList{entries: make([]AliasEntry, 0, len(raw))}
	for _, e := range raw {
		key := keyFn(e.Alias)
		if key == "" {
			continue
		}
		list.entries = append(list.entries, AliasEntry{Alias: key, Target: targetFn(e.Target)})
	}
	return list, nil
}

// NewAliasList builds an alias list from already-normalized entries.
func NewAliasList(entries ...AliasEntry) *AliasList {
	return &AliasList{entries: entries}
}

// Resolve returns the target for an exact key match, or the key itself.
func (l *AliasList) Resolve(key string) string {
	if l == nil {
		return key
	}
	for _, e := range l.entries {
		if e.Alias == key {
			return e.Target
		}
	}
	return key
}

// Match returns the target of the first alias contained in the given
// normalized name. Containment, not equality: "hab ppal izq" matches an
// alias "ppal".
func (l *AliasList) Match(name string) (string, bool) {
	if l == nil {
		return "", false
	}
	for _, e := range l.entries {
		if e.Alias != "" && strings.Contains(name, e.Alias) {
			return e.Target, true
		}
	}
	return "", false
}

// Len reports the number of alias entries.
func (l *AliasList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}
