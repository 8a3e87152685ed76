package reconcile

import (
	"fmt"

	"homeguides/server/internal/models"
	"homeguides/server/internal/textkey"
)

// nullPart marks an absent tuple component in the string form of a key.
const nullPart = "null"

// tupleKey renders the 5-tuple (normalized name, brand id, category id,
// normalized model, normalized reference) as a map key. Empty components
// render as "null".
func tupleKey(name, brandID, categoryID, model, reference string) string {
	return fmt.Sprintf("n:%s|b:%s|c:%s|m:%s|r:%s",
		name, orNull(brandID), orNull(categoryID), orNull(model), orNull(reference))
}

func orNull(s string) string {
	if s == "" {
		return nullPart
	}
	return s
}

// storedTuple keeps the normalized components an amenity was indexed
// with, so lookups can reject matches that conflict with a populated
// query component.
type storedTuple struct {
	brandID    string
	categoryID string
	modelKey   string
	refKey     string
}

// AmenityIndex resolves noisy external amenity records onto canonical
// amenity ids. It is built once per run from the full amenity table and
// holds no reference to the database; callers that create amenities
// mid-run must call Add so later records can see them.
type AmenityIndex struct {
	byKey  map[string]string
	byName map[string][]string
	stored map[string]storedTuple
}

// NewAmenityIndex builds an index over the given amenities. Insertion
// order decides first-writer-wins collisions, so callers should pass rows
// ordered by creation time when that matters.
func NewAmenityIndex(amenities []models.Amenity) *AmenityIndex {
	idx := &AmenityIndex{
		byKey:  make(map[string]string),
		byName: make(map[string][]string),
		stored: make(map[string]storedTuple),
	}
	for i := range amenities {
		idx.Add(&amenities[i])
	}
	return idx
}

// Add indexes one amenity. Every combination of the four non-name
// components with null is registered, first writer wins: an existing
// mapping is never overwritten, so earlier amenities keep priority for
// ambiguous wildcarded keys.
func (idx *AmenityIndex) Add(a *models.Amenity) {
	nameKey := textkey.Normalize(a.Name)
	if nameKey == "" {
		return
	}
	st := storedTuple{
		brandID:    deref(a.BrandID),
		categoryID: deref(a.CategoryID),
		modelKey:   normalizeOpt(a.Model),
		refKey:     normalizeOpt(a.Reference),
	}
	for _, bv := range wildcarded(st.brandID) {
		for _, cv := range wildcarded(st.categoryID) {
			for _, mv := range wildcarded(st.modelKey) {
				for _, rv := range wildcarded(st.refKey) {
					key := tupleKey(nameKey, bv, cv, mv, rv)
					if _, ok := idx.byKey[key]; !ok {
						idx.byKey[key] = a.ID
					}
				}
			}
		}
	}
	idx.byName[nameKey] = append(idx.byName[nameKey], a.ID)
	idx.stored[a.ID] = st
}

// wildcarded returns the component's concrete value plus the null
// wildcard, or just the wildcard when the value is absent.
func wildcarded(v string) []string {
	if v == "" {
		return []string{""}
	}
	return []string{v, ""}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func normalizeOpt(p *string) string {
	if p == nil {
		return ""
	}
	return textkey.Normalize(*p)
}

// AmenityQuery carries the already-resolved components of an external
// record. NameKey must be the normalized (and alias-resolved) item name;
// ModelKey and RefKey must be normalized. Empty strings mean "absent".
type AmenityQuery struct {
	NameKey    string
	BrandID    string
	CategoryID string
	ModelKey   string
	RefKey     string
}

// Resolve maps a query onto a canonical amenity id.
//
// The primary path tries candidate tuples that keep at least one non-null
// component, from most specific to least specific, and only accepts a hit
// whose stored components do not contradict any populated query
// component: a null wildcards absence on either side, never a different
// value. When no candidate survives and strict is false, the fallback
// path resolves a name shared by exactly one amenity; zero or several
// name holders leave the record unresolved.
func (idx *AmenityIndex) Resolve(q AmenityQuery, strict bool) (string, bool) {
	if q.NameKey == "" {
		return "", false
	}

	components := [4]string{q.BrandID, q.CategoryID, q.ModelKey, q.RefKey}
	seen := make(map[string]struct{}, 15)
	for mask := 15; mask >= 1; mask-- {
		var parts [4]string
		for bit := 0; bit < 4; bit++ {
			if mask&(1<<(3-bit)) != 0 {
				parts[bit] = components[bit]
			}
		}
		if parts[0] == "" && parts[1] == "" && parts[2] == "" && parts[3] == "" {
			continue
		}
		key := tupleKey(q.NameKey, parts[0], parts[1], parts[2], parts[3])
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if id, ok := idx.byKey[key]; ok && idx.compatible(id, q) {
			return id, true
		}
	}

	if strict {
		return "", false
	}
	if ids := idx.byName[q.NameKey]; len(ids) == 1 && idx.compatible(ids[0], q) {
		return ids[0], true
	}
	return "", false
}

// compatible reports whether every populated query component is either
// matched by, or absent from, the stored amenity.
func (idx *AmenityIndex) compatible(id string, q AmenityQuery) bool {
	st, ok := idx.stored[id]
	if !ok {
		return false
	}
	return componentOK(q.BrandID, st.brandID) &&
		componentOK(q.CategoryID, st.categoryID) &&
		componentOK(q.ModelKey, st.modelKey) &&
		componentOK(q.RefKey, st.refKey)
}

func componentOK(query, stored string) bool {
	return query == "" || stored == "" || query == stored
}

// NameCount reports how many amenities share a normalized name. Used by
// reporting jobs to distinguish "ambiguous" from "missing".
func (idx *AmenityIndex) NameCount(nameKey string) int {
	return len(idx.byName[nameKey])
}
