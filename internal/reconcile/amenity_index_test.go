package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeguides/server/internal/models"
)

func strPtr(s string) *string { return &s }

func amenity(id, name string, brandID, categoryID, model, reference *string) models.Amenity {
	return models.Amenity{
		Base:       models.Base{ID: id},
		Name:       name,
		BrandID:    brandID,
		CategoryID: categoryID,
		Model:      model,
		Reference:  reference,
	}
}

func TestResolveExactTuple(t *testing.T) {
	idx := NewAmenityIndex([]models.Amenity{
		amenity("a1", "Sillón Gris", strPtr("b1"), strPtr("c1"), strPtr("M-200"), strPtr("ref 77")),
	})

	id, ok := idx.Resolve(AmenityQuery{
		NameKey:    "sillon gris",
		BrandID:    "b1",
		CategoryID: "c1",
		ModelKey:   "m 200",
		RefKey:     "ref 77",
	}, false)
	require.True(t, ok)
	assert.Equal(t, "a1", id)
}

// Changing any single populated component to a different value must never
// return the original amenity.
func TestResolveChangedComponentNeverMatches(t *testing.T) {
	idx := NewAmenityIndex([]models.Amenity{
		amenity("a1", "Sillón Gris", strPtr("b1"), strPtr("c1"), strPtr("M-200"), strPtr("R-77")),
		amenity("a2", "Sillón Gris", strPtr("b2"), strPtr("c1"), strPtr("M-200"), strPtr("R-77")),
	})

	base := AmenityQuery{
		NameKey:    "sillon gris",
		BrandID:    "b1",
		CategoryID: "c1",
		ModelKey:   "m 200",
		RefKey:     "r 77",
	}

	id, ok := idx.Resolve(base, false)
	require.True(t, ok)
	assert.Equal(t, "a1", id)

	mutations := []AmenityQuery{
		{NameKey: base.NameKey, BrandID: "b2", CategoryID: base.CategoryID, ModelKey: base.ModelKey, RefKey: base.RefKey},
		{NameKey: base.NameKey, BrandID: base.BrandID, CategoryID: "c9", ModelKey: base.ModelKey, RefKey: base.RefKey},
		{NameKey: base.NameKey, BrandID: base.BrandID, CategoryID: base.CategoryID, ModelKey: "m 999", RefKey: base.RefKey},
		{NameKey: base.NameKey, BrandID: base.BrandID, CategoryID: base.CategoryID, ModelKey: base.ModelKey, RefKey: "r 99"},
	}
	for _, q := range mutations {
		got, found := idx.Resolve(q, false)
		if found {
			assert.NotEqual(t, "a1", got, "query %+v", q)
		}
	}
}

func TestResolvePartialQueryUsesWildcards(t *testing.T) {
	idx := NewAmenityIndex([]models.Amenity{
		amenity("a1", "Lámpara", strPtr("b1"), nil, nil, nil),
	})

	// Brand matches, the other components are absent on both sides.
	id, ok := idx.Resolve(AmenityQuery{NameKey: "lampara", BrandID: "b1"}, false)
	require.True(t, ok)
	assert.Equal(t, "a1", id)

	// Model populated in the query but absent on the stored amenity
	// still matches: absence wildcards.
	id, ok = idx.Resolve(AmenityQuery{NameKey: "lampara", ModelKey: "x 1"}, false)
	require.True(t, ok)
	assert.Equal(t, "a1", id)
}

func TestResolveNameFallback(t *testing.T) {
	idx := NewAmenityIndex([]models.Amenity{
		amenity("a1", "Tostadora", strPtr("b1"), nil, nil, nil),
	})

	// No component matches a tuple but the name is unique.
	id, ok := idx.Resolve(AmenityQuery{NameKey: "tostadora"}, false)
	require.True(t, ok)
	assert.Equal(t, "a1", id)

	// Strict mode disables the fallback.
	_, ok = idx.Resolve(AmenityQuery{NameKey: "tostadora"}, true)
	assert.False(t, ok)
}

func TestResolveAmbiguousNameFails(t *testing.T) {
	idx := NewAmenityIndex([]models.Amenity{
		amenity("a1", "Silla", strPtr("b1"), nil, nil, nil),
		amenity("a2", "Silla", strPtr("b2"), nil, nil, nil),
	})

	// Two amenities share the name and nothing disambiguates.
	_, ok := idx.Resolve(AmenityQuery{NameKey: "silla"}, false)
	assert.False(t, ok)

	// A brand component picks the right one.
	id, ok := idx.Resolve(AmenityQuery{NameKey: "silla", BrandID: "b2"}, false)
	require.True(t, ok)
	assert.Equal(t, "a2", id)
}

func TestResolveFirstWriterWins(t *testing.T) {
	idx := NewAmenityIndex([]models.Amenity{
		amenity("old", "Espejo", strPtr("b1"), nil, nil, nil),
		amenity("new", "Espejo", strPtr("b1"), nil, nil, nil),
	})

	id, ok := idx.Resolve(AmenityQuery{NameKey: "espejo", BrandID: "b1"}, false)
	require.True(t, ok)
	assert.Equal(t, "old", id)
}

func TestResolveEmptyNameFails(t *testing.T) {
	idx := NewAmenityIndex(nil)
	_, ok := idx.Resolve(AmenityQuery{NameKey: "", BrandID: "b1"}, false)
	assert.False(t, ok)
}

func TestAddKeepsIndexFresh(t *testing.T) {
	idx := NewAmenityIndex(nil)
	_, ok := idx.Resolve(AmenityQuery{NameKey: "alfombra"}, false)
	require.False(t, ok)

	created := amenity("a1", "Alfombra", nil, nil, nil, nil)
	idx.Add(&created)

	id, ok := idx.Resolve(AmenityQuery{NameKey: "alfombra"}, false)
	require.True(t, ok)
	assert.Equal(t, "a1", id)
	assert.Equal(t, 1, idx.NameCount("alfombra"))
}
