package textkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "sillon gris", Normalize("  Sillón   GRIS!! "))
	assert.Equal(t, "lampara de pie", Normalize("Lámpara-de_pie"))
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("  ¡¡¡---!!!  "))
	assert.Equal(t, "mesa 3 patas", Normalize("Mesa (3) patas"))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{"Sillón GRIS", "Lámpara de pie", "café & té", "", "Baño Ppal."}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeHomeName(t *testing.T) {
	assert.Equal(t, "olivo", NormalizeHomeName("Casa Olivo"))
	assert.Equal(t, "olivo", NormalizeHomeName("Olivo"))
	assert.Equal(t, "mar azul", NormalizeHomeName("Villa Mar Azul"))
	assert.Equal(t, "sol", NormalizeHomeName("Apt. Sol"))
	assert.Equal(t, "sol", NormalizeHomeName("apartamento SOL"))

	// Only one leading prefix is stripped, and only with a following word.
	assert.Equal(t, "casa", NormalizeHomeName("Casa"))
	assert.Equal(t, "villa", NormalizeHomeName("Casa Villa"))

	// Property-type words in the middle stay.
	assert.Equal(t, "la casa verde", NormalizeHomeName("La Casa Verde"))
}

func TestNormalizeLooseKeepsPunctuation(t *testing.T) {
	assert.Equal(t, "hab ppal.", NormalizeLoose("Hab Ppal."))
	assert.Equal(t, "bano principal", NormalizeLoose("Baño Principal"))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "sillon-gris", Slug("Sillón Gris"))
	assert.Equal(t, "casa-olivo", Slug("Casa  Olivo!"))
	assert.Equal(t, "", Slug("---"))
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "Sillón Gris", CollapseWhitespace("  Sillón \t Gris\n"))
	assert.Equal(t, "", CollapseWhitespace("   "))
}
