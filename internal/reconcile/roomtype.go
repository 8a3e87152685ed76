package reconcile

import (
	"strings"

	"homeguides/server/internal/textkey"
)

// UnknownRoomType buckets names no alias or rule matched.
const UnknownRoomType = "Otro"

type roomRule struct {
	label    string
	patterns []string
}

// roomRules is a fixed, priority-ordered vocabulary. Order is the
// tie-break when two patterns match at the same position; earliest match
// position in the name wins otherwise, so "dormitorio con baño en suite"
// lands on dormitorio and "baño principal" stays a baño.
var roomRules = []roomRule{
	{label: "salón", patterns: []string{"salon", "sala", "estar", "living"}},
	{label: "cocina", patterns: []string{"cocina", "kitchen"}},
	{label: "baño", patterns: []string{"bano", "aseo", "bath"}},
	{label: "dormitorio", patterns: []string{"dormitorio", "habitacion", "hab ", "ppal", "principal", "master", "suite", "alcoba", "bedroom"}},
	{label: "comedor", patterns: []string{"comedor", "dining"}},
	{label: "exterior", patterns: []string{"terraza", "balcon", "patio", "jardin", "exterior", "porche"}},
	{label: "lavadero", patterns: []string{"lavadero", "laundry"}},
	{label: "despacho", patterns: []string{"despacho", "oficina", "office", "estudio"}},
	{label: "vestidor", patterns: []string{"vestidor"}},
	{label: "garaje", patterns: []string{"garaje", "garage"}},
	{label: "trastero", patterns: []string{"trastero", "almacen"}},
	{label: "pasillo", patterns: []string{"pasillo"}},
	{label: "distribuidor", patterns: []string{"distribuidor", "recibidor", "entrada", "hall"}},
	{label: "gimnasio", patterns: []string{"gimnasio", "gym"}},
	{label: "spa", patterns: []string{"spa", "sauna"}},
	{label: "piscina", patterns: []string{"piscina", "pool"}},
	{label: "habitación infantil", patterns: []string{"infantil", "kids", "ninos", "bebe"}},
}

// RoomTypeClassifier maps free-text room names onto the fixed room-type
// vocabulary. Aliases are consulted before the keyword rules and in file
// order, so the alias table stays deterministic.
type RoomTypeClassifier struct {
	aliases *AliasList
}

// NewRoomTypeClassifier wires an optional ordered alias list; nil means
// rules only.
func NewRoomTypeClassifier(aliases *AliasList) *RoomTypeClassifier {
	return &RoomTypeClassifier{aliases: aliases}
}

// Detect returns the room-type label for a name, or ("", false) when
// nothing matches; callers decide whether unknown rooms get the
// UnknownRoomType bucket or no type at all.
func (c *RoomTypeClassifier) Detect(name string) (string, bool) {
	n := textkey.NormalizeLoose(name)
	if n == "" {
		return "", false
	}
	if target, ok := c.aliases.Match(n); ok {
		return target, true
	}

	bestLabel := ""
	bestPos := -1
	for _, rule := range roomRules {
		for _, p := range rule.patterns {
			pos := strings.Index(n, p)
			if pos < 0 {
				continue
			}
			if bestPos == -1 || pos < bestPos {
				bestPos = pos
				bestLabel = rule.label
			}
		}
	}
	if bestLabel == "" {
		return "", false
	}
	return bestLabel, true
}
