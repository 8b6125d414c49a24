package models

import "strings"

// Allergen names one of the fourteen regulated EU allergens. The zero value
// means "no allergen" and is never part of a declared set.
type Allergen string

const (
	AllergenGluten      Allergen = "Gluten"
	AllergenCrustaceans Allergen = "Crustacés"
	AllergenEggs        Allergen = "Œufs"
	AllergenFish        Allergen = "Poisson"
	AllergenPeanuts     Allergen = "Arachides"
	AllergenSoy         Allergen = "Soja"
	AllergenMilk        Allergen = "Lait"
	AllergenNuts        Allergen = "Fruits à coque"
	AllergenCelery      Allergen = "Céleri"
	AllergenMustard     Allergen = "Moutarde"
	AllergenSesame      Allergen = "Sésame"
	AllergenSulphites   Allergen = "Sulfites"
	AllergenLupin       Allergen = "Lupin"
	AllergenMolluscs    Allergen = "Mollusques"
)

var allergens = []Allergen{
	AllergenGluten,
	AllergenCrustaceans,
	AllergenEggs,
	AllergenFish,
	AllergenPeanuts,
	AllergenSoy,
	AllergenMilk,
	AllergenNuts,
	AllergenCelery,
	AllergenMustard,
	AllergenSesame,
	AllergenSulphites,
	AllergenLupin,
	AllergenMolluscs,
}

// Allergens returns the regulated allergens in catalogue order.
func Allergens() []Allergen {
	out := make([]Allergen, len(allergens))
	copy(out, allergens)
	return out
}

// Declared reports whether a names a real allergen rather than the empty placeholder.
func (a Allergen) Declared() bool {
	return strings.TrimSpace(string(a)) != ""
}

// ParseAllergen resolves a user supplied value against the catalogue. The
// legacy "Aucun" and "none" placeholders resolve to the zero value.
func ParseAllergen(value string) (Allergen, bool) {
	trimmed := strings.TrimSpace(value)
	switch strings.ToLower(trimmed) {
	case "", "aucun", "none":
		return "", true
	}
	for _, candidate := range allergens {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, true
		}
	}
	return "", false
}

// ValidAllergen reports whether value is empty or a catalogue allergen.
func ValidAllergen(value Allergen) bool {
	_, ok := ParseAllergen(string(value))
	return ok
}
