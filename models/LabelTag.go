package models

import "strings"

// LabelTag is a marketing or regulatory claim carried by an ingredient.
type LabelTag string

const (
	LabelOrganic    LabelTag = "Bio"
	LabelVegan      LabelTag = "Vegan"
	LabelVegetarian LabelTag = "Végétarien"
	LabelKosher     LabelTag = "Casher"
	LabelHalal      LabelTag = "Halal"
	LabelCleanLabel LabelTag = "Clean Label"
	LabelFrozen     LabelTag = "Surgelé"
)

var labelTags = []LabelTag{
	LabelOrganic,
	LabelVegan,
	LabelVegetarian,
	LabelKosher,
	LabelHalal,
	LabelCleanLabel,
	LabelFrozen,
}

// LabelTags returns every known label in catalogue order.
func LabelTags() []LabelTag {
	out := make([]LabelTag, len(labelTags))
	copy(out, labelTags)
	return out
}

// ParseLabelTag resolves value case-insensitively against the catalogue.
func ParseLabelTag(value string) (LabelTag, bool) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range labelTags {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, true
		}
	}
	return "", false
}
