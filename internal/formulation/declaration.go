package formulation

import (
	"sort"
	"strings"

	"formulab/models"
)

// unknownIngredientName stands in for an item whose ingredient is missing.
const unknownIngredientName = "Inconnu"

// IngredientDeclaration renders the ingredient list in descending order of
// weight, emphasising allergens in capitals:
//
//	Farine de blé (dont GLUTEN), Sucre, Beurre (dont LAIT).
func IngredientDeclaration(items []models.RecipeItem, ingredients []models.Ingredient) string {
	index := indexIngredients(ingredients)

	type entry struct {
		name      string
		quantity  float64
		allergens []models.Allergen
	}

	entries := make([]entry, 0, len(items))
	for _, item := range items {
		e := entry{name: unknownIngredientName, quantity: item.Quantity}
		if ingredient, ok := index[item.IngredientID]; ok {
			e.name = ingredient.Name
			e.allergens = ingredient.DeclaredAllergens()
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].quantity > entries[j].quantity
	})

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		label := e.name
		if len(e.allergens) > 0 {
			names := make([]string, len(e.allergens))
			for i, allergen := range e.allergens {
				names[i] = string(allergen)
			}
			label += " (dont " + strings.ToUpper(strings.Join(names, ", ")) + ")"
		}
		parts = append(parts, label)
	}

	return strings.Join(parts, ", ") + "."
}
