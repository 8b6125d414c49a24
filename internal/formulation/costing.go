package formulation

import (
	"errors"
	"math"
	"sort"
	"strings"

	"formulab/models"
)

// DefaultTargetMargin applies when a recipe does not set its own margin.
const DefaultTargetMargin = 30.0

var (
	ErrInvalidBatchTarget = errors.New("formulation: batch target must be positive")
	ErrEmptyRecipe        = errors.New("formulation: recipe has no resolvable ingredient weight")
)

// CostSummary prices one batch from its full production cost.
type CostSummary struct {
	MarginPercent float64 `json:"margin_percent"`
	SellingPrice  float64 `json:"selling_price"`
	MarginValue   float64 `json:"margin_value"`
	FullCostPerKg float64 `json:"full_cost_per_kg"`
}

// Costing marks up the production cost by the recipe's target margin.
func Costing(result Result, recipe models.Recipe) CostSummary {
	margin := recipe.TargetMargin
	if margin == 0 {
		margin = DefaultTargetMargin
	}
	selling := result.TotalProductionCost * (1 + margin/100)
	return CostSummary{
		MarginPercent: margin,
		SellingPrice:  selling,
		MarginValue:   selling - result.TotalProductionCost,
		FullCostPerKg: ratio(result.TotalProductionCost, result.FinalWeight) * 1000,
	}
}

// GroupSummary totals the items sharing a group label, such as "Pâte".
type GroupSummary struct {
	Name    string  `json:"name"`
	Weight  float64 `json:"weight"`
	Percent float64 `json:"percent"`
	Cost    float64 `json:"cost"`
}

// Groups totals grouped items in order of first appearance. Ungrouped items
// are left out. totalInputWeight is the recipe-wide weight the shares refer to.
func Groups(recipe models.Recipe, ingredients []models.Ingredient, totalInputWeight float64) []GroupSummary {
	index := indexIngredients(ingredients)
	position := make(map[string]int)
	groups := []GroupSummary{}

	for _, item := range recipe.Items {
		name := strings.TrimSpace(item.Group)
		if name == "" {
			continue
		}
		idx, ok := position[name]
		if !ok {
			idx = len(groups)
			position[name] = idx
			groups = append(groups, GroupSummary{Name: name})
		}
		groups[idx].Weight += item.Quantity
		if ingredient, found := index[item.IngredientID]; found {
			groups[idx].Cost += (item.Quantity / 1000) * ingredient.CostPerKg
		}
	}

	for i := range groups {
		groups[i].Percent = ratio(groups[i].Weight, totalInputWeight) * 100
	}
	return groups
}

// BatchLine is one weighing instruction on a production sheet.
type BatchLine struct {
	Order          int               `json:"order"`
	IngredientName string            `json:"ingredient_name"`
	Group          string            `json:"group,omitempty"`
	BaseQuantity   float64           `json:"base_quantity"`
	Quantity       float64           `json:"quantity"`
	Allergens      []models.Allergen `json:"allergens,omitempty"`
}

// Batch is a recipe rescaled to a target input weight.
type Batch struct {
	RecipeName  string      `json:"recipe_name"`
	Version     int         `json:"version"`
	BaseWeight  float64     `json:"base_weight"`
	Target      float64     `json:"target"`
	ScaleFactor float64     `json:"scale_factor"`
	Lines       []BatchLine `json:"lines"`
}

// ScaleBatch rescales the recipe so its resolvable input weight equals target
// grams. A non-positive target falls back to the recipe's TargetBatchWeight.
func ScaleBatch(recipe models.Recipe, ingredients []models.Ingredient, target float64) (Batch, error) {
	if target <= 0 {
		target = recipe.TargetBatchWeight
	}
	if target <= 0 || math.IsNaN(target) || math.IsInf(target, 0) {
		return Batch{}, ErrInvalidBatchTarget
	}

	index := indexIngredients(ingredients)
	base := 0.0
	for _, item := range recipe.Items {
		if _, ok := index[item.IngredientID]; ok {
			base += item.Quantity
		}
	}
	if base <= 0 {
		return Batch{}, ErrEmptyRecipe
	}

	scale := target / base
	lines := make([]BatchLine, 0, len(recipe.Items))
	for _, item := range recipe.Items {
		ingredient, ok := index[item.IngredientID]
		if !ok || item.Quantity <= 0 {
			continue
		}
		lines = append(lines, BatchLine{
			IngredientName: ingredient.Name,
			Group:          strings.TrimSpace(item.Group),
			BaseQuantity:   item.Quantity,
			Quantity:       item.Quantity * scale,
			Allergens:      ingredient.DeclaredAllergens(),
		})
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if !almostEqual(lines[i].Quantity, lines[j].Quantity) {
			return lines[i].Quantity > lines[j].Quantity
		}
		return strings.ToLower(lines[i].IngredientName) < strings.ToLower(lines[j].IngredientName)
	})
	for i := range lines {
		lines[i].Order = i + 1
	}

	return Batch{
		RecipeName:  recipe.Name,
		Version:     recipe.Version,
		BaseWeight:  base,
		Target:      target,
		ScaleFactor: scale,
		Lines:       lines,
	}, nil
}

func almostEqual(a, b float64) bool {
	const epsilon = 1e-6
	return math.Abs(a-b) <= epsilon
}
