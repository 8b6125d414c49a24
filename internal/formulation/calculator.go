// Package formulation derives cost, nutrition, labelling, environmental and
// packaging metrics from a recipe. Every function in this package is pure: it
// never mutates its inputs, never performs I/O and is safe for concurrent use.
package formulation

import (
	"math"
	"sort"

	"formulab/models"
)

// Calculate aggregates a recipe against the reference ingredients and
// packagings. Items whose ingredient or packaging cannot be found contribute
// nothing. Degenerate inputs (empty recipe, zero weight, total moisture loss)
// resolve to zero values; Calculate never fails.
func Calculate(recipe models.Recipe, ingredients []models.Ingredient, packagings []models.Packaging) Result {
	ingredientByID := indexIngredients(ingredients)
	packagingByID := indexPackagings(packagings)

	var (
		totalInputWeight    float64
		totalMaterialCost   float64
		totalCO2            float64
		weightedBrix        float64
		totalFruitVegWeight float64
		hasRedMeat          bool
		totals              models.NutrientProfile
	)

	labels := models.LabelTags()
	allergens := make(map[models.Allergen]struct{})
	traces := make(map[models.Allergen]struct{})

	for _, item := range recipe.Items {
		ingredient, ok := ingredientByID[item.IngredientID]
		if !ok {
			continue
		}
		quantity := item.Quantity

		totalInputWeight += quantity
		totalMaterialCost += (quantity / 1000) * ingredient.CostPerKg
		if ingredient.CarbonFootprint != nil {
			totalCO2 += (quantity / 1000) * *ingredient.CarbonFootprint
		}
		if ingredient.IsRedMeat {
			hasRedMeat = true
		}
		if ingredient.Physico.Brix != nil {
			weightedBrix += *ingredient.Physico.Brix * quantity
		}
		totalFruitVegWeight += quantity * (ingredient.FruitVegetablePercent / 100)

		labels = intersectLabels(labels, ingredient)

		for _, allergen := range ingredient.Allergens {
			if allergen.Declared() {
				allergens[allergen] = struct{}{}
			}
		}
		for _, trace := range ingredient.Traces {
			if trace.Declared() {
				traces[trace] = struct{}{}
			}
		}

		addNutrients(&totals, ingredient.Nutrients, quantity/100)
	}

	// A declared allergen supersedes a "may contain" mention.
	for allergen := range allergens {
		delete(traces, allergen)
	}

	var totalPackagingCost, totalPackagingWeight, recyclableWeight float64
	for _, item := range recipe.PackagingItems {
		pack, ok := packagingByID[item.PackagingID]
		if !ok {
			continue
		}
		totalPackagingCost += item.Quantity * pack.CostPerUnit
		weight := item.Quantity * pack.Weight
		totalPackagingWeight += weight
		if pack.Recyclability.Recovered() {
			recyclableWeight += weight
		}
	}

	totalEnergyCost := energyCost(recipe.Energy)

	lossFactor := recipe.MoistureLoss / 100
	finalWeight := math.Max(0, totalInputWeight*(1-lossFactor))
	grossWeight := finalWeight + totalPackagingWeight

	concentration := 0.0
	if finalWeight > 0 {
		concentration = 100 / finalWeight
	}
	per100g := scaleNutrients(totals, concentration)

	fruitVegPercent := ratio(totalFruitVegWeight, totalInputWeight) * 100
	nutriScore := GradeNutriScore(per100g, fruitVegPercent, hasRedMeat)

	return Result{
		TotalInputWeight:     totalInputWeight,
		FinalWeight:          finalWeight,
		GrossWeight:          grossWeight,
		Yield:                ratio(finalWeight, totalInputWeight) * 100,
		CostPerKg:            ratio(totalMaterialCost, finalWeight/1000),
		TotalMaterialCost:    totalMaterialCost,
		TotalPackagingCost:   totalPackagingCost,
		TotalEnergyCost:      totalEnergyCost,
		TotalProductionCost:  totalMaterialCost + totalPackagingCost + recipe.LaborCost + totalEnergyCost,
		NutrientsPer100g:     per100g,
		Allergens:            sortedAllergens(allergens),
		Traces:               sortedAllergens(traces),
		IngredientList:       IngredientDeclaration(recipe.Items, ingredients),
		NutriScore:           nutriScore.Class,
		NutriScoreScore:      nutriScore.Score,
		CalculatedLabels:     labels,
		TheoreticalBrix:      theoreticalBrix(weightedBrix, totalInputWeight, finalWeight),
		FruitVegPercent:      fruitVegPercent,
		HasRedMeat:           hasRedMeat,
		CarbonFootprintPerKg: ratio(totalCO2, finalWeight/1000),
		EcoScore:             gradePackaging(totalPackagingWeight, recyclableWeight, finalWeight),
	}
}

func indexIngredients(ingredients []models.Ingredient) map[uint]models.Ingredient {
	index := make(map[uint]models.Ingredient, len(ingredients))
	for _, ingredient := range ingredients {
		if _, exists := index[ingredient.ID]; exists {
			continue
		}
		index[ingredient.ID] = ingredient
	}
	return index
}

func indexPackagings(packagings []models.Packaging) map[uint]models.Packaging {
	index := make(map[uint]models.Packaging, len(packagings))
	for _, pack := range packagings {
		if _, exists := index[pack.ID]; exists {
			continue
		}
		index[pack.ID] = pack
	}
	return index
}

// intersectLabels keeps the labels of current that ingredient also carries.
// The result is a new slice; current is left untouched.
func intersectLabels(current []models.LabelTag, ingredient models.Ingredient) []models.LabelTag {
	kept := make([]models.LabelTag, 0, len(current))
	for _, label := range current {
		if ingredient.HasLabel(label) {
			kept = append(kept, label)
		}
	}
	return kept
}

func addNutrients(total *models.NutrientProfile, n models.NutrientProfile, factor float64) {
	total.EnergyKcal += n.EnergyKcal * factor
	total.Protein += n.Protein * factor
	total.Fat += n.Fat * factor
	total.SaturatedFat += n.SaturatedFat * factor
	total.Carbohydrates += n.Carbohydrates * factor
	total.Sugars += n.Sugars * factor
	total.Fiber += n.Fiber * factor
	total.Salt += n.Salt * factor
}

func scaleNutrients(n models.NutrientProfile, factor float64) models.NutrientProfile {
	return models.NutrientProfile{
		EnergyKcal:    n.EnergyKcal * factor,
		Protein:       n.Protein * factor,
		Fat:           n.Fat * factor,
		SaturatedFat:  n.SaturatedFat * factor,
		Carbohydrates: n.Carbohydrates * factor,
		Sugars:        n.Sugars * factor,
		Fiber:         n.Fiber * factor,
		Salt:          n.Salt * factor,
	}
}

func energyCost(cfg models.EnergyCostConfig) float64 {
	if !cfg.Configured() {
		return 0
	}
	return (cfg.DurationMinutes / 60) * cfg.PowerKw * cfg.CostPerKwh
}

// theoreticalBrix averages Brix over the whole input weight, ingredients
// without a Brix value included, then concentrates it by the moisture loss.
func theoreticalBrix(weightedBrix, inputWeight, finalWeight float64) float64 {
	if finalWeight <= 0 {
		return 0
	}
	average := ratio(weightedBrix, inputWeight)
	return math.Min(100, average*(inputWeight/finalWeight))
}

func sortedAllergens(set map[models.Allergen]struct{}) []models.Allergen {
	out := make([]models.Allergen, 0, len(set))
	for allergen := range set {
		out = append(out, allergen)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ratio divides a by b, returning 0 unless b is positive.
func ratio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}
