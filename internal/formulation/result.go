package formulation

import "formulab/models"

// Grade is a letter on the A (best) to E (worst) scale.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
)

// EcoScore summarises how much packaging a product carries and how much of it
// can be recovered.
type EcoScore struct {
	Ratio          float64 `json:"ratio"`           // packaging weight as % of net weight
	RecyclableRate float64 `json:"recyclable_rate"` // recovered share of packaging weight, %
	Class          Grade   `json:"class"`
}

// Result is the full set of metrics derived from one recipe. A fresh value is
// built on every call to Calculate.
type Result struct {
	TotalInputWeight     float64                `json:"total_input_weight"`
	FinalWeight          float64                `json:"final_weight"`
	GrossWeight          float64                `json:"gross_weight"`
	Yield                float64                `json:"yield"`
	CostPerKg            float64                `json:"cost_per_kg"`
	TotalMaterialCost    float64                `json:"total_material_cost"`
	TotalPackagingCost   float64                `json:"total_packaging_cost"`
	TotalEnergyCost      float64                `json:"total_energy_cost"`
	TotalProductionCost  float64                `json:"total_production_cost"`
	NutrientsPer100g     models.NutrientProfile `json:"nutrients_per_100g"`
	Allergens            []models.Allergen      `json:"allergens"`
	Traces               []models.Allergen      `json:"traces"`
	IngredientList       string                 `json:"ingredient_list"`
	NutriScore           Grade                  `json:"nutri_score"`
	NutriScoreScore      int                    `json:"nutri_score_score"`
	CalculatedLabels     []models.LabelTag      `json:"calculated_labels"`
	TheoreticalBrix      float64                `json:"theoretical_brix"`
	FruitVegPercent      float64                `json:"fruit_veg_percent"`
	HasRedMeat           bool                   `json:"has_red_meat"`
	CarbonFootprintPerKg float64                `json:"carbon_footprint_per_kg"`
	EcoScore             EcoScore               `json:"eco_score"`
}
