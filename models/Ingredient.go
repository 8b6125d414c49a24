package models

import (
	"gorm.io/gorm"
)

// NutrientProfile holds nutrient values expressed per 100g.
type NutrientProfile struct {
	EnergyKcal    float64 `json:"energy_kcal"`
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	SaturatedFat  float64 `json:"saturated_fat"`
	Carbohydrates float64 `json:"carbohydrates"`
	Sugars        float64 `json:"sugars"`
	Fiber         float64 `json:"fiber"`
	Salt          float64 `json:"salt"`
}

// PhysicoChemical carries optional lab measurements.
type PhysicoChemical struct {
	Brix *float64 `json:"brix,omitempty"`
	PH   *float64 `json:"ph,omitempty"`
	Aw   *float64 `json:"aw,omitempty"`
}

type Ingredient struct {
	gorm.Model
	Name                  string          `gorm:"not null" json:"name"`
	SupplierCode          string          `json:"supplier_code"`
	CostPerKg             float64         `gorm:"not null;default:0" json:"cost_per_kg"`
	Nutrients             NutrientProfile `gorm:"embedded;embeddedPrefix:nutrient_" json:"nutrients"`
	Allergens             []Allergen      `gorm:"serializer:json" json:"allergens"`
	Traces                []Allergen      `gorm:"serializer:json" json:"traces"`
	Labels                []LabelTag      `gorm:"serializer:json" json:"labels"`
	Physico               PhysicoChemical `gorm:"embedded;embeddedPrefix:physico_" json:"physico"`
	FruitVegetablePercent float64         `gorm:"not null;default:0" json:"fruit_vegetable_percent"`
	CarbonFootprint       *float64        `json:"carbon_footprint,omitempty"` // kg CO2e per kg
	IsLiquid              bool            `gorm:"not null;default:false" json:"is_liquid"`
	IsRedMeat             bool            `gorm:"not null;default:false" json:"is_red_meat"`
}

// HasLabel reports whether the ingredient carries tag.
func (i Ingredient) HasLabel(tag LabelTag) bool {
	for _, label := range i.Labels {
		if label == tag {
			return true
		}
	}
	return false
}

// DeclaredAllergens returns the ingredient allergens without empty placeholders,
// preserving their declared order.
func (i Ingredient) DeclaredAllergens() []Allergen {
	out := make([]Allergen, 0, len(i.Allergens))
	for _, allergen := range i.Allergens {
		if allergen.Declared() {
			out = append(out, allergen)
		}
	}
	return out
}
