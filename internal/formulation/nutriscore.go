package formulation

import (
	"math"

	"formulab/models"
)

// kcalToKJ converts kilocalories into kilojoules.
const kcalToKJ = 4.184

// NutriScore is the outcome of grading a nutrient profile.
type NutriScore struct {
	Class Grade `json:"class"`
	Score int   `json:"score"`
}

// NutriScoreBreakdown lists the points awarded per component, useful when
// explaining a grade.
type NutriScoreBreakdown struct {
	EnergyPoints       int  `json:"energy_points"`
	SugarPoints        int  `json:"sugar_points"`
	SaturatedFatPoints int  `json:"saturated_fat_points"`
	SaltPoints         int  `json:"salt_points"`
	FiberPoints        int  `json:"fiber_points"`
	ProteinPoints      int  `json:"protein_points"`
	FruitVegPoints     int  `json:"fruit_veg_points"`
	Negative           int  `json:"negative"`
	Positive           int  `json:"positive"`
	ProteinCounted     bool `json:"protein_counted"`
	Score              int  `json:"score"`
}

// GradeNutriScore grades a per-100g profile with the 2023 solid-food algorithm.
//
// isRedMeat is accepted for the stricter red-meat protein cap of the official
// rules, which is not applied: red meat is graded like any other solid food.
func GradeNutriScore(nutrients models.NutrientProfile, fruitVegPercent float64, isRedMeat bool) NutriScore {
	breakdown := ScoreNutrients(nutrients, fruitVegPercent, isRedMeat)
	return NutriScore{
		Class: nutriScoreGrade(breakdown.Score),
		Score: breakdown.Score,
	}
}

// ScoreNutrients computes the component points and the final numeric score.
func ScoreNutrients(nutrients models.NutrientProfile, fruitVegPercent float64, _ bool) NutriScoreBreakdown {
	b := NutriScoreBreakdown{
		EnergyPoints:       energyPoints(nutrients.EnergyKcal * kcalToKJ),
		SugarPoints:        sugarPoints(nutrients.Sugars),
		SaturatedFatPoints: saturatedFatPoints(nutrients.SaturatedFat),
		SaltPoints:         saltPoints(nutrients.Salt),
		FiberPoints:        fiberPoints(nutrients.Fiber),
		ProteinPoints:      proteinPoints(nutrients.Protein),
		FruitVegPoints:     fruitVegPoints(fruitVegPercent),
	}

	b.Negative = b.EnergyPoints + b.SugarPoints + b.SaturatedFatPoints + b.SaltPoints

	// Protein only offsets a high negative score when the product is mostly
	// fruit, vegetables or legumes.
	b.ProteinCounted = b.Negative < 11 || fruitVegPercent > 80
	b.Positive = b.FiberPoints + b.FruitVegPoints
	if b.ProteinCounted {
		b.Positive += b.ProteinPoints
	}

	b.Score = b.Negative - b.Positive
	return b
}

func nutriScoreGrade(score int) Grade {
	switch {
	case score <= 0:
		return GradeA
	case score <= 2:
		return GradeB
	case score <= 10:
		return GradeC
	case score <= 18:
		return GradeD
	default:
		return GradeE
	}
}

func energyPoints(kj float64) int {
	if kj <= 335 {
		return 0
	}
	if kj > 3350 {
		return 10
	}
	return floorInt((kj-1)/335) + 1
}

func saturatedFatPoints(g float64) int {
	if g <= 1 {
		return 0
	}
	if g > 10 {
		return 10
	}
	return floorInt(g)
}

func sugarPoints(g float64) int {
	if g <= 0 {
		return 0
	}
	if g > 67.5 {
		return 15
	}
	return floorInt(g / 4.5)
}

// saltPoints reads grams of salt times 1000 as the milligram figure of the
// sodium table.
func saltPoints(g float64) int {
	mg := g * 1000
	if mg <= 200 {
		return 0
	}
	if mg > 2000 {
		return 20
	}
	return min(20, floorInt(mg/100))
}

func fiberPoints(g float64) int {
	if g <= 3.0 {
		return 0
	}
	if g > 7.4 {
		return 5
	}
	return floorInt((g-3.0)/0.8) + 1
}

func proteinPoints(g float64) int {
	if g <= 2.4 {
		return 0
	}
	if g > 17 {
		return 7
	}
	return floorInt((g-2.4)/2.4) + 1
}

func fruitVegPoints(percent float64) int {
	switch {
	case percent <= 40:
		return 0
	case percent <= 60:
		return 1
	case percent <= 80:
		return 2
	default:
		return 5
	}
}

func floorInt(v float64) int {
	return int(math.Floor(v))
}
