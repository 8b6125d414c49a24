package formulation

// gradePackaging classifies packaging sustainability from its weight relative
// to the product and its recovered share. The scale stops at D.
func gradePackaging(packagingWeight, recoveredWeight, finalWeight float64) EcoScore {
	score := EcoScore{
		Ratio:          ratio(packagingWeight, finalWeight) * 100,
		RecyclableRate: ratio(recoveredWeight, packagingWeight) * 100,
	}

	switch {
	case packagingWeight == 0 && finalWeight > 0:
		// Sold loose.
		score.Class = GradeA
	case score.Ratio < 5 && score.RecyclableRate > 90:
		score.Class = GradeA
	case score.Ratio < 10 && score.RecyclableRate > 80:
		score.Class = GradeB
	case score.Ratio > 20 || score.RecyclableRate < 50:
		score.Class = GradeD
	default:
		score.Class = GradeC
	}
	return score
}
