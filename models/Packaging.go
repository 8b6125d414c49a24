package models

import "gorm.io/gorm"

type PackagingType string

const (
	PackagingPrimary   PackagingType = "Primary"
	PackagingSecondary PackagingType = "Secondary"
	PackagingTertiary  PackagingType = "Tertiary"
)

type Recyclability string

const (
	Recyclable    Recyclability = "Recyclable"
	NonRecyclable Recyclability = "Non-Recyclable"
	Compostable   Recyclability = "Compostable"
	Reusable      Recyclability = "Reusable"
)

// Recovered reports whether the material leaves the waste stream: recyclable,
// compostable or reusable. Unknown or empty classes count as not recovered.
func (r Recyclability) Recovered() bool {
	switch r {
	case Recyclable, Compostable, Reusable:
		return true
	default:
		return false
	}
}

type Packaging struct {
	gorm.Model
	Name          string        `gorm:"not null" json:"name"`
	SupplierCode  string        `json:"supplier_code"`
	Type          PackagingType `gorm:"type:varchar(16);not null;default:Primary" json:"type"`
	Material      string        `json:"material"`
	Recyclability Recyclability `gorm:"type:varchar(32)" json:"recyclability,omitempty"`
	Weight        float64       `gorm:"not null;default:0" json:"weight"` // grams per unit
	CostPerUnit   float64       `gorm:"not null;default:0" json:"cost_per_unit"`
}
