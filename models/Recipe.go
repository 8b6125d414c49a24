package models

import (
	"strings"

	"gorm.io/gorm"
)

type RecipeStatus string

const (
	RecipeDraft     RecipeStatus = "Brouillon"
	RecipeInDev     RecipeStatus = "En Développement"
	RecipeValidated RecipeStatus = "Validée"
	RecipeArchived  RecipeStatus = "Archivée"
)

// EnergyCostConfig describes the machine time consumed by one batch.
type EnergyCostConfig struct {
	DurationMinutes float64 `json:"duration_minutes"`
	PowerKw         float64 `json:"power_kw"`
	CostPerKwh      float64 `json:"cost_per_kwh"`
}

// Configured reports whether every energy parameter is set.
func (e EnergyCostConfig) Configured() bool {
	return e.DurationMinutes != 0 && e.PowerKw != 0 && e.CostPerKwh != 0
}

type Recipe struct {
	gorm.Model
	Name              string                `gorm:"not null" json:"name"`
	Version           int                   `gorm:"not null;default:1" json:"version"`
	Status            RecipeStatus          `gorm:"type:varchar(32);not null;default:Brouillon" json:"status"`
	Description       string                `gorm:"type:text" json:"description"`
	Items             []RecipeItem          `gorm:"foreignKey:RecipeID" json:"items"`
	PackagingItems    []RecipePackagingItem `gorm:"foreignKey:RecipeID" json:"packaging_items"`
	MoistureLoss      float64               `gorm:"not null;default:0" json:"moisture_loss"`
	TargetBatchWeight float64               `gorm:"not null;default:0" json:"target_batch_weight"`
	LaborCost         float64               `gorm:"not null;default:0" json:"labor_cost"`
	Energy            EnergyCostConfig      `gorm:"embedded;embeddedPrefix:energy_" json:"energy"`
	TargetMargin      float64               `gorm:"not null;default:0" json:"target_margin"`
	ProcessSteps      []ProcessStep         `gorm:"foreignKey:RecipeID" json:"process_steps"`
	QualityControls   []QualityControl      `gorm:"foreignKey:RecipeID" json:"quality_controls"`
	Organoleptic      OrganolepticProfile   `gorm:"embedded;embeddedPrefix:organoleptic_" json:"organoleptic"`
	Storage           StorageConditions     `gorm:"embedded;embeddedPrefix:storage_" json:"storage"`
	Logistics         LogisticsInfo         `gorm:"embedded;embeddedPrefix:logistics_" json:"logistics"`
}

type RecipeItem struct {
	gorm.Model
	RecipeID     uint    `gorm:"not null;index" json:"recipe_id"`
	IngredientID uint    `gorm:"not null" json:"ingredient_id"`
	Quantity     float64 `gorm:"not null" json:"quantity"` // grams, before losses
	Group        string  `json:"group,omitempty"`
}

type RecipePackagingItem struct {
	gorm.Model
	RecipeID    uint    `gorm:"not null;index" json:"recipe_id"`
	PackagingID uint    `gorm:"not null" json:"packaging_id"`
	Quantity    float64 `gorm:"not null" json:"quantity"` // units, may be fractional
}

// ProcessStep is one stage of the manufacturing process. A non-empty
// CriticalParam marks the step as a critical control point.
type ProcessStep struct {
	gorm.Model
	RecipeID      uint   `gorm:"not null;index" json:"recipe_id"`
	Order         int    `gorm:"column:step_order;not null" json:"order"`
	Name          string `gorm:"not null" json:"name"`
	Description   string `gorm:"type:text" json:"description"`
	CriticalParam string `json:"critical_param,omitempty"`
}

func (s ProcessStep) CriticalControlPoint() bool {
	return strings.TrimSpace(s.CriticalParam) != ""
}

type QualityControlType string

const (
	QualityPhysico      QualityControlType = "Physico"
	QualityMicrobio     QualityControlType = "Microbio"
	QualityOrganoleptic QualityControlType = "Organoleptic"
)

type QualityControl struct {
	gorm.Model
	RecipeID  uint               `gorm:"not null;index" json:"recipe_id"`
	Name      string             `gorm:"not null" json:"name"`
	Target    string             `json:"target"`
	Frequency string             `json:"frequency"`
	Type      QualityControlType `gorm:"type:varchar(16);not null;default:Physico" json:"type"`
}

type OrganolepticProfile struct {
	Appearance string `json:"appearance"`
	Texture    string `json:"texture"`
	Taste      string `json:"taste"`
	Smell      string `json:"smell"`
}

func (o OrganolepticProfile) Empty() bool {
	return o == OrganolepticProfile{}
}

type StorageConditions struct {
	ShelfLife    string `json:"shelf_life"`
	StorageTemp  string `json:"storage_temp"`
	AfterOpening string `json:"after_opening"`
}

func (s StorageConditions) Empty() bool {
	return s == StorageConditions{}
}

// LogisticsInfo describes palletisation of the finished product. PalletHeight
// is in centimetres.
type LogisticsInfo struct {
	UnitsPerBox     int     `json:"units_per_box"`
	BoxesPerLayer   int     `json:"boxes_per_layer"`
	LayersPerPallet int     `json:"layers_per_pallet"`
	PalletHeight    float64 `json:"pallet_height"`
}

func (l LogisticsInfo) Empty() bool {
	return l == LogisticsInfo{}
}

// UnitsPerPallet multiplies out the pallet plan.
func (l LogisticsInfo) UnitsPerPallet() int {
	return l.UnitsPerBox * l.BoxesPerLayer * l.LayersPerPallet
}

// RecipeRevision stores a frozen copy of a recipe. Snapshot holds the recipe
// aggregate, lines included, as JSON.
type RecipeRevision struct {
	gorm.Model
	RecipeID uint   `gorm:"not null;uniqueIndex:idx_recipe_revision_version" json:"recipe_id"`
	Version  int    `gorm:"not null;uniqueIndex:idx_recipe_revision_version" json:"version"`
	Author   string `json:"author"`
	Comment  string `gorm:"type:text" json:"comment"`
	Snapshot string `gorm:"type:text" json:"snapshot"`
}
