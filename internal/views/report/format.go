package report

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Supported locale keys for rendered sheets.
const (
	LocaleFrench  = "fr"
	LocaleEnglish = "en"
)

// NormalizeLocale returns a supported locale key, or "" when value is unknown.
func NormalizeLocale(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "fr", "fr-fr":
		return LocaleFrench
	case "en", "en-gb", "en-us":
		return LocaleEnglish
	default:
		return ""
	}
}

// Formatter renders numbers, money and dates for a single locale.
type Formatter struct {
	locale  string
	printer *message.Printer
}

// NewFormatter builds a Formatter, falling back to French for unknown keys.
func NewFormatter(locale string) Formatter {
	key := NormalizeLocale(locale)
	tag := language.French
	if key == LocaleEnglish {
		tag = language.BritishEnglish
	} else {
		key = LocaleFrench
	}
	return Formatter{locale: key, printer: message.NewPrinter(tag)}
}

func (f Formatter) Locale() string {
	return f.locale
}

// Grams renders a mass in grams with two decimals.
func (f Formatter) Grams(value float64) string {
	return f.printer.Sprintf("%.2f", value) + " g"
}

// Currency renders a euro amount with two decimals.
func (f Formatter) Currency(value float64) string {
	amount := f.printer.Sprintf("%.2f", value)
	if f.locale == LocaleEnglish {
		return "€" + amount
	}
	return amount + " €"
}

// Percent renders a percentage with one decimal.
func (f Formatter) Percent(value float64) string {
	if f.locale == LocaleEnglish {
		return f.printer.Sprintf("%.1f", value) + "%"
	}
	return f.printer.Sprintf("%.1f", value) + " %"
}

// Decimal renders value with the requested number of decimals.
func (f Formatter) Decimal(value float64, decimals int) string {
	return f.printer.Sprintf("%.*f", decimals, value)
}

// Date renders a production-friendly date.
func (f Formatter) Date(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	if f.locale == LocaleEnglish {
		return v.Format("02 Jan 2006")
	}
	return v.Format("02/01/2006")
}

// Label returns the translation for a fixed sheet caption.
func (f Formatter) Label(key string) string {
	if f.locale == LocaleEnglish {
		if value, ok := englishLabels[key]; ok {
			return value
		}
	}
	if value, ok := frenchLabels[key]; ok {
		return value
	}
	return key
}

var frenchLabels = map[string]string{
	"technical_sheet":   "Fiche technique",
	"batch_sheet":       "Fiche de fabrication",
	"version":           "Version",
	"status":            "Statut",
	"ingredients":       "Liste des ingrédients",
	"allergens":         "Allergènes",
	"traces":            "Traces éventuelles",
	"labels":            "Labels",
	"none":              "Aucun",
	"weights":           "Poids",
	"input_weight":      "Poids mis en œuvre",
	"final_weight":      "Poids fini",
	"gross_weight":      "Poids brut emballé",
	"yield":             "Rendement",
	"costs":             "Coûts",
	"material_cost":     "Matières premières",
	"packaging_cost":    "Emballages",
	"energy_cost":       "Énergie",
	"labor_cost":        "Main d'œuvre",
	"production_cost":   "Coût de revient",
	"cost_per_kg":       "Coût matière au kg",
	"full_cost_per_kg":  "Coût de revient au kg",
	"selling_price":     "Prix de vente conseillé",
	"margin":            "Marge",
	"nutrition":         "Valeurs nutritionnelles pour 100 g",
	"energy":            "Énergie (kcal)",
	"protein":           "Protéines",
	"fat":               "Matières grasses",
	"saturated_fat":     "dont acides gras saturés",
	"carbohydrates":     "Glucides",
	"sugars":            "dont sucres",
	"fiber":             "Fibres",
	"salt":              "Sel",
	"nutriscore":        "Nutri-Score",
	"points":            "Points",
	"negative_points":   "Points négatifs",
	"positive_points":   "Points positifs",
	"fruit_veg":         "Fruits et légumes",
	"environment":       "Environnement",
	"carbon_per_kg":     "Empreinte carbone (kg CO2e/kg)",
	"packaging_ratio":   "Ratio emballage",
	"recyclable_rate":   "Part recyclable",
	"eco_score":         "Éco-score emballage",
	"brix":              "Brix théorique",
	"groups":            "Sous-ensembles",
	"group":             "Sous-ensemble",
	"share":             "Part",
	"target":            "Quantité cible",
	"base_batch":        "Lot de référence",
	"scale_factor":      "Coefficient",
	"lot_number":        "N° de lot",
	"run_date":          "Date",
	"order":             "#",
	"ingredient":        "Ingrédient",
	"base_quantity":     "Quantité de base",
	"quantity":          "Quantité à peser",
	"weighed":           "Pesé",
	"process":           "Process de fabrication",
	"step":              "Étape",
	"description":       "Description",
	"critical_param":    "Point critique",
	"quality":           "Plan de contrôle",
	"control":           "Contrôle",
	"control_target":    "Cible",
	"frequency":         "Fréquence",
	"control_type":      "Type",
	"qc_physico":        "Physico-chimique",
	"qc_microbio":       "Microbiologique",
	"qc_organoleptic":   "Organoleptique",
	"organoleptic":      "Caractéristiques organoleptiques",
	"appearance":        "Aspect",
	"texture":           "Texture",
	"taste":             "Goût",
	"smell":             "Odeur",
	"storage":           "Conservation",
	"shelf_life":        "DLC / DDM",
	"storage_temp":      "Température de stockage",
	"after_opening":     "Après ouverture",
	"logistics":         "Logistique",
	"units_per_box":     "UVC par carton",
	"boxes_per_layer":   "Cartons par couche",
	"layers_per_pallet": "Couches par palette",
	"units_per_pallet":  "UVC par palette",
	"pallet_height":     "Hauteur palette",
}

var englishLabels = map[string]string{
	"technical_sheet":   "Technical sheet",
	"batch_sheet":       "Batch production sheet",
	"version":           "Version",
	"status":            "Status",
	"ingredients":       "Ingredient list",
	"allergens":         "Allergens",
	"traces":            "May contain",
	"labels":            "Labels",
	"none":              "None",
	"weights":           "Weights",
	"input_weight":      "Input weight",
	"final_weight":      "Finished weight",
	"gross_weight":      "Packed gross weight",
	"yield":             "Yield",
	"costs":             "Costs",
	"material_cost":     "Raw materials",
	"packaging_cost":    "Packaging",
	"energy_cost":       "Energy",
	"labor_cost":        "Labour",
	"production_cost":   "Production cost",
	"cost_per_kg":       "Material cost per kg",
	"full_cost_per_kg":  "Production cost per kg",
	"selling_price":     "Suggested selling price",
	"margin":            "Margin",
	"nutrition":         "Nutrition per 100 g",
	"energy":            "Energy (kcal)",
	"protein":           "Protein",
	"fat":               "Fat",
	"saturated_fat":     "of which saturates",
	"carbohydrates":     "Carbohydrate",
	"sugars":            "of which sugars",
	"fiber":             "Fibre",
	"salt":              "Salt",
	"nutriscore":        "Nutri-Score",
	"points":            "Points",
	"negative_points":   "Negative points",
	"positive_points":   "Positive points",
	"fruit_veg":         "Fruit and vegetables",
	"environment":       "Environment",
	"carbon_per_kg":     "Carbon footprint (kg CO2e/kg)",
	"packaging_ratio":   "Packaging ratio",
	"recyclable_rate":   "Recyclable share",
	"eco_score":         "Packaging eco-score",
	"brix":              "Theoretical Brix",
	"groups":            "Sub-assemblies",
	"group":             "Sub-assembly",
	"share":             "Share",
	"target":            "Target quantity",
	"base_batch":        "Reference batch",
	"scale_factor":      "Scale factor",
	"lot_number":        "Lot number",
	"run_date":          "Date",
	"order":             "#",
	"ingredient":        "Ingredient",
	"base_quantity":     "Base quantity",
	"quantity":          "Quantity to weigh",
	"weighed":           "Weighed",
	"process":           "Manufacturing process",
	"step":              "Step",
	"description":       "Description",
	"critical_param":    "Critical limit",
	"quality":           "Quality control plan",
	"control":           "Control",
	"control_target":    "Target",
	"frequency":         "Frequency",
	"control_type":      "Type",
	"qc_physico":        "Physico-chemical",
	"qc_microbio":       "Microbiological",
	"qc_organoleptic":   "Sensory",
	"organoleptic":      "Sensory profile",
	"appearance":        "Appearance",
	"texture":           "Texture",
	"taste":             "Taste",
	"smell":             "Smell",
	"storage":           "Storage",
	"shelf_life":        "Shelf life",
	"storage_temp":      "Storage temperature",
	"after_opening":     "After opening",
	"logistics":         "Logistics",
	"units_per_box":     "Units per case",
	"boxes_per_layer":   "Cases per layer",
	"layers_per_pallet": "Layers per pallet",
	"units_per_pallet":  "Units per pallet",
	"pallet_height":     "Pallet height",
}
