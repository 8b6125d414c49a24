package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	applog "formulab/internal/log"
	"formulab/models"
)

type nutrientPayload struct {
	EnergyKcal    float64 `json:"energy_kcal" validate:"gte=0"`
	Protein       float64 `json:"protein" validate:"gte=0,lte=100"`
	Fat           float64 `json:"fat" validate:"gte=0,lte=100"`
	SaturatedFat  float64 `json:"saturated_fat" validate:"gte=0,lte=100"`
	Carbohydrates float64 `json:"carbohydrates" validate:"gte=0,lte=100"`
	Sugars        float64 `json:"sugars" validate:"gte=0,lte=100"`
	Fiber         float64 `json:"fiber" validate:"gte=0,lte=100"`
	Salt          float64 `json:"salt" validate:"gte=0,lte=100"`
}

type physicoPayload struct {
	Brix *float64 `json:"brix" validate:"omitempty,gte=0,lte=100"`
	PH   *float64 `json:"ph" validate:"omitempty,gte=0,lte=14"`
	Aw   *float64 `json:"aw" validate:"omitempty,gte=0,lte=1"`
}

type ingredientRequest struct {
	Name                  string          `json:"name" validate:"required"`
	SupplierCode          string          `json:"supplier_code"`
	CostPerKg             float64         `json:"cost_per_kg" validate:"gte=0"`
	Nutrients             nutrientPayload `json:"nutrients"`
	Allergens             []string        `json:"allergens" validate:"dive,allergen"`
	Traces                []string        `json:"traces" validate:"dive,allergen"`
	Labels                []string        `json:"labels" validate:"dive,label_tag"`
	Physico               physicoPayload  `json:"physico"`
	FruitVegetablePercent float64         `json:"fruit_vegetable_percent" validate:"gte=0,lte=100"`
	CarbonFootprint       *float64        `json:"carbon_footprint" validate:"omitempty,gte=0"`
	IsLiquid              bool            `json:"is_liquid"`
	IsRedMeat             bool            `json:"is_red_meat"`
}

// apply copies the validated payload onto ingredient, normalising the
// allergen and label spellings against the catalogues.
func (p ingredientRequest) apply(ingredient *models.Ingredient) {
	ingredient.Name = strings.TrimSpace(p.Name)
	ingredient.SupplierCode = strings.TrimSpace(p.SupplierCode)
	ingredient.CostPerKg = p.CostPerKg
	ingredient.Nutrients = models.NutrientProfile(p.Nutrients)
	ingredient.Allergens = parseAllergens(p.Allergens)
	ingredient.Traces = parseAllergens(p.Traces)
	ingredient.Labels = parseLabels(p.Labels)
	ingredient.Physico = models.PhysicoChemical(p.Physico)
	ingredient.FruitVegetablePercent = p.FruitVegetablePercent
	ingredient.CarbonFootprint = p.CarbonFootprint
	ingredient.IsLiquid = p.IsLiquid
	ingredient.IsRedMeat = p.IsRedMeat
}

// parseAllergens drops placeholders and duplicates.
func parseAllergens(values []string) []models.Allergen {
	out := make([]models.Allergen, 0, len(values))
	seen := make(map[models.Allergen]bool, len(values))
	for _, value := range values {
		allergen, ok := models.ParseAllergen(value)
		if !ok || !allergen.Declared() || seen[allergen] {
			continue
		}
		seen[allergen] = true
		out = append(out, allergen)
	}
	return out
}

func parseLabels(values []string) []models.LabelTag {
	out := make([]models.LabelTag, 0, len(values))
	seen := make(map[models.LabelTag]bool, len(values))
	for _, value := range values {
		label, ok := models.ParseLabelTag(value)
		if !ok || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}

// IngredientResource handles CRUD interactions for the ingredient catalogue.
func IngredientResource(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r, "ingredients") {
		return
	}

	segments := resourceSegments(r, "/app/api/ingredients")
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listIngredients(w, r)
		case http.MethodPost:
			createIngredient(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	ingredientID, ok := parseID(segments[0])
	if !ok || len(segments) > 1 {
		applog.Debug(r.Context(), "invalid ingredient path", "path", r.URL.Path)
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showIngredient(w, r, ingredientID)
	case http.MethodPut:
		updateIngredient(w, r, ingredientID)
	case http.MethodDelete:
		deleteIngredient(w, r, ingredientID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listIngredients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := database.WithContext(ctx).Order("name asc")
	if search := strings.TrimSpace(r.URL.Query().Get("q")); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		applog.Error(ctx, "failed to list ingredients", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredients")
		return
	}
	writeJSON(w, http.StatusOK, ingredients)
}

func showIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) {
	ctx := r.Context()
	var ingredient models.Ingredient
	if err := database.WithContext(ctx).First(&ingredient, ingredientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "ingredient not found", "id", ingredientID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load ingredient", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredient")
		return
	}
	writeJSON(w, http.StatusOK, ingredient)
}

func createIngredient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload ingredientRequest
	if err := decodePayload(r, &payload); err != nil {
		applog.Debug(ctx, "invalid ingredient payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, payloadErrorMessage(err))
		return
	}

	var ingredient models.Ingredient
	payload.apply(&ingredient)
	if err := database.WithContext(ctx).Create(&ingredient).Error; err != nil {
		applog.Error(ctx, "failed to create ingredient", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create ingredient")
		return
	}

	applog.Debug(ctx, "ingredient created", "id", ingredient.ID)
	writeJSON(w, http.StatusCreated, ingredient)
}

func updateIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) {
	ctx := r.Context()
	var ingredient models.Ingredient
	if err := database.WithContext(ctx).First(&ingredient, ingredientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load ingredient for update", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredient")
		return
	}

	var payload ingredientRequest
	if err := decodePayload(r, &payload); err != nil {
		applog.Debug(ctx, "invalid ingredient update payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, payloadErrorMessage(err))
		return
	}

	payload.apply(&ingredient)
	if err := database.WithContext(ctx).Save(&ingredient).Error; err != nil {
		applog.Error(ctx, "failed to update ingredient", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update ingredient")
		return
	}
	writeJSON(w, http.StatusOK, ingredient)
}

func deleteIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) {
	ctx := r.Context()
	result := database.WithContext(ctx).Delete(&models.Ingredient{}, ingredientID)
	if result.Error != nil {
		applog.Error(ctx, "failed to delete ingredient", "error", result.Error, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete ingredient")
		return
	}
	if result.RowsAffected == 0 {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
