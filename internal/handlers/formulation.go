package handlers

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"formulab/internal/formulation"
	applog "formulab/internal/log"
	"formulab/models"
)

var errRecipeNotFound = errors.New("handlers: recipe not found")

type formulationResponse struct {
	Result    formulation.Result              `json:"result"`
	Costing   formulation.CostSummary         `json:"costing"`
	Groups    []formulation.GroupSummary      `json:"groups"`
	Breakdown formulation.NutriScoreBreakdown `json:"nutri_score_breakdown"`
}

// FormulationPreview evaluates an unsaved recipe body against the stored
// catalogue without persisting anything.
func FormulationPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !requireDatabase(w, r, "formulation preview") {
		return
	}

	ctx := r.Context()
	var payload recipeRequest
	if err := decodePayload(r, &payload); err != nil {
		applog.Debug(ctx, "invalid formulation preview payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, payloadErrorMessage(err))
		return
	}

	recipe := payload.recipe()
	ingredients, packagings, err := loadCatalogue(ctx, recipe)
	if err != nil {
		applog.Error(ctx, "failed to load catalogue for preview", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load catalogue")
		return
	}

	writeJSON(w, http.StatusOK, evaluate(recipe, ingredients, packagings))
}

func showFormulation(w http.ResponseWriter, r *http.Request, recipeID uint) {
	ctx := r.Context()
	recipe, err := loadRecipe(ctx, recipeID)
	if err != nil {
		if errors.Is(err, errRecipeNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load recipe for formulation", "error", err, "id", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load recipe")
		return
	}

	ingredients, packagings, err := loadCatalogue(ctx, recipe)
	if err != nil {
		applog.Error(ctx, "failed to load catalogue for formulation", "error", err, "id", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load catalogue")
		return
	}

	applog.Debug(ctx, "formulation computed", "id", recipeID, "items", len(recipe.Items))
	writeJSON(w, http.StatusOK, evaluate(recipe, ingredients, packagings))
}

func evaluate(recipe models.Recipe, ingredients []models.Ingredient, packagings []models.Packaging) formulationResponse {
	result := formulation.Calculate(recipe, ingredients, packagings)
	return formulationResponse{
		Result:    result,
		Costing:   formulation.Costing(result, withDefaultMargin(recipe)),
		Groups:    formulation.Groups(recipe, ingredients, result.TotalInputWeight),
		Breakdown: formulation.ScoreNutrients(result.NutrientsPer100g, result.FruitVegPercent, result.HasRedMeat),
	}
}

// withDefaultMargin fills an unset target margin from the configured default.
func withDefaultMargin(recipe models.Recipe) models.Recipe {
	if recipe.TargetMargin == 0 && defaultMargin > 0 {
		recipe.TargetMargin = defaultMargin
	}
	return recipe
}

func loadRecipe(ctx context.Context, recipeID uint) (models.Recipe, error) {
	if database == nil {
		return models.Recipe{}, gorm.ErrInvalidDB
	}
	return queryRecipe(database.WithContext(ctx), recipeID)
}

// queryRecipe loads the recipe aggregate with every line collection in a
// stable order.
func queryRecipe(tx *gorm.DB, recipeID uint) (models.Recipe, error) {
	byID := func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }

	var recipe models.Recipe
	err := tx.
		Preload("Items", byID).
		Preload("PackagingItems", byID).
		Preload("ProcessSteps", func(tx *gorm.DB) *gorm.DB { return tx.Order("step_order asc, id asc") }).
		Preload("QualityControls", byID).
		First(&recipe, recipeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Recipe{}, errRecipeNotFound
		}
		return models.Recipe{}, err
	}
	return recipe, nil
}

// loadCatalogue fetches only the ingredients and packagings referenced by
// recipe. Missing references are left for the engine to skip.
func loadCatalogue(ctx context.Context, recipe models.Recipe) ([]models.Ingredient, []models.Packaging, error) {
	if database == nil {
		return nil, nil, gorm.ErrInvalidDB
	}

	ingredientIDs := make([]uint, 0, len(recipe.Items))
	for _, item := range recipe.Items {
		ingredientIDs = append(ingredientIDs, item.IngredientID)
	}
	packagingIDs := make([]uint, 0, len(recipe.PackagingItems))
	for _, item := range recipe.PackagingItems {
		packagingIDs = append(packagingIDs, item.PackagingID)
	}

	var ingredients []models.Ingredient
	if len(ingredientIDs) > 0 {
		if err := database.WithContext(ctx).Where("id IN ?", ingredientIDs).Find(&ingredients).Error; err != nil {
			return nil, nil, err
		}
	}

	var packagings []models.Packaging
	if len(packagingIDs) > 0 {
		if err := database.WithContext(ctx).Where("id IN ?", packagingIDs).Find(&packagings).Error; err != nil {
			return nil, nil, err
		}
	}

	return ingredients, packagings, nil
}
