package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	applog "formulab/internal/log"
	"formulab/models"
)

type recipeItemPayload struct {
	IngredientID uint    `json:"ingredient_id" validate:"required"`
	Quantity     float64 `json:"quantity" validate:"gte=0"`
	Group        string  `json:"group"`
}

type recipePackagingPayload struct {
	PackagingID uint    `json:"packaging_id" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
}

type energyPayload struct {
	DurationMinutes float64 `json:"duration_minutes" validate:"gte=0"`
	PowerKw         float64 `json:"power_kw" validate:"gte=0"`
	CostPerKwh      float64 `json:"cost_per_kwh" validate:"gte=0"`
}

type processStepPayload struct {
	Order         int    `json:"order" validate:"gte=0"`
	Name          string `json:"name" validate:"required,max=120"`
	Description   string `json:"description" validate:"max=2000"`
	CriticalParam string `json:"critical_param" validate:"max=255"`
}

type qualityControlPayload struct {
	Name      string `json:"name" validate:"required,max=120"`
	Target    string `json:"target" validate:"max=255"`
	Frequency string `json:"frequency" validate:"max=255"`
	Type      string `json:"type" validate:"omitempty,oneof=Physico Microbio Organoleptic"`
}

type organolepticPayload struct {
	Appearance string `json:"appearance" validate:"max=500"`
	Texture    string `json:"texture" validate:"max=500"`
	Taste      string `json:"taste" validate:"max=500"`
	Smell      string `json:"smell" validate:"max=500"`
}

type storagePayload struct {
	ShelfLife    string `json:"shelf_life" validate:"max=120"`
	StorageTemp  string `json:"storage_temp" validate:"max=120"`
	AfterOpening string `json:"after_opening" validate:"max=255"`
}

type logisticsPayload struct {
	UnitsPerBox     int     `json:"units_per_box" validate:"gte=0"`
	BoxesPerLayer   int     `json:"boxes_per_layer" validate:"gte=0"`
	LayersPerPallet int     `json:"layers_per_pallet" validate:"gte=0"`
	PalletHeight    float64 `json:"pallet_height" validate:"gte=0"`
}

type recipeRequest struct {
	Name              string                   `json:"name" validate:"required"`
	Status            string                   `json:"status" validate:"recipe_status"`
	Description       string                   `json:"description"`
	Items             []recipeItemPayload      `json:"items" validate:"dive"`
	PackagingItems    []recipePackagingPayload `json:"packaging_items" validate:"dive"`
	MoistureLoss      float64                  `json:"moisture_loss" validate:"gte=0,lt=100"`
	TargetBatchWeight float64                  `json:"target_batch_weight" validate:"gte=0"`
	LaborCost         float64                  `json:"labor_cost" validate:"gte=0"`
	Energy            energyPayload            `json:"energy"`
	TargetMargin      float64                  `json:"target_margin" validate:"gte=0"`
	ProcessSteps      []processStepPayload     `json:"process_steps" validate:"dive"`
	QualityControls   []qualityControlPayload  `json:"quality_controls" validate:"dive"`
	Organoleptic      organolepticPayload      `json:"organoleptic"`
	Storage           storagePayload           `json:"storage"`
	Logistics         logisticsPayload         `json:"logistics"`
}

// recipe builds an unsaved recipe aggregate from the payload.
func (p recipeRequest) recipe() models.Recipe {
	recipe := models.Recipe{
		Name:              strings.TrimSpace(p.Name),
		Version:           1,
		Status:            models.RecipeStatus(p.Status),
		Description:       strings.TrimSpace(p.Description),
		MoistureLoss:      p.MoistureLoss,
		TargetBatchWeight: p.TargetBatchWeight,
		LaborCost:         p.LaborCost,
		Energy:            models.EnergyCostConfig(p.Energy),
		TargetMargin:      p.TargetMargin,
		Organoleptic: models.OrganolepticProfile{
			Appearance: strings.TrimSpace(p.Organoleptic.Appearance),
			Texture:    strings.TrimSpace(p.Organoleptic.Texture),
			Taste:      strings.TrimSpace(p.Organoleptic.Taste),
			Smell:      strings.TrimSpace(p.Organoleptic.Smell),
		},
		Storage: models.StorageConditions{
			ShelfLife:    strings.TrimSpace(p.Storage.ShelfLife),
			StorageTemp:  strings.TrimSpace(p.Storage.StorageTemp),
			AfterOpening: strings.TrimSpace(p.Storage.AfterOpening),
		},
		Logistics: models.LogisticsInfo(p.Logistics),
	}
	if recipe.Status == "" {
		recipe.Status = models.RecipeDraft
	}

	recipe.Items = make([]models.RecipeItem, 0, len(p.Items))
	for _, item := range p.Items {
		recipe.Items = append(recipe.Items, models.RecipeItem{
			IngredientID: item.IngredientID,
			Quantity:     item.Quantity,
			Group:        strings.TrimSpace(item.Group),
		})
	}
	recipe.PackagingItems = make([]models.RecipePackagingItem, 0, len(p.PackagingItems))
	for _, item := range p.PackagingItems {
		recipe.PackagingItems = append(recipe.PackagingItems, models.RecipePackagingItem{
			PackagingID: item.PackagingID,
			Quantity:    item.Quantity,
		})
	}
	recipe.ProcessSteps = p.steps()
	recipe.QualityControls = make([]models.QualityControl, 0, len(p.QualityControls))
	for _, control := range p.QualityControls {
		kind := models.QualityControlType(control.Type)
		if kind == "" {
			kind = models.QualityPhysico
		}
		recipe.QualityControls = append(recipe.QualityControls, models.QualityControl{
			Name:      strings.TrimSpace(control.Name),
			Target:    strings.TrimSpace(control.Target),
			Frequency: strings.TrimSpace(control.Frequency),
			Type:      kind,
		})
	}
	return recipe
}

// steps numbers unordered steps by position and sorts the result.
func (p recipeRequest) steps() []models.ProcessStep {
	steps := make([]models.ProcessStep, 0, len(p.ProcessSteps))
	for i, step := range p.ProcessSteps {
		order := step.Order
		if order == 0 {
			order = i + 1
		}
		steps = append(steps, models.ProcessStep{
			Order:         order,
			Name:          strings.TrimSpace(step.Name),
			Description:   strings.TrimSpace(step.Description),
			CriticalParam: strings.TrimSpace(step.CriticalParam),
		})
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	return steps
}

type revisionRequest struct {
	Author  string `json:"author" validate:"max=120"`
	Comment string `json:"comment" validate:"max=2000"`
}

// RecipeResource handles recipe CRUD plus the formulation and revision
// sub-resources.
func RecipeResource(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r, "recipes") {
		return
	}

	segments := resourceSegments(r, "/app/api/recipes")
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listRecipes(w, r)
		case http.MethodPost:
			createRecipe(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	recipeID, ok := parseID(segments[0])
	if !ok {
		applog.Debug(r.Context(), "invalid recipe path", "path", r.URL.Path)
		http.NotFound(w, r)
		return
	}

	switch len(segments) {
	case 1:
		switch r.Method {
		case http.MethodGet:
			showRecipe(w, r, recipeID)
		case http.MethodPut:
			updateRecipe(w, r, recipeID)
		case http.MethodDelete:
			deleteRecipe(w, r, recipeID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case 2:
		switch segments[1] {
		case "formulation":
			if r.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			showFormulation(w, r, recipeID)
		case "revisions":
			switch r.Method {
			case http.MethodGet:
				listRevisions(w, r, recipeID)
			case http.MethodPost:
				createRevision(w, r, recipeID)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
		default:
			http.NotFound(w, r)
		}
	case 4:
		version, ok := parseID(segments[2])
		if segments[1] != "revisions" || segments[3] != "restore" || !ok {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		restoreRevision(w, r, recipeID, int(version))
	default:
		applog.Debug(r.Context(), "invalid recipe path", "path", r.URL.Path)
		http.NotFound(w, r)
	}
}

func listRecipes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := database.WithContext(ctx).Order("name asc")
	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		query = query.Where("status = ?", status)
	}

	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		applog.Error(ctx, "failed to list recipes", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load recipes")
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

func showRecipe(w http.ResponseWriter, r *http.Request, recipeID uint) {
	ctx := r.Context()
	recipe, err := loadRecipe(ctx, recipeID)
	if err != nil {
		if errors.Is(err, errRecipeNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load recipe", "error", err, "id", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load recipe")
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func createRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload recipeRequest
	if err := decodePayload(r, &payload); err != nil {
		applog.Debug(ctx, "invalid recipe payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, payloadErrorMessage(err))
		return
	}

	recipe := payload.recipe()
	if err := database.WithContext(ctx).Create(&recipe).Error; err != nil {
		applog.Error(ctx, "failed to create recipe", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create recipe")
		return
	}

	applog.Debug(ctx, "recipe created", "id", recipe.ID, "items", len(recipe.Items))
	writeJSON(w, http.StatusCreated, recipe)
}

// updateRecipe replaces the recipe fields and every line collection
// atomically.
func updateRecipe(w http.ResponseWriter, r *http.Request, recipeID uint) {
	ctx := r.Context()
	var payload recipeRequest
	if err := decodePayload(r, &payload); err != nil {
		applog.Debug(ctx, "invalid recipe update payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, payloadErrorMessage(err))
		return
	}

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceRecipe(tx, recipeID, payload.recipe())
	})
	if err != nil {
		if errors.Is(err, errRecipeNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to update recipe", "error", err, "id", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update recipe")
		return
	}

	showRecipe(w, r, recipeID)
}

// replaceRecipe overwrites the stored recipe with the fields and lines of
// source. The stored identity and version are kept. It must run inside a
// transaction.
func replaceRecipe(tx *gorm.DB, recipeID uint, source models.Recipe) error {
	var recipe models.Recipe
	if err := tx.First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errRecipeNotFound
		}
		return err
	}

	recipe.Name = source.Name
	recipe.Status = source.Status
	if recipe.Status == "" {
		recipe.Status = models.RecipeDraft
	}
	recipe.Description = source.Description
	recipe.MoistureLoss = source.MoistureLoss
	recipe.TargetBatchWeight = source.TargetBatchWeight
	recipe.LaborCost = source.LaborCost
	recipe.Energy = source.Energy
	recipe.TargetMargin = source.TargetMargin
	recipe.Organoleptic = source.Organoleptic
	recipe.Storage = source.Storage
	recipe.Logistics = source.Logistics
	if err := tx.Omit(clause.Associations).Save(&recipe).Error; err != nil {
		return fmt.Errorf("save recipe: %w", err)
	}

	for _, line := range recipeLineModels() {
		if err := tx.Unscoped().Where("recipe_id = ?", recipeID).Delete(line).Error; err != nil {
			return fmt.Errorf("clear %T: %w", line, err)
		}
	}

	items := make([]models.RecipeItem, 0, len(source.Items))
	for _, item := range source.Items {
		item.Model = gorm.Model{}
		item.RecipeID = recipeID
		items = append(items, item)
	}
	packagingItems := make([]models.RecipePackagingItem, 0, len(source.PackagingItems))
	for _, item := range source.PackagingItems {
		item.Model = gorm.Model{}
		item.RecipeID = recipeID
		packagingItems = append(packagingItems, item)
	}
	steps := make([]models.ProcessStep, 0, len(source.ProcessSteps))
	for _, step := range source.ProcessSteps {
		step.Model = gorm.Model{}
		step.RecipeID = recipeID
		steps = append(steps, step)
	}
	controls := make([]models.QualityControl, 0, len(source.QualityControls))
	for _, control := range source.QualityControls {
		control.Model = gorm.Model{}
		control.RecipeID = recipeID
		controls = append(controls, control)
	}

	if err := createLines(tx, items); err != nil {
		return fmt.Errorf("create recipe items: %w", err)
	}
	if err := createLines(tx, packagingItems); err != nil {
		return fmt.Errorf("create packaging items: %w", err)
	}
	if err := createLines(tx, steps); err != nil {
		return fmt.Errorf("create process steps: %w", err)
	}
	if err := createLines(tx, controls); err != nil {
		return fmt.Errorf("create quality controls: %w", err)
	}
	return nil
}

func recipeLineModels() []any {
	return []any{
		&models.RecipeItem{},
		&models.RecipePackagingItem{},
		&models.ProcessStep{},
		&models.QualityControl{},
	}
}

func createLines[T any](tx *gorm.DB, lines []T) error {
	if len(lines) == 0 {
		return nil
	}
	return tx.Create(&lines).Error
}

func deleteRecipe(w http.ResponseWriter, r *http.Request, recipeID uint) {
	ctx := r.Context()
	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Recipe{}, recipeID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errRecipeNotFound
		}
		for _, line := range recipeLineModels() {
			if err := tx.Where("recipe_id = ?", recipeID).Delete(line).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errRecipeNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to delete recipe", "error", err, "id", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete recipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func listRevisions(w http.ResponseWriter, r *http.Request, recipeID uint) {
	ctx := r.Context()
	var revisions []models.RecipeRevision
	if err := database.WithContext(ctx).Where("recipe_id = ?", recipeID).Order("version desc").Find(&revisions).Error; err != nil {
		applog.Error(ctx, "failed to list revisions", "error", err, "id", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load revisions")
		return
	}
	writeJSON(w, http.StatusOK, revisions)
}

// createRevision snapshots the current recipe under its current version and
// moves the recipe to the next version. The recipe row is locked for the
// duration so concurrent requests cannot record the same version twice.
func createRevision(w http.ResponseWriter, r *http.Request, recipeID uint) {
	ctx := r.Context()
	var payload revisionRequest
	if err := decodePayload(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, payloadErrorMessage(err))
		return
	}

	var revision models.RecipeRevision
	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&models.Recipe{}, recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errRecipeNotFound
			}
			return err
		}

		recipe, err := queryRecipe(tx, recipeID)
		if err != nil {
			return err
		}
		snapshot, err := json.Marshal(recipe)
		if err != nil {
			return fmt.Errorf("snapshot recipe: %w", err)
		}

		revision = models.RecipeRevision{
			RecipeID: recipe.ID,
			Version:  recipe.Version,
			Author:   strings.TrimSpace(payload.Author),
			Comment:  strings.TrimSpace(payload.Comment),
			Snapshot: string(snapshot),
		}
		if err := tx.Create(&revision).Error; err != nil {
			return fmt.Errorf("create revision: %w", err)
		}
		return tx.Model(&models.Recipe{}).Where("id = ?", recipe.ID).Update("version", gorm.Expr("version + ?", 1)).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, errRecipeNotFound):
			http.NotFound(w, r)
		case errors.Is(err, gorm.ErrDuplicatedKey):
			applog.Warn(ctx, "revision already recorded", "id", recipeID)
			writeJSONError(w, http.StatusConflict, "this version has already been recorded")
		default:
			applog.Error(ctx, "failed to record revision", "error", err, "id", recipeID)
			writeJSONError(w, http.StatusInternalServerError, "unable to record revision")
		}
		return
	}

	applog.Debug(ctx, "recipe revision recorded", "id", recipeID, "version", revision.Version)
	writeJSON(w, http.StatusCreated, revision)
}

var errRevisionNotFound = errors.New("handlers: revision not found")

// restoreRevision overwrites the recipe with the snapshot recorded under
// version. The recipe keeps its current version number.
func restoreRevision(w http.ResponseWriter, r *http.Request, recipeID uint, version int) {
	ctx := r.Context()
	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var revision models.RecipeRevision
		if err := tx.Where("recipe_id = ? AND version = ?", recipeID, version).First(&revision).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errRevisionNotFound
			}
			return err
		}

		var snapshot models.Recipe
		if err := json.Unmarshal([]byte(revision.Snapshot), &snapshot); err != nil {
			return fmt.Errorf("decode snapshot of version %d: %w", version, err)
		}
		return replaceRecipe(tx, recipeID, snapshot)
	})
	if err != nil {
		if errors.Is(err, errRecipeNotFound) || errors.Is(err, errRevisionNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to restore revision", "error", err, "id", recipeID, "version", version)
		writeJSONError(w, http.StatusInternalServerError, "unable to restore revision")
		return
	}

	applog.Info(ctx, "recipe revision restored", "id", recipeID, "version", version)
	showRecipe(w, r, recipeID)
}
