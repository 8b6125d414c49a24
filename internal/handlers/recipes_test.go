package handlers

import (
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"formulab/internal/formulation"
	"formulab/models"
)

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRecipeLifecycle(t *testing.T) {
	gdb := withTestDatabase(t)

	flour := seedIngredient(t, gdb, models.Ingredient{Name: "Farine", CostPerKg: 2, Allergens: []models.Allergen{models.AllergenGluten}})
	butter := seedIngredient(t, gdb, models.Ingredient{Name: "Beurre", CostPerKg: 8, Allergens: []models.Allergen{models.AllergenMilk}})

	w := httptest.NewRecorder()
	RecipeResource(w, jsonRequest(t, http.MethodPost, "/app/api/recipes", map[string]any{
		"name":          "Sablé",
		"moisture_loss": 10,
		"items": []map[string]any{
			{"ingredient_id": flour.ID, "quantity": 600, "group": "Pâte"},
			{"ingredient_id": butter.ID, "quantity": 400, "group": "Pâte"},
		},
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created models.Recipe
	decodeBody(t, w, &created)
	if created.Status != models.RecipeDraft || created.Version != 1 {
		t.Fatalf("expected draft version 1, got %q v%d", created.Status, created.Version)
	}
	if len(created.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(created.Items))
	}

	path := fmt.Sprintf("/app/api/recipes/%d", created.ID)
	w = httptest.NewRecorder()
	RecipeResource(w, jsonRequest(t, http.MethodPut, path, map[string]any{
		"name":   "Sablé breton",
		"status": string(models.RecipeInDev),
		"items": []map[string]any{
			{"ingredient_id": flour.ID, "quantity": 500},
		},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", w.Code, w.Body.String())
	}
	var updated models.Recipe
	decodeBody(t, w, &updated)
	if updated.Name != "Sablé breton" || updated.Status != models.RecipeInDev {
		t.Fatalf("unexpected updated recipe: %+v", updated)
	}
	if len(updated.Items) != 1 || updated.Items[0].Quantity != 500 {
		t.Fatalf("expected items to be replaced, got %+v", updated.Items)
	}

	var remaining int64
	gdb.Unscoped().Model(&models.RecipeItem{}).Where("recipe_id = ?", created.ID).Count(&remaining)
	if remaining != 1 {
		t.Fatalf("expected stale items to be removed, found %d rows", remaining)
	}

	w = httptest.NewRecorder()
	RecipeResource(w, httptest.NewRequest(http.MethodDelete, path, nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	RecipeResource(w, httptest.NewRequest(http.MethodGet, path, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestRecipeValidation(t *testing.T) {
	withTestDatabase(t)

	tests := []struct {
		name    string
		payload map[string]any
		field   string
	}{
		{"total moisture loss", map[string]any{"name": "Chips", "moisture_loss": 100}, "moisture_loss"},
		{"negative quantity", map[string]any{"name": "Chips", "items": []map[string]any{{"ingredient_id": 1, "quantity": -5}}}, "quantity"},
		{"missing ingredient", map[string]any{"name": "Chips", "items": []map[string]any{{"quantity": 5}}}, "ingredient_id"},
		{"unknown status", map[string]any{"name": "Chips", "status": "Publiée"}, "status"},
		{"unnamed process step", map[string]any{"name": "Chips", "process_steps": []map[string]any{{"description": "Friture"}}}, "name"},
		{"unknown control type", map[string]any{"name": "Chips", "quality_controls": []map[string]any{{"name": "pH", "type": "Visuel"}}}, "type"},
		{"negative pallet plan", map[string]any{"name": "Chips", "logistics": map[string]any{"units_per_box": -1}}, "units_per_box"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RecipeResource(w, jsonRequest(t, http.MethodPost, "/app/api/recipes", tt.payload))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.field) {
				t.Fatalf("expected error to mention %q, got %s", tt.field, w.Body.String())
			}
		})
	}
}

func TestRecipeFormulation(t *testing.T) {
	gdb := withTestDatabase(t)

	flour := seedIngredient(t, gdb, models.Ingredient{Name: "Farine", CostPerKg: 10, Allergens: []models.Allergen{models.AllergenGluten}})
	recipe := models.Recipe{
		Name: "Pain",
		Items: []models.RecipeItem{
			{IngredientID: flour.ID, Quantity: 500, Group: "Pâte"},
			{IngredientID: 9999, Quantity: 100},
		},
	}
	if err := gdb.Create(&recipe).Error; err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	w := httptest.NewRecorder()
	RecipeResource(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/api/recipes/%d/formulation", recipe.ID), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp formulationResponse
	decodeBody(t, w, &resp)
	if !almost(resp.Result.TotalInputWeight, 500) || !almost(resp.Result.TotalMaterialCost, 5) {
		t.Fatalf("unexpected totals: %+v", resp.Result)
	}
	if resp.Result.IngredientList != "Farine (dont GLUTEN), Inconnu." {
		t.Fatalf("unexpected ingredient list %q", resp.Result.IngredientList)
	}
	if !almost(resp.Costing.MarginPercent, formulation.DefaultTargetMargin) || !almost(resp.Costing.SellingPrice, 6.5) {
		t.Fatalf("unexpected costing: %+v", resp.Costing)
	}
	if len(resp.Groups) != 1 || resp.Groups[0].Name != "Pâte" {
		t.Fatalf("unexpected groups: %+v", resp.Groups)
	}

	w = httptest.NewRecorder()
	RecipeResource(w, httptest.NewRequest(http.MethodGet, "/app/api/recipes/4242/formulation", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown recipe, got %d", w.Code)
	}
}

func TestRecipeFormulationUsesConfiguredMargin(t *testing.T) {
	gdb := withTestDatabase(t)
	ConfigureReports("fr", 50)
	t.Cleanup(func() { ConfigureReports("fr", 0) })

	sugar := seedIngredient(t, gdb, models.Ingredient{Name: "Sucre", CostPerKg: 2})
	recipe := models.Recipe{Name: "Sirop", Items: []models.RecipeItem{{IngredientID: sugar.ID, Quantity: 1000}}}
	if err := gdb.Create(&recipe).Error; err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	w := httptest.NewRecorder()
	RecipeResource(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/api/recipes/%d/formulation", recipe.ID), nil))
	var resp formulationResponse
	decodeBody(t, w, &resp)
	if !almost(resp.Costing.MarginPercent, 50) || !almost(resp.Costing.SellingPrice, 3) {
		t.Fatalf("expected configured margin to apply, got %+v", resp.Costing)
	}
}

func TestRecipeRevisions(t *testing.T) {
	gdb := withTestDatabase(t)

	recipe := models.Recipe{Name: "Compote", Version: 1}
	if err := gdb.Create(&recipe).Error; err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	path := fmt.Sprintf("/app/api/recipes/%d/revisions", recipe.ID)

	w := httptest.NewRecorder()
	RecipeResource(w, jsonRequest(t, http.MethodPost, path, map[string]any{"author": "Camille", "comment": "Validation client"}))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var revision models.RecipeRevision
	decodeBody(t, w, &revision)
	if revision.Version != 1 || !strings.Contains(revision.Snapshot, "Compote") {
		t.Fatalf("unexpected revision: %+v", revision)
	}

	var reloaded models.Recipe
	if err := gdb.First(&reloaded, recipe.ID).Error; err != nil {
		t.Fatalf("reload recipe: %v", err)
	}
	if reloaded.Version != 2 {
		t.Fatalf("expected version bump to 2, got %d", reloaded.Version)
	}

	req := httptest.NewRequest(http.MethodPost, path, nil)
	w = httptest.NewRecorder()
	RecipeResource(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected empty body revision to succeed, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	RecipeResource(w, httptest.NewRequest(http.MethodGet, path, nil))
	var revisions []models.RecipeRevision
	decodeBody(t, w, &revisions)
	if len(revisions) != 2 || revisions[0].Version != 2 {
		t.Fatalf("expected newest revision first, got %+v", revisions)
	}
}

func TestFormulationPreview(t *testing.T) {
	gdb := withTestDatabase(t)

	apple := seedIngredient(t, gdb, models.Ingredient{Name: "Pomme", CostPerKg: 1.5, FruitVegetablePercent: 100})
	pot := models.Packaging{Name: "Pot", Weight: 50, CostPerUnit: 0.2, Recyclability: models.Recyclable}
	if err := gdb.Create(&pot).Error; err != nil {
		t.Fatalf("create packaging: %v", err)
	}

	w := httptest.NewRecorder()
	FormulationPreview(w, jsonRequest(t, http.MethodPost, "/app/api/formulation/preview", map[string]any{
		"name":            "Compote",
		"moisture_loss":   20,
		"items":           []map[string]any{{"ingredient_id": apple.ID, "quantity": 1000}},
		"packaging_items": []map[string]any{{"packaging_id": pot.ID, "quantity": 1}},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp formulationResponse
	decodeBody(t, w, &resp)
	if !almost(resp.Result.FinalWeight, 800) || !almost(resp.Result.GrossWeight, 850) {
		t.Fatalf("unexpected weights: %+v", resp.Result)
	}
	if resp.Result.EcoScore.Class != formulation.GradeB {
		t.Fatalf("expected eco-score B, got %q", resp.Result.EcoScore.Class)
	}

	var count int64
	gdb.Model(&models.Recipe{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected preview not to persist recipes, found %d", count)
	}

	w = httptest.NewRecorder()
	FormulationPreview(w, httptest.NewRequest(http.MethodGet, "/app/api/formulation/preview", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestRecipeProductSheetSections(t *testing.T) {
	withTestDatabase(t)

	w := httptest.NewRecorder()
	RecipeResource(w, jsonRequest(t, http.MethodPost, "/app/api/recipes", map[string]any{
		"name": "Confiture",
		"process_steps": []map[string]any{
			{"order": 2, "name": "Cuisson", "critical_param": "T°C > 85°C"},
			{"order": 1, "name": "Macération"},
			{"name": "Conditionnement"},
		},
		"quality_controls": []map[string]any{
			{"name": "Brix", "target": "62 ± 1", "frequency": "Chaque lot"},
			{"name": "Moisissures", "type": "Microbio"},
		},
		"organoleptic": map[string]any{"taste": "Fruité"},
		"storage":      map[string]any{"shelf_life": "18 mois"},
		"logistics":    map[string]any{"units_per_box": 12, "boxes_per_layer": 10, "layers_per_pallet": 4},
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created models.Recipe
	decodeBody(t, w, &created)

	w = httptest.NewRecorder()
	RecipeResource(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/api/recipes/%d", created.ID), nil))
	var stored models.Recipe
	decodeBody(t, w, &stored)

	if len(stored.ProcessSteps) != 3 {
		t.Fatalf("expected 3 process steps, got %+v", stored.ProcessSteps)
	}
	var names []string
	for _, step := range stored.ProcessSteps {
		names = append(names, step.Name)
	}
	if got := strings.Join(names, ","); got != "Macération,Cuisson,Conditionnement" {
		t.Fatalf("unexpected step order %q", got)
	}
	if !stored.ProcessSteps[1].CriticalControlPoint() {
		t.Fatal("expected cooking step to be a critical control point")
	}
	if len(stored.QualityControls) != 2 || stored.QualityControls[0].Type != models.QualityPhysico || stored.QualityControls[1].Type != models.QualityMicrobio {
		t.Fatalf("unexpected quality controls: %+v", stored.QualityControls)
	}
	if stored.Organoleptic.Taste != "Fruité" || stored.Storage.ShelfLife != "18 mois" || stored.Logistics.UnitsPerPallet() != 480 {
		t.Fatalf("unexpected product sheet: %+v %+v %+v", stored.Organoleptic, stored.Storage, stored.Logistics)
	}
}

func TestRecipeRevisionRestore(t *testing.T) {
	gdb := withTestDatabase(t)

	flour := seedIngredient(t, gdb, models.Ingredient{Name: "Farine", CostPerKg: 1})
	sugar := seedIngredient(t, gdb, models.Ingredient{Name: "Sucre", CostPerKg: 1.2})

	w := httptest.NewRecorder()
	RecipeResource(w, jsonRequest(t, http.MethodPost, "/app/api/recipes", map[string]any{
		"name":          "Génoise",
		"moisture_loss": 8,
		"items":         []map[string]any{{"ingredient_id": flour.ID, "quantity": 250}},
		"process_steps": []map[string]any{{"name": "Battage"}},
		"storage":       map[string]any{"shelf_life": "3 jours"},
	}))
	var created models.Recipe
	decodeBody(t, w, &created)
	base := fmt.Sprintf("/app/api/recipes/%d", created.ID)

	w = httptest.NewRecorder()
	RecipeResource(w, jsonRequest(t, http.MethodPost, base+"/revisions", map[string]any{"comment": "Référence"}))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	RecipeResource(w, jsonRequest(t, http.MethodPut, base, map[string]any{
		"name":  "Génoise sans gluten",
		"items": []map[string]any{{"ingredient_id": sugar.ID, "quantity": 300}},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	RecipeResource(w, httptest.NewRequest(http.MethodPost, base+"/revisions/1/restore", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on restore, got %d: %s", w.Code, w.Body.String())
	}
	var restored models.Recipe
	decodeBody(t, w, &restored)
	if restored.Name != "Génoise" || restored.MoistureLoss != 8 || restored.Storage.ShelfLife != "3 jours" {
		t.Fatalf("expected snapshot fields to be restored, got %+v", restored)
	}
	if len(restored.Items) != 1 || restored.Items[0].IngredientID != flour.ID || restored.Items[0].Quantity != 250 {
		t.Fatalf("expected snapshot items to be restored, got %+v", restored.Items)
	}
	if len(restored.ProcessSteps) != 1 || restored.ProcessSteps[0].Name != "Battage" {
		t.Fatalf("expected snapshot steps to be restored, got %+v", restored.ProcessSteps)
	}
	if restored.Version != 2 {
		t.Fatalf("expected restore to keep version 2, got %d", restored.Version)
	}

	var rows int64
	gdb.Unscoped().Model(&models.RecipeItem{}).Where("recipe_id = ?", created.ID).Count(&rows)
	if rows != 1 {
		t.Fatalf("expected replaced lines to be removed, found %d rows", rows)
	}

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"unknown revision", http.MethodPost, base + "/revisions/9/restore", http.StatusNotFound},
		{"unknown recipe", http.MethodPost, "/app/api/recipes/4242/revisions/1/restore", http.StatusNotFound},
		{"invalid revision", http.MethodPost, base + "/revisions/first/restore", http.StatusNotFound},
		{"unknown action", http.MethodPost, base + "/revisions/1/publish", http.StatusNotFound},
		{"wrong method", http.MethodGet, base + "/revisions/1/restore", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RecipeResource(w, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestRecipeRevisionRejectsRecordedVersion(t *testing.T) {
	gdb := withTestDatabase(t)

	recipe := models.Recipe{Name: "Coulis", Version: 1}
	if err := gdb.Create(&recipe).Error; err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	if err := gdb.Create(&models.RecipeRevision{RecipeID: recipe.ID, Version: 1, Snapshot: "{}"}).Error; err != nil {
		t.Fatalf("create revision: %v", err)
	}

	w := httptest.NewRecorder()
	RecipeResource(w, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/app/api/recipes/%d/revisions", recipe.ID), nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}

	var reloaded models.Recipe
	if err := gdb.First(&reloaded, recipe.ID).Error; err != nil {
		t.Fatalf("reload recipe: %v", err)
	}
	if reloaded.Version != 1 {
		t.Fatalf("expected version to stay at 1, got %d", reloaded.Version)
	}
}

func TestRecipeFormulationReportsRedMeat(t *testing.T) {
	gdb := withTestDatabase(t)

	beef := seedIngredient(t, gdb, models.Ingredient{Name: "Bœuf", CostPerKg: 14, IsRedMeat: true})
	recipe := models.Recipe{Name: "Bolognaise", Items: []models.RecipeItem{{IngredientID: beef.ID, Quantity: 300}}}
	if err := gdb.Create(&recipe).Error; err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	w := httptest.NewRecorder()
	RecipeResource(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/api/recipes/%d/formulation", recipe.ID), nil))
	var resp formulationResponse
	decodeBody(t, w, &resp)
	if !resp.Result.HasRedMeat {
		t.Fatalf("expected red meat flag in result: %+v", resp.Result)
	}
}
