package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"formulab/models"
)

func withFixedNow(t *testing.T) {
	t.Helper()
	fixed := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	previous := nowFunc
	nowFunc = func() time.Time { return fixed }
	t.Cleanup(func() { nowFunc = previous })
}

func seedReportRecipe(t *testing.T, gdb *gorm.DB, targetBatchWeight float64) models.Recipe {
	t.Helper()

	flour := seedIngredient(t, gdb, models.Ingredient{Name: "Farine", CostPerKg: 1, Allergens: []models.Allergen{models.AllergenGluten}})
	sugar := seedIngredient(t, gdb, models.Ingredient{Name: "Sucre", CostPerKg: 1.2})
	recipe := models.Recipe{
		Name:              "Biscuit",
		Version:           3,
		Status:            models.RecipeValidated,
		TargetBatchWeight: targetBatchWeight,
		Items: []models.RecipeItem{
			{IngredientID: sugar.ID, Quantity: 200, Group: "Pâte"},
			{IngredientID: flour.ID, Quantity: 300, Group: "Pâte"},
		},
	}
	if err := gdb.Create(&recipe).Error; err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	return recipe
}

func postBatchForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/app/reports/batch", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestTechnicalSheetRendersDocument(t *testing.T) {
	gdb := withTestDatabase(t)
	withFixedNow(t)
	recipe := seedReportRecipe(t, gdb, 0)

	w := httptest.NewRecorder()
	TechnicalSheet(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/reports/technical-sheet?recipe_id=%d", recipe.ID), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html content type, got %q", ct)
	}
	out := w.Body.String()
	for _, want := range []string{"<!DOCTYPE html>", `lang="fr"`, "Fiche technique", "Farine (dont GLUTEN), Sucre.", "02/01/2025"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in technical sheet: %s", want, out)
		}
	}
}

func TestTechnicalSheetFragmentForHTMX(t *testing.T) {
	gdb := withTestDatabase(t)
	recipe := seedReportRecipe(t, gdb, 0)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/reports/technical-sheet?recipe_id=%d&lang=en", recipe.ID), nil)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	TechnicalSheet(w, req)

	out := w.Body.String()
	if strings.Contains(out, "<!DOCTYPE html>") {
		t.Fatal("expected htmx request to receive a fragment")
	}
	if !strings.Contains(out, "Technical sheet") {
		t.Fatalf("expected english captions: %s", out)
	}
}

func TestTechnicalSheetIncludesProductSheet(t *testing.T) {
	gdb := withTestDatabase(t)
	recipe := seedReportRecipe(t, gdb, 0)

	steps := []models.ProcessStep{
		{RecipeID: recipe.ID, Order: 2, Name: "Cuisson", CriticalParam: "T°C > 72°C"},
		{RecipeID: recipe.ID, Order: 1, Name: "Pétrissage", Description: "10 min vitesse lente"},
	}
	if err := gdb.Create(&steps).Error; err != nil {
		t.Fatalf("create steps: %v", err)
	}
	control := models.QualityControl{RecipeID: recipe.ID, Name: "pH final", Target: "4.5 ± 0.2", Frequency: "Chaque lot", Type: models.QualityPhysico}
	if err := gdb.Create(&control).Error; err != nil {
		t.Fatalf("create control: %v", err)
	}
	if err := gdb.Model(&recipe).Update("storage_shelf_life", "24 mois").Error; err != nil {
		t.Fatalf("update storage: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/reports/technical-sheet?recipe_id=%d", recipe.ID), nil)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	TechnicalSheet(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	out := w.Body.String()
	kneading := strings.Index(out, "Pétrissage")
	cooking := strings.Index(out, "<td>Cuisson</td>")
	if kneading < 0 || cooking < 0 || kneading > cooking {
		t.Fatalf("expected steps in process order: %s", out)
	}
	for _, want := range []string{"CCP · T°C &gt; 72°C", "pH final", "Physico-chimique", "DLC / DDM</dt><dd>24 mois"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in technical sheet: %s", want, out)
		}
	}
}

func TestTechnicalSheetErrors(t *testing.T) {
	withTestDatabase(t)

	w := httptest.NewRecorder()
	TechnicalSheet(w, httptest.NewRequest(http.MethodGet, "/app/reports/technical-sheet", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without recipe id, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	TechnicalSheet(w, httptest.NewRequest(http.MethodGet, "/app/reports/technical-sheet?recipe_id=77", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown recipe, got %d", w.Code)
	}

	original := database
	database = nil
	t.Cleanup(func() { database = original })
	w = httptest.NewRecorder()
	TechnicalSheet(w, httptest.NewRequest(http.MethodGet, "/app/reports/technical-sheet?recipe_id=1", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without database, got %d", w.Code)
	}
}

func TestGenerateBatchSheetScalesRecipe(t *testing.T) {
	gdb := withTestDatabase(t)
	withFixedNow(t)
	recipe := seedReportRecipe(t, gdb, 0)

	w := httptest.NewRecorder()
	GenerateBatchSheet(w, postBatchForm(url.Values{
		"recipe_id":       {fmt.Sprint(recipe.ID)},
		"target_quantity": {"1000"},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	out := w.Body.String()
	for _, want := range []string{"FRM-20250102-003", "600,00 g", "400,00 g"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in batch sheet: %s", want, out)
		}
	}
	if strings.Index(out, "Farine") > strings.Index(out, "Sucre") {
		t.Fatal("expected heaviest ingredient first")
	}
}

func TestGenerateBatchSheetFallsBackToRecipeTarget(t *testing.T) {
	gdb := withTestDatabase(t)
	recipe := seedReportRecipe(t, gdb, 2500)

	w := httptest.NewRecorder()
	GenerateBatchSheet(w, postBatchForm(url.Values{"recipe_id": {fmt.Sprint(recipe.ID)}}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "5,0000") {
		t.Fatalf("expected scale factor of 5 from the recipe batch weight: %s", w.Body.String())
	}
}

func TestGenerateBatchSheetErrors(t *testing.T) {
	gdb := withTestDatabase(t)
	recipe := seedReportRecipe(t, gdb, 0)
	empty := models.Recipe{Name: "Vide"}
	if err := gdb.Create(&empty).Error; err != nil {
		t.Fatalf("create empty recipe: %v", err)
	}

	tests := []struct {
		name   string
		values url.Values
		status int
	}{
		{"missing recipe id", url.Values{"target_quantity": {"100"}}, http.StatusBadRequest},
		{"negative target", url.Values{"recipe_id": {fmt.Sprint(recipe.ID)}, "target_quantity": {"-5"}}, http.StatusBadRequest},
		{"unparseable target", url.Values{"recipe_id": {fmt.Sprint(recipe.ID)}, "target_quantity": {"beaucoup"}}, http.StatusBadRequest},
		{"no target anywhere", url.Values{"recipe_id": {fmt.Sprint(recipe.ID)}}, http.StatusBadRequest},
		{"unknown recipe", url.Values{"recipe_id": {"999"}, "target_quantity": {"100"}}, http.StatusNotFound},
		{"recipe without ingredients", url.Values{"recipe_id": {fmt.Sprint(empty.ID)}, "target_quantity": {"100"}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			GenerateBatchSheet(w, postBatchForm(tt.values))
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}

	w := httptest.NewRecorder()
	GenerateBatchSheet(w, httptest.NewRequest(http.MethodGet, "/app/reports/batch", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
