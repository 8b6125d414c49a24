package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"gorm.io/gorm"

	"formulab/internal/formulation"
	applog "formulab/internal/log"
	"formulab/internal/views/report"
)

var nowFunc = time.Now

// TechnicalSheet renders the printable technical sheet of a stored recipe.
func TechnicalSheet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	recipeID, ok := parseID(r.URL.Query().Get("recipe_id"))
	if !ok {
		http.Error(w, "Select a recipe before opening its technical sheet.", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	recipe, err := loadRecipe(ctx, recipeID)
	if err != nil {
		writeReportError(w, r, err, recipeID)
		return
	}
	ingredients, packagings, err := loadCatalogue(ctx, recipe)
	if err != nil {
		writeReportError(w, r, err, recipeID)
		return
	}

	evaluation := evaluate(recipe, ingredients, packagings)
	data := report.TechnicalSheetData{
		RecipeName:  recipe.Name,
		Version:     recipe.Version,
		Status:      recipe.Status,
		LaborCost:   recipe.LaborCost,
		Result:      evaluation.Result,
		Costing:     evaluation.Costing,
		Groups:      evaluation.Groups,
		Breakdown:   evaluation.Breakdown,
		GeneratedAt: nowFunc().UTC(),

		ProcessSteps:    recipe.ProcessSteps,
		QualityControls: recipe.QualityControls,
		Organoleptic:    recipe.Organoleptic,
		Storage:         recipe.Storage,
		Logistics:       recipe.Logistics,
	}

	f := report.NewFormatter(currentLocale(r))
	applog.Debug(ctx, "rendering technical sheet", "id", recipeID, "locale", f.Locale())
	renderReport(w, r, f, f.Label("technical_sheet")+" · "+recipe.Name, report.TechnicalSheet(data, f))
}

// GenerateBatchSheet renders a production batch scaled to the requested
// target quantity in grams. A blank target uses the recipe's batch weight.
func GenerateBatchSheet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid submission.", http.StatusBadRequest)
		return
	}

	recipeID, ok := parseID(r.FormValue("recipe_id"))
	if !ok {
		http.Error(w, "Select a recipe before running the batch sheet.", http.StatusBadRequest)
		return
	}

	target := 0.0
	if raw := strings.TrimSpace(r.FormValue("target_quantity")); raw != "" {
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil || parsed <= 0 {
			http.Error(w, "Provide a positive target quantity.", http.StatusBadRequest)
			return
		}
		target = parsed
	}

	ctx := r.Context()
	recipe, err := loadRecipe(ctx, recipeID)
	if err != nil {
		writeReportError(w, r, err, recipeID)
		return
	}
	ingredients, _, err := loadCatalogue(ctx, recipe)
	if err != nil {
		writeReportError(w, r, err, recipeID)
		return
	}

	batch, err := formulation.ScaleBatch(recipe, ingredients, target)
	if err != nil {
		writeReportError(w, r, err, recipeID)
		return
	}

	runTime := nowFunc().UTC()
	data := report.BatchSheetData{
		Batch:     batch,
		LotNumber: fmt.Sprintf("FRM-%s-%03d", runTime.Format("20060102"), recipe.Version),
		RunDate:   runTime,
	}

	f := report.NewFormatter(currentLocale(r))
	applog.Debug(ctx, "rendering batch sheet", "id", recipeID, "target", batch.Target, "lines", len(batch.Lines))
	renderReport(w, r, f, f.Label("batch_sheet")+" · "+recipe.Name, report.BatchSheet(data, f))
}

func writeReportError(w http.ResponseWriter, r *http.Request, err error, recipeID uint) {
	switch {
	case errors.Is(err, gorm.ErrInvalidDB):
		http.Error(w, "Reporting is unavailable because no database connection is configured.", http.StatusServiceUnavailable)
	case errors.Is(err, errRecipeNotFound):
		http.Error(w, "The selected recipe no longer exists.", http.StatusNotFound)
	case errors.Is(err, formulation.ErrInvalidBatchTarget):
		http.Error(w, "Provide a target quantity or set a batch weight on the recipe.", http.StatusBadRequest)
	case errors.Is(err, formulation.ErrEmptyRecipe):
		http.Error(w, "The selected recipe has no ingredients to weigh.", http.StatusBadRequest)
	default:
		applog.Error(r.Context(), "failed to build report", "error", err, "recipeID", recipeID)
		http.Error(w, "We were unable to generate the report. Please try again.", http.StatusInternalServerError)
	}
}

// renderReport writes the sheet as a fragment for htmx requests and as a
// standalone page otherwise.
func renderReport(w http.ResponseWriter, r *http.Request, f report.Formatter, title string, body templ.Component) {
	component := body
	if !wantsFragment(r) {
		component = report.Document(title, f.Locale(), body)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render report", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
