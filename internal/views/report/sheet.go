// Package report renders the printable technical and batch production sheets.
package report

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"formulab/internal/formulation"
	"formulab/models"
)

// TechnicalSheetData aggregates everything shown on a recipe technical sheet.
type TechnicalSheetData struct {
	RecipeName  string
	Version     int
	Status      models.RecipeStatus
	LaborCost   float64
	Result      formulation.Result
	Costing     formulation.CostSummary
	Groups      []formulation.GroupSummary
	Breakdown   formulation.NutriScoreBreakdown
	GeneratedAt time.Time

	ProcessSteps    []models.ProcessStep
	QualityControls []models.QualityControl
	Organoleptic    models.OrganolepticProfile
	Storage         models.StorageConditions
	Logistics       models.LogisticsInfo
}

// BatchSheetData is a scaled production batch ready for the weighing station.
type BatchSheetData struct {
	Batch     formulation.Batch
	LotNumber string
	RunDate   time.Time
}

// Document wraps body in a minimal standalone HTML page.
func Document(title string, lang string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		sw := &sheetWriter{w: w}
		sw.raw(`<!DOCTYPE html><html lang="`)
		sw.text(lang)
		sw.raw(`"><head><meta charset="utf-8"><title>`)
		sw.text(title)
		sw.raw(`</title></head><body>`)
		if sw.err == nil {
			sw.err = body.Render(ctx, w)
		}
		sw.raw(`</body></html>`)
		return sw.err
	})
}

// TechnicalSheet renders the technical sheet fragment for a recipe.
func TechnicalSheet(data TechnicalSheetData, f Formatter) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		res := data.Result
		sw := &sheetWriter{w: w}

		sw.raw(`<section class="report technical-sheet"><header><h1>`)
		sw.text(f.Label("technical_sheet") + " · " + data.RecipeName)
		sw.raw(`</h1><p>`)
		sw.text(f.Label("version") + " " + f.Decimal(float64(data.Version), 0))
		if data.Status != "" {
			sw.text(" · " + f.Label("status") + " : " + string(data.Status))
		}
		if !data.GeneratedAt.IsZero() {
			sw.text(" · " + f.Date(data.GeneratedAt))
		}
		sw.raw(`</p></header>`)

		sw.raw(`<h2>`)
		sw.text(f.Label("ingredients"))
		sw.raw(`</h2><p class="inco">`)
		sw.text(res.IngredientList)
		sw.raw(`</p>`)

		sw.definitionList([][2]string{
			{f.Label("allergens"), joinAllergens(res.Allergens, f)},
			{f.Label("traces"), joinAllergens(res.Traces, f)},
			{f.Label("labels"), joinLabels(res.CalculatedLabels, f)},
		})

		sw.heading(f.Label("weights"))
		sw.definitionList([][2]string{
			{f.Label("input_weight"), f.Grams(res.TotalInputWeight)},
			{f.Label("final_weight"), f.Grams(res.FinalWeight)},
			{f.Label("gross_weight"), f.Grams(res.GrossWeight)},
			{f.Label("yield"), f.Percent(res.Yield)},
			{f.Label("brix"), f.Decimal(res.TheoreticalBrix, 1)},
		})

		sw.heading(f.Label("costs"))
		sw.definitionList([][2]string{
			{f.Label("material_cost"), f.Currency(res.TotalMaterialCost)},
			{f.Label("packaging_cost"), f.Currency(res.TotalPackagingCost)},
			{f.Label("energy_cost"), f.Currency(res.TotalEnergyCost)},
			{f.Label("labor_cost"), f.Currency(data.LaborCost)},
			{f.Label("production_cost"), f.Currency(res.TotalProductionCost)},
			{f.Label("cost_per_kg"), f.Currency(res.CostPerKg)},
			{f.Label("full_cost_per_kg"), f.Currency(data.Costing.FullCostPerKg)},
			{f.Label("margin"), f.Percent(data.Costing.MarginPercent) + " · " + f.Currency(data.Costing.MarginValue)},
			{f.Label("selling_price"), f.Currency(data.Costing.SellingPrice)},
		})

		if len(data.Groups) > 0 {
			sw.heading(f.Label("groups"))
			rows := make([][]string, 0, len(data.Groups))
			for _, group := range data.Groups {
				rows = append(rows, []string{group.Name, f.Grams(group.Weight), f.Percent(group.Percent), f.Currency(group.Cost)})
			}
			sw.table([]string{f.Label("group"), f.Label("weights"), f.Label("share"), f.Label("material_cost")}, rows)
		}

		n := res.NutrientsPer100g
		sw.heading(f.Label("nutrition"))
		sw.definitionList([][2]string{
			{f.Label("energy"), f.Decimal(n.EnergyKcal, 0)},
			{f.Label("fat"), f.Grams(n.Fat)},
			{f.Label("saturated_fat"), f.Grams(n.SaturatedFat)},
			{f.Label("carbohydrates"), f.Grams(n.Carbohydrates)},
			{f.Label("sugars"), f.Grams(n.Sugars)},
			{f.Label("fiber"), f.Grams(n.Fiber)},
			{f.Label("protein"), f.Grams(n.Protein)},
			{f.Label("salt"), f.Grams(n.Salt)},
			{f.Label("fruit_veg"), f.Percent(res.FruitVegPercent)},
		})

		b := data.Breakdown
		sw.raw(`<h2>`)
		sw.text(f.Label("nutriscore"))
		sw.raw(` <span class="grade grade-`)
		sw.text(strings.ToLower(string(res.NutriScore)))
		sw.raw(`">`)
		sw.text(string(res.NutriScore))
		sw.raw(`</span></h2>`)
		sw.definitionList([][2]string{
			{f.Label("negative_points"), f.Decimal(float64(b.Negative), 0)},
			{f.Label("positive_points"), f.Decimal(float64(b.Positive), 0)},
			{f.Label("points"), f.Decimal(float64(res.NutriScoreScore), 0)},
		})

		sw.heading(f.Label("environment"))
		sw.definitionList([][2]string{
			{f.Label("carbon_per_kg"), f.Decimal(res.CarbonFootprintPerKg, 2)},
			{f.Label("packaging_ratio"), f.Percent(res.EcoScore.Ratio)},
			{f.Label("recyclable_rate"), f.Percent(res.EcoScore.RecyclableRate)},
			{f.Label("eco_score"), string(res.EcoScore.Class)},
		})

		writeProductSheet(sw, data, f)

		sw.raw(`</section>`)
		return sw.err
	})
}

// BatchSheet renders a scaled batch as a weighing checklist.
func BatchSheet(data BatchSheetData, f Formatter) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		batch := data.Batch
		sw := &sheetWriter{w: w}

		sw.raw(`<section class="report batch-sheet"><header><h1>`)
		sw.text(f.Label("batch_sheet") + " · " + batch.RecipeName)
		sw.raw(`</h1></header>`)

		sw.definitionList([][2]string{
			{f.Label("version"), f.Decimal(float64(batch.Version), 0)},
			{f.Label("lot_number"), data.LotNumber},
			{f.Label("run_date"), f.Date(data.RunDate)},
			{f.Label("target"), f.Grams(batch.Target)},
			{f.Label("base_batch"), f.Grams(batch.BaseWeight)},
			{f.Label("scale_factor"), f.Decimal(batch.ScaleFactor, 4)},
		})

		rows := make([][]string, 0, len(batch.Lines))
		for _, line := range batch.Lines {
			rows = append(rows, []string{
				f.Decimal(float64(line.Order), 0),
				line.IngredientName,
				line.Group,
				joinAllergens(line.Allergens, f),
				f.Grams(line.BaseQuantity),
				f.Grams(line.Quantity),
				"☐",
			})
		}
		sw.table([]string{
			f.Label("order"), f.Label("ingredient"), f.Label("group"), f.Label("allergens"),
			f.Label("base_quantity"), f.Label("quantity"), f.Label("weighed"),
		}, rows)

		sw.raw(`</section>`)
		return sw.err
	})
}

// writeProductSheet renders the manufacturing and quality sections. Empty
// sections are left out.
func writeProductSheet(sw *sheetWriter, data TechnicalSheetData, f Formatter) {
	if len(data.ProcessSteps) > 0 {
		sw.heading(f.Label("process"))
		rows := make([][]string, 0, len(data.ProcessSteps))
		for _, step := range data.ProcessSteps {
			ccp := ""
			if step.CriticalControlPoint() {
				ccp = "CCP · " + step.CriticalParam
			}
			rows = append(rows, []string{f.Decimal(float64(step.Order), 0), step.Name, step.Description, ccp})
		}
		sw.table([]string{f.Label("order"), f.Label("step"), f.Label("description"), f.Label("critical_param")}, rows)
	}

	if len(data.QualityControls) > 0 {
		sw.heading(f.Label("quality"))
		rows := make([][]string, 0, len(data.QualityControls))
		for _, control := range data.QualityControls {
			rows = append(rows, []string{control.Name, control.Target, control.Frequency, f.Label("qc_" + strings.ToLower(string(control.Type)))})
		}
		sw.table([]string{f.Label("control"), f.Label("control_target"), f.Label("frequency"), f.Label("control_type")}, rows)
	}

	if o := data.Organoleptic; !o.Empty() {
		sw.heading(f.Label("organoleptic"))
		sw.definitionList([][2]string{
			{f.Label("appearance"), o.Appearance},
			{f.Label("texture"), o.Texture},
			{f.Label("taste"), o.Taste},
			{f.Label("smell"), o.Smell},
		})
	}

	if st := data.Storage; !st.Empty() {
		sw.heading(f.Label("storage"))
		sw.definitionList([][2]string{
			{f.Label("shelf_life"), st.ShelfLife},
			{f.Label("storage_temp"), st.StorageTemp},
			{f.Label("after_opening"), st.AfterOpening},
		})
	}

	if l := data.Logistics; !l.Empty() {
		sw.heading(f.Label("logistics"))
		sw.definitionList([][2]string{
			{f.Label("units_per_box"), f.Decimal(float64(l.UnitsPerBox), 0)},
			{f.Label("boxes_per_layer"), f.Decimal(float64(l.BoxesPerLayer), 0)},
			{f.Label("layers_per_pallet"), f.Decimal(float64(l.LayersPerPallet), 0)},
			{f.Label("units_per_pallet"), f.Decimal(float64(l.UnitsPerPallet()), 0)},
			{f.Label("pallet_height"), f.Decimal(l.PalletHeight, 0) + " cm"},
		})
	}
}

func joinAllergens(values []models.Allergen, f Formatter) string {
	if len(values) == 0 {
		return f.Label("none")
	}
	parts := make([]string, 0, len(values))
	for _, value := range values {
		parts = append(parts, string(value))
	}
	return strings.Join(parts, ", ")
}

func joinLabels(values []models.LabelTag, f Formatter) string {
	if len(values) == 0 {
		return f.Label("none")
	}
	parts := make([]string, 0, len(values))
	for _, value := range values {
		parts = append(parts, string(value))
	}
	return strings.Join(parts, ", ")
}

// sheetWriter keeps the first write error so components can emit markup
// without checking every call.
type sheetWriter struct {
	w   io.Writer
	err error
}

func (s *sheetWriter) raw(markup string) {
	if s.err != nil {
		return
	}
	_, s.err = io.WriteString(s.w, markup)
}

func (s *sheetWriter) text(value string) {
	s.raw(templ.EscapeString(value))
}

func (s *sheetWriter) heading(title string) {
	s.raw(`<h2>`)
	s.text(title)
	s.raw(`</h2>`)
}

func (s *sheetWriter) definitionList(entries [][2]string) {
	s.raw(`<dl>`)
	for _, entry := range entries {
		s.raw(`<dt>`)
		s.text(entry[0])
		s.raw(`</dt><dd>`)
		s.text(entry[1])
		s.raw(`</dd>`)
	}
	s.raw(`</dl>`)
}

func (s *sheetWriter) table(headers []string, rows [][]string) {
	s.raw(`<table><thead><tr>`)
	for _, header := range headers {
		s.raw(`<th>`)
		s.text(header)
		s.raw(`</th>`)
	}
	s.raw(`</tr></thead><tbody>`)
	for _, row := range rows {
		s.raw(`<tr>`)
		for _, cell := range row {
			s.raw(`<td>`)
			s.text(cell)
			s.raw(`</td>`)
		}
		s.raw(`</tr>`)
	}
	s.raw(`</tbody></table>`)
}
