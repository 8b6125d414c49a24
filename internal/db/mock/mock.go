package mock

import (
	"context"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"formulab/internal/db"
	applog "formulab/internal/log"
	"formulab/models"
)

// New returns an in-memory sqlite database seeded with a small pastry
// catalogue and one recipe that exercises every engine path.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	database, err := gorm.Open(sqlite.Open("file:formulab-mock?mode=memory&cache=shared"), db.Options(logger.Silent))
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	var existing int64
	if err := database.WithContext(ctx).Model(&models.Ingredient{}).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing == 0 {
		if err := seed(ctx, database); err != nil {
			return nil, err
		}
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func float(v float64) *float64 { return &v }

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	flour := models.Ingredient{
		Name:         "Farine de blé T55",
		SupplierCode: "MOU-055",
		CostPerKg:    0.95,
		Nutrients: models.NutrientProfile{
			EnergyKcal: 348, Protein: 10.5, Fat: 1.2, SaturatedFat: 0.2,
			Carbohydrates: 72, Sugars: 1.5, Fiber: 3.5, Salt: 0.01,
		},
		Allergens:       []models.Allergen{models.AllergenGluten},
		Traces:          []models.Allergen{models.AllergenSoy, models.AllergenSesame},
		Labels:          []models.LabelTag{models.LabelVegan, models.LabelVegetarian, models.LabelKosher, models.LabelHalal, models.LabelCleanLabel},
		CarbonFootprint: float(0.6),
	}
	sugar := models.Ingredient{
		Name:         "Sucre semoule",
		SupplierCode: "SUC-001",
		CostPerKg:    1.10,
		Nutrients: models.NutrientProfile{
			EnergyKcal: 400, Carbohydrates: 100, Sugars: 100,
		},
		Labels:          []models.LabelTag{models.LabelVegan, models.LabelVegetarian, models.LabelKosher, models.LabelHalal, models.LabelCleanLabel},
		Physico:         models.PhysicoChemical{Brix: float(100)},
		CarbonFootprint: float(0.9),
	}
	butter := models.Ingredient{
		Name:         "Beurre doux 82%",
		SupplierCode: "LAI-082",
		CostPerKg:    8.40,
		Nutrients: models.NutrientProfile{
			EnergyKcal: 745, Protein: 0.7, Fat: 82, SaturatedFat: 54,
			Carbohydrates: 0.7, Sugars: 0.7, Salt: 0.02,
		},
		Allergens:       []models.Allergen{models.AllergenMilk},
		Labels:          []models.LabelTag{models.LabelVegetarian, models.LabelKosher, models.LabelHalal, models.LabelCleanLabel},
		CarbonFootprint: float(9.0),
	}
	eggs := models.Ingredient{
		Name:         "Œufs entiers liquides",
		SupplierCode: "OVO-010",
		CostPerKg:    3.90,
		Nutrients: models.NutrientProfile{
			EnergyKcal: 143, Protein: 12.6, Fat: 9.5, SaturatedFat: 3.1,
			Carbohydrates: 0.7, Sugars: 0.4, Salt: 0.36,
		},
		Allergens:       []models.Allergen{models.AllergenEggs},
		Labels:          []models.LabelTag{models.LabelVegetarian, models.LabelKosher, models.LabelHalal, models.LabelCleanLabel},
		IsLiquid:        true,
		CarbonFootprint: float(4.5),
	}
	strawberry := models.Ingredient{
		Name:         "Purée de fraise",
		SupplierCode: "FRU-220",
		CostPerKg:    4.20,
		Nutrients: models.NutrientProfile{
			EnergyKcal: 35, Protein: 0.7, Fat: 0.3, SaturatedFat: 0.02,
			Carbohydrates: 7.7, Sugars: 5.9, Fiber: 2, Salt: 0.01,
		},
		Traces:                []models.Allergen{models.AllergenSulphites},
		Labels:                []models.LabelTag{models.LabelOrganic, models.LabelVegan, models.LabelVegetarian, models.LabelKosher, models.LabelHalal, models.LabelCleanLabel, models.LabelFrozen},
		Physico:               models.PhysicoChemical{Brix: float(9), PH: float(3.4)},
		FruitVegetablePercent: 100,
		IsLiquid:              true,
		CarbonFootprint:       float(0.8),
	}
	hazelnut := models.Ingredient{
		Name:         "Poudre de noisette",
		SupplierCode: "FRC-031",
		CostPerKg:    14.50,
		Nutrients: models.NutrientProfile{
			EnergyKcal: 646, Protein: 15, Fat: 61, SaturatedFat: 4.5,
			Carbohydrates: 7, Sugars: 4.3, Fiber: 9.7,
		},
		Allergens:       []models.Allergen{models.AllergenNuts},
		Traces:          []models.Allergen{models.AllergenPeanuts},
		Labels:          []models.LabelTag{models.LabelVegan, models.LabelVegetarian, models.LabelKosher, models.LabelHalal, models.LabelCleanLabel},
		CarbonFootprint: float(2.1),
	}

	ingredients := []*models.Ingredient{&flour, &sugar, &butter, &eggs, &strawberry, &hazelnut}
	for _, ingredient := range ingredients {
		if err := database.WithContext(ctx).Create(ingredient).Error; err != nil {
			return err
		}
	}

	tray := models.Packaging{
		Name:          "Barquette PET 18 cm",
		SupplierCode:  "EMB-PET18",
		Type:          models.PackagingPrimary,
		Material:      "PET",
		Recyclability: models.Recyclable,
		Weight:        22,
		CostPerUnit:   0.18,
	}
	film := models.Packaging{
		Name:          "Film operculage",
		SupplierCode:  "EMB-FLM",
		Type:          models.PackagingPrimary,
		Material:      "PP/PE",
		Recyclability: models.NonRecyclable,
		Weight:        3,
		CostPerUnit:   0.03,
	}
	carton := models.Packaging{
		Name:          "Carton de 6",
		SupplierCode:  "EMB-CRT6",
		Type:          models.PackagingSecondary,
		Material:      "Carton ondulé",
		Recyclability: models.Recyclable,
		Weight:        180,
		CostPerUnit:   0.42,
	}

	packagings := []*models.Packaging{&tray, &film, &carton}
	for _, packaging := range packagings {
		if err := database.WithContext(ctx).Create(packaging).Error; err != nil {
			return err
		}
	}

	tart := models.Recipe{
		Name:              "Tarte fraise noisette",
		Version:           1,
		Status:            models.RecipeInDev,
		Description:       "Pâte sablée noisette, crème d'amande et purée de fraise.",
		MoistureLoss:      12,
		TargetBatchWeight: 25000,
		LaborCost:         1.20,
		Energy:            models.EnergyCostConfig{DurationMinutes: 35, PowerKw: 6, CostPerKwh: 0.22},
		TargetMargin:      35,
		Items: []models.RecipeItem{
			{IngredientID: flour.ID, Quantity: 180, Group: "Pâte"},
			{IngredientID: butter.ID, Quantity: 90, Group: "Pâte"},
			{IngredientID: sugar.ID, Quantity: 60, Group: "Pâte"},
			{IngredientID: eggs.ID, Quantity: 40, Group: "Pâte"},
			{IngredientID: hazelnut.ID, Quantity: 30, Group: "Pâte"},
			{IngredientID: strawberry.ID, Quantity: 250, Group: "Garniture"},
			{IngredientID: sugar.ID, Quantity: 25, Group: "Garniture"},
		},
		PackagingItems: []models.RecipePackagingItem{
			{PackagingID: tray.ID, Quantity: 1},
			{PackagingID: film.ID, Quantity: 1},
			{PackagingID: carton.ID, Quantity: 1.0 / 6.0},
		},
		ProcessSteps: []models.ProcessStep{
			{Order: 1, Name: "Sablage", Description: "Farine, beurre et poudre de noisette, 4 min vitesse lente"},
			{Order: 2, Name: "Fonçage", Description: "Abaisser à 3 mm, foncer les cercles"},
			{Order: 3, Name: "Cuisson", Description: "20 min à 165°C, four ventilé", CriticalParam: "T°C à cœur > 72°C"},
			{Order: 4, Name: "Garnissage", Description: "Purée de fraise sucrée, 250 g par tarte"},
			{Order: 5, Name: "Refroidissement", Description: "Cellule de refroidissement", CriticalParam: "< 10°C en moins de 2 h"},
		},
		QualityControls: []models.QualityControl{
			{Name: "Poids unitaire", Target: "600 g ± 15 g", Frequency: "Toutes les 30 min", Type: models.QualityPhysico},
			{Name: "Listeria", Target: "Absence dans 25 g", Frequency: "Chaque lot", Type: models.QualityMicrobio},
			{Name: "Aspect doré", Target: "Conforme au témoin", Frequency: "Chaque fournée", Type: models.QualityOrganoleptic},
		},
		Organoleptic: models.OrganolepticProfile{
			Appearance: "Fond doré, garniture rouge brillante",
			Texture:    "Pâte friable, garniture fondante",
			Taste:      "Fraise acidulée, noisette grillée",
			Smell:      "Beurre cuit, fruit rouge",
		},
		Storage: models.StorageConditions{
			ShelfLife:    "5 jours",
			StorageTemp:  "0°C à +4°C",
			AfterOpening: "24 h au froid",
		},
		Logistics: models.LogisticsInfo{UnitsPerBox: 6, BoxesPerLayer: 8, LayersPerPallet: 6, PalletHeight: 165},
	}
	if err := database.WithContext(ctx).Create(&tart).Error; err != nil {
		return err
	}

	applog.Debug(ctx, "mock database seeded", "ingredients", len(ingredients), "packagings", len(packagings))
	return nil
}
