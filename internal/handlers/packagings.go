package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	applog "formulab/internal/log"
	"formulab/models"
)

type packagingRequest struct {
	Name          string  `json:"name" validate:"required"`
	SupplierCode  string  `json:"supplier_code"`
	Type          string  `json:"type" validate:"omitempty,oneof=Primary Secondary Tertiary"`
	Material      string  `json:"material"`
	Recyclability string  `json:"recyclability" validate:"omitempty,oneof=Recyclable Non-Recyclable Compostable Reusable"`
	Weight        float64 `json:"weight" validate:"gte=0"`
	CostPerUnit   float64 `json:"cost_per_unit" validate:"gte=0"`
}

func (p packagingRequest) apply(packaging *models.Packaging) {
	packaging.Name = strings.TrimSpace(p.Name)
	packaging.SupplierCode = strings.TrimSpace(p.SupplierCode)
	packaging.Type = models.PackagingType(p.Type)
	if packaging.Type == "" {
		packaging.Type = models.PackagingPrimary
	}
	packaging.Material = strings.TrimSpace(p.Material)
	packaging.Recyclability = models.Recyclability(p.Recyclability)
	packaging.Weight = p.Weight
	packaging.CostPerUnit = p.CostPerUnit
}

// PackagingResource handles CRUD interactions for the packaging catalogue.
func PackagingResource(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r, "packagings") {
		return
	}

	segments := resourceSegments(r, "/app/api/packagings")
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listPackagings(w, r)
		case http.MethodPost:
			createPackaging(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	packagingID, ok := parseID(segments[0])
	if !ok || len(segments) > 1 {
		applog.Debug(r.Context(), "invalid packaging path", "path", r.URL.Path)
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showPackaging(w, r, packagingID)
	case http.MethodPut:
		updatePackaging(w, r, packagingID)
	case http.MethodDelete:
		deletePackaging(w, r, packagingID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listPackagings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var packagings []models.Packaging
	if err := database.WithContext(ctx).Order("name asc").Find(&packagings).Error; err != nil {
		applog.Error(ctx, "failed to list packagings", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load packagings")
		return
	}
	writeJSON(w, http.StatusOK, packagings)
}

func showPackaging(w http.ResponseWriter, r *http.Request, packagingID uint) {
	ctx := r.Context()
	var packaging models.Packaging
	if err := database.WithContext(ctx).First(&packaging, packagingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load packaging", "error", err, "id", packagingID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load packaging")
		return
	}
	writeJSON(w, http.StatusOK, packaging)
}

func createPackaging(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload packagingRequest
	if err := decodePayload(r, &payload); err != nil {
		applog.Debug(ctx, "invalid packaging payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, payloadErrorMessage(err))
		return
	}

	var packaging models.Packaging
	payload.apply(&packaging)
	if err := database.WithContext(ctx).Create(&packaging).Error; err != nil {
		applog.Error(ctx, "failed to create packaging", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create packaging")
		return
	}
	writeJSON(w, http.StatusCreated, packaging)
}

func updatePackaging(w http.ResponseWriter, r *http.Request, packagingID uint) {
	ctx := r.Context()
	var packaging models.Packaging
	if err := database.WithContext(ctx).First(&packaging, packagingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load packaging for update", "error", err, "id", packagingID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load packaging")
		return
	}

	var payload packagingRequest
	if err := decodePayload(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, payloadErrorMessage(err))
		return
	}

	payload.apply(&packaging)
	if err := database.WithContext(ctx).Save(&packaging).Error; err != nil {
		applog.Error(ctx, "failed to update packaging", "error", err, "id", packagingID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update packaging")
		return
	}
	writeJSON(w, http.StatusOK, packaging)
}

func deletePackaging(w http.ResponseWriter, r *http.Request, packagingID uint) {
	ctx := r.Context()
	result := database.WithContext(ctx).Delete(&models.Packaging{}, packagingID)
	if result.Error != nil {
		applog.Error(ctx, "failed to delete packaging", "error", result.Error, "id", packagingID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete packaging")
		return
	}
	if result.RowsAffected == 0 {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
