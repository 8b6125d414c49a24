package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"gorm.io/gorm"

	applog "formulab/internal/log"
	"formulab/internal/views/report"
	"formulab/models"
)

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB

	defaultLocale = report.LocaleFrench
	defaultMargin float64

	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	ctx := context.Background()
	if err := registerValidations(validate, payloadValidations); err != nil {
		applog.Error(ctx, "failed to register payload validations", "error", err)
	}

	eng := en.New()
	uni := ut.New(eng, eng)
	var found bool
	if translator, found = uni.GetTranslator("en"); !found {
		applog.Error(ctx, "validation translator not found", "locale", "en")
	}
	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		applog.Error(ctx, "failed to register validation translations", "error", err)
	}
}

var payloadValidations = map[string]validator.Func{
	"allergen": func(fl validator.FieldLevel) bool {
		_, ok := models.ParseAllergen(fl.Field().String())
		return ok
	},
	"label_tag": func(fl validator.FieldLevel) bool {
		_, ok := models.ParseLabelTag(fl.Field().String())
		return ok
	},
	"recipe_status": func(fl validator.FieldLevel) bool {
		switch models.RecipeStatus(fl.Field().String()) {
		case "", models.RecipeDraft, models.RecipeInDev, models.RecipeValidated, models.RecipeArchived:
			return true
		}
		return false
	},
}

// registerValidations installs every rule and reports all failures together.
func registerValidations(v *validator.Validate, rules map[string]validator.Func) error {
	var errs []error
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			errs = append(errs, fmt.Errorf("register %q: %w", tag, err))
		}
	}
	return errors.Join(errs...)
}

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(sm *scs.SessionManager, db *gorm.DB) {
	sessionManager = sm
	database = db
}

// ConfigureReports sets the fallback locale and target margin used when a
// request or recipe does not provide its own.
func ConfigureReports(locale string, margin float64) {
	if normalized := report.NormalizeLocale(locale); normalized != "" {
		defaultLocale = normalized
	} else {
		defaultLocale = report.LocaleFrench
	}
	if margin < 0 {
		margin = 0
	}
	defaultMargin = margin
}

// decodePayload reads a JSON body into dst and runs struct validation. An
// empty body decodes as the zero value.
func decodePayload(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request payload: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return err
	}
	return nil
}

// payloadErrorMessage renders decode and validation failures for API clients.
func payloadErrorMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		messages := make([]string, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			messages = append(messages, fieldErr.Translate(translator))
		}
		return strings.Join(messages, ", ")
	}
	return "invalid request payload"
}

// resourceSegments strips prefix from the request path and splits the rest.
func resourceSegments(r *http.Request, prefix string) []string {
	path := strings.TrimPrefix(r.URL.Path, prefix)
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func parseID(value string) (uint, bool) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil || parsed == 0 {
		return 0, false
	}
	return uint(parsed), true
}

func requireDatabase(w http.ResponseWriter, r *http.Request, resource string) bool {
	if database != nil {
		return true
	}
	applog.Debug(r.Context(), "request without database", "resource", resource)
	http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	return false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
