package handlers

import (
	"net/http"
	"strings"

	applog "formulab/internal/log"
	"formulab/internal/views/report"
)

const sessionLocaleKey = "prefs:locale"

type preferencesResponse struct {
	Locale string `json:"locale"`
}

// UpdatePreferences stores the report locale in the visitor's session.
func UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		applog.Debug(r.Context(), "preferences update with unsupported method", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		applog.Error(r.Context(), "failed to parse preferences form", "error", err)
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	value := strings.TrimSpace(r.FormValue("locale"))
	locale := report.NormalizeLocale(value)
	if locale == "" {
		applog.Debug(r.Context(), "received invalid locale selection", "value", value)
		http.Error(w, "invalid locale selection", http.StatusBadRequest)
		return
	}

	if sessionManager == nil {
		applog.Debug(r.Context(), "session manager not configured; locale not persisted")
	} else {
		sessionManager.Put(r.Context(), sessionLocaleKey, locale)
	}

	writeJSON(w, http.StatusOK, preferencesResponse{Locale: locale})
}

// currentLocale resolves the sheet locale from the lang query parameter, the
// session, then the configured default.
func currentLocale(r *http.Request) string {
	if locale := report.NormalizeLocale(r.URL.Query().Get("lang")); locale != "" {
		return locale
	}
	if sessionManager != nil {
		if locale := report.NormalizeLocale(sessionManager.GetString(r.Context(), sessionLocaleKey)); locale != "" {
			return locale
		}
	}
	return defaultLocale
}
