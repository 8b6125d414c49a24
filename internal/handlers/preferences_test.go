package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func preferencesRequest(t *testing.T, locale string) *http.Request {
	t.Helper()
	form := url.Values{"locale": {locale}}
	req := httptest.NewRequest(http.MethodPost, "/app/preferences", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestUpdatePreferencesStoresLocaleInSession(t *testing.T) {
	sm := withTestSessionManager(t)

	req := preferencesRequest(t, "EN")
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	UpdatePreferences(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp preferencesResponse
	decodeBody(t, w, &resp)
	if resp.Locale != "en" {
		t.Fatalf("expected locale en, got %q", resp.Locale)
	}
	if got := sm.GetString(req.Context(), sessionLocaleKey); got != "en" {
		t.Fatalf("expected session locale en, got %q", got)
	}
	if got := currentLocale(req); got != "en" {
		t.Fatalf("currentLocale() = %q, want en", got)
	}
}

func TestUpdatePreferencesRejectsUnknownLocale(t *testing.T) {
	withTestSessionManager(t)

	w := httptest.NewRecorder()
	UpdatePreferences(w, preferencesRequest(t, "klingon"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	UpdatePreferences(w, httptest.NewRequest(http.MethodGet, "/app/preferences", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestCurrentLocalePrefersQueryParameter(t *testing.T) {
	original := sessionManager
	sessionManager = nil
	t.Cleanup(func() { sessionManager = original })

	req := httptest.NewRequest(http.MethodGet, "/app/reports/technical-sheet?lang=en", nil)
	if got := currentLocale(req); got != "en" {
		t.Fatalf("currentLocale() = %q, want en", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/app/reports/technical-sheet", nil)
	if got := currentLocale(req); got != defaultLocale {
		t.Fatalf("currentLocale() = %q, want default %q", got, defaultLocale)
	}
}
