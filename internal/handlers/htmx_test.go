package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWantsFragment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		want    bool
	}{
		{"plain request", nil, false},
		{"htmx swap", map[string]string{"HX-Request": "true"}, true},
		{"boosted navigation", map[string]string{"HX-Request": "true", "HX-Boosted": "true"}, false},
		{"malformed header", map[string]string{"HX-Request": "yes"}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/app/reports/technical-sheet", nil)
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}
			if got := wantsFragment(req); got != tt.want {
				t.Fatalf("wantsFragment() = %t, want %t", got, tt.want)
			}
		})
	}
}
