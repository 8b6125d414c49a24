package handlers

import "net/http"

// wantsFragment reports whether an htmx request will swap the response into
// an existing page. Boosted navigations replace the whole body and get the
// standalone document.
func wantsFragment(r *http.Request) bool {
	if r.Header.Get("HX-Boosted") == "true" {
		return false
	}
	return r.Header.Get("HX-Request") == "true"
}
