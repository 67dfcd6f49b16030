package handler

import (
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"
)

const (
	PatchOuter = datastar.ElementPatchModeOuter
	PatchInner = datastar.ElementPatchModeInner
)

// IsDataStar reports whether the request came from the Datastar client,
// which always sends Datastar-Request: true and accepts an event stream.
func IsDataStar(r *http.Request) bool {
	if r.Header.Get("Datastar-Request") == "true" {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		return true
	}
	return r.URL.Query().Has("datastar")
}
