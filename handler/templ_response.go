package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"
)

// TemplComponent matches templ.Component.
type TemplComponent interface {
	Render(ctx context.Context, w io.Writer) error
}

type TemplOption = datastar.PatchElementOption

// WithTarget sets the CSS selector the component is patched into.
func WithTarget(selector string) TemplOption {
	return datastar.WithSelector(selector)
}

func WithPatchMode(mode datastar.ElementPatchMode) TemplOption {
	return datastar.WithMode(mode)
}

type templResponse struct {
	partial TemplComponent
	full    TemplComponent
	status  int
	options []TemplOption
}

func (t templResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if IsDataStar(r) {
		return datastar.NewSSE(w, r).PatchElementTempl(t.partial, t.options...)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if t.status != 0 {
		w.WriteHeader(t.status)
	}
	return t.full.Render(r.Context(), w)
}

// Templ renders component as HTML, or as an element patch for Datastar requests.
func Templ(component TemplComponent, opts ...TemplOption) Response {
	return templResponse{partial: component, full: component, options: opts}
}

// TemplWithStatus renders component as HTML with a non-200 status code.
func TemplWithStatus(status int, component TemplComponent) Response {
	return templResponse{partial: component, full: component, status: status}
}

// TemplPartial patches partial for Datastar requests and renders full otherwise.
func TemplPartial(partial, full TemplComponent, opts ...TemplOption) Response {
	return templResponse{partial: partial, full: full, options: opts}
}
