package handler

import (
	"net/http"
	"net/url"

	"github.com/starfederation/datastar-go/datastar"
)

type redirectResponse struct {
	url      string
	external bool
}

func (r redirectResponse) Render(w http.ResponseWriter, req *http.Request) error {
	target := r.url
	if !r.external && !isLocalURL(target) {
		target = "/"
	}
	if IsDataStar(req) {
		return datastar.NewSSE(w, req).Redirect(target)
	}
	http.Redirect(w, req, target, http.StatusSeeOther)
	return nil
}

// Redirect sends the browser to a same-site path with 303 See Other, or via a
// script event for Datastar requests. Absolute or protocol-relative URLs fall
// back to "/".
func Redirect(path string) Response {
	return redirectResponse{url: path}
}

// RedirectExternal redirects to an absolute URL, e.g. a hosted checkout page.
func RedirectExternal(rawURL string) Response {
	return redirectResponse{url: rawURL, external: true}
}

func isLocalURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && len(raw) > 0 && raw[0] == '/' && (len(raw) == 1 || raw[1] != '/')
}
