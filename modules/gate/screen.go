package gate

import "strings"

// Screen is the single view a visitor sees.
type Screen string

const (
	Loading      Screen = "loading"
	Landing      Screen = "landing"
	Auth         Screen = "auth"
	Subscription Screen = "subscription"
	Success      Screen = "success"
	Dashboard    Screen = "dashboard"
)

const (
	PathLanding      = "/"
	PathAuth         = "/auth"
	PathSubscription = "/subscription"
	PathSuccess      = "/success"
	PathDashboard    = "/dashboard"

	// PathWidget hosts the embedded piano. The dashboard forwards there.
	PathWidget = "/chord-inator"
)

// Path is the canonical URL path of a screen. Loading has none and maps to
// the landing path.
func (s Screen) Path() string {
	switch s {
	case Auth:
		return PathAuth
	case Subscription:
		return PathSubscription
	case Success:
		return PathSuccess
	case Dashboard:
		return PathDashboard
	default:
		return PathLanding
	}
}

func (s Screen) String() string { return string(s) }

// NormalizePath lower-cases path and strips query, fragment and trailing
// slashes. An empty result becomes "/".
func NormalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.ToLower(strings.TrimSpace(path))
	path = strings.TrimRight(path, "/")
	if path == "" || path[0] != '/' {
		return "/" + path
	}
	return path
}

// ScreenFromPath returns the screen whose canonical path is path. Unknown
// paths report false.
func ScreenFromPath(path string) (Screen, bool) {
	switch NormalizePath(path) {
	case PathLanding:
		return Landing, true
	case PathAuth:
		return Auth, true
	case PathSubscription:
		return Subscription, true
	case PathSuccess:
		return Success, true
	case PathDashboard:
		return Dashboard, true
	default:
		return "", false
	}
}
