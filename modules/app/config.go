package app

import "time"

// Config of the web front end.
type Config struct {
	// Origin is the public scheme://host the app is served from. Checkout
	// return URLs are built from it and widget messages must come from it.
	Origin    string `env:"APP_ORIGIN,required,notEmpty"`
	StaticDir string `env:"STATIC_DIR" envDefault:"./static"`

	DashboardRedirectDelay time.Duration `env:"APP_DASHBOARD_REDIRECT_DELAY" envDefault:"2s"`
	SuccessContinueDelay   time.Duration `env:"APP_SUCCESS_CONTINUE_DELAY" envDefault:"5s"`
}
