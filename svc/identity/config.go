package identity

import "time"

// Config for the identity service. Both values are required at startup.
type Config struct {
	URL     string        `env:"IDENTITY_URL,required,notEmpty"`
	APIKey  string        `env:"IDENTITY_API_KEY,required,notEmpty"`
	Timeout time.Duration `env:"IDENTITY_TIMEOUT" envDefault:"10s"`
}
