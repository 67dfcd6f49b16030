package checkout

import "time"

const (
	ProviderEndpoint = "endpoint"
	ProviderPaddle   = "paddle"
)

// Config selects and configures the checkout provider. URL defaults to the
// stripe-checkout function of the identity service when left empty.
type Config struct {
	Provider string        `env:"CHECKOUT_PROVIDER" envDefault:"endpoint"`
	URL      string        `env:"CHECKOUT_URL"`
	Timeout  time.Duration `env:"CHECKOUT_TIMEOUT" envDefault:"15s"`
	Paddle   PaddleConfig
}

// PaddleConfig holds the Paddle credentials, used when Provider is "paddle".
type PaddleConfig struct {
	APIKey      string `env:"PADDLE_API_KEY"`
	Environment string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}
