package httpserver

import "time"

// Config is loaded from the environment. WriteTimeout defaults to 0 because
// the live screen stream is a long-lived response.
type Config struct {
	Addr              string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"0s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// NewFromConfig builds a Server; zero durations leave the limit unset.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	base := []Option{WithAddr(cfg.Addr)}
	if cfg.ShutdownTimeout > 0 {
		base = append(base, WithShutdownTimeout(cfg.ShutdownTimeout))
	}
	base = append(base, func(c *options) {
		c.readHeaderTimeout = cfg.ReadHeaderTimeout
		c.readTimeout = cfg.ReadTimeout
		c.writeTimeout = cfg.WriteTimeout
		c.idleTimeout = cfg.IdleTimeout
	})
	return New(append(base, opts...)...)
}
