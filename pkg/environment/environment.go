// Package environment names the deployment environments the service knows
// about and normalises the values read from configuration.
package environment

import "strings"

// Environment represents application environment.
type Environment string

const (
	// Development for development environment.
	Development Environment = "development"
	// Production for production environment.
	Production Environment = "production"
	// Staging for staging environment.
	Staging Environment = "staging"
)

// Parse maps a configuration value to a known environment.
// Short aliases ("prod", "stage", "dev") are accepted; anything unknown is
// treated as development.
func Parse(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Production), "prod":
		return Production
	case string(Staging), "stage":
		return Staging
	default:
		return Development
	}
}

// IsProduction reports whether the environment is production.
func (e Environment) IsProduction() bool {
	return e == Production
}

// IsDeployed reports whether the environment runs behind TLS (staging or production).
func (e Environment) IsDeployed() bool {
	return e == Production || e == Staging
}

func (e Environment) String() string {
	return string(e)
}
