package config

import (
	"time"

	"github.com/sosodev/duration"
)

// Environment represents different deployment environments
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
	Test        Environment = "test"
)

// ParseEnvironment maps APP_ENV style values ("prod", "stage", "local", ...) to an Environment.
// Unknown values are treated as development.
func ParseEnvironment(env string) Environment {
	switch env {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	case "test", "testing":
		return Test
	default:
		return Development
	}
}

// ParseDuration accepts either an ISO8601 duration ("P1D", "PT5M") or a Go
// duration string ("24h").
func ParseDuration(s string) (time.Duration, error) {
	isoDuration, err := duration.Parse(s)
	if err == nil {
		return isoDuration.ToTimeDuration(), nil
	}
	return time.ParseDuration(s)
}
