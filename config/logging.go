package config

import (
	"go.uber.org/zap"
)

// setLogger builds the zap logger matching the runtime environment.
// Anything other than development or production gets the example
// logger, which is handy for local runs and tests.
func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "development":
		return zap.NewDevelopment()
	case "production":
		return zap.NewProduction()
	default:
		return zap.NewExample(), nil
	}
}
