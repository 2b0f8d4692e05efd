package kit

import "go.uber.org/zap"

// NewLogger builds the service logger. env "dev" gets a human-readable
// console encoder, anything else the production JSON config.
func NewLogger(service, env string) *zap.Logger {
	var cfg zap.Config
	if env == "dev" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.InitialFields = map[string]any{"service": service}

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
