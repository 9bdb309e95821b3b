// Package logging builds the single zap.Logger instance each component
// receives at construction time. SPEC_FULL.md §9 replaces the source's
// global singleton logger with an injected sink: nothing in this module
// keeps package-level mutable logger state.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the process-wide logger.
type Options struct {
	// Component names this process's role (match, persis, order, heal, kline)
	// and is attached to every log line.
	Component string
	// Development enables human-readable console output instead of JSON.
	Development bool
}

// New builds a *zap.Logger configured for the given role. Callers own the
// returned logger for the lifetime of the process and pass it explicitly
// to every component that needs it.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("component", opts.Component)), nil
}
