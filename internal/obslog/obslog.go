// Package obslog constructs the process-wide structured logger.
package obslog

import (
	"go.uber.org/zap"
)

// New builds a sugared logger on zap's production configuration. Every
// long-running goroutine in internal/server takes a *zap.SugaredLogger,
// and internal/gaia its desugared *zap.Logger, rather than reaching for
// the global logger, so tests can inject a no-op one.
func New() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		// Logger construction failing is itself a programming/environment
		// error; there's nothing sensible to log it to.
		panic(err)
	}
	return logger.Sugar()
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
