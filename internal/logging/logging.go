// Package logging builds the structured logger shared by the CLI and the
// MCP server.
package logging

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logr.Logger backed by zap. Output goes to stderr.
// Verbosity 0 logs warnings only, 1 adds info, 2 and above add debug (V(1)).
func New(verbosity int) (logr.Logger, error) {
	var cfg zap.Config
	switch {
	case verbosity <= 0:
		cfg = zap.NewProductionConfig()
		cfg.Level.SetLevel(zapcore.WarnLevel)
	case verbosity == 1:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level.SetLevel(zapcore.InfoLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true

	zl, err := cfg.Build()
	if err != nil {
		return logr.Logger{}, fmt.Errorf("building logger: %w", err)
	}
	return zapr.NewLogger(zl).WithName("vulnfix"), nil
}

// Must is New for callers that cannot handle an error; it falls back to a
// discarding logger.
func Must(verbosity int) logr.Logger {
	log, err := New(verbosity)
	if err != nil {
		return logr.Discard()
	}
	return log
}
