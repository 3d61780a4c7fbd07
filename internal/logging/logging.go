// Package logging builds the zap logger shared by the editing core. A
// CLI should stay quiet unless asked, so the default logger only emits
// warnings; debug mode switches to a development logger on stderr.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns the process logger. Errors constructing a logger degrade
// to a no-op logger rather than failing the command.
func New(debug bool) *zap.Logger {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		lg, err := cfg.Build()
		if err != nil {
			return zap.NewNop()
		}
		return lg
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.OutputPaths = []string{"stderr"}
	lg, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return lg
}
