// Package logging configures the global zap logger. Output always goes to a
// file: the terminal is owned by the UI, and a stray log line on stdout would
// corrupt the screen.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init builds a file-backed logger at path and installs it as the zap
// global. With debug set, the level drops to Debug and output switches to
// the console encoder for readability.
func Init(path string, debug bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}

	logger, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(logger)
	return nil
}

// InitDiscard installs a no-op logger. Used when the log file cannot be
// opened and by tests.
func InitDiscard() {
	zap.ReplaceGlobals(zap.NewNop())
}

// Sync flushes buffered entries. Sync errors on shutdown are not actionable
// and are ignored by callers.
func Sync() error { return zap.L().Sync() }
