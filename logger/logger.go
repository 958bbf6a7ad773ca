// Package logger holds the process wide zap logger used by the harness and
// its components.
package logger

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names for structured logging
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldFile      = "file"
	FieldFrameID   = "frame_id"
	FieldIteration = "iteration"
	FieldCostMS    = "cost_ms"
	FieldDelayMS   = "delay_ms"
	FieldBytes     = "bytes"
	FieldObjects   = "objects"
	FieldStatus    = "status"
	FieldPhase     = "phase"
	FieldError     = "error"
)

// Logger is the global logger instance
var Logger *zap.SugaredLogger

func init() {
	// safe no-op logger until Initialize is called
	Logger = zap.NewNop().Sugar()
}

// Options configure the global logger
type Options struct {
	// JSON selects machine readable output
	JSON bool
	// Level is one of debug, info, warn, error
	Level string
}

// Initialize sets up the global logger
func Initialize(opts Options) error {

	level, err := ParseLevel(opts.Level)

	if err != nil {
		return err
	}

	var zapLogger *zap.Logger

	if opts.JSON {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(level)
		config.OutputPaths = []string{"stderr"}
		zapLogger, err = config.Build()

		if err != nil {
			return errors.Wrap(err, "building json logger")
		}

	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

		zapLogger = zap.New(
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(encCfg),
				zapcore.AddSync(os.Stderr),
				level,
			),
		)
	}

	Logger = zapLogger.Sugar()
	return nil
}

// ParseLevel converts a level name into a zap level, empty means info
func ParseLevel(s string) (zapcore.Level, error) {

	if strings.TrimSpace(s) == "" {
		return zapcore.InfoLevel, nil
	}

	var level zapcore.Level

	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.InfoLevel, errors.Wrapf(err, "invalid log level %q", s)
	}

	return level, nil
}

// Component returns a named logger for a component of the harness
func Component(name string) *zap.SugaredLogger {
	return Logger.Named(name).With(FieldComponent, name)
}

// Sync flushes any buffered log entries
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}
