package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log = zap.NewNop()

type Options struct {
	Level       string   // debug|info|warn|error, default info
	Encoding    string   // json|console, default json
	OutputPaths []string // default stdout
}

// Init initializes global logger with level from config
func Init(opts Options) error {
	l, err := New(opts)
	if err != nil {
		return err
	}
	Log = l
	return nil
}

// New builds a logger without touching the global one.
func New(opts Options) (*zap.Logger, error) {
	var lvl zapcore.Level
	switch opts.Level {
	case "debug":
		lvl = zap.DebugLevel
	case "info":
		lvl = zap.InfoLevel
	case "warn":
		lvl = zap.WarnLevel
	case "error":
		lvl = zap.ErrorLevel
	default:
		lvl = zap.InfoLevel
	}

	enc := opts.Encoding
	if enc != "console" {
		enc = "json"
	}

	out := opts.OutputPaths
	if len(out) == 0 {
		out = []string{"stdout"}
	}

	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	if enc == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cfg := zap.Config{
		Encoding:         enc,
		Level:            zap.NewAtomicLevelAt(lvl),
		OutputPaths:      out,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    ec,
	}

	return cfg.Build()
}

// Sync flushes the global logger; errors from syncing terminals are ignored.
func Sync() { _ = Log.Sync() }
