package logging

import (
	"fmt"
	"os"

	"github.com/devrev/graphmesh/internal/config"
	"github.com/devrev/graphmesh/internal/priority"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger described by cfg. Entries below DPanic are
// parked in a DeferredSink and written by the returned Drainer, which the
// caller must Start and Stop. Panic and fatal entries are written directly
// so they are not lost when the process exits.
func New(cfg config.LoggingConfig, gate *priority.Gate) (*zap.Logger, *Drainer, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, nil, err
	}

	encoder, err := newEncoder(cfg.Format)
	if err != nil {
		return nil, nil, err
	}

	sink := NewDeferredSink()
	drainer := NewDrainer(sink, out, gate, cfg.DrainWait)

	deferred := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return level.Enabled(l) && l < zapcore.DPanicLevel
	})
	direct := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return level.Enabled(l) && l >= zapcore.DPanicLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, sink, deferred),
		zapcore.NewCore(encoder.Clone(), out, direct),
	)

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), drainer, nil
}

func newEncoder(format string) (zapcore.Encoder, error) {
	switch format {
	case "", "json":
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(encCfg), nil
	case "console":
		return zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func openOutput(output string) (zapcore.WriteSyncer, error) {
	switch output {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return zapcore.Lock(f), nil
	}
}
