package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap so components can name themselves and carry fields.
type Logger struct {
	*zap.Logger
	config Config
}

// New builds a logger from cfg. Unusable output files fall back to stdout.
func New(cfg Config) (*Logger, error) {
	var zapConfig zap.Config
	if cfg.ToZapLevel() == zapcore.DebugLevel {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapConfig.Level = zap.NewAtomicLevelAt(cfg.ToZapLevel())

	out := cfg.OutputFile
	switch out {
	case "", "stdout", "stderr":
		if out == "" {
			out = "stdout"
		}
		zapConfig.OutputPaths = []string{out}
		zapConfig.ErrorOutputPaths = []string{"stderr"}
	default:
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "logger: cannot create %s, using stdout: %v\n", filepath.Dir(out), err)
			zapConfig.OutputPaths = []string{"stdout"}
		} else {
			zapConfig.OutputPaths = []string{out, "stdout"}
		}
		zapConfig.ErrorOutputPaths = []string{"stderr"}
	}

	switch strings.ToLower(cfg.Format) {
	case "console", "text":
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		zapConfig.Encoding = "json"
	}

	z, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &Logger{Logger: z, config: cfg}, nil
}

// NewNop returns a logger that discards everything. Tests use it.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop(), config: DefaultConfig()}
}

// Wrap adapts an existing zap logger.
func Wrap(z *zap.Logger) *Logger {
	return &Logger{Logger: z, config: DefaultConfig()}
}

// Named adds a new path segment to the logger's name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name), config: l.config}
}

// With adds structured context to the logger.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...), config: l.config}
}
