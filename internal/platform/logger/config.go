package logger

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Config holds the logger settings loaded by internal/config.
type Config struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputFile string `mapstructure:"output_file"`
}

// DefaultConfig logs JSON at info level to stdout.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", OutputFile: "stdout"}
}

// ToZapLevel converts the configured level, defaulting to info.
func (c Config) ToZapLevel() zapcore.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
