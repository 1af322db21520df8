package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger constructs a zerolog.Logger with sane defaults for the service.
func NewLogger(appEnv string) zerolog.Logger {
	return newLogger(appEnv, nil)
}

// NewLoggerFromConfig behaves like NewLogger and additionally writes JSON
// lines to a size-rotated file when LOG_FILE is set.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil || cfg.LogFile == "" {
		return NewLogger(appEnvOf(cfg))
	}
	file := &lumberjack.Logger{
		Filename: cfg.LogFile,
		MaxSize:  cfg.LogFileMaxSizeMB,
		MaxAge:   cfg.LogFileMaxAgeDays,
	}
	return newLogger(cfg.AppEnv, file)
}

func appEnvOf(cfg *Config) string {
	if cfg == nil {
		return "development"
	}
	return cfg.AppEnv
}

func newLogger(appEnv string, file io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}

	var out io.Writer = os.Stdout
	if appEnv == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	if file != nil {
		out = zerolog.MultiLevelWriter(out, file)
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Logger aliases the zerolog.Logger so callers outside the infra package can
// depend on the logging contract without importing the third-party module
// directly.
type Logger = zerolog.Logger
