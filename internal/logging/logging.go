// Package logging builds the process logger and adapts it to the service's
// Logger interface.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"proteomecore/internal/core"
)

// Config selects the log level and encoding.
type Config struct {
	// Level is debug, info, warn or error. Empty means info.
	Level string `yaml:"level"`
	// Format is json or console. Empty means json.
	Format string `yaml:"format"`
}

// New builds a zap logger from cfg.
func New(cfg Config) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var zc zap.Config
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "json":
		zc = zap.NewProductionConfig()
	case "console":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps a level name to a zap level.
func ParseLevel(raw string) (zapcore.Level, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(raw))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", raw)
	}
	return lvl, nil
}

// Adapt exposes a zap logger through core.Logger. A nil logger yields a
// no-op logger.
func Adapt(l *zap.Logger) core.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return sugared{s: l.Sugar()}
}

type sugared struct {
	s *zap.SugaredLogger
}

func (a sugared) Debug(msg string, args ...any) { a.s.Debugw(msg, args...) }
func (a sugared) Info(msg string, args ...any)  { a.s.Infow(msg, args...) }
func (a sugared) Warn(msg string, args ...any)  { a.s.Warnw(msg, args...) }
func (a sugared) Error(msg string, args ...any) { a.s.Errorw(msg, args...) }
