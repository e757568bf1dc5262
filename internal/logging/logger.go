// Package logging provides the structured logger used across every operator,
// worker, and client in the pipeline. It wraps go.uber.org/zap so call sites
// depend on a small interface instead of a concrete logging library.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the structured logging surface every component takes by
// constructor injection. Never reach for a package-level global.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Debugf(template string, args ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Infof(template string, args ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Warnf(template string, args ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})
	With(keysAndValues ...interface{}) Logger
}

type options struct {
	name  string
	path  string
	level string
}

// Option configures New.
type Option func(*options)

// Name sets the logger's base name, attached as a static field on every entry.
func Name(name string) Option {
	return func(o *options) { o.name = name }
}

// Path, when non-empty, tees output through a rotating file sink at this
// path in addition to stderr.
func Path(path string) Option {
	return func(o *options) { o.path = path }
}

// Level sets the minimum level ("debug", "info", "warn", "error"). Defaults
// to "info" when empty or unrecognized.
func Level(level string) Option {
	return func(o *options) { o.level = level }
}

type sugaredLogger struct {
	sugar *zap.SugaredLogger
}

// New builds a Logger from the given options. Callers that only need a
// console logger for tests can call New() with no options.
func New(opts ...Option) (Logger, error) {
	cfg := options{level: "info"}
	for _, opt := range opts {
		opt(&cfg)
	}

	level := parseLevel(cfg.level)
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), level),
	}
	if cfg.path != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.path,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
	}

	core := zapcore.NewTee(cores...)
	zl := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	if cfg.name != "" {
		zl = zl.Named(cfg.name)
	}
	return &sugaredLogger{sugar: zl.Sugar()}, nil
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *sugaredLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *sugaredLogger) Debugf(template string, args ...interface{}) {
	l.sugar.Debugf(template, args...)
}

func (l *sugaredLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *sugaredLogger) Infof(template string, args ...interface{}) {
	l.sugar.Infof(template, args...)
}

func (l *sugaredLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *sugaredLogger) Warnf(template string, args ...interface{}) {
	l.sugar.Warnf(template, args...)
}

func (l *sugaredLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *sugaredLogger) Errorf(template string, args ...interface{}) {
	l.sugar.Errorf(template, args...)
}

func (l *sugaredLogger) Fatalf(template string, args ...interface{}) {
	l.sugar.Fatalf(template, args...)
}

func (l *sugaredLogger) With(keysAndValues ...interface{}) Logger {
	return &sugaredLogger{sugar: l.sugar.With(keysAndValues...)}
}
