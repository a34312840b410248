package logger

import (
	"encoding/json"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Fields map[string]any

type Config struct {
	Level       string
	Format      string
	Development bool
}

var sensitiveKeys = map[string]struct{}{
	"pin":           {},
	"secret":        {},
	"banksecret":    {},
	"bank_secret":   {},
	"password":      {},
	"token":         {},
	"authorization": {},
	"channelkey":    {},
	"channel_key":   {},
}

var global atomic.Pointer[zap.Logger]

func init() {
	global.Store(zap.NewNop())
}

// Init builds a zap logger from cfg and installs it as the package logger.
func Init(cfg Config) error {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(cfg.Level)))); err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	format := strings.ToLower(strings.TrimSpace(cfg.Format))
	if format != "console" {
		format = "json"
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Development,
		DisableCaller:     !cfg.Development,
		DisableStacktrace: !cfg.Development,
		Encoding:          format,
		EncoderConfig:     encoderConfig,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}

	built, err := zapConfig.Build()
	if err != nil {
		return err
	}

	Set(built)
	return nil
}

// Set replaces the package logger. A nil logger installs a no-op logger.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	global.Store(l)
}

func Sync() {
	_ = global.Load().Sync()
}

func Info(message string, fields Fields) {
	global.Load().Info(message, zapFields(fields)...)
}

func Warn(message string, fields Fields) {
	global.Load().Warn(message, zapFields(fields)...)
}

func Error(message string, err error, fields Fields) {
	zf := zapFields(fields)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	global.Load().Error(message, zf...)
}

func SanitizePayload(payload any) any {
	if payload == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "<unavailable>"
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "<unavailable>"
	}

	return sanitizeValue(data)
}

func zapFields(fields Fields) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	out := make([]zap.Field, 0, len(fields))
	for key, value := range fields {
		if isSensitiveKey(key) {
			out = append(out, zap.String(key, "******"))
			continue
		}
		switch typed := value.(type) {
		case map[string]any, []any:
			out = append(out, zap.Any(key, sanitizeValue(typed)))
		default:
			out = append(out, zap.Any(key, value))
		}
	}
	return out
}

func sanitizeValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, inner := range typed {
			if isSensitiveKey(key) {
				out[key] = "******"
				continue
			}
			out[key] = sanitizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, 0, len(typed))
		for _, item := range typed {
			out = append(out, sanitizeValue(item))
		}
		return out
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "-", ""))
	_, ok := sensitiveKeys[normalized]
	return ok
}
