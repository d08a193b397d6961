package stackapi

import (
	"github.com/rs/zerolog"
)

// NopLogger discards every message.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, map[string]interface{}) {}

// Info implements Logger.
func (NopLogger) Info(string, map[string]interface{}) {}

// Warn implements Logger.
func (NopLogger) Warn(string, map[string]interface{}) {}

// Error implements Logger.
func (NopLogger) Error(string, map[string]interface{}) {}

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	zlog zerolog.Logger
}

// Ensure ZerologLogger implements the interface.
var _ Logger = (*ZerologLogger)(nil)

// NewZerologLogger wraps a zerolog.Logger.
func NewZerologLogger(zlog zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{zlog: zlog}
}

// Debug implements Logger.
func (l *ZerologLogger) Debug(msg string, fields map[string]interface{}) {
	l.zlog.Debug().Fields(fields).Msg(msg)
}

// Info implements Logger.
func (l *ZerologLogger) Info(msg string, fields map[string]interface{}) {
	l.zlog.Info().Fields(fields).Msg(msg)
}

// Warn implements Logger.
func (l *ZerologLogger) Warn(msg string, fields map[string]interface{}) {
	l.zlog.Warn().Fields(fields).Msg(msg)
}

// Error implements Logger.
func (l *ZerologLogger) Error(msg string, fields map[string]interface{}) {
	l.zlog.Error().Fields(fields).Msg(msg)
}
