package log

import (
	"fmt"

	"github.com/kataras/golog"
)

var gologLevels = map[LogLevel]string{
	LogLevelDebug: "debug",
	LogLevelInfo:  "info",
	LogLevelWarn:  "warn",
	LogLevelError: "error",
	LogLevelNone:  "disable",
}

// GologLogger binds the Logger interface to a kataras/golog logger.
type GologLogger struct {
	logger *golog.Logger
	level  LogLevel
}

var _ Logger = (*GologLogger)(nil)

// NewGologLogger wraps an existing golog.Logger at info level.
func NewGologLogger(logger *golog.Logger) *GologLogger {
	return &GologLogger{logger: logger, level: LogLevelInfo}
}

func (l *GologLogger) Debug(format string, v ...any) {
	if l.level <= LogLevelDebug {
		l.logger.Debug(fmt.Sprintf(format, v...))
	}
}

func (l *GologLogger) Info(format string, v ...any) {
	if l.level <= LogLevelInfo {
		l.logger.Info(fmt.Sprintf(format, v...))
	}
}

func (l *GologLogger) Warn(format string, v ...any) {
	if l.level <= LogLevelWarn {
		l.logger.Warn(fmt.Sprintf(format, v...))
	}
}

func (l *GologLogger) Error(format string, v ...any) {
	if l.level <= LogLevelError {
		l.logger.Error(fmt.Sprintf(format, v...))
	}
}

// SetLevel adjusts both the wrapper's threshold and the underlying
// golog level.
func (l *GologLogger) SetLevel(level LogLevel) {
	l.level = level
	name, ok := gologLevels[level]
	if !ok {
		name = "info"
	}
	l.logger.SetLevel(name)
}

// GetLevel returns the current log level.
func (l *GologLogger) GetLevel() LogLevel {
	return l.level
}
