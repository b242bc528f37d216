package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// Logger provides leveled, component-tagged logging to stderr.
type Logger struct {
	component string
	config    *Config
	writer    io.Writer
	level     atomic.Int32
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// New creates a logger bound to the given observable config. The logger
// registers itself for level updates; call Close to deregister.
func New(component string, config *Config) *Logger {
	l := &Logger{
		component: component,
		config:    config,
		writer:    os.Stderr,
	}
	l.level.Store(int32(config.register(l)))
	return l
}

// WithComponent creates a logger with a specific component name sharing
// the same config.
func (l *Logger) WithComponent(component string) *Logger {
	return New(component, l.config)
}

// Close deregisters the logger from its config.
func (l *Logger) Close() {
	l.config.deregister(l)
}

func (l *Logger) setLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *Logger) enabled(level Level) bool {
	return Level(l.level.Load()) <= level
}

// Debug logs debug messages
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.enabled(LevelDebug) {
		l.log("DEBUG", msg, args...)
	}
}

// Info logs informational messages
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.enabled(LevelInfo) {
		l.log("INFO", msg, args...)
	}
}

// Warn logs warning messages
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.enabled(LevelWarn) {
		l.log("WARN", msg, args...)
	}
}

// Error logs error messages
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log("ERROR", msg, args...)
}

// DebugWithFields logs debug message with structured fields
func (l *Logger) DebugWithFields(msg string, fields []Field, args ...interface{}) {
	if l.enabled(LevelDebug) {
		l.logWithFields("DEBUG", msg, fields, args...)
	}
}

// WarnWithFields logs warning message with structured fields
func (l *Logger) WarnWithFields(msg string, fields []Field, args ...interface{}) {
	if l.enabled(LevelWarn) {
		l.logWithFields("WARN", msg, fields, args...)
	}
}

// log formats and writes log message
func (l *Logger) log(level, msg string, args ...interface{}) {
	l.logWithFields(level, msg, nil, args...)
}

// logWithFields formats and writes log message with structured fields
func (l *Logger) logWithFields(level, msg string, fields []Field, args ...interface{}) {
	timestamp := time.Now().Format("15:04:05.000")
	component := l.component
	if component == "" {
		component = "main"
	}

	formattedMsg := fmt.Sprintf(msg, args...)

	fieldStrings := make([]string, 0, len(fields))
	for _, field := range fields {
		fieldStrings = append(fieldStrings, fmt.Sprintf("%s=%v", field.Key, field.Value))
	}

	var fieldsStr string
	if len(fieldStrings) > 0 {
		fieldsStr = fmt.Sprintf(" [%s]", strings.Join(fieldStrings, " "))
	}

	logLine := fmt.Sprintf("[%s] %s [%s] %s%s\n", timestamp, level, component, formattedMsg, fieldsStr)

	if _, err := fmt.Fprint(l.writer, logLine); err != nil {
		// Log write failed, but we can't do much about it
		// since this is the logger itself
		_ = err
	}
}

// Helper functions for common field types
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

func Count(value int) Field {
	return Field{Key: "count", Value: value}
}

func Duration(d time.Duration) Field {
	return Field{Key: "duration", Value: d}
}

func Error(err error) Field {
	return Field{Key: "error", Value: err}
}
