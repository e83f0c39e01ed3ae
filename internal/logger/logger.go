// Package logger provides leveled logging for the viewer: debug, info,
// warn, and error over the standard log package, with level filtering
// configured once at startup.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	// DebugLevel logs are voluminous (per-frame restyle details) and are
	// usually disabled outside development.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual
	// human review.
	WarnLevel
	// ErrorLevel logs are high-priority failures.
	ErrorLevel
)

var levelPrefix = map[Level]string{
	DebugLevel: "[DEBUG] ",
	InfoLevel:  "[INFO] ",
	WarnLevel:  "[WARN] ",
	ErrorLevel: "[ERROR] ",
}

var defaultLogger *Logger

// Logger provides leveled logging.
type Logger struct {
	level  Level
	logger *log.Logger
}

// Init initializes the default logger with the specified level and format.
// Unknown levels fall back to info; the "text" format adds caller locations.
func Init(level, format string) {
	flags := log.LstdFlags | log.Lmicroseconds
	if strings.EqualFold(format, "text") {
		flags |= log.Lshortfile
	}
	defaultLogger = &Logger{
		level:  parseLevel(level),
		logger: log.New(os.Stderr, "", flags),
	}
}

func parseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func output(l Level, format string, args ...interface{}) {
	if defaultLogger == nil || defaultLogger.level > l {
		return
	}
	_ = defaultLogger.logger.Output(3, fmt.Sprintf(levelPrefix[l]+format, args...))
}

// Debug logs a message at DebugLevel.
func Debug(format string, args ...interface{}) { output(DebugLevel, format, args...) }

// Info logs a message at InfoLevel.
func Info(format string, args ...interface{}) { output(InfoLevel, format, args...) }

// Warn logs a message at WarnLevel.
func Warn(format string, args ...interface{}) { output(WarnLevel, format, args...) }

// Error logs a message at ErrorLevel.
func Error(format string, args ...interface{}) { output(ErrorLevel, format, args...) }

// Fatal logs a message at ErrorLevel and exits.
func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf("[FATAL] "+format, args...)
	if defaultLogger != nil {
		_ = defaultLogger.logger.Output(2, msg)
	} else {
		log.Print(msg)
	}
	os.Exit(1)
}
