package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

var (
	currentLevel LogLevel
	base         zerolog.Logger
	levelOnce    sync.Once
)

func toZerolog(l LogLevel) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// initLevel initializes the log level and the underlying zerolog logger from
// environment variables.
func initLevel() {
	levelOnce.Do(func() {
		// Check DEBUG environment variable first
		debugSet := false
		if debug := os.Getenv("DEBUG"); debug != "" {
			switch strings.ToLower(debug) {
			case "1", "true", "yes", "on":
				currentLevel = LevelDebug
				debugSet = true
			}
		}

		if !debugSet {
			// Check LOG_LEVEL environment variable
			switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
			case "debug":
				currentLevel = LevelDebug
			case "info":
				currentLevel = LevelInfo
			case "warn", "warning":
				currentLevel = LevelWarn
			case "error":
				currentLevel = LevelError
			default:
				// Default to Info level (no debug logs)
				currentLevel = LevelInfo
			}
		}

		zerolog.TimeFieldFormat = time.RFC3339
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		base = zerolog.New(output).With().Timestamp().Logger().Level(toZerolog(currentLevel))
	})
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	initLevel()
	return currentLevel
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

// Logger returns the underlying zerolog logger for callers that want to
// attach structured fields (session id, mode, outcome) to a log line.
func Logger() zerolog.Logger {
	initLevel()
	return base
}

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug)
func Debug(format string, args ...interface{}) {
	initLevel()
	base.Debug().Msg(fmt.Sprintf(format, args...))
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	initLevel()
	base.Info().Msg(fmt.Sprintf(format, args...))
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	initLevel()
	base.Warn().Msg(fmt.Sprintf(format, args...))
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	initLevel()
	base.Error().Msg(fmt.Sprintf(format, args...))
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	initLevel()
	base.Fatal().Msg(fmt.Sprintf(format, args...))
}

// Printf is a pass-through for messages that should always print regardless
// of the configured level.
func Printf(format string, args ...interface{}) {
	initLevel()
	base.Log().Msg(fmt.Sprintf(format, args...))
}

// Println is a pass-through for messages that should always print.
func Println(args ...interface{}) {
	initLevel()
	base.Log().Msg(fmt.Sprint(args...))
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}
