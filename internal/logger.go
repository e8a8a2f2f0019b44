package internal

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

var (
	logLevel = LogLevelInfo
	logger   = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "novel-session",
	})
)

func init() {
	logger.SetLevel(charmLevel(logLevel))
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	logLevel = level
	logger.SetLevel(charmLevel(level))
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LogLevelDebug)
	} else {
		SetLogLevel(LogLevelInfo)
	}
}

// SetLogOutput redirects log output, mostly for tests and the serve command
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}

func charmLevel(level LogLevel) log.Level {
	switch level {
	case LogLevelError:
		return log.ErrorLevel
	case LogLevelWarn:
		return log.WarnLevel
	case LogLevelDebug:
		return log.DebugLevel
	default:
		return log.InfoLevel
	}
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	logger.Error(fmt.Sprintf(format, args...))
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	logger.Warn(fmt.Sprintf(format, args...))
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	logger.Info(fmt.Sprintf(format, args...))
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...))
}

// LogWith logs a message with structured key/value pairs at info level
func LogWith(msg string, keyvals ...interface{}) {
	logger.Info(msg, keyvals...)
}
