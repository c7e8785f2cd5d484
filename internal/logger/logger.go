package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05.000"

var logLevelNames = map[LogLevel]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

var logrusLevels = map[LogLevel]logrus.Level{
	LevelDebug: logrus.DebugLevel,
	LevelInfo:  logrus.InfoLevel,
	LevelWarn:  logrus.WarnLevel,
	LevelError: logrus.ErrorLevel,
}

// New returns a Logger writing text entries to out.
func New(level LogLevel, out io.Writer) *Logger {
	return &Logger{MinLevel: level, base: newBase(out)}
}

func newBase(out io.Writer) *logrus.Logger {
	base := logrus.New()
	base.SetOutput(out)
	// Filtering happens against MinLevel, logrus only formats.
	base.SetLevel(logrus.DebugLevel)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
		DisableQuote:    true,
	})
	return base
}

// ParseLevel maps a level name to a LogLevel, defaulting to LevelInfo.
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (lvl LogLevel) String() string {
	if name, ok := logLevelNames[lvl]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(lvl))
}

// SetLogLevel sets the minimum log level
func (l *Logger) SetLogLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.MinLevel = level
}

func (l *Logger) log(level LogLevel, component, message string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.MinLevel {
		return
	}
	if l.base == nil {
		l.base = newBase(os.Stderr)
	}

	entry := logrus.NewEntry(l.base)
	if component != "" {
		entry = entry.WithField("component", component)
	}
	entry.Log(logrusLevels[level], fmt.Sprintf(message, args...))
}

// Debug logs a debug message
func (l *Logger) Debug(component, message string, args ...interface{}) {
	l.log(LevelDebug, component, message, args...)
}

// Info logs an info message
func (l *Logger) Info(component, message string, args ...interface{}) {
	l.log(LevelInfo, component, message, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(component, message string, args ...interface{}) {
	l.log(LevelWarn, component, message, args...)
}

// Error logs an error message
func (l *Logger) Error(component, message string, args ...interface{}) {
	l.log(LevelError, component, message, args...)
}

// Fatal logs an error message and exits
func (l *Logger) Fatal(component, message string, args ...interface{}) {
	l.log(LevelError, component, message, args...)
	os.Exit(1)
}
