package logger

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger provides structured logging with levels

type Logger struct {
	MinLevel LogLevel
	mu       sync.Mutex
	base     *logrus.Logger
}

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)
