// Package ports defines the interfaces between the encoder core and the
// outside world: the AV1 engine, logging and file access.
package ports

import "fmt"

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LevelDebug is for per-pass and per-control details from the
	// encoder core and engine adapters.
	LevelDebug LogLevel = iota
	// LevelInfo is for command-level progress.
	LevelInfo
	// LevelWarn is for problems that do not stop a command.
	LevelWarn
	// LevelError is for failures.
	LevelError
	// LevelQuiet suppresses all log output.
	LevelQuiet
)

var levelNames = [...]string{"debug", "info", "warn", "error", "quiet"}

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLogLevel parses a level name. The empty string means info.
func ParseLogLevel(s string) (LogLevel, error) {
	if s == "" {
		return LevelInfo, nil
	}
	for i, name := range levelNames {
		if s == name {
			return LogLevel(i), nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger abstracts logging operations with multi-language support.
// Messages are lexicon keys in fmt syntax and are translated before output.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that prefixes messages with the
	// component name.
	WithComponent(component string) Logger
}

// Discard is a Logger that drops every message. Components given a nil
// logger use it.
var Discard Logger = discard{}

type discard struct{}

func (discard) Debug(msg string, args ...interface{}) {}
func (discard) Info(msg string, args ...interface{})  {}
func (discard) Warn(msg string, args ...interface{})  {}
func (discard) Error(msg string, args ...interface{}) {}

func (d discard) WithComponent(component string) Logger { return d }
