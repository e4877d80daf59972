// Package logging configures the shared logrus logger used by every hyprtune
// package.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	base *logrus.Logger
	once sync.Once
)

// Logger returns the process-wide logger, creating it on first use.
// The initial level comes from HYPRTUNE_LOG_LEVEL and defaults to warn.
func Logger() *logrus.Logger {
	once.Do(func() {
		base = logrus.New()
		base.SetOutput(os.Stderr)
		base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
		base.SetLevel(ParseLevel(os.Getenv("HYPRTUNE_LOG_LEVEL")))
	})
	return base
}

// For returns an entry tagged with the given component name.
func For(component string) *logrus.Entry {
	return Logger().WithField("component", component)
}

// SetLevel changes the level of the shared logger.
func SetLevel(level string) {
	Logger().SetLevel(ParseLevel(level))
}

// SetOutput redirects the shared logger.
func SetOutput(w io.Writer) {
	Logger().SetOutput(w)
}

// ParseLevel maps a level name to a logrus level. Unknown names map to warn.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "error":
		return logrus.ErrorLevel
	case "warn", "warning":
		return logrus.WarnLevel
	default:
		return logrus.WarnLevel
	}
}
