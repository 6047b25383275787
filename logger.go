package bitmap

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var loggerPtr atomic.Pointer[logrus.Logger]

func init() {
	loggerPtr.Store(newSilentLogger())
}

func newSilentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// SetLogger configures the logger used by the package and its backends.
// The package logs nothing until SetLogger is called; nil restores that.
//
// Levels used:
//   - Debug: per-render details (cache hits, texture uploads)
//   - Info: session lifecycle (created, disposed)
//   - Warn: swallowed per-request failures (decode, cache read/write)
//   - Error: graphics context failures that kill a session
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = newSilentLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger
func Logger() *logrus.Logger {
	return loggerPtr.Load()
}
