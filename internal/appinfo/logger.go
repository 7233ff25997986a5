package appinfo

import "log"

// Logger is a simple interface used for logging inside the session pump.
// Drain errors are transient and never propagate to callers, so the pump
// reports them here instead.
type Logger interface {
	Log(f string, v ...interface{})
	IsDebug() bool
}

// NewLogger returns a Logger that writes using the built-in logger.
func NewLogger(isDebug bool) Logger {
	return standardLogger{isDebug}
}

type standardLogger struct {
	isDebug bool
}

func (l standardLogger) Log(f string, v ...interface{}) {
	log.Printf(f, v...)
}

func (l standardLogger) IsDebug() bool {
	return l.isDebug
}

// NopLogger discards all messages.
var NopLogger Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Log(string, ...interface{}) {}
func (nopLogger) IsDebug() bool              { return false }
