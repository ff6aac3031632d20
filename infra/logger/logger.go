package logger

import corelogger "github.com/kilianp07/energyflow/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.NopLogger

// New returns a Logger for the given component using the output configured
// with Setup. Before Setup is called logs go to stdout, formatted for the
// console when APP_ENV=dev.
func New(component string) Logger {
	return NewZerologLogger(component)
}
