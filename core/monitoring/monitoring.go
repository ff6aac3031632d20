// Package monitoring routes errors and panics to the configured error
// reporting backend.
package monitoring

import (
	"fmt"
	"sync"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	CapturePanic(v any, tags map[string]string)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) CapturePanic(any, map[string]string)       {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation. A nil monitor restores the
// no-op monitor.
func Init(m Monitor) {
	if m == nil {
		m = NopMonitor{}
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	get().CaptureException(err, tags)
}

// Recover reports a panic of the calling goroutine and re-panics.
// It must be deferred directly: defer monitoring.Recover("poller").
func Recover(component string) {
	if r := recover(); r != nil {
		m := get()
		m.CapturePanic(r, map[string]string{"component": component})
		m.Flush(2 * time.Second)
		panic(r)
	}
}

// Guard reports a panic of the calling goroutine and hands it to onPanic as
// an error instead of re-panicking. Like Recover it must be deferred directly.
func Guard(component string, onPanic func(error)) {
	if r := recover(); r != nil {
		get().CapturePanic(r, map[string]string{"component": component})
		if onPanic != nil {
			onPanic(PanicError(r))
		}
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	get().Flush(d)
}

// PanicError converts a recovered value into an error.
func PanicError(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", v)
}
