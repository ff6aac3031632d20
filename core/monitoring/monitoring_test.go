package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordMonitor struct {
	errs    []error
	panics  []any
	tags    map[string]string
	flushed time.Duration
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = tags
}

func (r *recordMonitor) CapturePanic(v any, tags map[string]string) {
	r.panics = append(r.panics, v)
	r.tags = tags
}

func (r *recordMonitor) Flush(d time.Duration) { r.flushed = d }

func TestCaptureExceptionUsesCurrentMonitor(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	defer Init(nil)

	CaptureException(nil, nil)
	CaptureException(errors.New("boom"), map[string]string{"source": "wallbox_status"})
	require.Len(t, mon.errs, 1)
	assert.Equal(t, "wallbox_status", mon.tags["source"])
}

func TestRecoverCapturesAndRepanics(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	defer Init(nil)

	assert.PanicsWithValue(t, "bad", func() {
		defer Recover("poller")
		panic("bad")
	})
	require.Len(t, mon.panics, 1)
	assert.Equal(t, "poller", mon.tags["component"])
	assert.Equal(t, 2*time.Second, mon.flushed)
}

func TestGuardConvertsPanic(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	defer Init(nil)

	var got error
	assert.NotPanics(t, func() {
		defer Guard("poller", func(err error) { got = err })
		panic(errors.New("nil map"))
	})
	require.Len(t, mon.panics, 1)
	assert.Equal(t, "poller", mon.tags["component"])
	assert.EqualError(t, got, "panic: nil map")

	assert.NotPanics(t, func() {
		defer Guard("poller", nil)
	})
	assert.Len(t, mon.panics, 1)
}

func TestPanicError(t *testing.T) {
	base := errors.New("inner")
	assert.ErrorIs(t, PanicError(base), base)
	assert.EqualError(t, PanicError(42), "panic: 42")
}
