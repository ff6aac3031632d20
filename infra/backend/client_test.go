package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/energyflow/core/model"
)

func newMockBackend(t *testing.T) (*MockServer, *Client) {
	t.Helper()
	mock := NewMockServer("127.0.0.1:0", prometheus.NewRegistry())
	mock.SetClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) })
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	return mock, c
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Options{})
	assert.Error(t, err)
	_, err = NewClient(Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)
	c, err := NewClient(Options{BaseURL: "http://backend:8083/"})
	require.NoError(t, err)
	assert.Equal(t, "http://backend:8083/api/inverter/history?interval=5m", c.URL(PathInverterHistory, intervalQuery("5m")))
}

func TestInverterSummary(t *testing.T) {
	_, c := newMockBackend(t)
	s, err := c.InverterSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Number(6000), s.PVPowerW)
	assert.Equal(t, model.Number(450), s.HousePowerW)
	assert.Equal(t, model.Number(11040), s.CarPowerW)
	assert.Equal(t, model.Number(2500), s.BatteryPowerW)
	assert.False(t, s.Time().IsZero())
}

func TestHistoryEndpoints(t *testing.T) {
	_, c := newMockBackend(t)
	ctx := context.Background()

	wb, err := c.WallboxHistory(ctx, "5m")
	require.NoError(t, err)
	assert.Len(t, wb.Series, 25)
	assert.Equal(t, "5m", wb.Interval)

	inv, err := c.InverterHistory(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, inv.Series)

	heat, err := c.HeatingHistory(ctx, "10m")
	require.NoError(t, err)
	assert.Len(t, heat.Series, 73)
}

func TestSummaryEndpoints(t *testing.T) {
	_, c := newMockBackend(t)
	ctx := context.Background()

	wb, err := c.WallboxStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11040.0, wb.CarPowerW())
	assert.Equal(t, "Laden", wb.CarStateLabel())

	h, err := c.HeatingSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.BurnerOn, h.BurnerStatus)
	assert.Equal(t, model.Number(72.5), h.BoilerTemp)
}

func TestTransportErrors(t *testing.T) {
	mock, c := newMockBackend(t)
	mock.SetFault(PathInverterSummary, http.StatusServiceUnavailable)
	_, err := c.InverterSummary(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Contains(t, err.Error(), "unexpected status code 503")

	// Other endpoints are unaffected.
	_, err = c.HeatingSummary(context.Background())
	assert.NoError(t, err)

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	dead, err := NewClient(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = dead.InverterSummary(context.Background())
	assert.True(t, errors.Is(err, ErrTransport))
}

func TestParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ppv":`))
	}))
	defer srv.Close()
	c, err := NewClient(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.InverterSummary(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.False(t, errors.Is(err, ErrTransport))
}

func TestCancelledContext(t *testing.T) {
	_, c := newMockBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.InverterSummary(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, errors.Is(err, ErrTransport))
}

func TestUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	c, err := NewClient(Options{BaseURL: srv.URL, UserAgent: "dashboard/1.0"})
	require.NoError(t, err)
	_, err = c.HeatingSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dashboard/1.0", got)
}

func TestSetWallbox(t *testing.T) {
	mock, c := newMockBackend(t)
	ctx := context.Background()

	res, err := c.SetWallbox(ctx, "amp", 20)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, MockTopicPrefix+"/amp/set", res.Topic)
	assert.Equal(t, 20.0, mock.Setting("amp"))

	res, err = c.SetWallbox(ctx, "amp", 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Error)

	_, err = c.SetWallbox(ctx, "foo", 1)
	assert.True(t, errors.Is(err, ErrRejected))
}

func TestSystemUpdate(t *testing.T) {
	mock, c := newMockBackend(t)
	res, err := c.SystemUpdate(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Results, 2)

	mock.SetUpdateFailure(true)
	res, err = c.SystemUpdate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))
	assert.Len(t, res.Failed(), 1)
}

func TestMockRejectsWrongMethod(t *testing.T) {
	mock := NewMockServer("", prometheus.NewRegistry())
	rr := httptest.NewRecorder()
	mock.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, PathInverterSummary, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
