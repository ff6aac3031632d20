package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/energyflow/core/model"
	"github.com/kilianp07/energyflow/infra/backend"
)

func mockConfig(t *testing.T) (*backend.MockServer, string) {
	t.Helper()
	mock := backend.NewMockServer("", prometheus.NewRegistry())
	mock.SetClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) })
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "backend:\n  base_url: " + srv.URL + "\nlogging:\n  level: error\nmetrics:\n  sinks:\n    - type: nop\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return mock, path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseSetting(t *testing.T) {
	v, err := parseSetting("amp", "16")
	require.NoError(t, err)
	assert.Equal(t, int64(16), v)

	_, err = parseSetting("amp", "40")
	assert.ErrorContains(t, err, "between 6 and 32")

	_, err = parseSetting("foo", "1")
	assert.ErrorContains(t, err, `key "foo" not allowed`)

	_, err = parseSetting("frc", "x")
	assert.ErrorContains(t, err, "not a number")

	for _, c := range []struct{ key, value, want string }{
		{"amp", "NaN", "finite"},
		{"dwo", "Inf", "finite"},
		{"dwo", "-Inf", "finite"},
		{"dwo", "1e30", "between 0 and"},
	} {
		v, err := parseSetting(c.key, c.value)
		assert.ErrorContains(t, err, c.want, "%s=%s", c.key, c.value)
		assert.Nil(t, v, "%s=%s", c.key, c.value)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	err := render(&bytes.Buffer{}, "xml", nil, nil)
	assert.ErrorContains(t, err, "unknown output format")
}

func TestFlowCommandJSON(t *testing.T) {
	_, path := mockConfig(t)
	out, err := execute(t, "flow", "-c", path, "-o", "json")
	require.NoError(t, err)

	var view model.FlowView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.True(t, view.HasData)
	assert.Equal(t, 6000.0, view.State.ProductionW)
	assert.Len(t, view.Edges, 7)
}

func TestFlowCommandTable(t *testing.T) {
	_, path := mockConfig(t)
	out, err := execute(t, "flow", "-c", path, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "FROM")
	assert.Contains(t, out, "6.000 W")
}

func TestFlowCommandYAMLMatchesJSONKeys(t *testing.T) {
	_, path := mockConfig(t)
	out, err := execute(t, "flow", "-c", path, "-o", "yaml")
	require.NoError(t, err)
	for _, key := range []string{"has_data: true", "grid_direction:", "production_w: 6000", "power_w:", "updated_at:"} {
		assert.Contains(t, out, key)
	}
	assert.NotContains(t, out, "hasdata")
	assert.NotContains(t, out, "productionw")
}

func TestHistoryCommandYAML(t *testing.T) {
	_, path := mockConfig(t)
	out, err := execute(t, "history", "inverter", "-c", path, "--interval", "1h", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "points:")
	assert.Contains(t, out, "name: ppv")
}

func TestHistoryCommandRejectsUnknownKind(t *testing.T) {
	_, path := mockConfig(t)
	_, err := execute(t, "history", "solar", "-c", path)
	assert.Error(t, err)
}

func TestWallboxSetCommand(t *testing.T) {
	mock, path := mockConfig(t)
	out, err := execute(t, "wallbox", "set", "amp", "10", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "amp = 10")
	assert.Equal(t, 10.0, mock.Setting("amp"))

	_, err = execute(t, "wallbox", "set", "xyz", "1", "-c", path)
	assert.Error(t, err)
}

func TestUpdateCommand(t *testing.T) {
	mock, path := mockConfig(t)
	out, err := execute(t, "update", "-c", path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "[ok] git pull"))

	mock.SetUpdateFailure(true)
	out, err = execute(t, "update", "-c", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, backend.ErrRejected))
	assert.Contains(t, out, "[FAILED] docker compose up --build -d")
}
