package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWallboxStatusLabels(t *testing.T) {
	body := `{"amp":16,"frc":2,"car":"2","nrg":[230,231,229,0,7,7,7,0,0,0,0,4830,0,0,0,0]}`
	var w WallboxStatus
	require.NoError(t, json.Unmarshal([]byte(body), &w))
	assert.Equal(t, "Laden erzwingen", w.ForceStateLabel())
	assert.Equal(t, "Laden", w.CarStateLabel())
	assert.Equal(t, 4830.0, w.CarPowerW())

	w = WallboxStatus{Frc: 7, Car: 9}
	assert.Equal(t, "Unbekannt (7)", w.ForceStateLabel())
	assert.Equal(t, "Unbekannt (9)", w.CarStateLabel())
	assert.Zero(t, w.CarPowerW())
}

func TestValidateWallboxSetting(t *testing.T) {
	assert.NoError(t, ValidateWallboxSetting("amp", 16))
	assert.NoError(t, ValidateWallboxSetting("dwo", 12000))
	assert.Error(t, ValidateWallboxSetting("amp", 40))
	assert.Error(t, ValidateWallboxSetting("frc", -1))
	assert.Error(t, ValidateWallboxSetting("amp", math.NaN()))
	assert.Error(t, ValidateWallboxSetting("dwo", math.Inf(1)))
	assert.Error(t, ValidateWallboxSetting("dwo", 1e30))
	assert.NoError(t, ValidateWallboxSetting("dwo", 1<<53))
	err := ValidateWallboxSetting("foo", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alw, amp, dwo, frc, psm")
}

func TestBurnerStatusDecode(t *testing.T) {
	cases := map[string]BurnerStatus{
		`"on"`:  BurnerOn,
		`"OFF"`: BurnerOff,
		`true`:  BurnerOn,
		`0`:     BurnerOff,
		`1`:     BurnerOn,
	}
	for in, want := range cases {
		var b BurnerStatus
		require.NoError(t, json.Unmarshal([]byte(in), &b), in)
		assert.Equal(t, want, b, in)
	}
}

func TestInverterHistoryTable(t *testing.T) {
	body := `{"series":[{"t":"2025-03-01T10:00:00.000Z","ppv":1000,"house":400,"battery_soc":50},
	{"t":"2025-03-01T10:05:00.000Z","ppv":"2000","house":500,"battery_soc":51}],"interval":"5m"}`
	var h InverterHistory
	require.NoError(t, json.Unmarshal([]byte(body), &h))
	tbl := h.Table()
	require.Len(t, tbl.Times, 2)
	require.Len(t, tbl.Columns, 3)
	assert.Equal(t, "ppv", tbl.Columns[0].Name)
	assert.Equal(t, []float64{1000, 2000}, tbl.Columns[0].Values)
}
