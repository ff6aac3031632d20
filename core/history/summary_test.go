package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/energyflow/core/model"
)

func TestSummarizeInverter(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	h := model.InverterHistory{Series: []model.InverterSample{
		{T: start.Add(time.Hour), PV: 1000, House: 1200, BatterySoC: 60},
		{T: start, PV: 1000, House: 0, BatterySoC: 50},
		{T: start.Add(30 * time.Minute), PV: 1000, House: 600, BatterySoC: 55},
	}}
	s := Summarize(h.Table())
	assert.Equal(t, 3, s.Points)
	assert.Equal(t, start, s.From)
	assert.Equal(t, start.Add(time.Hour), s.To)

	pv, ok := s.Field("ppv")
	require.True(t, ok)
	assert.Equal(t, 1000.0, pv.Mean)
	assert.Zero(t, pv.StdDev)
	require.NotNil(t, pv.EnergyWh)
	assert.InDelta(t, 1000, *pv.EnergyWh, 1e-9)

	house, _ := s.Field("house")
	assert.Equal(t, 0.0, house.Min)
	assert.Equal(t, 1200.0, house.Max)
	assert.InDelta(t, 600, house.Mean, 1e-9)
	assert.InDelta(t, 600, house.StdDev, 1e-9)
	require.NotNil(t, house.EnergyWh)
	assert.InDelta(t, 600, *house.EnergyWh, 1e-9)

	soc, _ := s.Field("battery_soc")
	assert.Nil(t, soc.EnergyWh, "percent columns are not integrated")
}

func TestSummarizeSingleAndEmpty(t *testing.T) {
	one := model.WallboxHistory{Series: []model.WallboxSample{{T: time.Now(), Amp: 16, CurrentEnergy: 1200}}}
	s := Summarize(one.Table())
	amp, _ := s.Field("amp")
	assert.Equal(t, 1, amp.Count)
	assert.Equal(t, 16.0, amp.Mean)
	assert.Zero(t, amp.StdDev)

	empty := Summarize(model.HeatingHistory{}.Table())
	assert.Zero(t, empty.Points)
	assert.Len(t, empty.Fields, 6)
}
