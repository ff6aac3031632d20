package model

import "time"

// Column is one named numeric series of a Table.
type Column struct {
	Name   string    `json:"name"`
	Unit   string    `json:"unit"`
	Values []float64 `json:"values"`
}

// Table is a column-oriented view over a history series. All columns have
// the same length as Times.
type Table struct {
	Times   []time.Time `json:"times"`
	Columns []Column    `json:"columns"`
}

// Tabular is implemented by every history payload.
type Tabular interface {
	Table() Table
}

// InverterSample is one point of the inverter history.
type InverterSample struct {
	T          time.Time `json:"t"`
	PV         Number    `json:"ppv"`
	House      Number    `json:"house"`
	BatterySoC Number    `json:"battery_soc"`
}

// InverterHistory mirrors the inverter history endpoint.
type InverterHistory struct {
	Series   []InverterSample `json:"series"`
	Interval string           `json:"interval"`
}

// Table implements Tabular.
func (h InverterHistory) Table() Table {
	n := len(h.Series)
	t := Table{Times: make([]time.Time, n)}
	pv, house, soc := make([]float64, n), make([]float64, n), make([]float64, n)
	for i, s := range h.Series {
		t.Times[i] = s.T
		pv[i], house[i], soc[i] = s.PV.Float(), s.House.Float(), s.BatterySoC.Float()
	}
	t.Columns = []Column{
		{Name: "ppv", Unit: "W", Values: pv},
		{Name: "house", Unit: "W", Values: house},
		{Name: "battery_soc", Unit: "%", Values: soc},
	}
	return t
}

// WallboxSample is one point of the wallbox history.
type WallboxSample struct {
	T             time.Time `json:"t"`
	Amp           Number    `json:"amp"`
	CurrentEnergy Number    `json:"currentEnergy"`
}

// WallboxHistory mirrors the wallbox history endpoint.
type WallboxHistory struct {
	Series   []WallboxSample `json:"series"`
	Interval string          `json:"interval"`
}

// Table implements Tabular.
func (h WallboxHistory) Table() Table {
	n := len(h.Series)
	t := Table{Times: make([]time.Time, n)}
	amp, energy := make([]float64, n), make([]float64, n)
	for i, s := range h.Series {
		t.Times[i] = s.T
		amp[i], energy[i] = s.Amp.Float(), s.CurrentEnergy.Float()
	}
	t.Columns = []Column{
		{Name: "amp", Unit: "A", Values: amp},
		{Name: "currentEnergy", Unit: "Wh", Values: energy},
	}
	return t
}

// HeatingSample is one point of the heating history.
type HeatingSample struct {
	T            time.Time `json:"t"`
	BoilerTemp   Number    `json:"boiler_temp"`
	BufferTop    Number    `json:"buffer_top"`
	BufferBottom Number    `json:"buffer_bottom"`
	ReturnTemp   Number    `json:"return_temp"`
	OutsideTemp  Number    `json:"outside_temp"`
	FeedRate     Number    `json:"feed_rate"`
}

// HeatingHistory mirrors the heating history endpoint.
type HeatingHistory struct {
	Series   []HeatingSample `json:"series"`
	Interval string          `json:"interval"`
}

// Table implements Tabular.
func (h HeatingHistory) Table() Table {
	n := len(h.Series)
	t := Table{Times: make([]time.Time, n)}
	cols := []Column{
		{Name: "boiler_temp", Unit: "°C", Values: make([]float64, n)},
		{Name: "buffer_top", Unit: "°C", Values: make([]float64, n)},
		{Name: "buffer_bottom", Unit: "°C", Values: make([]float64, n)},
		{Name: "return_temp", Unit: "°C", Values: make([]float64, n)},
		{Name: "outside_temp", Unit: "°C", Values: make([]float64, n)},
		{Name: "feed_rate", Unit: "%", Values: make([]float64, n)},
	}
	for i, s := range h.Series {
		t.Times[i] = s.T
		cols[0].Values[i] = s.BoilerTemp.Float()
		cols[1].Values[i] = s.BufferTop.Float()
		cols[2].Values[i] = s.BufferBottom.Float()
		cols[3].Values[i] = s.ReturnTemp.Float()
		cols[4].Values[i] = s.OutsideTemp.Float()
		cols[5].Values[i] = s.FeedRate.Float()
	}
	t.Columns = cols
	return t
}
