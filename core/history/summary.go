// Package history summarises series returned by the backend history
// endpoints.
package history

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/energyflow/core/model"
)

// FieldSummary holds the statistics of one column.
type FieldSummary struct {
	Name   string  `json:"name" yaml:"name"`
	Unit   string  `json:"unit" yaml:"unit"`
	Count  int     `json:"count" yaml:"count"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	// EnergyWh is set for power columns and integrates the samples over time.
	EnergyWh *float64 `json:"energy_wh,omitempty" yaml:"energy_wh,omitempty"`
}

// Summary describes a whole series.
type Summary struct {
	From   time.Time      `json:"from" yaml:"from"`
	To     time.Time      `json:"to" yaml:"to"`
	Points int            `json:"points" yaml:"points"`
	Fields []FieldSummary `json:"fields" yaml:"fields"`
}

// Summarize computes per-column statistics. Samples are ordered by time
// before integrating.
func Summarize(t model.Table) Summary {
	n := len(t.Times)
	s := Summary{Points: n, Fields: make([]FieldSummary, 0, len(t.Columns))}
	if n == 0 {
		for _, c := range t.Columns {
			s.Fields = append(s.Fields, FieldSummary{Name: c.Name, Unit: c.Unit})
		}
		return s
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return t.Times[order[a]].Before(t.Times[order[b]]) })
	s.From, s.To = t.Times[order[0]], t.Times[order[n-1]]

	hours := make([]float64, n)
	for i, idx := range order {
		hours[i] = t.Times[idx].Sub(s.From).Hours()
	}

	for _, c := range t.Columns {
		values := make([]float64, 0, n)
		for _, idx := range order {
			if idx < len(c.Values) {
				values = append(values, c.Values[idx])
			}
		}
		s.Fields = append(s.Fields, summarizeColumn(c, values, hours))
	}
	return s
}

func summarizeColumn(c model.Column, values, hours []float64) FieldSummary {
	fs := FieldSummary{Name: c.Name, Unit: c.Unit, Count: len(values)}
	if len(values) == 0 {
		return fs
	}
	fs.Min = floats.Min(values)
	fs.Max = floats.Max(values)
	mean, std := stat.MeanStdDev(values, nil)
	fs.Mean = mean
	if !math.IsNaN(std) {
		fs.StdDev = std
	}
	if c.Unit == "W" && len(values) == len(hours) && len(values) > 1 {
		wh := integrate.Trapezoidal(hours, values)
		fs.EnergyWh = &wh
	}
	return fs
}

// Field returns the summary of the named column.
func (s Summary) Field(name string) (FieldSummary, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSummary{}, false
}
