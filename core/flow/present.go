package flow

import (
	"math"
	"time"

	"github.com/kilianp07/energyflow/core/model"
)

// DefaultEpsilonW is the magnitude at or below which an edge is inactive.
const DefaultEpsilonW = 0.5

// Presenter builds the FlowView of a FlowState.
type Presenter struct {
	scaler   Scaler
	epsilonW float64
	format   *Formatter
	now      func() time.Time
}

// NewPresenter returns a Presenter. A nil formatter uses DefaultLocale and a
// negative epsilon is replaced with DefaultEpsilonW.
func NewPresenter(scaler Scaler, epsilonW float64, format *Formatter) *Presenter {
	if format == nil {
		format, _ = NewFormatter(DefaultLocale)
	}
	if epsilonW < 0 || math.IsNaN(epsilonW) {
		epsilonW = DefaultEpsilonW
	}
	return &Presenter{scaler: scaler, epsilonW: epsilonW, format: format, now: time.Now}
}

// Present returns the edges and node texts for st. Edges are always emitted
// in the same order; inactive edges carry a zero weight.
func (p *Presenter) Present(st model.FlowState) model.FlowView {
	exportW := math.Max(0, st.GridW)
	importW := math.Max(0, -st.GridW)

	edges := []model.FlowEdge{
		p.edge(model.NodePV, model.NodeInverter, st.ProductionW),
		p.edge(model.NodeInverter, model.NodeHouse, st.ConsumptionW),
		p.edge(model.NodeInverter, model.NodeGrid, exportW),
		p.edge(model.NodeGrid, model.NodeInverter, importW),
		p.edge(model.NodeInverter, model.NodeBattery, st.BatteryChargeW),
		p.edge(model.NodeBattery, model.NodeInverter, st.BatteryDischargeW),
		p.edge(model.NodeInverter, model.NodeCar, st.CarW),
	}

	dir := st.DirectionWithin(p.epsilonW)
	var gridText string
	switch dir {
	case model.GridExport:
		gridText = "Export " + p.format.Watts(exportW)
	case model.GridImport:
		gridText = "Import " + p.format.Watts(importW)
	default:
		gridText = "—"
	}

	return model.FlowView{
		HasData:   true,
		Direction: dir,
		State:     st,
		Edges:     edges,
		Nodes: []model.NodeView{
			{Node: model.NodePV, Text: p.format.Watts(st.ProductionW)},
			{Node: model.NodeHouse, Text: p.format.Watts(st.ConsumptionW)},
			{Node: model.NodeGrid, Text: gridText},
			{Node: model.NodeBattery, Text: p.format.Percent(st.BatterySoCPct) + " SoC"},
			{Node: model.NodeCar, Text: p.format.Watts(st.CarW)},
		},
		UpdatedAt: p.now(),
	}
}

func (p *Presenter) edge(from, to model.Node, powerW float64) model.FlowEdge {
	e := model.FlowEdge{From: from, To: to, PowerW: powerW, Label: p.format.Watts(powerW)}
	if powerW > p.epsilonW {
		e.Active = true
		e.Weight = p.scaler.Scale(powerW)
	}
	return e
}
