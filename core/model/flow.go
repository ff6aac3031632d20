package model

import "time"

// Node identifies a conceptual energy node of the flow graph.
type Node string

const (
	NodePV       Node = "pv"
	NodeInverter Node = "inverter"
	NodeHouse    Node = "house"
	NodeGrid     Node = "grid"
	NodeBattery  Node = "battery"
	NodeCar      Node = "car"
)

// GridDirection is the exchange state with the public grid.
type GridDirection string

const (
	GridExport GridDirection = "export"
	GridImport GridDirection = "import"
	GridIdle   GridDirection = "idle"
)

// FlowState holds the directional flow values derived from a Snapshot.
// GridW is positive when exporting and negative when importing.
// BatteryChargeW and BatteryDischargeW are never both non-zero.
type FlowState struct {
	ProductionW       float64 `json:"production_w" yaml:"production_w"`
	ConsumptionW      float64 `json:"consumption_w" yaml:"consumption_w"`
	GridW             float64 `json:"grid_w" yaml:"grid_w"`
	BatterySoCPct     float64 `json:"battery_soc_pct" yaml:"battery_soc_pct"`
	BatteryChargeW    float64 `json:"battery_charge_w" yaml:"battery_charge_w"`
	BatteryDischargeW float64 `json:"battery_discharge_w" yaml:"battery_discharge_w"`
	CarW              float64 `json:"car_w" yaml:"car_w"`
}

// GridDirection reports the exact sign of GridW: export, import or idle.
func (s FlowState) GridDirection() GridDirection { return s.DirectionWithin(0) }

// DirectionWithin is GridDirection with a dead band: a grid exchange of at
// most epsilonW watts in either direction is idle.
func (s FlowState) DirectionWithin(epsilonW float64) GridDirection {
	switch {
	case s.GridW > epsilonW:
		return GridExport
	case s.GridW < -epsilonW:
		return GridImport
	default:
		return GridIdle
	}
}

// FlowEdge is a directional, weighted link between two nodes.
type FlowEdge struct {
	From   Node    `json:"from" yaml:"from"`
	To     Node    `json:"to" yaml:"to"`
	Active bool    `json:"active" yaml:"active"`
	Weight float64 `json:"weight" yaml:"weight"`
	PowerW float64 `json:"power_w" yaml:"power_w"`
	Label  string  `json:"label" yaml:"label"`
}

// NodeView carries the display text of a node.
type NodeView struct {
	Node Node   `json:"node" yaml:"node"`
	Text string `json:"text" yaml:"text"`
}

// FlowView is the presentation model of one tick. Direction is the displayed
// grid state and equals State.DirectionWithin of the presenter's epsilon.
type FlowView struct {
	HasData      bool          `json:"has_data" yaml:"has_data"`
	Stale        bool          `json:"stale" yaml:"stale"`
	Error        string        `json:"error,omitempty" yaml:"error,omitempty"`
	Direction    GridDirection `json:"grid_direction" yaml:"grid_direction"`
	State        FlowState     `json:"state" yaml:"state"`
	Edges        []FlowEdge    `json:"edges" yaml:"edges"`
	Nodes        []NodeView    `json:"nodes" yaml:"nodes"`
	SnapshotTime time.Time     `json:"snapshot_time,omitempty" yaml:"snapshot_time,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at" yaml:"updated_at"`
}

// Edge returns the edge between from and to.
func (v FlowView) Edge(from, to Node) (FlowEdge, bool) {
	for _, e := range v.Edges {
		if e.From == from && e.To == to {
			return e, true
		}
	}
	return FlowEdge{}, false
}

// NodeText returns the display text of n or an empty string.
func (v FlowView) NodeText(n Node) string {
	for _, nv := range v.Nodes {
		if nv.Node == n {
			return nv.Text
		}
	}
	return ""
}
