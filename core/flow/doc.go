// Package flow turns inverter snapshots into the power-flow presentation
// model: Derive computes directional flow values, Scaler maps watts to a
// bounded visual weight and Presenter builds the labelled edge list for the
// canonical nodes PV, Inverter, House, Grid, Battery and Car.
//
// Battery power is signed: negative while charging, positive while
// discharging. The grid balance always uses the four-node formula
//
//	grid = production - consumption - charge + discharge - car
//
// which reduces to production - consumption when neither battery nor car
// draw power. A positive grid value is an export, a negative one an import.
package flow
