// Package physics maps element kinds to DC resistance and solved (V, I, P)
// to the observable attributes the editor renders.
package physics

import (
	"math"

	"circuitsim/pkg/schematic"
)

// Limits are the resistor overload thresholds. Overload is a flag only; the
// solver never clamps.
type Limits struct {
	IMax float64
	VMax float64
	PMax float64
}

// Model holds the calibration constants of the component physics stage.
type Model struct {
	BulbRatedWatts float64
	// BulbResistance converts a bulb's rated watts to its fixed linear
	// resistance. The default max(1, w) keeps Ohm's law linear and the
	// brightness curve monotone: a 6 W bulb behaves as 6 ohm.
	BulbResistance func(watts float64) float64
	ResistorLimits Limits

	SwitchClosedResistance float64
	SwitchOpenResistance   float64
	CapacitorResistance    float64 // DC steady state: open
	InductorResistance     float64 // DC steady state: short
	BatteryInternal        float64
}

func DefaultModel() Model {
	return Model{
		BulbRatedWatts:         6,
		BulbResistance:         DefaultBulbResistance,
		ResistorLimits:         Limits{IMax: 0.1, VMax: 50, PMax: 0.25},
		SwitchClosedResistance: 1e-3,
		SwitchOpenResistance:   1e9,
		CapacitorResistance:    1e9,
		InductorResistance:     1e-3,
		BatteryInternal:        0,
	}
}

func DefaultBulbResistance(watts float64) float64 {
	return math.Max(1, watts)
}

// Resistance returns an element's DC resistance. Batteries contribute EMF,
// not resistance, beyond their small internal term.
func (m Model) Resistance(el *schematic.Element) float64 {
	switch el.Kind {
	case schematic.Resistor:
		return el.Value
	case schematic.Bulb:
		return m.BulbResistance(el.Value)
	case schematic.Switch:
		if el.Closed {
			return m.SwitchClosedResistance
		}
		return m.SwitchOpenResistance
	case schematic.Capacitor:
		return m.CapacitorResistance
	case schematic.Inductor:
		return m.InductorResistance
	case schematic.Battery:
		return m.BatteryInternal
	default:
		return 0
	}
}

// EMF returns an element's source contribution, positive from terminal 1
// to terminal 2. Only batteries contribute.
func (m Model) EMF(el *schematic.Element) float64 {
	if el.Kind == schematic.Battery {
		return el.Value
	}
	return 0
}

// Brightness maps bulb power to [0, 1], saturating at the rated watts.
func Brightness(power, ratedWatts float64) float64 {
	if ratedWatts <= 0 {
		return 0
	}
	b := math.Abs(power) / ratedWatts
	if b > 1 {
		return 1
	}
	return b
}

// Overloaded reports whether a resistor exceeds any of its limits.
func Overloaded(i, v, p float64, limits Limits) bool {
	return math.Abs(i) > limits.IMax || math.Abs(v) > limits.VMax || p > limits.PMax
}

// BoostVoltage is the editor's per-click battery increment hint: +6 V,
// capped at 50 V. The solver never applies it on its own.
func BoostVoltage(current float64) float64 {
	return math.Min(current+6, 50)
}
