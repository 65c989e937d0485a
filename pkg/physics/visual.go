package physics

import "math"

// Helpers for the decorative visualizations. They run from slider
// parameters or published snapshots, never from inside the solver.

// FlowIntensity maps a branch current to a particle-animation speed in
// [0, 1]. refCurrent is the current at which the animation saturates.
func FlowIntensity(current, refCurrent float64) float64 {
	if refCurrent <= 0 {
		return 0
	}
	v := math.Abs(current) / refCurrent
	if v > 1 {
		return 1
	}
	return v
}

// TransformerSecondary returns the ideal-transformer secondary voltage and
// current for a primary (vp, ip) and a turns ratio ns/np.
func TransformerSecondary(vp, ip float64, np, ns int) (vs, is float64) {
	if np <= 0 || ns <= 0 {
		return 0, 0
	}
	ratio := float64(ns) / float64(np)
	return vp * ratio, ip / ratio
}

// MotorRPM is the steady-state speed of the ideal DC motor visualization:
// proportional to applied voltage, clamped to 1.5x the rated speed the way
// the rotor animation limits itself.
func MotorRPM(volts, ratedVolts, ratedRPM float64) float64 {
	if ratedVolts <= 0 {
		return 0
	}
	rpm := ratedRPM * volts / ratedVolts
	limit := 1.5 * ratedRPM
	if rpm > limit {
		return limit
	}
	if rpm < -limit {
		return -limit
	}
	return rpm
}
