package resolve

import "math"

// Snap quantizes v to the nearest multiple of step. It is idempotent:
// snapping an already-snapped value is a no-op, including for negative
// coordinates. A non-positive step returns v unchanged.
//
// Snapping applies to positions only, never to rotations.
func Snap(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}
