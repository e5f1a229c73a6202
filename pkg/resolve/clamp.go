package resolve

// clampAxis keeps a coordinate inside [-limit+half, limit-half] so the full
// extent (v ± half) stays within the envelope. When the object is wider
// than the envelope (half > limit) the valid range would invert; the
// coordinate is forced to the center instead and oversized is reported.
func clampAxis(v, half, limit float64) (clamped float64, oversized bool) {
	if half > limit {
		return 0, true
	}
	lo, hi := -limit+half, limit-half
	if v < lo {
		return lo, false
	}
	if v > hi {
		return hi, false
	}
	return v, false
}
