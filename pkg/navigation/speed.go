package navigation

// SpeedMonitor raises and clears the speed-limit-exceeded condition from a
// single speed sample. Stateless per tick; the caller owns the hysteresis bit
// and edge-triggers any alert on the false-to-true transition.
type SpeedMonitor struct{}

// Evaluate returns the new warning state. warningActive is the caller's current
// bit; it participates in the signature so callers can thread hysteresis state
// through without owning the comparison.
func (SpeedMonitor) Evaluate(currentSpeed, threshold float64, warningActive bool) bool {
	return currentSpeed > threshold
}
