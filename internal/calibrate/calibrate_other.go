//go:build !linux

package calibrate

// granularityNs has no portable equivalent off Linux; HostJitter falls
// back to defaultJitter.
func granularityNs() int64 {
	return 0
}
