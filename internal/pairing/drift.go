package pairing

import (
	"math"

	"github.com/mode-s/clocksync/internal/clocklog"
)

// updateDrift implements the PI drift control loop (spec.md §4.4).
// baseInterval/peerInterval are native-tick interval lengths between
// this sync event and the previous one seen for the same aircraft
// pair. It returns false when the sample was not used to update drift
// (either its magnitude or its delta from the running estimate was
// too large).
func (p *Pairing) updateDrift(baseInterval, peerInterval float64) bool {
	// Rescale before subtracting to avoid catastrophic cancellation:
	// this is a required behavior, not an optimization (spec.md §9).
	adjusted := baseInterval * p.relativeFreq
	newDrift := (peerInterval - adjusted) / adjusted

	if math.Abs(newDrift) > p.driftMax {
		return false
	}

	if p.driftN <= 0 || p.driftOutliers > driftOutlierResetLimit {
		p.rawDrift = newDrift
		p.drift = newDrift
		p.iDrift = -p.drift / (1 + p.drift)
		p.driftN = 0
		p.cumulativeError = 0
		p.driftOutliers = 0
	}

	if p.driftN <= 0 {
		p.driftN = 2
		return true
	}

	driftError := newDrift - p.rawDrift
	if math.Abs(driftError) > p.driftMaxDelta {
		p.driftOutliers++
		if p.Base.Focus() || p.Peer.Focus() {
			clocklog.Clocksync.DriftLimitWarning(p.String(), driftError*1e6)
		}
		return false
	}
	p.driftOutliers = max(0, p.driftOutliers-2)

	kp := driftKP
	if p.driftN < driftNStable {
		kp *= 1 + driftKPBoostRatio*(float64(driftNStable-p.driftN)/float64(driftNStable))
	}
	p.driftN++

	p.rawDrift += kp * driftError
	p.drift = p.rawDrift - driftKI*p.cumulativeError
	p.iDrift = -p.drift / (1 + p.drift)
	return true
}
