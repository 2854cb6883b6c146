package pairing

import "math"

// ResetOffsets clears the offset ring and validity, keeping drift
// state untouched. Idempotent.
func (p *Pairing) ResetOffsets() {
	p.n = 0
	p.varSum = 0
	p.valid = false
}

// CheckValid recomputes variance, error and valid from current state.
// With fewer than 2 samples or fewer than 2 integrated drift samples,
// variance/error are forced back to the "undefined" sentinel and
// valid is forced false.
func (p *Pairing) CheckValid(now float64) bool {
	if p.n < 2 || p.driftN < 2 {
		p.variance = undefinedStat
		p.errorStat = undefinedStat
		p.valid = false
		return false
	}

	p.variance = p.varSum / float64(p.n)
	p.errorStat = math.Sqrt(p.variance)

	p.valid = p.outlierResetCooldown < 1 &&
		p.n > validityMinN &&
		p.driftN > validityMinDriftN &&
		p.variance < validityVarianceThreshold &&
		(now-p.updated) < validityFreshnessSeconds

	return p.valid
}
