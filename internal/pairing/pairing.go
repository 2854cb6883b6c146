// Package pairing implements the clock-pairing estimator: for one
// ordered (base, peer) receiver pair it tracks relative frequency
// drift and a piecewise-linear offset mapping from continuously
// ingested synchronized observations.
//
// The data structure and its invariants are grounded on the teacher's
// internal/servo package (a fixed-size ring plus a PI control loop
// driving a single scalar correction), generalized from "discipline
// one local clock against one reference" to "track the relationship
// between two independent receiver clocks without stepping either."
package pairing

import (
	"fmt"

	"github.com/mode-s/clocksync/internal/airspace"
)

// ringCap is the bounded history ring's fixed capacity.
const ringCap = 32

// pruneFloor is how far pruneOldData trims the ring down to
// (ringCap - 12) when pruning is triggered.
const pruneFloor = ringCap - 12

const (
	maxRingAgeSeconds    = 45.0 // hard age bound enforced during pruning
	eagerPruneAgeSeconds = 50.0 // trigger threshold for eager pruning in Update

	// smoothingWeightFast/Slow are the sync-point smoothing blend
	// factors from spec.md §4.3 and §9. The 0.38 literal is empirically
	// chosen and explicitly documented as "not 0.5 (observed
	// unstable)" — preserved verbatim rather than re-derived.
	smoothingWeightFast = 0.38
	smoothingWeightSlow = 0.15
	smoothingDriftN     = 12

	outlierDecayPerUpdate = 18
	outlierCrossedAxes    = 10 // credited once for a monotonicity-crossing sample
	outlierBelowThreshold = 8
	outlierAboveThreshold = 20
	outlierResetScore     = 77
	outlierBadSyncsGate   = 0.01

	driftOutlierResetLimit = 30
	driftKP                = 0.03
	driftKI                = 0.008
	driftNStable           = 12
	driftKPBoostRatio      = 0.3 / driftKP

	cumulativeErrorClamp = 5e-5

	validityVarianceThreshold = 1.6e-11
	validityMinN              = 4
	validityMinDriftN         = 4
	validityFreshnessSeconds  = 35.0

	undefinedStat = -1e-6

	// resetCooldownInitial/Forced are the outlier_reset_cooldown
	// values set on construction and after a forced reset
	// respectively.
	resetCooldownInitial = 5
	resetCooldownForced  = 15

	// updateTotalSentinel keeps outlier_total/update_total's ratio
	// always defined; see spec.md §9.
	updateTotalSentinel = 1e-3
)

// Pairing is the mutable per-(base,peer,category) estimator state.
// All mutation funnels through Update and ResetOffsets; reads go
// through PredictPeer, PredictBase and CheckValid.
type Pairing struct {
	Base     airspace.Receiver
	Peer     airspace.Receiver
	Category int

	baseFreq, peerFreq          float64
	relativeFreq, iRelativeFreq float64

	// bounded history ring
	tsBase    [ringCap]float64
	tsPeer    [ringCap]float64
	sampleVar [ringCap]float64
	varSum    float64
	n         int

	// drift control loop
	rawDrift, drift, iDrift float64
	driftN                  int
	driftOutliers           int
	driftMax, driftMaxDelta float64
	cumulativeError         float64

	// outlier / validity accounting
	outliers                  int
	outlierResetCooldown      int
	outlierThreshold          float64
	outlierTotal, updateTotal float64
	jumped                    bool
	valid                     bool
	updated, updateAttempted  float64
	variance, errorStat       float64
}

// New constructs a ClockPairing between base and peer, tagged with an
// opaque category the surrounding system uses to index pairings. The
// ring starts empty and the pairing starts invalid.
func New(base, peer airspace.Receiver, category int) *Pairing {
	baseClock := base.Clock()
	peerClock := peer.Clock()
	relativeFreq := peerClock.Freq / baseClock.Freq

	p := &Pairing{
		Base:          base,
		Peer:          peer,
		Category:      category,
		baseFreq:      baseClock.Freq,
		peerFreq:      peerClock.Freq,
		relativeFreq:  relativeFreq,
		iRelativeFreq: 1.0 / relativeFreq,

		driftMax:             0.75 * (baseClock.MaxFreqError + peerClock.MaxFreqError),
		outlierResetCooldown: resetCooldownInitial,
		outlierThreshold:     0.9e-6,
		updateTotal:          updateTotalSentinel,
		errorStat:            undefinedStat,
		variance:             undefinedStat,
	}
	p.driftMaxDelta = p.driftMax / 10
	return p
}

// String renders the pairing the way spec.md §6 requires for log
// lines: "{base.user}:{peer.user}".
func (p *Pairing) String() string {
	return fmt.Sprintf("%s:%s", p.Base.User(), p.Peer.User())
}

// Valid reports whether the pairing may currently be used by
// downstream multilateration.
func (p *Pairing) Valid() bool { return p.valid }

// Updated returns the wall-clock time (caller-supplied "now" units) of
// the last successful Update.
func (p *Pairing) Updated() float64 { return p.updated }

// Variance returns var_sum/n, or the undefined sentinel.
func (p *Pairing) Variance() float64 { return p.variance }

// Error returns sqrt(Variance), or the undefined sentinel.
func (p *Pairing) Error() float64 { return p.errorStat }

// Drift returns the current drift estimate used for predictions.
func (p *Pairing) Drift() float64 { return p.drift }

// RawDrift returns the unintegrated (proportional-only) drift term.
func (p *Pairing) RawDrift() float64 { return p.rawDrift }

// IDrift returns the inverse-direction drift used by PredictBase.
func (p *Pairing) IDrift() float64 { return p.iDrift }

// DriftN returns the number of drift samples integrated so far.
func (p *Pairing) DriftN() int { return p.driftN }

// N returns the current ring occupancy.
func (p *Pairing) N() int { return p.n }

// Outliers returns the current outlier score.
func (p *Pairing) Outliers() int { return p.outliers }

// OutlierResetCooldown returns the countdown remaining before the
// pairing may again be declared valid after a reset.
func (p *Pairing) OutlierResetCooldown() int { return p.outlierResetCooldown }

// OutlierTotal returns the running count of samples classified as
// outliers (halved periodically during pruning).
func (p *Pairing) OutlierTotal() float64 { return p.outlierTotal }

// UpdateTotal returns the running count of attempted updates (halved
// periodically during pruning; starts at updateTotalSentinel so the
// outlier-percentage ratio is always defined).
func (p *Pairing) UpdateTotal() float64 { return p.updateTotal }

// Jumped reports whether a reset has ever been caused by a very large
// step on this pairing.
func (p *Pairing) Jumped() bool { return p.jumped }

// OutlierPercent is a diagnostic convenience: outlier_total /
// update_total, always well-defined thanks to updateTotalSentinel.
func (p *Pairing) OutlierPercent() float64 {
	return p.outlierTotal / p.updateTotal
}

// DriftMax returns the magnitude clamp applied to drift estimates.
func (p *Pairing) DriftMax() float64 { return p.driftMax }
