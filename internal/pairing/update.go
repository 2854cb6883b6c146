package pairing

import (
	"math"

	"github.com/mode-s/clocksync/internal/airspace"
	"github.com/mode-s/clocksync/internal/clocklog"
)

// Update ingests one synchronized observation (spec.md §4.3).
// baseTs/peerTs are the absolute timestamps of the sync event on each
// clock, in that clock's native ticks; baseInterval/peerInterval are
// the native-tick lengths of the interval since the previous sync
// event seen for the same aircraft. now is wall-clock seconds. ac is
// the per-aircraft tracking context. Returns true iff the sample was
// accepted into the offset ring.
func (p *Pairing) Update(address uint32, baseTs, peerTs, baseInterval, peerInterval, now float64, ac airspace.Aircraft) bool {
	// Step 1: eager prune.
	if p.n > 31 || (p.n > 0 && p.tsBase[p.n-1]-p.tsBase[0] > eagerPruneAgeSeconds*p.baseFreq) {
		p.pruneOldData(now)
	}
	p.updateTotal++
	p.updateAttempted = now

	doReset := false
	skipPrediction := false

	// Step 2: monotonicity guard.
	if p.n > 0 {
		lastPeer := p.tsPeer[p.n-1]
		lastBase := p.tsBase[p.n-1]
		if peerTs <= lastPeer || baseTs <= lastBase {
			peerLT := peerTs < lastPeer
			baseLT := baseTs < lastBase
			switch {
			case peerLT && baseLT:
				return false // both strictly less: possible transient, silent drop
			case peerTs == lastPeer || baseTs == lastBase:
				return false // exactly equal on either axis
			default:
				// clocks crossed: one strictly less, the other strictly greater
				p.valid = false
				p.outliers += outlierCrossedAxes
				p.outlierTotal++
				if p.outliers <= 10 {
					return false
				}
				doReset = true
				skipPrediction = true
			}
		}
	}

	var prediction, predictionError float64

	if !skipPrediction {
		// Step 3: prediction and outlier classification.
		pred, err := p.PredictPeer(baseTs)
		if err != nil {
			// n == 0: nothing to compare against yet, this sample just
			// becomes the first anchor below.
			pred = peerTs
		}
		prediction = pred
		predictionError = (prediction - peerTs) / p.peerFreq

		threshold := p.outlierThreshold
		if p.n < 4 {
			threshold *= 2
		}

		p.Base.IncrementNumSyncs()
		p.Peer.IncrementNumSyncs()

		if math.Abs(predictionError) > threshold {
			if p.Base.BadSyncs() < outlierBadSyncsGate && p.Peer.BadSyncs() < outlierBadSyncsGate {
				ac.IncrementSyncBad()
			}
			if ac.SyncDontUse() {
				return false
			}
			if p.Peer.BadSyncs() < outlierBadSyncsGate {
				p.Base.IncrementNumOutliers()
			}
			if p.Base.BadSyncs() < outlierBadSyncsGate {
				p.Peer.IncrementNumOutliers()
			}
			p.outlierTotal++

			if math.Abs(predictionError) > 2*threshold {
				p.outliers += outlierAboveThreshold
				doReset = true
			} else {
				p.outliers += outlierBelowThreshold
			}

			if p.outliers <= outlierResetScore {
				return false
			}
			if doReset && !p.jumped {
				if p.Peer.BadSyncs() < outlierBadSyncsGate {
					p.Base.IncrementJumps()
				}
				if p.Base.BadSyncs() < outlierBadSyncsGate {
					p.Peer.IncrementJumps()
				}
				p.jumped = true
			}
		} else {
			ac.IncrementSyncGood()
		}
	}

	// Step 4: sync-point smoothing.
	if !doReset && p.n >= 2 {
		predictionBase, err := p.PredictBase(peerTs)
		if err == nil {
			weight := smoothingWeightSlow
			if p.n >= 4 && p.driftN > smoothingDriftN {
				weight = smoothingWeightFast
			}
			peerTs += weight * (prediction - peerTs)
			baseTs += weight * (predictionBase - baseTs)
		}
	}

	// Step 5: final gate for aircraft opted out.
	if ac.SyncDontUse() {
		return false
	}

	// Step 6: reset branch.
	if doReset {
		focusLogs := (p.Base.Focus() && p.Peer.BadSyncs() < outlierBadSyncsGate) ||
			(p.Peer.Focus() && p.Base.BadSyncs() < outlierBadSyncsGate)
		if focusLogs {
			clocklog.Clocksync.ResetWarning(address, predictionError*1e6, p.drift*1e6, p.OutlierPercent(), p.String())
		}
		p.ResetOffsets()
		p.outlierResetCooldown = resetCooldownForced
		predictionError = 0
	}

	// Step 7: decay.
	p.outliers = max(0, p.outliers-outlierDecayPerUpdate)
	p.cumulativeError = clampSym(p.cumulativeError+predictionError, cumulativeErrorClamp)
	p.outlierResetCooldown = max(0, p.outlierResetCooldown-1)

	// Step 8: drift update.
	if !p.updateDrift(baseInterval, peerInterval) {
		p.CheckValid(now)
		return false
	}

	// Step 9: offset update.
	p.tsBase[p.n] = baseTs
	p.tsPeer[p.n] = peerTs
	sq := predictionError * predictionError
	p.sampleVar[p.n] = sq
	p.n++
	p.varSum += sq
	p.updated = now
	p.CheckValid(now)
	return true
}

func clampSym(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
