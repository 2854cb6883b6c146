package pairing

import "sort"

// PredictPeer maps a base-clock timestamp to the corresponding
// peer-clock timestamp. Fails with ErrEmptyPairing if the ring is
// empty.
func (p *Pairing) PredictPeer(baseTs float64) (float64, error) {
	rate := p.relativeFreq * (1 + p.drift)
	return predict(baseTs, p.tsBase[:p.n], p.tsPeer[:p.n], rate, p.baseFreq)
}

// PredictBase maps a peer-clock timestamp to the corresponding
// base-clock timestamp. Symmetric to PredictPeer with roles swapped
// and iRelativeFreq/iDrift in place of relativeFreq/drift.
func (p *Pairing) PredictBase(peerTs float64) (float64, error) {
	rate := p.iRelativeFreq * (1 + p.iDrift)
	return predict(peerTs, p.tsPeer[:p.n], p.tsBase[:p.n], rate, p.peerFreq)
}

// predict implements spec.md §4.6 for either direction: xs is the
// query axis' anchors, ys the target axis' anchors, rate the
// drift-adjusted nominal frequency ratio used only for extrapolation,
// and queryFreq the query axis' clock frequency (used to convert the
// "10 seconds" extrapolation-zone width into query-axis ticks).
func predict(queryTs float64, xs, ys []float64, rate, queryFreq float64) (float64, error) {
	n := len(xs)
	if n == 0 {
		return 0, ErrEmptyPairing
	}
	if queryTs < xs[0] || n == 1 {
		return ys[0] + (queryTs-xs[0])*rate, nil
	}
	if queryTs > xs[n-1]-10*queryFreq {
		lastExtrap := ys[n-1] + (queryTs-xs[n-1])*rate
		gap := xs[n-1] - xs[n-2]
		if gap > 10*queryFreq {
			return lastExtrap, nil
		}
		secondExtrap := ys[n-2] + (queryTs-xs[n-2])*rate
		return (lastExtrap + secondExtrap) / 2, nil
	}
	i := sort.Search(n, func(i int) bool { return xs[i] >= queryTs })
	if i <= 0 {
		i = 1
	}
	if i >= n {
		i = n - 1
	}
	return ys[i-1] + (ys[i]-ys[i-1])*(queryTs-xs[i-1])/(xs[i]-xs[i-1]), nil
}
