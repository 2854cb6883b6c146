package pairing

import (
	"math"
	"testing"

	"github.com/mode-s/clocksync/internal/airspace"
	"github.com/mode-s/clocksync/internal/clock"
)

func newTestPair(t *testing.T) (*Pairing, *airspace.Session, *airspace.Session) {
	t.Helper()
	c, err := clock.ForTag("dump1090")
	if err != nil {
		t.Fatalf("unexpected clock error: %v", err)
	}
	base := airspace.NewSession("base", c)
	peer := airspace.NewSession("peer", c)
	return New(base, peer, 1), base, peer
}

func checkInvariants(t *testing.T, p *Pairing) {
	t.Helper()
	if p.n < 0 || p.n > ringCap {
		t.Fatalf("n out of range: %d", p.n)
	}
	for i := 1; i < p.n; i++ {
		if p.tsBase[i] <= p.tsBase[i-1] {
			t.Fatalf("tsBase not strictly increasing at %d: %v <= %v", i, p.tsBase[i], p.tsBase[i-1])
		}
		if p.tsPeer[i] <= p.tsPeer[i-1] {
			t.Fatalf("tsPeer not strictly increasing at %d: %v <= %v", i, p.tsPeer[i], p.tsPeer[i-1])
		}
	}
	var sum float64
	for i := 0; i < p.n; i++ {
		sum += p.sampleVar[i]
	}
	if math.Abs(sum-p.varSum) > 1e-18 {
		t.Fatalf("varSum drifted: tracked=%v recomputed=%v", p.varSum, sum)
	}
	if p.cumulativeError < -cumulativeErrorClamp-1e-15 || p.cumulativeError > cumulativeErrorClamp+1e-15 {
		t.Fatalf("cumulativeError out of bounds: %v", p.cumulativeError)
	}
	if p.driftN >= 1 && math.Abs(p.drift) > p.driftMax+1e-12 {
		t.Fatalf("drift exceeds driftMax: %v > %v", p.drift, p.driftMax)
	}
}

// scenario 1: cold start, linear sequence, base=peer=12MHz, fixed 1000-tick offset.
func TestColdStartLinear(t *testing.T) {
	p, _, _ := newTestPair(t)
	ac := &airspace.AircraftContext{}

	const tick = 1.2e7
	var lastAccepted bool
	for i := 1; i <= 10; i++ {
		baseTs := float64(i) * tick
		peerTs := float64(i)*tick + 1000
		lastAccepted = p.Update(0x123456, baseTs, peerTs, tick, tick, float64(i), ac)
		checkInvariants(t, p)
		if i >= 3 && !lastAccepted {
			t.Errorf("sample %d: expected acceptance from sample 3 onward, got rejection", i)
		}
	}
	if p.N() != 10 {
		t.Errorf("expected n=10, got %d", p.N())
	}
	if math.Abs(p.Drift()) >= 1e-7 {
		t.Errorf("expected drift to converge near 0, got %v", p.Drift())
	}
	if !p.Valid() {
		t.Errorf("expected pairing to be valid after 10 linear samples")
	}
	predicted, err := p.PredictPeer(5.5 * tick)
	if err != nil {
		t.Fatalf("PredictPeer: %v", err)
	}
	want := 5.5*tick + 1000
	if math.Abs(predicted-want) > 10 {
		t.Errorf("PredictPeer(5.5*tick) = %v, want ~%v (+-10 ticks)", predicted, want)
	}
}

// scenario 2: single outlier sample amid an otherwise linear sequence.
func TestSingleOutlier(t *testing.T) {
	p, _, _ := newTestPair(t)
	ac := &airspace.AircraftContext{}
	const tick = 1.2e7

	for i := 1; i <= 6; i++ {
		baseTs := float64(i) * tick
		peerTs := float64(i)*tick + 1000
		p.Update(1, baseTs, peerTs, tick, tick, float64(i), ac)
	}
	nBefore := p.N()
	outliersBefore := p.OutlierTotal()

	baseTs := 7 * tick
	peerTs := 7*tick + 1000 + 30
	accepted := p.Update(1, baseTs, peerTs, tick, tick, 7, ac)
	if accepted {
		t.Errorf("expected the spiked sample to be rejected")
	}
	if p.N() != nBefore {
		t.Errorf("rejected sample changed n: before=%d after=%d", nBefore, p.N())
	}
	if p.OutlierTotal() != outliersBefore+1 {
		t.Errorf("expected outlier_total to increment by 1, got %v -> %v", outliersBefore, p.OutlierTotal())
	}

	baseTs2 := 8 * tick
	peerTs2 := 8*tick + 1000
	accepted2 := p.Update(1, baseTs2, peerTs2, tick, tick, 8, ac)
	if !accepted2 {
		t.Errorf("expected the next in-line sample to be accepted")
	}
	if !p.Valid() {
		t.Errorf("expected pairing to remain valid through a single outlier")
	}
}

// scenario 3: a catastrophic jump should eventually trigger a reset.
func TestCatastrophicJump(t *testing.T) {
	p, base, peer := newTestPair(t)
	ac := &airspace.AircraftContext{}
	const tick = 1.2e7

	for i := 1; i <= 10; i++ {
		baseTs := float64(i) * tick
		peerTs := float64(i)*tick + 1000
		p.Update(1, baseTs, peerTs, tick, tick, float64(i), ac)
	}

	resetSeen := false
	i := 11
	for ; i < 30 && !resetSeen; i++ {
		baseTs := float64(i) * tick
		peerTs := float64(i)*tick + 1000 + 240
		p.Update(1, baseTs, peerTs, tick, tick, float64(i), ac)
		if p.N() == 1 {
			resetSeen = true
		}
	}
	if !resetSeen {
		t.Fatalf("expected a reset (n back to 1) within 20 repeated spiked samples")
	}
	// outlierResetCooldown is set to resetCooldownForced in the reset
	// branch, then decremented once more by the same Update call's decay
	// step before returning.
	if want := resetCooldownForced - 1; p.OutlierResetCooldown() != want {
		t.Errorf("expected outlier_reset_cooldown=%d after forced reset, got %d", want, p.OutlierResetCooldown())
	}
	if !p.Jumped() {
		t.Errorf("expected jumped=true after catastrophic reset")
	}
	if base.Jumps() != 1 || peer.Jumps() != 1 {
		t.Errorf("expected incrementJumps() on both receivers, got base=%d peer=%d", base.Jumps(), peer.Jumps())
	}
}

// scenario 4: both axes decrease -> silent drop, no outlier credit.
func TestMonotonicityBothDecrease(t *testing.T) {
	p, _, _ := newTestPair(t)
	ac := &airspace.AircraftContext{}
	const tick = 1.2e7

	for i := 1; i <= 5; i++ {
		baseTs := float64(i) * tick
		peerTs := float64(i)*tick + 1000
		p.Update(1, baseTs, peerTs, tick, tick, float64(i), ac)
	}
	nBefore, outliersBefore := p.N(), p.Outliers()

	accepted := p.Update(1, 2*tick, 2*tick+1000, tick, tick, 6, ac)
	if accepted {
		t.Errorf("expected rejection for a both-decreasing sample")
	}
	if p.N() != nBefore {
		t.Errorf("expected n unchanged, before=%d after=%d", nBefore, p.N())
	}
	if p.Outliers() != outliersBefore {
		t.Errorf("expected outliers unchanged, before=%d after=%d", outliersBefore, p.Outliers())
	}
}

// A crossed-axes monotonicity violation (one axis decreases, the
// other increases relative to the last accepted sample) must not
// reset the pairing on its own: it only forces a reset once the
// crossed-axes outlier score has accumulated past the reset
// threshold, which takes a second consecutive crossing.
func TestMonotonicityCrossedAxesRequiresTwoEvents(t *testing.T) {
	p, _, _ := newTestPair(t)
	ac := &airspace.AircraftContext{}
	const tick = 1.2e7

	for i := 1; i <= 5; i++ {
		baseTs := float64(i) * tick
		peerTs := float64(i)*tick + 1000
		p.Update(1, baseTs, peerTs, tick, tick, float64(i), ac)
	}
	nBefore := p.N()

	// base axis goes backwards, peer axis goes forwards relative to
	// the last accepted sample (tsBase[4]=5*tick, tsPeer[4]=5*tick+1000).
	crossedBase := 4 * tick
	crossedPeer := 6*tick + 1000

	accepted := p.Update(1, crossedBase, crossedPeer, tick, tick, 6, ac)
	if accepted {
		t.Errorf("expected the first crossed-axes sample to be rejected without a reset")
	}
	if p.N() != nBefore {
		t.Errorf("expected n unchanged after the first crossed-axes event, before=%d after=%d", nBefore, p.N())
	}

	accepted = p.Update(1, crossedBase, crossedPeer, tick, tick, 7, ac)
	if !accepted {
		t.Errorf("expected the second consecutive crossed-axes event to force a reset and be accepted as the new first sample")
	}
	if p.N() != 1 {
		t.Errorf("expected the ring to hold exactly the post-reset sample, got n=%d", p.N())
	}
}

// Feeding more than ringCap samples must prune before insertion: n
// never exceeds ringCap, and the ring is visibly trimmed back down
// once it has reached capacity.
func TestRingNeverExceedsCapacity(t *testing.T) {
	p, _, _ := newTestPair(t)
	ac := &airspace.AircraftContext{}
	const tick = 1.2e7

	maxSeen := 0
	prunedAfterCap := false
	for i := 1; i <= 40; i++ {
		baseTs := float64(i) * tick
		peerTs := float64(i)*tick + 1000
		p.Update(1, baseTs, peerTs, tick, tick, float64(i), ac)
		checkInvariants(t, p)
		if p.N() > ringCap {
			t.Fatalf("sample %d: n=%d exceeds ringCap=%d", i, p.N(), ringCap)
		}
		if p.N() > maxSeen {
			maxSeen = p.N()
		}
		if maxSeen == ringCap && p.N() < ringCap {
			prunedAfterCap = true
		}
	}
	if maxSeen != ringCap {
		t.Errorf("expected the ring to reach its full capacity (%d) before pruning, max seen was %d", ringCap, maxSeen)
	}
	if !prunedAfterCap {
		t.Errorf("expected pruneOldData to trim the ring back down once it reached capacity")
	}
}

// predict_base(predict_peer(base_ts)) must round-trip back to base_ts
// for a query in the interior of the anchor range (away from both the
// first anchor and the last-10-seconds extrapolation zone).
func TestPredictRoundTripInterior(t *testing.T) {
	p, _, _ := newTestPair(t)
	ac := &airspace.AircraftContext{}
	const tick = 1.2e7

	for i := 1; i <= 25; i++ {
		baseTs := float64(i) * tick
		peerTs := float64(i)*tick + 1000
		p.Update(1, baseTs, peerTs, tick, tick, float64(i), ac)
	}

	queryBaseTs := 10.5 * tick
	peerTs, err := p.PredictPeer(queryBaseTs)
	if err != nil {
		t.Fatalf("PredictPeer: %v", err)
	}
	roundTripped, err := p.PredictBase(peerTs)
	if err != nil {
		t.Fatalf("PredictBase: %v", err)
	}
	if math.Abs(roundTripped-queryBaseTs) > 1e-6 {
		t.Errorf("PredictBase(PredictPeer(%v)) = %v, want %v (round trip through the interior anchor range)",
			queryBaseTs, roundTripped, queryBaseTs)
	}
}

// scenario 5: staleness makes check_valid flip to false.
func TestStaleness(t *testing.T) {
	p, _, _ := newTestPair(t)
	ac := &airspace.AircraftContext{}
	const tick = 1.2e7

	for i := 1; i <= 6; i++ {
		baseTs := float64(i) * tick
		peerTs := float64(i)*tick + 1000
		p.Update(1, baseTs, peerTs, tick, tick, float64(i), ac)
	}
	if !p.Valid() {
		t.Fatalf("expected pairing valid before staleness check")
	}
	if p.CheckValid(p.Updated() + 35) {
		t.Errorf("expected valid=false once now-updated >= 35s")
	}
}

// scenario 6: a constant 1ppm peer/base interval ratio should converge drift to ~1e-6.
func TestDriftTracking(t *testing.T) {
	p, _, _ := newTestPair(t)
	ac := &airspace.AircraftContext{}
	const tick = 1.2e7

	baseTs, peerTs := 0.0, 0.0
	for i := 1; i <= 20; i++ {
		baseInterval := tick
		peerInterval := tick * 1.000001
		baseTs += baseInterval
		peerTs += peerInterval
		p.Update(1, baseTs, peerTs, baseInterval, peerInterval, float64(i), ac)
	}
	if p.DriftN() <= 4 {
		t.Fatalf("expected drift_n > 4, got %d", p.DriftN())
	}
	got := p.Drift()
	want := 1e-6
	if math.Abs(got-want) > 0.05*want {
		t.Errorf("expected drift ~1e-6 within 5%%, got %v", got)
	}
	if !p.Valid() {
		t.Errorf("expected pairing to be valid after drift convergence")
	}
}

func TestResetOffsetsIdempotent(t *testing.T) {
	p, _, _ := newTestPair(t)
	ac := &airspace.AircraftContext{}
	const tick = 1.2e7
	for i := 1; i <= 6; i++ {
		p.Update(1, float64(i)*tick, float64(i)*tick+1000, tick, tick, float64(i), ac)
	}
	p.ResetOffsets()
	n1, valid1 := p.N(), p.Valid()
	p.ResetOffsets()
	if p.N() != n1 || p.Valid() != valid1 {
		t.Errorf("ResetOffsets not idempotent: (%d,%v) then (%d,%v)", n1, valid1, p.N(), p.Valid())
	}
	if p.N() != 0 {
		t.Errorf("expected ring empty after ResetOffsets, got n=%d", p.N())
	}
}

func TestPredictEmptyPairing(t *testing.T) {
	p, _, _ := newTestPair(t)
	if _, err := p.PredictPeer(0); err != ErrEmptyPairing {
		t.Errorf("expected ErrEmptyPairing, got %v", err)
	}
	if _, err := p.PredictBase(0); err != ErrEmptyPairing {
		t.Errorf("expected ErrEmptyPairing, got %v", err)
	}
}

func TestOutlierThresholdDoublesBelowFourSamples(t *testing.T) {
	p, _, _ := newTestPair(t)
	if p.outlierThreshold != 0.9e-6 {
		t.Fatalf("unexpected base outlier threshold: %v", p.outlierThreshold)
	}
	if p.n >= 4 {
		t.Fatalf("expected a fresh pairing to have n<4")
	}

	// With n == 2 the working threshold is 1.8us: a 15-tick error
	// (1.25us at 12MHz) lies above 0.9us but is still accepted.
	ac := &airspace.AircraftContext{}
	const tick = 1.2e7
	for i := 1; i <= 2; i++ {
		p.Update(1, float64(i)*tick, float64(i)*tick+1000, tick, tick, float64(i), ac)
	}
	if !p.Update(1, 3*tick, 3*tick+1000+15, tick, tick, 3, ac) {
		t.Errorf("expected a 1.25us error to be accepted while n<4")
	}
	if p.OutlierTotal() != 0 {
		t.Errorf("expected no outlier credit for a 1.25us error while n<4, got outlier_total=%v", p.OutlierTotal())
	}
}
