package clocksync

import "github.com/mode-s/clocksync/internal/beastfeed"

// syncSample is one (base_ts, peer_ts) observation ready to hand to
// pairing.Update, plus the per-aircraft interval deltas it needs.
type syncSample struct {
	address                    uint32
	baseTs, peerTs             float64
	baseInterval, peerInterval float64
}

// source produces successive sync samples for the same simulated
// aircraft address. ok is false when no sample is ready this tick
// (e.g. the Beast feed hasn't seen a new message yet).
type source interface {
	next() (syncSample, bool, error)
}

// beastSource turns a Beast feed into sync samples by pairing each
// frame's 12MHz receiver timestamp against the base side's own
// monotonic read of the same instant. This models two receivers
// seeing the same Mode-S squitter: the "base" clock is the host
// reading the frame off the wire, the "peer" clock is the receiver's
// own hardware timestamp counter.
type beastSource struct {
	port      *beastfeed.Port
	lastBase  float64
	lastPeer  float64
	haveFirst bool
	ticks     float64
}

func (s *beastSource) next() (syncSample, bool, error) {
	frame, err := s.port.ReadFrame()
	if err != nil {
		return syncSample{}, false, err
	}
	s.ticks++
	baseTs := s.ticks
	peerTs := float64(frame.Timestamp)

	sample := syncSample{address: addressFromPayload(frame.Payload)}
	if !s.haveFirst {
		s.haveFirst = true
		s.lastBase, s.lastPeer = baseTs, peerTs
		return syncSample{}, false, nil
	}
	sample.baseTs = baseTs
	sample.peerTs = peerTs
	sample.baseInterval = baseTs - s.lastBase
	sample.peerInterval = peerTs - s.lastPeer
	s.lastBase, s.lastPeer = baseTs, peerTs
	return sample, true, nil
}

func addressFromPayload(payload []byte) uint32 {
	if len(payload) < 4 {
		return 0
	}
	return uint32(payload[1])<<16 | uint32(payload[2])<<8 | uint32(payload[3])
}

// replaySource synthesizes a linearly drifting pair of clocks so the
// harness has something to run without hardware attached: base ticks
// at baseFreq, peer ticks at peerFreq times a small fixed drift.
type replaySource struct {
	baseFreq, peerFreq float64
	baseTs, peerTs     float64
	tick               int
}

func newReplaySource(baseFreq, peerFreq float64) *replaySource {
	return &replaySource{baseFreq: baseFreq, peerFreq: peerFreq}
}

func (s *replaySource) next() (syncSample, bool, error) {
	const driftPpm = 1.0
	const intervalSeconds = 1.0

	baseInterval := s.baseFreq * intervalSeconds
	peerInterval := s.peerFreq * intervalSeconds * (1 + driftPpm*1e-6)

	s.baseTs += baseInterval
	s.peerTs += peerInterval
	s.tick++

	return syncSample{
		address:      0x4ca1b0,
		baseTs:       s.baseTs,
		peerTs:       s.peerTs,
		baseInterval: baseInterval,
		peerInterval: peerInterval,
	}, true, nil
}
