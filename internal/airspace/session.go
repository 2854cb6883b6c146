package airspace

import "github.com/mode-s/clocksync/internal/clock"

// Session is a minimal, non-concurrent-safe Receiver implementation
// used by the demo harness and by tests. A production deployment would
// back Receiver with whatever object the message-transport layer
// already keeps per connected receiver; Session exists because this
// module ships a runnable harness and needs something concrete to hand
// it, the way the teacher's clockselect tests hand a mockSource to
// Election instead of a real GNSS device.
type Session struct {
	Name        string
	ClockDesc   clock.Clock
	IsFocus     bool
	BadSyncsVal float64

	numSyncs    int
	numOutliers int
	jumps       int
}

func NewSession(name string, c clock.Clock) *Session {
	return &Session{Name: name, ClockDesc: c}
}

func (s *Session) Clock() clock.Clock    { return s.ClockDesc }
func (s *Session) User() string          { return s.Name }
func (s *Session) Focus() bool           { return s.IsFocus }
func (s *Session) BadSyncs() float64     { return s.BadSyncsVal }
func (s *Session) IncrementNumSyncs()    { s.numSyncs++ }
func (s *Session) IncrementNumOutliers() { s.numOutliers++ }
func (s *Session) IncrementJumps()       { s.jumps++ }

// NumSyncs, NumOutliers and Jumps expose the counters for diagnostics
// and tests; the estimator itself only ever increments them.
func (s *Session) NumSyncs() int    { return s.numSyncs }
func (s *Session) NumOutliers() int { return s.numOutliers }
func (s *Session) Jumps() int       { return s.jumps }

// AircraftContext is a minimal Aircraft implementation.
type AircraftContext struct {
	DontUse  bool
	syncGood int
	syncBad  int
}

func (a *AircraftContext) SyncDontUse() bool  { return a.DontUse }
func (a *AircraftContext) IncrementSyncGood() { a.syncGood++ }
func (a *AircraftContext) IncrementSyncBad()  { a.syncBad++ }
func (a *AircraftContext) SyncGood() int      { return a.syncGood }
func (a *AircraftContext) SyncBad() int       { return a.syncBad }
