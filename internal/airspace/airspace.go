// Package airspace defines the narrow capabilities the pairing
// estimator needs from its two external collaborators: a receiver
// session and a per-aircraft tracking context. Per spec, the estimator
// never owns these objects, only mutates fields through the interfaces
// below — this is the "capability trait passed by mutable reference"
// shape spec.md §9 calls for instead of embedding pointers into the
// pairing and risking cyclic ownership between receiver and pairing.
package airspace

import "github.com/mode-s/clocksync/internal/clock"

// Receiver is the capability surface a ClockPairing reads and mutates
// on each side of a pair.
type Receiver interface {
	// Clock returns the receiver's (immutable) timebase descriptor.
	Clock() clock.Clock
	// User is a human-readable identifier, used only in log lines.
	User() string
	// Focus reports whether this receiver is flagged for verbose
	// diagnostic logging.
	Focus() bool
	// BadSyncs reports the fraction (0..1) of recent syncs judged bad;
	// read-only from the estimator's point of view.
	BadSyncs() float64
	// IncrementNumSyncs credits one attempted sync.
	IncrementNumSyncs()
	// IncrementNumOutliers credits one sync rejected as an outlier.
	IncrementNumOutliers()
	// IncrementJumps credits a catastrophic clock jump detected via
	// this receiver's pairings.
	IncrementJumps()
}

// Aircraft is the per-pair, per-aircraft tracking context the
// estimator reads and mutates while updating.
type Aircraft interface {
	// SyncDontUse reports whether the tracker has already decided this
	// aircraft's syncs should not be trusted.
	SyncDontUse() bool
	// IncrementSyncGood credits one sync that passed the outlier test.
	IncrementSyncGood()
	// IncrementSyncBad credits one sync that failed it.
	IncrementSyncBad()
}
