package pairing

import "errors"

// ErrEmptyPairing is returned by PredictPeer/PredictBase when the ring
// holds no samples yet. It is a contract violation by the caller
// (predicting before any observation has been accepted) and is
// surfaced, never recovered internally.
var ErrEmptyPairing = errors.New("pairing: empty pairing, no samples to predict from")
