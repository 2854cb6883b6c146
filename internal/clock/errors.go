package clock

import "fmt"

// UnsupportedClockTypeError is returned by the factory when asked for a
// tag it does not recognize. It is a configuration error: surfaced to
// the caller, never recovered internally.
type UnsupportedClockTypeError struct {
	Tag string
}

func (e *UnsupportedClockTypeError) Error() string {
	return fmt.Sprintf("clock: unsupported clock type %q", e.Tag)
}
