package clock

import "github.com/mode-s/clocksync/internal/calibrate"

// presets mirrors the receiver-type table a multilateration server
// ships for the hardware it commonly sees. Keys are the tags callers
// pass to ForTag. "unknown" carries its nominal freq/max_freq_error
// here; its 5e-7 Jitter is a placeholder that ForTag overwrites at
// lookup time.
var presets = map[string]Clock{
	"radarcape_gps":   NewClock(1e9, 1e-6, 15e-9),
	"beast":           NewClock(1.2e7, 5e-6, 8.3e-8),
	"radarcape_12mhz": NewClock(1.2e7, 5e-6, 8.3e-8),
	"sbs":             NewClock(2e7, 1e-4, 5e-7),
	"dump1090":        NewClock(1.2e7, 1e-4, 5e-7),
	"unknown":         NewClock(1.2e7, 1e-4, 5e-7),
}

// ForTag looks up the preset Clock for a named receiver type. Any tag
// not in the table is an UnsupportedClockTypeError.
//
// "unknown" is special-cased: rather than trust the table's static
// 5e-7 Jitter guess, it measures the actual host's clock_gettime
// granularity via calibrate.HostJitter, since a receiver reporting
// "unknown" gives us nothing better to go on than our own clock.
func ForTag(tag string) (Clock, error) {
	c, ok := presets[tag]
	if !ok {
		return Clock{}, &UnsupportedClockTypeError{Tag: tag}
	}
	if tag == "unknown" {
		c.Jitter = calibrate.HostJitter()
	}
	return c, nil
}
