// Package clocklog provides the named-category logging capability
// spec.md §6 expects the estimator to log through. It generalizes the
// teacher's internal/logger (a package-level Quiet switch wrapping
// log.Printf with a fixed prefix) onto github.com/sirupsen/logrus, so
// every line carries a structured "category" field instead of just a
// string prefix.
package clocklog

import "github.com/sirupsen/logrus"

// Quiet suppresses all clocklog output when true, mirroring the
// teacher's logger.Quiet switch.
var Quiet bool

var base = logrus.New()

// Logger emits warnings for one named category (spec.md names exactly
// one: "clocksync").
type Logger struct {
	entry *logrus.Entry
}

// New returns a Logger tagged with the given category.
func New(category string) *Logger {
	return &Logger{entry: base.WithField("category", category)}
}

// Clocksync is the logger spec.md §6 names by category.
var Clocksync = New("clocksync")

// ResetWarning logs an outlier-triggered reset, using the exact
// template spec.md §6 specifies.
func (l *Logger) ResetWarning(addr uint32, stepUs, driftPpm, outlierPercent float64, pair string) {
	if Quiet {
		return
	}
	l.entry.Warnf("ac %06X step_us %.1f drift_ppm %.1f outlier_percent %.3f pair: %s",
		addr, stepUs, driftPpm, outlierPercent, pair)
}

// DriftLimitWarning logs a drift-delta rejection, using the exact
// template spec.md §6 specifies.
func (l *Logger) DriftLimitWarning(pair string, driftErrorPpm float64) {
	if Quiet {
		return
	}
	l.entry.Warnf("%s: drift_error_ppm out of limits: %.1f", pair, driftErrorPpm)
}
