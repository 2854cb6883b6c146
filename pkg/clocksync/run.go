// Package clocksync wires internal/pairing into a runnable demo loop,
// the way the teacher's pkg/clocksync wires internal/servo and
// internal/clockselect into RunDaemon.
package clocksync

import (
	"context"
	"fmt"
	"time"

	"github.com/mode-s/clocksync/internal/airspace"
	"github.com/mode-s/clocksync/internal/beastfeed"
	"github.com/mode-s/clocksync/internal/clock"
	"github.com/mode-s/clocksync/internal/clocklog"
	"github.com/mode-s/clocksync/internal/config"
	"github.com/mode-s/clocksync/internal/pairing"
)

// RunHarness builds one ClockPairing between cfg.Base and cfg.Peer and
// feeds it synchronized observations until ctx is canceled. With no
// BeastFeed configured it runs a synthetic replay generator instead of
// a real serial source, so the estimator can be exercised without
// hardware.
func RunHarness(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		cfg = config.Default()
	}
	clocklog.Quiet = cfg.Quiet

	baseClock, err := clock.ForTag(cfg.Base.ClockTag)
	if err != nil {
		return fmt.Errorf("base receiver: %w", err)
	}
	peerClock, err := clock.ForTag(cfg.Peer.ClockTag)
	if err != nil {
		return fmt.Errorf("peer receiver: %w", err)
	}

	base := airspace.NewSession(cfg.Base.Name, baseClock)
	base.IsFocus = cfg.Base.Focus
	peer := airspace.NewSession(cfg.Peer.Name, peerClock)
	peer.IsFocus = cfg.Peer.Focus

	p := pairing.New(base, peer, 0)
	ac := &airspace.AircraftContext{}

	var feed source
	if cfg.BeastFeed != nil && cfg.BeastFeed.Device != "" {
		port, err := beastfeed.Open(cfg.BeastFeed.Device, cfg.BeastFeed.Baud)
		if err != nil {
			return fmt.Errorf("beast feed: %w", err)
		}
		defer port.Close()
		feed = &beastSource{port: port}
	} else {
		feed = newReplaySource(baseClock.Freq, peerClock.Freq)
	}

	interval, err := time.ParseDuration(cfg.TickInterval)
	if err != nil || interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		sample, ok, err := feed.next()
		if err != nil {
			return fmt.Errorf("read sync sample: %w", err)
		}
		if !ok {
			continue
		}
		now := float64(time.Now().UnixNano()) / 1e9
		p.Update(sample.address, sample.baseTs, sample.peerTs, sample.baseInterval, sample.peerInterval, now, ac)
	}
}
