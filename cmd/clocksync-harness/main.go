// clocksync-harness runs the pairwise clock-synchronization estimator
// against either a live Beast-format receiver feed or a synthetic
// replay generator.
//
// Usage:
//
//	clocksync-harness -config clocksync.yml
//	clocksync-harness -replay -quiet
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mode-s/clocksync/internal/clocklog"
	"github.com/mode-s/clocksync/internal/config"
	"github.com/mode-s/clocksync/pkg/clocksync"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default: built-in replay config)")
	quiet := flag.Bool("quiet", false, "less output")
	replay := flag.Bool("replay", false, "force the synthetic replay source even if the config names a Beast feed")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if *quiet {
		cfg.Quiet = true
	}
	if *replay {
		cfg.BeastFeed = nil
	}

	runWithShutdown(cfg)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return config.Load(path)
}

// runWithShutdown runs clocksync.RunHarness with a context canceled on
// SIGINT/SIGTERM, the same shutdown shape the teacher's
// runDaemonWithShutdown uses around RunDaemon.
func runWithShutdown(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !cfg.Quiet {
			log.Printf("clocksync-harness: received %v, shutting down", sig)
		}
		cancel()
	}()

	clocklog.Quiet = cfg.Quiet
	if err := clocksync.RunHarness(ctx, cfg); err != nil && err != context.Canceled {
		log.Printf("clocksync-harness: %v", err)
	}
}
