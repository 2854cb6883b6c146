// Package config loads the demo harness's YAML configuration: which
// clock presets its two receivers use, how often to tick the update
// loop, where to read a Beast feed from, and how verbose to log.
//
// The shape follows the teacher's internal/config: a flat Config
// struct decoded with gopkg.in/yaml.v3, plus an applyDefaults pass run
// after every Load.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ReceiverConfig names one side of the demo pairing.
type ReceiverConfig struct {
	Name      string `yaml:"name"`
	ClockTag  string `yaml:"clock_tag"`
	Focus     bool   `yaml:"focus"`
}

// BeastFeedConfig points at an optional serial Beast source used to
// drive the demo loop with real receiver timestamps instead of the
// synthetic replay generator.
type BeastFeedConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// Config is the demo harness's full configuration.
type Config struct {
	Base  ReceiverConfig `yaml:"base"`
	Peer  ReceiverConfig `yaml:"peer"`

	TickInterval string `yaml:"tick_interval"`
	Quiet        bool   `yaml:"quiet"`

	BeastFeed *BeastFeedConfig `yaml:"beast_feed"`
}

// Default returns the harness's built-in configuration: two dump1090
// receivers, one second between ticks, no Beast feed (synthetic
// replay mode).
func Default() *Config {
	return &Config{
		Base: ReceiverConfig{Name: "base", ClockTag: "dump1090", Focus: true},
		Peer: ReceiverConfig{Name: "peer", ClockTag: "dump1090"},
		TickInterval: "1s",
	}
}

// Load reads a YAML config file from path and fills in empty receiver
// names, clock tags and tick interval from Default. Boolean fields
// (Focus, Quiet) are taken from the file as they are.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&c)
	return &c, nil
}

func applyDefaults(c *Config) {
	d := Default()
	if c.Base.ClockTag == "" {
		c.Base.ClockTag = d.Base.ClockTag
	}
	if c.Base.Name == "" {
		c.Base.Name = d.Base.Name
	}
	if c.Peer.ClockTag == "" {
		c.Peer.ClockTag = d.Peer.ClockTag
	}
	if c.Peer.Name == "" {
		c.Peer.Name = d.Peer.Name
	}
	if c.TickInterval == "" {
		c.TickInterval = d.TickInterval
	}
}
