// Package config holds the runtime configuration shared by every command.
// Values come from a config file, environment variables and flags, merged
// through viper; flags win.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/frank2889/MacWinControl/internal/edge"
	"github.com/frank2889/MacWinControl/internal/screens"
	"github.com/frank2889/MacWinControl/internal/session"
)

// DefaultPort is the wire protocol's fixed TCP port.
const DefaultPort = 52525

// Config holds all runtime configuration.
type Config struct {
	// Name is announced to the peer in the handshake.
	Name string
	// Port is the listen port when hosting and the default peer port.
	Port int
	// SwitchEdge is the desktop edge that hands input to the peer.
	SwitchEdge string
	// EdgeThreshold is how close to the edge, in pixels, counts as a hit.
	EdgeThreshold int
	// RequiredHits is the consecutive-sample debounce count.
	RequiredHits int
	// PollInterval is the cursor sampling cadence.
	PollInterval time.Duration
	// PingInterval and IdleTimeout drive the keepalive.
	PingInterval time.Duration
	IdleTimeout  time.Duration
	DialTimeout  time.Duration
	// FeedAddr, when set, serves the front-end event feed there.
	FeedAddr string
}

// Default returns the built-in configuration.
func Default() Config {
	name, err := os.Hostname()
	if err != nil {
		name = "unknown"
	}
	return Config{
		Name:          name,
		Port:          DefaultPort,
		SwitchEdge:    "right",
		EdgeThreshold: 3,
		RequiredHits:  3,
		PollInterval:  16 * time.Millisecond,
		PingInterval:  5 * time.Second,
		IdleTimeout:   10 * time.Second,
		DialTimeout:   5 * time.Second,
	}
}

// FromViper merges v over the defaults and validates the result.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Default()

	v.SetDefault("name", cfg.Name)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("edge", cfg.SwitchEdge)
	v.SetDefault("threshold", cfg.EdgeThreshold)
	v.SetDefault("requiredhits", cfg.RequiredHits)
	v.SetDefault("pollinterval", cfg.PollInterval)
	v.SetDefault("pinginterval", cfg.PingInterval)
	v.SetDefault("idletimeout", cfg.IdleTimeout)
	v.SetDefault("dialtimeout", cfg.DialTimeout)
	v.SetDefault("feed", cfg.FeedAddr)

	cfg.Name = v.GetString("name")
	cfg.Port = v.GetInt("port")
	cfg.SwitchEdge = v.GetString("edge")
	cfg.EdgeThreshold = v.GetInt("threshold")
	cfg.RequiredHits = v.GetInt("requiredhits")
	cfg.PollInterval = v.GetDuration("pollinterval")
	cfg.PingInterval = v.GetDuration("pinginterval")
	cfg.IdleTimeout = v.GetDuration("idletimeout")
	cfg.DialTimeout = v.GetDuration("dialtimeout")
	cfg.FeedAddr = v.GetString("feed")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads from the global viper instance.
func Load() (Config, error) {
	return FromViper(viper.GetViper())
}

// Validate rejects values the engine cannot run with.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if _, err := screens.ParseEdge(c.SwitchEdge); err != nil {
		return err
	}
	if c.EdgeThreshold < 1 {
		return fmt.Errorf("threshold must be at least 1, got %d", c.EdgeThreshold)
	}
	if c.RequiredHits < 1 {
		return fmt.Errorf("required hits must be at least 1, got %d", c.RequiredHits)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.IdleTimeout <= c.PingInterval {
		return fmt.Errorf("idle timeout %s must exceed ping interval %s", c.IdleTimeout, c.PingInterval)
	}
	return nil
}

// Edge returns the parsed switch edge. Call Validate first.
func (c Config) Edge() screens.Edge {
	e, err := screens.ParseEdge(c.SwitchEdge)
	if err != nil {
		return screens.EdgeNone
	}
	return e
}

// Detector converts the config to detector tuning.
func (c Config) Detector() edge.Config {
	return edge.Config{
		Threshold:    c.EdgeThreshold,
		RequiredHits: c.RequiredHits,
		PollInterval: c.PollInterval,
	}
}

// Session converts the config to session options.
func (c Config) Session() session.Options {
	return session.Options{
		Name:         c.Name,
		PingInterval: c.PingInterval,
		IdleTimeout:  c.IdleTimeout,
		DialTimeout:  c.DialTimeout,
	}
}
