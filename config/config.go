// Package config defines the static configuration for one router instance
// and the loader that turns a TOML file into it.
package config

import (
	"time"
)

// InterfaceConfig is one [[interfaces]] table in the TOML file.
type InterfaceConfig struct {
	Name         string `toml:"name"`
	CapacityMbps uint32 `toml:"capacity_mbps"`
	LinkActive   bool   `toml:"link_active"`
}

// RouterConfig is the fully-resolved configuration for a router instance,
// produced by Load. All optional fields are populated with their defaults.
type RouterConfig struct {
	Interfaces []InterfaceConfig `toml:"interfaces"`
	Key        string            `toml:"key"`

	HelloIntervalSec  uint32 `toml:"hello_interval_sec"`
	LsaIntervalSec    uint32 `toml:"lsa_interval_sec"`
	DeadIntervalSec   uint32 `toml:"dead_interval_sec"`
	UdpPort           uint16 `toml:"udp_port"`
	ControlSocketPath string `toml:"control_socket_path"`

	// RouterId defaults to the host name when empty (filled in by the run
	// command, not by Load).
	RouterId string `toml:"router_id"`

	// MetricsAddr, if non-empty, exposes prometheus counters over HTTP.
	// Not part of the wire-format or TOML schema in spec §6; an operational
	// convenience wired through the CLI rather than the file format, so it
	// defaults empty (disabled) and is set from a flag, not loaded from TOML.
	MetricsAddr string `toml:"-"`
}

// SharedKey is the decoded 32-byte AES-256 key.
func (c *RouterConfig) SharedKey() ([]byte, error) {
	return decodeKey(c.Key)
}

func (c *RouterConfig) HelloInterval() time.Duration {
	return time.Duration(c.HelloIntervalSec) * time.Second
}

func (c *RouterConfig) LsaInterval() time.Duration {
	return time.Duration(c.LsaIntervalSec) * time.Second
}

func (c *RouterConfig) DeadInterval() time.Duration {
	return time.Duration(c.DeadIntervalSec) * time.Second
}

func (c *RouterConfig) LsdbMaxAge() time.Duration {
	return 3 * c.LsaInterval()
}

// Defaults mirrors the "optional" block of the config file in spec §6.
const (
	DefaultHelloIntervalSec        = 5
	DefaultLsaIntervalSec          = 10
	DefaultDeadIntervalSec         = 20
	DefaultUdpPort                 = 5000
	DefaultControlSocketPath       = "/var/run/p-ospf.sock"
	defaultDeadIntervalMultiplier = 4
)
