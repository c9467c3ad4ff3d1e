package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Load reads and validates a router config file. Unknown keys are reported
// through warn, never fatal. Missing required fields or a malformed key
// return a *Error.
func Load(path string, warn func(msg string, args ...any)) (*RouterConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, wrap(path, err)
	}

	var cfg RouterConfig
	dec := toml.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	err = dec.Decode(&cfg)
	if err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			if warn != nil {
				warn("unknown fields in config, ignoring", "path", path, "detail", strictErr.Error())
			}
			// retry leniently so unknown fields don't block startup
			if err2 := toml.Unmarshal(raw, &cfg); err2 != nil {
				return nil, wrap(path, err2)
			}
		} else {
			return nil, wrap(path, err)
		}
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, wrap(path, err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *RouterConfig) {
	if cfg.HelloIntervalSec == 0 {
		cfg.HelloIntervalSec = DefaultHelloIntervalSec
	}
	if cfg.LsaIntervalSec == 0 {
		cfg.LsaIntervalSec = DefaultLsaIntervalSec
	}
	if cfg.DeadIntervalSec == 0 {
		cfg.DeadIntervalSec = defaultDeadIntervalMultiplier * cfg.HelloIntervalSec
	}
	if cfg.UdpPort == 0 {
		cfg.UdpPort = DefaultUdpPort
	}
	if cfg.ControlSocketPath == "" {
		cfg.ControlSocketPath = DefaultControlSocketPath
	}
}

func validate(cfg *RouterConfig) error {
	if len(cfg.Interfaces) == 0 {
		return fmt.Errorf("at least one [[interfaces]] entry is required")
	}
	seen := make(map[string]bool, len(cfg.Interfaces))
	for _, ifc := range cfg.Interfaces {
		if ifc.Name == "" {
			return fmt.Errorf("interfaces entry missing name")
		}
		if seen[ifc.Name] {
			return fmt.Errorf("duplicate interface %q in config", ifc.Name)
		}
		seen[ifc.Name] = true
		if ifc.CapacityMbps == 0 {
			return fmt.Errorf("interface %q: capacity_mbps must be > 0", ifc.Name)
		}
	}
	if cfg.Key == "" {
		return fmt.Errorf("key is required")
	}
	if _, err := decodeKey(cfg.Key); err != nil {
		return fmt.Errorf("key: %w", err)
	}
	return nil
}

func decodeKey(b64 string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("decoded length = %d, want 32", len(key))
	}
	return key, nil
}
