package config

import (
	"fmt"
	"slices"
	"strconv"
)

// Valid 7-bit slave addresses; the rest are reserved.
const (
	MinAddress = 0x03
	MaxAddress = 0x77
)

// Validate checks the configuration without changing it.
func Validate(cfg *Config) error {
	if cfg.Bus < 0 {
		return fmt.Errorf("bus must be >= 0, got %d", cfg.Bus)
	}
	if cfg.Address < MinAddress || cfg.Address > MaxAddress {
		return fmt.Errorf("address %#02x outside of %#02x-%#02x", cfg.Address, MinAddress, MaxAddress)
	}
	if !slices.Contains(Adapters, cfg.Adapter) {
		return fmt.Errorf("unknown adapter %q, expected one of %v", cfg.Adapter, Adapters)
	}
	if cfg.SettleDelay <= 0 {
		return fmt.Errorf("settle_delay must be > 0, got %s", cfg.SettleDelay)
	}
	if cfg.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be > 0, got %s", cfg.Monitor.Interval)
	}
	if cfg.HTTP.Listen == "" {
		return fmt.Errorf("http.listen must not be empty")
	}
	return nil
}

// ParseAddress accepts decimal, 0x hex or 0o octal notation.
func ParseAddress(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if v < MinAddress || v > MaxAddress {
		return 0, fmt.Errorf("address %#02x outside of %#02x-%#02x", v, MinAddress, MaxAddress)
	}
	return uint8(v), nil
}
