package config

import "strconv"

// Normalize fills derived values. It must be called after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Device == "" {
		cfg.Device = strconv.Itoa(cfg.Bus)
	}
}
