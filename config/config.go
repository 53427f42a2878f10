// Package config describes how parkctl and parkweb reach the parking slave.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Adapter string

const (
	AdapterPeriph  Adapter = "periph"
	AdapterRaspi   Adapter = "raspi"
	AdapterNanoPi  Adapter = "nanopi"
	AdapterMCP2221 Adapter = "mcp2221"
	AdapterSim     Adapter = "sim"
)

var Adapters = []Adapter{AdapterPeriph, AdapterRaspi, AdapterNanoPi, AdapterMCP2221, AdapterSim}

type Config struct {
	Bus         int           `yaml:"bus"`
	Address     uint8         `yaml:"address"`
	Adapter     Adapter       `yaml:"adapter"`
	Device      string        `yaml:"device"` // periph bus name, defaults to the bus number
	SettleDelay time.Duration `yaml:"settle_delay"`
	Monitor     MonitorConfig `yaml:"monitor"`
	HTTP        HTTPConfig    `yaml:"http"`
}

type MonitorConfig struct {
	Interval time.Duration `yaml:"interval"`
	Force    bool          `yaml:"force"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// Default is the wiring of the reference installation: Raspberry Pi bus 1, slave
// at 0x32.
func Default() Config {
	return Config{
		Bus:         1,
		Address:     0x32,
		Adapter:     AdapterPeriph,
		SettleDelay: time.Millisecond,
		Monitor: MonitorConfig{
			Interval: time.Second,
		},
		HTTP: HTTPConfig{
			Listen: ":5000",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error when
// optional is set.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("could not read config %s: %w", path, err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode unmarshals data into cfg, rejecting unknown keys.
func Decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
