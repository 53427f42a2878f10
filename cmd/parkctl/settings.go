package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/parkbay"
	"github.com/mklimuk/parkbay/cmd/parkctl/console"
	"github.com/mklimuk/parkbay/config"
	"github.com/mklimuk/parkbay/i2c"
	"github.com/mklimuk/parkbay/parking"
	"github.com/mklimuk/parkbay/snsctx"
)

const defaultConfigFile = "parkbay.yaml"

var settings config.Config

var globalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   defaultConfigFile,
		Usage:   "YAML configuration file",
		EnvVars: []string{"PARKBAY_CONFIG"},
	},
	&cli.IntFlag{
		Name:  "bus",
		Usage: "I2C bus number",
		Value: parking.DefaultBus,
	},
	&cli.StringFlag{
		Name:  "addr",
		Usage: "slave address (hex accepted, e.g. 0x32)",
		Value: fmt.Sprintf("%#x", parking.DefaultAddress),
	},
	&cli.StringFlag{
		Name:  "adapter",
		Usage: "bus adapter: periph, raspi, nanopi, mcp2221 or sim",
		Value: string(config.AdapterPeriph),
	},
	&cli.StringFlag{
		Name:  "device",
		Usage: "periph bus name (defaults to the bus number)",
	},
	&cli.DurationFlag{
		Name:  "settle",
		Usage: "pause after every register operation",
		Value: parking.DefaultSettleDelay,
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "enable verbose logging",
	},
}

// loadSettings merges the config file with explicitly set flags.
func loadSettings(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"), !c.IsSet("config"))
	if err != nil {
		return console.Exit(console.ExitUsage, "%s", err)
	}
	if c.IsSet("bus") {
		cfg.Bus = c.Int("bus")
	}
	if c.IsSet("addr") {
		addr, err := config.ParseAddress(c.String("addr"))
		if err != nil {
			return console.Exit(console.ExitUsage, "%s", err)
		}
		cfg.Address = addr
	}
	if c.IsSet("adapter") {
		cfg.Adapter = config.Adapter(c.String("adapter"))
	}
	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("settle") {
		cfg.SettleDelay = c.Duration("settle")
	}
	if err := config.Validate(&cfg); err != nil {
		return console.Exit(console.ExitUsage, "invalid configuration: %s", err)
	}
	config.Normalize(&cfg)
	settings = cfg
	return nil
}

func commandContext(c *cli.Context) context.Context {
	return snsctx.SetVerbose(c.Context, c.Bool("verbose"))
}

// simScene feeds the simulated sensors; tests replace it.
var simScene parking.SceneFunc = i2c.DefaultScene

func openBus(ctx context.Context, cfg config.Config) (parkbay.I2CBus, error) {
	return i2c.Open(ctx, cfg, simScene)
}

func openDevice(c *cli.Context) (*parking.Device, error) {
	bus, err := openBus(c.Context, settings)
	if err != nil {
		return nil, console.Exit(console.ExitHardware, "could not open bus: %s", console.Red(err))
	}
	slog.Debug("bus opened", "adapter", settings.Adapter, "bus", settings.Bus, "addr", fmt.Sprintf("%#02x", settings.Address))
	return parking.NewDevice(bus,
		parking.WithAddress(settings.Address),
		parking.WithSettleDelay(settings.SettleDelay),
		parking.WithLogger(slog.Default()),
	), nil
}

// failure maps an operation error to an exit code.
func failure(err error, msg string) error {
	switch {
	case parking.IsHardwareFault(err):
		return console.Exit(console.ExitHardware, "%s: %s", msg, console.Red(err))
	case errors.Is(err, parking.ErrValidation):
		return console.Exit(console.ExitUsage, "%s: %s", msg, console.Red(err))
	case errors.Is(err, parking.ErrUnsupported):
		return console.Exit(console.ExitUnsupported, "%s: %s", msg, console.Red(err))
	}
	return console.Exit(console.ExitFailure, "%s: %s", msg, console.Red(err))
}
