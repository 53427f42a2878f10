package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/parkbay/cmd/parkctl/console"
	"github.com/mklimuk/parkbay/i2c"
	"github.com/mklimuk/parkbay/parking"
)

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "reset the slave (not supported by the firmware)",
	Action: func(c *cli.Context) error {
		console.PInfof(console.PictoLoop, "resetting the parking system...")
		console.Warn("reset is not implemented on the slave side, restart the controller manually")
		return failure(parking.ErrResetUnsupported, "reset")
	},
}

var registersCmd = cli.Command{
	Name:    "registers",
	Aliases: []string{"regs"},
	Usage:   "dump the register map without clearing the change flag",
	Action: func(c *cli.Context) error {
		dev, err := openDevice(c)
		if err != nil {
			return err
		}
		defer dev.Close()
		values := dev.ReadRegisters(commandContext(c))
		writeRegisters(values)
		for _, v := range values {
			if v.Err != nil {
				return failure(v.Err, "register dump incomplete")
			}
		}
		return nil
	},
}

func writeRegisters(values []parking.RegisterValue) {
	w := tabwriter.NewWriter(console.Output(), 8, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "REG\tNAME\tVALUE\tHEX\n")
	for _, v := range values {
		if v.Err != nil {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t\n", v.Register, v.Register, console.Red("error"))
			continue
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%#02x\n", v.Register, v.Register, v.Value, v.Value)
	}
	_ = w.Flush()
}

var healthCmd = cli.Command{
	Name:  "health",
	Usage: "check the slave answers and reports a healthy system status",
	Action: func(c *cli.Context) error {
		dev, err := openDevice(c)
		if err != nil {
			return err
		}
		defer dev.Close()
		code, err := dev.SystemStatus(commandContext(c))
		if err != nil {
			return failure(err, "slave not responding")
		}
		if code != parking.SystemOK {
			return console.Exit(console.ExitHardware, "slave reports system status %#02x", code)
		}
		console.PInfof(console.PictoCheck, "slave at %#02x OK", dev.Address())
		return nil
	},
}

var scanCmd = cli.Command{
	Name:  "scan",
	Usage: "list responsive addresses on the bus",
	Action: func(c *cli.Context) error {
		bus, err := openBus(c.Context, settings)
		if err != nil {
			return console.Exit(console.ExitHardware, "could not open bus: %s", console.Red(err))
		}
		if closer, ok := bus.(io.Closer); ok {
			defer closer.Close()
		}
		found, err := i2c.Scan(commandContext(c), bus, i2c.FirstAddress, i2c.LastAddress)
		if err != nil {
			return console.Exit(console.ExitFailure, "scan interrupted: %s", err)
		}
		_ = i2c.WriteGrid(console.Output(), found, settings.Address)
		console.Print("")
		if len(found) == 0 {
			console.PInfof(console.PictoCross, "no I2C device detected, check wiring, pull-ups and that I2C is enabled")
			return console.Exit(console.ExitHardware, "no device found")
		}
		for _, addr := range found {
			marker := ""
			if addr == settings.Address {
				marker = console.Green(" <- parking slave")
			}
			console.Printf("  %#02x (%d)%s\n", addr, addr, marker)
		}
		return nil
	},
}
