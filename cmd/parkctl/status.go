package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/parkbay/cmd/parkctl/console"
	"github.com/mklimuk/parkbay/parking"
)

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "read the full bay status once",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yaml", Usage: "print the snapshot as YAML"},
	},
	Action: func(c *cli.Context) error {
		dev, err := openDevice(c)
		if err != nil {
			return err
		}
		defer dev.Close()
		// a one-shot read always reports, changed or not
		snap, err := dev.GetAllStatus(commandContext(c), true)
		if err != nil {
			return failure(err, "could not read status")
		}
		if c.Bool("yaml") {
			return encodeYAML(snap)
		}
		console.Print(console.RenderSnapshot(snap))
		return nil
	},
}

var monitorCmd = cli.Command{
	Name:  "monitor",
	Usage: "poll the bay until interrupted",
	Flags: []cli.Flag{
		&cli.DurationFlag{Name: "interval", Aliases: []string{"i"}, Usage: "pause between polls"},
		&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "read everything on each poll, ignoring the change flag"},
	},
	Action: func(c *cli.Context) error {
		interval := settings.Monitor.Interval
		if c.IsSet("interval") {
			interval = c.Duration("interval")
		}
		force := settings.Monitor.Force || c.Bool("force")
		if interval <= 0 {
			return console.Exit(console.ExitUsage, "interval must be > 0, got %s", interval)
		}
		dev, err := openDevice(c)
		if err != nil {
			return err
		}
		console.PInfof(console.PictoLoop, "monitoring %#02x every %s (Ctrl+C to quit)", dev.Address(), interval)
		if force {
			console.PInfof(console.PictoRadar, "force mode: full read on every poll")
		} else {
			console.PInfof(console.PictoRadar, "change mode: status shown only when the slave reports a change")
		}
		err = dev.Monitor(commandContext(c), interval, force, printSnapshot)
		if err != nil {
			return failure(err, "monitor stopped")
		}
		console.PInfof(console.PictoStop, "monitoring stopped")
		return nil
	},
}

func printSnapshot(snap parking.Snapshot, err error) {
	stamp := time.Now().Format(time.TimeOnly)
	if err != nil {
		console.Errorf("%s could not read status: %s", stamp, err)
		return
	}
	console.Print(fmt.Sprintf("[%s] %s", stamp, console.RenderSnapshot(snap)))
}
