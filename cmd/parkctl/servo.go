package main

import (
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/parkbay/cmd/parkctl/console"
	"github.com/mklimuk/parkbay/parking"
)

var servoCmd = cli.Command{
	Name:      "servo",
	Usage:     "set the barrier angle (0-180) or hand it back to the slave (255)",
	ArgsUsage: "<angle>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "confirm", Usage: "ask before switching to manual mode"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(console.ExitUsage, "expected exactly one angle argument")
		}
		value, err := strconv.Atoi(c.Args().First())
		if err != nil {
			return console.Exit(console.ExitUsage, "invalid angle %q", c.Args().First())
		}
		if err := parking.ValidateServoValue(value); err != nil {
			return failure(err, "command rejected")
		}
		if value != parking.ServoAuto && c.Bool("confirm") {
			ok, err := console.Confirm("the barrier stays in manual mode until 255 is sent, continue?")
			if err != nil {
				return console.Exit(console.ExitFailure, "prompt error: %s", err)
			}
			if !ok {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		return sendServo(c, value)
	},
}

var autoCmd = cli.Command{
	Name:  "auto",
	Usage: "resume automatic barrier control",
	Action: func(c *cli.Context) error {
		return sendServo(c, parking.ServoAuto)
	},
}

func sendServo(c *cli.Context, value int) error {
	dev, err := openDevice(c)
	if err != nil {
		return err
	}
	defer dev.Close()
	if value == parking.ServoAuto {
		console.PInfof(console.PictoLoop, "resuming automatic servo control")
	} else {
		console.PInfof(console.PictoServo, "setting servo angle to %d°", value)
		console.Warn("manual mode active: send 255 (parkctl auto) to resume automatic control")
	}
	if err := dev.SetServoAngle(commandContext(c), value); err != nil {
		return failure(err, "command failed")
	}
	console.PInfof(console.PictoCheck, "command sent")
	return nil
}
