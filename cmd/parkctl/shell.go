package main

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/parkbay/cmd/parkctl/console"
	"github.com/mklimuk/parkbay/parking"
)

const shellHelp = `commands:
  status       read the bay if the slave reports a change
  force        read the whole bay
  servo <n>    set the barrier angle (0-180, 255 for automatic)
  auto         resume automatic barrier control
  regs         dump the register map
  health       read the system status register
  reset        reset the slave
  quit         leave the shell`

var shellCmd = cli.Command{
	Name:  "shell",
	Usage: "interactive session with the slave",
	Action: func(c *cli.Context) error {
		dev, err := openDevice(c)
		if err != nil {
			return err
		}
		defer dev.Close()
		rl, err := console.NewReadline("parkbay> ")
		if err != nil {
			return console.Exit(console.ExitFailure, "could not start shell: %s", err)
		}
		defer rl.Close()
		ctx := commandContext(c)
		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return console.Exit(console.ExitFailure, "shell input error: %s", err)
			}
			if quit := execLine(ctx, dev, line); quit {
				return nil
			}
		}
	},
}

// execLine runs one shell command and reports whether the session should end.
// Faults are printed, the session goes on.
func execLine(ctx context.Context, dev *parking.Device, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "quit", "exit":
		return true
	case "help", "?":
		console.Print(shellHelp)
	case "status", "force":
		snap, err := dev.GetAllStatus(ctx, fields[0] == "force")
		if err != nil {
			console.Errorf("could not read status: %s", err)
			return false
		}
		console.Print(console.RenderSnapshot(snap))
	case "servo", "auto":
		value := parking.ServoAuto
		if fields[0] == "servo" {
			if len(fields) != 2 {
				console.Errorf("usage: servo <angle>")
				return false
			}
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				console.Errorf("invalid angle %q", fields[1])
				return false
			}
			value = v
		}
		if err := dev.SetServoAngle(ctx, value); err != nil {
			console.Errorf("servo command failed: %s", err)
			return false
		}
		console.PInfof(console.PictoCheck, "servo command %d sent", value)
	case "regs", "registers":
		writeRegisters(dev.ReadRegisters(ctx))
	case "health":
		code, err := dev.SystemStatus(ctx)
		if err != nil {
			console.Errorf("slave not responding: %s", err)
			return false
		}
		console.PInfof(console.PictoCheck, "system status %#02x", code)
	case "reset":
		if err := dev.Reset(ctx); err != nil {
			console.Warnf("%s, restart the controller manually", err)
		}
	default:
		console.Errorf("unknown command %q, try help", fields[0])
	}
	return false
}
