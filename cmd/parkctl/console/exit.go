package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Exit codes of parkctl.
const (
	ExitFailure     = 1
	ExitUsage       = 2
	ExitHardware    = 3
	ExitUnsupported = 4
)

func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}
