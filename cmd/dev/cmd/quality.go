package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

// DeviceEnv names the periph bus the integration suite talks to.
const DeviceEnv = "PARKBAY_DEVICE"

var errNoDevice = errors.New("no bus device given: pass --device or set " + DeviceEnv)

func TestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run unit tests against the simulated slave",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Test(); err != nil {
				return fmt.Errorf("unit tests failed: %w", err)
			}
			return nil
		},
	}
}

func LintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Run linters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Lint(); err != nil {
				return fmt.Errorf("lint failed: %w", err)
			}
			return nil
		},
	}
}

func IntegrationTestCmd() *cobra.Command {
	var device string
	cmd := &cobra.Command{
		Use:   "integration-test",
		Short: "Run hardware tests against a parking slave on a real bus",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := integrationDevice(device)
			if err != nil {
				return err
			}
			if err := os.Setenv(DeviceEnv, dev); err != nil {
				return fmt.Errorf("could not export %s: %w", DeviceEnv, err)
			}
			slog.Info("running hardware tests", "device", dev)
			if err := test.Integ(); err != nil {
				return fmt.Errorf("hardware tests failed on %s: %w", dev, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&device, "device", "", "periph bus name, e.g. 1 or /dev/i2c-1")
	return cmd
}

// integrationDevice prefers the flag over the environment.
func integrationDevice(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv(DeviceEnv); env != "" {
		return env, nil
	}
	return "", errNoDevice
}
