package cmd

import (
	"fmt"
	"runtime"
	"slices"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

// Binaries lists the commands the build produces, by name under ./cmd.
var Binaries = []string{"parkctl", "parkweb"}

// crossImage is used when the target platform differs from the host, typically
// linux/arm64 or linux/arm for the Raspberry Pi and NanoPi boards.
const crossImage = "gophertribe/gobuild:1.25-bookworm"

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [binary...]",
		Short: "Build parkctl and parkweb",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := buildTargets(args)
			if err != nil {
				return err
			}
			os := cmd.Flag("os").Value.String()
			arch := cmd.Flag("arch").Value.String()
			version := cmd.Flag("version").Value.String()
			crossOs := cmd.Flag("cross-os").Value.String()
			crossArch := cmd.Flag("cross-arch").Value.String()

			if os == runtime.GOOS && arch == runtime.GOARCH {
				if crossOs != "" && crossArch != "" {
					os = crossOs
					arch = crossArch
				}
				for _, target := range targets {
					err := build.GoBuild("dist/"+target, "./cmd/"+target, build.GoBuildOpts{
						Version:       version,
						InjectVersion: true,
						ConfigPackage: "main",
						// karalabe/hid needs cgo for the MCP2221 bridge
						EnableCgo: true,
						Arch:      arch,
						OS:        os,
					})
					if err != nil {
						return fmt.Errorf("could not build %s: %w", target, err)
					}
				}
				return nil
			}

			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			dockerArgs := append([]string{"build", "--version", version, "--cross-os", crossOs, "--cross-arch", crossArch}, targets...)
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", os, arch), dockerArgs, build.DockerBuildOpts{
				NoCache: noCache,
				Image:   crossImage,
			})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().String("version", "latest", "version of the binaries")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().String("cross-os", "", "os to cross-compile for")
	cmd.Flags().String("cross-arch", "", "arch to cross-compile for")

	return cmd
}

func buildTargets(args []string) ([]string, error) {
	if len(args) == 0 {
		return Binaries, nil
	}
	for _, arg := range args {
		if !slices.Contains(Binaries, arg) {
			return nil, fmt.Errorf("unknown binary %q, expected one of %v", arg, Binaries)
		}
	}
	return args, nil
}
