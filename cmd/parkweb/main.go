// Command parkweb serves the parking bay status and the barrier command over
// HTTP for the dashboard page.
//
// Usage:
//
//	parkweb [--config parkbay.yaml] [--listen :5000] [--adapter periph] [--mock]
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/parkbay/config"
	"github.com/mklimuk/parkbay/i2c"
	"github.com/mklimuk/parkbay/parking"
)

var version string
var commit string
var date string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	app := cli.NewApp()
	app.Name = "parkweb"
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "parking bay HTTP service"
	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "parkbay.yaml", Usage: "YAML configuration file"},
		&cli.StringFlag{Name: "listen", Usage: "HTTP listen address"},
		&cli.StringFlag{Name: "adapter", Usage: "bus adapter: periph, raspi, nanopi, mcp2221 or sim"},
		&cli.BoolFlag{Name: "mock", Usage: "run without hardware, serving a fixed snapshot"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable verbose logging"},
	}
	app.Before = func(c *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stdout, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if c.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		return nil
	}
	app.Action = serve
	app.ExitErrHandler = func(*cli.Context, error) {}
	if err := app.RunContext(ctx, args); err != nil {
		log.Printf("error: %v", err)
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			return exerr.ExitCode()
		}
		return 1
	}
	return 0
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"), !c.IsSet("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("listen") {
		cfg.HTTP.Listen = c.String("listen")
	}
	if c.IsSet("adapter") {
		cfg.Adapter = config.Adapter(c.String("adapter"))
	}
	if err := config.Validate(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	config.Normalize(&cfg)
	return cfg, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	var dev Controller
	if c.Bool("mock") {
		slog.Warn("running without hardware, status is a fixed development snapshot")
	} else {
		bus, err := i2c.Open(c.Context, cfg, nil)
		if err != nil {
			// keep serving the page; the status endpoint falls back to mock data
			slog.Error("could not open bus, running without hardware", "adapter", cfg.Adapter, "error", err)
		} else {
			d := parking.NewDevice(bus,
				parking.WithAddress(cfg.Address),
				parking.WithSettleDelay(cfg.SettleDelay),
			)
			defer d.Close()
			dev = d
		}
	}

	srv := NewServer(ServerConfig{Listen: cfg.HTTP.Listen, Version: version}, dev)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	select {
	case err := <-errCh:
		if err != nil {
			return cli.Exit(fmt.Sprintf("http server error: %s", err), 1)
		}
		return nil
	case <-c.Context.Done():
	}
	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
