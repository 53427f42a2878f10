package i2c

import (
	"context"
	"fmt"
	"time"

	"github.com/mklimuk/parkbay"
	"github.com/mklimuk/parkbay/adapter"
	"github.com/mklimuk/parkbay/config"
	"github.com/mklimuk/parkbay/parking"
)

// SimPeriod is how often the simulated firmware runs its control loop.
const SimPeriod = 100 * time.Millisecond

// DefaultScene drives the simulated sensors: a car parks for 20s every 40s and it
// is dark between 19:00 and 07:00.
func DefaultScene(now time.Time) (carPresent, dark bool) {
	carPresent = now.Unix()/20%2 == 0
	dark = now.Hour() >= 19 || now.Hour() < 7
	return carPresent, dark
}

// Open builds the transport selected by cfg.Adapter. For the simulator, scene
// feeds the firmware loop until ctx is done; a nil scene means DefaultScene.
func Open(ctx context.Context, cfg config.Config, scene parking.SceneFunc) (parkbay.I2CBus, error) {
	switch cfg.Adapter {
	case config.AdapterPeriph:
		bus, err := NewGenericBus(cfg.Device)
		if err != nil {
			return nil, err
		}
		return bus, nil
	case config.AdapterRaspi:
		return NewRaspiBus(cfg.Bus), nil
	case config.AdapterNanoPi:
		return NewNanoPiBus(cfg.Bus), nil
	case config.AdapterMCP2221:
		return adapter.NewMCP2221(), nil
	case config.AdapterSim:
		if scene == nil {
			scene = DefaultScene
		}
		// the firmware answers at its fixed address whatever the config says
		sim := parking.NewSimulator(parking.DefaultAddress)
		sim.Step(scene(time.Now()))
		go sim.Run(ctx, SimPeriod, scene)
		return sim, nil
	}
	return nil, fmt.Errorf("unknown adapter %q", cfg.Adapter)
}
