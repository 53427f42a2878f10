package parking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevice_MonitorReleasesBus(t *testing.T) {
	sim := NewSimulator(DefaultAddress)
	dev := NewDevice(sim, WithSettleDelay(0))
	ctx, cancel := context.WithCancel(context.Background())

	polls := 0
	err := dev.Monitor(ctx, time.Millisecond, false, func(s Snapshot, err error) {
		polls++
		cancel()
	})
	require.NoError(t, err)
	assert.Equal(t, 1, polls)
	_, _, closed := sim.Counters()
	assert.Equal(t, 1, closed)

	require.NoError(t, dev.Close())
	_, _, closed = sim.Counters()
	assert.Equal(t, 1, closed, "bus handle is released exactly once")
}

func TestDevice_MonitorReleasesBusOnBadInterval(t *testing.T) {
	sim := NewSimulator(DefaultAddress)
	dev := NewDevice(sim, WithSettleDelay(0))

	err := dev.Monitor(context.Background(), 0, false, nil)
	assert.Error(t, err)
	_, _, closed := sim.Counters()
	assert.Equal(t, 1, closed)
}

func TestDevice_Reset(t *testing.T) {
	sim := NewSimulator(DefaultAddress)
	dev := NewDevice(sim, WithSettleDelay(0))

	err := dev.Reset(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
	reads, writes, _ := sim.Counters()
	assert.Zero(t, reads)
	assert.Zero(t, writes)
}

func TestDevice_SystemStatusAndProbe(t *testing.T) {
	sim := NewSimulator(DefaultAddress)
	ctx := context.Background()

	dev := NewDevice(sim, WithSettleDelay(0))
	code, err := dev.SystemStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, SystemOK, code)
	assert.NoError(t, dev.Probe(ctx))

	absent := NewDevice(sim, WithAddress(0x33), WithSettleDelay(0))
	err = absent.Probe(ctx)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, ErrNoAck)
}

func TestDevice_ReadRegistersLeavesFlagSet(t *testing.T) {
	sim := NewSimulator(DefaultAddress)
	sim.Set(scenarioValues())
	dev := NewDevice(sim, WithSettleDelay(0))

	values := dev.ReadRegisters(context.Background())
	require.Len(t, values, 7)
	for _, v := range values {
		assert.NoError(t, v.Err)
		assert.NotEqual(t, RegServoCommand, v.Register)
	}
	assert.Equal(t, byte(90), values[RegServoAngle].Value)
	assert.Equal(t, RegChangeFlag, values[6].Register)
	assert.Equal(t, byte(1), values[6].Value)
	assert.Equal(t, byte(1), sim.Register(RegChangeFlag))
}

func TestDevice_SerializesTransactions(t *testing.T) {
	bus := &overlapBus{Simulator: NewSimulator(DefaultAddress)}
	dev := NewDevice(bus, WithSettleDelay(0))
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if i%2 == 0 {
					_, err := dev.GetAllStatus(ctx, j%2 == 0)
					assert.NoError(t, err)
				} else {
					assert.NoError(t, dev.SetServoAngle(ctx, j))
				}
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, bus.maxConcurrent, int64(1))
}
