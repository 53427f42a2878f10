package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/mklimuk/parkbay/parking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gobot "gobot.io/x/gobot/v2/drivers/i2c"
	"periph.io/x/conn/v3/physic"
)

// simConn exposes a simulator through the gobot connection contract. Only the
// operations GobotBus uses are implemented.
type simConn struct {
	gobot.Connection
	sim    *parking.Simulator
	addr   byte
	closed bool
}

func (c *simConn) Read(b []byte) (int, error) {
	if err := c.sim.ReadFromAddr(context.Background(), c.addr, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (c *simConn) WriteBytes(b []byte) error {
	return c.sim.WriteToAddr(context.Background(), c.addr, b)
}

func (c *simConn) ReadByteData(reg uint8) (uint8, error) {
	buf := make([]byte, 1)
	err := c.sim.ReadRegister(context.Background(), c.addr, reg, buf)
	return buf[0], err
}

func (c *simConn) ReadBlockData(reg uint8, b []byte) error {
	return c.sim.ReadRegister(context.Background(), c.addr, reg, b)
}

func (c *simConn) Close() error {
	c.closed = true
	return nil
}

type fakeBoard struct {
	sim        *parking.Simulator
	connected  int
	finalized  int
	connectErr error
	opened     []*simConn
	busNr      int
}

func (b *fakeBoard) GetI2cConnection(address int, busNr int) (gobot.Connection, error) {
	b.busNr = busNr
	conn := &simConn{sim: b.sim, addr: byte(address)}
	b.opened = append(b.opened, conn)
	return conn, nil
}

func (b *fakeBoard) DefaultI2cBus() int { return 1 }

func (b *fakeBoard) Connect() error {
	b.connected++
	return b.connectErr
}

func (b *fakeBoard) Finalize() error {
	b.finalized++
	return nil
}

func TestGobotBus_Device(t *testing.T) {
	sim := parking.NewSimulator(parking.DefaultAddress)
	sim.Step(true, false)
	board := &fakeBoard{sim: sim}
	bus := NewGobotBus(board, -1)
	dev := parking.NewDevice(bus, parking.WithSettleDelay(0))
	ctx := context.Background()

	snap, err := dev.GetAllStatus(ctx, false)
	require.NoError(t, err)
	require.True(t, snap.Changed)
	assert.True(t, snap.CarDetected)
	assert.Equal(t, parking.ServoMaxAngle, snap.ServoAngle)
	assert.Equal(t, byte(0), sim.Register(parking.RegChangeFlag))

	require.NoError(t, dev.SetServoAngle(ctx, 30))
	assert.Equal(t, byte(30), sim.Register(parking.RegServoCommand))

	assert.Equal(t, 1, board.connected)
	assert.Equal(t, 1, board.busNr)
	require.Len(t, board.opened, 1, "one connection per address")

	require.NoError(t, dev.Close())
	assert.True(t, board.opened[0].closed)
	assert.Equal(t, 1, board.finalized)
}

func TestGobotBus_RawReadWrite(t *testing.T) {
	sim := parking.NewSimulator(parking.DefaultAddress)
	bus := NewGobotBus(&fakeBoard{sim: sim}, 1)
	ctx := context.Background()

	require.NoError(t, bus.WriteToAddr(ctx, parking.DefaultAddress, []byte{byte(parking.RegSystemStatus)}))
	buf := make([]byte, 2)
	require.NoError(t, bus.ReadFromAddr(ctx, parking.DefaultAddress, buf))
	assert.Equal(t, []byte{parking.SystemOK, parking.ServoAuto}, buf)

	require.NoError(t, bus.ReadRegister(ctx, parking.DefaultAddress, byte(parking.RegSystemStatus), buf))
	assert.Equal(t, []byte{parking.SystemOK, parking.ServoAuto}, buf)

	err := bus.ReadFromAddr(ctx, 0x40, buf)
	assert.ErrorIs(t, err, parking.ErrNoAck)
}

func TestGobotBus_ConnectError(t *testing.T) {
	cause := errors.New("no i2c")
	board := &fakeBoard{sim: parking.NewSimulator(parking.DefaultAddress), connectErr: cause}
	bus := NewGobotBus(board, 1)

	err := bus.ReadFromAddr(context.Background(), parking.DefaultAddress, make([]byte, 1))
	assert.ErrorIs(t, err, cause)
	require.NoError(t, bus.Close())
	assert.Zero(t, board.finalized)
}

type failingBus struct {
	err error
}

func (b *failingBus) String() string                    { return "failing" }
func (b *failingBus) Tx(addr uint16, w, r []byte) error { return b.err }
func (b *failingBus) SetSpeed(f physic.Frequency) error { return b.err }
func (b *failingBus) Close() error                      { return nil }
