package adapter

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/mklimuk/parkbay"
	"github.com/mklimuk/parkbay/parking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bridge emulates the MCP2221 command set on top of a simulated slave.
type bridge struct {
	sim     *parking.Simulator
	busy    bool
	pending []byte
	readErr bool
	last    []byte
	reply   []byte
	opens   int
	closes  int
}

func (b *bridge) open() (HIDDevice, error) {
	b.opens++
	return b, nil
}

func (b *bridge) Write(p []byte) (int, error) {
	b.last = append([]byte(nil), p...)
	b.reply = make([]byte, reportSize)
	b.reply[0] = p[0]
	size := int(binary.LittleEndian.Uint16(p[1:3]))
	addr := p[3] >> 1
	switch p[0] {
	case cmdWriteData:
		if b.busy {
			b.reply[1] = respEngineBusy
			break
		}
		if err := b.sim.WriteToAddr(context.Background(), addr, p[4:4+size]); err != nil {
			b.reply[1] = respEngineBusy
		}
	case cmdReadData:
		b.pending = make([]byte, size)
		if err := b.sim.ReadFromAddr(context.Background(), addr, b.pending); err != nil {
			b.readErr = true
		}
	case cmdGetReadData:
		if b.readErr {
			b.reply[1] = respReadFailure
			b.readErr = false
			break
		}
		b.reply[3] = byte(len(b.pending))
		copy(b.reply[4:], b.pending)
	case cmdStatus:
		if p[2] == subCancelTxfer {
			b.busy = false
		}
		b.reply[13] = 3
		b.reply[16] = 0x64
	}
	return len(p), nil
}

func (b *bridge) Read(p []byte) (int, error) {
	return copy(p, b.reply), nil
}

func (b *bridge) Close() error {
	b.closes++
	return nil
}

func newBridge() (*bridge, *MCP2221) {
	b := &bridge{sim: parking.NewSimulator(parking.DefaultAddress)}
	return b, NewMCP2221(WithOpener(b.open), WithResponseWait(0))
}

func TestMCP2221_DrivesSlave(t *testing.T) {
	b, bus := newBridge()
	b.sim.Step(true, true)
	dev := parking.NewDevice(bus, parking.WithSettleDelay(0))
	ctx := context.Background()

	snap, err := dev.GetAllStatus(ctx, false)
	require.NoError(t, err)
	require.True(t, snap.Changed)
	assert.True(t, snap.CarDetected)
	assert.True(t, snap.IsDark)
	assert.True(t, snap.LEDWhite)

	require.NoError(t, dev.SetServoAngle(ctx, 120))
	assert.Equal(t, byte(120), b.sim.Register(parking.RegServoCommand))
	assert.Equal(t, []byte{cmdWriteData, 2, 0, parking.DefaultAddress << 1, byte(parking.RegServoCommand), 120}, b.last[:6])
	assert.Equal(t, b.opens, b.closes)
}

func TestMCP2221_BusyReleases(t *testing.T) {
	b, bus := newBridge()
	b.busy = true
	dev := parking.NewDevice(bus, parking.WithSettleDelay(0))

	err := dev.SetServoAngle(context.Background(), 10)
	assert.ErrorIs(t, err, parkbay.ErrBusBusy)
	assert.ErrorIs(t, err, parking.ErrTransport)
	assert.False(t, b.busy, "client releases the engine after a busy fault")

	require.NoError(t, dev.SetServoAngle(context.Background(), 10))
}

func TestMCP2221_ReadFailure(t *testing.T) {
	_, bus := newBridge()
	err := bus.ReadFromAddr(context.Background(), 0x10, make([]byte, 1))
	assert.Error(t, err)
}

func TestMCP2221_Status(t *testing.T) {
	_, bus := newBridge()
	status, err := bus.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, status.I2CDataBufferCounter)
	assert.Equal(t, "6400", status.CurrentAddress)
}

func TestMCP2221_OpenFailure(t *testing.T) {
	bus := NewMCP2221(WithOpener(func() (HIDDevice, error) { return nil, ErrDeviceNotFound }))
	err := bus.WriteToAddr(context.Background(), 0x32, []byte{0})
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

type shortDevice struct{ bridge }

func (s *shortDevice) Write(p []byte) (int, error) { return 10, nil }

func TestMCP2221_ShortWrite(t *testing.T) {
	dev := &shortDevice{}
	bus := NewMCP2221(WithOpener(func() (HIDDevice, error) { return dev, nil }), WithResponseWait(0))
	_, err := bus.Status(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDeviceNotFound))
	assert.Contains(t, err.Error(), "short write")
}
