package i2c

import (
	"context"
	"fmt"
	"sync"

	"github.com/mklimuk/parkbay"
	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"gobot.io/x/gobot/v2/platforms/raspi"
)

// BoardConnector is the I2C part of a gobot board adaptor.
type BoardConnector interface {
	i2c.Connector
	Connect() error
	Finalize() error
}

var (
	_ parkbay.I2CBus         = &GobotBus{}
	_ parkbay.RegisterReader = &GobotBus{}
)

// GobotBus talks I2C through a gobot board adaptor. Connections are opened lazily,
// one per slave address, and kept until Close.
type GobotBus struct {
	mx      sync.Mutex
	board   BoardConnector
	busNr   int
	conns   map[byte]i2c.Connection
	started bool
}

// NewRaspiBus uses the Raspberry Pi adaptor on the given bus number.
func NewRaspiBus(busNr int) *GobotBus {
	return NewGobotBus(raspi.NewAdaptor().I2cBusAdaptor, busNr)
}

// NewNanoPiBus uses the FriendlyElec NanoPi NEO adaptor on the given bus number.
func NewNanoPiBus(busNr int) *GobotBus {
	return NewGobotBus(nanopi.NewNeoAdaptor().I2cBusAdaptor, busNr)
}

// NewGobotBus wraps board; a negative busNr selects the board's default bus.
func NewGobotBus(board BoardConnector, busNr int) *GobotBus {
	if busNr < 0 {
		busNr = board.DefaultI2cBus()
	}
	return &GobotBus{
		board: board,
		busNr: busNr,
		conns: make(map[byte]i2c.Connection),
	}
}

func (b *GobotBus) connection(address byte) (i2c.Connection, error) {
	if !b.started {
		if err := b.board.Connect(); err != nil {
			return nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		b.started = true
	}
	if conn, ok := b.conns[address]; ok {
		return conn, nil
	}
	conn, err := b.board.GetI2cConnection(int(address), b.busNr)
	if err != nil {
		return nil, fmt.Errorf("could not open connection to %#02x on bus %d: %w", address, b.busNr, err)
	}
	b.conns[address] = conn
	return conn, nil
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from %#02x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short read from %#02x: %d of %d bytes", address, n, len(buffer))
	}
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	if err := conn.WriteBytes(buffer); err != nil {
		return fmt.Errorf("could not write to %#02x: %w", address, err)
	}
	return nil
}

// ReadRegister uses SMBus "read byte data" for single registers and block reads
// otherwise.
func (b *GobotBus) ReadRegister(ctx context.Context, address byte, register byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	if len(buffer) == 1 {
		val, err := conn.ReadByteData(register)
		if err != nil {
			return fmt.Errorf("could not read register %#02x of %#02x: %w", register, address, err)
		}
		buffer[0] = val
		return nil
	}
	if err := conn.ReadBlockData(register, buffer); err != nil {
		return fmt.Errorf("could not read registers from %#02x of %#02x: %w", register, address, err)
	}
	return nil
}

func (b *GobotBus) Release(ctx context.Context) error {
	return nil
}

// Close drops every connection and finalizes the adaptor.
func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var firstErr error
	for addr, conn := range b.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("could not close connection to %#02x: %w", addr, err)
		}
		delete(b.conns, addr)
	}
	if b.started {
		b.started = false
		if err := b.board.Finalize(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("adaptor finalize error: %w", err)
		}
	}
	return firstErr
}
