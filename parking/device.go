package parking

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mklimuk/parkbay"
)

// Device is a session with one slave over one bus handle. Every exported operation
// holds the session lock for its whole register sequence, so a Device may be shared
// between goroutines (e.g. HTTP handlers) while the bus only ever sees one
// transaction at a time.
type Device struct {
	mx     sync.Mutex
	bus    parkbay.I2CBus
	client *Client
	reader *StatusReader
	servo  *ServoCommander

	closeOnce sync.Once
	closeErr  error
}

// NewDevice takes ownership of bus: Close (and Monitor on return) release it.
func NewDevice(bus parkbay.I2CBus, opts ...Option) *Device {
	client := NewClient(bus, opts...)
	return &Device{
		bus:    bus,
		client: client,
		reader: NewStatusReader(client),
		servo:  NewServoCommander(client),
	}
}

func (d *Device) Address() byte {
	return d.client.Address()
}

func (d *Device) GetAllStatus(ctx context.Context, force bool) (Snapshot, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.reader.GetAllStatus(ctx, force)
}

func (d *Device) SetServoAngle(ctx context.Context, value int) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.servo.SetServoAngle(ctx, value)
}

// SystemStatus returns the raw SYSTEM_STATUS health code (SystemOK when healthy).
func (d *Device) SystemStatus(ctx context.Context) (byte, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.client.ReadRegister(ctx, RegSystemStatus)
}

// Probe checks the slave answers at its address.
func (d *Device) Probe(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	_, err := d.client.ReadRegister(ctx, RegCarState)
	return err
}

// RegisterValue is one line of a register dump.
type RegisterValue struct {
	Register Register
	Value    byte
	Err      error
}

// ReadRegisters dumps the whole map except the write-only SERVO_COMMAND register,
// which the slave does not echo. The change flag is read but never cleared.
// Individual faults are reported per register.
func (d *Device) ReadRegisters(ctx context.Context) []RegisterValue {
	d.mx.Lock()
	defer d.mx.Unlock()
	res := make([]RegisterValue, 0, len(Registers))
	for _, reg := range Registers {
		if reg == RegServoCommand {
			continue
		}
		value, err := d.client.ReadRegister(ctx, reg)
		res = append(res, RegisterValue{Register: reg, Value: value, Err: err})
	}
	return res
}

// Reset always fails: the slave firmware has no reset command.
func (d *Device) Reset(ctx context.Context) error {
	return ErrResetUnsupported
}

// Monitor runs a polling loop on this session until ctx is cancelled and releases
// the bus before returning.
func (d *Device) Monitor(ctx context.Context, interval time.Duration, force bool, sink Sink) (err error) {
	defer func() {
		if cerr := d.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	m, err := NewMonitor(d, interval, WithForce(force), WithSink(sink))
	if err != nil {
		return err
	}
	return m.Run(ctx)
}

// Close releases the bus handle. It is safe to call more than once; the handle is
// closed exactly once.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.mx.Lock()
		defer d.mx.Unlock()
		if closer, ok := d.bus.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				d.closeErr = fmt.Errorf("could not close bus: %w", err)
			}
		}
	})
	return d.closeErr
}
