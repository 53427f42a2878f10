// Package parkbay holds the bus abstractions shared by the parking slave driver
// and the concrete I2C transports.
package parkbay

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// RegisterReader is implemented by buses able to select a register and read it back
// in a single transaction (write, repeated start, read). Buses that cannot do that
// are driven with a separate index write followed by a read.
type RegisterReader interface {
	ReadRegister(ctx context.Context, address byte, register byte, buffer []byte) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
}
