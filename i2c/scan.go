package i2c

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/mklimuk/parkbay"
)

// Addresses outside this range are reserved on an I2C bus.
const (
	FirstAddress byte = 0x03
	LastAddress  byte = 0x77
)

// Scan probes every address in [from, to] with a one byte read and returns those
// that acknowledged. It stops early when ctx is done.
func Scan(ctx context.Context, bus parkbay.AddressableReader, from, to byte) ([]byte, error) {
	if from < FirstAddress || to > LastAddress || from > to {
		return nil, fmt.Errorf("invalid scan range %#02x-%#02x", from, to)
	}
	var found []byte
	buf := make([]byte, 1)
	for addr := int(from); addr <= int(to); addr++ {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		if err := bus.ReadFromAddr(ctx, byte(addr), buf); err == nil {
			found = append(found, byte(addr))
		}
	}
	return found, nil
}

// WriteGrid prints found addresses the way i2cdetect does. Addresses in mark are
// followed by '*'.
func WriteGrid(w io.Writer, found []byte, mark ...byte) error {
	if _, err := fmt.Fprint(w, "    "); err != nil {
		return err
	}
	for col := 0; col < 0x10; col++ {
		fmt.Fprintf(w, "  %x", col)
	}
	fmt.Fprintln(w)
	for row := 0; row < 0x80; row += 0x10 {
		fmt.Fprintf(w, "%02x: ", row)
		for col := 0; col < 0x10; col++ {
			addr := byte(row + col)
			switch {
			case addr < FirstAddress || addr > LastAddress:
				fmt.Fprint(w, "   ")
			case !slices.Contains(found, addr):
				fmt.Fprint(w, "-- ")
			case slices.Contains(mark, addr):
				fmt.Fprintf(w, "%02x*", addr)
			default:
				fmt.Fprintf(w, "%02x ", addr)
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
