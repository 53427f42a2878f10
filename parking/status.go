package parking

import (
	"context"
	"fmt"
)

// Status is the decoded content of the five status registers.
type Status struct {
	CarDetected    bool `json:"car_detected" yaml:"car_detected"`
	IsDark         bool `json:"is_dark" yaml:"is_dark"`
	ServoAngle     int  `json:"servo_angle" yaml:"servo_angle"`
	LEDRed         bool `json:"led_red" yaml:"led_red"`
	LEDGreen       bool `json:"led_green" yaml:"led_green"`
	LEDWhite       bool `json:"led_white" yaml:"led_white"`
	ReleaseCounter int  `json:"release_counter" yaml:"release_counter"`
}

// Snapshot is the result of one status poll. Status is nil when the slave reported
// no change since the last consumed poll; otherwise its fields are promoted into the
// JSON object next to "changed".
//
// The five registers are read one after another, so a snapshot is not atomic: a
// slave update landing between two reads yields a mix of old and new values. The
// next change flag converges it.
type Snapshot struct {
	Changed bool `json:"changed" yaml:"changed"`
	*Status `yaml:",omitempty"`
}

// statusRegisters are read in this order for every snapshot.
var statusRegisters = [...]Register{
	RegCarState,
	RegLightState,
	RegServoAngle,
	RegLEDState,
	RegReleaseCounter,
}

// StatusReader assembles snapshots from the register map using the change-flag
// handshake.
type StatusReader struct {
	regs RegisterAccess
}

func NewStatusReader(regs RegisterAccess) *StatusReader {
	return &StatusReader{regs: regs}
}

// GetAllStatus polls the slave.
//
// Without force, CHANGE_FLAG is read first; 0 ends the poll after that single read
// with Changed=false. Any value other than 0 or 1 is a transport fault matching
// ErrUnexpectedFlag and the flag is left untouched. A set flag is cleared before
// the status registers are read, so a fault during those reads loses the change
// notification: the returned error then also matches ErrPartialRead. With force the flag is neither read nor
// cleared and the five status registers are always read.
func (r *StatusReader) GetAllStatus(ctx context.Context, force bool) (Snapshot, error) {
	consumed := false
	if !force {
		flag, err := r.regs.ReadRegister(ctx, RegChangeFlag)
		if err != nil {
			return Snapshot{}, fmt.Errorf("could not check change flag: %w", err)
		}
		switch flag {
		case 0:
			return Snapshot{Changed: false}, nil
		case 1:
		default:
			return Snapshot{}, fmt.Errorf("%w: read %#02x", ErrUnexpectedFlag, flag)
		}
		err = r.regs.WriteRegister(ctx, RegChangeFlag, 0)
		if err != nil {
			// flag is still set, the next poll sees the change again
			return Snapshot{}, fmt.Errorf("could not clear change flag: %w", err)
		}
		consumed = true
	}

	var raw [len(statusRegisters)]byte
	for i, reg := range statusRegisters {
		value, err := r.regs.ReadRegister(ctx, reg)
		if err != nil {
			if consumed {
				return Snapshot{}, fmt.Errorf("%w: %w", ErrPartialRead, err)
			}
			return Snapshot{}, fmt.Errorf("could not read status: %w", err)
		}
		raw[i] = value
	}
	return Snapshot{Changed: true, Status: decodeStatus(raw)}, nil
}

func decodeStatus(raw [len(statusRegisters)]byte) *Status {
	red, green, white := DecodeLEDs(raw[3])
	return &Status{
		CarDetected:    raw[0] != 0,
		IsDark:         raw[1] != 0,
		ServoAngle:     int(raw[2]),
		LEDRed:         red,
		LEDGreen:       green,
		LEDWhite:       white,
		ReleaseCounter: int(raw[4]),
	}
}
