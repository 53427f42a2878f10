package parking

import (
	"context"
)

// StatusBehaviorFunc produces the result of a status poll.
type StatusBehaviorFunc func(ctx context.Context, force bool) (Snapshot, error)

// ServoBehaviorFunc handles a servo command that already passed validation.
type ServoBehaviorFunc func(ctx context.Context, value int) error

// MockDevice stands in for a Device without any bus. Servo values are validated
// exactly like the real commander before the behavior is called.
//
// Example usage:
//
//	dev := NewMockDevice(StaticStatus(DevelopmentSnapshot()), nil)
//
//	// fault simulation
//	dev := NewMockDevice(func(ctx context.Context, force bool) (Snapshot, error) {
//		return Snapshot{}, &RegisterError{Op: "read", Register: RegChangeFlag, Err: ErrNoAck}
//	}, nil)
type MockDevice struct {
	status StatusBehaviorFunc
	servo  ServoBehaviorFunc
}

// NewMockDevice creates a mock; a nil servo behavior accepts every valid command.
func NewMockDevice(status StatusBehaviorFunc, servo ServoBehaviorFunc) *MockDevice {
	if servo == nil {
		servo = func(context.Context, int) error { return nil }
	}
	return &MockDevice{status: status, servo: servo}
}

func (m *MockDevice) GetAllStatus(ctx context.Context, force bool) (Snapshot, error) {
	return m.status(ctx, force)
}

func (m *MockDevice) SetServoAngle(ctx context.Context, value int) error {
	if err := ValidateServoValue(value); err != nil {
		return err
	}
	return m.servo(ctx, value)
}

// StaticStatus always returns snapshot.
func StaticStatus(snapshot Snapshot) StatusBehaviorFunc {
	return func(context.Context, bool) (Snapshot, error) {
		return snapshot, nil
	}
}

// DevelopmentSnapshot is the fixed reading served when no hardware is attached:
// empty bay, daylight, barrier down, red lamp.
func DevelopmentSnapshot() Snapshot {
	return Snapshot{
		Changed: true,
		Status: &Status{
			CarDetected:    false,
			IsDark:         false,
			ServoAngle:     0,
			LEDRed:         true,
			LEDGreen:       false,
			LEDWhite:       false,
			ReleaseCounter: 0,
		},
	}
}
