package parking

import (
	"context"
	"fmt"
)

// ServoCommander writes the SERVO_COMMAND register.
//
// Writing an angle puts the slave in manual override: the barrier holds that angle
// regardless of car presence until ServoAuto is written. The slave does not echo
// the mode back, so nothing here verifies it.
type ServoCommander struct {
	regs RegisterAccess
}

func NewServoCommander(regs RegisterAccess) *ServoCommander {
	return &ServoCommander{regs: regs}
}

// ValidateServoValue accepts 0-180 and the ServoAuto sentinel.
func ValidateServoValue(value int) error {
	if value == ServoAuto {
		return nil
	}
	if value < ServoMinAngle || value > ServoMaxAngle {
		return fmt.Errorf("%w: got %d", ErrInvalidAngle, value)
	}
	return nil
}

// SetServoAngle validates value locally and writes it. Rejected values never reach
// the bus.
func (s *ServoCommander) SetServoAngle(ctx context.Context, value int) error {
	if err := ValidateServoValue(value); err != nil {
		return err
	}
	err := s.regs.WriteRegister(ctx, RegServoCommand, byte(value))
	if err != nil {
		return fmt.Errorf("could not send servo command %d: %w", value, err)
	}
	return nil
}

// ResumeAutomatic releases a manual override.
func (s *ServoCommander) ResumeAutomatic(ctx context.Context) error {
	return s.SetServoAngle(ctx, ServoAuto)
}
