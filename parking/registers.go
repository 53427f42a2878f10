// Package parking drives the parking-bay slave: a software-emulated I2C peripheral
// exposing eight single-byte registers with car presence, ambient light, barrier servo,
// LED and counter state, plus a command register for manual servo override.
package parking

import "fmt"

const (
	DefaultAddress = 0x32
	DefaultBus     = 1
)

// Register is an index into the slave register map.
type Register byte

// Register map
//
//	0: car presence (0/1)
//	1: ambient light (1 = dark)
//	2: current servo angle (0-180), read-only view
//	3: LED bitmask (bit0 red, bit1 green, bit2 white)
//	4: release counter (0-100, the firmware saturates at 40)
//	5: system health code (0x01 = OK)
//	6: servo command (0-180 or 255), write-only
//	7: change flag, set by the slave, cleared by the master
const (
	RegCarState Register = iota
	RegLightState
	RegServoAngle
	RegLEDState
	RegReleaseCounter
	RegSystemStatus
	RegServoCommand
	RegChangeFlag
)

// Registers lists the whole map in index order.
var Registers = []Register{
	RegCarState,
	RegLightState,
	RegServoAngle,
	RegLEDState,
	RegReleaseCounter,
	RegSystemStatus,
	RegServoCommand,
	RegChangeFlag,
}

var registerNames = [...]string{
	RegCarState:       "CAR_STATE",
	RegLightState:     "LIGHT_STATE",
	RegServoAngle:     "SERVO_ANGLE",
	RegLEDState:       "LED_STATE",
	RegReleaseCounter: "RELEASE_COUNTER",
	RegSystemStatus:   "SYSTEM_STATUS",
	RegServoCommand:   "SERVO_COMMAND",
	RegChangeFlag:     "CHANGE_FLAG",
}

func (r Register) Valid() bool {
	return int(r) < len(registerNames)
}

func (r Register) String() string {
	if !r.Valid() {
		return fmt.Sprintf("REG_%#02x", byte(r))
	}
	return registerNames[r]
}

// LED_STATE bits
const (
	LEDRed   byte = 0x01
	LEDGreen byte = 0x02
	LEDWhite byte = 0x04
)

const (
	ServoMinAngle = 0
	ServoMaxAngle = 180
	// ServoAuto written to SERVO_COMMAND hands the barrier back to the slave's
	// car-presence logic. It is never a literal angle.
	ServoAuto = 255
)

const (
	SystemOK          byte = 0x01
	ReleaseCounterMax      = 100
)

// DecodeLEDs splits the LED_STATE bitmask into its three lamps.
func DecodeLEDs(state byte) (red, green, white bool) {
	return state&LEDRed != 0, state&LEDGreen != 0, state&LEDWhite != 0
}
