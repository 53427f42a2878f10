package parking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mklimuk/parkbay"
)

// ErrNoAck is returned by the simulator for transactions addressed elsewhere.
var ErrNoAck = errors.New("simulator: no acknowledge from address")

// releaseTicks is how many control cycles the firmware waits with a free bay
// before opening the barrier.
const releaseTicks = 40

var (
	_ parkbay.I2CBus         = &Simulator{}
	_ parkbay.RegisterReader = &Simulator{}
)

// Simulator emulates the slave on the bus side: a register file behind an index
// pointer that auto-increments on every data byte, the way the firmware's I2C
// handler does it. It also implements the firmware's control loop (Step) so the
// master can be exercised without hardware.
type Simulator struct {
	mx        sync.Mutex
	address   byte
	regs      [16]byte
	index     byte
	readFail  map[Register]error
	writeFail map[Register]error

	reads  int
	writes int
	closed int
}

func NewSimulator(address byte) *Simulator {
	s := &Simulator{
		address:   address,
		readFail:  make(map[Register]error),
		writeFail: make(map[Register]error),
	}
	s.regs[RegSystemStatus] = SystemOK
	s.regs[RegServoCommand] = ServoAuto
	return s
}

func (s *Simulator) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if address != s.address {
		return fmt.Errorf("%w %#02x", ErrNoAck, address)
	}
	if len(buffer) == 0 {
		return nil
	}
	s.index = buffer[0] & 0x0F
	for _, b := range buffer[1:] {
		if err := s.writeFail[Register(s.index)]; err != nil {
			return err
		}
		s.regs[s.index] = b
		s.writes++
		s.index = (s.index + 1) & 0x0F
	}
	return nil
}

func (s *Simulator) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if address != s.address {
		return fmt.Errorf("%w %#02x", ErrNoAck, address)
	}
	return s.read(buffer)
}

func (s *Simulator) ReadRegister(ctx context.Context, address byte, register byte, buffer []byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if address != s.address {
		return fmt.Errorf("%w %#02x", ErrNoAck, address)
	}
	s.index = register & 0x0F
	return s.read(buffer)
}

func (s *Simulator) read(buffer []byte) error {
	for i := range buffer {
		if err := s.readFail[Register(s.index)]; err != nil {
			return err
		}
		buffer[i] = s.regs[s.index]
		s.reads++
		s.index = (s.index + 1) & 0x0F
	}
	return nil
}

func (s *Simulator) Release(ctx context.Context) error {
	return nil
}

func (s *Simulator) Close() error {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.closed++
	return nil
}

// FailRead makes every read of reg fail with err; a nil err clears the fault.
func (s *Simulator) FailRead(reg Register, err error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err == nil {
		delete(s.readFail, reg)
		return
	}
	s.readFail[reg] = err
}

// FailWrite makes every write of reg fail with err; a nil err clears the fault.
func (s *Simulator) FailWrite(reg Register, err error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err == nil {
		delete(s.writeFail, reg)
		return
	}
	s.writeFail[reg] = err
}

// Register returns the raw register content as the slave sees it.
func (s *Simulator) Register(reg Register) byte {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.regs[reg&0x0F]
}

// Set updates registers from the slave side and raises the change flag when any
// value actually changed.
func (s *Simulator) Set(values map[Register]byte) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.set(values)
}

func (s *Simulator) set(values map[Register]byte) {
	changed := false
	for reg, v := range values {
		if s.regs[reg&0x0F] != v {
			s.regs[reg&0x0F] = v
			changed = true
		}
	}
	if changed {
		s.regs[RegChangeFlag] = 1
	}
}

// Counters returns the number of register bytes read and written by the master
// and how many times the bus was closed.
func (s *Simulator) Counters() (reads, writes, closed int) {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.reads, s.writes, s.closed
}

func (s *Simulator) ResetCounters() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.reads, s.writes = 0, 0
}

// Step runs one iteration of the firmware control loop: white lamp follows the
// light sensor, an occupied bay closes the barrier and lights red, a bay free for
// releaseTicks cycles opens the barrier and lights green. A manual servo command
// overrides the barrier angle until ServoAuto is written.
func (s *Simulator) Step(carPresent, dark bool) {
	s.mx.Lock()
	defer s.mx.Unlock()
	next := map[Register]byte{
		RegCarState:   boolByte(carPresent),
		RegLightState: boolByte(dark),
	}
	leds := s.regs[RegLEDState] &^ LEDWhite
	if dark {
		leds |= LEDWhite
	}
	angle := s.regs[RegServoAngle]
	counter := s.regs[RegReleaseCounter]
	if carPresent {
		leds = leds&^LEDGreen | LEDRed
		angle = ServoMaxAngle
		counter = 0
	} else if counter < releaseTicks {
		counter++
	} else {
		leds = leds&^LEDRed | LEDGreen
		angle = ServoMinAngle
	}
	if cmd := s.regs[RegServoCommand]; cmd != ServoAuto && cmd <= ServoMaxAngle {
		angle = cmd
	}
	next[RegLEDState] = leds
	next[RegServoAngle] = angle
	next[RegReleaseCounter] = counter
	s.set(next)
}

// SceneFunc tells the simulated firmware what its sensors see.
type SceneFunc func(now time.Time) (carPresent, dark bool)

// Run steps the firmware every period until ctx is done.
func (s *Simulator) Run(ctx context.Context, period time.Duration, scene SceneFunc) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Step(scene(now))
		}
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
