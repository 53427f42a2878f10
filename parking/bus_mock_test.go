package parking

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockI2CBus is a mock implementation of parkbay.I2CBus using testify/mock.
// It does not implement parkbay.RegisterReader, so register reads go through the
// index write + read path.
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// overlapBus wraps a simulator and records the highest number of transactions
// seen in flight at once.
type overlapBus struct {
	*Simulator
	mu            sync.Mutex
	inFlight      int64
	maxConcurrent int64
}

func (b *overlapBus) enter() {
	n := atomic.AddInt64(&b.inFlight, 1)
	b.mu.Lock()
	if n > b.maxConcurrent {
		b.maxConcurrent = n
	}
	b.mu.Unlock()
}

func (b *overlapBus) leave() {
	atomic.AddInt64(&b.inFlight, -1)
}

func (b *overlapBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.enter()
	defer b.leave()
	return b.Simulator.WriteToAddr(ctx, address, buffer)
}

func (b *overlapBus) ReadRegister(ctx context.Context, address byte, register byte, buffer []byte) error {
	b.enter()
	defer b.leave()
	return b.Simulator.ReadRegister(ctx, address, register, buffer)
}

// regOp is one register access seen by recordingRegs.
type regOp struct {
	write bool
	reg   Register
	value byte
}

// recordingRegs wraps a RegisterAccess, logs every operation and lets a test run
// code right before a register is read.
type recordingRegs struct {
	next       RegisterAccess
	ops        []regOp
	beforeRead func(reg Register)
}

func (r *recordingRegs) ReadRegister(ctx context.Context, reg Register) (byte, error) {
	if r.beforeRead != nil {
		r.beforeRead(reg)
	}
	v, err := r.next.ReadRegister(ctx, reg)
	r.ops = append(r.ops, regOp{reg: reg, value: v})
	return v, err
}

func (r *recordingRegs) WriteRegister(ctx context.Context, reg Register, value byte) error {
	r.ops = append(r.ops, regOp{write: true, reg: reg, value: value})
	return r.next.WriteRegister(ctx, reg, value)
}

func newTestSim() (*Simulator, *Client) {
	sim := NewSimulator(DefaultAddress)
	return sim, NewClient(sim, WithSettleDelay(0))
}

// twoPhaseBus exposes a simulator without parkbay.RegisterReader and stamps every
// transaction, so a register read shows up as index write then data read.
type twoPhaseBus struct {
	sim    *Simulator
	writes []time.Time
	reads  []time.Time
}

func (b *twoPhaseBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.writes = append(b.writes, time.Now())
	return b.sim.WriteToAddr(ctx, address, buffer)
}

func (b *twoPhaseBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.reads = append(b.reads, time.Now())
	return b.sim.ReadFromAddr(ctx, address, buffer)
}

func (b *twoPhaseBus) Release(ctx context.Context) error {
	return nil
}
