package parking

import (
	"context"
	"errors"
	"time"
)

// StatusSource produces snapshots; StatusReader and Device implement it.
type StatusSource interface {
	GetAllStatus(ctx context.Context, force bool) (Snapshot, error)
}

// Sink receives the outcome of every poll cycle, faults included.
type Sink func(snapshot Snapshot, err error)

type MonitorOpts struct {
	Force bool
	Sink  Sink
}

type MonitorOpt func(*MonitorOpts)

func WithForce(force bool) MonitorOpt {
	return func(o *MonitorOpts) {
		o.Force = force
	}
}

func WithSink(sink Sink) MonitorOpt {
	return func(o *MonitorOpts) {
		if sink != nil {
			o.Sink = sink
		}
	}
}

// Monitor polls a StatusSource at a fixed cadence until its context is cancelled.
// It keeps no protocol state of its own.
type Monitor struct {
	src      StatusSource
	interval time.Duration
	config   MonitorOpts
}

func NewMonitor(src StatusSource, interval time.Duration, opts ...MonitorOpt) (*Monitor, error) {
	if interval <= 0 {
		return nil, errors.New("monitor: interval must be > 0")
	}
	config := MonitorOpts{
		Sink: func(Snapshot, error) {},
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Monitor{src: src, interval: interval, config: config}, nil
}

// Run polls, hands the result to the sink and sleeps, forever. Cancellation is only
// observed while sleeping: the poll itself runs on a context stripped of
// cancellation so a register sequence always completes or faults on its own.
// Run returns nil once ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	pollCtx := context.WithoutCancel(ctx)
	timer := time.NewTimer(m.interval)
	defer timer.Stop()
	for {
		snapshot, err := m.src.GetAllStatus(pollCtx, m.config.Force)
		m.config.Sink(snapshot, err)

		timer.Reset(m.interval)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
}
