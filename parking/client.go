package parking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklimuk/parkbay"
)

// DefaultSettleDelay is the pause the slave's bit-banged I2C handler needs after
// every transaction before it can decode the next one.
const DefaultSettleDelay = time.Millisecond

// RegisterAccess is the byte-level contract the status reader and the servo
// commander are built on. Client is the production implementation.
type RegisterAccess interface {
	ReadRegister(ctx context.Context, reg Register) (byte, error)
	WriteRegister(ctx context.Context, reg Register, value byte) error
}

type ClientConfig struct {
	Address     byte
	SettleDelay time.Duration
	Logger      *slog.Logger
}

type Option func(*ClientConfig)

func WithAddress(address byte) Option {
	return func(c *ClientConfig) {
		c.Address = address
	}
}

func WithSettleDelay(delay time.Duration) Option {
	return func(c *ClientConfig) {
		c.SettleDelay = delay
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *ClientConfig) {
		c.Logger = logger
	}
}

// Client reads and writes single registers of the slave at a fixed address.
// It is not safe for concurrent use; see Device for a serialized session.
type Client struct {
	transport parkbay.I2CBus
	address   byte
	settle    time.Duration
	log       *slog.Logger
	buf       []byte
}

var _ RegisterAccess = &Client{}

func NewClient(transport parkbay.I2CBus, opts ...Option) *Client {
	config := ClientConfig{
		Address:     DefaultAddress,
		SettleDelay: DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(&config)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		transport: transport,
		address:   config.Address,
		settle:    config.SettleDelay,
		log:       logger.With("addr", fmt.Sprintf("%#02x", config.Address)),
		buf:       make([]byte, 1),
	}
}

func (c *Client) Address() byte {
	return c.address
}

// ReadRegister reads one register. Bus failures come back as *RegisterError.
func (c *Client) ReadRegister(ctx context.Context, reg Register) (byte, error) {
	if !reg.Valid() {
		return 0, ErrInvalidRegister
	}
	var err error
	if rr, ok := c.transport.(parkbay.RegisterReader); ok {
		err = rr.ReadRegister(ctx, c.address, byte(reg), c.buf)
	} else {
		// index write and data read are two transactions, each needs the pause
		err = c.transport.WriteToAddr(ctx, c.address, []byte{byte(reg)})
		if err == nil {
			c.settleDown()
			err = c.transport.ReadFromAddr(ctx, c.address, c.buf)
		}
	}
	if err != nil {
		return 0, c.fault(ctx, "read", reg, err)
	}
	value := c.buf[0]
	c.log.Debug("register read", "reg", reg.String(), "value", value)
	c.settleDown()
	return value, nil
}

// WriteRegister writes one register. Bus failures come back as *RegisterError.
func (c *Client) WriteRegister(ctx context.Context, reg Register, value byte) error {
	if !reg.Valid() {
		return ErrInvalidRegister
	}
	err := c.transport.WriteToAddr(ctx, c.address, []byte{byte(reg), value})
	if err != nil {
		return c.fault(ctx, "write", reg, err)
	}
	c.log.Debug("register written", "reg", reg.String(), "value", value)
	c.settleDown()
	return nil
}

func (c *Client) fault(ctx context.Context, op string, reg Register, err error) error {
	c.log.Error("register "+op+" failed", "reg", reg.String(), "error", err)
	if errors.Is(err, parkbay.ErrBusBusy) {
		// leave the engine idle for whoever retries; the failed operation stays failed
		if rerr := c.transport.Release(ctx); rerr != nil {
			c.log.Warn("could not release bus", "error", rerr)
		}
	}
	return &RegisterError{Op: op, Address: c.address, Register: reg, Err: err}
}

// settleDown is a plain sleep: a started register sequence is never cut short by
// context cancellation.
func (c *Client) settleDown() {
	if c.settle > 0 {
		time.Sleep(c.settle)
	}
}
