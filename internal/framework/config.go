package framework

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rmacdonaldsmith/aomesh/internal/contract"
	"github.com/rmacdonaldsmith/aomesh/internal/evtpool"
	"github.com/rmacdonaldsmith/aomesh/pkg/event"
	"github.com/rmacdonaldsmith/aomesh/pkg/pubsub"
)

var (
	// ErrInvalidQueueLen is returned when the event queue capacity is not positive
	ErrInvalidQueueLen = errors.New("queue length must be positive")
	// ErrInvalidMaxSignal is returned when the signal range leaves no user signals
	ErrInvalidMaxSignal = errors.New("max signal must be greater than the first user signal")
)

// DefaultQueueLen is the event queue capacity of objects created by NewObject
const DefaultQueueLen = 32

// PoolSpec describes one event pool
type PoolSpec struct {
	BlockSize int
	Blocks    int
}

// Config represents configuration for a Runtime
type Config struct {
	// MaxSignal is the exclusive upper bound of the signal range
	MaxSignal event.Signal

	// QueueLen is the event queue capacity of objects created by NewObject
	QueueLen int

	// Pools are created in order; block sizes must be ascending
	Pools []PoolSpec

	// Tracer observes the publish-subscribe core (optional)
	Tracer pubsub.Tracer

	// Logger for the runtime and its active objects
	Logger *slog.Logger

	// OnViolation replaces the default contract violation handler (optional)
	OnViolation contract.Handler
}

// NewConfig creates a new Runtime configuration with safe defaults
func NewConfig(maxSignal event.Signal) *Config {
	c := &Config{MaxSignal: maxSignal}
	c.SetDefaults()
	return c
}

// SetDefaults fills in unset optional values
func (c *Config) SetDefaults() {
	if c.QueueLen == 0 {
		c.QueueLen = DefaultQueueLen
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.MaxSignal <= event.UserSignal {
		return ErrInvalidMaxSignal
	}
	if c.QueueLen <= 0 {
		return ErrInvalidQueueLen
	}
	if len(c.Pools) > evtpool.MaxPools {
		return fmt.Errorf("invalid pools: %w", evtpool.ErrTooManyPools)
	}
	for i, p := range c.Pools {
		if p.BlockSize <= 0 || p.Blocks <= 0 {
			return fmt.Errorf("invalid pool %d: %w", i+1, evtpool.ErrInvalidPoolConfig)
		}
		if i > 0 && p.BlockSize < c.Pools[i-1].BlockSize {
			return fmt.Errorf("invalid pool %d: %w", i+1, evtpool.ErrPoolOrder)
		}
	}
	return nil
}

// WithQueueLen sets the default queue capacity
func (c *Config) WithQueueLen(n int) *Config {
	c.QueueLen = n
	return c
}

// WithPool appends an event pool
func (c *Config) WithPool(blockSize, blocks int) *Config {
	c.Pools = append(c.Pools, PoolSpec{BlockSize: blockSize, Blocks: blocks})
	return c
}

// WithTracer sets the tracer
func (c *Config) WithTracer(t pubsub.Tracer) *Config {
	c.Tracer = t
	return c
}

// WithLogger sets the logger
func (c *Config) WithLogger(l *slog.Logger) *Config {
	c.Logger = l
	return c
}

// WithViolationHandler sets the contract violation handler
func (c *Config) WithViolationHandler(h contract.Handler) *Config {
	c.OnViolation = h
	return c
}
