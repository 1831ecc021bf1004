package pubsub

import (
	"errors"
	"log/slog"
	"time"

	"github.com/rmacdonaldsmith/aomesh/internal/contract"
	"github.com/rmacdonaldsmith/aomesh/internal/critsec"
	"github.com/rmacdonaldsmith/aomesh/internal/sched"
	"github.com/rmacdonaldsmith/aomesh/pkg/active"
	"github.com/rmacdonaldsmith/aomesh/pkg/event"
	"github.com/rmacdonaldsmith/aomesh/pkg/pubsub"
)

var (
	// ErrInvalidMaxSignal is returned when the signal range leaves no user signals
	ErrInvalidMaxSignal = errors.New("max signal must be greater than the first user signal")
	// ErrNilDirectory is returned when no active object directory is configured
	ErrNilDirectory = errors.New("active object directory cannot be nil")
)

// Config represents configuration for the publish-subscribe core
type Config struct {
	// MaxSignal is the exclusive upper bound of the signal range.
	// Fixed for the lifetime of the PubSub.
	MaxSignal event.Signal

	// Directory resolves subscriber priorities to active objects
	Directory active.Directory

	// Scheduler is locked for the duration of each multicast
	Scheduler active.Scheduler

	// Critical protects registry rows. It must be the same critical section
	// used by Pool when both are supplied.
	Critical active.CriticalSection

	// Pool reference counts dynamic events
	Pool event.Pool

	// Tracer observes publishes and registry changes (optional)
	Tracer pubsub.Tracer

	// Logger for lifecycle messages
	Logger *slog.Logger

	// OnViolation replaces the default contract violation handler (optional)
	OnViolation contract.Handler

	// Clock timestamps trace records
	Clock func() time.Time
}

// NewConfig creates a new configuration with safe defaults
func NewConfig(maxSignal event.Signal, dir active.Directory) *Config {
	c := &Config{
		MaxSignal: maxSignal,
		Directory: dir,
	}
	c.SetDefaults()
	return c
}

// SetDefaults fills in the optional collaborators that are not set
func (c *Config) SetDefaults() {
	if c.Scheduler == nil {
		c.Scheduler = sched.Nop{}
	}
	if c.Critical == nil {
		c.Critical = &critsec.Mutex{}
	}
	if c.Pool == nil {
		c.Pool = event.NopPool{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.MaxSignal <= event.UserSignal {
		return ErrInvalidMaxSignal
	}
	if c.Directory == nil {
		return ErrNilDirectory
	}
	return nil
}

// WithScheduler sets the scheduler lock
func (c *Config) WithScheduler(s active.Scheduler) *Config {
	c.Scheduler = s
	return c
}

// WithCriticalSection sets the critical section
func (c *Config) WithCriticalSection(cs active.CriticalSection) *Config {
	c.Critical = cs
	return c
}

// WithPool sets the event pool
func (c *Config) WithPool(p event.Pool) *Config {
	c.Pool = p
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

// WithClock sets the clock used for trace records
func (c *Config) WithClock(now func() time.Time) *Config {
	c.Clock = now
	return c
}
