package config

import (
	"fmt"
	"strings"

	"github.com/rmacdonaldsmith/aomesh/internal/evtpool"
	"github.com/rmacdonaldsmith/aomesh/internal/logging"
	"github.com/rmacdonaldsmith/aomesh/pkg/active"
	"github.com/rmacdonaldsmith/aomesh/pkg/event"
)

// maxSignalLimit is the largest signal range a Signal can express.
const maxSignalLimit = 1 << 16

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config key (e.g., "framework.max_signal")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if c.Framework.MaxSignal <= int(event.UserSignal) || c.Framework.MaxSignal > maxSignalLimit {
		add("framework.max_signal", c.Framework.MaxSignal,
			fmt.Sprintf("must be between %d and %d", event.UserSignal+1, maxSignalLimit))
	}
	if c.Framework.QueueLen <= 0 {
		add("framework.queue_len", c.Framework.QueueLen, "must be positive")
	}

	if len(c.Pools) > evtpool.MaxPools {
		add("pools", len(c.Pools), fmt.Sprintf("at most %d pools are supported", evtpool.MaxPools))
	}
	for i, p := range c.Pools {
		key := fmt.Sprintf("pools[%d]", i)
		if p.BlockSize <= 0 {
			add(key+".block_size", p.BlockSize, "must be positive")
		}
		if p.Blocks <= 0 {
			add(key+".blocks", p.Blocks, "must be positive")
		}
		if i > 0 && p.BlockSize < c.Pools[i-1].BlockSize {
			add(key+".block_size", p.BlockSize, "pools must be listed in ascending block size")
		}
	}

	if !logging.ValidLevel(c.Logging.Level) {
		add("logging.level", c.Logging.Level, "must be one of debug, info, warn, error")
	}
	switch strings.ToLower(c.Logging.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		add("logging.format", c.Logging.Format, "must be text or json")
	}

	if c.Demo.TickInterval <= 0 {
		add("demo.tick_interval", c.Demo.TickInterval, "must be positive")
	}
	if c.Demo.Workers < 0 || c.Demo.Workers > active.MaxActive-1 {
		add("demo.workers", c.Demo.Workers, fmt.Sprintf("must be between 0 and %d", active.MaxActive-1))
	}
	if c.Demo.ReportEvery <= 0 {
		add("demo.report_every", c.Demo.ReportEvery, "must be positive")
	}

	return errs
}
