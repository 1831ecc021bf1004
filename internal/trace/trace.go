// Package trace provides pubsub.Tracer implementations.
package trace

import (
	"log/slog"
	"strconv"

	"github.com/rmacdonaldsmith/aomesh/pkg/event"
	"github.com/rmacdonaldsmith/aomesh/pkg/pubsub"
)

// SignalNamer turns a signal into a human readable name.
type SignalNamer func(event.Signal) string

// Numeric names signals by their number.
func Numeric(sig event.Signal) string {
	return strconv.Itoa(int(sig))
}

// Multi fans records out to several tracers. Nil tracers are skipped.
type Multi []pubsub.Tracer

// NewMulti returns a Multi without the nil entries of tracers.
func NewMulti(tracers ...pubsub.Tracer) Multi {
	out := make(Multi, 0, len(tracers))
	for _, t := range tracers {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

func (m Multi) OnPublish(r pubsub.PublishRecord) {
	for _, t := range m {
		t.OnPublish(r)
	}
}

func (m Multi) OnSubscribe(r pubsub.SubscriptionRecord) {
	for _, t := range m {
		t.OnSubscribe(r)
	}
}

func (m Multi) OnUnsubscribe(r pubsub.SubscriptionRecord) {
	for _, t := range m {
		t.OnUnsubscribe(r)
	}
}

// Logger writes trace records as debug level log entries.
type Logger struct {
	logger *slog.Logger
	name   SignalNamer
}

// NewLogger creates a logging tracer. A nil namer uses Numeric.
func NewLogger(logger *slog.Logger, name SignalNamer) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if name == nil {
		name = Numeric
	}
	return &Logger{logger: logger, name: name}
}

func (l *Logger) OnPublish(r pubsub.PublishRecord) {
	l.logger.Debug("publish",
		"ts", r.Time,
		"sender", r.Sender,
		"signal", l.name(r.Signal),
		"pool", r.PoolID,
		"refs", r.RefCount)
}

func (l *Logger) OnSubscribe(r pubsub.SubscriptionRecord) {
	l.logger.Debug("subscribe",
		"ts", r.Time,
		"priority", int(r.Priority),
		"signal", l.name(r.Signal))
}

func (l *Logger) OnUnsubscribe(r pubsub.SubscriptionRecord) {
	l.logger.Debug("unsubscribe",
		"ts", r.Time,
		"priority", int(r.Priority),
		"signal", l.name(r.Signal))
}

var (
	_ pubsub.Tracer = Multi(nil)
	_ pubsub.Tracer = (*Logger)(nil)
)
