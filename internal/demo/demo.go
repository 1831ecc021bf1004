// Package demo is a small application used by "aomesh run": a ticker
// multicasts TICK events to a set of counting workers, the workers report
// their counts to a reporter and TERMINATE makes everyone unsubscribe.
package demo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rmacdonaldsmith/aomesh/internal/active"
	"github.com/rmacdonaldsmith/aomesh/internal/framework"
	activepkg "github.com/rmacdonaldsmith/aomesh/pkg/active"
	"github.com/rmacdonaldsmith/aomesh/pkg/event"
	"github.com/rmacdonaldsmith/aomesh/pkg/pubsub"
)

// Application signals
const (
	SigTick event.Signal = event.UserSignal + iota
	SigReport
	SigTerminate

	// MaxSignal is the smallest signal range that fits the demo
	MaxSignal
)

// Event sizes used to pick a pool
const (
	TickSize   = 8
	ReportSize = 24
)

// ReporterPriority is the priority of the reporter. Workers take the
// priorities above it.
const ReporterPriority activepkg.Priority = 1

var (
	// ErrInvalidInterval is returned when the tick interval is not positive
	ErrInvalidInterval = errors.New("tick interval must be positive")
	// ErrInvalidReportEvery is returned when report_every is not positive
	ErrInvalidReportEvery = errors.New("report every must be positive")
	// ErrTooManyWorkers is returned when the workers do not fit the priority range
	ErrTooManyWorkers = errors.New("too many workers")
	// ErrNoPool is returned when no event pool can hold a report
	ErrNoPool = errors.New("no event pool large enough for demo events")
)

// SignalName names the demo signals.
func SignalName(sig event.Signal) string {
	switch sig {
	case SigTick:
		return "TICK"
	case SigReport:
		return "REPORT"
	case SigTerminate:
		return "TERMINATE"
	default:
		return strconv.Itoa(int(sig))
	}
}

// Tick is the payload of a TICK event.
type Tick struct {
	Seq uint64
}

// Report is the payload of a REPORT event.
type Report struct {
	Worker string
	Ticks  uint64
}

// Config sizes the demo.
type Config struct {
	TickInterval time.Duration
	Workers      int
	ReportEvery  int
	Logger       *slog.Logger
}

// App is a running demo.
type App struct {
	config Config
	rt     *framework.Runtime
	ps     pubsub.PubSub
	logger *slog.Logger

	reporter *active.Object
	objects  []*active.Object

	ticks   atomic.Uint64
	dropped atomic.Uint64
	reports atomic.Uint64
}

// New creates the demo objects in rt and subscribes them. rt may already be
// started.
func New(rt *framework.Runtime, config Config) (*App, error) {
	if config.TickInterval <= 0 {
		return nil, ErrInvalidInterval
	}
	if config.ReportEvery <= 0 {
		return nil, ErrInvalidReportEvery
	}
	if config.Workers < 0 || config.Workers > activepkg.MaxActive-int(ReporterPriority) {
		return nil, fmt.Errorf("%w: %d", ErrTooManyWorkers, config.Workers)
	}
	if rt.PubSub().MaxSignal() < MaxSignal {
		return nil, fmt.Errorf("max signal must be at least %d", MaxSignal)
	}
	if !fits(rt, ReportSize) {
		return nil, ErrNoPool
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	a := &App{
		config: config,
		rt:     rt,
		ps:     rt.PubSub(),
		logger: config.Logger.With("component", "demo"),
	}

	reporter, err := rt.NewObject("reporter", ReporterPriority, a.report)
	if err != nil {
		return nil, err
	}
	a.reporter = reporter
	a.objects = append(a.objects, reporter)
	a.ps.Subscribe(reporter, SigReport)
	a.ps.Subscribe(reporter, SigTerminate)

	for i := 0; i < config.Workers; i++ {
		w := &worker{app: a, name: fmt.Sprintf("worker-%d", i+1)}
		o, err := rt.NewObject(w.name, ReporterPriority+activepkg.Priority(i+1), w.handle)
		if err != nil {
			return nil, err
		}
		w.self = o
		a.objects = append(a.objects, o)
		a.ps.Subscribe(o, SigTick)
		a.ps.Subscribe(o, SigTerminate)
	}
	return a, nil
}

func fits(rt *framework.Runtime, size int) bool {
	for _, s := range rt.PoolStats() {
		if s.BlockSize >= size {
			return true
		}
	}
	return false
}

// Run publishes a TICK every tick interval until ctx is done. Ticks are
// dropped rather than draining the last free block of the pool.
func (a *App) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.config.TickInterval)
	defer ticker.Stop()

	a.logger.Info("demo started", "workers", a.config.Workers, "interval", a.config.TickInterval)
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("demo stopped", "ticks", a.ticks.Load(), "dropped", a.dropped.Load())
			return nil
		case <-ticker.C:
			a.tick()
		}
	}
}

func (a *App) tick() {
	seq := a.ticks.Load() + 1
	e := a.rt.Pools().TryNew(SigTick, TickSize, 1, Tick{Seq: seq})
	if e == nil {
		a.dropped.Add(1)
		a.logger.Warn("event pool low, dropping tick", "seq", seq)
		return
	}
	a.ticks.Store(seq)
	a.ps.Publish(e, "ticker")
}

// Terminate asks every demo object to unsubscribe from all signals.
func (a *App) Terminate() {
	a.ps.Publish(event.New(SigTerminate, nil), "demo")
}

// Ticks returns the number of TICK events published.
func (a *App) Ticks() uint64 { return a.ticks.Load() }

// Dropped returns the number of ticks skipped because the pool ran low.
func (a *App) Dropped() uint64 { return a.dropped.Load() }

// Reports returns the number of REPORT events the reporter processed.
func (a *App) Reports() uint64 { return a.reports.Load() }

// Objects returns the reporter followed by the workers.
func (a *App) Objects() []*active.Object {
	return append([]*active.Object(nil), a.objects...)
}

func (a *App) report(_ context.Context, e *event.Event) {
	switch e.Sig {
	case SigReport:
		r := e.Payload.(Report)
		a.reports.Add(1)
		a.logger.Info("worker report", "worker", r.Worker, "ticks", r.Ticks)
	case SigTerminate:
		a.ps.UnsubscribeAll(a.reporter)
	}
}

type worker struct {
	app   *App
	name  string
	self  *active.Object
	count uint64
}

func (w *worker) handle(_ context.Context, e *event.Event) {
	switch e.Sig {
	case SigTick:
		w.count++
		if w.count%uint64(w.app.config.ReportEvery) == 0 {
			r := w.app.rt.Pools().New(SigReport, ReportSize, Report{Worker: w.name, Ticks: w.count})
			w.app.ps.Publish(r, w.name)
		}
	case SigTerminate:
		w.app.ps.UnsubscribeAll(w.self)
	}
}
