package shutdown

//                                    Shutdown Coordinator
//
// The coordinator owns the process teardown. Components register named cleanup
// callbacks while the application starts; the first termination signal (or an
// explicit Trigger) freezes that registry, cancels the shared shutdown context so
// in-flight proxy operations abort, then runs every callback in registration
// order. A failing or panicking callback is logged and the sequence carries on.
// Once the last callback returns the coordinator logs completion and exits 0.
//
//	Running ──(first signal)──▶ ShuttingDown ──(callbacks done)──▶ Terminated

import (
	"context"
	"errors"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thushan/relay/internal/core/domain"
	"github.com/thushan/relay/internal/logger"
)

type State int32

const (
	StateRunning State = iota
	StateShuttingDown
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

const (
	DefaultTimeout  = 10 * time.Second
	ExitCodeSuccess = 0
)

// ErrRegistryFrozen is returned when a callback is registered after teardown began
var ErrRegistryFrozen = errors.New("shutdown registry is frozen")

// Callback is a single cleanup step. ctx expires when the overall shutdown
// timeout elapses.
type Callback func(ctx context.Context) error

type entry struct {
	fn   Callback
	name string
}

type Coordinator struct {
	logger  logger.StyledLogger
	ctx     context.Context
	cancel  context.CancelCauseFunc
	exit    func(int)
	done    chan struct{}
	signals map[os.Signal]struct{}
	entries []entry
	timeout time.Duration
	mu      sync.Mutex
	state   atomic.Int32
}

type Option func(*Coordinator)

// WithExitFunc replaces os.Exit, mostly so tests can observe the exit code
func WithExitFunc(fn func(int)) Option {
	return func(c *Coordinator) {
		c.exit = fn
	}
}

// WithTimeout bounds the whole callback sequence
func WithTimeout(timeout time.Duration) Option {
	return func(c *Coordinator) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func New(logger logger.StyledLogger, opts ...Option) *Coordinator {
	ctx, cancel := context.WithCancelCause(context.Background())

	c := &Coordinator{
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		exit:    os.Exit,
		done:    make(chan struct{}),
		signals: make(map[os.Signal]struct{}),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Context is cancelled, with domain.ErrShuttingDown as its cause, the moment
// teardown begins. Anything that should abort on shutdown derives from it.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// Done is closed once every callback has run, just before the process exits
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// OnShutdown appends a cleanup callback. Callbacks run in the order they were
// registered.
func (c *Coordinator) OnShutdown(name string, fn Callback) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() != StateRunning {
		return ErrRegistryFrozen
	}

	c.entries = append(c.entries, entry{name: name, fn: fn})
	c.logger.Debug("Shutdown callback registered", "callback", name, "position", len(c.entries))
	return nil
}

// Register subscribes to each signal through notifier. A signal kind that is
// already registered is skipped.
func (c *Coordinator) Register(notifier Notifier, signals ...os.Signal) {
	for _, sig := range signals {
		c.mu.Lock()
		_, exists := c.signals[sig]
		if !exists {
			c.signals[sig] = struct{}{}
		}
		c.mu.Unlock()

		if exists {
			continue
		}

		notifier.Subscribe(sig, func(received os.Signal) {
			c.Trigger(SignalName(received))
		})
	}
}

// Trigger starts teardown. Only the first call has any effect; it blocks until
// every callback has run and then hands control to the exit func.
func (c *Coordinator) Trigger(reason string) {
	c.mu.Lock()
	if !c.state.CompareAndSwap(int32(StateRunning), int32(StateShuttingDown)) {
		c.mu.Unlock()
		c.logger.Debug("Shutdown already in progress, ignoring", "reason", reason)
		return
	}
	entries := slices.Clone(c.entries)
	c.mu.Unlock()

	c.logger.InfoWithSignal("Shutting down...", reason)
	c.cancel(domain.ErrShuttingDown)

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	for _, e := range entries {
		c.run(ctx, e)
	}
	cancel()

	c.logger.Info("Exiting...")
	c.state.Store(int32(StateTerminated))
	close(c.done)
	c.exit(ExitCodeSuccess)
}

func (c *Coordinator) run(ctx context.Context, e entry) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("Error while shutting down", "callback", e.name, "panic", rec)
		}
	}()

	if err := e.fn(ctx); err != nil {
		c.logger.Error("Error while shutting down", "callback", e.name, "error", err)
		return
	}

	c.logger.Debug("Shutdown callback completed", "callback", e.name, "duration", time.Since(start))
}
