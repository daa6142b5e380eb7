package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sheikhrachel/go-gol-sim/model"
)

// Stepper advances a board by one generation.
type Stepper interface {
	AdvanceGeneration() error
}

// Sleeper waits between generations. Sleep must return early with a non-nil
// error when ctx is cancelled.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// CommitFunc is called on the simulation goroutine after every committed generation.
type CommitFunc func(generation int)

// Option configures a Simulation.
type Option func(*Simulation)

// WithSleeper replaces the timer used for the idle wait between generations.
func WithSleeper(sl Sleeper) Option {
	return func(s *Simulation) {
		s.sleeper = sl
	}
}

// WithLogger sets the logger for lifecycle and failure records.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) {
		s.logger = l
	}
}

// Simulation runs a Stepper in the background at a fixed number of generations
// per second. It is either stopped or running.
//
// Start and Stop are serialized. Starting a running simulation or stopping a
// stopped one returns model.ErrInvalidState and changes nothing.
type Simulation struct {
	grid    Stepper
	sleeper Sleeper
	logger  *slog.Logger

	ctl     sync.Mutex
	group   *errgroup.Group
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error

	running    atomic.Bool
	rate       atomic.Int64
	generation atomic.Int64

	lisMu     sync.RWMutex
	listeners []CommitFunc
}

// New returns a stopped simulation driving grid.
func New(grid Stepper, opts ...Option) *Simulation {
	s := &Simulation{
		grid:    grid,
		sleeper: timerSleeper{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins advancing the grid ratePerSecond times per second. The first
// generation is computed right away; the generation count carries over from
// earlier runs.
func (s *Simulation) Start(ratePerSecond int) error {
	if ratePerSecond <= 0 {
		return errors.WithMessagef(model.ErrInvalidArgument, "[Start] rate must be positive, got %d", ratePerSecond)
	}

	s.ctl.Lock()
	defer s.ctl.Unlock()

	if s.running.Load() {
		return errors.WithMessage(model.ErrInvalidState, "[Start] simulation is already running")
	}
	// A loop that stopped itself after a failure still has to be joined.
	_ = s.reapLocked()

	ctx, cancel := context.WithCancel(context.Background())
	eg, ctx := errgroup.WithContext(ctx)
	interval := time.Second / time.Duration(ratePerSecond)

	done := make(chan struct{})
	s.group, s.cancel, s.done = eg, cancel, done
	s.rate.Store(int64(ratePerSecond))
	s.running.Store(true)
	eg.Go(func() error {
		defer close(done)
		return s.run(ctx, interval)
	})

	s.logger.Info("simulation started", "rate", ratePerSecond, "generation", s.GenerationCount())
	return nil
}

// Stop asks the loop to exit and waits for the generation in flight to
// finish. If the loop had already stopped because a generation failed, Stop
// returns that failure.
func (s *Simulation) Stop() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	if !s.running.Load() {
		if err := s.reapLocked(); err != nil {
			return err
		}
		return errors.WithMessage(model.ErrInvalidState, "[Stop] simulation is not running")
	}

	err := s.reapLocked()
	s.running.Store(false)
	s.logger.Info("simulation stopped", "generation", s.GenerationCount())
	return err
}

// reapLocked cancels and joins the loop goroutine, if any.
func (s *Simulation) reapLocked() error {
	if s.group == nil {
		return nil
	}
	s.cancel()
	err := s.group.Wait()
	s.group, s.cancel = nil, nil
	if err != nil {
		s.lastErr = err
		return errors.WithMessage(err, "[Stop] simulation loop failed")
	}
	return nil
}

func (s *Simulation) run(ctx context.Context, interval time.Duration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("[run] generation %d panicked: %v", s.GenerationCount()+1, r)
		}
		if err != nil {
			s.running.Store(false)
			s.logger.Error("simulation loop stopped", "generation", s.GenerationCount(), "err", err.Error())
		}
	}()

	for ctx.Err() == nil {
		if err := s.grid.AdvanceGeneration(); err != nil {
			return errors.WithMessagef(err, "[run] generation %d failed", s.GenerationCount()+1)
		}
		s.notify(int(s.generation.Add(1)))

		if s.sleeper.Sleep(ctx, interval) != nil {
			return nil
		}
	}
	return nil
}

// OnGenerationCommitted registers fn to be told about every committed
// generation. fn runs on the simulation goroutine and must not call Stop.
func (s *Simulation) OnGenerationCommitted(fn CommitFunc) {
	s.lisMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.lisMu.Unlock()
}

func (s *Simulation) notify(generation int) {
	s.lisMu.RLock()
	defer s.lisMu.RUnlock()
	for _, fn := range s.listeners {
		fn(generation)
	}
}

// IsRunning reports whether the background loop is active.
func (s *Simulation) IsRunning() bool { return s.running.Load() }

// Rate returns the generations per second of the latest Start, or 0.
func (s *Simulation) Rate() int { return int(s.rate.Load()) }

// GenerationCount returns how many generations have been committed.
func (s *Simulation) GenerationCount() int { return int(s.generation.Load()) }

// Done returns a channel closed when the loop of the latest Start exits,
// whether through Stop or a failed generation. It is nil before the first Start.
func (s *Simulation) Done() <-chan struct{} {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	return s.done
}

// Err returns the last loop failure, if any.
func (s *Simulation) Err() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	return s.lastErr
}

func (s *Simulation) String() string {
	state := "stopped"
	if s.IsRunning() {
		state = "running"
	}
	return fmt.Sprintf("simulation(%s, rate=%d, generation=%d)", state, s.Rate(), s.GenerationCount())
}
