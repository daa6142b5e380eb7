package simulation

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-gol-sim/model"
)

// stepSleeper hands control of every idle wait to the test.
type stepSleeper struct {
	entered chan time.Duration
	release chan struct{}
}

func newStepSleeper() *stepSleeper {
	return &stepSleeper{
		entered: make(chan time.Duration),
		release: make(chan struct{}),
	}
}

func (s *stepSleeper) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case s.entered <- d:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type countingStepper struct {
	calls atomic.Int64
}

func (c *countingStepper) AdvanceGeneration() error {
	c.calls.Add(1)
	return nil
}

// brokenStepper fails every generation, by error or by panic.
type brokenStepper struct {
	panics bool
	called chan struct{}
	once   sync.Once
}

func (b *brokenStepper) AdvanceGeneration() error {
	b.once.Do(func() { close(b.called) })
	if b.panics {
		panic("unreachable rule")
	}
	return errors.New("board corrupted")
}

func newTestSimulation(grid Stepper, sl Sleeper) *Simulation {
	return New(grid,
		WithSleeper(sl),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestStartRejectsNonPositiveRate(t *testing.T) {
	sim := newTestSimulation(&countingStepper{}, newStepSleeper())
	for _, rate := range []int{0, -5} {
		if err := sim.Start(rate); !errors.Is(err, model.ErrInvalidArgument) {
			t.Fatalf("Start(%d) = %v, want ErrInvalidArgument", rate, err)
		}
	}
	if sim.IsRunning() {
		t.Fatalf("simulation running after rejected start")
	}
}

func TestStepsAtConfiguredRate(t *testing.T) {
	var (
		grid = &countingStepper{}
		sl   = newStepSleeper()
		sim  = newTestSimulation(grid, sl)
	)

	var committed []int
	sim.OnGenerationCommitted(func(gen int) {
		committed = append(committed, gen)
	})

	if err := sim.Start(5); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !sim.IsRunning() {
		t.Fatalf("IsRunning() = false after Start")
	}

	if d := <-sl.entered; d != 200*time.Millisecond {
		t.Fatalf("idle wait = %v, want 200ms", d)
	}
	if got := sim.GenerationCount(); got != 1 {
		t.Fatalf("GenerationCount() = %d after first wait, want 1", got)
	}

	sl.release <- struct{}{}
	<-sl.entered
	if got := sim.GenerationCount(); got != 2 {
		t.Fatalf("GenerationCount() = %d after second wait, want 2", got)
	}

	if err := sim.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if sim.IsRunning() {
		t.Fatalf("IsRunning() = true after Stop")
	}
	if got := grid.calls.Load(); got != 2 {
		t.Fatalf("grid advanced %d times, want 2", got)
	}
	if len(committed) != 2 || committed[0] != 1 || committed[1] != 2 {
		t.Fatalf("committed notifications = %v, want [1 2]", committed)
	}
}

func TestStopRightAfterStart(t *testing.T) {
	sim := newTestSimulation(&countingStepper{}, newStepSleeper())
	if err := sim.Start(5); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := sim.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if sim.IsRunning() {
		t.Fatalf("IsRunning() = true after Stop")
	}
	// The loop may or may not have reached its first generation.
	if got := sim.GenerationCount(); got < 0 || got > 1 {
		t.Fatalf("GenerationCount() = %d, want 0 or 1", got)
	}
}

func TestInvalidStateTransitions(t *testing.T) {
	sl := newStepSleeper()
	sim := newTestSimulation(&countingStepper{}, sl)

	if err := sim.Stop(); !errors.Is(err, model.ErrInvalidState) {
		t.Fatalf("Stop while stopped = %v, want ErrInvalidState", err)
	}

	if err := sim.Start(10); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-sl.entered
	if err := sim.Start(10); !errors.Is(err, model.ErrInvalidState) {
		t.Fatalf("Start while running = %v, want ErrInvalidState", err)
	}
	if sim.Rate() != 10 {
		t.Fatalf("Rate() = %d, want 10", sim.Rate())
	}
	if err := sim.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestGenerationCountSurvivesRestart(t *testing.T) {
	sl := newStepSleeper()
	sim := newTestSimulation(&countingStepper{}, sl)

	for round := 1; round <= 2; round++ {
		if err := sim.Start(100); err != nil {
			t.Fatalf("Start round %d: %v", round, err)
		}
		<-sl.entered
		if err := sim.Stop(); err != nil {
			t.Fatalf("Stop round %d: %v", round, err)
		}
		if got := sim.GenerationCount(); got != round {
			t.Fatalf("GenerationCount() = %d after round %d", got, round)
		}
	}
}

func TestLoopFailureStopsSimulation(t *testing.T) {
	for name, panics := range map[string]bool{
		"error": false,
		"panic": true,
	} {
		t.Run(name, func(t *testing.T) {
			grid := &brokenStepper{panics: panics, called: make(chan struct{})}
			sim := newTestSimulation(grid, newStepSleeper())
			if err := sim.Start(5); err != nil {
				t.Fatalf("Start: %v", err)
			}
			<-grid.called
			if err := sim.Stop(); err == nil {
				t.Fatalf("Stop returned nil after a failed generation")
			}
			if sim.IsRunning() {
				t.Fatalf("IsRunning() = true after failure")
			}
			if sim.Err() == nil {
				t.Fatalf("Err() = nil after failure")
			}
			if sim.GenerationCount() != 0 {
				t.Fatalf("failed generation was counted")
			}
		})
	}
}

func TestDrivesRealGrid(t *testing.T) {
	grid := model.NewGrid()
	if err := grid.Create(5); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, row := range []int{1, 2, 3} {
		grid.SetCellState(row, 2, true)
	}

	sl := newStepSleeper()
	sim := newTestSimulation(grid, sl)
	if err := sim.Start(1); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-sl.entered
	if err := sim.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	for _, col := range []int{1, 2, 3} {
		if alive, _ := grid.CellState(2, col); !alive {
			t.Fatalf("blinker did not flip to horizontal at (2,%d)", col)
		}
	}
}

func TestTimerSleeperCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (timerSleeper{}).Sleep(ctx, time.Hour); err == nil {
		t.Fatalf("Sleep ignored a cancelled context")
	}
	if err := (timerSleeper{}).Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
}

func TestDoneAfterLoopFailure(t *testing.T) {
	var logs bytes.Buffer
	grid := &brokenStepper{called: make(chan struct{})}
	sim := New(grid,
		WithSleeper(newStepSleeper()),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)
	if sim.Done() != nil {
		t.Fatalf("Done() before Start should be nil")
	}
	if err := sim.Start(5); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-sim.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("Done() not closed after the loop failed")
	}
	if sim.IsRunning() {
		t.Fatalf("IsRunning() = true after the loop failed")
	}

	out := logs.String()
	if !strings.Contains(out, "board corrupted") {
		t.Fatalf("failure not logged: %q", out)
	}
	if strings.Contains(out, "runtime.") || strings.Contains(out, ".go:") {
		t.Fatalf("failure logged with a stack trace: %q", out)
	}

	if err := sim.Stop(); err == nil || !strings.Contains(err.Error(), "board corrupted") {
		t.Fatalf("Stop() = %v, want the loop failure", err)
	}
}

func TestDoneAfterStop(t *testing.T) {
	sl := newStepSleeper()
	sim := newTestSimulation(&countingStepper{}, sl)
	if err := sim.Start(5); err != nil {
		t.Fatalf("Start: %v", err)
	}
	done := sim.Done()
	<-sl.entered
	select {
	case <-done:
		t.Fatalf("Done() closed while running")
	default:
	}
	if err := sim.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	<-done
}
