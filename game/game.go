// Package game bundles one grid and the simulation driving it behind the
// commands a display layer issues.
package game

import (
	"iter"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-gol-sim/model"
	"github.com/sheikhrachel/go-gol-sim/simulation"
	"github.com/sheikhrachel/go-gol-sim/snapshot"
)

// Game owns a grid and its simulation.
type Game struct {
	grid *model.Grid
	sim  *simulation.Simulation
}

// New returns a game over a grid that has not been created yet.
func New(gridOpts []model.Option, simOpts ...simulation.Option) *Game {
	grid := model.NewGrid(gridOpts...)
	return &Game{
		grid: grid,
		sim:  simulation.New(grid, simOpts...),
	}
}

// Grid exposes the underlying grid.
func (g *Game) Grid() *model.Grid { return g.grid }

// Simulation exposes the underlying simulation.
func (g *Game) Simulation() *simulation.Simulation { return g.sim }

// NewGrid creates the grid, or clears it in place when the size is unchanged.
func (g *Game) NewGrid(size int) error {
	if err := g.grid.Create(size); err != nil {
		return errors.WithMessage(err, "[NewGrid]")
	}
	return nil
}

// ToggleCell flips the cell at (row, col) and returns its new state.
func (g *Game) ToggleCell(row, col int) (bool, error) {
	return g.grid.ToggleCell(row, col)
}

// GridSnapshot returns every cell in row-major order for a redraw.
func (g *Game) GridSnapshot() iter.Seq[model.CellState] {
	return g.grid.All()
}

// OnGenerationCommitted registers fn for every committed generation. fn runs
// on the simulation goroutine and must not call StopSimulation.
func (g *Game) OnGenerationCommitted(fn simulation.CommitFunc) {
	g.sim.OnGenerationCommitted(fn)
}

// OnCellChanged registers fn for every cell that changes state. While the
// simulation runs, fn is called on the simulation goroutine and must not call
// StopSimulation.
func (g *Game) OnCellChanged(fn func(model.CellState)) (unsubscribe func()) {
	return g.grid.Subscribe(fn)
}

// StartSimulation runs the simulation at rate generations per second.
func (g *Game) StartSimulation(rate int) error {
	if !g.grid.Exists() {
		return errors.WithMessage(model.ErrInvalidState, "[StartSimulation] create a grid first")
	}
	return g.sim.Start(rate)
}

// StopSimulation stops the simulation and waits for the current generation.
func (g *Game) StopSimulation() error {
	return g.sim.Stop()
}

// IsRunning reports whether the simulation is running.
func (g *Game) IsRunning() bool { return g.sim.IsRunning() }

// Generation returns the number of committed generations.
func (g *Game) Generation() int { return g.sim.GenerationCount() }

// SaveSnapshot encodes the current generation.
func (g *Game) SaveSnapshot() (string, error) {
	return snapshot.Save(g.grid)
}

// LoadSnapshot applies an encoded snapshot. A rejected snapshot leaves the
// grid untouched and is returned for the display layer to report.
func (g *Game) LoadSnapshot(s string, mode snapshot.Mode) error {
	return snapshot.Load(g.grid, s, mode)
}
