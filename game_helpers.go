package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-gol-sim/game"
	"github.com/sheikhrachel/go-gol-sim/model"
	"github.com/sheikhrachel/go-gol-sim/simulation"
	"github.com/sheikhrachel/go-gol-sim/snapshot"
	"github.com/sheikhrachel/go-gol-sim/utils"
)

// loadConfig reads the configuration file, falling back to defaults when it
// does not exist
func loadConfig(path string, w io.Writer) (utils.Config, error) {
	config, err := utils.LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(w, "Using default configuration (%s not found)\n", path)
		return utils.DefaultConfig(), nil
	}
	return config, err
}

// initializeGame builds the game and fills the grid from a snapshot file or
// from seeded patterns
func initializeGame(config utils.Config, simOpts ...simulation.Option) (*game.Game, error) {
	g := game.New([]model.Option{
		model.WithWorkers(config.Workers),
		model.WithBoundedScan(config.UseBoundedScan),
	}, simOpts...)

	if err := g.NewGrid(config.Size); err != nil {
		return nil, errors.WithMessage(err, "[initializeGame] failed to create grid")
	}

	if config.SnapshotIn != "" {
		mode, err := snapshot.ParseMode(config.LoadMode)
		if err != nil {
			return nil, errors.WithMessage(err, "[initializeGame] invalid load mode")
		}
		if err := snapshot.LoadFile(config.SnapshotIn, g.Grid(), mode); err != nil {
			return nil, errors.WithMessage(err, "[initializeGame] failed to load snapshot")
		}
		return g, nil
	}

	if err := seedPatterns(g.Grid(), config); err != nil {
		return nil, errors.WithMessage(err, "[initializeGame] failed to seed grid")
	}
	return g, nil
}

// seedPatterns fills the grid with random life plus a few known patterns
func seedPatterns(grid *model.Grid, config utils.Config) error {
	if err := grid.Randomize(config.RandomDensity, config.Seed); err != nil {
		return err
	}

	size := grid.Size()
	if size < 10 {
		return nil
	}
	if err := grid.AddGlider(5, 5); err != nil {
		return err
	}
	if size >= 20 {
		if err := grid.AddGlider(5, size-8); err != nil {
			return err
		}
	}
	if err := grid.AddBlinker(size/4, size/4); err != nil {
		return err
	}
	if size >= 30 {
		return grid.AddBlinker(3*size/4, 3*size/4)
	}
	return nil
}

// displayGameInfo shows the initial game information
func displayGameInfo(w io.Writer, config utils.Config, grid *model.Grid) {
	fmt.Fprintf(w, "Grid: %dx%d | Rate: %d gen/sec | Bounded scan: %v | Initial living cells: %d\n",
		grid.Size(), grid.Size(), config.Rate, config.UseBoundedScan, grid.Population())
	fmt.Fprintln(w, "Press Ctrl+C to exit gracefully")
	fmt.Fprintln(w)
}

// monitor watches committed generations for the host's stop conditions.
// It is only used from the simulation goroutine.
type monitor struct {
	config        utils.Config
	stats         *utils.Stats
	history       model.History
	stagnantCount int
}

func newMonitor(config utils.Config, stats *utils.Stats) *monitor {
	return &monitor{config: config, stats: stats}
}

// observe records a committed generation and reports whether the host should stop
func (m *monitor) observe(generation int, grid *model.Grid) (livingCells int, status string, stop bool, reason string) {
	livingCells = grid.Population()
	m.stats.Update(generation, livingCells, time.Now())

	hash := grid.Hash()
	isStagnant := m.history.IsStagnant(hash)
	m.history.Record(hash)
	if isStagnant {
		m.stagnantCount++
	} else {
		m.stagnantCount = 0
	}

	status = "Active"
	if isStagnant {
		status = fmt.Sprintf("Stagnant (%d)", m.stagnantCount)
	}
	if livingCells == 0 {
		status = "Extinct"
	}

	stop, reason = checkStopConditions(livingCells, m.stagnantCount, generation, m.config)
	return livingCells, status, stop, reason
}

// checkStopConditions determines if the run should end
func checkStopConditions(livingCells, stagnantCount, generation int, config utils.Config) (bool, string) {
	if livingCells == 0 {
		return true, "extinction"
	}
	if config.StagnationThreshold > 0 && stagnantCount >= config.StagnationThreshold {
		return true, "stagnation detected"
	}
	if config.MaxGenerations > 0 && generation >= config.MaxGenerations {
		return true, fmt.Sprintf("reached maximum generations limit (%d)", config.MaxGenerations)
	}
	return false, ""
}

// displayGameStatus shows the current game status
func displayGameStatus(w io.Writer, generation, livingCells, size int, status string, stats utils.StatsSnapshot) {
	density := float64(livingCells) / float64(size*size) * 100

	fmt.Fprintf(w, "Gen: %d | Living: %d | Density: %.1f%% | Status: %s\n",
		generation, livingCells, density, status)
	fmt.Fprintf(w, "Performance: %.1f gen/sec | Avg Pop: %.1f | Runtime: %.1fs\n",
		stats.GenerationsPerSecond, stats.AveragePopulation, stats.Runtime.Seconds())
	fmt.Fprintln(w)
}

// renderFrame clears the terminal and draws the status lines and the grid
func renderFrame(renderer *model.TerminalRenderer, generation, livingCells int, status string, grid *model.Grid, stats utils.StatsSnapshot) error {
	if err := renderer.Clear(); err != nil {
		return err
	}
	displayGameStatus(renderer.Out, generation, livingCells, grid.Size(), status, stats)
	return renderer.Display(grid)
}
