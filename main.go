package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/sheikhrachel/go-gol-sim/model"
	"github.com/sheikhrachel/go-gol-sim/simulation"
	"github.com/sheikhrachel/go-gol-sim/snapshot"
	"github.com/sheikhrachel/go-gol-sim/utils"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON configuration file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, logger); err != nil {
		logger.Error("game of life failed", "err", err.Error())
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	// Load configuration - fallback to defaults if file doesn't exist
	config, err := loadConfig(configPath, os.Stdout)
	if err != nil {
		return err
	}

	g, err := initializeGame(config, simulation.WithLogger(logger))
	if err != nil {
		return err
	}
	grid := g.Grid()
	displayGameInfo(os.Stdout, config, grid)

	var (
		stats     = utils.NewStats()
		mon       = newMonitor(config, stats)
		renderer  = &model.TerminalRenderer{Out: os.Stdout}
		rendering atomic.Bool
		finished  = make(chan string, 1)
	)
	rendering.Store(config.Render)

	g.OnGenerationCommitted(func(generation int) {
		livingCells, status, stop, reason := mon.observe(generation, grid)

		if rendering.Load() {
			if err := renderFrame(renderer, generation, livingCells, status, grid, stats.Snapshot()); err != nil {
				logger.Error("rendering disabled", "generation", generation, "err", err.Error())
				rendering.Store(false)
			}
		}

		if stop {
			select {
			case finished <- reason:
			default:
			}
		}
	})

	// Handle Ctrl+C gracefully
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := g.StartSimulation(config.Rate); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		fmt.Println("\n🛑 Shutting down gracefully...")
	case reason := <-finished:
		fmt.Printf("\n🏁 Stopping: %s\n", reason)
	case <-g.Simulation().Done():
		fmt.Println("\n💥 Simulation loop stopped unexpectedly")
	}

	if err := g.StopSimulation(); err != nil {
		return err
	}
	logger.Info("run finished", "simulation", g.Simulation().String())

	final := stats.Snapshot()
	fmt.Printf("Final stats: %d generations in %.1f seconds\n", g.Generation(), final.Runtime.Seconds())
	fmt.Printf("Average: %.1f gen/sec, %.1f avg population\n", final.GenerationsPerSecond, final.AveragePopulation)

	if config.SnapshotOut != "" {
		path, err := snapshot.SaveFile(config.SnapshotOut, grid)
		if err != nil {
			return err
		}
		fmt.Printf("Saved grid to %s\n", path)
	}
	return nil
}
