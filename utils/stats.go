package utils

import (
	"sync"
	"time"
)

// Stats for performance monitoring. Update is called from the simulation
// goroutine while the host reads a Snapshot.
type Stats struct {
	mu sync.Mutex

	GenerationsPerSecond float64
	AveragePopulation    float64
	TotalGenerations     int
	StartTime            time.Time
	lastUpdate           time.Time
}

func NewStats() *Stats {
	now := time.Now()
	return &Stats{StartTime: now, lastUpdate: now}
}

// Update records a committed generation observed at now.
func (s *Stats) Update(generation int, population int, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalGenerations = generation
	if d := now.Sub(s.lastUpdate); d > 0 {
		s.GenerationsPerSecond = 1.0 / d.Seconds()
	}
	s.lastUpdate = now

	// Simple moving average for population
	if s.AveragePopulation == 0 {
		s.AveragePopulation = float64(population)
	} else {
		s.AveragePopulation = (s.AveragePopulation * 0.9) + (float64(population) * 0.1)
	}
}

// StatsSnapshot is a copy of Stats safe to read without locking.
type StatsSnapshot struct {
	GenerationsPerSecond float64
	AveragePopulation    float64
	TotalGenerations     int
	Runtime              time.Duration
}

// Snapshot copies the current figures.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		GenerationsPerSecond: s.GenerationsPerSecond,
		AveragePopulation:    s.AveragePopulation,
		TotalGenerations:     s.TotalGenerations,
		Runtime:              time.Since(s.StartTime),
	}
}
