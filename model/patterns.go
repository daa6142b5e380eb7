package model

import (
	"math/rand/v2"

	"github.com/pkg/errors"
)

// AddGlider places a glider with its bounding box's top-left corner at (row, col).
// Cells falling outside the grid are skipped.
func (g *Grid) AddGlider(row, col int) error {
	pattern := [][]bool{
		{false, true, false},
		{false, false, true},
		{true, true, true},
	}
	return g.stamp(row, col, pattern)
}

// AddBlinker places a horizontal blinker starting at (row, col).
func (g *Grid) AddBlinker(row, col int) error {
	return g.stamp(row, col, [][]bool{{true, true, true}})
}

func (g *Grid) stamp(row, col int, pattern [][]bool) error {
	size := g.Size()
	if size == 0 {
		return errors.WithMessage(ErrInvalidState, "[stamp] grid has not been created")
	}

	full := make([]bool, size*size)
	for dr, cells := range pattern {
		for dc, alive := range cells {
			r, c := row+dr, col+dc
			if !alive || r < 0 || r >= size || c < 0 || c >= size {
				continue
			}
			full[r*size+c] = true
		}
	}
	return g.LoadPattern(full, true)
}

// Randomize replaces the grid with random live cells at the given density,
// deterministic for a given seed.
func (g *Grid) Randomize(density float64, seed int64) error {
	if density < 0 || density > 1 {
		return errors.WithMessagef(ErrInvalidArgument, "[Randomize] density must be within [0,1], got %v", density)
	}
	size := g.Size()
	if size == 0 {
		return errors.WithMessage(ErrInvalidState, "[Randomize] grid has not been created")
	}

	rng := rand.New(rand.NewPCG(uint64(seed), 0))
	pattern := make([]bool, size*size)
	for i := range pattern {
		pattern[i] = rng.Float64() < density
	}
	return g.LoadPattern(pattern, false)
}
