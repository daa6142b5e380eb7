// Package snapshot converts a grid to and from its one-character-per-cell
// text form: '1' for alive, '0' for dead, row-major, no separators.
package snapshot

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-gol-sim/model"
)

const (
	aliveChar = '1'
	deadChar  = '0'
)

// Mode selects how a loaded snapshot combines with the current grid.
type Mode int

const (
	// Replace forces every cell not marked alive in the snapshot dead.
	Replace Mode = iota
	// Merge sets the marked cells alive and leaves the others untouched.
	Merge
)

// ParseMode maps "replace" and "merge" (or "add") to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "replace":
		return Replace, nil
	case "merge", "add":
		return Merge, nil
	}
	return Replace, errors.WithMessagef(model.ErrInvalidArgument, "[ParseMode] unknown load mode: %q", s)
}

func (m Mode) String() string {
	if m == Merge {
		return "merge"
	}
	return "replace"
}

// Encode renders a row-major pattern.
func Encode(pattern []bool) string {
	var b strings.Builder
	b.Grow(len(pattern))
	for _, alive := range pattern {
		if alive {
			b.WriteByte(aliveChar)
		} else {
			b.WriteByte(deadChar)
		}
	}
	return b.String()
}

// Decode parses a snapshot holding exactly cells characters.
func Decode(s string, cells int) ([]bool, error) {
	if len(s) != cells {
		return nil, errors.WithMessagef(model.ErrFormatMismatch, "[Decode] snapshot has %d cells, expected %d", len(s), cells)
	}
	pattern := make([]bool, cells)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case aliveChar:
			pattern[i] = true
		case deadChar:
		default:
			return nil, errors.WithMessagef(model.ErrFormatMismatch, "[Decode] invalid character %q at offset %d", s[i], i)
		}
	}
	return pattern, nil
}

// Save returns the snapshot of the grid's current generation.
func Save(g *model.Grid) (string, error) {
	pattern, err := g.Pattern()
	if err != nil {
		return "", errors.WithMessage(err, "[Save] failed to read grid")
	}
	return Encode(pattern), nil
}

// Load applies a snapshot to the grid. A grid that does not exist yet is
// created at model.DefaultSize first. A malformed snapshot leaves the grid
// untouched.
func Load(g *model.Grid, s string, mode Mode) error {
	if !g.Exists() {
		if err := g.Create(model.DefaultSize); err != nil {
			return errors.WithMessage(err, "[Load] failed to create grid")
		}
	}
	size := g.Size()
	pattern, err := Decode(s, size*size)
	if err != nil {
		return errors.WithMessagef(err, "[Load] snapshot does not fit %dx%d grid", size, size)
	}
	if err := g.LoadPattern(pattern, mode == Merge); err != nil {
		return errors.WithMessage(err, "[Load] failed to apply snapshot")
	}
	return nil
}
