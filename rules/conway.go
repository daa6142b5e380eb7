package rules

// Transition is the change a single position undergoes between two generations.
type Transition uint8

const (
	// Keep leaves the position in its current state.
	Keep Transition = iota
	// Revive turns a dead position alive.
	Revive
	// Kill turns a live position dead.
	Kill
)

/*
Evaluate applies Conway's Game of Life rules to one position of the current generation.

 1. Alive with fewer than 2 live neighbors dies.
 2. Alive with 2 or 3 live neighbors survives.
 3. Alive with more than 3 live neighbors dies.
 4. Dead with exactly 3 live neighbors becomes alive.

Anything else keeps its state.
*/
func Evaluate(alive bool, neighbors int) Transition {
	if alive {
		if neighbors < 2 || neighbors > 3 {
			return Kill
		}
		return Keep
	}
	if neighbors == 3 {
		return Revive
	}
	return Keep
}
