package model

// Cell is a single grid position. Its position never changes; only the alive
// state does. Cells are owned by a Grid and synchronize through it.
type Cell struct {
	grid     *Grid
	row, col int
	alive    bool
}

// Row returns the cell's row.
func (c *Cell) Row() int { return c.row }

// Col returns the cell's column.
func (c *Cell) Col() int { return c.col }

// Alive returns the current state of the cell.
func (c *Cell) Alive() bool {
	c.grid.mu.RLock()
	defer c.grid.mu.RUnlock()
	return c.alive
}

// SetAlive sets the state of the cell. Subscribers of the owning grid are
// notified only when the state actually changes.
func (c *Cell) SetAlive(alive bool) {
	c.grid.setCell(c, alive)
}

// Toggle flips the state of the cell.
func (c *Cell) Toggle() {
	c.grid.toggleCell(c)
}

// set stores the new state and reports whether it differs from the old one.
// The caller must hold the grid lock.
func (c *Cell) set(alive bool) bool {
	if c.alive == alive {
		return false
	}
	c.alive = alive
	return true
}

func (c *Cell) state() CellState {
	return CellState{Row: c.row, Col: c.col, Alive: c.alive}
}
