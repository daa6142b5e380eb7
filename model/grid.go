package model

import (
	"crypto/md5"
	"fmt"
	"iter"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sheikhrachel/go-gol-sim/rules"
)

// DefaultSize is the row and column count of a grid created without an explicit size.
const DefaultSize = 125

// CellState is the state of one position, as seen by a reader or a subscriber.
type CellState struct {
	Row, Col int
	Alive    bool
}

// Option configures a Grid.
type Option func(*Grid)

// WithWorkers sets how many goroutines stage a generation. Values below 1 use runtime.NumCPU.
func WithWorkers(n int) Option {
	return func(g *Grid) {
		if n < 1 {
			n = runtime.NumCPU()
		}
		g.workers = n
	}
}

// WithBoundedScan restricts generation scans to the live region plus a one-cell margin.
func WithBoundedScan(enabled bool) Option {
	return func(g *Grid) {
		g.bounded = enabled
	}
}

// Grid is a fixed-size, non-toroidal Game of Life board.
//
// All access goes through mu. AdvanceGeneration stages and commits a whole
// generation under the write lock, so readers only ever observe committed
// generations.
type Grid struct {
	mu     sync.RWMutex
	size   int
	cells  [][]*Cell
	exists bool

	workers int
	bounded bool
	pool    *transitionPool

	// Superset of the positions holding live cells
	active struct {
		minRow, maxRow, minCol, maxCol int
		any                            bool
	}

	// Transitions staged during the current scan
	toRevive []Position
	toKill   []Position

	subMu   sync.Mutex
	subs    map[int]func(CellState)
	nextSub int
}

// NewGrid returns a grid that has not been created yet. Call Create before use.
func NewGrid(opts ...Option) *Grid {
	g := &Grid{
		workers: runtime.NumCPU(),
		bounded: true,
		pool:    newTransitionPool(),
		subs:    make(map[int]func(CellState)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Create allocates a size x size grid of dead cells. If a grid of the same
// size already exists, every cell is reset to dead in place and existing
// *Cell references stay valid.
func (g *Grid) Create(size int) error {
	if size <= 0 {
		return errors.WithMessagef(ErrInvalidArgument, "[Create] grid size must be positive, got %d", size)
	}

	g.mu.Lock()
	var changes []CellState
	if g.exists && g.size == size {
		collect := g.hasSubscribers()
		for _, row := range g.cells {
			for _, c := range row {
				if c.set(false) && collect {
					changes = append(changes, c.state())
				}
			}
		}
	} else {
		g.size = size
		g.cells = make([][]*Cell, size)
		for r := range size {
			g.cells[r] = make([]*Cell, size)
			for c := range size {
				g.cells[r][c] = &Cell{grid: g, row: r, col: c}
			}
		}
	}
	g.exists = true
	g.active.any = false
	g.toRevive = g.toRevive[:0]
	g.toKill = g.toKill[:0]
	g.mu.Unlock()

	g.emit(changes)
	return nil
}

// Exists reports whether Create has succeeded at least once.
func (g *Grid) Exists() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.exists
}

// Size returns the row and column count, or 0 before Create.
func (g *Grid) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.size
}

// Cell returns the cell at (row, col).
func (g *Grid) Cell(row, col int) (*Cell, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.checkLocked(row, col); err != nil {
		return nil, errors.WithMessage(err, "[Cell]")
	}
	return g.cells[row][col], nil
}

// CellState returns whether the cell at (row, col) is alive.
func (g *Grid) CellState(row, col int) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.checkLocked(row, col); err != nil {
		return false, errors.WithMessage(err, "[CellState]")
	}
	return g.cells[row][col].alive, nil
}

// SetCellState sets the cell at (row, col) alive or dead.
func (g *Grid) SetCellState(row, col int, alive bool) error {
	c, err := g.Cell(row, col)
	if err != nil {
		return errors.WithMessage(err, "[SetCellState]")
	}
	g.setCell(c, alive)
	return nil
}

// ToggleCell flips the cell at (row, col) and returns its new state.
func (g *Grid) ToggleCell(row, col int) (bool, error) {
	c, err := g.Cell(row, col)
	if err != nil {
		return false, errors.WithMessage(err, "[ToggleCell]")
	}
	return g.toggleCell(c), nil
}

func (g *Grid) setCell(c *Cell, alive bool) {
	g.mu.Lock()
	changed := c.set(alive)
	owned := g.ownsLocked(c)
	if changed && alive && owned {
		g.markLiveLocked(c.row, c.col)
	}
	st := c.state()
	g.mu.Unlock()

	if changed && owned {
		g.emit([]CellState{st})
	}
}

func (g *Grid) toggleCell(c *Cell) bool {
	g.mu.Lock()
	alive := !c.alive
	c.set(alive)
	owned := g.ownsLocked(c)
	if alive && owned {
		g.markLiveLocked(c.row, c.col)
	}
	st := c.state()
	g.mu.Unlock()

	if owned {
		g.emit([]CellState{st})
	}
	return alive
}

// ownsLocked reports whether c is still part of the current cell array; a
// cell left over from a grid of another size is detached.
func (g *Grid) ownsLocked(c *Cell) bool {
	return c.row < g.size && c.col < g.size && g.cells[c.row][c.col] == c
}

func (g *Grid) checkLocked(row, col int) error {
	if !g.exists {
		return errors.WithMessage(ErrInvalidState, "grid has not been created")
	}
	if row < 0 || row >= g.size || col < 0 || col >= g.size {
		return errors.WithMessagef(ErrOutOfBounds, "(%d,%d) outside %dx%d grid", row, col, g.size, g.size)
	}
	return nil
}

// markLiveLocked grows the active region to include (row, col).
func (g *Grid) markLiveLocked(row, col int) {
	if !g.active.any {
		g.active.minRow, g.active.maxRow = row, row
		g.active.minCol, g.active.maxCol = col, col
		g.active.any = true
		return
	}
	g.active.minRow = min(g.active.minRow, row)
	g.active.maxRow = max(g.active.maxRow, row)
	g.active.minCol = min(g.active.minCol, col)
	g.active.maxCol = max(g.active.maxCol, col)
}

// tightenActiveLocked shrinks the active region to the live cells inside it.
func (g *Grid) tightenActiveLocked() {
	if !g.active.any {
		return
	}
	minRow, maxRow := g.active.minRow, g.active.maxRow
	minCol, maxCol := g.active.minCol, g.active.maxCol
	g.active.any = false
	for r := minRow; r <= maxRow; r++ {
		for c := minCol; c <= maxCol; c++ {
			if g.cells[r][c].alive {
				g.markLiveLocked(r, c)
			}
		}
	}
}

// countNeighbors counts live cells among the up to 8 in-bounds positions around (row, col).
func (g *Grid) countNeighbors(row, col int) int {
	count := 0

	minRow := max(0, row-1)
	maxRow := min(g.size-1, row+1)
	minCol := max(0, col-1)
	maxCol := min(g.size-1, col+1)

	for r := minRow; r <= maxRow; r++ {
		for c := minCol; c <= maxCol; c++ {
			if r == row && c == col {
				continue
			}
			if g.cells[r][c].alive {
				count++
			}
		}
	}

	return count
}

// scanRegionLocked returns the rows and columns a scan has to visit.
func (g *Grid) scanRegionLocked() (minRow, maxRow, minCol, maxCol int, ok bool) {
	if !g.bounded {
		return 0, g.size - 1, 0, g.size - 1, true
	}
	g.tightenActiveLocked()
	if !g.active.any {
		return 0, 0, 0, 0, false
	}
	return max(0, g.active.minRow-1), min(g.size-1, g.active.maxRow+1),
		max(0, g.active.minCol-1), min(g.size-1, g.active.maxCol+1), true
}

// AdvanceGeneration computes the next generation and commits it atomically.
//
// Every transition is staged against the current generation first, in
// parallel row bands, and only then applied, so the result does not depend on
// scan order.
func (g *Grid) AdvanceGeneration() error {
	g.mu.Lock()
	if !g.exists {
		g.mu.Unlock()
		return errors.WithMessage(ErrInvalidState, "[AdvanceGeneration] grid has not been created")
	}

	minRow, maxRow, minCol, maxCol, ok := g.scanRegionLocked()
	if !ok {
		g.mu.Unlock()
		return nil
	}

	if err := g.stageLocked(minRow, maxRow, minCol, maxCol); err != nil {
		g.mu.Unlock()
		return errors.WithMessage(err, "[AdvanceGeneration] failed to stage transitions")
	}
	changes := g.commitLocked()
	g.mu.Unlock()

	g.emit(changes)
	return nil
}

// stageLocked fills toRevive and toKill for the given region.
func (g *Grid) stageLocked(minRow, maxRow, minCol, maxCol int) error {
	var (
		eg            errgroup.Group
		rows          = maxRow - minRow + 1
		numWorkers    = min(g.workers, rows)
		rowsPerWorker = (rows + numWorkers - 1) / numWorkers // Ceiling division
		bands         = make([]*staging, numWorkers)
	)

	for i := range numWorkers {
		var (
			startRow = minRow + i*rowsPerWorker
			endRow   = min(startRow+rowsPerWorker, maxRow+1)
		)
		buf := g.pool.Get()
		bands[i] = buf
		if startRow >= endRow {
			continue
		}

		eg.Go(func() error {
			for r := startRow; r < endRow; r++ {
				for c := minCol; c <= maxCol; c++ {
					switch rules.Evaluate(g.cells[r][c].alive, g.countNeighbors(r, c)) {
					case rules.Revive:
						buf.revive = append(buf.revive, Position{Row: r, Col: c})
					case rules.Kill:
						buf.kill = append(buf.kill, Position{Row: r, Col: c})
					}
				}
			}
			return nil
		})
	}

	err := eg.Wait()
	for _, buf := range bands {
		if err == nil {
			g.toRevive = append(g.toRevive, buf.revive...)
			g.toKill = append(g.toKill, buf.kill...)
		}
		g.pool.Put(buf)
	}
	return err
}

// commitLocked applies the staged transitions and clears them.
func (g *Grid) commitLocked() []CellState {
	var changes []CellState
	if g.hasSubscribers() {
		changes = make([]CellState, 0, len(g.toRevive)+len(g.toKill))
	}

	for _, p := range g.toRevive {
		c := g.cells[p.Row][p.Col]
		c.set(true)
		g.markLiveLocked(p.Row, p.Col)
		if changes != nil {
			changes = append(changes, c.state())
		}
	}
	for _, p := range g.toKill {
		c := g.cells[p.Row][p.Col]
		c.set(false)
		if changes != nil {
			changes = append(changes, c.state())
		}
	}

	g.toRevive = g.toRevive[:0]
	g.toKill = g.toKill[:0]
	return changes
}

// Pattern returns a row-major copy of every cell's state.
func (g *Grid) Pattern() ([]bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.exists {
		return nil, errors.WithMessage(ErrInvalidState, "[Pattern] grid has not been created")
	}
	return g.patternLocked(), nil
}

func (g *Grid) patternLocked() []bool {
	pattern := make([]bool, 0, g.size*g.size)
	for _, row := range g.cells {
		for _, c := range row {
			pattern = append(pattern, c.alive)
		}
	}
	return pattern
}

// LoadPattern applies a row-major pattern as one atomic update. With merge
// set, only the positions marked alive are touched; otherwise every other
// position is forced dead. A pattern of the wrong length is rejected without
// touching the grid.
func (g *Grid) LoadPattern(pattern []bool, merge bool) error {
	g.mu.Lock()
	if !g.exists {
		g.mu.Unlock()
		return errors.WithMessage(ErrInvalidState, "[LoadPattern] grid has not been created")
	}
	if len(pattern) != g.size*g.size {
		g.mu.Unlock()
		return errors.WithMessagef(ErrFormatMismatch, "[LoadPattern] got %d cells, grid holds %d", len(pattern), g.size*g.size)
	}

	var (
		changes []CellState
		collect = g.hasSubscribers()
	)
	for i, alive := range pattern {
		if !alive && merge {
			continue
		}
		c := g.cells[i/g.size][i%g.size]
		if !c.set(alive) {
			continue
		}
		if alive {
			g.markLiveLocked(c.row, c.col)
		}
		if collect {
			changes = append(changes, c.state())
		}
	}
	g.mu.Unlock()

	g.emit(changes)
	return nil
}

// All returns the cells in row-major order. Each iteration reads a consistent
// copy of the grid taken when it starts; an uncreated grid yields nothing.
func (g *Grid) All() iter.Seq[CellState] {
	return func(yield func(CellState) bool) {
		g.mu.RLock()
		size := g.size
		pattern := g.patternLocked()
		g.mu.RUnlock()

		for i, alive := range pattern {
			if !yield(CellState{Row: i / size, Col: i % size, Alive: alive}) {
				return
			}
		}
	}
}

// ForEachCell calls visit for every cell in row-major order.
func (g *Grid) ForEachCell(visit func(CellState)) {
	for st := range g.All() {
		visit(st)
	}
}

// Population returns the number of live cells.
func (g *Grid) Population() (count int) {
	for st := range g.All() {
		if st.Alive {
			count++
		}
	}
	return
}

// Hash returns an MD5 hash of the current pattern
func (g *Grid) Hash() string {
	h := md5.New()
	for st := range g.All() {
		if st.Alive {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Subscribe registers fn to receive every cell that changes state. Calls
// happen after the grid lock is released, on the goroutine that made the
// change; for generation commits that is the simulation goroutine, so fn
// must not stop the simulation. The returned function removes the
// subscription.
func (g *Grid) Subscribe(fn func(CellState)) (unsubscribe func()) {
	g.subMu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn
	g.subMu.Unlock()

	return func() {
		g.subMu.Lock()
		delete(g.subs, id)
		g.subMu.Unlock()
	}
}

func (g *Grid) hasSubscribers() bool {
	g.subMu.Lock()
	defer g.subMu.Unlock()
	return len(g.subs) > 0
}

func (g *Grid) emit(changes []CellState) {
	if len(changes) == 0 {
		return
	}
	g.subMu.Lock()
	subs := make([]func(CellState), 0, len(g.subs))
	for _, fn := range g.subs {
		subs = append(subs, fn)
	}
	g.subMu.Unlock()

	for _, fn := range subs {
		for _, st := range changes {
			fn(st)
		}
	}
}
