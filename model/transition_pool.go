package model

import "sync"

// Position addresses a cell by row and column.
type Position struct {
	Row, Col int
}

// staging holds the transitions decided by one worker during a generation scan.
type staging struct {
	revive []Position
	kill   []Position
}

func (s *staging) reset() {
	s.revive = s.revive[:0]
	s.kill = s.kill[:0]
}

// transitionPool recycles staging buffers between generations
type transitionPool struct {
	pool sync.Pool
}

func newTransitionPool() *transitionPool {
	return &transitionPool{
		pool: sync.Pool{
			New: func() interface{} {
				return &staging{}
			},
		},
	}
}

// Get retrieves an empty staging buffer from the pool
func (p *transitionPool) Get() *staging {
	return p.pool.Get().(*staging)
}

// Put returns a staging buffer to the pool, clearing its contents
func (p *transitionPool) Put(s *staging) {
	s.reset()
	p.pool.Put(s)
}
