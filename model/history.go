package model

const historyDepth = 5

// History remembers the hashes of recent generations to detect a grid that
// has stopped evolving.
type History struct {
	hashes []string
}

// Record adds a grid hash to the history, keeping only the most recent ones.
func (h *History) Record(hash string) {
	h.hashes = append(h.hashes, hash)

	// Keep only last 5 states to detect cycles
	if len(h.hashes) > historyDepth {
		h.hashes = h.hashes[1:]
	}
}

// IsStagnant reports whether hash repeats one of the last three recorded
// states: a still life or an oscillator of period 2 or 3.
func (h *History) IsStagnant(hash string) bool {
	if len(h.hashes) < 3 {
		return false
	}
	for i := 1; i <= 3; i++ {
		if h.hashes[len(h.hashes)-i] == hash {
			return true
		}
	}
	return false
}

// Reset forgets every recorded hash.
func (h *History) Reset() {
	h.hashes = nil
}
