package equity

import (
	"math/bits"

	"github.com/domino14/tetrizz/board"
)

// surface holds the structural board features shared by the evaluators.
type surface struct {
	heights       [board.Width]int
	maxHeight     int
	holes         int
	coveredness   int
	rowTransition int
}

func heightOf(c uint64) int {
	return 64 - bits.LeadingZeros64(c)
}

func under(h int) uint64 {
	if h >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<uint(h) - 1
}

func measure(b *board.Board) surface {
	var s surface
	for x, c := range b.Cols {
		h := heightOf(c)
		s.heights[x] = h
		s.maxHeight = max(s.maxHeight, h)
		holes := ^c & under(h)
		s.holes += bits.OnesCount64(holes)
		// each hole costs the number of cells stacked on it
		for holes != 0 {
			y := bits.TrailingZeros64(holes)
			s.coveredness += h - y
			holes &= holes - 1
		}
	}
	for x := 1; x < board.Width; x++ {
		s.rowTransition += bits.OnesCount64(b.Cols[x-1] ^ b.Cols[x])
	}
	return s
}

// neighbourShape counts, for every column, the dependency, I-dependency
// and spike patterns against its two neighbours. Off-board neighbours read
// as edge. skip, if in range, is a column left out of the count.
func neighbourShape(h *[board.Width]int, edge func(b int) int, skip int) (deps, ideps, spikes int) {
	for x := 0; x < board.Width; x++ {
		if x == skip {
			continue
		}
		b := h[x]
		a, c := edge(b), edge(b)
		if x > 0 {
			a = h[x-1]
		}
		if x < board.Width-1 {
			c = h[x+1]
		}
		if a-1 > b && c-1 > b {
			deps++
		}
		if a-2 > b && c-2 > b {
			ideps++
		}
		if a+1 < b && c+1 < b {
			spikes++
		}
	}
	return
}
