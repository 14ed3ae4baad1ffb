package movegen

import (
	"github.com/domino14/tetrizz/board"
)

// SpinMaps classifies rotation landings. For T, Corners marks rows where
// three of the four diagonal corners around the reference cell are filled
// and Full narrows that to rows whose two front corners (for the landing
// rotation) are both filled. For every other piece only Immobile is used:
// rows where the piece can move neither left, right, up nor down.
type SpinMaps struct {
	Corners  [board.Width]uint64
	Full     [4][board.Width]uint64
	Immobile [4][board.Width]uint64
}

// NewSpinMaps derives the spin masks for p from the board and its
// collision maps.
func NewSpinMaps(b *board.Board, p board.Piece, cms *[4]CollisionMap) SpinMaps {
	var sm SpinMaps
	if p == board.O {
		return sm
	}
	if p == board.T {
		for x := 0; x < board.Width; x++ {
			// top-left, top-right, bottom-right, bottom-left
			var c [4]uint64
			for i := range c {
				c[i] = ^uint64(0)
			}
			if x > 0 {
				c[0] = b.Cols[x-1] >> 1
				c[3] = b.Cols[x-1]<<1 | 1
			}
			if x < board.Width-1 {
				c[1] = b.Cols[x+1] >> 1
				c[2] = b.Cols[x+1]<<1 | 1
			}
			spins := c[0]&c[1]&(c[2]|c[3]) | c[2]&c[3]&(c[0]|c[1])
			sm.Corners[x] = spins
			for _, r := range board.AllRotations {
				if cms[r].Cols[x] == ^uint64(0) {
					continue
				}
				sm.Full[r][x] = spins & c[r] & c[r.CW()]
			}
		}
		return sm
	}
	for _, r := range board.AllRotations {
		cm := &cms[r]
		for x := 0; x < board.Width; x++ {
			col := cm.Cols[x]
			sm.Immobile[r][x] = ^col & cm.Col(x-1) & cm.Col(x+1) & (col<<1 | 1) & (col >> 1)
		}
	}
	return sm
}

// Classify tags a single rotation landing of p at (x, y) in rotation to.
// lastKick marks the final quarter-turn kick, which always makes a T
// landing in a three-corner pocket a full spin.
func (sm *SpinMaps) Classify(p board.Piece, to board.Rotation, x, y int, lastKick bool) board.Spin {
	bit := uint64(1) << uint(y)
	if p != board.T {
		if sm.Immobile[to][x]&bit != 0 {
			return board.SpinMini
		}
		return board.SpinNone
	}
	if sm.Corners[x]&bit == 0 {
		return board.SpinNone
	}
	if lastKick || sm.Full[to][x]&bit != 0 {
		return board.SpinFull
	}
	return board.SpinMini
}
