package movegen

import (
	"github.com/domino14/tetrizz/board"
)

// A CollisionMap holds, per column, the rows where the reference cell of a
// piece in a fixed rotation cannot sit. It is an obstruction map, not an
// occupancy map; off-board columns are fully obstructed.
type CollisionMap struct {
	board.Board
}

// NewCollisionMap ORs together one shifted copy of the board per cell of
// the piece.
func NewCollisionMap(b *board.Board, p board.Piece, r board.Rotation) CollisionMap {
	var cm CollisionMap
	for _, c := range p.Cells(r) {
		for x := 0; x < board.Width; x++ {
			col := b.Col(x + int(c.X))
			if c.Y < 0 {
				col = ^(^col << uint(-c.Y))
			} else {
				col >>= uint(c.Y)
			}
			cm.Cols[x] |= col
		}
	}
	return cm
}

// Obstructed reports whether the reference cell may not sit at (x, y).
func (cm *CollisionMap) Obstructed(x, y int) bool {
	if y < 0 || y > 63 {
		return true
	}
	return cm.Col(x)&(1<<uint(y)) != 0
}

func collisionMaps(b *board.Board, p board.Piece) [4]CollisionMap {
	var cms [4]CollisionMap
	for _, r := range board.AllRotations {
		cms[r] = NewCollisionMap(b, p, r)
	}
	return cms
}
