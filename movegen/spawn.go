package movegen

import (
	"math/bits"

	"github.com/domino14/tetrizz/board"
)

func spawnRow(cm *CollisionMap, force bool) (int, bool) {
	col := cm.Cols[board.SpawnCol]
	if col&(1<<board.SpawnRow) == 0 {
		return board.SpawnRow, true
	}
	if !force {
		return 0, false
	}
	free := ^col &^ (uint64(1)<<board.SpawnRow - 1)
	if free == 0 {
		return 0, false
	}
	return bits.TrailingZeros64(free), true
}

// SpawnLocation is where p enters the board. With force set a blocked
// spawn cell floats up to the lowest free row above it.
func SpawnLocation(b *board.Board, p board.Piece, force bool) (board.PieceLocation, bool) {
	cm := NewCollisionMap(b, p, board.North)
	y, ok := spawnRow(&cm, force)
	if !ok {
		return board.PieceLocation{}, false
	}
	return board.PieceLocation{Piece: p, Rotation: board.North, X: board.SpawnCol, Y: int8(y)}, true
}

// CanSpawn reports whether p fits at the regular spawn cell.
func CanSpawn(b *board.Board, p board.Piece) bool {
	_, ok := SpawnLocation(b, p, false)
	return ok
}
