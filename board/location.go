package board

import "fmt"

// PieceLocation is a placed (or placeable) piece: the reference cell at
// (X, Y) with the given rotation and spin tag.
type PieceLocation struct {
	Piece    Piece    `json:"piece"`
	Rotation Rotation `json:"rotation"`
	Spin     Spin     `json:"spin"`
	X        int8     `json:"x"`
	Y        int8     `json:"y"`
}

func (l PieceLocation) String() string {
	return fmt.Sprintf("%v %v (%d,%d) spin=%v", l.Piece, l.Rotation, l.X, l.Y, l.Spin)
}

// Blocks returns the absolute board cells covered by the piece.
func (l PieceLocation) Blocks() [4]Cell {
	cells := l.Piece.Cells(l.Rotation)
	for i := range cells {
		cells[i].X += l.X
		cells[i].Y += l.Y
	}
	return cells
}

// Canonical maps a location onto the representative rotation covering the
// same cells. S, Z and I collapse onto North/East, O onto North; the other
// pieces are returned unchanged.
func (l PieceLocation) Canonical() PieceLocation {
	switch l.Piece {
	case S, Z:
		switch l.Rotation {
		case South:
			l.Y--
		case West:
			l.X--
		}
		l.Rotation &= 1
	case I:
		switch l.Rotation {
		case South:
			l.X--
		case West:
			l.Y++
		}
		l.Rotation &= 1
	case O:
		switch l.Rotation {
		case East:
			l.Y--
		case South:
			l.X--
			l.Y--
		case West:
			l.X--
		}
		l.Rotation = North
	}
	return l
}

// SameCells reports whether two locations cover the same cells with the
// same spin tag.
func (l PieceLocation) SameCells(o PieceLocation) bool {
	return l.Canonical() == o.Canonical()
}
