package board

import (
	"fmt"
	"strings"
)

// Piece is one of the seven tetromino shapes.
type Piece uint8

const (
	I Piece = iota
	O
	T
	L
	J
	S
	Z
)

// NumPieces is the size of the piece set.
const NumPieces = 7

// AllPieces lists every piece in index order.
var AllPieces = [NumPieces]Piece{I, O, T, L, J, S, Z}

var pieceNames = [NumPieces]string{"I", "O", "T", "L", "J", "S", "Z"}

func (p Piece) String() string {
	if int(p) >= NumPieces {
		return fmt.Sprintf("Piece(%d)", p)
	}
	return pieceNames[p]
}

// ParsePiece converts a single letter (case-insensitive) to a Piece.
func ParsePiece(s string) (Piece, error) {
	for i, n := range pieceNames {
		if strings.EqualFold(n, s) {
			return Piece(i), nil
		}
	}
	return 0, fmt.Errorf("unknown piece %q", s)
}

// ParseQueue converts a string such as "IOTLJSZ" into a piece slice.
func ParseQueue(s string) ([]Piece, error) {
	q := make([]Piece, 0, len(s))
	for _, r := range s {
		p, err := ParsePiece(string(r))
		if err != nil {
			return nil, err
		}
		q = append(q, p)
	}
	return q, nil
}

func (p Piece) MarshalText() ([]byte, error) {
	if int(p) >= NumPieces {
		return nil, fmt.Errorf("invalid piece %d", p)
	}
	return []byte(pieceNames[p]), nil
}

func (p *Piece) UnmarshalText(b []byte) error {
	v, err := ParsePiece(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Rotation is one of the four orientations. The rotation helpers wrap
// with modular arithmetic over the four-element domain.
type Rotation uint8

const (
	North Rotation = iota
	East
	South
	West
)

var rotationNames = [4]string{"North", "East", "South", "West"}

// AllRotations lists every rotation in index order.
var AllRotations = [4]Rotation{North, East, South, West}

func (r Rotation) String() string {
	return rotationNames[r&3]
}

// CW is the rotation one quarter turn clockwise.
func (r Rotation) CW() Rotation { return (r + 1) & 3 }

// CCW is the rotation one quarter turn counterclockwise.
func (r Rotation) CCW() Rotation { return (r + 3) & 3 }

// Flip is the rotation a half turn away.
func (r Rotation) Flip() Rotation { return (r + 2) & 3 }

func (r Rotation) MarshalText() ([]byte, error) {
	if r > West {
		return nil, fmt.Errorf("invalid rotation %d", r)
	}
	return []byte(rotationNames[r]), nil
}

func (r *Rotation) UnmarshalText(b []byte) error {
	for i, n := range rotationNames {
		if strings.EqualFold(n, string(b)) {
			*r = Rotation(i)
			return nil
		}
	}
	return fmt.Errorf("unknown rotation %q", string(b))
}

// Spin tags a resting placement by how it was reached.
type Spin uint8

const (
	SpinNone Spin = iota
	SpinMini
	SpinFull
)

// NumSpins is the number of spin classes.
const NumSpins = 3

var spinNames = [NumSpins]string{"None", "Mini", "Full"}

func (s Spin) String() string {
	if int(s) >= NumSpins {
		return fmt.Sprintf("Spin(%d)", s)
	}
	return spinNames[s]
}

func (s Spin) MarshalText() ([]byte, error) {
	if int(s) >= NumSpins {
		return nil, fmt.Errorf("invalid spin %d", s)
	}
	return []byte(spinNames[s]), nil
}

func (s *Spin) UnmarshalText(b []byte) error {
	for i, n := range spinNames {
		if strings.EqualFold(n, string(b)) {
			*s = Spin(i)
			return nil
		}
	}
	return fmt.Errorf("unknown spin %q", string(b))
}

// Cell is an (x, y) offset or coordinate. y grows upward.
type Cell struct {
	X, Y int8
}

// North-facing cell offsets relative to each piece's reference cell.
var northCells = [NumPieces][4]Cell{
	I: {{-1, 0}, {0, 0}, {1, 0}, {2, 0}},
	O: {{0, 0}, {1, 0}, {0, 1}, {1, 1}},
	T: {{-1, 0}, {0, 0}, {1, 0}, {0, 1}},
	L: {{-1, 0}, {0, 0}, {1, 0}, {1, 1}},
	J: {{-1, 0}, {0, 0}, {1, 0}, {-1, 1}},
	S: {{-1, 0}, {0, 0}, {0, 1}, {1, 1}},
	Z: {{-1, 1}, {0, 1}, {0, 0}, {1, 0}},
}

var cellTable [NumPieces][4][4]Cell

func init() {
	for p := range northCells {
		for r := range AllRotations {
			for i, c := range northCells[p] {
				cellTable[p][r][i] = rotateCell(c, Rotation(r))
			}
		}
	}
}

func rotateCell(c Cell, r Rotation) Cell {
	switch r {
	case East:
		return Cell{c.Y, -c.X}
	case South:
		return Cell{-c.X, -c.Y}
	case West:
		return Cell{-c.Y, c.X}
	}
	return c
}

// Cells returns the four cell offsets of p in rotation r.
func (p Piece) Cells(r Rotation) [4]Cell {
	return cellTable[p][r&3]
}
