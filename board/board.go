// Package board holds the bitboard representation of a 10-wide playfield
// along with the piece, rotation and spin types shared by the rest of the
// engine.
package board

import "math/bits"

const (
	// Width is the number of columns on the board.
	Width = 10
	// SpawnRow and SpawnCol give the reference cell of a freshly spawned
	// piece (North facing).
	SpawnRow = 21
	SpawnCol = 4
)

// Board is a column-major bitboard. Bit y of Cols[x] set means cell (x, y)
// is occupied. Row 0 is the bottom of the playfield.
type Board struct {
	Cols [Width]uint64 `json:"cols"`
}

// FromCols builds a Board from raw column masks.
func FromCols(cols [Width]uint64) Board {
	return Board{Cols: cols}
}

// Col returns column x, treating anything off the board as solid.
func (b *Board) Col(x int) uint64 {
	if x < 0 || x >= Width {
		return ^uint64(0)
	}
	return b.Cols[x]
}

func (b Board) And(o Board) Board {
	for x := range b.Cols {
		b.Cols[x] &= o.Cols[x]
	}
	return b
}

func (b Board) Or(o Board) Board {
	for x := range b.Cols {
		b.Cols[x] |= o.Cols[x]
	}
	return b
}

func (b Board) Xor(o Board) Board {
	for x := range b.Cols {
		b.Cols[x] ^= o.Cols[x]
	}
	return b
}

func (b Board) AndNot(o Board) Board {
	for x := range b.Cols {
		b.Cols[x] &^= o.Cols[x]
	}
	return b
}

func (b Board) Not() Board {
	for x := range b.Cols {
		b.Cols[x] = ^b.Cols[x]
	}
	return b
}

// FoldAnd returns the rows that are set in every column.
func (b *Board) FoldAnd() uint64 {
	acc := ^uint64(0)
	for _, c := range b.Cols {
		acc &= c
	}
	return acc
}

// FoldOr returns the rows that are set in any column.
func (b *Board) FoldOr() uint64 {
	var acc uint64
	for _, c := range b.Cols {
		acc |= c
	}
	return acc
}

func (b *Board) FoldXor() uint64 {
	var acc uint64
	for _, c := range b.Cols {
		acc ^= c
	}
	return acc
}

// Get reports whether (x, y) is filled. Cells outside the board are
// considered filled.
func (b *Board) Get(x, y int) bool {
	if y < 0 || y > 63 {
		return true
	}
	return b.Col(x)&(1<<uint(y)) != 0
}

func (b *Board) Set(x, y int) {
	if x < 0 || x >= Width || y < 0 || y > 63 {
		return
	}
	b.Cols[x] |= 1 << uint(y)
}

func (b *Board) IsEmpty() bool {
	return b.FoldOr() == 0
}

// MaxHeight is one past the highest occupied row in any column.
func (b *Board) MaxHeight() int {
	return 64 - bits.LeadingZeros64(b.FoldOr())
}

// Heights returns one past the highest occupied row of each column.
func (b *Board) Heights() [Width]int {
	var h [Width]int
	for x, c := range b.Cols {
		h[x] = 64 - bits.LeadingZeros64(c)
	}
	return h
}

// CellCount is the number of filled cells.
func (b *Board) CellCount() int {
	n := 0
	for _, c := range b.Cols {
		n += bits.OnesCount64(c)
	}
	return n
}

// Put writes the cells of loc onto the board.
func (b *Board) Put(loc PieceLocation) {
	for _, c := range loc.Blocks() {
		b.Set(int(c.X), int(c.Y))
	}
}

// Obstructed reports whether any cell of loc overlaps a filled cell or
// lies off the board.
func (b *Board) Obstructed(loc PieceLocation) bool {
	for _, c := range loc.Blocks() {
		if b.Get(int(c.X), int(c.Y)) {
			return true
		}
	}
	return false
}

// DistanceToGround is how many rows loc can fall before resting.
func (b *Board) DistanceToGround(loc PieceLocation) int {
	dist := 64
	for _, c := range loc.Blocks() {
		x, y := int(c.X), int(c.Y)
		if x < 0 || x >= Width || y <= 0 {
			return 0
		}
		below := b.Cols[x] & (1<<uint(y) - 1)
		d := y - (64 - bits.LeadingZeros64(below))
		if d < dist {
			dist = d
		}
	}
	return dist
}

// RemoveLines clears every full row, compacting each column downward, and
// returns the mask of rows that were full beforehand.
func (b *Board) RemoveLines() uint64 {
	full := b.FoldAnd()
	if full == 0 {
		return 0
	}
	for x := range b.Cols {
		col := b.Cols[x]
		lines := full
		for lines != 0 {
			i := uint(bits.TrailingZeros64(lines))
			mask := uint64(1)<<i - 1
			col = col&mask | (col>>1)&^mask
			lines &^= 1 << i
			lines >>= 1
		}
		b.Cols[x] = col
	}
	return full
}

// AddGarbage pushes n garbage rows in from the bottom. Every column but gap
// is filled in the new rows.
func (b *Board) AddGarbage(gap, n int) {
	if n <= 0 {
		return
	}
	if n > 63 {
		n = 63
	}
	for x := range b.Cols {
		if x == gap {
			b.Cols[x] <<= uint(n)
		} else {
			b.Cols[x] = ^(^b.Cols[x] << uint(n))
		}
	}
}
