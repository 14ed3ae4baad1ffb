// Package movegen enumerates every distinct resting placement a piece can
// reach on a board. The search runs over (column, rotation) states, each
// carrying a 64-bit mask of reachable rows, and propagates those masks by
// gravity, shifts and kicked rotations until nothing changes.
package movegen

import (
	"math/bits"

	"github.com/domino14/tetrizz/board"
)

// Generator owns the scratch state for move generation. It is not safe for
// concurrent use; give every goroutine its own.
type Generator struct {
	cms  [4]CollisionMap
	spin SpinMaps

	toSearch [4][board.Width]uint64
	searched [4][board.Width]uint64
	// moveset holds emitted resting rows per canonical (rotation, column).
	moveset [4][board.Width]uint64
	// spinloc records, for T, which spin tags each reachable row carries.
	spinloc [board.NumSpins][4][board.Width]uint64

	placements []board.PieceLocation
}

func NewGenerator() *Generator {
	return &Generator{placements: make([]board.PieceLocation, 0, 256)}
}

func stateBit(x int, r board.Rotation) uint64 {
	return 1 << uint(x*4+int(r))
}

// Placements generates all placements for p and returns them in the
// generator's arena. The slice is only valid until the next call.
func (g *Generator) Placements(b *board.Board, p board.Piece) []board.PieceLocation {
	g.placements = g.Generate(g.placements[:0], b, p, true)
	return g.placements
}

// Generate appends every distinct resting placement of p on b to dst.
// With force set, a blocked spawn cell floats up to the lowest free row
// above it; otherwise a blocked spawn yields nothing.
func (g *Generator) Generate(dst []board.PieceLocation, b *board.Board, p board.Piece,
	force bool) []board.PieceLocation {

	g.cms = collisionMaps(b, p)
	g.spin = NewSpinMaps(b, p, &g.cms)
	g.moveset = [4][board.Width]uint64{}
	g.toSearch = [4][board.Width]uint64{}
	isT := p == board.T
	if isT {
		g.spinloc = [board.NumSpins][4][board.Width]uint64{}
	}
	for _, r := range board.AllRotations {
		g.searched[r] = g.cms[r].Cols
	}

	rots := board.AllRotations[:]
	if p == board.O {
		rots = rots[:1]
	}

	var remaining uint64
	// Outside of T, once every resting slot has been emitted nothing new
	// can turn up, so the search may stop early.
	earlyExit := false
	slots := 0

	if b.MaxHeight() > board.SpawnRow-3 {
		y, ok := spawnRow(&g.cms[board.North], force)
		if !ok {
			return dst
		}
		g.toSearch[board.North][board.SpawnCol] = 1 << uint(y)
		if isT {
			g.spinloc[board.SpinNone][board.North][board.SpawnCol] = 1 << uint(y)
		}
		remaining = stateBit(board.SpawnCol, board.North)
	} else {
		earlyExit = !isT
		below := uint64(1)<<board.SpawnRow - 1
		for _, r := range rots {
			for x := 0; x < board.Width; x++ {
				col := g.cms[r].Cols[x]
				top := 64 - bits.LeadingZeros64(col)
				if top >= board.SpawnRow {
					continue
				}
				surface := below &^ (uint64(1)<<uint(top) - 1)
				g.toSearch[r][x] = surface
				if isT {
					g.spinloc[board.SpinNone][r][x] = surface
				}
				remaining |= stateBit(x, r)
				if earlyExit && isCanonicalRotation(p, r) {
					slots += bits.OnesCount64(^col & (col<<1 | 1))
				}
			}
		}
	}

	for remaining != 0 {
		idx := bits.TrailingZeros64(remaining)
		remaining &^= 1 << uint(idx)
		x, r := idx>>2, board.Rotation(idx&3)

		cur := g.toSearch[r][x]
		g.toSearch[r][x] = 0
		if cur == 0 {
			continue
		}
		col := g.cms[r].Cols[x]
		free := ^col

		fall := cur
		for {
			next := fall | (fall>>1)&free
			if next == fall {
				break
			}
			fall = next
		}
		if isT {
			g.spinloc[board.SpinNone][r][x] |= (fall >> 1) & free
		}
		active := cur | fall&^g.searched[r][x]
		g.searched[r][x] |= active

		resting := fall & (col<<1 | 1)
		if resting != 0 {
			if isT {
				g.moveset[r][x] |= resting
			} else {
				var n int
				dst, n = g.emit(dst, p, r, x, resting)
				slots -= n
				if earlyExit && slots <= 0 {
					break
				}
			}
		}

		if x > 0 {
			remaining |= g.shift(isT, r, x, x-1, active)
		}
		if x < board.Width-1 {
			remaining |= g.shift(isT, r, x, x+1, active)
		}

		if p == board.O {
			continue
		}
		for _, to := range [2]board.Rotation{r.CW(), r.CCW()} {
			kicks := Kicks(p, r, to)
			remaining |= g.rotate(p, isT, x, active, to, kicks[:], true)
		}
		kicks := Kicks180(p, r)
		remaining |= g.rotate(p, isT, x, active, r.Flip(), kicks[:], false)
	}

	if isT {
		dst = g.emitT(dst)
	}
	return dst
}

func (g *Generator) shift(isT bool, r board.Rotation, x, nx int, active uint64) uint64 {
	if isT {
		g.spinloc[board.SpinNone][r][nx] |= active &^ g.cms[r].Cols[nx]
	}
	m := active &^ g.searched[r][nx]
	if m == 0 {
		return 0
	}
	g.toSearch[r][nx] |= m
	return stateBit(nx, r)
}

// rotate tries each kick in order for every active row, moving rows that
// land into the target state. Rows consumed by an earlier kick are not
// retried by later ones.
func (g *Generator) rotate(p board.Piece, isT bool, x int, active uint64, to board.Rotation,
	kicks []board.Cell, quarter bool) uint64 {

	var enqueued uint64
	cur := active
	for i, k := range kicks {
		if cur == 0 {
			break
		}
		nx := x + int(k.X)
		if nx < 0 || nx >= board.Width {
			continue
		}
		sh := uint(int(k.Y) + 3)
		m := ((cur << sh) >> 3) &^ g.cms[to].Cols[nx]
		cur ^= (m << 3) >> sh
		if m == 0 {
			continue
		}
		if isT {
			g.tagT(to, nx, m, quarter && i == len(kicks)-1)
		}
		m &^= g.searched[to][nx]
		if m != 0 {
			g.toSearch[to][nx] |= m
			enqueued |= stateBit(nx, to)
		}
	}
	return enqueued
}

func (g *Generator) tagT(to board.Rotation, x int, landed uint64, lastKick bool) {
	spins := landed & g.spin.Corners[x]
	g.spinloc[board.SpinNone][to][x] |= landed &^ spins
	if lastKick {
		g.spinloc[board.SpinFull][to][x] |= spins
		return
	}
	full := g.spin.Full[to][x]
	g.spinloc[board.SpinMini][to][x] |= spins &^ full
	g.spinloc[board.SpinFull][to][x] |= spins & full
}

// emit appends newly discovered resting rows for a non-T piece, folding
// symmetric rotations onto their canonical state first.
func (g *Generator) emit(dst []board.PieceLocation, p board.Piece, r board.Rotation, x int,
	rows uint64) ([]board.PieceLocation, int) {

	cr, cx, crows := canonicalRows(p, r, x, rows)
	fresh := crows &^ g.moveset[cr][cx]
	if fresh == 0 {
		return dst, 0
	}
	g.moveset[cr][cx] |= fresh
	immobile := g.spin.Immobile[cr][cx]
	n := 0
	for fresh != 0 {
		y := bits.TrailingZeros64(fresh)
		fresh &= fresh - 1
		spin := board.SpinNone
		if immobile&(1<<uint(y)) != 0 {
			spin = board.SpinMini
		}
		dst = append(dst, board.PieceLocation{
			Piece: p, Rotation: cr, Spin: spin, X: int8(cx), Y: int8(y),
		})
		n++
	}
	return dst, n
}

func (g *Generator) emitT(dst []board.PieceLocation) []board.PieceLocation {
	for _, r := range board.AllRotations {
		for x := 0; x < board.Width; x++ {
			rows := g.moveset[r][x]
			if rows == 0 {
				continue
			}
			for s := board.SpinNone; s <= board.SpinFull; s++ {
				m := rows & g.spinloc[s][r][x]
				for m != 0 {
					y := bits.TrailingZeros64(m)
					m &= m - 1
					dst = append(dst, board.PieceLocation{
						Piece: board.T, Rotation: r, Spin: s, X: int8(x), Y: int8(y),
					})
				}
			}
		}
	}
	return dst
}

func isCanonicalRotation(p board.Piece, r board.Rotation) bool {
	switch p {
	case board.S, board.Z, board.I:
		return r == board.North || r == board.East
	case board.O:
		return r == board.North
	}
	return true
}

// canonicalRows is the row-mask form of PieceLocation.Canonical.
func canonicalRows(p board.Piece, r board.Rotation, x int, rows uint64) (board.Rotation, int, uint64) {
	switch p {
	case board.S, board.Z:
		switch r {
		case board.South:
			return board.North, x, rows >> 1
		case board.West:
			return board.East, x - 1, rows
		}
	case board.I:
		switch r {
		case board.South:
			return board.North, x - 1, rows
		case board.West:
			return board.East, x, rows << 1
		}
	}
	return r, x, rows
}
