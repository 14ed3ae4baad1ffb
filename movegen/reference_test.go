package movegen

import (
	"github.com/domino14/tetrizz/board"
)

// referencePlacements walks every single-step move from the spawn cell one
// state at a time. It is slow and obviously correct, and the bitboard
// generator must agree with it exactly.
func referencePlacements(b *board.Board, p board.Piece) map[board.PieceLocation]bool {
	result := map[board.PieceLocation]bool{}
	spawn, ok := SpawnLocation(b, p, true)
	if !ok {
		return result
	}
	cms := collisionMaps(b, p)
	sm := NewSpinMaps(b, p, &cms)
	free := func(l board.PieceLocation) bool {
		return l.Y <= 60 && !cms[l.Rotation].Obstructed(int(l.X), int(l.Y))
	}

	visited := map[board.PieceLocation]bool{spawn: true}
	queue := []board.PieceLocation{spawn}
	push := func(l board.PieceLocation) {
		if !visited[l] {
			visited[l] = true
			queue = append(queue, l)
		}
	}

	for len(queue) > 0 {
		l := queue[0]
		queue = queue[1:]

		if cms[l.Rotation].Obstructed(int(l.X), int(l.Y)-1) {
			c := l.Canonical()
			if p != board.T {
				c.Spin = sm.Classify(p, c.Rotation, int(c.X), int(c.Y), false)
			}
			result[c] = true
		}

		for _, d := range [3]board.Cell{{X: -1}, {X: 1}, {Y: -1}} {
			n := l
			n.X += d.X
			n.Y += d.Y
			n.Spin = board.SpinNone
			if free(n) {
				push(n)
			}
		}
		if p == board.O {
			continue
		}
		for _, to := range [2]board.Rotation{l.Rotation.CW(), l.Rotation.CCW()} {
			kicks := Kicks(p, l.Rotation, to)
			for i, k := range kicks {
				n := board.PieceLocation{Piece: p, Rotation: to, X: l.X + k.X, Y: l.Y + k.Y}
				if !free(n) {
					continue
				}
				if p == board.T {
					n.Spin = sm.Classify(p, to, int(n.X), int(n.Y), i == len(kicks)-1)
				}
				push(n)
				break
			}
		}
		for _, k := range Kicks180(p, l.Rotation) {
			n := board.PieceLocation{Piece: p, Rotation: l.Rotation.Flip(), X: l.X + k.X, Y: l.Y + k.Y}
			if !free(n) {
				continue
			}
			if p == board.T {
				n.Spin = sm.Classify(p, n.Rotation, int(n.X), int(n.Y), false)
			}
			push(n)
			break
		}
	}
	return result
}
