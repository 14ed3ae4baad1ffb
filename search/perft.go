package search

import (
	"fmt"

	"github.com/domino14/tetrizz/board"
	"github.com/domino14/tetrizz/game"
	"github.com/domino14/tetrizz/movegen"
)

// Perft counts the placement sequences of length depth for the queue,
// without hold. It is the standard move generator benchmark.
func Perft(g game.Game, queue []board.Piece, depth int) uint64 {
	if depth < 1 || len(queue) < depth {
		panic(fmt.Sprintf("perft depth %d with a queue of %d", depth, len(queue)))
	}
	gens := make([]*movegen.Generator, depth)
	for i := range gens {
		gens[i] = movegen.NewGenerator()
	}
	return perft(gens, &g, queue, 0, depth)
}

func perft(gens []*movegen.Generator, g *game.Game, queue []board.Piece, idx, depth int) uint64 {
	locs := gens[idx].Placements(&g.Board, queue[idx])
	if depth == 1 {
		return uint64(len(locs))
	}
	var nodes uint64
	for _, loc := range locs {
		child := *g
		child.Advance(queue[idx], loc)
		nodes += perft(gens, &child, queue, idx+1, depth-1)
	}
	return nodes
}
