package search

import (
	"github.com/domino14/tetrizz/board"
	"github.com/domino14/tetrizz/game"
)

// node is a search tree node. Nodes live in the searcher's arena and refer
// to their parent by index; -1 marks a first-ply node.
type node struct {
	game   game.Game
	loc    board.PieceLocation
	parent int32
	score  float64
	// seq is the insertion order within a ply, used to break score ties.
	seq int32
	// hash is the state hash, set only when deduplicating.
	hash uint64
}

// less orders nodes worst first: lower score, then later insertion.
func (n *node) less(o *node) bool {
	if n.score != o.score {
		return n.score < o.score
	}
	return n.seq > o.seq
}

// frontier is a bounded min-heap of candidate nodes. The root is always
// the worst candidate, so it is the one evicted on overflow.
type frontier []node

func (f frontier) Len() int           { return len(f) }
func (f frontier) Less(i, j int) bool { return f[i].less(&f[j]) }
func (f frontier) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(node)) }

func (f *frontier) Pop() any {
	old := *f
	n := old[len(old)-1]
	*f = old[:len(old)-1]
	return n
}
