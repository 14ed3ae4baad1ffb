// Package search picks a placement by beam search: every ply expands the
// surviving nodes with the next queued piece (or the held one) and keeps
// only the best Width children.
package search

import (
	"container/heap"
	"fmt"
	"math"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/domino14/tetrizz/board"
	"github.com/domino14/tetrizz/config"
	"github.com/domino14/tetrizz/equity"
	"github.com/domino14/tetrizz/game"
	"github.com/domino14/tetrizz/movegen"
)

// Searcher owns all scratch memory for a search. It is not safe for
// concurrent use; give every goroutine its own.
type Searcher struct {
	Depth int
	Width int
	// Dedup keeps one child per state hash in each ply, the best scoring
	// one.
	Dedup bool
	Eval  equity.Evaluator

	gen      *movegen.Generator
	locs     []board.PieceLocation
	arena    []node
	frontier frontier
	seen     map[uint64]float64
	seq      int32
	nodes    int
}

// Result is the outcome of a search.
type Result struct {
	// Path holds one placement per ply, from the first move to the best
	// leaf. Path[0] is the move to play now.
	Path  []board.PieceLocation
	Score float64
	// Nodes is the number of evaluated candidates.
	Nodes int
}

// Placement is the move to play now.
func (r *Result) Placement() board.PieceLocation {
	return r.Path[0]
}

func NewSearcher(eval equity.Evaluator, depth, width int) *Searcher {
	if depth < 1 || width < 1 {
		panic(fmt.Sprintf("bad search bounds depth=%d width=%d", depth, width))
	}
	return &Searcher{
		Depth: depth,
		Width: width,
		Eval:  eval,
		gen:   movegen.NewGenerator(),
	}
}

// FromConfig builds a searcher with the configured depth, width and dedup
// setting.
func FromConfig(cfg *config.Config, eval equity.Evaluator) *Searcher {
	s := NewSearcher(eval, cfg.GetInt(config.ConfigBeamDepth), cfg.GetInt(config.ConfigBeamWidth))
	s.Dedup = cfg.GetBool(config.ConfigSearchDedup)
	return s
}

// generate fills s.locs with the placements of piece and, if it is a
// different piece, of alt.
func (s *Searcher) generate(b *board.Board, piece board.Piece, alt board.Piece, hasAlt bool) {
	s.locs = s.gen.Generate(s.locs[:0], b, piece, true)
	if hasAlt && alt != piece {
		s.locs = s.gen.Generate(s.locs, b, alt, true)
	}
}

func (s *Searcher) offer(n node) {
	n.seq = s.seq
	s.seq++
	if s.Dedup {
		n.hash = n.game.Hash()
		best, ok := s.seen[n.hash]
		if ok && n.score <= best {
			return
		}
		s.seen[n.hash] = n.score
		if ok && s.replace(n) {
			return
		}
	}
	if len(s.frontier) < s.Width {
		heap.Push(&s.frontier, n)
		return
	}
	if n.score > s.frontier[0].score {
		s.frontier[0] = n
		heap.Fix(&s.frontier, 0)
	}
}

// replace swaps n in for a worse frontier node with the same state. It
// reports false if that node was already evicted.
func (s *Searcher) replace(n node) bool {
	for i := range s.frontier {
		if s.frontier[i].hash == n.hash {
			s.frontier[i] = n
			heap.Fix(&s.frontier, i)
			return true
		}
	}
	return false
}

func (s *Searcher) expand(parent int32, g *game.Game, piece board.Piece, next board.Piece, hasNext bool) {
	alt, hasAlt := g.HeldPiece()
	if !hasAlt {
		alt, hasAlt = next, hasNext
	}
	s.generate(&g.Board, piece, alt, hasAlt)
	for _, loc := range s.locs {
		child := node{game: *g, loc: loc, parent: parent}
		info := child.game.Advance(piece, loc)
		if hasNext && !child.game.CanSpawn(next) {
			continue
		}
		s.nodes++
		child.score = equity.Value(s.Eval, &child.game, &info)
		s.offer(child)
	}
}

// flush moves the frontier into the arena, best first, and returns the
// arena range it occupies.
func (s *Searcher) flush() (int, int) {
	start := len(s.arena)
	survivors := slices.Clone(s.frontier)
	slices.SortFunc(survivors, func(a, b node) int {
		switch {
		case b.less(&a):
			return -1
		case a.less(&b):
			return 1
		}
		return 0
	})
	s.arena = append(s.arena, survivors...)
	s.frontier = s.frontier[:0]
	return start, len(s.arena)
}

func (s *Searcher) resetPly() {
	s.frontier = s.frontier[:0]
	s.seq = 0
	if s.Dedup {
		if s.seen == nil {
			s.seen = make(map[uint64]float64)
		}
		clear(s.seen)
	}
}

// Search runs the beam search from root. queue[0] is the piece to place
// now. It returns false if no first move lets the game go on. The queue
// must hold at least Depth pieces.
func (s *Searcher) Search(root *game.Game, queue []board.Piece) (Result, bool) {
	if len(queue) < s.Depth {
		panic(fmt.Sprintf("queue of %d pieces is shorter than search depth %d", len(queue), s.Depth))
	}
	s.arena = s.arena[:0]
	s.nodes = 0

	s.resetPly()
	next, hasNext := board.Piece(0), len(queue) > 1
	if hasNext {
		next = queue[1]
	}
	s.expand(-1, root, queue[0], next, hasNext)
	if len(s.frontier) == 0 {
		log.Debug().Int("nodes", s.nodes).Msg("search-no-first-move")
		return Result{Nodes: s.nodes, Score: math.Inf(-1)}, false
	}
	start, end := s.flush()
	log.Debug().Int("ply", 1).Int("survivors", end-start).Msg("ply-done")

	for idx := 1; idx < s.Depth; idx++ {
		s.resetPly()
		next, hasNext := board.Piece(0), idx+1 < len(queue)
		if hasNext {
			next = queue[idx+1]
		}
		for i := start; i < end; i++ {
			// the arena may grow while expanding, so copy the game out
			g := s.arena[i].game
			piece := queue[idx]
			s.expand(int32(i), &g, piece, next, hasNext)
		}
		if len(s.frontier) == 0 {
			log.Debug().Int("ply", idx+1).Msg("ply-empty")
			break
		}
		start, end = s.flush()
		log.Debug().Int("ply", idx+1).Int("survivors", end-start).Msg("ply-done")
	}

	// flush leaves the best node first in its range
	return s.result(start), true
}

func (s *Searcher) result(best int) Result {
	r := Result{Score: s.arena[best].score, Nodes: s.nodes}
	for i := int32(best); i >= 0; i = s.arena[i].parent {
		r.Path = append(r.Path, s.arena[i].loc)
	}
	slices.Reverse(r.Path)
	return r
}
