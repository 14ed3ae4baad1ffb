// Package bag deals pieces the way modern guideline games do: every run of
// seven is a shuffled permutation of all seven pieces.
package bag

import (
	"lukechampine.com/frand"

	"github.com/domino14/tetrizz/board"
)

// Bag is a 7-bag randomizer. It is not safe for concurrent use.
type Bag struct {
	rng *frand.RNG
}

// New returns a bag drawing from rng. A nil rng uses a freshly seeded
// generator.
func New(rng *frand.RNG) *Bag {
	if rng == nil {
		rng = frand.New()
	}
	return &Bag{rng: rng}
}

// NewSeeded returns a deterministic bag. Seeds longer than 32 bytes are
// truncated and shorter ones zero padded.
func NewSeeded(seed []byte) *Bag {
	var key [32]byte
	copy(key[:], seed)
	return New(frand.NewCustom(key[:], 1024, 12))
}

// Extend appends bags shuffled permutations of the seven pieces to q.
func (b *Bag) Extend(q []board.Piece, bags int) []board.Piece {
	for range bags {
		set := board.AllPieces
		b.rng.Shuffle(len(set), func(i, j int) {
			set[i], set[j] = set[j], set[i]
		})
		q = append(q, set[:]...)
	}
	return q
}

// Fill extends q with whole bags until it holds at least n pieces.
func (b *Bag) Fill(q []board.Piece, n int) []board.Piece {
	for len(q) < n {
		q = b.Extend(q, 1)
	}
	return q
}

// Intn exposes the bag's generator for callers that need other draws
// from the same stream, such as garbage gap columns.
func (b *Bag) Intn(n int) int {
	return b.rng.Intn(n)
}
