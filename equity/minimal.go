package equity

import (
	"fmt"
	"math"
	"math/bits"

	"gonum.org/v1/gonum/floats"

	"github.com/domino14/tetrizz/board"
	"github.com/domino14/tetrizz/game"
)

// MinimalWeights is the number of weights MinimalEval takes.
const MinimalWeights = 14

var defaultMinimalWeights = [MinimalWeights]float64{
	-333.5903388433292, -257.50971325030974, -51.15233297009883, -306.7533752401169,
	-185.4127319664896, -107.0342999530273, -369.0213829655287, 96.63015564572557,
	-476.6250155906852, -58.72828521759004, 1068.12123537880416, -1016.9857268318688,
	-457.5993254187147, 2280.85733274743393,
}

// MinimalEval is a linear evaluator over fourteen hand-picked features:
//
//	0  max height
//	1  max height over 10
//	2  max height over 15
//	3  holes
//	4  coveredness
//	5  row transitions
//	6  well depth
//	7  dependencies
//	8  I-dependencies
//	9  spikes
//	10 spin clear
//	11 broke surge
//	12 outgoing attack
//	13 ln(1 + (b2b + 1))
type MinimalEval struct {
	Weights [MinimalWeights]float64
}

// DefaultMinimalEval returns the evaluator with the shipped weights.
func DefaultMinimalEval() *MinimalEval {
	return &MinimalEval{Weights: defaultMinimalWeights}
}

// NewMinimalEval copies w into a new evaluator.
func NewMinimalEval(w []float64) (*MinimalEval, error) {
	if len(w) != MinimalWeights {
		return nil, fmt.Errorf("minimal evaluator: got %d: %w", len(w), ErrWeightCount)
	}
	e := &MinimalEval{}
	copy(e.Weights[:], w)
	return e, nil
}

// Normalize scales the weights to a vector of norm 1000. A zero vector is
// left alone.
func (e *MinimalEval) Normalize() {
	n := floats.Norm(e.Weights[:], 2)
	if n == 0 {
		return
	}
	floats.Scale(1000/n, e.Weights[:])
}

func (e *MinimalEval) features(g *game.Game, info *game.PlacementInfo) [MinimalWeights]float64 {
	s := measure(&g.Board)

	// well depth: how many almost-full rows sit right above the lowest
	// column's surface
	well := 0
	for x := 1; x < board.Width; x++ {
		if s.heights[x] < s.heights[well] {
			well = x
		}
	}
	almostFull := ^uint64(0)
	for x, c := range g.Board.Cols {
		if x != well {
			almostFull &= c
		}
	}
	depth := bits.TrailingZeros64(^(almostFull >> uint(s.heights[well])))

	deps, ideps, spikes := neighbourShape(&s.heights, func(int) int { return 99 }, well)

	spinClear := info.Spin() != board.SpinNone && info.LinesCleared > 0

	return [MinimalWeights]float64{
		float64(s.maxHeight),
		float64(max(s.maxHeight, 10) - 10),
		float64(max(s.maxHeight, 15) - 15),
		float64(s.holes),
		float64(s.coveredness),
		float64(s.rowTransition),
		float64(depth),
		float64(deps),
		float64(ideps),
		float64(spikes),
		b2f(spinClear),
		b2f(info.BrokeSurge),
		float64(info.OutgoingAttack),
		math.Log1p(float64(g.B2B) + 1),
	}
}

func (e *MinimalEval) Value(g *game.Game, info *game.PlacementInfo) float64 {
	f := e.features(g, info)
	return floats.Dot(e.Weights[:], f[:])
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
