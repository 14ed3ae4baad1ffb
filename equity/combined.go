package equity

import (
	"github.com/samber/lo"

	"github.com/domino14/tetrizz/game"
)

// Weighted is one term of a Combined evaluator.
type Weighted struct {
	Eval   Evaluator
	Weight float64
}

// Combined is a weighted sum of evaluators, e.g. a hand-tuned linear eval
// blended with a learned one.
type Combined struct {
	Parts []Weighted
}

func NewCombined(parts ...Weighted) *Combined {
	return &Combined{Parts: parts}
}

func (c *Combined) Value(g *game.Game, info *game.PlacementInfo) float64 {
	return lo.SumBy(c.Parts, func(p Weighted) float64 {
		return p.Weight * p.Eval.Value(g, info)
	})
}
