package equity

import (
	"errors"
	"math"

	"github.com/domino14/tetrizz/game"
)

// ErrWeightCount is returned when a weight vector has the wrong length for
// the evaluator it is meant for.
var ErrWeightCount = errors.New("wrong number of weights")

// Evaluator scores the state a placement leads to. Higher is better.
// Implementations are called once per search candidate so they must be
// cheap, and they must not keep references to g or info.
type Evaluator interface {
	Value(g *game.Game, info *game.PlacementInfo) float64
}

// Value is e.Value with NaN mapped to negative infinity, so that scores
// always have a total order.
func Value(e Evaluator, g *game.Game, info *game.PlacementInfo) float64 {
	v := e.Value(g, info)
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}
