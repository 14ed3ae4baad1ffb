package equity

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/domino14/tetrizz/board"
	"github.com/domino14/tetrizz/game"
)

const (
	// NumFeatures is the length of the feature vector FeatureEval and
	// ONNXEval read.
	NumFeatures = 19
	hiddenSize  = 10
	// FeatureWeights is the flat weight count of a FeatureEval.
	FeatureWeights = NumFeatures*hiddenSize + hiddenSize
)

// Features computes the nineteen-entry feature vector:
// max height, max height over 10, max height over 15, holes, coveredness,
// row transitions, dependencies, I-dependencies, spikes, concavity,
// bumpiness, b2b clear, spin single, spin double, spin triple, quad,
// outgoing attack, combo, combo times b2b clear.
func Features(g *game.Game, info *game.PlacementInfo, out *[NumFeatures]float64) {
	s := measure(&g.Board)
	edge := func(b int) int { return b + 3 }
	deps, ideps, spikes := neighbourShape(&s.heights, edge, -1)

	concavity, bumpiness := 0, 0
	for x := 0; x < board.Width; x++ {
		b := s.heights[x]
		a, c := edge(b), edge(b)
		if x > 0 {
			a = s.heights[x-1]
		}
		if x < board.Width-1 {
			c = s.heights[x+1]
		}
		concavity += a - 2*b + c
		if a > b {
			bumpiness += a - b
		} else {
			bumpiness += b - a
		}
	}

	spin := info.Spin() != board.SpinNone
	b2b := b2f(info.B2BClear)
	*out = [NumFeatures]float64{
		float64(s.maxHeight),
		float64(max(s.maxHeight, 10) - 10),
		float64(max(s.maxHeight, 15) - 15),
		float64(s.holes),
		float64(s.coveredness),
		float64(s.rowTransition),
		float64(deps),
		float64(ideps),
		float64(spikes),
		float64(concavity),
		float64(bumpiness),
		b2b,
		b2f(spin && info.LinesCleared == 1),
		b2f(spin && info.LinesCleared == 2),
		b2f(spin && info.LinesCleared == 3),
		b2f(info.LinesCleared == 4),
		float64(info.OutgoingAttack),
		float64(g.Combo),
		float64(g.Combo) * b2b,
	}
}

// FeatureEval is a two-layer linear model over Features: ten hidden sums
// of the features, combined by a second weight vector.
type FeatureEval struct {
	Hidden [hiddenSize][NumFeatures]float64
	Output [hiddenSize]float64
}

// NewFeatureEval unpacks a flat weight vector. Hidden unit j reads
// w[19j : 19j+19]; the output weights are the last ten entries.
func NewFeatureEval(w []float64) (*FeatureEval, error) {
	if len(w) != FeatureWeights {
		return nil, fmt.Errorf("feature evaluator: got %d: %w", len(w), ErrWeightCount)
	}
	e := &FeatureEval{}
	for j := range e.Hidden {
		copy(e.Hidden[j][:], w[j*NumFeatures:(j+1)*NumFeatures])
	}
	copy(e.Output[:], w[NumFeatures*hiddenSize:])
	return e, nil
}

// Flat is the inverse of NewFeatureEval.
func (e *FeatureEval) Flat() []float64 {
	w := make([]float64, 0, FeatureWeights)
	for j := range e.Hidden {
		w = append(w, e.Hidden[j][:]...)
	}
	return append(w, e.Output[:]...)
}

func (e *FeatureEval) Value(g *game.Game, info *game.PlacementInfo) float64 {
	var f [NumFeatures]float64
	Features(g, info, &f)
	v := 0.0
	for j := range e.Hidden {
		v += e.Output[j] * floats.Dot(e.Hidden[j][:], f[:])
	}
	return v
}
