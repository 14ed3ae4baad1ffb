package training

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"lukechampine.com/frand"

	"github.com/domino14/tetrizz/config"
	"github.com/domino14/tetrizz/equity"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func tinyTrainer() *Trainer {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigBeamDepth, 1)
	cfg.Set(config.ConfigBeamWidth, 4)
	cfg.Set(config.ConfigTrainOpponents, 2)
	cfg.Set(config.ConfigTrainMaxMoves, 4)
	cfg.Set(config.ConfigThreads, 2)
	return NewTrainer(cfg)
}

func geneticTrainer() *Trainer {
	tr := tinyTrainer()
	tr.Method = MethodGenetic
	tr.Mutants = 1
	tr.Fresh = 1
	return tr
}

func assertNormalized(t *testing.T, a Agent) {
	t.Helper()
	assert.Len(t, a.Weights, equity.MinimalWeights)
	assert.InDelta(t, 1000, floats.Norm(a.Weights, 2), 1e-6)
}

func TestGains(t *testing.T) {
	is := is.New(t)
	c, lr := gains(0)
	is.Equal(c, 0.1)
	is.Equal(lr, 0.02)
	c, lr = gains(1000)
	is.True(math.Abs(c-0.1/math.E) < 1e-12)
	is.True(math.Abs(lr-0.02/(math.E*math.E)) < 1e-12)
}

func TestRandomAgent(t *testing.T) {
	is := is.New(t)
	a := RandomAgent(frand.New(), equity.FeatureWeights)
	is.Equal(len(a.Weights), equity.FeatureWeights)
	for _, w := range a.Weights {
		is.True(w >= -1 && w < 1)
	}
}

func TestStep(t *testing.T) {
	tr := tinyTrainer()
	rng := frand.New()
	pop := []Agent{
		RandomAgent(rng, equity.FeatureWeights),
		RandomAgent(rng, equity.FeatureWeights),
		{Weights: make([]float64, equity.FeatureWeights), Fitness: math.NaN()},
	}
	before := pop[0].clone()

	next, err := tr.Step(context.Background(), pop, 0)
	require.NoError(t, err)
	require.Len(t, next, 3)
	// the input is not modified
	assert.Equal(t, before, pop[0])
	// a NaN agent is carried over untouched
	assert.True(t, math.IsNaN(next[2].Fitness))
	for i, a := range next[:2] {
		assert.Len(t, a.Weights, equity.FeatureWeights)
		// each side scores within [-1, 1] plus the noise
		assert.InDelta(t, 0, a.Fitness, 2*1.02+0.04)
		// the step moves every weight by the same amount, up or down
		d := math.Abs(a.Weights[0] - pop[i].Weights[0])
		for j := range a.Weights {
			assert.InDelta(t, d, math.Abs(a.Weights[j]-pop[i].Weights[j]), 1e-9)
		}
	}
}

func TestStepBadWeights(t *testing.T) {
	tr := tinyTrainer()
	pop := []Agent{{Weights: []float64{1, 2}}, {Weights: []float64{3}}}
	_, err := tr.Step(context.Background(), pop, 0)
	assert.ErrorIs(t, err, equity.ErrWeightCount)
}

func TestStepCancelled(t *testing.T) {
	tr := tinyTrainer()
	rng := frand.New()
	pop := []Agent{RandomAgent(rng, equity.FeatureWeights), RandomAgent(rng, equity.FeatureWeights)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.Step(ctx, pop, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWithHistory(t *testing.T) {
	tr := tinyTrainer()
	h, err := OpenHistory(filepath.Join(t.TempDir(), "train.db"))
	require.NoError(t, err)
	defer h.Close()
	tr.History = h

	pop, best, err := tr.Run(context.Background(), 3, 2)
	require.NoError(t, err)
	assert.Len(t, pop, 3)
	assert.Len(t, best.Weights, equity.FeatureWeights)

	n, err := h.Generations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, stored, err := h.Best(context.Background())
	require.NoError(t, err)
	assert.Equal(t, best.Fitness, stored.Fitness)
}

func TestHistory(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	h, err := OpenHistory(":memory:")
	is.NoErr(err)
	defer h.Close()

	_, _, err = h.Best(ctx)
	is.Equal(err, ErrNoHistory)

	is.NoErr(h.Record(ctx, 0, []Agent{
		{Weights: []float64{1, 2}, Fitness: 0.5},
		{Weights: []float64{3, 4}, Fitness: math.NaN()},
	}))
	is.NoErr(h.Record(ctx, 1, []Agent{
		{Weights: []float64{5, 6}, Fitness: 1.25},
		{Weights: []float64{7, 8}, Fitness: -1},
	}))
	gen, a, err := h.Best(ctx)
	is.NoErr(err)
	is.Equal(gen, 1)
	is.Equal(a, Agent{Weights: []float64{5, 6}, Fitness: 1.25})

	n, err := h.Generations(ctx)
	is.NoErr(err)
	is.Equal(n, 2)
}

func TestRandomMinimalAgent(t *testing.T) {
	a := RandomMinimalAgent(frand.New())
	assertNormalized(t, a)
}

func TestMutate(t *testing.T) {
	rng := frand.New()
	a := RandomMinimalAgent(rng)
	before := a.clone()
	m, err := mutate(a, rng)
	require.NoError(t, err)
	assertNormalized(t, m)
	assert.Equal(t, before, a)

	_, err = mutate(Agent{Weights: []float64{1}}, rng)
	assert.ErrorIs(t, err, equity.ErrWeightCount)
}

func TestGeneticGeneration(t *testing.T) {
	tr := geneticTrainer()
	rng := frand.New()
	pop := make([]Agent, 4)
	for i := range pop {
		pop[i] = RandomMinimalAgent(rng)
	}

	scored, err := tr.Score(context.Background(), pop)
	require.NoError(t, err)
	require.Len(t, scored, 4)
	for i, a := range scored {
		assert.Equal(t, pop[i].Weights, a.Weights)
		// one win or loss per opponent at most
		assert.LessOrEqual(t, math.Abs(a.Fitness), float64(tr.Opponents))
	}

	next, err := tr.Breed(scored, rng)
	require.NoError(t, err)
	require.Len(t, next, 4)
	for _, a := range next {
		assertNormalized(t, a)
	}
	// the mutant and the newcomer lead, then the two fittest survivors
	assert.True(t, math.IsInf(next[0].Fitness, 1))
	assert.True(t, math.IsInf(next[1].Fitness, 1))
	fits := []float64{scored[0].Fitness, scored[1].Fitness, scored[2].Fitness, scored[3].Fitness}
	floats.Argsort(fits, make([]int, len(fits)))
	assert.Equal(t, fits[3], next[2].Fitness)
	assert.Equal(t, fits[2], next[3].Fitness)
}

func TestBreedKeepsSize(t *testing.T) {
	tr := geneticTrainer()
	tr.Mutants, tr.Fresh = 3, 3
	rng := frand.New()
	scored := []Agent{RandomMinimalAgent(rng), RandomMinimalAgent(rng)}
	next, err := tr.Breed(scored, rng)
	require.NoError(t, err)
	assert.Len(t, next, 2)

	next, err = tr.Breed(nil, rng)
	require.NoError(t, err)
	assert.Empty(t, next)
}

func TestGeneticRun(t *testing.T) {
	tr := geneticTrainer()
	assert.Equal(t, equity.KindMinimal, tr.Kind())
	h, err := OpenHistory(filepath.Join(t.TempDir(), "train.db"))
	require.NoError(t, err)
	defer h.Close()
	tr.History = h

	pop, best, err := tr.Run(context.Background(), 3, 2)
	require.NoError(t, err)
	assert.Len(t, pop, 3)
	assertNormalized(t, best)
	assert.False(t, math.IsInf(best.Fitness, 0))

	_, stored, err := h.Best(context.Background())
	require.NoError(t, err)
	assert.Equal(t, best.Fitness, stored.Fitness)

	// the winner round-trips as a minimal weight file
	var buf bytes.Buffer
	require.NoError(t, equity.WriteWeights(&buf, tr.Kind(), best.Weights))
	wf, err := equity.ReadWeights(&buf)
	require.NoError(t, err)
	eval, err := wf.Evaluator()
	require.NoError(t, err)
	assert.IsType(t, &equity.MinimalEval{}, eval)
}

func TestTrainerFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigTrainMethod, MethodGenetic)
	cfg.Set(config.ConfigGarbageCap, 3)
	cfg.Set(config.ConfigBeamDepth, 1)
	cfg.Set(config.ConfigBeamWidth, 4)
	tr := NewTrainer(cfg)
	assert.Equal(t, MethodGenetic, tr.Method)
	assert.Equal(t, 6, tr.Mutants)
	assert.Equal(t, 17, tr.Fresh)

	p, err := tr.player(RandomMinimalAgent(frand.New()).Weights, frand.New())
	require.NoError(t, err)
	assert.Equal(t, 3, p.GarbageCap)
	assert.IsType(t, &equity.MinimalEval{}, p.Eval)
}
