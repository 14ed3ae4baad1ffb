package training

import (
	"context"
	"math"
	"slices"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/domino14/tetrizz/automatic"
	"github.com/domino14/tetrizz/equity"
)

// mutation is the widest single-weight nudge a mutant gets before
// normalizing.
const mutation = 20.0

// RandomMinimalAgent draws minimal evaluator weights uniformly from
// [-10, 10] and normalizes them.
func RandomMinimalAgent(rng *frand.RNG) Agent {
	e := &equity.MinimalEval{}
	for i := range e.Weights {
		e.Weights[i] = uniform(rng, -10, 10)
	}
	e.Normalize()
	return Agent{Weights: e.Weights[:]}
}

// mutate copies a, nudges one random weight by up to ±20 and normalizes
// the result.
func mutate(a Agent, rng *frand.RNG) (Agent, error) {
	e, err := equity.NewMinimalEval(a.Weights)
	if err != nil {
		return Agent{}, err
	}
	e.Weights[rng.Intn(len(e.Weights))] += uniform(rng, -mutation, mutation)
	e.Normalize()
	return Agent{Weights: e.Weights[:]}, nil
}

// fitness is the sum of a's win/loss results against each opponent.
func (t *Trainer) fitness(ctx context.Context, a Agent, opponents []Agent, rng *frand.RNG) (float64, error) {
	me, err := t.player(a.Weights, rng)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, o := range opponents {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		them, err := t.player(o.Weights, rng)
		if err != nil {
			return 0, err
		}
		total += automatic.WinLoss(me, them, t.MaxMoves)
	}
	return float64(total), nil
}

// Score plays every agent against a shuffled sample of the population and
// returns copies carrying their fitness.
func (t *Trainer) Score(ctx context.Context, pop []Agent) ([]Agent, error) {
	snapshot := lo.Map(pop, func(a Agent, _ int) Agent { return a.clone() })
	scored := make([]Agent, len(pop))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.Threads)
	for i := range snapshot {
		g.Go(func() error {
			rng := frand.New()
			opponents := slices.Clone(snapshot)
			rng.Shuffle(len(opponents), func(x, y int) {
				opponents[x], opponents[y] = opponents[y], opponents[x]
			})
			opponents = opponents[:min(t.Opponents, len(opponents))]
			f, err := t.fitness(gctx, snapshot[i], opponents, rng)
			scored[i] = Agent{Weights: snapshot[i].Weights, Fitness: f}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scored, nil
}

// Breed builds the next generation from a scored population: mutants of
// random members and fresh random agents come first, and the fittest of
// the scored agents fill what is left. The size never changes.
func (t *Trainer) Breed(scored []Agent, rng *frand.RNG) ([]Agent, error) {
	size := len(scored)
	if size == 0 {
		return nil, nil
	}
	next := make([]Agent, 0, size+t.Mutants+t.Fresh)
	for range t.Mutants {
		m, err := mutate(scored[rng.Intn(size)], rng)
		if err != nil {
			return nil, err
		}
		next = append(next, m)
	}
	for range t.Fresh {
		next = append(next, RandomMinimalAgent(rng))
	}
	// newcomers have not played yet, so they outrank everyone
	for i := range next {
		next[i].Fitness = math.Inf(1)
	}

	ranked := lo.Map(scored, func(a Agent, _ int) Agent { return a.clone() })
	slices.SortStableFunc(ranked, func(a, b Agent) int {
		return compareFitness(b.Fitness, a.Fitness)
	})
	next = append(next, ranked...)
	return next[:size], nil
}

// compareFitness orders NaN below everything.
func compareFitness(a, b float64) int {
	switch {
	case math.IsNaN(a) && math.IsNaN(b):
		return 0
	case math.IsNaN(a):
		return -1
	case math.IsNaN(b):
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
