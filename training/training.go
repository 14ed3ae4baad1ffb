// Package training tunes evaluator weights by self-play. Two methods are
// available. SPSA (simultaneous perturbation stochastic approximation)
// tunes feature weights: every agent plays a shuffled set of opponents
// with its weights nudged up and down along a random sign vector, and
// moves along the difference. The genetic method tunes minimal weights:
// agents are scored by battles, the fittest survive, and mutants and
// random newcomers fill the population back up.
package training

import (
	"context"
	"math"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"lukechampine.com/frand"

	"github.com/domino14/tetrizz/automatic"
	"github.com/domino14/tetrizz/bag"
	"github.com/domino14/tetrizz/config"
	"github.com/domino14/tetrizz/equity"
	"github.com/domino14/tetrizz/search"
	"github.com/domino14/tetrizz/stats"
)

// Agent is one member of the population.
type Agent struct {
	Weights []float64 `json:"weights"`
	Fitness float64   `json:"fitness"`
}

// RandomAgent draws every weight uniformly from [-1, 1).
func RandomAgent(rng *frand.RNG, n int) Agent {
	w := make([]float64, n)
	for i := range w {
		w[i] = rng.Float64()*2 - 1
	}
	return Agent{Weights: w}
}

func (a Agent) clone() Agent {
	return Agent{Weights: append([]float64(nil), a.Weights...), Fitness: a.Fitness}
}

const (
	MethodSPSA    = "spsa"
	MethodGenetic = "genetic"
)

// Trainer holds the knobs of a training run.
type Trainer struct {
	// Method is MethodSPSA (the default) or MethodGenetic.
	Method    string
	Opponents int
	Threads   int
	MaxMoves  int
	Depth     int
	Width     int
	// Mutants and Fresh are how many mutants and random agents each
	// genetic generation brings in.
	Mutants    int
	Fresh      int
	GarbageCap int
	// History, if set, gets every generation.
	History *History
}

// NewTrainer reads its settings from cfg.
func NewTrainer(cfg *config.Config) *Trainer {
	return &Trainer{
		Method:     cfg.GetString(config.ConfigTrainMethod),
		Opponents:  cfg.GetInt(config.ConfigTrainOpponents),
		Threads:    max(1, cfg.GetInt(config.ConfigThreads)),
		MaxMoves:   cfg.GetInt(config.ConfigTrainMaxMoves),
		Depth:      cfg.GetInt(config.ConfigBeamDepth),
		Width:      cfg.GetInt(config.ConfigBeamWidth),
		Mutants:    cfg.GetInt(config.ConfigTrainMutants),
		Fresh:      cfg.GetInt(config.ConfigTrainFresh),
		GarbageCap: cfg.GetInt(config.ConfigGarbageCap),
	}
}

// Kind is the weight file kind the trainer's agents are.
func (t *Trainer) Kind() string {
	if t.Method == MethodGenetic {
		return equity.KindMinimal
	}
	return equity.KindFeature
}

func (t *Trainer) randomAgent(rng *frand.RNG) Agent {
	if t.Method == MethodGenetic {
		return RandomMinimalAgent(rng)
	}
	return RandomAgent(rng, equity.FeatureWeights)
}

// gains returns the perturbation size and learning rate for generation n.
func gains(n int) (c, lr float64) {
	return 0.1 * math.Exp(-0.001*float64(n)), 0.02 * math.Exp(-0.002*float64(n))
}

func (t *Trainer) player(w []float64, rng *frand.RNG) (*automatic.Player, error) {
	wf := equity.WeightFile{Kind: t.Kind(), Weights: w}
	eval, err := wf.Evaluator()
	if err != nil {
		return nil, err
	}
	p := automatic.NewPlayer(eval, search.NewSearcher(eval, t.Depth, t.Width), bag.New(rng))
	if t.GarbageCap > 0 {
		p.GarbageCap = t.GarbageCap
	}
	return p, nil
}

// winRate plays w against every opponent and returns the mean result,
// jittered by a small multiplicative and additive noise.
func (t *Trainer) winRate(ctx context.Context, w []float64, opponents []Agent, rng *frand.RNG) (float64, error) {
	me, err := t.player(w, rng)
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
	mean := float64(total) / float64(len(opponents))
	return uniform(rng, 0.98, 1.02)*mean + uniform(rng, -0.02, 0.02), nil
}

func uniform(rng *frand.RNG, low, high float64) float64 {
	return low + rng.Float64()*(high-low)
}

// update runs one SPSA step for a single agent against the frozen
// population snapshot.
func (t *Trainer) update(ctx context.Context, a Agent, snapshot []Agent, gen int) (Agent, error) {
	if math.IsNaN(a.Fitness) {
		return a, nil
	}
	rng := frand.New()
	opponents := make([]Agent, len(snapshot))
	copy(opponents, snapshot)
	rng.Shuffle(len(opponents), func(i, j int) {
		opponents[i], opponents[j] = opponents[j], opponents[i]
	})
	opponents = opponents[:min(t.Opponents, len(opponents))]
	if len(opponents) == 0 {
		return a, nil
	}

	c, lr := gains(gen)
	perturb := make([]float64, len(a.Weights))
	for i := range perturb {
		perturb[i] = 1
		if rng.Intn(2) == 0 {
			perturb[i] = -1
		}
	}
	plus := append([]float64(nil), a.Weights...)
	floats.AddScaled(plus, c, perturb)
	minus := append([]float64(nil), a.Weights...)
	floats.AddScaled(minus, -c, perturb)

	wl1, err := t.winRate(ctx, plus, opponents, rng)
	if err != nil {
		return a, err
	}
	wl2, err := t.winRate(ctx, minus, opponents, rng)
	if err != nil {
		return a, err
	}
	next := Agent{Weights: append([]float64(nil), a.Weights...), Fitness: wl1 + wl2}
	floats.AddScaled(next.Weights, lr*(wl1-wl2)/(2*c), perturb)
	return next, nil
}

// Step runs generation gen and returns the next population. The input
// slice is left untouched.
func (t *Trainer) Step(ctx context.Context, pop []Agent, gen int) ([]Agent, error) {
	snapshot := lo.Map(pop, func(a Agent, _ int) Agent { return a.clone() })
	next := make([]Agent, len(pop))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.Threads)
	for i := range pop {
		g.Go(func() error {
			a, err := t.update(gctx, snapshot[i], snapshot, gen)
			next[i] = a
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return next, nil
}

// generation runs one generation and returns the agents as scored this
// generation and the population to carry into the next one. For SPSA
// they are the same.
func (t *Trainer) generation(ctx context.Context, pop []Agent, gen int, rng *frand.RNG) ([]Agent, []Agent, error) {
	if t.Method != MethodGenetic {
		next, err := t.Step(ctx, pop, gen)
		return next, next, err
	}
	scored, err := t.Score(ctx, pop)
	if err != nil {
		return nil, nil, err
	}
	next, err := t.Breed(scored, rng)
	return scored, next, err
}

// Run trains a random population of agents for iterations generations
// and returns the final population and the fittest agent seen.
func (t *Trainer) Run(ctx context.Context, agents, iterations int) ([]Agent, Agent, error) {
	logger := zerolog.Ctx(ctx)
	rng := frand.New()
	pop := make([]Agent, agents)
	for i := range pop {
		pop[i] = t.randomAgent(rng)
	}
	best := Agent{Fitness: math.Inf(-1)}
	z := stats.ZVal(95)

	for gen := 0; gen < iterations; gen++ {
		scored, next, err := t.generation(ctx, pop, gen, rng)
		if err != nil {
			return pop, best, err
		}
		pop = next

		var fit stats.Statistic
		for _, a := range scored {
			if !math.IsNaN(a.Fitness) {
				fit.Push(a.Fitness)
			}
		}
		top := lo.MaxBy(scored, func(a, b Agent) bool { return a.Fitness > b.Fitness })
		if top.Fitness > best.Fitness {
			best = top.clone()
		}
		logger.Info().Int("generation", gen).
			Float64("mean", fit.Mean()).
			Float64("ci", z*fit.StandardError()).
			Float64("best", best.Fitness).
			Msg("generation-done")

		if t.History != nil {
			if err := t.History.Record(ctx, gen, scored); err != nil {
				return pop, best, err
			}
		}
	}
	return pop, best, nil
}
