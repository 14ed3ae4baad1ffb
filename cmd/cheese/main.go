package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/tetrizz/automatic"
	"github.com/domino14/tetrizz/config"
	"github.com/domino14/tetrizz/equity"
	"github.com/domino14/tetrizz/stats"
)

const (
	defaultRaces = 10
	maxPieces    = 1000
)

// cheese plays cheese races with the configured evaluator and reports
// how many pieces it took to dig and how often the bot survived.
func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := cfg.SetupLogging()
	ctx := logger.WithContext(context.Background())

	races := defaultRaces
	if args := cfg.Args(); len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			log.Fatal().Str("races", args[0]).Msg("bad race count")
		}
		races = n
	}

	eval, err := equity.FromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("loading-evaluator")
	}

	results := make([]automatic.CheeseResult, races)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, cfg.GetInt(config.ConfigThreads)))
	for i := range races {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p := automatic.PlayerFromConfig(cfg, eval, nil)
			results[i] = automatic.CheeseRace(p, maxPieces)
			log.Info().Int("race", i).Interface("result", results[i]).Msg("race-done")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("")
	}

	var pieces, lines stats.Statistic
	survived := 0
	for _, r := range results {
		pieces.Push(float64(r.Pieces))
		lines.Push(float64(r.LinesCleared))
		if r.Survived {
			survived++
		}
	}
	z := stats.ZVal(95)
	fmt.Printf("races: %d  survived: %d\npieces: %.1f ± %.1f\nlines: %.1f ± %.1f\n",
		races, survived, pieces.Mean(), z*pieces.StandardError(), lines.Mean(), z*lines.StandardError())
}
