package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/domino14/tetrizz/automatic"
	"github.com/domino14/tetrizz/config"
	"github.com/domino14/tetrizz/equity"
)

const (
	defaultGames = 100
	debugAddr    = "localhost:8088"
)

// autoplay pits the configured evaluator against the default minimal
// weights. Progress is published on /debug/vars.
func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := cfg.SetupLogging()
	stop, err := cfg.StartCPUProfile()
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	defer stop()

	games := defaultGames
	logPath := "/tmp/tetrizz-autoplay.csv"
	args := cfg.Args()
	if len(args) > 0 {
		if games, err = strconv.Atoi(args[0]); err != nil || games < 1 {
			log.Fatal().Str("games", args[0]).Msg("bad game count")
		}
	}
	if len(args) > 1 {
		logPath = args[1]
	}

	challenger, err := equity.FromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("loading-evaluator")
	}
	baseline := equity.DefaultMinimalEval()
	factory := func() (*automatic.Player, *automatic.Player, error) {
		a := automatic.PlayerFromConfig(cfg, challenger, nil)
		b := automatic.PlayerFromConfig(cfg, baseline, nil)
		return a, b, nil
	}

	go func() {
		if err := http.ListenAndServe(debugAddr, expvar.Handler()); err != nil {
			log.Error().Err(err).Msg("debug-server")
		}
	}()

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background()))
	defer cancel()
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("got quit signal...")
		cancel()
	}()

	f, err := os.Create(logPath)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	defer f.Close()

	summary, err := automatic.RunMatches(ctx, cfg, factory, games, f)
	if err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("autoplay")
	}
	if summary == nil {
		return
	}
	fmt.Printf("wins: %d  losses: %d  draws: %d  score: %.3f ± %.3f  moves: %.1f\n",
		summary.Wins, summary.Losses, summary.Draws, summary.Score.Mean(),
		summary.Score.StandardError(), summary.Moves.Mean())
}
