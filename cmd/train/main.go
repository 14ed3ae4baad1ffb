package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/domino14/tetrizz/config"
	"github.com/domino14/tetrizz/equity"
	"github.com/domino14/tetrizz/training"
)

const defaultOutput = "tetrizz-weights.yaml"

// train runs self-play training (SPSA over feature weights, or the
// genetic method over minimal weights), keeps every generation in the
// history database and writes the fittest agent as a weight file.
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

	output := defaultOutput
	if args := cfg.Args(); len(args) > 0 {
		output = args[0]
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background()))
	defer cancel()
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("got quit signal, stopping after this generation...")
		cancel()
	}()

	history, err := training.OpenHistory(cfg.GetString(config.ConfigTrainDBPath))
	if err != nil {
		log.Fatal().Err(err).Msg("opening-history")
	}
	defer history.Close()

	if prev, err := history.Generations(ctx); err == nil && prev > 0 {
		log.Warn().Int("generations", prev).Msg("history-not-empty-overwriting-from-generation-0")
	}

	t := training.NewTrainer(cfg)
	if t.Method != training.MethodSPSA && t.Method != training.MethodGenetic {
		log.Fatal().Str("method", t.Method).Msg("unknown-training-method")
	}
	t.History = history
	_, best, err := t.Run(ctx, cfg.GetInt(config.ConfigTrainAgents), cfg.GetInt(config.ConfigTrainIterations))
	if err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("training")
	}
	if gen, top, err := history.Best(context.Background()); err == nil {
		log.Info().Int("generation", gen).Float64("fitness", top.Fitness).Msg("best-recorded-agent")
	}
	if best.Weights == nil {
		log.Warn().Msg("no generation finished; nothing to write")
		return
	}

	f, err := os.Create(output)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	defer f.Close()
	if err := equity.WriteWeights(f, t.Kind(), best.Weights); err != nil {
		log.Fatal().Err(err).Msg("writing-weights")
	}
	log.Info().Str("path", output).Str("kind", t.Kind()).Float64("fitness", best.Fitness).Msg("wrote-best-agent")
}
