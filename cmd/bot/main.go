package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/domino14/tetrizz/bot"
	"github.com/domino14/tetrizz/config"
	"github.com/domino14/tetrizz/equity"
)

// The bot answers requests on stdin/stdout when started with the stdio
// argument, and over NATS otherwise.
func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("loading-config")
	}
	logger := cfg.SetupLogging()

	eval, err := equity.FromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("loading-evaluator")
	}
	b := bot.NewBot(cfg, eval)

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background()))
	defer cancel()
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		// We received an interrupt signal, shut down.
		log.Info().Msg("got quit signal...")
		cancel()
	}()

	args := cfg.Args()
	if len(args) > 0 && args[0] == "stdio" {
		err = b.RunLoop(ctx, os.Stdin, os.Stdout)
	} else {
		err = b.Serve(ctx, cfg.GetString(config.ConfigNatsSubject))
	}
	if err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("bot-exited")
	}
	log.Info().Msg("bot gracefully shutting down")
}
