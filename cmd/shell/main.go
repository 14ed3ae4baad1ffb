package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/domino14/tetrizz/config"
	"github.com/domino14/tetrizz/shell"
)

var (
	GitVersion string
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg.SetupLogging()
	fmt.Println("tetrizz", GitVersion)

	stop, err := cfg.StartCPUProfile()
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	defer stop()

	sc, err := shell.NewShellController(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("starting-shell")
	}

	idleConnsClosed := make(chan struct{})
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		// We received an interrupt signal, shut down.
		log.Info().Msg("got quit signal...")
		close(idleConnsClosed)
	}()

	// A command line given as arguments is run once instead of the REPL.
	argsLine := strings.TrimSpace(strings.Join(cfg.Args(), " "))
	if argsLine == "" {
		go sc.Loop(sig)
	} else {
		resp, err := sc.Execute(argsLine)
		if err != nil {
			log.Error().Err(err).Msg("")
		} else if resp != nil {
			fmt.Println(resp)
		}
		sig <- syscall.SIGINT
	}

	<-idleConnsClosed
}
