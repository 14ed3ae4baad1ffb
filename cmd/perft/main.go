package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"

	"github.com/domino14/tetrizz/bag"
	"github.com/domino14/tetrizz/board"
	"github.com/domino14/tetrizz/config"
	"github.com/domino14/tetrizz/game"
	"github.com/domino14/tetrizz/movegen"
	"github.com/domino14/tetrizz/search"
	"github.com/domino14/tetrizz/stats"
)

const (
	defaultMaxDepth = 5
	samplePositions = 5000
	// sample positions restart once the stack gets this tall
	sampleHeight = 14
)

var perftQueue = []board.Piece{board.I, board.O, board.L, board.J, board.S, board.Z, board.T}

func runPerft(maxDepth int) {
	g := game.New()
	g.Board = board.FromCols([board.Width]uint64{3, 15, 12, 0, 0, 0, 0, 0, 0, 1})
	for d := 3; d <= maxDepth; d++ {
		start := time.Now()
		nodes := search.Perft(g, perftQueue, d)
		elapsed := time.Since(start)
		fmt.Printf("Depth: %d  |  Nodes: %d  |  Time: %v  |  NPS: %.0f\n",
			d, nodes, elapsed, float64(nodes)/elapsed.Seconds())
	}
}

// runSamples walks random games, timing movegen on every position, and
// shows how many placements positions tend to have.
func runSamples() error {
	b := bag.New(nil)
	gen := movegen.NewGenerator()
	g := game.New()
	var queue []board.Piece
	var counts stats.Statistic
	var timing stats.Statistic
	data := make([]float64, 0, samplePositions)

	for len(data) < samplePositions {
		queue = b.Fill(queue, 1)
		start := time.Now()
		locs := gen.Placements(&g.Board, queue[0])
		timing.Push(float64(time.Since(start).Nanoseconds()))
		counts.Push(float64(len(locs)))
		data = append(data, float64(len(locs)))

		if len(locs) == 0 || g.Board.MaxHeight() > sampleHeight {
			g = game.New()
			continue
		}
		g.Advance(queue[0], locs[b.Intn(len(locs))])
		queue = queue[1:]
	}

	fmt.Printf("\n%d positions: placements mean %.1f (min %.0f, max %.0f), movegen %.0fns ± %.0fns\n",
		counts.Count(), counts.Mean(), counts.Min(), counts.Max(), timing.Mean(), stats.ZVal(95)*timing.StandardError())
	return histogram.Fprint(os.Stdout, histogram.Hist(15, data), histogram.Linear(50))
}

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg.SetupLogging()
	stop, err := cfg.StartCPUProfile()
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	defer stop()

	maxDepth := defaultMaxDepth
	if args := cfg.Args(); len(args) > 0 {
		maxDepth, err = strconv.Atoi(args[0])
		if err != nil || maxDepth < 3 || maxDepth > len(perftQueue) {
			log.Fatal().Str("depth", args[0]).Msg("depth must be between 3 and 7")
		}
	}
	runPerft(maxDepth)
	if err := runSamples(); err != nil {
		log.Error().Err(err).Msg("histogram")
	}
}
