package automatic

// Computer vs computer match runs, for comparing evaluators.

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/tetrizz/config"
	"github.com/domino14/tetrizz/stats"
)

var (
	MatchCounter *expvar.Int
	IsPlaying    *expvar.Int
)

func init() {
	MatchCounter = expvar.NewInt("matchCounter")
	IsPlaying = expvar.NewInt("isPlaying")
}

// PlayerFactory builds a fresh pair of players for one worker. Players
// hold searchers, so every worker needs its own pair.
type PlayerFactory func() (*Player, *Player, error)

// MatchSummary tallies results from the first player's side.
type MatchSummary struct {
	Wins   int
	Losses int
	Draws  int
	Score  stats.Statistic
	Moves  stats.Statistic
}

type matchResult struct {
	game   int
	result int
	moves  int
}

// RunMatches plays numGames matches across the configured number of
// threads and writes one CSV line per match to w (if not nil). It stops
// early when ctx is cancelled, returning the games finished so far.
func RunMatches(ctx context.Context, cfg *config.Config, factory PlayerFactory,
	numGames int, w io.Writer) (*MatchSummary, error) {

	if IsPlaying.Value() > 0 {
		return nil, errors.New("matches are already being played, please wait till complete")
	}
	logger := zerolog.Ctx(ctx)
	threads := max(1, cfg.GetInt(config.ConfigThreads))
	maxMoves := cfg.GetInt(config.ConfigTrainMaxMoves)
	logger.Debug().Int("games", numGames).Int("threads", threads).Msg("starting-matches")

	pairs := make([][2]*Player, threads)
	for t := range pairs {
		a, b, err := factory()
		if err != nil {
			return nil, err
		}
		pairs[t] = [2]*Player{a, b}
	}

	MatchCounter.Set(0)
	jobs := make(chan int)
	results := make(chan matchResult)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range numGames {
			select {
			case jobs <- i:
			case <-gctx.Done():
				logger.Info().Int("queued", i).Msg("got-stop-signal")
				return nil
			}
		}
		return nil
	})

	var workers errgroup.Group
	for _, pair := range pairs {
		a, b := pair[0], pair[1]
		workers.Go(func() error {
			IsPlaying.Add(1)
			defer IsPlaying.Add(-1)
			for i := range jobs {
				result, moves := playMatch(a, b, maxMoves)
				MatchCounter.Add(1)
				results <- matchResult{game: i, result: result, moves: moves}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(results)
		return workers.Wait()
	})

	summary := &MatchSummary{}
	if w != nil {
		if _, err := io.WriteString(w, "game,result,moves\n"); err != nil {
			logger.Err(err).Msg("match-log-write")
			w = nil
		}
	}
	for r := range results {
		switch r.result {
		case 1:
			summary.Wins++
		case -1:
			summary.Losses++
		default:
			summary.Draws++
		}
		summary.Score.Push(float64(r.result))
		summary.Moves.Push(float64(r.moves))
		if w != nil {
			if _, err := fmt.Fprintf(w, "%d,%d,%d\n", r.game, r.result, r.moves); err != nil {
				logger.Err(err).Msg("match-log-write")
				w = nil
			}
		}
	}
	err := g.Wait()
	logger.Info().Int("wins", summary.Wins).Int("losses", summary.Losses).
		Int("draws", summary.Draws).Object("score", &summary.Score).Msg("matches-done")
	return summary, err
}
