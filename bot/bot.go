// Package bot answers "what keys should I press" requests from a game
// client, one JSON object per request.
package bot

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/domino14/tetrizz/board"
	"github.com/domino14/tetrizz/config"
	"github.com/domino14/tetrizz/equity"
	"github.com/domino14/tetrizz/game"
	"github.com/domino14/tetrizz/keygen"
	"github.com/domino14/tetrizz/search"
)

// ErrBadRequest is returned for requests that cannot be searched.
var ErrBadRequest = errors.New("bad request")

// Failure is sent when the bot has nothing better to do.
var Failure = []keygen.Action{keygen.Harddrop, keygen.Harddrop}

// Request is the client's view of the game. Zero beam settings fall back
// to the configured ones.
type Request struct {
	Game      game.Game     `json:"game"`
	Queue     []board.Piece `json:"queue"`
	BeamWidth int           `json:"beam_width"`
	BeamDepth int           `json:"beam_depth"`
	Human     bool          `json:"human"`
}

type Bot struct {
	config *config.Config
	eval   equity.Evaluator
}

func NewBot(cfg *config.Config, eval equity.Evaluator) *Bot {
	return &Bot{config: cfg, eval: eval}
}

// Handle searches the request's position and returns the keys for the
// chosen placement, with a leading Hold if the placed piece is not the
// current one. It returns Failure and no error when no placement exists,
// and Failure with an error when the request is unusable.
func (bot *Bot) Handle(req *Request) ([]keygen.Action, error) {
	if len(req.Queue) == 0 {
		return Failure, fmt.Errorf("%w: empty queue", ErrBadRequest)
	}
	width, depth := req.BeamWidth, req.BeamDepth
	if width <= 0 {
		width = bot.config.GetInt(config.ConfigBeamWidth)
	}
	if depth <= 0 {
		depth = bot.config.GetInt(config.ConfigBeamDepth)
	}
	depth = min(depth, len(req.Queue))
	if width <= 0 || depth <= 0 {
		return Failure, fmt.Errorf("%w: width %d depth %d", ErrBadRequest, width, depth)
	}

	// requests do not carry a cap; the server's setting applies
	if c := bot.config.GetInt(config.ConfigGarbageCap); c > 0 {
		req.Game.GarbageCap = c
	}
	s := search.NewSearcher(bot.eval, depth, width)
	s.Dedup = bot.config.GetBool(config.ConfigSearchDedup)
	res, ok := s.Search(&req.Game, req.Queue)
	if !ok {
		log.Info().Msg("no-placement-found")
		return Failure, nil
	}
	loc := res.Placement()
	keys, err := keygen.Plan(req.Game.Board, loc, req.Human)
	if err != nil {
		return Failure, fmt.Errorf("planning keys for %v: %w", loc, err)
	}
	if loc.Piece != req.Queue[0] {
		keys = append([]keygen.Action{keygen.Hold}, keys...)
	}
	log.Debug().Stringer("placement", loc).Float64("score", res.Score).
		Int("nodes", res.Nodes).Msg("bot-move")
	return keys, nil
}

// HandleBytes decodes a JSON request and encodes the answer. Errors are
// logged and answered with Failure.
func (bot *Bot) HandleBytes(data []byte) []byte {
	var req Request
	keys := Failure
	if err := json.Unmarshal(data, &req); err != nil {
		log.Err(err).Msg("could-not-parse-request")
	} else if keys, err = bot.Handle(&req); err != nil {
		log.Err(err).Msg("could-not-handle-request")
	}
	out, err := json.Marshal(keys)
	if err != nil {
		// actions always marshal
		panic(err)
	}
	return out
}
