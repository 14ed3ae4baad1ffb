package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/tetrizz/board"
	"github.com/domino14/tetrizz/config"
	"github.com/domino14/tetrizz/equity"
	"github.com/domino14/tetrizz/game"
	"github.com/domino14/tetrizz/keygen"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

type attackEval struct{}

func (attackEval) Value(_ *game.Game, info *game.PlacementInfo) float64 {
	return float64(info.OutgoingAttack)
}

func testBot(eval equity.Evaluator) *Bot {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigBeamWidth, 20)
	cfg.Set(config.ConfigBeamDepth, 2)
	return NewBot(cfg, eval)
}

func queue(s string) []board.Piece {
	q, err := board.ParseQueue(s)
	if err != nil {
		panic(err)
	}
	return q
}

func TestHandleReplays(t *testing.T) {
	is := is.New(t)
	req := &Request{Game: game.New(), Queue: queue("TIOLJSZ")}
	keys, err := testBot(equity.DefaultMinimalEval()).Handle(req)
	is.NoErr(err)
	is.Equal(keys[len(keys)-1], keygen.Harddrop)
	is.True(keys[0] != keygen.Hold || len(keys) > 1)

	piece := board.T
	if keys[0] == keygen.Hold {
		piece = board.I
	}
	loc, err := keygen.Replay(req.Game.Board, piece, keys)
	is.NoErr(err)
	is.Equal(req.Game.Board.DistanceToGround(loc), 0)
}

func TestHandlePrependsHold(t *testing.T) {
	is := is.New(t)
	g := game.New()
	g.Board = board.MustParse(`
		#########.
		#########.
		#########.
		#########.
	`)
	g.Hold, g.HasHold = board.I, true
	req := &Request{Game: g, Queue: queue("OOO"), BeamDepth: 1, Human: true}
	keys, err := testBot(attackEval{}).Handle(req)
	is.NoErr(err)
	is.Equal(keys[0], keygen.Hold)
	is.Equal(keys[len(keys)-1], keygen.Harddrop)
}

func TestHandleBadRequests(t *testing.T) {
	is := is.New(t)
	bot := testBot(equity.DefaultMinimalEval())

	keys, err := bot.Handle(&Request{Game: game.New()})
	is.True(errors.Is(err, ErrBadRequest))
	is.Equal(keys, Failure)

	is.Equal(string(bot.HandleBytes([]byte(`{"queue": [`))), `["Harddrop","Harddrop"]`)
	is.Equal(string(bot.HandleBytes([]byte(`{"queue": ["Q"]}`))), `["Harddrop","Harddrop"]`)
}

func TestHandleToppedOut(t *testing.T) {
	is := is.New(t)
	g := game.New()
	for x := 1; x < board.Width; x++ {
		g.Board.Cols[x] = 1<<30 - 1
	}
	keys, err := testBot(equity.DefaultMinimalEval()).Handle(&Request{Game: g, Queue: queue("TT")})
	is.NoErr(err)
	is.Equal(keys, Failure)
}

func TestRequestJSON(t *testing.T) {
	is := is.New(t)
	data := `{"game":{"board":{"cols":[1,1,1,1,1,1,1,1,1,0]},"hold":"I","b2b":2,"combo":-1,"incoming_garbage":3},` +
		`"queue":["T","S","Z"],"beam_width":10,"beam_depth":2,"human":true}`
	var req Request
	is.NoErr(json.Unmarshal([]byte(data), &req))
	is.Equal(req.Queue, queue("TSZ"))
	is.Equal(req.Game.Hold, board.I)
	is.True(req.Game.HasHold)
	is.Equal(req.Game.B2B, 2)
	is.Equal(req.Game.IncomingGarbage, 3)
	is.Equal(req.BeamWidth, 10)
	is.True(req.Human)
}

func TestRunLoop(t *testing.T) {
	is := is.New(t)
	in := strings.Join([]string{
		`{"game":{"board":{"cols":[0,0,0,0,0,0,0,0,0,0]},"hold":null,"b2b":-1,"combo":-1,"incoming_garbage":0},"queue":["T","O"],"beam_width":5,"beam_depth":1,"human":false}`,
		``,
		`not json`,
	}, "\n")
	var out bytes.Buffer
	is.NoErr(testBot(equity.DefaultMinimalEval()).RunLoop(context.Background(), strings.NewReader(in), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	is.Equal(len(lines), 2)
	var keys []keygen.Action
	is.NoErr(json.Unmarshal([]byte(lines[0]), &keys))
	is.Equal(keys[len(keys)-1], keygen.Harddrop)
	is.Equal(lines[1], `["Harddrop","Harddrop"]`)
}

func TestRunLoopCancelled(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := testBot(equity.DefaultMinimalEval()).RunLoop(ctx, strings.NewReader("x\n"), &out)
	is.True(errors.Is(err, context.Canceled))
	is.Equal(out.Len(), 0)
}

func TestHandleAppliesConfiguredGarbageCap(t *testing.T) {
	is := is.New(t)
	b := testBot(equity.DefaultMinimalEval())
	b.config.Set(config.ConfigGarbageCap, 2)
	g := game.New()
	g.IncomingGarbage = 6
	req := &Request{Game: g, Queue: queue("TO")}
	_, err := b.Handle(req)
	is.NoErr(err)
	is.Equal(req.Game.GarbageCap, 2)
}
