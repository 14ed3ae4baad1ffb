// Package automatic plays bots against each other: versus battles where
// attack turns into garbage for the opponent, and single-player cheese
// races.
package automatic

import (
	"github.com/rs/zerolog/log"

	"github.com/domino14/tetrizz/bag"
	"github.com/domino14/tetrizz/board"
	"github.com/domino14/tetrizz/config"
	"github.com/domino14/tetrizz/equity"
	"github.com/domino14/tetrizz/game"
	"github.com/domino14/tetrizz/search"
)

const (
	// DefaultPreview is how many queued pieces a player sees.
	DefaultPreview = 7

	// DefaultMaxMoves is the move budget of a versus match.
	DefaultMaxMoves = 200

	// surgeStart is the move after which pending garbage starts to grow.
	surgeStart = 200

	// queueLow is the queue length a versus player keeps above.
	queueLow = 15
)

// Player is one side of a battle. A Player is not safe for concurrent
// use, since its searcher owns scratch memory.
type Player struct {
	Game  game.Game
	Queue []board.Piece
	Eval  equity.Evaluator
	// Searcher is run with Eval on every move.
	Searcher *search.Searcher
	Bag      *bag.Bag
	Preview  int
	// GarbageCap bounds the garbage rows landing per move. Reset carries
	// it into every fresh game.
	GarbageCap int
}

// NewPlayer returns a player with an empty board. A nil bag draws from
// a fresh random stream.
func NewPlayer(eval equity.Evaluator, s *search.Searcher, b *bag.Bag) *Player {
	if b == nil {
		b = bag.New(nil)
	}
	s.Eval = eval
	return &Player{
		Game:       game.New(),
		Eval:       eval,
		Searcher:   s,
		Bag:        b,
		Preview:    DefaultPreview,
		GarbageCap: game.DefaultGarbageCap,
	}
}

// PlayerFromConfig returns a player searching with the configured beam
// and receiving garbage under the configured cap.
func PlayerFromConfig(cfg *config.Config, eval equity.Evaluator, b *bag.Bag) *Player {
	p := NewPlayer(eval, search.FromConfig(cfg, eval), b)
	if c := cfg.GetInt(config.ConfigGarbageCap); c > 0 {
		p.GarbageCap = c
		p.Game.GarbageCap = c
	}
	return p
}

// Reset clears the board, streaks and queue.
func (p *Player) Reset() {
	p.Game = game.New()
	p.Game.GarbageCap = p.GarbageCap
	p.Queue = p.Queue[:0]
}

func (p *Player) visible() []board.Piece {
	n := max(p.Preview, p.Searcher.Depth)
	p.Queue = p.Bag.Fill(p.Queue, n)
	return p.Queue[:n]
}

// move searches and plays one placement. It returns false when no
// placement lets the game go on.
func (p *Player) move() (board.PieceLocation, game.PlacementInfo, bool) {
	p.Searcher.Eval = p.Eval
	res, ok := p.Searcher.Search(&p.Game, p.visible())
	if !ok {
		return board.PieceLocation{}, game.PlacementInfo{}, false
	}
	loc := res.Placement()
	info, rest := p.Game.PlayQueue(p.Queue, loc)
	p.Queue = rest
	return loc, info, true
}

// receive queues n garbage rows for p. A fresh batch gets a new gap
// column.
func (p *Player) receive(n int) {
	if n <= 0 {
		return
	}
	if p.Game.IncomingGarbage == 0 {
		p.Game.GarbageGap = p.Bag.Intn(board.Width)
	}
	p.Game.IncomingGarbage += n
}

// Battle is a two-player versus game. Who is the player to move next.
type Battle struct {
	Players [2]*Player
	Who     int
	Moves   int
}

func NewBattle(a, b *Player) *Battle {
	return &Battle{Players: [2]*Player{a, b}}
}

// Advance plays one move for the player on turn and passes the turn, even
// when the move fails. It returns false if the mover could not place.
func (bt *Battle) Advance() (board.PieceLocation, game.PlacementInfo, bool) {
	mover, opp := bt.Players[bt.Who], bt.Players[1-bt.Who]
	bt.Who = 1 - bt.Who
	loc, info, ok := mover.move()
	if !ok {
		log.Debug().Int("moves", bt.Moves).Msg("battle-topped-out")
		return loc, info, false
	}
	bt.Moves++
	opp.receive(info.OutgoingAttack)
	return loc, info, true
}

// Loser is the player who failed the last Advance.
func (bt *Battle) Loser() int {
	return 1 - bt.Who
}

// WinLoss plays a fresh match between a and b and scores it from a's
// side: 1 if b tops out, -1 if a does, 0 if neither does within maxMoves.
// After move 200 every move scales the opponent's pending garbage up by
// a further 0.1%.
func WinLoss(a, b *Player, maxMoves int) int {
	result, _ := playMatch(a, b, maxMoves)
	return result
}

func playMatch(a, b *Player, maxMoves int) (int, int) {
	a.Reset()
	b.Reset()
	a.Queue = a.Bag.Fill(a.Queue, queueLow)
	b.Queue = b.Bag.Fill(b.Queue, queueLow)
	bt := NewBattle(a, b)
	for i := 0; i < maxMoves; i++ {
		mover := bt.Who
		if _, _, ok := bt.Advance(); !ok {
			if bt.Loser() == 0 {
				return -1, i
			}
			return 1, i
		}
		bt.Players[mover].Queue = bt.Players[mover].Bag.Fill(bt.Players[mover].Queue, queueLow)
		if i > surgeStart {
			opp := &bt.Players[1-mover].Game
			opp.IncomingGarbage = int(float64(opp.IncomingGarbage) * (1 + 0.001*float64(i-surgeStart)))
		}
	}
	return 0, maxMoves
}
