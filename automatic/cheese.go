package automatic

import (
	"github.com/rs/zerolog/log"

	"github.com/domino14/tetrizz/board"
)

const (
	// CheeseRows is the starting number of cheese rows.
	CheeseRows = 10
	// cheeseLine is the row below which a placement pulls in more cheese.
	cheeseLine = 10

	cheeseQueueLow = 8
)

// CheeseResult summarizes a cheese race.
type CheeseResult struct {
	Pieces       int  `json:"pieces"`
	LinesCleared int  `json:"lines_cleared"`
	Survived     bool `json:"survived"`
}

// nextGap picks a gap column different from last.
func (p *Player) nextGap(last int) int {
	c := p.Bag.Intn(board.Width - 1)
	if c >= last {
		c++
	}
	return c
}

// CheeseRace resets p, fills the bottom of its board with single-gap
// garbage and plays until search fails or maxPieces pieces are down.
// Every placement that reaches below row 10 brings in one more row.
func CheeseRace(p *Player, maxPieces int) CheeseResult {
	p.Reset()
	gap := p.Bag.Intn(board.Width)
	for range CheeseRows {
		p.Game.Board.AddGarbage(gap, 1)
		gap = p.nextGap(gap)
	}

	var res CheeseResult
	for res.Pieces < maxPieces {
		p.Queue = p.Bag.Fill(p.Queue, cheeseQueueLow)
		loc, info, ok := p.move()
		if !ok {
			log.Debug().Int("pieces", res.Pieces).Msg("cheese-topped-out")
			return res
		}
		res.Pieces++
		res.LinesCleared += info.LinesCleared
		if lowest(loc) < cheeseLine {
			p.Game.Board.AddGarbage(gap, 1)
			gap = p.nextGap(gap)
		}
	}
	res.Survived = true
	return res
}

func lowest(loc board.PieceLocation) int {
	y := int8(127)
	for _, c := range loc.Blocks() {
		y = min(y, c.Y)
	}
	return int(y)
}
