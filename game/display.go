package game

import (
	"fmt"
	"strings"

	"github.com/domino14/tetrizz/board"
)

func addText(lines []string, row int, hpad int, text string) {
	if row >= len(lines) {
		return
	}
	lines[row] = lines[row] + strings.Repeat(" ", hpad) + text
}

// ToDisplayText renders the board with the player's state alongside it.
// highlight, if not nil, is drawn as '@'.
func (g *Game) ToDisplayText(highlight *board.PieceLocation) string {
	bt := g.Board.ToDisplayText(highlight)
	bts := strings.Split(bt, "\n")
	hpadding := 3

	hold := "-"
	if g.HasHold {
		hold = g.Hold.String()
	}
	addText(bts, 0, hpadding, "Hold: "+hold)
	addText(bts, 1, hpadding, fmt.Sprintf("B2B: %d", g.B2B))
	addText(bts, 2, hpadding, fmt.Sprintf("Combo: %d", g.Combo))
	addText(bts, 3, hpadding, fmt.Sprintf("Incoming: %d", g.IncomingGarbage))
	return strings.Join(bts, "\n")
}

func (g Game) String() string {
	return g.ToDisplayText(nil)
}
