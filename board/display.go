package board

import (
	"fmt"
	"strings"
)

// ToDisplayText renders the board top-down. Filled cells are '#', the
// cells of the optional highlighted placement '@', empty cells '.'.
func (b *Board) ToDisplayText(highlight *PieceLocation) string {
	var hl Board
	if highlight != nil {
		hl.Put(*highlight)
	}
	top := max(b.MaxHeight(), hl.MaxHeight(), 4)
	var sb strings.Builder
	for y := top - 1; y >= 0; y-- {
		fmt.Fprintf(&sb, "%2d |", y)
		for x := 0; x < Width; x++ {
			switch {
			case hl.Get(x, y):
				sb.WriteByte('@')
			case b.Get(x, y):
				sb.WriteByte('#')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|\n")
	}
	sb.WriteString("   +----------+\n")
	return sb.String()
}

func (b Board) String() string {
	return b.ToDisplayText(nil)
}

// Parse reads a board from rows of text, top row first. '#', 'X' and 'G'
// mark filled cells; anything else in the first ten characters is empty.
// Blank lines are skipped.
func Parse(text string) (Board, error) {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) != Width {
			return Board{}, fmt.Errorf("row %q has %d cells, want %d", line, len(line), Width)
		}
		rows = append(rows, line)
	}
	if len(rows) > 64 {
		return Board{}, fmt.Errorf("too many rows: %d", len(rows))
	}
	var b Board
	for i, row := range rows {
		y := len(rows) - 1 - i
		for x := 0; x < Width; x++ {
			switch row[x] {
			case '#', 'X', 'G':
				b.Set(x, y)
			}
		}
	}
	return b, nil
}

// MustParse is Parse for fixtures; it panics on malformed input.
func MustParse(text string) Board {
	b, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return b
}
