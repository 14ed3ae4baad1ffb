package movegen

import (
	"fmt"

	"github.com/domino14/tetrizz/board"
)

type kickSet = [5]board.Cell
type kickSet180 = [6]board.Cell

const (
	dirCW = iota
	dirCCW
)

// Quarter-turn kicks, indexed [isI][from][direction]. Offsets are tried in
// order and the first unobstructed one wins.
var kicks90 = [2][4][2]kickSet{
	{ // J, L, S, T, Z
		board.North: {
			{{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
			{{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
		},
		board.East: {
			{{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
			{{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
		},
		board.South: {
			{{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
			{{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
		},
		board.West: {
			{{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
			{{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
		},
	},
	{ // I
		board.North: {
			{{1, 0}, {2, 0}, {-1, 0}, {-1, -1}, {2, 2}},
			{{0, -1}, {-1, -1}, {2, -1}, {2, -2}, {-1, 1}},
		},
		board.East: {
			{{0, -1}, {-1, -1}, {2, -1}, {-1, 1}, {2, -2}},
			{{-1, 0}, {-2, 0}, {1, 0}, {-2, -2}, {1, 1}},
		},
		board.South: {
			{{-1, 0}, {1, 0}, {-2, 0}, {1, 1}, {-2, -2}},
			{{0, 1}, {-2, 1}, {1, 1}, {-2, 2}, {1, -1}},
		},
		board.West: {
			{{0, 1}, {1, 1}, {-2, 1}, {1, -1}, {-2, 2}},
			{{1, 0}, {2, 0}, {-1, 0}, {2, 2}, {-1, -1}},
		},
	},
}

// Half-turn kicks, indexed [isI][from].
var kicks180 = [2][4]kickSet180{
	{
		board.North: {{0, 0}, {0, 1}, {1, 1}, {-1, 1}, {1, 0}, {-1, 0}},
		board.East:  {{0, 0}, {1, 0}, {1, 2}, {1, 1}, {0, 2}, {0, 1}},
		board.South: {{0, 0}, {0, -1}, {-1, -1}, {1, -1}, {-1, 0}, {1, 0}},
		board.West:  {{0, 0}, {-1, 0}, {-1, 2}, {-1, 1}, {0, 2}, {0, 1}},
	},
	{
		board.North: {{1, -1}, {1, 0}, {1, -1}, {1, -1}, {1, -1}, {1, -1}},
		board.East:  {{-1, -1}, {0, -1}, {-1, -1}, {-1, -1}, {-1, -1}, {-1, -1}},
		board.South: {{-1, 1}, {-1, 0}, {-1, 1}, {-1, 1}, {-1, 1}, {-1, 1}},
		board.West:  {{1, 1}, {0, 1}, {1, 1}, {1, 1}, {1, 1}, {1, 1}},
	},
}

var (
	nullKicks    kickSet
	nullKicks180 kickSet180
)

func tableIdx(p board.Piece) int {
	if p == board.I {
		return 1
	}
	return 0
}

// Kicks returns the ordered kick offsets for a quarter turn of p from one
// rotation to an adjacent one. The O piece has a null table.
func Kicks(p board.Piece, from, to board.Rotation) *[5]board.Cell {
	if p == board.O {
		return &nullKicks
	}
	var dir int
	switch to {
	case from.CW():
		dir = dirCW
	case from.CCW():
		dir = dirCCW
	default:
		panic(fmt.Sprintf("not a quarter turn: %v -> %v", from, to))
	}
	return &kicks90[tableIdx(p)][from&3][dir]
}

// Kicks180 returns the ordered kick offsets for a half turn of p out of
// rotation from.
func Kicks180(p board.Piece, from board.Rotation) *[6]board.Cell {
	if p == board.O {
		return &nullKicks180
	}
	return &kicks180[tableIdx(p)][from&3]
}
