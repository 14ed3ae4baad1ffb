package keygen

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domino14/tetrizz/board"
	"github.com/domino14/tetrizz/movegen"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

var tsd = board.MustParse(`
	...#......
	###...####
	####.#####
`)

func TestHarddropOnly(t *testing.T) {
	is := is.New(t)
	target := board.PieceLocation{Piece: board.T, Rotation: board.North, X: 4, Y: 0}
	keys, err := Plan(board.Board{}, target, false)
	is.NoErr(err)
	is.Equal(keys, []Action{Harddrop})
}

func TestTapsAndDAS(t *testing.T) {
	is := is.New(t)
	target := board.PieceLocation{Piece: board.O, Rotation: board.North, X: 0, Y: 0}

	keys, err := Plan(board.Board{}, target, true)
	is.NoErr(err)
	is.Equal(keys, []Action{DASLeft, Harddrop})

	keys, err = Plan(board.Board{}, target, false)
	is.NoErr(err)
	is.Equal(keys, []Action{TapLeft, TapLeft, TapLeft, TapLeft, Harddrop})
}

func TestTSpinDouble(t *testing.T) {
	is := is.New(t)
	target := board.PieceLocation{Piece: board.T, Rotation: board.South, Spin: board.SpinFull, X: 4, Y: 1}
	keys, err := Plan(tsd, target, false)
	is.NoErr(err)
	is.Equal(keys[len(keys)-1], Harddrop)
	is.True(len(keys) > 2)

	loc, err := Replay(tsd, board.T, keys)
	is.NoErr(err)
	is.Equal(loc, target)
}

func TestRoundTripAllPlacements(t *testing.T) {
	boards := map[string]board.Board{
		"empty": {},
		"well": board.MustParse(`
			#########.
			#########.
			#########.
		`),
		"bumpy": board.MustParse(`
			.......#..
			...#...#..
			..##..###.
			#.##.####.
			####.#####
		`),
		"tsd": tsd,
	}
	gen := movegen.NewGenerator()
	for name, b := range boards {
		for _, p := range board.AllPieces {
			for _, target := range gen.Placements(&b, p) {
				for _, human := range []bool{false, true} {
					keys, err := Plan(b, target, human)
					require.NoError(t, err, "%s %v", name, target)
					require.Equal(t, Harddrop, keys[len(keys)-1])
					loc, err := Replay(b, p, keys)
					require.NoError(t, err)
					assert.Equal(t, matchKey(target), matchKey(loc), "%s %v via %v", name, target, keys)
					assert.Zero(t, b.DistanceToGround(loc))
				}
			}
		}
	}
}

func TestHumanPlansAreNoLonger(t *testing.T) {
	is := is.New(t)
	b := board.MustParse(`
		..##......
		#.#####.##
	`)
	gen := movegen.NewGenerator()
	for _, target := range gen.Placements(&b, board.L) {
		fast, err := Plan(b, target, false)
		is.NoErr(err)
		human, err := Plan(b, target, true)
		is.NoErr(err)
		is.True(len(human) <= len(fast))
	}
}

func TestNoPath(t *testing.T) {
	is := is.New(t)
	// a sealed pocket under a full roof
	b := board.MustParse(`
		##########
		..........
	`)
	target := board.PieceLocation{Piece: board.I, Rotation: board.North, X: 4, Y: 0}
	_, err := Plan(b, target, true)
	is.True(errors.Is(err, ErrNoPath))
}

func TestActionJSON(t *testing.T) {
	is := is.New(t)
	out, err := json.Marshal([]Action{Hold, DASRight, Rotate180, Harddrop})
	is.NoErr(err)
	is.Equal(string(out), `["Hold","DASRight","Rotate180","Harddrop"]`)

	var back []Action
	is.NoErr(json.Unmarshal(out, &back))
	is.Equal(back, []Action{Hold, DASRight, Rotate180, Harddrop})

	is.True(json.Unmarshal([]byte(`["Jump"]`), &back) != nil)
}

func BenchmarkPlan(b *testing.B) {
	target := board.PieceLocation{Piece: board.T, Rotation: board.South, Spin: board.SpinFull, X: 4, Y: 1}
	for i := 0; i < b.N; i++ {
		Plan(tsd, target, false)
	}
}
