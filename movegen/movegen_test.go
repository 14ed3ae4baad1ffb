package movegen

import (
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/tetrizz/board"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

type fixture struct {
	name string
	b    board.Board
	// flat boards have no overhangs, so every resting cell is reachable
	flat bool
}

func fixtures() []fixture {
	nearFull := board.Board{}
	for x := 1; x < board.Width; x++ {
		nearFull.Cols[x] = 1<<19 - 1
	}
	tall := board.MustParse(`
		....#.....
		....#.....
		....#.....
		...##.....
		...##.....
		...##.....
		..###.....
		..###.....
		..###.....
		..###.....
		.####.....
		.####.....
		.####.....
		.####.....
		.####....#
		.#####...#
		.#####..##
		.#####..##
		.######.##
		.######.##
		.######.##
		.######.##
	`)
	return []fixture{
		{"empty", board.Board{}, true},
		{"well", board.MustParse(`
			#########.
			#########.
			#########.
			#########.
		`), true},
		{"bumpy", board.MustParse(`
			.......#..
			...#...#..
			..##..###.
			#.##.####.
			####.#####
		`), true},
		{"tsd", board.MustParse(`
			...#......
			###...####
			####.#####
		`), false},
		{"overhangs", board.MustParse(`
			..###.....
			..#.......
			..#...#...
			###..####.
			####.#####
			####.#####
		`), false},
		{"cheese", board.MustParse(`
			#.#####.##
			####.#####
			##.#######
			#######.##
			.#########
		`), false},
		{"tuck", board.MustParse(`
			.....##...
			..........
			.#........
			##.....###
			###...####
		`), false},
		{"near-full", nearFull, false},
		{"tall-spawn-blocked", tall, false},
	}
}

func TestCollisionMapMatchesDirectTest(t *testing.T) {
	is := is.New(t)
	for _, f := range fixtures() {
		for _, p := range board.AllPieces {
			for _, r := range board.AllRotations {
				cm := NewCollisionMap(&f.b, p, r)
				for x := 0; x < board.Width; x++ {
					for y := 0; y < 40; y++ {
						loc := board.PieceLocation{Piece: p, Rotation: r, X: int8(x), Y: int8(y)}
						is.Equal(cm.Obstructed(x, y), f.b.Obstructed(loc))
					}
				}
			}
		}
	}
}

func TestEmptyBoardCounts(t *testing.T) {
	is := is.New(t)
	expected := map[board.Piece]int{
		board.I: 17, board.O: 9, board.T: 34, board.L: 34,
		board.J: 34, board.S: 17, board.Z: 17,
	}
	g := NewGenerator()
	var b board.Board
	for p, n := range expected {
		locs := g.Placements(&b, p)
		is.Equal(len(locs), n)
		for _, l := range locs {
			is.Equal(l.Spin, board.SpinNone)
		}
	}
}

func locSet(locs []board.PieceLocation) map[board.PieceLocation]int {
	m := make(map[board.PieceLocation]int, len(locs))
	for _, l := range locs {
		m[l]++
	}
	return m
}

func TestPlacementsAreLegalAndResting(t *testing.T) {
	is := is.New(t)
	g := NewGenerator()
	for _, f := range fixtures() {
		for _, p := range board.AllPieces {
			cms := collisionMaps(&f.b, p)
			for _, l := range g.Placements(&f.b, p) {
				is.True(!f.b.Obstructed(l))
				is.True(cms[l.Rotation].Obstructed(int(l.X), int(l.Y)-1))
				is.Equal(l, l.Canonical())
			}
		}
	}
}

func TestNoDuplicatesAndIdempotent(t *testing.T) {
	is := is.New(t)
	g := NewGenerator()
	for _, f := range fixtures() {
		for _, p := range board.AllPieces {
			first := g.Generate(nil, &f.b, p, true)
			set := locSet(first)
			is.Equal(len(set), len(first))
			second := g.Generate(nil, &f.b, p, true)
			is.Equal(locSet(second), set)
		}
	}
}

func TestMatchesReferenceSearch(t *testing.T) {
	g := NewGenerator()
	for _, f := range fixtures() {
		for _, p := range board.AllPieces {
			got := locSet(g.Generate(nil, &f.b, p, true))
			want := referencePlacements(&f.b, p)
			if len(got) != len(want) {
				t.Errorf("%s/%v: got %d placements, reference has %d", f.name, p, len(got), len(want))
			}
			for l := range want {
				if got[l] == 0 {
					t.Errorf("%s/%v: missing %v", f.name, p, l)
				}
			}
			for l := range got {
				if !want[l] {
					t.Errorf("%s/%v: unexpected %v", f.name, p, l)
				}
			}
		}
	}
}

func TestFlatBoardsMatchRestingOracle(t *testing.T) {
	is := is.New(t)
	g := NewGenerator()
	for _, f := range fixtures() {
		if !f.flat {
			continue
		}
		for _, p := range board.AllPieces {
			got := map[board.PieceLocation]bool{}
			for _, l := range g.Placements(&f.b, p) {
				l.Spin = board.SpinNone
				got[l] = true
			}
			want := map[board.PieceLocation]bool{}
			for _, r := range board.AllRotations {
				for x := 0; x < board.Width; x++ {
					for y := 0; y < board.SpawnRow; y++ {
						l := board.PieceLocation{Piece: p, Rotation: r, X: int8(x), Y: int8(y)}
						below := l
						below.Y--
						if !f.b.Obstructed(l) && f.b.Obstructed(below) {
							want[l.Canonical()] = true
						}
					}
				}
			}
			is.Equal(got, want)
		}
	}
}

func TestTSpinDoubleIsFull(t *testing.T) {
	is := is.New(t)
	b := board.MustParse(`
		...#......
		###...####
		####.#####
	`)
	g := NewGenerator()
	slot := board.PieceLocation{Piece: board.T, Rotation: board.South, X: 4, Y: 1}
	found := map[board.Spin]bool{}
	for _, l := range g.Placements(&b, board.T) {
		if l.X == slot.X && l.Y == slot.Y && l.Rotation == slot.Rotation {
			found[l.Spin] = true
		}
	}
	is.Equal(found, map[board.Spin]bool{board.SpinFull: true})

	placed := b
	slot.Spin = board.SpinFull
	placed.Put(slot)
	is.Equal(placed.RemoveLines(), uint64(0b11))
}

func spinTags(g *Generator, b *board.Board, r board.Rotation, x, y int8) map[board.Spin]bool {
	tags := map[board.Spin]bool{}
	for _, l := range g.Placements(b, board.T) {
		if l.Rotation == r && l.X == x && l.Y == y {
			tags[l.Spin] = true
		}
	}
	return tags
}

func TestSlideAfterRotateIsNone(t *testing.T) {
	is := is.New(t)
	g := NewGenerator()
	// A two-row tunnel under a roof. Only a flipped T fits, and the far end
	// has three filled corners, but the T can only get there by sliding.
	tunnel := board.MustParse(`
		######....
		..........
		#.........
	`)
	cms := collisionMaps(&tunnel, board.T)
	sm := NewSpinMaps(&tunnel, board.T, &cms)
	is.True(sm.Corners[1]&(1<<1) != 0)
	is.Equal(spinTags(g, &tunnel, board.South, 1, 1), map[board.Spin]bool{board.SpinNone: true})

	// the same pocket shape entered by a kicked rotation keeps its spin
	tsd := board.MustParse(`
		...#......
		###...####
		####.#####
	`)
	is.Equal(spinTags(g, &tsd, board.South, 4, 1), map[board.Spin]bool{board.SpinFull: true})
}

func TestClassifyMiniAndFull(t *testing.T) {
	is := is.New(t)
	// (0,1) filled plus the floor gives three corners around (1,0); only
	// one of the two North-facing front corners is filled.
	b := board.MustParse(`
		#.........
		..........
	`)
	cms := collisionMaps(&b, board.T)
	sm := NewSpinMaps(&b, board.T, &cms)
	is.Equal(sm.Classify(board.T, board.North, 1, 0, false), board.SpinMini)
	is.Equal(sm.Classify(board.T, board.North, 1, 0, true), board.SpinFull)
	// South faces the floor corners, both filled.
	is.Equal(sm.Classify(board.T, board.South, 1, 0, false), board.SpinFull)
	is.Equal(sm.Classify(board.T, board.North, 5, 0, false), board.SpinNone)
}

func TestNonTImmobileIsMini(t *testing.T) {
	is := is.New(t)
	// An L pocket that can only be entered by rotating in.
	b := board.MustParse(`
		###...####
		####..####
		####.#####
	`)
	cms := collisionMaps(&b, board.L)
	sm := NewSpinMaps(&b, board.L, &cms)
	for _, r := range board.AllRotations {
		for x := 0; x < board.Width; x++ {
			for y := 0; y < 10; y++ {
				if sm.Classify(board.L, r, x, y, true) != board.SpinMini {
					continue
				}
				is.True(cms[r].Obstructed(x-1, y))
				is.True(cms[r].Obstructed(x+1, y))
				is.True(cms[r].Obstructed(x, y-1))
				is.True(cms[r].Obstructed(x, y+1))
				is.True(!cms[r].Obstructed(x, y))
			}
		}
	}
	g := NewGenerator()
	for _, l := range g.Placements(&b, board.L) {
		is.True(l.Spin != board.SpinFull)
	}
}

func TestBlockedSpawnYieldsNothing(t *testing.T) {
	is := is.New(t)
	var b board.Board
	for x := 0; x < board.Width; x++ {
		if x != 0 {
			b.Cols[x] = 1<<30 - 1
		}
	}
	g := NewGenerator()
	for _, p := range board.AllPieces {
		is.Equal(len(g.Generate(nil, &b, p, false)), 0)
		is.True(!CanSpawn(&b, p))
	}
}

func TestForcedSpawnFloatsUp(t *testing.T) {
	is := is.New(t)
	var b board.Board
	b.Cols[4] = 1<<23 - 1
	loc, ok := SpawnLocation(&b, board.T, true)
	is.True(ok)
	is.Equal(loc.Y, int8(23))
	_, ok = SpawnLocation(&b, board.T, false)
	is.True(!ok)
}

func TestKicksTables(t *testing.T) {
	is := is.New(t)
	for _, r := range board.AllRotations {
		is.Equal(Kicks(board.T, r, r.CW())[0], board.Cell{})
		is.Equal(Kicks180(board.T, r)[0], board.Cell{})
		is.Equal(*Kicks(board.O, r, r.CW()), [5]board.Cell{})
	}
	is.Equal(Kicks(board.I, board.North, board.East)[0], board.Cell{X: 1, Y: 0})
	defer func() {
		is.True(recover() != nil)
	}()
	Kicks(board.T, board.North, board.South)
}

func BenchmarkGenerateT(b *testing.B) {
	bd := fixtures()[4].b
	g := NewGenerator()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Placements(&bd, board.T)
	}
}

func BenchmarkGenerateAll(b *testing.B) {
	bd := fixtures()[2].b
	g := NewGenerator()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, p := range board.AllPieces {
			g.Placements(&bd, p)
		}
	}
}
