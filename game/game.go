// Package game applies placements to a player's state: line clears,
// back-to-back and combo streaks, attack and the garbage exchange.
package game

import (
	"encoding/binary"
	"encoding/json"
	"math/bits"

	"github.com/cespare/xxhash"

	"github.com/domino14/tetrizz/board"
	"github.com/domino14/tetrizz/movegen"
)

// DefaultGarbageCap bounds how many pending garbage rows land per move.
const DefaultGarbageCap = 8

// Game is one player's state between placements. It holds no pointers, so
// a plain assignment copies it.
type Game struct {
	Board   board.Board
	Hold    board.Piece
	HasHold bool
	// B2B is the back-to-back streak; -1 means no streak.
	B2B int
	// Combo counts consecutive clearing placements; -1 means none.
	Combo           int
	IncomingGarbage int
	// GarbageGap is the open column of garbage rows received by this player.
	GarbageGap int
	GarbageCap int
}

// PlacementInfo describes what a single Advance did.
type PlacementInfo struct {
	Placed         board.PieceLocation `json:"placed"`
	LinesCleared   int                 `json:"lines_cleared"`
	PerfectClear   bool                `json:"perfect_clear"`
	B2BClear       bool                `json:"b2b_clear"`
	BrokeSurge     bool                `json:"broke_surge"`
	Attack         int                 `json:"attack"`
	OutgoingAttack int                 `json:"outgoing_attack"`
	GarbageAdded   int                 `json:"garbage_added"`
}

// Spin is the spin tag of the placement.
func (p *PlacementInfo) Spin() board.Spin {
	return p.Placed.Spin
}

// New returns an empty game with no streaks.
func New() Game {
	return Game{B2B: -1, Combo: -1, GarbageCap: DefaultGarbageCap}
}

// Copy returns an independent copy of g.
func (g *Game) Copy() Game {
	return *g
}

// HeldPiece returns the held piece, if any.
func (g *Game) HeldPiece() (board.Piece, bool) {
	return g.Hold, g.HasHold
}

// CanSpawn reports whether p fits at the spawn cell of the current board.
func (g *Game) CanSpawn(p board.Piece) bool {
	return movegen.CanSpawn(&g.Board, p)
}

// Advance places loc as the move for the piece next. If loc is for a
// different piece, next goes to hold (loc's piece must have been the held
// one). It clears lines, updates streaks, computes attack, cancels incoming
// garbage against it and, if nothing cleared, takes in pending garbage.
func (g *Game) Advance(next board.Piece, loc board.PieceLocation) PlacementInfo {
	if loc.Piece != next {
		g.Hold = next
		g.HasHold = true
	}
	g.Board.Put(loc)
	mask := g.Board.RemoveLines()

	info := PlacementInfo{
		Placed:       loc,
		LinesCleared: bits.OnesCount64(mask),
	}
	surge := 0
	if info.LinesCleared > 0 {
		g.Combo++
		if g.Board.IsEmpty() {
			info.PerfectClear = true
			info.B2BClear = true
		}
		if info.LinesCleared == 4 || loc.Spin != board.SpinNone {
			info.B2BClear = true
		}
		if info.B2BClear {
			g.B2B++
		} else {
			info.BrokeSurge = g.B2B > 3
			if info.BrokeSurge {
				surge = g.B2B
			}
			g.B2B = -1
		}
		info.Attack = CalculateAttack(info.LinesCleared, loc.Spin, g.B2B >= 1,
			info.PerfectClear, surge, g.Combo)
	} else {
		g.Combo = -1
	}

	cancelled := min(info.Attack, g.IncomingGarbage)
	g.IncomingGarbage -= cancelled
	info.OutgoingAttack = info.Attack - cancelled

	if info.LinesCleared == 0 && g.IncomingGarbage > 0 {
		limit := g.GarbageCap
		if limit <= 0 {
			limit = DefaultGarbageCap
		}
		n := min(g.IncomingGarbage, limit)
		g.Board.AddGarbage(g.GarbageGap, n)
		g.IncomingGarbage -= n
		info.GarbageAdded = n
	}
	return info
}

// PlayQueue advances with loc as the move for queue[0] and returns what is
// left of the queue. Holding into an empty hold slot uses up queue[1] as
// well, since that is the piece that got placed.
func (g *Game) PlayQueue(queue []board.Piece, loc board.PieceLocation) (PlacementInfo, []board.Piece) {
	hadHold := g.HasHold
	info := g.Advance(queue[0], loc)
	if !hadHold && loc.Piece != queue[0] && len(queue) > 1 {
		return info, queue[2:]
	}
	return info, queue[1:]
}

var comboTable = [21]int{0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 3, 3, 3, 3, 3}

// CalculateAttack returns the lines sent for a clear. b2bBonus is set when a
// streak continued through this clear; surge is the length of a streak
// that this clear broke (0 if none).
func CalculateAttack(lines int, spin board.Spin, b2bBonus, perfectClear bool, surge, combo int) int {
	if lines <= 0 {
		return 0
	}
	var attack int
	if spin == board.SpinFull {
		attack = 2 * lines
	} else {
		switch lines {
		case 1:
			attack = 0
		case 2:
			attack = 1
		case 3:
			attack = 2
		default:
			attack = 4
		}
	}
	attack += surge
	if perfectClear {
		attack += 5
	} else if b2bBonus {
		attack++
	}
	if combo > 0 {
		mult := 1 + float64(combo)/4
		attack = max(comboTable[min(combo, len(comboTable)-1)], int(mult*float64(attack)))
	}
	return attack
}

// Hash is a 64-bit digest of everything that affects future play.
func (g *Game) Hash() uint64 {
	var buf [board.Width*8 + 24]byte
	for x, c := range g.Board.Cols {
		binary.LittleEndian.PutUint64(buf[x*8:], c)
	}
	o := board.Width * 8
	if g.HasHold {
		buf[o] = byte(g.Hold) + 1
	}
	binary.LittleEndian.PutUint32(buf[o+4:], uint32(int32(g.B2B)))
	binary.LittleEndian.PutUint32(buf[o+8:], uint32(int32(g.Combo)))
	binary.LittleEndian.PutUint32(buf[o+12:], uint32(int32(g.IncomingGarbage)))
	binary.LittleEndian.PutUint32(buf[o+16:], uint32(int32(g.GarbageGap)))
	return xxhash.Sum64(buf[:])
}

type wireGame struct {
	Board           board.Board  `json:"board"`
	Hold            *board.Piece `json:"hold"`
	B2B             int          `json:"b2b"`
	Combo           int          `json:"combo"`
	IncomingGarbage int          `json:"incoming_garbage"`
	GarbageGap      int          `json:"garbage_gap,omitempty"`
}

func (g Game) MarshalJSON() ([]byte, error) {
	w := wireGame{
		Board:           g.Board,
		B2B:             g.B2B,
		Combo:           g.Combo,
		IncomingGarbage: g.IncomingGarbage,
		GarbageGap:      g.GarbageGap,
	}
	if g.HasHold {
		h := g.Hold
		w.Hold = &h
	}
	return json.Marshal(w)
}

func (g *Game) UnmarshalJSON(data []byte) error {
	w := wireGame{B2B: -1, Combo: -1}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*g = Game{
		Board:           w.Board,
		B2B:             w.B2B,
		Combo:           w.Combo,
		IncomingGarbage: w.IncomingGarbage,
		GarbageGap:      w.GarbageGap,
		GarbageCap:      DefaultGarbageCap,
	}
	if w.Hold != nil {
		g.Hold = *w.Hold
		g.HasHold = true
	}
	return nil
}
