// Package keygen turns a placement chosen by the search into the key
// presses that put the piece there.
package keygen

import (
	"errors"
	"fmt"
	"math/bits"
	"slices"

	"github.com/domino14/tetrizz/board"
	"github.com/domino14/tetrizz/movegen"
)

// ErrNoPath is returned when no key sequence reaches the target.
var ErrNoPath = errors.New("no key sequence reaches the placement")

// Action is a single input.
type Action uint8

const (
	Hold Action = iota
	TapLeft
	TapRight
	DASLeft
	DASRight
	Softdrop
	RotateCW
	RotateCCW
	Rotate180
	Harddrop
)

var actionNames = [...]string{
	"Hold", "TapLeft", "TapRight", "DASLeft", "DASRight",
	"Softdrop", "RotateCW", "RotateCCW", "Rotate180", "Harddrop",
}

func (a Action) String() string {
	if int(a) >= len(actionNames) {
		return fmt.Sprintf("Action(%d)", a)
	}
	return actionNames[a]
}

func (a Action) MarshalText() ([]byte, error) {
	if int(a) >= len(actionNames) {
		return nil, fmt.Errorf("invalid action %d", a)
	}
	return []byte(actionNames[a]), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	for i, n := range actionNames {
		if n == string(b) {
			*a = Action(i)
			return nil
		}
	}
	return fmt.Errorf("unknown action %q", string(b))
}

// Expansion order within a BFS layer. DAS moves are only offered to
// human-paced clients.
var (
	humanOrder = []Action{Harddrop, DASLeft, DASRight, TapLeft, TapRight, Softdrop, RotateCW, RotateCCW, Rotate180}
	botOrder   = []Action{Harddrop, TapLeft, TapRight, Softdrop, RotateCW, RotateCCW, Rotate180}
)

// controller moves a single piece around a fixed board.
type controller struct {
	piece board.Piece
	cms   [4]movegen.CollisionMap
	spin  movegen.SpinMaps
}

func newController(b *board.Board, p board.Piece) *controller {
	c := &controller{piece: p}
	for _, r := range board.AllRotations {
		c.cms[r] = movegen.NewCollisionMap(b, p, r)
	}
	c.spin = movegen.NewSpinMaps(b, p, &c.cms)
	return c
}

func (c *controller) fits(loc board.PieceLocation) bool {
	return !c.cms[loc.Rotation].Obstructed(int(loc.X), int(loc.Y))
}

func (c *controller) slide(loc board.PieceLocation, dx, n int) board.PieceLocation {
	for ; n > 0; n-- {
		next := loc
		next.X += int8(dx)
		next.Spin = board.SpinNone
		if !c.fits(next) {
			break
		}
		loc = next
	}
	return loc
}

func (c *controller) drop(loc board.PieceLocation) board.PieceLocation {
	col := c.cms[loc.Rotation].Cols[loc.X]
	y := int8(64 - bits.LeadingZeros64(col&(uint64(1)<<uint(loc.Y)-1)))
	if y != loc.Y {
		loc.Y = y
		loc.Spin = board.SpinNone
	}
	return loc
}

func (c *controller) rotate(loc board.PieceLocation, to board.Rotation, kicks []board.Cell, quarter bool) board.PieceLocation {
	if c.piece == board.O {
		return loc
	}
	for i, k := range kicks {
		next := board.PieceLocation{
			Piece:    loc.Piece,
			Rotation: to,
			X:        loc.X + k.X,
			Y:        loc.Y + k.Y,
		}
		if !c.fits(next) {
			continue
		}
		// Only T carries a spin through the search; for the other pieces
		// the spin is a property of where they rest.
		if c.piece == board.T {
			next.Spin = c.spin.Classify(c.piece, to, int(next.X), int(next.Y), quarter && i == len(kicks)-1)
		}
		return next
	}
	return loc
}

func (c *controller) apply(loc board.PieceLocation, a Action) board.PieceLocation {
	switch a {
	case TapLeft:
		return c.slide(loc, -1, 1)
	case TapRight:
		return c.slide(loc, 1, 1)
	case DASLeft:
		return c.slide(loc, -1, board.Width)
	case DASRight:
		return c.slide(loc, 1, board.Width)
	case Softdrop, Harddrop:
		return c.drop(loc)
	case RotateCW:
		return c.rotate(loc, loc.Rotation.CW(), movegen.Kicks(c.piece, loc.Rotation, loc.Rotation.CW())[:], true)
	case RotateCCW:
		return c.rotate(loc, loc.Rotation.CCW(), movegen.Kicks(c.piece, loc.Rotation, loc.Rotation.CCW())[:], true)
	case Rotate180:
		return c.rotate(loc, loc.Rotation.Flip(), movegen.Kicks180(c.piece, loc.Rotation)[:], false)
	}
	return loc
}

// matchKey is what two resting placements must share to be the same
// move: cells, plus the spin tag for T.
func matchKey(loc board.PieceLocation) board.PieceLocation {
	if loc.Piece != board.T {
		loc.Spin = board.SpinNone
	}
	return loc.Canonical()
}

type step struct {
	loc    board.PieceLocation
	parent int32
	action Action
}

// Plan finds a shortest key sequence that spawns target.Piece and hard
// drops it onto target. It does not include the Hold needed when the
// target piece is not the current one; callers add that.
func Plan(b board.Board, target board.PieceLocation, human bool) ([]Action, error) {
	spawn, ok := movegen.SpawnLocation(&b, target.Piece, true)
	if !ok {
		return nil, ErrNoPath
	}
	c := newController(&b, target.Piece)
	want := matchKey(target)
	order := botOrder
	if human {
		order = humanOrder
	}

	var visited [board.NumSpins][4][board.Width]uint64
	arena := []step{{loc: spawn, parent: -1}}
	visited[spawn.Spin][spawn.Rotation][spawn.X] |= 1 << uint(spawn.Y)

	start, end := 0, 1
	for start < end {
		for i := start; i < end; i++ {
			cur := arena[i].loc
			for _, a := range order {
				next := c.apply(cur, a)
				if a == Harddrop {
					if matchKey(next) == want {
						return path(arena, int32(i), a), nil
					}
					continue
				}
				seen := &visited[next.Spin][next.Rotation][next.X]
				if *seen&(1<<uint(next.Y)) != 0 {
					continue
				}
				*seen |= 1 << uint(next.Y)
				arena = append(arena, step{loc: next, parent: int32(i), action: a})
			}
		}
		start, end = end, len(arena)
	}
	return nil, ErrNoPath
}

func path(arena []step, parent int32, last Action) []Action {
	actions := []Action{last}
	for i := parent; arena[i].parent >= 0; i = arena[i].parent {
		actions = append(actions, arena[i].action)
	}
	slices.Reverse(actions)
	return actions
}

// Replay runs actions for piece p from its spawn and returns where the
// piece ends up after the final action. Hold is ignored.
func Replay(b board.Board, p board.Piece, actions []Action) (board.PieceLocation, error) {
	loc, ok := movegen.SpawnLocation(&b, p, true)
	if !ok {
		return board.PieceLocation{}, ErrNoPath
	}
	c := newController(&b, p)
	for _, a := range actions {
		if a > Harddrop {
			return board.PieceLocation{}, fmt.Errorf("replay: invalid action %d", a)
		}
		loc = c.apply(loc, a)
	}
	return loc, nil
}
