package shell

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/tetrizz/board"
	"github.com/domino14/tetrizz/config"
	"github.com/domino14/tetrizz/equity"
	"github.com/domino14/tetrizz/keygen"
	"github.com/domino14/tetrizz/search"
	"github.com/domino14/tetrizz/stats"
)

var errEmptyQueue = errors.New("the queue is empty; set one with queue")

type Response struct {
	message string
}

func (r *Response) String() string {
	return r.message
}

func msg(message string) *Response {
	return &Response{message: message}
}

func intOption(cmd *shellcmd, key string, defaultI int) (int, error) {
	v, ok := cmd.options[key]
	if !ok {
		return defaultI, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("option %s: %w", key, err)
	}
	return i, nil
}

func boolOption(cmd *shellcmd, key string) bool {
	return strings.ToLower(cmd.options[key]) == "true"
}

func queueString(q []board.Piece) string {
	var sb strings.Builder
	for _, p := range q {
		sb.WriteString(p.String())
	}
	return sb.String()
}

func (sc *ShellController) show() *Response {
	return msg(sc.game.ToDisplayText(nil) + "Queue: " + queueString(sc.queue))
}

func (sc *ShellController) board(cmd *shellcmd) (*Response, error) {
	if file, ok := cmd.options["file"]; ok {
		bts, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		b, err := board.Parse(string(bts))
		if err != nil {
			return nil, err
		}
		sc.game.Board = b
		sc.curGen = nil
		return sc.show(), nil
	}
	switch {
	case len(cmd.args) == 0 || cmd.args[0] == "show":
		return sc.show(), nil
	case cmd.args[0] == "clear":
		sc.game.Board = board.Board{}
		sc.curGen = nil
		return sc.show(), nil
	case len(cmd.args) != board.Width:
		return nil, fmt.Errorf("board needs %d column values, got %d", board.Width, len(cmd.args))
	}
	var cols [board.Width]uint64
	for i, a := range cmd.args {
		c, err := strconv.ParseUint(a, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		cols[i] = c
	}
	sc.game.Board = board.FromCols(cols)
	sc.curGen = nil
	return sc.show(), nil
}

func (sc *ShellController) setQueue(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg("Queue: " + queueString(sc.queue)), nil
	}
	q, err := board.ParseQueue(strings.Join(cmd.args, ""))
	if err != nil {
		return nil, err
	}
	sc.queue = q
	return msg("Queue: " + queueString(sc.queue)), nil
}

func (sc *ShellController) hold(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		if !sc.game.HasHold {
			return msg("Hold: -"), nil
		}
		return msg("Hold: " + sc.game.Hold.String()), nil
	}
	if cmd.args[0] == "none" {
		sc.game.Hold, sc.game.HasHold = 0, false
		return msg("Hold: -"), nil
	}
	p, err := board.ParsePiece(cmd.args[0])
	if err != nil {
		return nil, err
	}
	sc.game.Hold, sc.game.HasHold = p, true
	return msg("Hold: " + p.String()), nil
}

func candidateTableHeader() string {
	return fmt.Sprintf("%3s  %-28s %5s %4s %10s", "#", "Placement", "Lines", "Atk", "Score")
}

func candidateTableRow(idx int, c *candidate) string {
	return fmt.Sprintf("%3d  %-28s %5d %4d %10.3f", idx, c.loc.String(),
		c.info.LinesCleared, c.info.Attack, c.score)
}

// generate lists every placement of a piece, best first by static
// evaluation.
func (sc *ShellController) generate(cmd *shellcmd) (*Response, error) {
	var piece board.Piece
	switch {
	case len(cmd.args) > 0:
		p, err := board.ParsePiece(cmd.args[0])
		if err != nil {
			return nil, err
		}
		piece = p
	case len(sc.queue) > 0:
		piece = sc.queue[0]
	default:
		return nil, errEmptyQueue
	}
	numPlays, err := intOption(cmd, "n", 15)
	if err != nil {
		return nil, err
	}

	locs := sc.gen.Generate(nil, &sc.game.Board, piece, true)
	sc.curGen = sc.curGen[:0]
	for _, loc := range locs {
		child := sc.game
		info := child.Advance(loc.Piece, loc)
		sc.curGen = append(sc.curGen, candidate{
			loc:   loc,
			info:  info,
			score: equity.Value(sc.eval, &child, &info),
		})
	}
	slices.SortStableFunc(sc.curGen, func(a, b candidate) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d placements for %v\n", len(sc.curGen), piece)
	sb.WriteString(candidateTableHeader() + "\n")
	for i := range sc.curGen[:max(0, min(numPlays, len(sc.curGen)))] {
		sb.WriteString(candidateTableRow(i, &sc.curGen[i]) + "\n")
	}
	return msg(strings.TrimSuffix(sb.String(), "\n")), nil
}

func (sc *ShellController) search(cmd *shellcmd) (*Response, error) {
	if len(sc.queue) == 0 {
		return nil, errEmptyQueue
	}
	depth, err := intOption(cmd, "depth", sc.cfg.GetInt(config.ConfigBeamDepth))
	if err != nil {
		return nil, err
	}
	width, err := intOption(cmd, "width", sc.cfg.GetInt(config.ConfigBeamWidth))
	if err != nil {
		return nil, err
	}
	if depth < 1 || width < 1 {
		return nil, errors.New("depth and width must be positive")
	}
	depth = min(depth, len(sc.queue))

	start := time.Now()
	res, ok := sc.searcher(depth, width).Search(&sc.game, sc.queue)
	elapsed := time.Since(start)
	log.Debug().Int("depth", depth).Int("width", width).Int("nodes", res.Nodes).
		Dur("elapsed", elapsed).Msg("shell-search")
	if !ok {
		sc.curGen = nil
		return msg("No placement keeps the game going."), nil
	}

	best := sc.game
	info := best.Advance(sc.queue[0], res.Placement())
	sc.curGen = []candidate{{loc: res.Placement(), info: info, score: res.Score}}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Best path (score %.3f, %d nodes, %v):\n", res.Score, res.Nodes, elapsed)
	for i, loc := range res.Path {
		fmt.Fprintf(&sb, "%3d  %v\n", i, loc)
	}
	sb.WriteString(best.ToDisplayText(nil))
	sb.WriteString("Use play 0 to make the first move.")
	return msg(sb.String()), nil
}

func (sc *ShellController) pick(cmd *shellcmd) (*candidate, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need the index of a listed placement")
	}
	idx, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(sc.curGen) {
		return nil, fmt.Errorf("no listed placement %d; run gen or search first", idx)
	}
	return &sc.curGen[idx], nil
}

// keys shows the inputs that perform a listed placement.
func (sc *ShellController) keys(cmd *shellcmd) (*Response, error) {
	c, err := sc.pick(cmd)
	if err != nil {
		return nil, err
	}
	actions, err := keygen.Plan(sc.game.Board, c.loc, boolOption(cmd, "human"))
	if err != nil {
		return nil, err
	}
	if len(sc.queue) > 0 && c.loc.Piece != sc.queue[0] {
		actions = append([]keygen.Action{keygen.Hold}, actions...)
	}
	names := lo.Map(actions, func(a keygen.Action, _ int) string { return a.String() })
	return msg(strings.Join(names, " ")), nil
}

// playable reports whether p can be placed now: the next piece, or the
// one the hold slot gives access to.
func (sc *ShellController) playable(p board.Piece) bool {
	if len(sc.queue) == 0 {
		return false
	}
	if p == sc.queue[0] {
		return true
	}
	if h, ok := sc.game.HeldPiece(); ok {
		return p == h
	}
	return len(sc.queue) > 1 && p == sc.queue[1]
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if len(sc.queue) == 0 {
		return nil, errEmptyQueue
	}
	c, err := sc.pick(cmd)
	if err != nil {
		return nil, err
	}
	loc := c.loc
	if !sc.playable(loc.Piece) {
		return nil, fmt.Errorf("%v is neither next nor reachable through hold", loc.Piece)
	}
	if sc.game.Board.Obstructed(loc) || sc.game.Board.DistanceToGround(loc) != 0 {
		return nil, fmt.Errorf("%v does not rest on this board", loc)
	}
	info, rest := sc.game.PlayQueue(sc.queue, loc)
	sc.queue = rest
	sc.curGen = nil
	summary := fmt.Sprintf("Placed %v: %d lines, %d attack, %d garbage received",
		loc, info.LinesCleared, info.Attack, info.GarbageAdded)
	return msg(summary + "\n" + sc.game.ToDisplayText(&loc) + "Queue: " + queueString(sc.queue)), nil
}

func (sc *ShellController) perft(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need a depth")
	}
	depth, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, err
	}
	if depth < 1 || depth > len(sc.queue) {
		return nil, fmt.Errorf("depth must be between 1 and the queue length %d", len(sc.queue))
	}
	start := time.Now()
	n := search.Perft(sc.game, sc.queue, depth)
	return msg(fmt.Sprintf("perft(%d) = %d in %v", depth, n, time.Since(start))), nil
}

// garbage adds n garbage rows with the gap at col, or queues them as
// incoming with -pending true.
func (sc *ShellController) garbage(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 2 {
		return nil, errors.New("usage: garbage <col> <n>")
	}
	col, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(cmd.args[1])
	if err != nil {
		return nil, err
	}
	if col < 0 || col >= board.Width || n < 1 {
		return nil, fmt.Errorf("bad garbage column %d or count %d", col, n)
	}
	if boolOption(cmd, "pending") {
		sc.game.GarbageGap = col
		sc.game.IncomingGarbage += n
	} else {
		sc.game.Board.AddGarbage(col, n)
	}
	sc.curGen = nil
	return sc.show(), nil
}

// stats summarizes the scores of the last listed placements.
func (sc *ShellController) stats(cmd *shellcmd) (*Response, error) {
	if len(sc.curGen) == 0 {
		return nil, errors.New("nothing listed; run gen first")
	}
	bins, err := intOption(cmd, "bins", 10)
	if err != nil {
		return nil, err
	}
	var st stats.Statistic
	scores := make([]float64, 0, len(sc.curGen))
	for _, c := range sc.curGen {
		// a dead placement scores -Inf
		if math.IsInf(c.score, -1) {
			continue
		}
		st.Push(c.score)
		scores = append(scores, c.score)
	}
	if len(scores) == 0 {
		return msg("No finite scores."), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "n=%d mean=%.3f stdev=%.3f min=%.3f max=%.3f\n",
		st.Count(), st.Mean(), st.Stdev(), st.Min(), st.Max())
	if err := histogram.Fprint(&sb, histogram.Hist(bins, scores), histogram.Linear(40)); err != nil {
		return nil, err
	}
	return msg(strings.TrimSuffix(sb.String(), "\n")), nil
}
