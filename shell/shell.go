// Package shell is an interactive REPL for poking at positions: set up a
// board and queue, list placements, run searches and play moves.
package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/tetrizz/board"
	"github.com/domino14/tetrizz/config"
	"github.com/domino14/tetrizz/equity"
	"github.com/domino14/tetrizz/game"
	"github.com/domino14/tetrizz/movegen"
	"github.com/domino14/tetrizz/search"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format for option")
	errQuit              = errors.New("quit")
)

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

// candidate is a listed placement with the score the evaluator gave it.
type candidate struct {
	loc   board.PieceLocation
	info  game.PlacementInfo
	score float64
}

type ShellController struct {
	l   *readline.Instance
	cfg *config.Config
	out io.Writer

	game  game.Game
	queue []board.Piece
	eval  equity.Evaluator
	gen   *movegen.Generator

	// curGen is what gen or search listed last; keys and play index it.
	curGen []candidate
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func newController(cfg *config.Config, eval equity.Evaluator, out io.Writer) *ShellController {
	g := game.New()
	g.GarbageCap = cfg.GetInt(config.ConfigGarbageCap)
	return &ShellController{
		cfg:  cfg,
		out:  out,
		game: g,
		eval: eval,
		gen:  movegen.NewGenerator(),
	}
}

// NewShellController sets up a readline-backed shell scoring positions
// with the configured evaluator.
func NewShellController(cfg *config.Config) (*ShellController, error) {
	eval, err := equity.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36mtetrizz>\033[0m ",
		HistoryFile:     "/tmp/tetrizz-readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}
	sc := newController(cfg, eval, l.Stdout())
	sc.l = l
	return sc, nil
}

func (sc *ShellController) showMessage(msg string) {
	io.WriteString(sc.out, msg)
	io.WriteString(sc.out, "\n")
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := map[string]string{}

	for idx := 1; idx < len(fields); idx++ {
		if strings.HasPrefix(fields[idx], "-") {
			if idx == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			options[fields[idx][1:]] = fields[idx+1]
			idx++
			continue
		}
		args = append(args, fields[idx])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

// Execute runs one command line and returns its output.
func (sc *ShellController) Execute(line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "exit", "bye":
		return nil, errQuit
	case "help":
		return sc.help(cmd)
	case "board":
		return sc.board(cmd)
	case "queue":
		return sc.setQueue(cmd)
	case "hold":
		return sc.hold(cmd)
	case "gen":
		return sc.generate(cmd)
	case "search":
		return sc.search(cmd)
	case "keys":
		return sc.keys(cmd)
	case "play":
		return sc.play(cmd)
	case "perft":
		return sc.perft(cmd)
	case "garbage":
		return sc.garbage(cmd)
	case "stats":
		return sc.stats(cmd)
	case "script":
		return sc.script(cmd)
	}
	return nil, fmt.Errorf("unknown command %q", cmd.cmd)
}

// Loop reads commands until exit or EOF, then signals the process to
// quit.
func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, err := sc.Execute(line)
		if err == errQuit {
			sig <- syscall.SIGINT
			break
		} else if err != nil {
			sc.showError(err)
			continue
		}
		if resp != nil && resp.message != "" {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// searcher builds a search over the shell's evaluator with the configured
// dedup setting.
func (sc *ShellController) searcher(depth, width int) *search.Searcher {
	s := search.NewSearcher(sc.eval, depth, width)
	s.Dedup = sc.cfg.GetBool(config.ConfigSearchDedup)
	return s
}
