package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/rookery/board"
	"github.com/domino14/rookery/book"
	"github.com/domino14/rookery/bot"
	"github.com/domino14/rookery/config"
	"github.com/domino14/rookery/turnplayer"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errSearching         = errors.New("a search is running; use `stop` first")
	errQuit              = errors.New("quit")
)

type ShellController struct {
	l      *readline.Instance
	out    io.Writer
	config *config.Config

	board  *board.Board
	book   *book.Book
	player *turnplayer.AIPlayer

	// searchDone is closed when the background search finishes. It is
	// nil if no search was ever started.
	searchDone   chan struct{}
	searchCancel context.CancelFunc
	// syncSearch makes `go` wait for its result, for scripts.
	syncSearch bool

	remoteClient   *bot.LambdaClient
	remoteFunction string
}

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showMessage(msg string) {
	writeln(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// NewShellController sets up a controller with no terminal attached.
// Loop attaches one.
func NewShellController(cfg *config.Config) *ShellController {
	sc := &ShellController{
		out:    os.Stderr,
		config: cfg,
		board:  board.New(),
	}
	if cfg.GetBool(config.ConfigUseBook) {
		bk, err := book.Load(cfg.GetString(config.ConfigBookPath))
		if err != nil {
			log.Warn().Err(err).Msg("no-opening-book")
		} else {
			sc.book = bk
		}
	}
	sc.player = turnplayer.NewAIPlayer(sc.board, cfg, sc.book)
	return sc
}

func (sc *ShellController) initReadline() error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36mrookery>\033[0m ",
		HistoryFile:     "/tmp/rookery_readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    NewShellCompleter(sc),

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	sc.l = l
	sc.out = l.Stderr()
	return nil
}

// extractFields splits a command line into the command, its positional
// arguments and its -key value options.
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
	options := CmdOptions{}
	for idx := 1; idx < len(fields); idx++ {
		f := fields[idx]
		if isOption(f) {
			if idx == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			key := f[1:]
			options[key] = append(options[key], fields[idx+1])
			idx++
		} else {
			args = append(args, f)
		}
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

// isOption tells -depth from the FEN placeholder "-" and negative numbers.
func isOption(f string) bool {
	if len(f) < 2 || f[0] != '-' {
		return false
	}
	_, err := strconv.Atoi(f)
	return err != nil
}

func (sc *ShellController) searching() bool {
	if sc.searchDone == nil {
		return false
	}
	select {
	case <-sc.searchDone:
		return false
	default:
		return true
	}
}

// Execute runs one command line and prints its response.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	cmd, err := extractFields(line)
	if err != nil {
		if err != errNoData {
			sc.showError(err)
		}
		return
	}
	resp, err := sc.standardModeSwitch(cmd)
	if err == errQuit {
		sig <- syscall.SIGINT
		return
	}
	if err != nil {
		sc.showError(err)
		return
	}
	if resp != nil && resp.message != "" {
		sc.showMessage(resp.message)
	}
}

func (sc *ShellController) standardModeSwitch(cmd *shellcmd) (*Response, error) {
	// Commands that don't touch the board may run during a search.
	switch cmd.cmd {
	case "stop":
		return sc.stop(cmd)
	case "result":
		return sc.result(cmd)
	case "diag", "info":
		return sc.diag(cmd)
	case "help":
		return sc.help(cmd)
	case "exit", "quit", "bye":
		sc.Cleanup()
		return nil, errQuit
	}
	if sc.searching() {
		return nil, errSearching
	}
	switch cmd.cmd {
	case "position":
		return sc.position(cmd)
	case "go":
		return sc.goSearch(cmd)
	case "display", "d":
		return sc.display(cmd)
	case "play":
		return sc.play(cmd)
	case "undo":
		return sc.undo(cmd)
	case "aiplay":
		return sc.aiplay(cmd)
	case "book":
		return sc.loadBook(cmd)
	case "tt":
		return sc.tt(cmd)
	case "set":
		return sc.set(cmd)
	case "script":
		return sc.script(cmd)
	case "remote":
		return sc.remote(cmd)
	default:
		log.Debug().Msgf("you said: %v", strconv.Quote(cmd.cmd))
		return nil, fmt.Errorf("unknown command %q; try `help`", cmd.cmd)
	}
}

// Loop reads commands until exit, EOF or an interrupt on an empty line,
// then signals sig.
func (sc *ShellController) Loop(sig chan os.Signal) {
	if err := sc.initReadline(); err != nil {
		log.Error().Err(err).Msg("readline-init")
		sig <- syscall.SIGINT
		return
	}
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		cmd, err := extractFields(line)
		if err == errNoData {
			continue
		} else if err != nil {
			sc.showError(err)
			continue
		}
		resp, err := sc.standardModeSwitch(cmd)
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

// Cleanup stops any running search.
func (sc *ShellController) Cleanup() {
	if sc.searching() {
		sc.searchCancel()
		<-sc.searchDone
	}
}
