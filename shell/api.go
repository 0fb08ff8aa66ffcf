package shell

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/rookery/board"
	"github.com/domino14/rookery/book"
	"github.com/domino14/rookery/bot"
	"github.com/domino14/rookery/config"
	"github.com/domino14/rookery/move"
	"github.com/domino14/rookery/search/negamax"
	"github.com/domino14/rookery/turnplayer"
)

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func msg(message string) *Response {
	return &Response{message: message}
}

// keys whose change needs a new solver.
var solverKeys = []string{
	config.ConfigPromotionsToSearch,
	config.ConfigTTEntries,
	config.ConfigTTMemoryFraction,
}

func formatResult(r negamax.Result, whiteToMove bool) string {
	if r.Move.IsInvalid() {
		if r.Depth == 0 {
			return "no result"
		}
		if negamax.IsMateScore(r.Eval) {
			return "no legal moves: checkmate"
		}
		return "no legal moves: stalemate"
	}
	s := fmt.Sprintf("bestmove %s eval %d depth %d", r.Move, r.Eval, r.Depth)
	if t := negamax.MateText(r.Eval, whiteToMove); t != "" {
		s += " (" + t + ")"
	}
	return s
}

func (sc *ShellController) position(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: position startpos|fen <fen> [moves m1 m2 ...]")
	}
	rest := cmd.args[1:]
	var moves []string
	if i := slices.Index(rest, "moves"); i >= 0 {
		moves = rest[i+1:]
		rest = rest[:i]
	}
	var fen string
	switch cmd.args[0] {
	case "startpos":
		if len(rest) != 0 {
			return nil, errors.New("startpos takes no FEN")
		}
		fen = board.StartPosition
	case "fen":
		fen = strings.Join(rest, " ")
	default:
		return nil, fmt.Errorf("position: expected startpos or fen, got %q", cmd.args[0])
	}
	if err := sc.board.SetFEN(fen); err != nil {
		return nil, err
	}
	for _, m := range moves {
		if err := sc.board.Play(m); err != nil {
			return nil, err
		}
	}
	return msg(sc.board.ToDisplayText()), nil
}

// goSearch starts a search in the background. Options: -depth n searches
// to exactly n plies; -movetime ms bounds it in time; the infinite
// argument searches until `stop`.
func (sc *ShellController) goSearch(cmd *shellcmd) (*Response, error) {
	settings := negamax.SettingsFromConfig(sc.config)
	depth, err := cmd.options.IntDefault("depth", 0)
	if err != nil {
		return nil, err
	}
	if depth > 0 {
		settings.Depth = depth
		settings.FixedDepth = true
	}
	infinite := slices.Contains(cmd.args, "infinite")
	if infinite {
		settings.EndlessMode = true
	}
	movetime, err := cmd.options.IntDefault("movetime", 0)
	if err != nil {
		return nil, err
	}
	if movetime == 0 && depth == 0 && !infinite {
		movetime = sc.config.GetInt(config.ConfigSearchTimeMillis)
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if movetime > 0 && !infinite {
		ctx, cancel = context.WithTimeout(context.Background(), time.Duration(movetime)*time.Millisecond)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	solver := sc.player.Solver()
	whiteToMove := sc.board.WhiteToMove()
	done := make(chan struct{})
	sc.searchDone = done
	sc.searchCancel = cancel
	blocking := sc.syncSearch
	go func() {
		defer close(done)
		defer cancel()
		res := solver.StartSearch(ctx, settings)
		if !blocking {
			sc.showMessage(formatResult(res, whiteToMove))
		}
	}()
	if blocking {
		<-done
		return msg(formatResult(solver.Result(), whiteToMove)), nil
	}
	return msg("searching..."), nil
}

func (sc *ShellController) stop(cmd *shellcmd) (*Response, error) {
	if !sc.searching() {
		return msg("no search is running"), nil
	}
	sc.searchCancel()
	<-sc.searchDone
	// the search goroutine prints the result
	return nil, nil
}

func (sc *ShellController) result(cmd *shellcmd) (*Response, error) {
	return msg(formatResult(sc.player.Solver().Result(), sc.board.WhiteToMove())), nil
}

func (sc *ShellController) diag(cmd *shellcmd) (*Response, error) {
	d := sc.player.Solver().Diagnostics()
	ts := sc.player.Solver().TranspositionTable().Stats()
	var b strings.Builder
	fmt.Fprintf(&b, "move:                %s\n", d.Move)
	fmt.Fprintf(&b, "book move:           %v\n", d.IsBook)
	fmt.Fprintf(&b, "eval:                %d\n", d.Eval)
	fmt.Fprintf(&b, "depth:               %d\n", d.LastCompletedDepth)
	fmt.Fprintf(&b, "nodes:               %d (+%d quiescence)\n", d.Nodes, d.QNodes)
	fmt.Fprintf(&b, "cutoffs:             %d\n", d.Cutoffs)
	fmt.Fprintf(&b, "tt hits:             %d\n", d.TTHits)
	fmt.Fprintf(&b, "positions evaluated: %d\n", d.PositionsEvaluated)
	fmt.Fprintf(&b, "elapsed:             %s\n", d.Elapsed)
	fmt.Fprintf(&b, "tt:                  %d stored, %d lookups, %d hits, %d collisions",
		ts.Created, ts.Lookups, ts.Hits, ts.Collisions)
	if d.MateText != "" {
		fmt.Fprintf(&b, "\n%s", d.MateText)
	}
	return msg(b.String()), nil
}

func (sc *ShellController) display(cmd *shellcmd) (*Response, error) {
	s := sc.board.ToDisplayText()
	if played := sc.board.Played(); len(played) > 0 {
		s += "\nmoves: " + strings.Join(lo.Map(played, func(m move.Move, _ int) string {
			return m.String()
		}), " ")
	}
	return msg(s), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: play <move> [<move> ...]")
	}
	for _, m := range cmd.args {
		if err := sc.board.Play(m); err != nil {
			return nil, err
		}
	}
	return msg(sc.board.ToDisplayText()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if !sc.board.TakeBack() {
		return nil, errors.New("no moves to take back")
	}
	return msg(sc.board.ToDisplayText()), nil
}

func (sc *ShellController) aiplay(cmd *shellcmd) (*Response, error) {
	turn, err := sc.player.PlayTurn(context.Background())
	if err != nil {
		return nil, err
	}
	source := "search"
	if turn.Book {
		source = "book"
	}
	return msg(fmt.Sprintf("played %s (%s)\n%s", turn.Move, source, sc.board.ToDisplayText())), nil
}

func (sc *ShellController) loadBook(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		if sc.book == nil {
			return msg("no book loaded"), nil
		}
		moves := sc.book.Moves(sc.board.PositionKey())
		if len(moves) == 0 {
			return msg("position not in book"), nil
		}
		return msg(strings.Join(lo.Map(moves, func(m book.BookMove, _ int) string {
			return fmt.Sprintf("%s (%d)", m.Move, m.Weight)
		}), ", ")), nil
	}
	bk, err := book.Load(cmd.args[0])
	if err != nil {
		return nil, err
	}
	sc.book = bk
	sc.player.SetBook(bk)
	return msg(fmt.Sprintf("loaded %d book positions", bk.NumPositions())), nil
}

func (sc *ShellController) tt(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: tt clear|stats")
	}
	table := sc.player.Solver().TranspositionTable()
	switch cmd.args[0] {
	case "clear":
		table.Clear()
		return msg("transposition table cleared"), nil
	case "stats":
		ts := table.Stats()
		return msg(fmt.Sprintf("capacity %d, stored %d, lookups %d, hits %d, collisions %d",
			table.Capacity(), ts.Created, ts.Lookups, ts.Hits, ts.Collisions)), nil
	}
	return nil, fmt.Errorf("tt: unknown subcommand %q", cmd.args[0])
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		keys := lo.Filter(sc.config.AllKeys(), func(k string, _ int) bool {
			return k != config.ConfigFile
		})
		slices.Sort(keys)
		lines := lo.Map(keys, func(k string, _ int) string {
			return fmt.Sprintf("%-22s %v", k, sc.config.Get(k))
		})
		return msg(strings.Join(lines, "\n")), nil
	}
	key := cmd.args[0]
	if len(cmd.args) == 1 {
		return msg(fmt.Sprintf("%v", sc.config.Get(key))), nil
	}
	if !slices.Contains(sc.config.AllKeys(), key) {
		return nil, fmt.Errorf("unknown setting %q", key)
	}
	old := sc.config.Get(key)
	sc.config.Set(key, strings.Join(cmd.args[1:], " "))
	if err := sc.config.Validate(); err != nil {
		sc.config.Set(key, old)
		return nil, err
	}
	if slices.Contains(solverKeys, key) {
		sc.player = turnplayer.NewAIPlayer(sc.board, sc.config, sc.book)
		log.Debug().Str("key", key).Msg("rebuilt-solver")
	}
	return msg(fmt.Sprintf("set %s to %v", key, sc.config.Get(key))), nil
}

// remote asks the deployed Lambda move function for a move and plays it.
func (sc *ShellController) remote(cmd *shellcmd) (*Response, error) {
	function := sc.config.GetString(config.ConfigLambdaFunction)
	if len(cmd.args) > 0 {
		function = cmd.args[0]
	}
	movetime, err := cmd.options.IntDefault("movetime", sc.config.GetInt(config.ConfigSearchTimeMillis))
	if err != nil {
		return nil, err
	}
	if sc.remoteClient == nil || sc.remoteFunction != function {
		c, err := bot.NewLambdaClient(context.Background(), function)
		if err != nil {
			return nil, err
		}
		sc.remoteClient = c
		sc.remoteFunction = function
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(movetime)*time.Millisecond+time.Minute)
	defer cancel()
	uci, err := sc.remoteClient.RequestMove(ctx, bot.LambdaEvent{
		GameID:         "shell",
		FEN:            sc.board.FEN(),
		MoveTimeMillis: movetime,
	})
	if err != nil {
		return nil, err
	}
	if err := sc.board.Play(uci); err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("played %s (remote)\n%s", uci, sc.board.ToDisplayText())), nil
}
