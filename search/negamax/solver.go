// Package negamax is the move search: iterative deepening over an
// alpha-beta negamax with a transposition table and a capture-only
// quiescence extension.
package negamax

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/rookery/config"
	"github.com/domino14/rookery/game"
	"github.com/domino14/rookery/move"
)

// thanks Wikipedia:
/*
function negamax(node, depth, α, β, color) is
    if depth = 0 or node is a terminal node then
        return color × the heuristic value of node

    childNodes := generateMoves(node)
    childNodes := orderMoves(childNodes)
    value := −∞
    foreach child in childNodes do
        value := max(value, −negamax(child, depth − 1, −β, −α, −color))
        α := max(α, value)
        if α ≥ β then
            break (* cut-off *)
    return value
**/

type Settings struct {
	// Depth is the fixed search depth, or the only depth searched when
	// iterative deepening is off.
	Depth                 int
	FixedDepth            bool
	IterativeDeepening    bool
	UseTranspositionTable bool
	ClearTTEachMove       bool
	// EndlessMode keeps deepening after a mate has been found.
	EndlessMode bool
}

func DefaultSettings() Settings {
	return Settings{
		Depth:                 6,
		IterativeDeepening:    true,
		UseTranspositionTable: true,
	}
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Depth:                 cfg.GetInt(config.ConfigDepth),
		FixedDepth:            cfg.GetBool(config.ConfigFixedDepth),
		IterativeDeepening:    cfg.GetBool(config.ConfigIterativeDeepening),
		UseTranspositionTable: cfg.GetBool(config.ConfigUseTranspositionTable),
		ClearTTEachMove:       cfg.GetBool(config.ConfigClearTTEachMove),
		EndlessMode:           cfg.GetBool(config.ConfigEndlessMode),
	}
}

// Result is the outcome of the last fully searched depth. Move is
// move.Invalid when no depth completed or the side to move has no moves.
type Result struct {
	Move  move.Move
	Eval  int
	Depth int
}

// Diagnostics is a read-only report on the last search. Nothing in it
// feeds back into the search.
type Diagnostics struct {
	Nodes              uint64
	QNodes             uint64
	Cutoffs            uint64
	TTHits             uint64
	PositionsEvaluated uint64
	LastCompletedDepth int
	Move               move.Move
	Eval               int
	IsBook             bool
	Elapsed            time.Duration
	// MateText announces a forced mate, if one was found.
	MateText string
}

// Solver searches one board. A Solver runs one search at a time, and owns
// its board and transposition table while it does.
type Solver struct {
	board     game.Board
	movegen   game.MoveGenerator
	evaluator game.Evaluator
	orderer   MoveOrderer
	ttable    *TranspositionTable

	settings Settings
	aborted  atomic.Bool

	bestMoveThisIteration move.Move
	bestEvalThisIteration int

	nodes     atomic.Uint64
	qnodes    atomic.Uint64
	cutoffs   atomic.Uint64
	ttHits    atomic.Uint64
	evaluated atomic.Uint64

	// mu guards the committed result, which hosts read while a search
	// runs.
	mu          sync.Mutex
	result      Result
	diagnostics Diagnostics

	onSearchComplete func(move.Move)
}

// NewSolver makes a solver. If tt is nil a table with
// DefaultTableEntries entries is made.
func NewSolver(b game.Board, mg game.MoveGenerator, ev game.Evaluator, tt *TranspositionTable) *Solver {
	if tt == nil {
		tt = NewTranspositionTable(DefaultTableEntries)
	}
	return &Solver{
		board:     b,
		movegen:   mg,
		evaluator: ev,
		orderer:   &MVVLVAOrderer{},
		ttable:    tt,
		settings:  DefaultSettings(),
	}
}

func (s *Solver) SetMoveOrderer(o MoveOrderer) {
	s.orderer = o
}

func (s *Solver) TranspositionTable() *TranspositionTable {
	return s.ttable
}

func (s *Solver) ClearTranspositionTable() {
	s.ttable.Clear()
}

// OnSearchComplete registers a function called once at the end of every
// StartSearch with the chosen move. It runs on the searching goroutine.
func (s *Solver) OnSearchComplete(f func(move.Move)) {
	s.onSearchComplete = f
}

// EndSearch asks a running search to stop. It doesn't wait for it.
func (s *Solver) EndSearch() {
	s.aborted.Store(true)
}

// Result returns the last committed result.
func (s *Solver) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Solver) Diagnostics() Diagnostics {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.diagnostics
	d.Nodes = s.nodes.Load()
	d.QNodes = s.qnodes.Load()
	d.Cutoffs = s.cutoffs.Load()
	d.TTHits = s.ttHits.Load()
	d.PositionsEvaluated = s.evaluated.Load()
	return d
}

// MarkBookMove records that the last move came from the opening book
// rather than a search.
func (s *Solver) MarkBookMove(m move.Move) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = Result{Move: m}
	s.diagnostics = Diagnostics{Move: m, IsBook: true}
}

// StartSearch searches the board and returns the best move found. It
// stops when the target depth is reached, a mate is found (unless in
// endless mode), EndSearch is called or ctx is done. The result is always
// that of the last depth searched to completion.
func (s *Solver) StartSearch(ctx context.Context, settings Settings) Result {
	tstart := time.Now()
	s.settings = settings
	s.aborted.Store(false)
	stop := context.AfterFunc(ctx, s.EndSearch)
	defer stop()
	if ctx.Err() != nil {
		s.aborted.Store(true)
	}

	s.nodes.Store(0)
	s.qnodes.Store(0)
	s.cutoffs.Store(0)
	s.ttHits.Store(0)
	s.evaluated.Store(0)
	s.mu.Lock()
	s.result = Result{Move: move.Invalid}
	s.diagnostics = Diagnostics{}
	s.mu.Unlock()

	if settings.UseTranspositionTable {
		if settings.ClearTTEachMove {
			s.ttable.Clear()
		}
		s.ttable.NewSearch()
	}

	g := &errgroup.Group{}
	done := make(chan bool)

	g.Go(func() error {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				nodes := s.nodes.Load() + s.qnodes.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})

	g.Go(func() error {
		defer close(done)
		if settings.IterativeDeepening {
			s.iterativelyDeepen(settings)
		} else {
			s.searchDepth(max(settings.Depth, 1))
		}
		return nil
	})
	_ = g.Wait()

	s.mu.Lock()
	s.diagnostics.Elapsed = time.Since(tstart)
	res := s.result
	s.mu.Unlock()

	tstats := s.ttable.Stats()
	log.Info().
		Str("move", res.Move.String()).
		Int("eval", res.Eval).
		Int("depth", res.Depth).
		Uint64("nodes", s.nodes.Load()).
		Uint64("qnodes", s.qnodes.Load()).
		Uint64("cutoffs", s.cutoffs.Load()).
		Uint64("tt-hits", s.ttHits.Load()).
		Uint64("ttable-created", tstats.Created).
		Uint64("ttable-lookups", tstats.Lookups).
		Uint64("ttable-collisions", tstats.Collisions).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("search-returning")

	if s.onSearchComplete != nil {
		s.onSearchComplete(res.Move)
	}
	return res
}

func (s *Solver) iterativelyDeepen(settings Settings) {
	target := MaxDepth
	if settings.FixedDepth {
		target = min(max(settings.Depth, 1), MaxDepth)
	}
	for depth := 1; depth <= target; depth++ {
		if s.aborted.Load() {
			return
		}
		log.Debug().Int("plies", depth).Msg("deepening-iteratively")
		if !s.searchDepth(depth) {
			return
		}
		res := s.Result()
		if res.Move.IsInvalid() {
			// Nothing to play; deeper searches won't change that.
			return
		}
		if IsMateScore(res.Eval) && !settings.EndlessMode {
			return
		}
	}
}

// searchDepth runs one full search and commits it unless it was cut short.
func (s *Solver) searchDepth(depth int) bool {
	s.bestMoveThisIteration = move.Invalid
	s.bestEvalThisIteration = 0
	val := s.negamax(depth, 0, NegativeInfinity, PositiveInfinity)
	if s.aborted.Load() {
		log.Debug().Int("plies", depth).Msg("search-aborted")
		return false
	}
	if s.bestMoveThisIteration.IsInvalid() {
		// No legal moves at the root: val is the mate or stalemate score.
		s.bestEvalThisIteration = val
	}
	s.commit(depth)
	return true
}

func (s *Solver) commit(depth int) {
	m, eval := s.bestMoveThisIteration, s.bestEvalThisIteration
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = Result{Move: m, Eval: eval, Depth: depth}
	s.diagnostics.LastCompletedDepth = depth
	s.diagnostics.Move = m
	s.diagnostics.Eval = eval
	s.diagnostics.MateText = MateText(eval, s.board.WhiteToMove())
	log.Debug().Int("ply", depth).Str("move", m.String()).Int("eval", eval).Msg("best-val")
}
