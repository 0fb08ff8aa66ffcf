// Package turnplayer plays the computer's side of a game: an opening book
// move when there is one, a timed search otherwise.
package turnplayer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/rookery/board"
	"github.com/domino14/rookery/book"
	"github.com/domino14/rookery/config"
	"github.com/domino14/rookery/move"
	"github.com/domino14/rookery/search/negamax"
)

var ErrNoLegalMoves = errors.New("no legal moves")

// Turn is a chosen move. Book is set if it came from the opening book.
type Turn struct {
	Move move.Move
	Book bool
	Err  error
}

// AIPlayer chooses moves for the side to move on its board. While a turn
// is being chosen the board belongs to the player; the host must not touch
// it until the Turn has been received.
type AIPlayer struct {
	board  *board.Board
	cfg    *config.Config
	book   *book.Book
	solver *negamax.Solver

	// override the config when nonzero
	depth    int
	moveTime time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewAIPlayer makes a player for b. bk may be nil.
func NewAIPlayer(b *board.Board, cfg *config.Config, bk *book.Book) *AIPlayer {
	return NewAIPlayerWithTable(b, cfg, bk, nil)
}

// NewAIPlayerWithTable makes a player that searches with an existing
// transposition table, so that a long-lived host can share one table
// between the boards it plays on, one at a time.
func NewAIPlayerWithTable(b *board.Board, cfg *config.Config, bk *book.Book,
	tt *negamax.TranspositionTable) *AIPlayer {
	return &AIPlayer{
		board:  b,
		cfg:    cfg,
		book:   bk,
		solver: NewSolver(b, cfg, tt),
	}
}

// SetSearchLimits overrides the configured depth and time per move. A
// nonzero depth searches to exactly that depth; zero values fall back to
// the config.
func (p *AIPlayer) SetSearchLimits(depth int, moveTime time.Duration) {
	p.depth = depth
	p.moveTime = moveTime
}

func (p *AIPlayer) Solver() *negamax.Solver {
	return p.solver
}

func (p *AIPlayer) SetBook(bk *book.Book) {
	p.book = bk
}

// Stop ends the turn started by TurnToMove early. The move of the last
// completed depth is still delivered.
func (p *AIPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

// TurnToMove starts choosing a move. With use-threading the choice is made
// on its own goroutine and TurnToMove returns at once; otherwise it
// returns after the move is on the channel.
func (p *AIPlayer) TurnToMove(ctx context.Context) <-chan Turn {
	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	ch := make(chan Turn, 1)
	if p.cfg.GetBool(config.ConfigUseThreading) {
		go func() {
			defer cancel()
			ch <- p.ChooseMove(ctx)
		}()
	} else {
		defer cancel()
		ch <- p.ChooseMove(ctx)
	}
	return ch
}

// ChooseMove picks a move without playing it.
func (p *AIPlayer) ChooseMove(ctx context.Context) Turn {
	if m, ok := p.bookMove(ctx); ok {
		return Turn{Move: m, Book: true}
	}
	m := p.searchMove(ctx)
	if m.IsInvalid() {
		legal := p.board.LegalMoves()
		if len(legal) == 0 {
			return Turn{Move: m, Err: ErrNoLegalMoves}
		}
		// Stopped before depth 1 finished.
		log.Warn().Msg("search-returned-no-move")
		m = legal[0]
	}
	return Turn{Move: m}
}

// PlayTurn chooses a move and plays it on the board.
func (p *AIPlayer) PlayTurn(ctx context.Context) (Turn, error) {
	t := <-p.TurnToMove(ctx)
	if t.Err != nil {
		return t, t.Err
	}
	p.board.MakeMove(t.Move, false)
	log.Info().Str("move", t.Move.String()).Bool("book", t.Book).
		Int("ply", p.board.GamePly()).Msg("ai-played")
	return t, nil
}

func (p *AIPlayer) bookMove(ctx context.Context) (move.Move, bool) {
	if p.book == nil || !p.cfg.GetBool(config.ConfigUseBook) ||
		p.board.GamePly() > p.cfg.GetInt(config.ConfigMaxBookPly) {
		return move.Invalid, false
	}
	uci, err := p.book.RandomMoveWeighted(p.board.PositionKey())
	if err != nil {
		return move.Invalid, false
	}
	m, err := p.board.FindMove(uci)
	if err != nil {
		log.Warn().Err(err).Str("position", p.board.PositionKey()).Msg("bad-book-move")
		return move.Invalid, false
	}
	if delay := p.cfg.GetInt(config.ConfigBookMoveDelayMillis); delay > 0 {
		t := time.NewTimer(time.Duration(delay) * time.Millisecond)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}
	p.solver.MarkBookMove(m)
	log.Debug().Str("move", uci).Msg("book-move")
	return m, true
}

// searchMove runs the search with a timer that ends it after
// search-time-ms. The timer is dropped if the search finishes first, which
// it does when it finds a mate or reaches a fixed depth. In endless mode
// there is no timer; the search runs until Stop or ctx.
func (p *AIPlayer) searchMove(ctx context.Context) move.Move {
	settings := negamax.SettingsFromConfig(p.cfg)
	limit := time.Duration(p.cfg.GetInt(config.ConfigSearchTimeMillis)) * time.Millisecond
	if p.depth > 0 {
		settings.Depth = p.depth
		settings.FixedDepth = true
	}
	if p.moveTime > 0 {
		limit = p.moveTime
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var res negamax.Result
	done := make(chan struct{})
	g := &errgroup.Group{}
	g.Go(func() error {
		defer close(done)
		res = p.solver.StartSearch(ctx, settings)
		return nil
	})
	if !settings.EndlessMode {
		g.Go(func() error {
			timer := time.NewTimer(limit)
			defer timer.Stop()
			select {
			case <-timer.C:
				log.Debug().Dur("limit", limit).Msg("search-time-up")
				cancel()
			case <-done:
			}
			return nil
		})
	}
	_ = g.Wait()
	return res.Move
}
