package movegen

import (
	"testing"

	"github.com/matryer/is"
	"github.com/samber/lo"

	"github.com/domino14/rookery/board"
	"github.com/domino14/rookery/config"
	"github.com/domino14/rookery/move"
)

func mustFEN(t *testing.T, fen string) *board.Board {
	b, err := board.FromFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestStartPosition(t *testing.T) {
	is := is.New(t)
	g := NewGenerator(config.PromotionsAll)
	b := board.New()
	is.Equal(len(g.GenerateMoves(b, true)), 20)
	is.Equal(len(g.GenerateMoves(b, false)), 0)
	is.True(!g.InCheck(b))
}

func TestCapturesOnly(t *testing.T) {
	is := is.New(t)
	g := NewGenerator(config.PromotionsAll)
	// 1. e4 d5: exd5 is the only capture.
	b := mustFEN(t, "rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 2")
	caps := g.GenerateMoves(b, false)
	is.Equal(len(caps), 1)
	is.Equal(caps[0].String(), "e4d5")
	is.True(len(g.GenerateMoves(b, true)) > 1)
}

func TestPromotionFilter(t *testing.T) {
	is := is.New(t)
	b := mustFEN(t, "8/P6k/8/8/8/8/8/K7 w - - 0 1")

	promoPieces := func(g *Generator) []move.Piece {
		ms := lo.Filter(g.GenerateMoves(b, false), func(m move.Move, _ int) bool {
			return m.IsPromotion()
		})
		return lo.Map(ms, func(m move.Move, _ int) move.Piece { return m.PromotionPiece() })
	}

	is.Equal(len(promoPieces(NewGenerator(config.PromotionsAll))), 4)
	is.Equal(promoPieces(NewGenerator(config.PromotionsQueenOnly)), []move.Piece{move.Queen})
	qn := promoPieces(NewGenerator(config.PromotionsQueenAndKnight))
	is.Equal(len(qn), 2)
	is.True(lo.Contains(qn, move.Queen))
	is.True(lo.Contains(qn, move.Knight))
}

func TestInCheck(t *testing.T) {
	is := is.New(t)
	g := NewGenerator(config.PromotionsAll)
	b := mustFEN(t, "4k3/8/8/8/8/8/8/4K2r w - - 0 1")
	is.True(g.InCheck(b))
	for _, m := range g.GenerateMoves(b, true) {
		is.Equal(b.PieceAt(m.From()), move.King)
	}
}
