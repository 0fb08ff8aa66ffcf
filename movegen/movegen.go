// Package movegen produces the legal chess moves the search explores.
package movegen

import (
	"github.com/samber/lo"

	"github.com/domino14/rookery/config"
	"github.com/domino14/rookery/game"
	"github.com/domino14/rookery/move"
)

// chessBoard is what the generator needs from a position. *board.Board
// satisfies it.
type chessBoard interface {
	LegalMoves() []move.Move
	IsCapture(m move.Move) bool
	InCheck() bool
}

// Generator implements game.MoveGenerator for chess. It can be told to
// ignore some underpromotions, which almost never matter and widen the tree.
type Generator struct {
	promotions map[move.Piece]bool
}

// NewGenerator takes one of the config.Promotions* values. Unknown values
// search every promotion.
func NewGenerator(promotionsToSearch string) *Generator {
	g := &Generator{promotions: map[move.Piece]bool{move.Queen: true}}
	switch promotionsToSearch {
	case config.PromotionsQueenOnly:
	case config.PromotionsQueenAndKnight:
		g.promotions[move.Knight] = true
	default:
		g.promotions[move.Knight] = true
		g.promotions[move.Bishop] = true
		g.promotions[move.Rook] = true
	}
	return g
}

func asChessBoard(b game.Board) chessBoard {
	cb, ok := b.(chessBoard)
	if !ok {
		panic("movegen: board does not hold a chess position")
	}
	return cb
}

// GenerateMoves returns the legal moves. Without quiet moves only captures
// and promotions are returned.
func (g *Generator) GenerateMoves(b game.Board, includeQuietMoves bool) []move.Move {
	cb := asChessBoard(b)
	return lo.Filter(cb.LegalMoves(), func(m move.Move, _ int) bool {
		if m.IsPromotion() {
			return g.promotions[m.PromotionPiece()]
		}
		return includeQuietMoves || cb.IsCapture(m)
	})
}

func (g *Generator) InCheck(b game.Board) bool {
	return asChessBoard(b).InCheck()
}
