package negamax

import (
	"sort"

	"github.com/domino14/rookery/game"
	"github.com/domino14/rookery/move"
)

// MoveOrderer sorts moves in place so the most promising are searched
// first. The order only affects how much gets pruned, never the result.
type MoveOrderer interface {
	Order(b game.Board, moves []move.Move, ttMove move.Move)
}

const (
	hashMoveOffset = 1 << 30
	tacticalOffset = 1 << 20
)

// Indexed by move.Piece. The king's value only matters as an attacker.
var orderingPieceValues = [7]int{0, 100, 300, 320, 500, 900, 1000}

// MVVLVAOrderer puts the table move first, then captures and promotions by
// most valuable victim / least valuable attacker, then quiet moves in the
// order they were generated.
type MVVLVAOrderer struct {
	scores []int
}

type scoredMoves struct {
	moves  []move.Move
	scores []int
}

func (s scoredMoves) Len() int           { return len(s.moves) }
func (s scoredMoves) Less(i, j int) bool { return s.scores[i] > s.scores[j] }
func (s scoredMoves) Swap(i, j int) {
	s.moves[i], s.moves[j] = s.moves[j], s.moves[i]
	s.scores[i], s.scores[j] = s.scores[j], s.scores[i]
}

func (o *MVVLVAOrderer) Order(b game.Board, moves []move.Move, ttMove move.Move) {
	if cap(o.scores) < len(moves) {
		o.scores = make([]int, len(moves))
	}
	scores := o.scores[:len(moves)]
	for i, m := range moves {
		scores[i] = moveScore(b, m, ttMove)
	}
	sort.Stable(scoredMoves{moves: moves, scores: scores})
}

func moveScore(b game.Board, m, ttMove move.Move) int {
	if !ttMove.IsInvalid() && m == ttMove {
		return hashMoveOffset
	}
	victim := b.PieceAt(m.To())
	if m.Flag() == move.FlagEnPassant {
		victim = move.Pawn
	}
	if victim == move.NoPiece && !m.IsPromotion() {
		return 0
	}
	score := tacticalOffset + orderingPieceValues[victim] - orderingPieceValues[b.PieceAt(m.From())]
	if m.IsPromotion() {
		score += orderingPieceValues[m.PromotionPiece()]
	}
	return score
}
