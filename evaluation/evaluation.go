// Package evaluation scores chess positions statically.
package evaluation

import (
	"math/bits"

	dm "github.com/dylhunn/dragontoothmg"

	"github.com/domino14/rookery/game"
)

// Centipawn values, indexed by move.Piece.
var PieceValues = [7]int{0, 100, 320, 330, 500, 900, 0}

// Piece-square tables, written as seen from White with rank 8 on the first
// row. A white piece on square sq reads entry sq^56; a black piece reads sq.
var (
	pawnTable = [64]int{
		0, 0, 0, 0, 0, 0, 0, 0,
		50, 50, 50, 50, 50, 50, 50, 50,
		10, 10, 20, 30, 30, 20, 10, 10,
		5, 5, 10, 25, 25, 10, 5, 5,
		0, 0, 0, 20, 20, 0, 0, 0,
		5, -5, -10, 0, 0, -10, -5, 5,
		5, 10, 10, -20, -20, 10, 10, 5,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	knightTable = [64]int{
		-50, -40, -30, -30, -30, -30, -40, -50,
		-40, -20, 0, 0, 0, 0, -20, -40,
		-30, 0, 10, 15, 15, 10, 0, -30,
		-30, 5, 15, 20, 20, 15, 5, -30,
		-30, 0, 15, 20, 20, 15, 0, -30,
		-30, 5, 10, 15, 15, 10, 5, -30,
		-40, -20, 0, 5, 5, 0, -20, -40,
		-50, -40, -30, -30, -30, -30, -40, -50,
	}
	bishopTable = [64]int{
		-20, -10, -10, -10, -10, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 10, 10, 5, 0, -10,
		-10, 5, 5, 10, 10, 5, 5, -10,
		-10, 0, 10, 10, 10, 10, 0, -10,
		-10, 10, 10, 10, 10, 10, 10, -10,
		-10, 5, 0, 0, 0, 0, 5, -10,
		-20, -10, -10, -10, -10, -10, -10, -20,
	}
	rookTable = [64]int{
		0, 0, 0, 0, 0, 0, 0, 0,
		5, 10, 10, 10, 10, 10, 10, 5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		0, 0, 0, 5, 5, 0, 0, 0,
	}
	queenTable = [64]int{
		-20, -10, -10, -5, -5, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 5, 5, 5, 0, -10,
		-5, 0, 5, 5, 5, 5, 0, -5,
		0, 0, 5, 5, 5, 5, 0, -5,
		-10, 5, 5, 5, 5, 5, 0, -10,
		-10, 0, 5, 0, 0, 0, 0, -10,
		-20, -10, -10, -5, -5, -10, -10, -20,
	}
	kingMiddleTable = [64]int{
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-20, -30, -30, -40, -40, -30, -30, -20,
		-10, -20, -20, -20, -20, -20, -20, -10,
		20, 20, 0, 0, 0, 0, 20, 20,
		20, 30, 10, 0, 0, 10, 30, 20,
	}
	kingEndTable = [64]int{
		-50, -40, -30, -20, -20, -30, -40, -50,
		-30, -20, -10, 0, 0, -10, -20, -30,
		-30, -10, 20, 30, 30, 20, -10, -30,
		-30, -10, 30, 40, 40, 30, -10, -30,
		-30, -10, 30, 40, 40, 30, -10, -30,
		-30, -10, 20, 30, 30, 20, -10, -30,
		-30, -30, 0, 0, 0, 0, -30, -30,
		-50, -30, -30, -30, -30, -30, -30, -50,
	}
)

// endgameMaterial is the non-pawn, non-king material (both sides) at or
// below which the king switches to its endgame table.
var endgameMaterial = 2 * (PieceValues[5] + PieceValues[2])

type rawPositioner interface {
	Raw() *dm.Board
}

// MaterialEvaluator counts material and piece placement. It implements
// game.Evaluator.
type MaterialEvaluator struct{}

func NewMaterialEvaluator() *MaterialEvaluator {
	return &MaterialEvaluator{}
}

// Evaluate returns the score from the point of view of the side to move.
func (e *MaterialEvaluator) Evaluate(b game.Board) int {
	rp, ok := b.(rawPositioner)
	if !ok {
		panic("evaluation: board does not hold a chess position")
	}
	pos := rp.Raw()

	endgame := officerMaterial(&pos.White)+officerMaterial(&pos.Black) <= endgameMaterial
	score := sideScore(&pos.White, false, endgame) - sideScore(&pos.Black, true, endgame)
	if !pos.Wtomove {
		score = -score
	}
	return score
}

func officerMaterial(bb *dm.Bitboards) int {
	return bits.OnesCount64(bb.Knights)*PieceValues[2] +
		bits.OnesCount64(bb.Bishops)*PieceValues[3] +
		bits.OnesCount64(bb.Rooks)*PieceValues[4] +
		bits.OnesCount64(bb.Queens)*PieceValues[5]
}

func sideScore(bb *dm.Bitboards, black, endgame bool) int {
	kingTable := &kingMiddleTable
	if endgame {
		kingTable = &kingEndTable
	}
	return placed(bb.Pawns, PieceValues[1], &pawnTable, black) +
		placed(bb.Knights, PieceValues[2], &knightTable, black) +
		placed(bb.Bishops, PieceValues[3], &bishopTable, black) +
		placed(bb.Rooks, PieceValues[4], &rookTable, black) +
		placed(bb.Queens, PieceValues[5], &queenTable, black) +
		placed(bb.Kings, 0, kingTable, black)
}

func placed(set uint64, value int, table *[64]int, black bool) int {
	score := 0
	for x := set; x != 0; x &= x - 1 {
		sq := bits.TrailingZeros64(x)
		if !black {
			sq ^= 56
		}
		score += value + table[sq]
	}
	return score
}
