// Package game holds the contracts between the search and the rules of the
// game being played. The search never looks inside a position; it only
// mutates it, asks for moves and asks for an evaluation.
package game

import "github.com/domino14/rookery/move"

// Board is a mutable position. One search owns its Board exclusively for the
// search's duration: MakeMove and UnmakeMove are not safe for concurrent use,
// and every MakeMove must be undone by an UnmakeMove of the same move, in
// LIFO order.
type Board interface {
	// MakeMove applies a legal move. inSearch suppresses bookkeeping that
	// only matters for moves actually played in the game (the game record).
	MakeMove(m move.Move, inSearch bool)
	UnmakeMove(m move.Move, inSearch bool)
	// Signature is a 64-bit hash of the piece placement, side to move,
	// castling and en passant state. Collisions are possible.
	Signature() uint64
	WhiteToMove() bool
	// InRepetitionHistory reports whether sig is the signature of a position
	// that occurred earlier in the current line (game moves plus search
	// moves).
	InRepetitionHistory(sig uint64) bool
	// PieceAt returns the kind of piece on sq, or move.NoPiece.
	PieceAt(sq uint8) move.Piece
}

// MoveGenerator produces legal moves. The order of the returned moves does
// not matter. With includeQuietMoves false only captures and promotions are
// returned; that set must eventually become empty along any line so that
// quiescence search terminates.
type MoveGenerator interface {
	GenerateMoves(b Board, includeQuietMoves bool) []move.Move
	InCheck(b Board) bool
}

// Evaluator scores a position statically, from the point of view of the side
// to move.
type Evaluator interface {
	Evaluate(b Board) int
}
