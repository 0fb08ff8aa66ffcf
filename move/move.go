package move

import (
	"errors"
	"fmt"
)

// Move is a 16-bit representation of a chess move. It is made to be as small
// as possible so that it fits in a transposition table entry.
type Move uint16

// Schema:
// 6 bits for the destination square
// 6 bits for the origin square
// 4 bits for the special flag
//
// 15   11    7    3
//  FFFF ffff ffTT TTTT
//
// Squares are numbered a1=0, b1=1 ... h8=63. A move from a1 to a1 is never
// legal, so the all-zero value is free to act as the Invalid sentinel.

const (
	toMask   = 0x003F
	fromMask = 0x0FC0
	flagMask = 0xF000
)

// Invalid means "no move". It must never be applied to a board.
const Invalid Move = 0

type Flag uint8

const (
	FlagNone Flag = iota
	FlagEnPassant
	FlagCastle
	FlagPromoteKnight
	FlagPromoteBishop
	FlagPromoteRook
	FlagPromoteQueen
)

var ErrBadMoveString = errors.New("badly formatted move")

// New packs a move.
func New(from, to uint8, flag Flag) Move {
	return Move(uint16(to)&toMask | uint16(from)<<6&fromMask | uint16(flag)<<12&flagMask)
}

func (m Move) From() uint8 {
	return uint8((m & fromMask) >> 6)
}

func (m Move) To() uint8 {
	return uint8(m & toMask)
}

func (m Move) Flag() Flag {
	return Flag((m & flagMask) >> 12)
}

func (m Move) IsInvalid() bool {
	return m == Invalid
}

func (m Move) IsPromotion() bool {
	return m.Flag() >= FlagPromoteKnight
}

// PromotionPiece returns the piece a pawn turns into, or NoPiece.
func (m Move) PromotionPiece() Piece {
	switch m.Flag() {
	case FlagPromoteKnight:
		return Knight
	case FlagPromoteBishop:
		return Bishop
	case FlagPromoteRook:
		return Rook
	case FlagPromoteQueen:
		return Queen
	}
	return NoPiece
}

// PromotionFlag is the inverse of PromotionPiece.
func PromotionFlag(p Piece) Flag {
	switch p {
	case Knight:
		return FlagPromoteKnight
	case Bishop:
		return FlagPromoteBishop
	case Rook:
		return FlagPromoteRook
	case Queen:
		return FlagPromoteQueen
	}
	return FlagNone
}

// String returns the move in UCI long algebraic notation (e2e4, e7e8q).
func (m Move) String() string {
	if m.IsInvalid() {
		return "0000"
	}
	s := SquareName(m.From()) + SquareName(m.To())
	if m.IsPromotion() {
		s += m.PromotionPiece().Letter()
	}
	return s
}

// SquareName returns the algebraic name of a square index.
func SquareName(sq uint8) string {
	if sq > 63 {
		return "??"
	}
	return string([]byte{'a' + sq%8, '1' + sq/8})
}

// ParseSquare parses an algebraic square name such as "e4".
func ParseSquare(s string) (uint8, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return 0, fmt.Errorf("%w: square %q", ErrBadMoveString, s)
	}
	return (s[1]-'1')*8 + (s[0] - 'a'), nil
}

// ParseUCI splits a UCI move string into its squares and promotion piece.
// It cannot know about en passant or castling; the caller must match the
// result against the legal moves of a position to get a full Move.
func ParseUCI(s string) (from, to uint8, promote Piece, err error) {
	if len(s) != 4 && len(s) != 5 {
		return 0, 0, NoPiece, fmt.Errorf("%w: %q", ErrBadMoveString, s)
	}
	if from, err = ParseSquare(s[0:2]); err != nil {
		return
	}
	if to, err = ParseSquare(s[2:4]); err != nil {
		return
	}
	promote = NoPiece
	if len(s) == 5 {
		promote = PieceFromLetter(s[4])
		if promote == NoPiece || promote == Pawn || promote == King {
			return 0, 0, NoPiece, fmt.Errorf("%w: bad promotion in %q", ErrBadMoveString, s)
		}
	}
	return from, to, promote, nil
}
