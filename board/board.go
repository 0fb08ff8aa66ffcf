// Package board adapts the dragontoothmg chess position to the game.Board
// contract used by the search.
package board

import (
	"errors"
	"fmt"
	"strings"

	dm "github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog/log"

	"github.com/domino14/rookery/move"
)

const StartPosition = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrInvalidFEN  = errors.New("invalid FEN")
	ErrIllegalMove = errors.New("illegal move")
)

// Board is a chess position plus the line of moves that led to it.
//
// A Board has a single owner. MakeMove/UnmakeMove mutate it in place and
// are not safe for concurrent use; a search and anything else that touches
// the Board must be serialized by the host.
type Board struct {
	pos  dm.Board
	undo []func()
	// signatures of every position preceding the current one in this line,
	// oldest first, with a count per signature for quick lookups.
	history []uint64
	seen    map[uint64]int
	played  []move.Move

	startFEN string
	startPly int
}

// New returns a board set up at the standard starting position.
func New() *Board {
	b, err := FromFEN(StartPosition)
	if err != nil {
		// The start position is a constant; this can't fail.
		panic(err)
	}
	return b
}

// FromFEN returns a board set up at the given FEN. The halfmove and fullmove
// fields may be omitted.
func FromFEN(fen string) (*Board, error) {
	b := &Board{}
	if err := b.SetFEN(fen); err != nil {
		return nil, err
	}
	return b, nil
}

// SetFEN resets the board to the given position and forgets the line that
// led to the old one.
func (b *Board) SetFEN(fen string) (err error) {
	fen, err = normalizeFEN(fen)
	if err != nil {
		return err
	}
	defer func() {
		// dragontoothmg doesn't validate its input; it indexes its way
		// through the string and can panic on garbage.
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidFEN, r)
		}
	}()
	pos := dm.ParseFen(fen)
	b.pos = pos
	b.undo = b.undo[:0]
	b.history = b.history[:0]
	b.seen = make(map[uint64]int)
	b.played = b.played[:0]
	b.startFEN = fen
	b.startPly = int(pos.Fullmoveno-1) * 2
	if !pos.Wtomove {
		b.startPly++
	}
	log.Debug().Str("fen", fen).Msg("board-set")
	return nil
}

func normalizeFEN(fen string) (string, error) {
	fields := strings.Fields(fen)
	if len(fields) == 4 {
		fields = append(fields, "0", "1")
	}
	if len(fields) != 6 {
		return "", fmt.Errorf("%w: expected 4 or 6 fields, got %d", ErrInvalidFEN, len(fields))
	}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return "", fmt.Errorf("%w: expected 8 ranks", ErrInvalidFEN)
	}
	for _, r := range ranks {
		width := 0
		for _, c := range r {
			switch {
			case c >= '1' && c <= '8':
				width += int(c - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", c):
				width++
			default:
				return "", fmt.Errorf("%w: bad character %q", ErrInvalidFEN, c)
			}
		}
		if width != 8 {
			return "", fmt.Errorf("%w: rank %q is not 8 squares wide", ErrInvalidFEN, r)
		}
	}
	if strings.Count(fields[0], "K") != 1 || strings.Count(fields[0], "k") != 1 {
		return "", fmt.Errorf("%w: each side needs exactly one king", ErrInvalidFEN)
	}
	if fields[1] != "w" && fields[1] != "b" {
		return "", fmt.Errorf("%w: side to move must be w or b", ErrInvalidFEN)
	}
	return strings.Join(fields, " "), nil
}

func toDragontooth(m move.Move) dm.Move {
	return dm.Move(uint16(m.To()) | uint16(m.From())<<6 | uint16(m.PromotionPiece())<<12)
}

// MakeMove applies a legal move. Moves made outside of search are recorded
// in the game record.
func (b *Board) MakeMove(m move.Move, inSearch bool) {
	if m.IsInvalid() {
		panic("board: attempt to apply the invalid move")
	}
	sig := b.pos.Hash()
	b.history = append(b.history, sig)
	b.seen[sig]++
	b.undo = append(b.undo, b.pos.Apply(toDragontooth(m)))
	if !inSearch {
		b.played = append(b.played, m)
	}
}

// UnmakeMove takes back the last move made. m must be that move.
func (b *Board) UnmakeMove(m move.Move, inSearch bool) {
	n := len(b.undo)
	if n == 0 {
		panic("board: unmake with no move made")
	}
	b.undo[n-1]()
	b.undo = b.undo[:n-1]

	sig := b.history[len(b.history)-1]
	b.history = b.history[:len(b.history)-1]
	if b.seen[sig] <= 1 {
		delete(b.seen, sig)
	} else {
		b.seen[sig]--
	}
	if !inSearch && len(b.played) > 0 {
		b.played = b.played[:len(b.played)-1]
	}
}

func (b *Board) Signature() uint64 {
	return b.pos.Hash()
}

func (b *Board) WhiteToMove() bool {
	return b.pos.Wtomove
}

func (b *Board) InRepetitionHistory(sig uint64) bool {
	return b.seen[sig] > 0
}

// PieceAt returns the kind of piece on sq, regardless of its color.
func (b *Board) PieceAt(sq uint8) move.Piece {
	mask := uint64(1) << sq
	if b.pos.White.All&mask != 0 {
		return pieceOn(&b.pos.White, mask)
	}
	if b.pos.Black.All&mask != 0 {
		return pieceOn(&b.pos.Black, mask)
	}
	return move.NoPiece
}

// IsWhiteAt reports whether a white piece stands on sq.
func (b *Board) IsWhiteAt(sq uint8) bool {
	return b.pos.White.All&(uint64(1)<<sq) != 0
}

func pieceOn(bb *dm.Bitboards, mask uint64) move.Piece {
	switch {
	case bb.Pawns&mask != 0:
		return move.Pawn
	case bb.Knights&mask != 0:
		return move.Knight
	case bb.Bishops&mask != 0:
		return move.Bishop
	case bb.Rooks&mask != 0:
		return move.Rook
	case bb.Queens&mask != 0:
		return move.Queen
	case bb.Kings&mask != 0:
		return move.King
	}
	return move.NoPiece
}

// IsCapture reports whether m takes a piece in the current position.
func (b *Board) IsCapture(m move.Move) bool {
	return m.Flag() == move.FlagEnPassant || b.PieceAt(m.To()) != move.NoPiece
}

// LegalMoves returns every legal move in the position.
func (b *Board) LegalMoves() []move.Move {
	dmoves := b.pos.GenerateLegalMoves()
	moves := make([]move.Move, len(dmoves))
	for i := range dmoves {
		moves[i] = b.fromDragontooth(dmoves[i])
	}
	return moves
}

func (b *Board) fromDragontooth(dmv dm.Move) move.Move {
	from, to := dmv.From(), dmv.To()
	flag := move.FlagNone
	if promo := dmv.Promote(); promo != dm.Nothing {
		flag = move.PromotionFlag(move.Piece(promo))
	} else {
		switch b.PieceAt(from) {
		case move.King:
			if from-to == 2 || to-from == 2 {
				flag = move.FlagCastle
			}
		case move.Pawn:
			if from%8 != to%8 && b.PieceAt(to) == move.NoPiece {
				flag = move.FlagEnPassant
			}
		}
	}
	return move.New(from, to, flag)
}

// InCheck reports whether the side to move is in check.
func (b *Board) InCheck() bool {
	return b.pos.OurKingInCheck()
}

// FindMove matches a UCI move string against the legal moves.
func (b *Board) FindMove(uci string) (move.Move, error) {
	from, to, promo, err := move.ParseUCI(uci)
	if err != nil {
		return move.Invalid, err
	}
	for _, m := range b.LegalMoves() {
		if m.From() == from && m.To() == to && m.PromotionPiece() == promo {
			return m, nil
		}
	}
	return move.Invalid, fmt.Errorf("%w: %s", ErrIllegalMove, uci)
}

// Play makes a game move given in UCI notation.
func (b *Board) Play(uci string) error {
	m, err := b.FindMove(uci)
	if err != nil {
		return err
	}
	b.MakeMove(m, false)
	return nil
}

// TakeBack undoes the last game move, if any.
func (b *Board) TakeBack() bool {
	if len(b.played) == 0 {
		return false
	}
	b.UnmakeMove(b.played[len(b.played)-1], false)
	return true
}

// GamePly is the number of half-moves played since the start of the game,
// counting those implied by the starting FEN.
func (b *Board) GamePly() int {
	return b.startPly + len(b.played)
}

// Played returns the game moves made since the position was set.
func (b *Board) Played() []move.Move {
	return append([]move.Move(nil), b.played...)
}

func (b *Board) FEN() string {
	return b.pos.ToFen()
}

// PositionKey is the FEN without the move counters. Positions that differ
// only by their counters share a key.
func (b *Board) PositionKey() string {
	fields := strings.Fields(b.pos.ToFen())
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return strings.Join(fields, " ")
}

// Raw exposes the underlying dragontoothmg position for evaluation. Callers
// must not mutate it.
func (b *Board) Raw() *dm.Board {
	return &b.pos
}
