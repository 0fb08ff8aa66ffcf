package move

// Piece is a colorless piece kind. The numbering matches dragontoothmg.
type Piece uint8

const (
	NoPiece Piece = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceLetters = [...]string{"", "p", "n", "b", "r", "q", "k"}

// Letter returns the lowercase letter for the piece, or "" for NoPiece.
func (p Piece) Letter() string {
	if int(p) >= len(pieceLetters) {
		return ""
	}
	return pieceLetters[p]
}

func (p Piece) String() string {
	switch p {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return "none"
}

func PieceFromLetter(c byte) Piece {
	switch c {
	case 'p', 'P':
		return Pawn
	case 'n', 'N':
		return Knight
	case 'b', 'B':
		return Bishop
	case 'r', 'R':
		return Rook
	case 'q', 'Q':
		return Queen
	case 'k', 'K':
		return King
	}
	return NoPiece
}
