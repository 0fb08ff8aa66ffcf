package board

import (
	"fmt"
	"strings"

	"github.com/domino14/rookery/move"
)

// ToDisplayText renders the board from White's side, rank 8 at the top.
func (b *Board) ToDisplayText() string {
	var sb strings.Builder
	sb.WriteString("\n   a b c d e f g h\n")
	sb.WriteString("   " + strings.Repeat("-", 16) + "\n")
	for rank := 7; rank >= 0; rank-- {
		sb.WriteString(fmt.Sprintf("%d |", rank+1))
		for file := 0; file < 8; file++ {
			sq := uint8(rank*8 + file)
			p := b.PieceAt(sq)
			if p == move.NoPiece {
				sb.WriteString(". ")
				continue
			}
			l := p.Letter()
			if b.IsWhiteAt(sq) {
				l = strings.ToUpper(l)
			}
			sb.WriteString(l + " ")
		}
		sb.WriteString("|\n")
	}
	sb.WriteString("   " + strings.Repeat("-", 16) + "\n")
	side := "black"
	if b.WhiteToMove() {
		side = "white"
	}
	sb.WriteString(fmt.Sprintf("%s to move\n%s\n", side, b.FEN()))
	return sb.String()
}
