package negamax

import "fmt"

const (
	ImmediateMateScore = 100000
	PositiveInfinity   = 9999999
	NegativeInfinity   = -PositiveInfinity
	// MaxMateDepth bounds how far from the root a mate can be and still be
	// recognized by its score.
	MaxMateDepth = 1000
	// MaxDepth is the deepest iteration the solver will start. The table
	// keeps depths in a byte.
	MaxDepth = 255
)

func IsMateScore(score int) bool {
	return abs(score) > ImmediateMateScore-MaxMateDepth
}

// NumPlyToMateFromScore is only meaningful for mate scores.
func NumPlyToMateFromScore(score int) int {
	return ImmediateMateScore - abs(score)
}

// MateText describes a mate score found for the side to move, e.g.
// "White can mate in 2 moves". It returns "" for other scores.
func MateText(score int, whiteToMove bool) string {
	if !IsMateScore(score) {
		return ""
	}
	numPly := NumPlyToMateFromScore(score)
	numMoves := (numPly + 1) / 2
	side := "White"
	if (score < 0) == whiteToMove {
		side = "Black"
	}
	plural := ""
	if numMoves != 1 {
		plural = "s"
	}
	return fmt.Sprintf("%s can mate in %d move%s", side, numMoves, plural)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Mate scores count plies from the root. In the table they are kept
// relative to the node that stored them, so that a probe from another ply
// sees the right distance.
func scoreForStorage(score, plyFromRoot int) int {
	if !IsMateScore(score) {
		return score
	}
	if score > 0 {
		return score + plyFromRoot
	}
	return score - plyFromRoot
}

func scoreFromStorage(score, plyFromRoot int) int {
	if !IsMateScore(score) {
		return score
	}
	if score > 0 {
		return score - plyFromRoot
	}
	return score + plyFromRoot
}
