package negamax

import (
	"github.com/domino14/rookery/move"
)

// negamax returns the score of the current position for the side to move.
// The board is left as it was found.
func (s *Solver) negamax(depth, plyFromRoot, alpha, beta int) int {
	if s.aborted.Load() {
		return 0
	}
	s.nodes.Add(1)

	key := s.board.Signature()
	if plyFromRoot > 0 {
		// Any earlier occurrence counts as a draw.
		if s.board.InRepetitionHistory(key) {
			return 0
		}
		// A mate found closer to the root beats anything we can find here.
		alpha = max(alpha, -ImmediateMateScore+plyFromRoot)
		beta = min(beta, ImmediateMateScore-plyFromRoot)
		if alpha >= beta {
			return alpha
		}
	}

	ttMove := move.Invalid
	if s.settings.UseTranspositionTable {
		if val, ok := s.ttable.Lookup(key, depth, plyFromRoot, alpha, beta); ok {
			entry, _ := s.ttable.Entry(key)
			if plyFromRoot > 0 || s.isRootMove(entry.Move()) {
				s.ttHits.Add(1)
				if plyFromRoot == 0 {
					s.bestMoveThisIteration = entry.Move()
					s.bestEvalThisIteration = val
				}
				return val
			}
		}
		if entry, ok := s.ttable.Entry(key); ok {
			ttMove = entry.Move()
		}
	}

	if depth == 0 {
		return s.quiescence(alpha, beta)
	}

	moves := s.movegen.GenerateMoves(s.board, true)
	if len(moves) == 0 {
		if s.movegen.InCheck(s.board) {
			return -(ImmediateMateScore - plyFromRoot)
		}
		return 0
	}
	s.orderer.Order(s.board, moves, ttMove)

	flag := uint8(TTUpper)
	bestMoveInPosition := move.Invalid
	for _, m := range moves {
		s.board.MakeMove(m, true)
		eval := -s.negamax(depth-1, plyFromRoot+1, -beta, -alpha)
		s.board.UnmakeMove(m, true)
		if s.aborted.Load() {
			// eval came from an unfinished subtree; don't let it into the
			// table.
			return 0
		}

		if eval >= beta {
			s.store(key, depth, plyFromRoot, beta, TTLower, m)
			s.cutoffs.Add(1)
			return beta
		}
		if eval > alpha {
			flag = TTExact
			bestMoveInPosition = m
			alpha = eval
			if plyFromRoot == 0 {
				s.bestMoveThisIteration = m
				s.bestEvalThisIteration = eval
			}
		}
	}

	s.store(key, depth, plyFromRoot, alpha, flag, bestMoveInPosition)
	return alpha
}

func (s *Solver) store(key uint64, depth, plyFromRoot, value int, flag uint8, m move.Move) {
	if !s.settings.UseTranspositionTable {
		return
	}
	s.ttable.Store(key, depth, plyFromRoot, value, flag, m)
}

// isRootMove guards against a signature collision handing the root a move
// that isn't legal here.
func (s *Solver) isRootMove(m move.Move) bool {
	if m.IsInvalid() {
		return false
	}
	for _, legal := range s.movegen.GenerateMoves(s.board, true) {
		if legal == m {
			return true
		}
	}
	return false
}
