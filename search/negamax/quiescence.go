package negamax

import "github.com/domino14/rookery/move"

// quiescence keeps searching captures and promotions past the horizon until
// the position is quiet. The move generator guarantees that set runs out.
func (s *Solver) quiescence(alpha, beta int) int {
	if s.aborted.Load() {
		return 0
	}
	s.qnodes.Add(1)

	// Nobody has to capture, so standing pat is always an option.
	eval := s.evaluator.Evaluate(s.board)
	s.evaluated.Add(1)
	if eval >= beta {
		return beta
	}
	if eval > alpha {
		alpha = eval
	}

	moves := s.movegen.GenerateMoves(s.board, false)
	s.orderer.Order(s.board, moves, move.Invalid)
	for _, m := range moves {
		s.board.MakeMove(m, true)
		eval = -s.quiescence(-beta, -alpha)
		s.board.UnmakeMove(m, true)
		if s.aborted.Load() {
			return 0
		}

		if eval >= beta {
			s.cutoffs.Add(1)
			return beta
		}
		if eval > alpha {
			alpha = eval
		}
	}
	return alpha
}
