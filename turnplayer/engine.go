package turnplayer

import (
	"github.com/domino14/rookery/board"
	"github.com/domino14/rookery/config"
	"github.com/domino14/rookery/evaluation"
	"github.com/domino14/rookery/movegen"
	"github.com/domino14/rookery/search/negamax"
)

// NewTranspositionTable sizes a table from the config: a fraction of
// system memory if tt-memory-fraction is set, otherwise tt-entries.
func NewTranspositionTable(cfg *config.Config) *negamax.TranspositionTable {
	if f := cfg.GetFloat64(config.ConfigTTMemoryFraction); f > 0 {
		return negamax.NewTranspositionTableFromMemory(f)
	}
	return negamax.NewTranspositionTable(cfg.GetInt(config.ConfigTTEntries))
}

// NewSolver wires a search to a chess board with the configured move
// generator and evaluator. If tt is nil a table is sized from the config.
func NewSolver(b *board.Board, cfg *config.Config, tt *negamax.TranspositionTable) *negamax.Solver {
	if tt == nil {
		tt = NewTranspositionTable(cfg)
	}
	mg := movegen.NewGenerator(cfg.GetString(config.ConfigPromotionsToSearch))
	return negamax.NewSolver(b, mg, evaluation.NewMaterialEvaluator(), tt)
}
