package book

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

const startKey = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -"

const testBook = `
positions:
  - fen: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
    moves:
      - {move: e2e4, weight: 3}
      - {move: d2d4, weight: 1}
  - fen: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3"
    moves:
      - {move: c7c5, weight: 5}
`

func TestParse(t *testing.T) {
	is := is.New(t)
	b, err := Parse(strings.NewReader(testBook))
	is.NoErr(err)
	is.Equal(b.NumPositions(), 2)
	// counters don't matter
	is.True(b.HasPosition(startKey))
	is.True(b.HasPosition(startKey + " 3 7"))
	is.True(!b.HasPosition("8/8/8/8/8/8/8/K6k w - -"))
	is.Equal(len(b.Moves(startKey)), 2)
}

func TestRandomMoveWeighted(t *testing.T) {
	is := is.New(t)
	b, err := Parse(strings.NewReader(testBook))
	is.NoErr(err)

	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		m, err := b.RandomMoveWeighted(startKey)
		is.NoErr(err)
		counts[m]++
	}
	is.Equal(len(counts), 2)
	// 3:1 weighting, with plenty of slack.
	is.True(counts["e2e4"] > counts["d2d4"])

	only, err := b.RandomMoveWeighted("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	is.NoErr(err)
	is.Equal(only, "c7c5")

	_, err = b.RandomMoveWeighted("8/8/8/8/8/8/8/K6k w - -")
	is.True(errors.Is(err, ErrBookPositionNotFound))
}

func TestAddMergesWeights(t *testing.T) {
	is := is.New(t)
	b := New()
	b.Add(startKey, "e2e4", 1)
	b.Add(startKey, "e2e4", 2)
	b.Add(startKey, "g1f3", 0)
	moves := b.Moves(startKey)
	is.Equal(len(moves), 1)
	is.Equal(moves[0], BookMove{Move: "e2e4", Weight: 3})
}

func TestParseErrors(t *testing.T) {
	is := is.New(t)
	_, err := Parse(strings.NewReader("positions:\n  - moves: [{move: e2e4, weight: 1}]\n"))
	is.True(err != nil)
	_, err = Parse(strings.NewReader("positions:\n  - fen: \"" + startKey + "\"\n    moves: [{move: e2e4, weight: 0}]\n"))
	is.True(err != nil)

	b, err := Parse(strings.NewReader(""))
	is.NoErr(err)
	is.Equal(b.NumPositions(), 0)
}

func TestLoadSampleBook(t *testing.T) {
	is := is.New(t)
	b, err := Load("../data/book.yaml")
	is.NoErr(err)
	is.True(b.HasPosition(startKey))
}
