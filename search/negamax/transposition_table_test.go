package negamax

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/rookery/move"
)

func TestTTableEntry(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(1024)
	m := move.New(12, 28, move.FlagNone)
	tt.Store(9409641586937047728, 23, 0, 12, TTUpper, m)

	te, ok := tt.Entry(9409641586937047728)
	is.True(ok)
	is.True(te.valid())
	is.Equal(te.Depth(), 23)
	is.Equal(te.Flag(), uint8(TTUpper))
	is.Equal(te.Score(), 12)
	is.Equal(te.Move(), m)

	// Same slot, other key: a collision.
	other := uint64(9409641586937047728 + 1024)
	_, ok = tt.Lookup(other, 1, 0, NegativeInfinity, PositiveInfinity)
	is.True(!ok)
	is.Equal(tt.Stats().Collisions, uint64(1))

	// Empty slot: a plain miss.
	_, ok = tt.Lookup(9409641586937047728+1, 1, 0, NegativeInfinity, PositiveInfinity)
	is.True(!ok)
	is.Equal(tt.Stats().Lookups, uint64(2))
	is.Equal(tt.Stats().Collisions, uint64(1))
}

func TestLookupBounds(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(64)

	tt.Store(1, 4, 0, 50, TTExact, move.Invalid)
	v, ok := tt.Lookup(1, 4, 0, -10, 10)
	is.True(ok)
	is.Equal(v, 50)
	// Too shallow for the request.
	_, ok = tt.Lookup(1, 5, 0, -10, 10)
	is.True(!ok)

	tt.Store(2, 4, 0, 50, TTLower, move.Invalid)
	_, ok = tt.Lookup(2, 3, 0, 0, 60)
	is.True(!ok)
	v, ok = tt.Lookup(2, 3, 0, 0, 40)
	is.True(ok)
	is.Equal(v, 50)

	tt.Store(3, 4, 0, -20, TTUpper, move.Invalid)
	_, ok = tt.Lookup(3, 4, 0, -30, 0)
	is.True(!ok)
	v, ok = tt.Lookup(3, 4, 0, -10, 0)
	is.True(ok)
	is.Equal(v, -20)
	is.Equal(tt.Stats().Hits, uint64(3))
}

func TestMateScoreRoundTrip(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(64)

	// Stored at ply 3: we mate 2 plies later, at ply 5.
	stored := ImmediateMateScore - 5
	tt.Store(7, 6, 3, stored, TTExact, move.Invalid)
	e, _ := tt.Entry(7)
	is.Equal(e.Score(), ImmediateMateScore-2)

	// Probed at ply 1 the mate is 3 plies away.
	v, ok := tt.Lookup(7, 6, 1, NegativeInfinity, PositiveInfinity)
	is.True(ok)
	is.Equal(v, ImmediateMateScore-3)
	is.Equal(NumPlyToMateFromScore(v), 3)

	// Being mated works the same way.
	tt.Store(8, 6, 4, -(ImmediateMateScore - 6), TTExact, move.Invalid)
	v, ok = tt.Lookup(8, 2, 0, NegativeInfinity, PositiveInfinity)
	is.True(ok)
	is.Equal(v, -(ImmediateMateScore - 2))

	// Ordinary scores aren't touched.
	tt.Store(9, 1, 10, 345, TTExact, move.Invalid)
	v, _ = tt.Lookup(9, 1, 2, NegativeInfinity, PositiveInfinity)
	is.Equal(v, 345)
}

func TestReplacementPolicy(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(16)

	// 3 and 19 share a slot.
	tt.Store(3, 8, 0, 100, TTExact, move.Invalid)
	tt.Store(19, 2, 0, 200, TTExact, move.Invalid)
	_, ok := tt.Entry(19)
	is.True(!ok)
	e, ok := tt.Entry(3)
	is.True(ok)
	is.Equal(e.Score(), 100)

	// At least as deep replaces.
	tt.Store(19, 8, 0, 200, TTExact, move.Invalid)
	_, ok = tt.Entry(3)
	is.True(!ok)

	// The same key is always replaced.
	tt.Store(19, 1, 0, 300, TTExact, move.Invalid)
	e, _ = tt.Entry(19)
	is.Equal(e.Score(), 300)
	is.Equal(e.Depth(), 1)

	// Entries from an older search give way.
	tt.Store(35, 9, 0, 400, TTExact, move.Invalid)
	tt.NewSearch()
	tt.Store(3, 1, 0, 500, TTExact, move.Invalid)
	e, ok = tt.Entry(3)
	is.True(ok)
	is.Equal(e.Score(), 500)
}

func TestClear(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(16)
	tt.Store(5, 3, 0, 1, TTExact, move.Invalid)
	tt.Clear()
	_, ok := tt.Entry(5)
	is.True(!ok)
	is.Equal(tt.Stats(), TableStats{})
	is.Equal(tt.Capacity(), 16)
}

func TestMateText(t *testing.T) {
	is := is.New(t)
	is.Equal(MateText(ImmediateMateScore-1, true), "White can mate in 1 move")
	is.Equal(MateText(ImmediateMateScore-3, false), "Black can mate in 2 moves")
	is.Equal(MateText(-(ImmediateMateScore - 2), true), "Black can mate in 1 move")
	is.Equal(MateText(250, true), "")
	is.True(IsMateScore(ImmediateMateScore - MaxMateDepth + 1))
	is.True(!IsMateScore(ImmediateMateScore - MaxMateDepth))
}
