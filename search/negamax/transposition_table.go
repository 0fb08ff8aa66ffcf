package negamax

import (
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/rookery/move"
)

const (
	TTExact = 0x01
	TTLower = 0x02
	TTUpper = 0x03
)

// DefaultTableEntries is the capacity of a table sized without a memory
// budget, and the smallest table NewTranspositionTableFromMemory will make.
const DefaultTableEntries = 64000

const entrySize = 16

const generationMask = (1 << 6) - 1

// 16 bytes (entrySize)
type TableEntry struct {
	key   uint64
	score int32
	play  move.Move
	depth uint8
	// flag in the top two bits, search generation in the bottom six.
	flagAndGen uint8
}

func (t TableEntry) flag() uint8 {
	return t.flagAndGen >> 6
}

func (t TableEntry) generation() uint8 {
	return t.flagAndGen & generationMask
}

func (t TableEntry) valid() bool {
	// a table flag is 1, 2, or 3.
	return t.flag() != 0
}

func (t TableEntry) Move() move.Move {
	return t.play
}

func (t TableEntry) Depth() int {
	return int(t.depth)
}

func (t TableEntry) Flag() uint8 {
	return t.flag()
}

// Score is the stored score, still relative to the node that stored it.
func (t TableEntry) Score() int {
	return int(t.score)
}

// TranspositionTable is a fixed-size cache of search results keyed by
// position signature. It is owned by one Solver and is not safe for
// concurrent searches.
type TranspositionTable struct {
	table      []TableEntry
	size       uint64
	generation uint8

	created    atomic.Uint64
	lookups    atomic.Uint64
	hits       atomic.Uint64
	collisions atomic.Uint64
}

// NewTranspositionTable makes a table with room for capacity entries.
func NewTranspositionTable(capacity int) *TranspositionTable {
	if capacity < 1 {
		capacity = 1
	}
	log.Debug().Int("num-elems", capacity).
		Int("estimated-total-memory-bytes", capacity*entrySize).
		Msg("transposition-table-size")
	return &TranspositionTable{
		table: make([]TableEntry, capacity),
		size:  uint64(capacity),
	}
}

// NewTranspositionTableFromMemory sizes the table to a fraction of the
// system's memory.
func NewTranspositionTableFromMemory(fractionOfMemory float64) *TranspositionTable {
	totalMem := memory.TotalMemory()
	desiredNElems := int(fractionOfMemory * (float64(totalMem) / float64(entrySize)))
	numElems := max(desiredNElems, DefaultTableEntries)

	log.Info().Int("num-elems", numElems).
		Int("desired-num-elems", desiredNElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("transposition-table-size")
	return NewTranspositionTable(numElems)
}

func (t *TranspositionTable) Capacity() int {
	return len(t.table)
}

// Lookup returns the stored value for key if the entry was searched at
// least depth plies deep and its bound settles the [alpha, beta] window.
// Mate scores come back relative to plyFromRoot.
func (t *TranspositionTable) Lookup(key uint64, depth, plyFromRoot, alpha, beta int) (int, bool) {
	t.lookups.Add(1)
	e := &t.table[key%t.size]
	if !e.valid() {
		return 0, false
	}
	if e.key != key {
		// There is another unrelated position in this slot.
		t.collisions.Add(1)
		return 0, false
	}
	if int(e.depth) < depth {
		return 0, false
	}
	score := scoreFromStorage(int(e.score), plyFromRoot)
	switch e.flag() {
	case TTExact:
	case TTLower:
		if score < beta {
			return 0, false
		}
	case TTUpper:
		if score > alpha {
			return 0, false
		}
	}
	t.hits.Add(1)
	return score, true
}

// Entry returns the raw entry stored for key, regardless of depth.
func (t *TranspositionTable) Entry(key uint64) (TableEntry, bool) {
	e := t.table[key%t.size]
	if !e.valid() || e.key != key {
		return TableEntry{}, false
	}
	return e, true
}

// Store records a search result. An entry for another position is only
// evicted if it was made in an earlier search or was searched no deeper
// than this one. An entry for the same position is always replaced.
func (t *TranspositionTable) Store(key uint64, depth, plyFromRoot, value int, flag uint8, m move.Move) {
	idx := key % t.size
	old := &t.table[idx]
	if old.valid() && old.key != key && old.generation() == t.generation &&
		int(old.depth) > depth {
		return
	}
	depth = min(max(depth, 0), MaxDepth)
	t.table[idx] = TableEntry{
		key:        key,
		score:      int32(scoreForStorage(value, plyFromRoot)),
		play:       m,
		depth:      uint8(depth),
		flagAndGen: flag<<6 | t.generation,
	}
	t.created.Add(1)
}

// NewSearch marks the entries stored so far as belonging to an older
// search, so that deeper entries from it can be evicted.
func (t *TranspositionTable) NewSearch() {
	t.generation = (t.generation + 1) & generationMask
}

func (t *TranspositionTable) Clear() {
	clear(t.table)
	t.generation = 0
	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.collisions.Store(0)
	log.Debug().Int("num-elems", len(t.table)).Msg("transposition-table-cleared")
}

// TableStats is a snapshot of the table's counters.
type TableStats struct {
	Created    uint64
	Lookups    uint64
	Hits       uint64
	Collisions uint64
}

func (t *TranspositionTable) Stats() TableStats {
	return TableStats{
		Created:    t.created.Load(),
		Lookups:    t.lookups.Load(),
		Hits:       t.hits.Load(),
		Collisions: t.collisions.Load(),
	}
}
