// Package book is a weighted opening book keyed by position.
package book

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"
)

var ErrBookPositionNotFound = errors.New("position not in book")

// BookMove is a move in UCI notation. Weight is the relative number of
// times it was played; it must be positive.
type BookMove struct {
	Move   string `yaml:"move"`
	Weight int    `yaml:"weight"`
}

type bookPosition struct {
	FEN   string     `yaml:"fen"`
	Moves []BookMove `yaml:"moves"`
}

type bookFile struct {
	Positions []bookPosition `yaml:"positions"`
}

// Book maps positions to the moves played from them. Positions are looked
// up by their FEN without the move counters.
type Book struct {
	positions map[uint64][]BookMove
}

func New() *Book {
	return &Book{positions: make(map[uint64][]BookMove)}
}

func key(fen string) uint64 {
	fields := strings.Fields(fen)
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return xxhash.Sum64String(strings.Join(fields, " "))
}

// Add records a move from a position. Adding a move that is already there
// adds to its weight.
func (b *Book) Add(fen, uci string, weight int) {
	if weight <= 0 {
		return
	}
	k := key(fen)
	moves := b.positions[k]
	for i := range moves {
		if moves[i].Move == uci {
			moves[i].Weight += weight
			return
		}
	}
	b.positions[k] = append(moves, BookMove{Move: uci, Weight: weight})
}

func (b *Book) HasPosition(fen string) bool {
	_, ok := b.positions[key(fen)]
	return ok
}

// Moves returns the book moves for a position.
func (b *Book) Moves(fen string) []BookMove {
	return append([]BookMove(nil), b.positions[key(fen)]...)
}

func (b *Book) NumPositions() int {
	return len(b.positions)
}

// RandomMoveWeighted picks one of the book moves for a position, with
// probability proportional to its weight.
func (b *Book) RandomMoveWeighted(fen string) (string, error) {
	moves, ok := b.positions[key(fen)]
	if !ok || len(moves) == 0 {
		return "", ErrBookPositionNotFound
	}
	total := lo.SumBy(moves, func(m BookMove) int { return m.Weight })
	r := frand.Intn(total)
	for _, m := range moves {
		if r < m.Weight {
			return m.Move, nil
		}
		r -= m.Weight
	}
	return moves[len(moves)-1].Move, nil
}

// Parse reads a YAML book:
//
//	positions:
//	  - fen: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -"
//	    moves:
//	      - {move: e2e4, weight: 10}
func Parse(r io.Reader) (*Book, error) {
	var f bookFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding book: %w", err)
	}
	b := New()
	for _, p := range f.Positions {
		if p.FEN == "" {
			return nil, errors.New("book position with no fen")
		}
		for _, m := range p.Moves {
			if m.Weight <= 0 {
				return nil, fmt.Errorf("book move %s in %q: weight must be positive", m.Move, p.FEN)
			}
			b.Add(p.FEN, m.Move, m.Weight)
		}
	}
	return b, nil
}

func Load(path string) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Info().Str("path", path).Int("positions", b.NumPositions()).Msg("book-loaded")
	return b, nil
}
