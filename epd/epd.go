// Package epd reads test positions in Extended Position Description
// format: four FEN fields followed by semicolon-terminated operations.
//
//	r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - bm Bb5; id "Ruy Lopez";
package epd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/domino14/rookery/board"
)

type Record struct {
	// FEN is the position with "0 1" appended for the move counters.
	FEN string
	// Ops maps each opcode to its operand, with quotes removed.
	Ops map[string]string
}

// ID returns the id operation, if any.
func (r Record) ID() string {
	return r.Ops["id"]
}

// Parse reads every record in r. Files are ISO 8859-1 unless they are
// valid UTF-8.
func Parse(r io.Reader) ([]Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var reader io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		reader = transform.NewReader(reader, charmap.ISO8859_1.NewDecoder())
	}

	var records []Record
	scanner := bufio.NewScanner(reader)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

func parseLine(line string) (Record, error) {
	fields := strings.SplitN(line, " ", 5)
	if len(fields) < 4 {
		return Record{}, fmt.Errorf("%w: %q", board.ErrInvalidFEN, line)
	}
	fen := strings.Join(fields[:4], " ") + " 0 1"
	if _, err := board.FromFEN(fen); err != nil {
		return Record{}, err
	}
	rec := Record{FEN: fen, Ops: map[string]string{}}
	if len(fields) == 5 {
		for _, op := range splitOps(fields[4]) {
			code, operand, _ := strings.Cut(op, " ")
			rec.Ops[code] = strings.Trim(strings.TrimSpace(operand), `"`)
		}
	}
	return rec, nil
}

// splitOps splits on semicolons outside of quoted strings.
func splitOps(s string) []string {
	var ops []string
	var cur strings.Builder
	quoted := false
	for _, c := range s {
		switch {
		case c == '"':
			quoted = !quoted
			cur.WriteRune(c)
		case c == ';' && !quoted:
			if op := strings.TrimSpace(cur.String()); op != "" {
				ops = append(ops, op)
			}
			cur.Reset()
		default:
			cur.WriteRune(c)
		}
	}
	if op := strings.TrimSpace(cur.String()); op != "" {
		ops = append(ops, op)
	}
	return ops
}
