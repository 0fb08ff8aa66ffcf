package epd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestParse(t *testing.T) {
	is := is.New(t)
	in := `# two positions
rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - id "start";

6k1/5ppp/8/8/8/8/8/R5K1 w - - bm Ra8#; id "back rank; mate";
`
	recs, err := Parse(strings.NewReader(in))
	is.NoErr(err)
	is.Equal(len(recs), 2)
	is.Equal(recs[0].FEN, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	is.Equal(recs[0].ID(), "start")
	is.Equal(recs[1].Ops["bm"], "Ra8#")
	is.Equal(recs[1].ID(), "back rank; mate")
}

func TestParseLatin1(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	buf.WriteString(`8/8/8/8/8/8/8/K6k w - - id "R`)
	buf.WriteByte(0xe9) // é in ISO 8859-1
	buf.WriteString(`ti";` + "\n")
	recs, err := Parse(&buf)
	is.NoErr(err)
	is.Equal(len(recs), 1)
	is.Equal(recs[0].ID(), "Réti")
}

func TestParseNoOps(t *testing.T) {
	is := is.New(t)
	recs, err := Parse(strings.NewReader("8/8/8/8/8/8/8/K6k b - -\n"))
	is.NoErr(err)
	is.Equal(len(recs), 1)
	is.Equal(len(recs[0].Ops), 0)
}

func TestParseBadFEN(t *testing.T) {
	is := is.New(t)
	_, err := Parse(strings.NewReader("8/8/8 w - -\n"))
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "line 1"))
}
