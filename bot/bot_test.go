package bot

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/rookery/board"
	"github.com/domino14/rookery/book"
	"github.com/domino14/rookery/config"
	"github.com/domino14/rookery/search/negamax"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func testBot(bk *book.Book) *Bot {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigTTEntries, 1<<14)
	cfg.Set(config.ConfigBookMoveDelayMillis, 0)
	cfg.Set(config.ConfigSearchTimeMillis, 2000)
	return NewBot(cfg, bk)
}

func TestRequestEncoding(t *testing.T) {
	req := &MoveRequest{
		FEN:            "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1",
		Moves:          []string{"a1a2", "g8h8"},
		Depth:          4,
		MoveTimeMillis: 1500,
	}
	data, err := req.Marshal()
	assert.NoError(t, err)
	got, err := UnmarshalMoveRequest(data)
	assert.NoError(t, err)
	assert.Equal(t, req, got)

	// A request with nothing set is the start position at default limits.
	data, err = (&MoveRequest{}).Marshal()
	assert.NoError(t, err)
	got, err = UnmarshalMoveRequest(data)
	assert.NoError(t, err)
	assert.Equal(t, "", got.FEN)
	assert.Empty(t, got.Moves)
}

func TestHandleMate(t *testing.T) {
	is := is.New(t)
	bot := testBot(nil)
	req := &MoveRequest{FEN: "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1"}
	data, err := req.Marshal()
	is.NoErr(err)

	resp, err := UnmarshalMoveResponse(bot.handle(context.Background(), data))
	is.NoErr(err)
	is.Equal(resp.Error, "")
	is.Equal(resp.Move, "a1a8")
	is.Equal(resp.Eval, negamax.ImmediateMateScore-1)
	is.Equal(resp.Mate, "White can mate in 1 move")
}

func TestHandleErrors(t *testing.T) {
	is := is.New(t)
	bot := testBot(nil)

	resp, err := UnmarshalMoveResponse(bot.handle(context.Background(), []byte("not a proto")))
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.Error, "could not parse request"))

	data, _ := (&MoveRequest{FEN: "8/8/8 w - -"}).Marshal()
	resp, err = UnmarshalMoveResponse(bot.handle(context.Background(), data))
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.Error, "could not set up position"))

	data, _ = (&MoveRequest{FEN: "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1"}).Marshal()
	resp, err = UnmarshalMoveResponse(bot.handle(context.Background(), data))
	is.NoErr(err)
	is.True(strings.Contains(resp.Error, "no legal moves"))
}

func TestSearchWithMovesAndBook(t *testing.T) {
	is := is.New(t)
	b := board.New()
	is.NoErr(b.Play("e2e4"))
	bk := book.New()
	bk.Add(b.PositionKey(), "c7c5", 1)

	bot := testBot(bk)
	resp := bot.Search(context.Background(), &MoveRequest{Moves: []string{"e2e4"}}, nil)
	is.Equal(resp.Error, "")
	is.True(resp.Book)
	is.Equal(resp.Move, "c7c5")
}

func TestSearchProgress(t *testing.T) {
	is := is.New(t)
	bot := testBot(nil)
	var calls int
	resp := bot.Search(context.Background(), &MoveRequest{MoveTimeMillis: 600},
		func(d negamax.Diagnostics) { calls++ })
	is.Equal(resp.Error, "")
	is.True(resp.Move != "")
	is.True(calls > 0)
}
