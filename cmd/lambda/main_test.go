package main

import (
	"context"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/rookery/bot"
	"github.com/domino14/rookery/config"
)

func TestHandleRequest(t *testing.T) {
	is := is.New(t)
	zerolog.SetGlobalLevel(zerolog.Disabled)
	cfg = config.DefaultConfig()
	cfg.Set(config.ConfigTTEntries, 1<<14)
	rookeryBot = bot.NewBot(cfg, nil)

	evt := bot.LambdaEvent{
		FEN:            "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1",
		GameID:         "foo",
		MoveTimeMillis: 3000,
	}
	ret, err := HandleRequest(context.Background(), evt)
	is.NoErr(err)
	is.Equal(ret, "a1a8")

	evt.FEN = "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1"
	_, err = HandleRequest(context.Background(), evt)
	is.True(err != nil)
}
