package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/rookery/book"
	"github.com/domino14/rookery/bot"
	"github.com/domino14/rookery/config"
)

var cfg *config.Config
var nc *nats.Conn
var rookeryBot *bot.Bot

const HardTimeLimit = 60 * time.Second

func HandleRequest(ctx context.Context, evt bot.LambdaEvent) (string, error) {
	// Return something but we have to block till we're done.
	logger := log.With().
		Str("gameID", evt.GameID).
		Logger()

	moveTime := time.Duration(evt.MoveTimeMillis) * time.Millisecond
	if moveTime <= 0 {
		moveTime = time.Duration(cfg.GetInt(config.ConfigSearchTimeMillis)) * time.Millisecond
	}
	moveTime = min(moveTime, HardTimeLimit)
	logger.Info().Dur("move-time", moveTime).Str("fen", evt.FEN).
		Int("num-moves", len(evt.Moves)).Msg("time-management")

	resp := rookeryBot.Search(ctx, &bot.MoveRequest{
		FEN:            evt.FEN,
		Moves:          evt.Moves,
		MoveTimeMillis: int(moveTime / time.Millisecond),
	}, nil)
	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}

	if evt.ReplyChannel != "" && nc != nil {
		data, err := resp.Marshal()
		if err != nil {
			return "", err
		}
		logger.Info().Msg("move-success-sending-via-nats")
		err = retry.Do(
			func() error {
				// We're just waiting for an acknowledgement. The actual
				// data doesn't matter.
				_, err := nc.Request(evt.ReplyChannel, data, 3*time.Second)
				return err
			},
			retry.Context(ctx),
			retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
				logger.Err(err).Uint("n", n).
					Msg("did-not-receive-ack-try-again")
				return retry.BackOffDelay(n, err, config)
			}),
		)
		if err != nil {
			logger.Err(err).Msg("bot-move-failed")
		}
	}
	logger.Info().Msg("exiting-fn")
	return resp.Move, nil
}

func main() {
	cfg = &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	level, err := zerolog.ParseLevel(cfg.GetString(config.ConfigLogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var bk *book.Book
	if cfg.GetBool(config.ConfigUseBook) {
		bk, err = book.Load(cfg.GetString(config.ConfigBookPath))
		if err != nil {
			log.Warn().Err(err).Msg("no-opening-book")
		}
	}
	rookeryBot = bot.NewBot(cfg, bk)

	nc, err = bot.Connect(context.Background(), cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		log.Fatal().AnErr("natsConnectErr", err).Msg(":(")
	}

	lambda.Start(HandleRequest)
}
