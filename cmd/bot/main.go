package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/rookery/book"
	"github.com/domino14/rookery/bot"
	"github.com/domino14/rookery/config"
)

func main() {
	cfg := &config.Config{}
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bot.NewBot(cfg, bk)
	if err := bot.Main(ctx, cfg, b); err != nil {
		log.Fatal().Err(err).Msg("bot")
	}
	log.Info().Msg("bot gracefully shutting down")
}
