// Package bot serves moves over NATS request/reply.
package bot

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/domino14/rookery/board"
	"github.com/domino14/rookery/book"
	"github.com/domino14/rookery/config"
	"github.com/domino14/rookery/search/negamax"
	"github.com/domino14/rookery/turnplayer"
)

// HealthService is the service name reported to gRPC health checks.
const HealthService = "rookery.bot"

const progressInterval = 250 * time.Millisecond

type Bot struct {
	config *config.Config
	book   *book.Book

	// mu serializes searches; they share the table.
	mu     sync.Mutex
	ttable *negamax.TranspositionTable
}

// NewBot makes a bot. bk may be nil.
func NewBot(cfg *config.Config, bk *book.Book) *Bot {
	return &Bot{
		config: cfg,
		book:   bk,
		ttable: turnplayer.NewTranspositionTable(cfg),
	}
}

func errorResponse(message string, err error) *MoveResponse {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return &MoveResponse{Error: msg}
}

func (bot *Bot) setUpBoard(req *MoveRequest) (*board.Board, error) {
	fen := req.FEN
	if fen == "" {
		fen = board.StartPosition
	}
	b, err := board.FromFEN(fen)
	if err != nil {
		return nil, err
	}
	for _, m := range req.Moves {
		if err := b.Play(m); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Search chooses a move for req. If onProgress is not nil it is called
// periodically with the search counters while the search runs.
func (bot *Bot) Search(ctx context.Context, req *MoveRequest, onProgress func(negamax.Diagnostics)) *MoveResponse {
	b, err := bot.setUpBoard(req)
	if err != nil {
		return errorResponse("could not set up position", err)
	}

	bot.mu.Lock()
	defer bot.mu.Unlock()

	player := turnplayer.NewAIPlayerWithTable(b, bot.config, bot.book, bot.ttable)
	player.SetSearchLimits(req.Depth, time.Duration(req.MoveTimeMillis)*time.Millisecond)
	solver := player.Solver()

	var turn turnplayer.Turn
	done := make(chan struct{})
	g := &errgroup.Group{}
	g.Go(func() error {
		defer close(done)
		turn = player.ChooseMove(ctx)
		return nil
	})
	if onProgress != nil {
		g.Go(func() error {
			ticker := time.NewTicker(progressInterval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return nil
				case <-ticker.C:
					onProgress(solver.Diagnostics())
				}
			}
		})
	}
	_ = g.Wait()

	if turn.Err != nil {
		return errorResponse("no move", turn.Err)
	}
	res := solver.Result()
	log.Info().Str("move", turn.Move.String()).Bool("book", turn.Book).
		Int("eval", res.Eval).Int("depth", res.Depth).Msg("generated-move")
	return &MoveResponse{
		Move:  turn.Move.String(),
		Eval:  res.Eval,
		Depth: res.Depth,
		Mate:  negamax.MateText(res.Eval, b.WhiteToMove()),
		Book:  turn.Book,
	}
}

// handle decodes a request, searches, and encodes the response.
func (bot *Bot) handle(ctx context.Context, data []byte) []byte {
	var resp *MoveResponse
	req, err := UnmarshalMoveRequest(data)
	if err != nil {
		resp = errorResponse("could not parse request", err)
	} else {
		resp = bot.Search(ctx, req, nil)
	}
	out, err := resp.Marshal()
	if err != nil {
		// Should never happen, ideally, but we need to do something sensible here.
		return []byte(err.Error())
	}
	return out
}

// Serve answers requests on subject until ctx is done.
func (bot *Bot) Serve(ctx context.Context, nc *nats.Conn, subject string) error {
	sub, err := nc.Subscribe(subject, func(m *nats.Msg) {
		log.Info().Msgf("RECV: %d bytes", len(m.Data))
		if err := m.Respond(bot.handle(ctx, m.Data)); err != nil {
			log.Err(err).Msg("respond-failed")
		}
	})
	if err != nil {
		return err
	}
	if err := nc.Flush(); err != nil {
		return err
	}
	if err := nc.LastError(); err != nil {
		return err
	}
	log.Info().Str("subject", subject).Msg("bot-listening")
	<-ctx.Done()
	return sub.Drain()
}

// Connect dials NATS, retrying with backoff while the server comes up.
func Connect(ctx context.Context, url string) (*nats.Conn, error) {
	var nc *nats.Conn
	err := retry.Do(
		func() error {
			var err error
			nc, err = nats.Connect(url)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(6),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Str("url", url).Msg("nats-connect-failed-retrying")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	return nc, err
}

// Main runs the bot with a gRPC health endpoint until ctx is done.
func Main(ctx context.Context, cfg *config.Config, bot *Bot) error {
	nc, err := Connect(ctx, cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		return err
	}
	defer nc.Close()

	hs := health.NewServer()
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_NOT_SERVING)

	g, ctx := errgroup.WithContext(ctx)
	if addr := cfg.GetString(config.ConfigHealthAddr); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		gs := grpc.NewServer()
		healthpb.RegisterHealthServer(gs, hs)
		g.Go(func() error {
			log.Info().Str("addr", addr).Msg("health-server-listening")
			return gs.Serve(lis)
		})
		g.Go(func() error {
			<-ctx.Done()
			hs.Shutdown()
			gs.GracefulStop()
			return nil
		})
	}
	g.Go(func() error {
		hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)
		return bot.Serve(ctx, nc, cfg.GetString(config.ConfigBotSubject))
	})
	return g.Wait()
}
