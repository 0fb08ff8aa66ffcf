// bench searches a file of EPD positions and reports search speed.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/rookery/board"
	"github.com/domino14/rookery/config"
	"github.com/domino14/rookery/epd"
	"github.com/domino14/rookery/search/negamax"
	"github.com/domino14/rookery/stats"
	"github.com/domino14/rookery/turnplayer"
)

type benchResult struct {
	record epd.Record
	result negamax.Result
	diag   negamax.Diagnostics
}

// knps is thousands of nodes per second, quiescence nodes included.
func (br benchResult) knps() float64 {
	secs := br.diag.Elapsed.Seconds()
	if secs == 0 {
		return 0
	}
	return float64(br.diag.Nodes+br.diag.QNodes) / secs / 1000
}

// mateOK checks a dm operation against the result. ok is false if the
// record has no dm operation.
func (br benchResult) mateOK() (found, ok bool) {
	dm, has := br.record.Ops["dm"]
	if !has {
		return false, false
	}
	n, err := strconv.Atoi(dm)
	if err != nil {
		return false, false
	}
	eval := br.result.Eval
	if !negamax.IsMateScore(eval) || eval < 0 {
		return false, true
	}
	return (negamax.NumPlyToMateFromScore(eval)+1)/2 == n, true
}

func runBench(ctx context.Context, cfg *config.Config, records []epd.Record, moveTime time.Duration) ([]benchResult, error) {
	settings := negamax.SettingsFromConfig(cfg)
	results := make([]benchResult, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, cfg.GetInt(config.ConfigBenchWorkers)))
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			b, err := board.FromFEN(rec.FEN)
			if err != nil {
				return err
			}
			solver := turnplayer.NewSolver(b, cfg, nil)
			var sctx context.Context
			var cancel context.CancelFunc
			if moveTime > 0 {
				sctx, cancel = context.WithTimeout(ctx, moveTime)
			} else {
				sctx, cancel = context.WithCancel(ctx)
			}
			defer cancel()
			res := solver.StartSearch(sctx, settings)
			results[i] = benchResult{record: rec, result: res, diag: solver.Diagnostics()}
			log.Debug().Str("id", rec.ID()).Str("move", res.Move.String()).
				Int("depth", res.Depth).Msg("position-searched")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func report(w io.Writer, results []benchResult) error {
	var nodes stats.Running
	knps := make([]float64, 0, len(results))
	millis := make([]float64, 0, len(results))
	mates, mateTotal := 0, 0
	for i, r := range results {
		id := r.record.ID()
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		fmt.Fprintf(w, "%-20s %-6s eval %7d depth %2d nodes %9d %8.1f knps %s\n",
			id, r.result.Move, r.result.Eval, r.result.Depth,
			r.diag.Nodes+r.diag.QNodes, r.knps(), r.diag.Elapsed.Round(time.Millisecond))
		nodes.Push(float64(r.diag.Nodes + r.diag.QNodes))
		knps = append(knps, r.knps())
		millis = append(millis, float64(r.diag.Elapsed.Milliseconds()))
		if found, ok := r.mateOK(); ok {
			mateTotal++
			if found {
				mates++
			}
		}
	}
	fmt.Fprintf(w, "\nnodes: mean %.0f sd %.0f over %d positions\n", nodes.Mean(), nodes.Stdev(), nodes.N())
	fmt.Fprintf(w, "knps:  %s\n", stats.Summarize(knps))
	fmt.Fprintf(w, "ms:    %s\n", stats.Summarize(millis))
	if mateTotal > 0 {
		fmt.Fprintf(w, "mates found: %d/%d\n", mates, mateTotal)
	}
	// Hist needs a spread to bin.
	if len(knps) > 1 && slices.Min(knps) < slices.Max(knps) {
		fmt.Fprintln(w, "\nknps distribution:")
		return histogram.Fprint(w, histogram.Hist(15, knps), histogram.Linear(40))
	}
	return nil
}

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(cfg.GetString(config.ConfigLogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if dir := cfg.GetString(config.ConfigCPUProfile); dir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.NoShutdownHook).Stop()
	}

	records, err := epd.Load(cfg.GetString(config.ConfigBenchFile))
	if err != nil {
		log.Fatal().Err(err).Msg("loading-positions")
	}
	var moveTime time.Duration
	if !cfg.GetBool(config.ConfigFixedDepth) {
		moveTime = time.Duration(cfg.GetInt(config.ConfigSearchTimeMillis)) * time.Millisecond
	}
	log.Info().Int("positions", len(records)).Dur("move-time", moveTime).
		Int("depth", cfg.GetInt(config.ConfigDepth)).Msg("bench-starting")

	results, err := runBench(context.Background(), cfg, records, moveTime)
	if err != nil {
		log.Fatal().Err(err).Msg("bench")
	}
	if err := report(os.Stdout, results); err != nil {
		log.Fatal().Err(err).Msg("report")
	}
}
