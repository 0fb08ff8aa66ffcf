package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/rookery/config"
	"github.com/domino14/rookery/epd"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func benchConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigDepth, 2)
	cfg.Set(config.ConfigFixedDepth, true)
	cfg.Set(config.ConfigTTEntries, 1<<12)
	cfg.Set(config.ConfigBenchWorkers, 2)
	return cfg
}

func TestRunBenchFindsMates(t *testing.T) {
	is := is.New(t)
	records, err := epd.Parse(strings.NewReader(
		"6k1/5ppp/8/8/8/8/8/R5K1 w - - dm 1; id \"back rank\";\n" +
			"7k/8/6K1/8/8/8/8/R7 w - - dm 1; id \"rook and king\";\n"))
	is.NoErr(err)

	results, err := runBench(context.Background(), benchConfig(), records, 0)
	is.NoErr(err)
	is.Equal(len(results), 2)
	for _, r := range results {
		is.Equal(r.result.Depth, 2)
		found, ok := r.mateOK()
		is.True(ok)
		is.True(found)
	}
	is.Equal(results[0].result.Move.String(), "a1a8")
	is.Equal(results[1].result.Move.String(), "a1a8")

	var out bytes.Buffer
	is.NoErr(report(&out, results))
	is.True(strings.Contains(out.String(), "mates found: 2/2"))
	is.True(strings.Contains(out.String(), "back rank"))
}

func TestBenchFile(t *testing.T) {
	is := is.New(t)
	records, err := epd.Load("../../data/bench.epd")
	is.NoErr(err)
	is.True(len(records) > 2)

	cfg := benchConfig()
	cfg.Set(config.ConfigDepth, 1)
	results, err := runBench(context.Background(), cfg, records, 0)
	is.NoErr(err)
	for _, r := range results {
		is.True(!r.result.Move.IsInvalid())
		_, ok := r.mateOK()
		if r.record.Ops["dm"] == "" {
			is.True(!ok)
		}
	}
}
