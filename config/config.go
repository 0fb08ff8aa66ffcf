package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	*viper.Viper
}

const (
	ConfigDepth                 = "depth"
	ConfigFixedDepth            = "fixed-depth"
	ConfigIterativeDeepening    = "iterative-deepening"
	ConfigUseTranspositionTable = "use-tt"
	ConfigClearTTEachMove       = "clear-tt-each-move"
	ConfigEndlessMode           = "endless-mode"
	ConfigSearchTimeMillis      = "search-time-ms"
	ConfigUseThreading          = "use-threading"
	ConfigPromotionsToSearch    = "promotions-to-search"
	ConfigTTEntries             = "tt-entries"
	ConfigTTMemoryFraction      = "tt-memory-fraction"
	ConfigUseBook               = "use-book"
	ConfigBookPath              = "book-path"
	ConfigMaxBookPly            = "max-book-ply"
	ConfigBookMoveDelayMillis   = "book-move-delay-ms"
	ConfigNatsURL               = "nats-url"
	ConfigBotSubject            = "bot-subject"
	ConfigHealthAddr            = "health-addr"
	ConfigHTTPAddr              = "http-addr"
	ConfigCPUProfile            = "cpu-profile"
	ConfigLambdaFunction        = "lambda-function"
	ConfigBenchFile             = "bench-file"
	ConfigBenchWorkers          = "bench-workers"
	ConfigLogLevel              = "log-level"
	ConfigFile                  = "config-file"
)

// Valid values for ConfigPromotionsToSearch.
const (
	PromotionsAll            = "all"
	PromotionsQueenOnly      = "queen"
	PromotionsQueenAndKnight = "queen-and-knight"
)

func (c *Config) setDefaults() {
	c.SetDefault(ConfigDepth, 6)
	c.SetDefault(ConfigFixedDepth, false)
	c.SetDefault(ConfigIterativeDeepening, true)
	c.SetDefault(ConfigUseTranspositionTable, true)
	c.SetDefault(ConfigClearTTEachMove, false)
	c.SetDefault(ConfigEndlessMode, false)
	c.SetDefault(ConfigSearchTimeMillis, 1000)
	c.SetDefault(ConfigUseThreading, true)
	c.SetDefault(ConfigPromotionsToSearch, PromotionsQueenAndKnight)
	c.SetDefault(ConfigTTEntries, 64000)
	c.SetDefault(ConfigTTMemoryFraction, 0.0)
	c.SetDefault(ConfigUseBook, true)
	c.SetDefault(ConfigBookPath, "./data/book.yaml")
	c.SetDefault(ConfigMaxBookPly, 16)
	c.SetDefault(ConfigBookMoveDelayMillis, 250)
	c.SetDefault(ConfigNatsURL, "nats://localhost:4222")
	c.SetDefault(ConfigBotSubject, "rookery.bot")
	c.SetDefault(ConfigHealthAddr, ":8081")
	c.SetDefault(ConfigHTTPAddr, ":8088")
	c.SetDefault(ConfigCPUProfile, "")
	c.SetDefault(ConfigLambdaFunction, "rookery-move")
	c.SetDefault(ConfigBenchFile, "./data/bench.epd")
	c.SetDefault(ConfigBenchWorkers, 1)
	c.SetDefault(ConfigLogLevel, "info")
}

// Load reads flags from args, then environment variables (ROOKERY_DEPTH and
// so on), then the optional YAML config file. Flags win over the environment,
// which wins over the file.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	c.setDefaults()

	fs := pflag.NewFlagSet("rookery", pflag.ContinueOnError)
	fs.Int(ConfigDepth, 6, "search depth; the maximum depth unless fixed-depth is set")
	fs.Bool(ConfigFixedDepth, false, "stop iterative deepening at depth")
	fs.Bool(ConfigIterativeDeepening, true, "search depth 1, 2, 3... instead of a single search")
	fs.Bool(ConfigUseTranspositionTable, true, "use the transposition table")
	fs.Bool(ConfigClearTTEachMove, false, "clear the transposition table before every search")
	fs.Bool(ConfigEndlessMode, false, "keep searching after a mate is found, and ignore the time limit")
	fs.Int(ConfigSearchTimeMillis, 1000, "time per move in milliseconds")
	fs.Bool(ConfigUseThreading, true, "run the search on its own goroutine")
	fs.String(ConfigPromotionsToSearch, PromotionsQueenAndKnight, "all, queen or queen-and-knight")
	fs.Int(ConfigTTEntries, 64000, "transposition table capacity")
	fs.Float64(ConfigTTMemoryFraction, 0, "if > 0, size the transposition table to this fraction of system memory")
	fs.Bool(ConfigUseBook, true, "play opening book moves")
	fs.String(ConfigBookPath, "./data/book.yaml", "opening book file")
	fs.Int(ConfigMaxBookPly, 16, "last ply at which the book is consulted")
	fs.Int(ConfigBookMoveDelayMillis, 250, "delay before a book move is played")
	fs.String(ConfigNatsURL, "nats://localhost:4222", "NATS server for the bot")
	fs.String(ConfigBotSubject, "rookery.bot", "NATS subject the bot listens on")
	fs.String(ConfigHealthAddr, ":8081", "gRPC health check address for the bot; empty to disable")
	fs.String(ConfigHTTPAddr, ":8088", "listen address for the HTTP analysis server")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this directory")
	fs.String(ConfigLambdaFunction, "rookery-move", "AWS Lambda function the shell's remote command invokes")
	fs.String(ConfigBenchFile, "./data/bench.epd", "EPD positions for the benchmark")
	fs.Int(ConfigBenchWorkers, 1, "positions the benchmark searches at once")
	fs.String(ConfigLogLevel, "info", "debug, info, warn or error")
	fs.String(ConfigFile, "", "optional YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c.SetEnvPrefix("rookery")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if err := c.BindPFlags(fs); err != nil {
		return err
	}

	if cfgFile := c.GetString(ConfigFile); cfgFile != "" {
		c.SetConfigFile(cfgFile)
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	}
	return c.Validate()
}

// Validate checks the values that have a restricted domain.
func (c *Config) Validate() error {
	switch c.GetString(ConfigPromotionsToSearch) {
	case PromotionsAll, PromotionsQueenOnly, PromotionsQueenAndKnight:
	default:
		return fmt.Errorf("%s: unknown value %q", ConfigPromotionsToSearch,
			c.GetString(ConfigPromotionsToSearch))
	}
	if c.GetInt(ConfigDepth) < 1 {
		return fmt.Errorf("%s must be at least 1", ConfigDepth)
	}
	if c.GetInt(ConfigTTEntries) < 1 {
		return fmt.Errorf("%s must be at least 1", ConfigTTEntries)
	}
	if f := c.GetFloat64(ConfigTTMemoryFraction); f < 0 || f > 0.9 {
		return fmt.Errorf("%s must be between 0 and 0.9", ConfigTTMemoryFraction)
	}
	return nil
}

// DefaultConfig returns a config with only the defaults set. It doesn't look
// at flags or the environment; it is meant for tests.
func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.setDefaults()
	return c
}
