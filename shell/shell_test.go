package shell

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/rookery/bot"
	"github.com/domino14/rookery/config"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"go -depth 5",
			&shellcmd{"go", nil, CmdOptions{"depth": {"5"}}},
			nil},
		{"go infinite",
			&shellcmd{"go", []string{"infinite"}, CmdOptions{}},
			nil},
		{"position fen 8/8/8/8/8/8/8/K6k w - - moves a1a2 ",
			&shellcmd{"position",
				[]string{"fen", "8/8/8/8/8/8/8/K6k", "w", "-", "-", "moves", "a1a2"},
				CmdOptions{}},
			nil,
		},
		{"set depth -1",
			&shellcmd{"set", []string{"depth", "-1"}, CmdOptions{}},
			nil},
		{"go infinite -movetime",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

func testController(t *testing.T) (*ShellController, *bytes.Buffer) {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigUseBook, false)
	cfg.Set(config.ConfigTTEntries, 1<<14)
	cfg.Set(config.ConfigBookMoveDelayMillis, 0)
	sc := NewShellController(cfg)
	out := &bytes.Buffer{}
	sc.out = out
	sc.syncSearch = true
	return sc, out
}

func run(t *testing.T, sc *ShellController, line string) *Response {
	t.Helper()
	cmd, err := extractFields(line)
	if err != nil {
		t.Fatal(err)
	}
	r, err := sc.standardModeSwitch(cmd)
	if err != nil {
		t.Fatalf("%s: %v", line, err)
	}
	return r
}

func TestPositionAndGo(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	run(t, sc, "position fen 6k1/5ppp/8/8/8/8/8/R5K1 w - -")
	r := run(t, sc, "go -depth 2")
	is.True(strings.HasPrefix(r.message, "bestmove a1a8"))
	is.True(strings.Contains(r.message, "White can mate in 1 move"))

	r = run(t, sc, "result")
	is.True(strings.HasPrefix(r.message, "bestmove a1a8"))

	r = run(t, sc, "diag")
	is.True(strings.Contains(r.message, "depth:               2"))
}

func TestPositionWithMoves(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	run(t, sc, "position startpos moves e2e4 e7e5")
	is.Equal(sc.board.GamePly(), 2)
	is.True(!sc.board.WhiteToMove())

	r := run(t, sc, "display")
	is.True(strings.Contains(r.message, "moves: e2e4 e7e5"))

	run(t, sc, "undo")
	is.Equal(sc.board.GamePly(), 1)

	cmd, _ := extractFields("position startpos moves e2e5")
	_, err := sc.standardModeSwitch(cmd)
	is.True(err != nil)
}

func TestNoLegalMovesResult(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	run(t, sc, "position fen 7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	r := run(t, sc, "go -depth 3")
	is.Equal(r.message, "no legal moves: stalemate")
}

func TestSet(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	old := sc.player

	run(t, sc, "set depth 9")
	is.Equal(sc.config.GetInt(config.ConfigDepth), 9)
	is.Equal(sc.player, old)

	run(t, sc, "set promotions-to-search queen")
	is.True(sc.player != old)

	cmd, _ := extractFields("set promotions-to-search pawn")
	_, err := sc.standardModeSwitch(cmd)
	is.True(err != nil)
	is.Equal(sc.config.GetString(config.ConfigPromotionsToSearch), config.PromotionsQueenOnly)

	cmd, _ = extractFields("set no-such-key 1")
	_, err = sc.standardModeSwitch(cmd)
	is.True(err != nil)
}

func TestAIPlayAndBook(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	sc.config.Set(config.ConfigUseBook, true)
	r := run(t, sc, "book ../data/book.yaml")
	is.True(strings.HasPrefix(r.message, "loaded"))

	r = run(t, sc, "aiplay")
	is.True(strings.Contains(r.message, "(book)"))
	is.Equal(sc.board.GamePly(), 1)
}

func TestTT(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	run(t, sc, "go -depth 2")
	is.True(sc.player.Solver().TranspositionTable().Stats().Created > 0)
	run(t, sc, "tt clear")
	is.Equal(sc.player.Solver().TranspositionTable().Stats().Created, uint64(0))
}

func TestSearchingBlocksBoardCommands(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	sc.syncSearch = false
	run(t, sc, "go infinite")

	cmd, _ := extractFields("play e2e4")
	_, err := sc.standardModeSwitch(cmd)
	is.Equal(err, errSearching)

	run(t, sc, "stop")
	is.True(!sc.searching())
	run(t, sc, "play e2e4")
}

func TestScript(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	path := filepath.Join(t.TempDir(), "mate.lua")
	script := `
local json = require("json")
local pos = json.decode('{"fen": "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1"}')
rookery_position("fen " .. pos.fen)
local res = rookery_go("-depth 2")
if string.find(res, "a1a8") == nil then
  error("expected a1a8, got " .. res)
end
rookery_play("a1a8")
`
	is.NoErr(os.WriteFile(path, []byte(script), 0o644))
	run(t, sc, "script "+path)
	is.Equal(sc.board.GamePly(), 1)
	is.True(!sc.syncSearch)
}

func TestHelp(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	r := run(t, sc, "help")
	is.True(strings.Contains(r.message, "position startpos"))
	for _, topic := range helpTopics {
		run(t, sc, "help "+topic)
	}
	cmd, _ := extractFields("help nothing")
	_, err := sc.standardModeSwitch(cmd)
	is.True(err != nil)
}

func TestCompleter(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	c := NewShellCompleter(sc)

	line := []rune("pos")
	matches, n := c.Do(line, len(line))
	is.Equal(n, 3)
	is.Equal(len(matches), 1)
	is.Equal(string(matches[0]), "ition")

	line = []rune("go -m")
	matches, _ = c.Do(line, len(line))
	is.Equal(len(matches), 1)
	is.Equal(string(matches[0]), "ovetime")

	line = []rune("set promotions-to-search q")
	matches, _ = c.Do(line, len(line))
	is.Equal(len(matches), 2)
}

type fakeLambda struct {
	payload string
}

func (f *fakeLambda) Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	return &lambda.InvokeOutput{Payload: []byte(f.payload)}, nil
}

func TestRemote(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	sc.remoteFunction = sc.config.GetString(config.ConfigLambdaFunction)
	sc.remoteClient = bot.NewLambdaClientWithAPI(&fakeLambda{payload: `"d2d4"`}, sc.remoteFunction)

	r := run(t, sc, "remote -movetime 100")
	is.True(strings.HasPrefix(r.message, "played d2d4 (remote)"))
	is.Equal(sc.board.GamePly(), 1)

	sc.remoteClient = bot.NewLambdaClientWithAPI(&fakeLambda{payload: `"e2e4"`}, sc.remoteFunction)
	cmd, _ := extractFields("remote")
	_, err := sc.standardModeSwitch(cmd)
	is.True(err != nil)
}
