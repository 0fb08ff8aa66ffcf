package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/rookery/bot"
	"github.com/domino14/rookery/config"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func testServer() *httptest.Server {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigTTEntries, 1<<14)
	cfg.Set(config.ConfigSearchTimeMillis, 2000)
	return httptest.NewServer(NewServer(bot.NewBot(cfg, nil)).Handler())
}

func TestPing(t *testing.T) {
	is := is.New(t)
	ts := testServer()
	defer ts.Close()
	res, err := http.Get(ts.URL + "/api/ping")
	is.NoErr(err)
	defer res.Body.Close()
	is.Equal(res.StatusCode, http.StatusOK)
}

func TestMove(t *testing.T) {
	is := is.New(t)
	ts := testServer()
	defer ts.Close()

	body := `{"fen": "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1"}`
	res, err := http.Post(ts.URL+"/api/move", "application/json", strings.NewReader(body))
	is.NoErr(err)
	defer res.Body.Close()
	is.Equal(res.StatusCode, http.StatusOK)
	resp := &bot.MoveResponse{}
	is.NoErr(json.NewDecoder(res.Body).Decode(resp))
	is.Equal(resp.Move, "a1a8")
	is.Equal(resp.Depth, 2)
}

func TestMoveErrors(t *testing.T) {
	is := is.New(t)
	ts := testServer()
	defer ts.Close()

	res, err := http.Post(ts.URL+"/api/move", "application/json", bytes.NewBufferString("{"))
	is.NoErr(err)
	res.Body.Close()
	is.Equal(res.StatusCode, http.StatusBadRequest)

	res, err = http.Post(ts.URL+"/api/move", "application/json",
		strings.NewReader(`{"fen": "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1"}`))
	is.NoErr(err)
	res.Body.Close()
	is.Equal(res.StatusCode, http.StatusUnprocessableEntity)
}

func TestAnalyzeStream(t *testing.T) {
	is := is.New(t)
	ts := testServer()
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/analyze"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	is.NoErr(err)
	defer conn.Close()

	is.NoErr(conn.WriteJSON(bot.MoveRequest{MoveTimeMillis: 600}))
	var progress int
	for {
		var m struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		is.NoErr(conn.ReadJSON(&m))
		if m.Type == "progress" {
			progress++
			continue
		}
		is.Equal(m.Type, "result")
		resp := &bot.MoveResponse{}
		is.NoErr(json.Unmarshal(m.Payload, resp))
		is.Equal(resp.Error, "")
		is.True(resp.Move != "")
		break
	}
	is.True(progress > 0)
}
