// Package httpapi exposes the bot over HTTP: a JSON endpoint for single
// moves and a websocket that streams search progress.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/domino14/rookery/bot"
	"github.com/domino14/rookery/search/negamax"
)

type wsMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type progressDTO struct {
	Depth     int    `json:"depth"`
	Move      string `json:"move"`
	Eval      int    `json:"eval"`
	Nodes     uint64 `json:"nodes"`
	QNodes    uint64 `json:"qnodes"`
	TTHits    uint64 `json:"tt_hits"`
	Evaluated uint64 `json:"positions_evaluated"`
	Mate      string `json:"mate,omitempty"`
}

func progressFromDiagnostics(d negamax.Diagnostics) progressDTO {
	return progressDTO{
		Depth:     d.LastCompletedDepth,
		Move:      d.Move.String(),
		Eval:      d.Eval,
		Nodes:     d.Nodes,
		QNodes:    d.QNodes,
		TTHits:    d.TTHits,
		Evaluated: d.PositionsEvaluated,
		Mate:      d.MateText,
	}
}

type Server struct {
	bot *bot.Bot
}

func NewServer(b *bot.Bot) *Server {
	return &Server{bot: b}
}

// Handler returns the routes:
//
//	GET  /api/ping
//	POST /api/move     MoveRequest JSON in, MoveResponse JSON out
//	GET  /api/analyze  websocket; send one MoveRequest, receive progress
//	                   messages and then the result
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Post("/api/move", s.move)
	r.Get("/api/analyze", s.analyze)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request-id", middleware.GetReqID(r.Context())).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http-request")
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) move(w http.ResponseWriter, r *http.Request) {
	req := &bot.MoveRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, &bot.MoveResponse{Error: "could not parse request: " + err.Error()})
		return
	}
	resp := s.bot.Search(r.Context(), req, nil)
	status := http.StatusOK
	if resp.Error != "" {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	req := &bot.MoveRequest{}
	if err := conn.ReadJSON(req); err != nil {
		_ = conn.WriteJSON(wsMessage{Type: "error", Payload: err.Error()})
		return
	}
	resp := s.bot.Search(r.Context(), req, func(d negamax.Diagnostics) {
		if err := conn.WriteJSON(wsMessage{Type: "progress", Payload: progressFromDiagnostics(d)}); err != nil {
			log.Debug().Err(err).Msg("ws-progress-write-failed")
		}
	})
	if err := conn.WriteJSON(wsMessage{Type: "result", Payload: resp}); err != nil {
		log.Debug().Err(err).Msg("ws-result-write-failed")
		return
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
