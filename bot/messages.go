package bot

import (
	"github.com/samber/lo"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// MoveRequest asks for a move in the position reached by playing Moves
// from FEN. An empty FEN is the standard starting position. Depth and
// MoveTimeMillis override the bot's configuration when nonzero.
type MoveRequest struct {
	FEN            string   `json:"fen"`
	Moves          []string `json:"moves"`
	Depth          int      `json:"depth"`
	MoveTimeMillis int      `json:"movetime_ms"`
}

// MoveResponse carries the chosen move in UCI notation, or an error.
type MoveResponse struct {
	Move  string `json:"move"`
	Eval  int    `json:"eval"`
	Depth int    `json:"depth"`
	Mate  string `json:"mate,omitempty"`
	Book  bool   `json:"book"`
	Error string `json:"error,omitempty"`
}

// On the wire both messages are protobuf-encoded google.protobuf.Struct
// values, so that clients in any language can read them without generated
// code.

func (r *MoveRequest) Marshal() ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"fen":         r.FEN,
		"moves":       lo.ToAnySlice(r.Moves),
		"depth":       r.Depth,
		"movetime_ms": r.MoveTimeMillis,
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func UnmarshalMoveRequest(data []byte) (*MoveRequest, error) {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(data, s); err != nil {
		return nil, err
	}
	f := s.GetFields()
	req := &MoveRequest{
		FEN:            f["fen"].GetStringValue(),
		Depth:          int(f["depth"].GetNumberValue()),
		MoveTimeMillis: int(f["movetime_ms"].GetNumberValue()),
	}
	for _, v := range f["moves"].GetListValue().GetValues() {
		req.Moves = append(req.Moves, v.GetStringValue())
	}
	return req, nil
}

func (r *MoveResponse) Marshal() ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"move":  r.Move,
		"eval":  r.Eval,
		"depth": r.Depth,
		"mate":  r.Mate,
		"book":  r.Book,
		"error": r.Error,
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func UnmarshalMoveResponse(data []byte) (*MoveResponse, error) {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(data, s); err != nil {
		return nil, err
	}
	f := s.GetFields()
	return &MoveResponse{
		Move:  f["move"].GetStringValue(),
		Eval:  int(f["eval"].GetNumberValue()),
		Depth: int(f["depth"].GetNumberValue()),
		Mate:  f["mate"].GetStringValue(),
		Book:  f["book"].GetBoolValue(),
		Error: f["error"].GetStringValue(),
	}, nil
}

// LambdaEvent is the payload of a move request made through AWS Lambda.
// The move is also published on ReplyChannel, if one is given.
type LambdaEvent struct {
	GameID         string   `json:"gameID"`
	FEN            string   `json:"fen"`
	Moves          []string `json:"moves"`
	MoveTimeMillis int      `json:"moveTimeMillis"`
	ReplyChannel   string   `json:"replyChannel"`
}
