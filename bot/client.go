package bot

import (
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Allowed on top of the requested move time before a request times out.
const requestSlack = 10 * time.Second

type Client struct {
	// NATS connection
	nc      *nats.Conn
	channel string
}

func NewClient(nc *nats.Conn, channel string) *Client {
	return &Client{nc: nc, channel: channel}
}

// RequestMove sends a position to the bot and gets a move back.
func (c *Client) RequestMove(req *MoveRequest) (*MoveResponse, error) {
	data, err := req.Marshal()
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(req.MoveTimeMillis)*time.Millisecond + requestSlack
	res, err := c.nc.Request(c.channel, data, timeout)
	if err != nil {
		if c.nc.LastError() != nil {
			log.Error().Msgf("%v for request", c.nc.LastError())
		}
		log.Error().Msgf("%v for request", err)
		return nil, err
	}
	log.Debug().Int("bytes", len(res.Data)).Msg("bot-response")

	resp, err := UnmarshalMoveResponse(res.Data)
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return resp, errors.New("bot returned: " + resp.Error)
	}
	return resp, nil
}
