package websocket

import (
	"context"

	ws "github.com/coder/websocket"
)

const sendBufferSize = 16

// Client is one /ws connection receiving hub broadcasts.
type Client struct {
	hub  *Hub
	conn *ws.Conn
	send chan []byte
}

func NewClient(hub *Hub, conn *ws.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// Run registers the client and forwards broadcasts until the peer closes
// the connection or ctx ends. Frames sent by the peer are discarded.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)
	defer c.conn.Close(ws.StatusNormalClosure, "")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		defer cancel()
		for {
			if _, _, err := c.conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	writeLoop(ctx, c.conn, c.send, func(ctx context.Context, msg []byte) error {
		return c.conn.Write(ctx, ws.MessageText, msg)
	})
}
