package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const pingInterval = 30 * time.Second

// writeLoop sends every value received on frames through write and pings the
// peer while idle. It returns nil when ctx ends or frames is closed, and the
// first write or ping error otherwise.
func writeLoop[T any](ctx context.Context, conn *ws.Conn, frames <-chan T, write func(context.Context, T) error) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if err := write(ctx, frame); err != nil {
				return err
			}
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}
