package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"
)

// serveLoop runs writeLoop on the server side of one connection and reports
// its result on done.
func serveLoop(t *testing.T, frames <-chan string, write func(*ws.Conn) func(context.Context, string) error, done chan<- error) *ws.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			done <- err
			return
		}
		defer conn.CloseNow()
		done <- writeLoop(r.Context(), conn, frames, write(conn))
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func textWriter(conn *ws.Conn) func(context.Context, string) error {
	return func(ctx context.Context, s string) error {
		return conn.Write(ctx, ws.MessageText, []byte(s))
	}
}

func TestWriteLoopForwardsInOrder(t *testing.T) {
	frames := make(chan string, 3)
	done := make(chan error, 1)
	conn := serveLoop(t, frames, textWriter, done)

	frames <- "one"
	frames <- "two"
	frames <- "three"
	close(frames)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, want := range []string{"one", "two", "three"} {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read %q: %v", want, err)
		}
		if string(data) != want {
			t.Errorf("got %q, want %q", data, want)
		}
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("closed channel should end the loop cleanly, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("writeLoop did not return after frames closed")
	}
}

func TestWriteLoopStopsOnWriteError(t *testing.T) {
	frames := make(chan string, 1)
	done := make(chan error, 1)
	boom := errors.New("encode failed")
	serveLoop(t, frames, func(*ws.Conn) func(context.Context, string) error {
		return func(context.Context, string) error { return boom }
	}, done)

	frames <- "x"

	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want %v", err, boom)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("writeLoop did not return after a failed write")
	}
}
