package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/notesync/internal/model"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, sendBufferSize),
	}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return got
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
		return Message{}
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(testLogger)
	c1 := mockClient(hub)
	c2 := mockClient(hub)

	hub.Register(c1)
	hub.Register(c2)
	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	hub.Unregister(c1)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcastNoteMessage(t *testing.T) {
	hub := NewHub(testLogger)
	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)
	defer hub.Unregister(c1)
	defer hub.Unregister(c2)

	hub.Broadcast(NoteMessage("created", "6f1c"))

	for _, c := range []*Client{c1, c2} {
		got := receive(t, c)
		if got.Type != "note_created" {
			t.Errorf("expected type note_created, got %s", got.Type)
		}
		if got.ID != "6f1c" {
			t.Errorf("expected id 6f1c, got %s", got.ID)
		}
	}
}

func TestStatusAndIdentityMessages(t *testing.T) {
	hub := NewHub(testLogger)
	c := mockClient(hub)
	hub.Register(c)
	defer hub.Unregister(c)

	hub.Broadcast(StatusMessage("Syncing..."))
	got := receive(t, c)
	if got.Type != "sync_status" {
		t.Errorf("expected type sync_status, got %s", got.Type)
	}
	if got.Extra["status"] != "Syncing..." {
		t.Errorf("expected status in extra, got %v", got.Extra)
	}

	hub.Broadcast(IdentityMessage(model.Identity{State: model.Linked, UID: "u1", Email: "me@example.com"}))
	got = receive(t, c)
	if got.Type != "identity_changed" || got.ID != "u1" {
		t.Errorf("unexpected identity message %+v", got)
	}
	if got.Extra["state"] != "linked" || got.Extra["email"] != "me@example.com" {
		t.Errorf("unexpected identity extra %v", got.Extra)
	}
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(testLogger)
	hub.Broadcast(NoteMessage("deleted", "x"))
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(testLogger)
	c := mockClient(hub)
	hub.Register(c)
	defer hub.Unregister(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(NoteMessage("updated", "fill"))
	}
	// Dropped, not blocked.
	hub.Broadcast(NoteMessage("updated", "dropped"))

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("expected %d buffered messages, got %d", sendBufferSize, got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(testLogger)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub)
			hub.Register(c)
			hub.Broadcast(NoteMessage("updated", "concurrent"))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}
