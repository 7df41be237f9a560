package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/dukerupert/notesync/internal/cache"
	"github.com/dukerupert/notesync/internal/database"
	"github.com/dukerupert/notesync/internal/model"
	"github.com/dukerupert/notesync/internal/store"
)

func TestQueryFilter(t *testing.T) {
	f := Query{Search: "milk"}.Filter()
	if f.Search != "milk" || f.Category != nil {
		t.Errorf("unexpected filter %+v", f)
	}
	f = Query{Category: "Work"}.Filter()
	if f.Category == nil || *f.Category != "Work" {
		t.Errorf("expected category Work, got %+v", f)
	}
}

func TestHandleLiveNotes(t *testing.T) {
	db, err := database.Open(database.MemoryPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	c := cache.New(store.NewNoteStore(db), testLogger)
	for i, title := range []string{"groceries", "meeting notes"} {
		n := model.Note{
			ID: title, Title: title, Content: "body", Category: "General",
			OwnerID: "u1", CreatedAt: int64(i + 1), UpdatedAt: int64(i + 1),
		}
		if err := c.Upsert(n); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	srv := httptest.NewServer(HandleLiveNotes(c, func() string { return "u1" }, testLogger))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	var msg NotesMessage
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if msg.Type != "notes" || len(msg.Notes) != 2 {
		t.Fatalf("expected 2 notes initially, got %+v", msg)
	}

	if err := wsjson.Write(ctx, conn, Query{Search: "GROC"}); err != nil {
		t.Fatalf("write query: %v", err)
	}
	for {
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			t.Fatalf("read filtered: %v", err)
		}
		if len(msg.Notes) == 1 {
			break
		}
	}
	if msg.Notes[0].ID != "groceries" {
		t.Errorf("expected groceries, got %s", msg.Notes[0].ID)
	}

	// A write re-runs the active filter only.
	extra := model.Note{
		ID: "more", Title: "more groceries", Content: "eggs", Category: "General",
		OwnerID: "u1", CreatedAt: 10, UpdatedAt: 10,
	}
	if err := c.Upsert(extra); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("read after write: %v", err)
	}
	if len(msg.Notes) != 2 || msg.Notes[0].ID != "more" {
		t.Errorf("expected [more groceries], got %+v", msg.Notes)
	}

	conn.Close(ws.StatusNormalClosure, "")
	deadline := time.Now().Add(2 * time.Second)
	for c.WatcherCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := c.WatcherCount(); got != 0 {
		t.Errorf("expected subscription to stop after close, %d watchers left", got)
	}
}
