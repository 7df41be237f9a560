package websocket

import (
	"context"
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/dukerupert/notesync/internal/cache"
	"github.com/dukerupert/notesync/internal/model"
)

// Query is sent by a live-query client to replace its filter. An empty
// Category means every category.
type Query struct {
	Search   string `json:"search"`
	Category string `json:"category"`
}

func (q Query) Filter() cache.Filter {
	f := cache.Filter{Search: q.Search}
	if q.Category != "" {
		cat := q.Category
		f.Category = &cat
	}
	return f
}

// NotesMessage is one result set pushed to a live-query client.
type NotesMessage struct {
	Type  string       `json:"type"`
	Notes []model.Note `json:"notes"`
}

// HandleLiveNotes serves /ws/notes. Each connection owns one cache
// subscription; a Query frame swaps its filter and results for the old
// filter stop immediately.
func HandleLiveNotes(c *cache.Cache, owner func() string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Warn("live query accept", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sub := c.Subscribe(ctx, owner)
		defer sub.Close()

		go func() {
			defer cancel()
			for {
				var q Query
				if err := wsjson.Read(ctx, conn, &q); err != nil {
					return
				}
				logger.Debug("live query filter", "search", q.Search, "category", q.Category)
				sub.SetFilter(q.Filter())
			}
		}()

		err = writeLoop(ctx, conn, sub.Results(), func(ctx context.Context, notes []model.Note) error {
			return wsjson.Write(ctx, conn, NotesMessage{Type: "notes", Notes: notes})
		})
		if err != nil {
			logger.Debug("live query closed", "error", err)
		}
	}
}
