// Package cache is the authoritative on-device note store. It wraps the
// SQLite note table with change notification so query results can be
// streamed to subscribers.
package cache

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dukerupert/notesync/internal/model"
	"github.com/dukerupert/notesync/internal/store"
)

// Filter selects the notes a query returns. A nil Category means any
// category.
type Filter struct {
	Search   string
	Category *string
}

// Cache tracks watchers and wakes them after each committed write. Row
// atomicity comes from SQLite.
type Cache struct {
	notes  *store.NoteStore
	logger *slog.Logger

	mu       sync.Mutex
	watchers map[chan struct{}]struct{}
}

func New(notes *store.NoteStore, logger *slog.Logger) *Cache {
	return &Cache{
		notes:    notes,
		logger:   logger,
		watchers: make(map[chan struct{}]struct{}),
	}
}

// Upsert inserts or replaces the note by id.
func (c *Cache) Upsert(n model.Note) error {
	if err := c.notes.Upsert(n); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// Delete hard-removes the note.
func (c *Cache) Delete(n model.Note) error {
	if err := c.notes.Delete(n.ID); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// MarkSynced stamps lastSyncedAt on n if the stored row is still the version
// that was pushed.
func (c *Cache) MarkSynced(n model.Note, syncedAt int64) error {
	ok, err := c.notes.MarkSynced(n.ID, n.UpdatedAt, syncedAt)
	if err != nil {
		return err
	}
	if ok {
		c.Invalidate()
	} else {
		c.logger.Debug("note changed during push, left dirty", "id", n.ID)
	}
	return nil
}

func (c *Cache) Get(id string) (*model.Note, error) {
	return c.notes.GetByID(id)
}

// ListAll is a one-shot snapshot of every note visible to ownerID,
// soft-deleted ones included.
func (c *Cache) ListAll(ownerID string) ([]model.Note, error) {
	return c.notes.ListAll(ownerID)
}

// Query returns the non-deleted notes visible to ownerID that match f,
// newest first.
func (c *Cache) Query(ownerID string, f Filter) ([]model.Note, error) {
	return c.notes.Query(store.NoteFilter{
		OwnerID:  ownerID,
		Search:   f.Search,
		Category: f.Category,
	})
}

func (c *Cache) CountDirty(ownerID string) (int, error) {
	return c.notes.CountDirty(ownerID)
}

// Invalidate wakes every watcher so it re-runs its query. Writes call it
// automatically; callers use it when the visible set changes for another
// reason, such as an identity switch.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for ch := range c.watchers {
		select {
		case ch <- struct{}{}:
		default:
			// Already pending; one re-query covers both writes.
		}
	}
}

func (c *Cache) addWatcher() chan struct{} {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.watchers[ch] = struct{}{}
	c.mu.Unlock()
	return ch
}

func (c *Cache) removeWatcher(ch chan struct{}) {
	c.mu.Lock()
	delete(c.watchers, ch)
	c.mu.Unlock()
}

// WatcherCount returns the number of live watch loops.
func (c *Cache) WatcherCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.watchers)
}

// Watch streams the result of Query(owner(), f) now and after every change,
// until ctx is cancelled. owner is re-evaluated on every run so an identity
// switch followed by Invalidate re-scopes the stream. The returned channel
// is closed when the watch ends.
func (c *Cache) Watch(ctx context.Context, owner func() string, f Filter) <-chan []model.Note {
	out := make(chan []model.Note)
	wake := c.addWatcher()

	go func() {
		defer close(out)
		defer c.removeWatcher(wake)

		for {
			notes, err := c.Query(owner(), f)
			if err != nil {
				c.logger.Error("watch query", "error", err)
			} else {
				if notes == nil {
					notes = []model.Note{}
				}
				select {
				case out <- notes:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-wake:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
