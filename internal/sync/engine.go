// Package sync coordinates the local cache, the category registry, the
// remote store and the identity manager. Every note operation writes the
// local cache first; the remote store is best-effort and failures only
// leave notes dirty until the next SyncAll.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/notesync/internal/apperr"
	"github.com/dukerupert/notesync/internal/cache"
	"github.com/dukerupert/notesync/internal/category"
	"github.com/dukerupert/notesync/internal/identity"
	"github.com/dukerupert/notesync/internal/model"
	"github.com/dukerupert/notesync/internal/remote"
)

// Published status values. Failures are reported as "<action> failed: <err>".
const (
	StatusReady     = "Ready"
	StatusSyncing   = "Syncing..."
	StatusSynced    = "Synced successfully"
	StatusConnected = "Remote connected!"
)

// StatusFunc is called with every new status string.
type StatusFunc func(string)

// Result summarises one SyncAll run.
type Result struct {
	Pushed     int   `json:"pushed"`
	PushFailed int   `json:"push_failed"`
	Downloaded int   `json:"downloaded"`
	Inserted   int   `json:"inserted"`
	Skipped    int   `json:"skipped"`
	Err        error `json:"-"`
}

type Engine struct {
	cache      *cache.Cache
	categories *category.Registry
	remote     remote.Store
	identity   *identity.Manager
	logger     *slog.Logger
	device     string
	now        func() time.Time

	mu        sync.RWMutex
	status    string
	listeners []StatusFunc
}

// New wires an engine. Identity changes invalidate the cache so live
// queries re-scope to the new uid.
func New(c *cache.Cache, reg *category.Registry, rs remote.Store, ids *identity.Manager, device string, logger *slog.Logger) *Engine {
	e := &Engine{
		cache:      c,
		categories: reg,
		remote:     rs,
		identity:   ids,
		logger:     logger,
		device:     device,
		now:        time.Now,
		status:     StatusReady,
	}
	ids.OnChange(func(id model.Identity) {
		c.Invalidate()
		if err := reg.RefreshCounts(id.UID); err != nil {
			logger.Error("refresh category counts", "error", err)
		}
	})
	return e
}

// Status returns the most recently published status string.
func (e *Engine) Status() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// OnStatus registers fn to receive every status change.
func (e *Engine) OnStatus(fn StatusFunc) {
	e.mu.Lock()
	e.listeners = append(e.listeners, fn)
	e.mu.Unlock()
}

func (e *Engine) setStatus(s string) {
	e.mu.Lock()
	e.status = s
	listeners := append([]StatusFunc(nil), e.listeners...)
	e.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}

func (e *Engine) fail(action string, err error) {
	e.setStatus(fmt.Sprintf("%s failed: %v", action, err))
}

func (e *Engine) nowMillis() int64 {
	return e.now().UnixMilli()
}

func validateNote(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return apperr.Validation("title", "is required")
	}
	if strings.TrimSpace(content) == "" {
		return apperr.Validation("content", "is required")
	}
	return nil
}

// AddNote creates a dirty note owned by the current identity, stores it
// locally and attempts one upload.
func (e *Engine) AddNote(ctx context.Context, title, content, cat string) (*model.Note, error) {
	if err := validateNote(title, content); err != nil {
		return nil, err
	}

	now := e.nowMillis()
	n := model.Note{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(title),
		Content:      content,
		Category:     category.Normalize(cat),
		OwnerID:      e.identity.UID(),
		CreatedAt:    now,
		UpdatedAt:    now,
		OriginDevice: e.device,
	}

	if err := e.cache.Upsert(n); err != nil {
		return nil, fmt.Errorf("add note: %w", err)
	}
	e.register(n.Category)
	e.logger.Info("note added", "id", n.ID, "category", n.Category)

	if e.push(ctx, n) {
		n.LastSyncedAt = e.nowMillis()
	}
	e.refreshCounts()
	return &n, nil
}

// UpdateNote replaces the editable fields of an existing note. An unknown
// id is logged and returns (nil, nil).
func (e *Engine) UpdateNote(ctx context.Context, id, title, content, cat string) (*model.Note, error) {
	if err := validateNote(title, content); err != nil {
		return nil, err
	}

	existing, err := e.cache.Get(id)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	if existing == nil || existing.Deleted {
		e.logger.Warn("update of unknown note ignored", "id", id)
		return nil, nil
	}

	n := *existing
	n.Title = strings.TrimSpace(title)
	n.Content = content
	n.Category = category.Normalize(cat)
	n.UpdatedAt = max(e.nowMillis(), existing.UpdatedAt)
	n.LastSyncedAt = 0

	if err := e.cache.Upsert(n); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	e.register(n.Category)
	e.logger.Info("note updated", "id", n.ID)

	if e.push(ctx, n) {
		n.LastSyncedAt = e.nowMillis()
	}
	e.refreshCounts()
	return &n, nil
}

// DeleteNote removes the note locally, then from the remote store. A remote
// failure is logged only; the remote document then survives and may be
// pulled back by a later SyncAll.
func (e *Engine) DeleteNote(ctx context.Context, n model.Note) error {
	if err := e.cache.Delete(n); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	e.logger.Info("note deleted", "id", n.ID)

	if err := e.remote.Delete(ctx, n.ID); err != nil {
		e.logger.Warn("remote delete failed", "id", n.ID, "error", err)
	}
	e.refreshCounts()
	return nil
}

// push uploads n and stamps it synced on success.
func (e *Engine) push(ctx context.Context, n model.Note) bool {
	if err := e.remote.Upload(ctx, n); err != nil {
		e.logger.Warn("upload failed, note left dirty", "id", n.ID, "error", err)
		return false
	}
	if err := e.cache.MarkSynced(n, e.nowMillis()); err != nil {
		e.logger.Error("mark synced", "id", n.ID, "error", err)
		return false
	}
	return true
}

// SyncAll pushes every note visible to the current identity, then pulls
// the remote collection and inserts the notes the cache does not have.
// Notes present on both sides keep their local version.
func (e *Engine) SyncAll(ctx context.Context) Result {
	var res Result
	e.setStatus(StatusSyncing)
	start := time.Now()
	uid := e.identity.UID()

	snapshot, err := e.cache.ListAll(uid)
	if err != nil {
		res.Err = fmt.Errorf("snapshot: %w", err)
		e.logger.Error("sync snapshot failed", "error", err)
		e.fail("Sync", res.Err)
		return res
	}

	local := make(map[string]struct{}, len(snapshot))
	for _, n := range snapshot {
		local[n.ID] = struct{}{}
		if e.push(ctx, n) {
			res.Pushed++
		} else {
			res.PushFailed++
		}
	}

	remoteNotes, err := e.remote.DownloadAll(ctx)
	if err != nil {
		res.Err = err
		e.logger.Error("sync pull failed", "uid", uid, "error", err)
		e.fail("Sync", err)
		return res
	}
	res.Downloaded = len(remoteNotes)

	for _, rn := range remoteNotes {
		if _, ok := local[rn.ID]; ok {
			res.Skipped++
			continue
		}
		rn.LastSyncedAt = e.nowMillis()
		if err := e.cache.Upsert(rn); err != nil {
			e.logger.Error("insert pulled note", "id", rn.ID, "error", err)
			continue
		}
		e.register(rn.Category)
		res.Inserted++
	}
	e.refreshCounts()

	e.logger.Info("sync complete",
		"uid", uid,
		"pushed", res.Pushed,
		"push_failed", res.PushFailed,
		"downloaded", res.Downloaded,
		"inserted", res.Inserted,
		"duration", time.Since(start),
	)
	e.setStatus(StatusSynced)
	return res
}

// CheckConnection pings the remote store and publishes the outcome.
func (e *Engine) CheckConnection(ctx context.Context) error {
	if err := e.remote.Ping(ctx); err != nil {
		e.logger.Warn("remote ping failed", "error", err)
		e.fail("Remote connection", err)
		return err
	}
	e.setStatus(StatusConnected)
	return nil
}

// DirtyCount returns how many visible notes are waiting to be pushed.
func (e *Engine) DirtyCount(ctx context.Context) (int, error) {
	return e.cache.CountDirty(e.identity.UID())
}

// Notes runs a one-shot query scoped to the current identity.
func (e *Engine) Notes(f cache.Filter) ([]model.Note, error) {
	return e.cache.Query(e.identity.UID(), f)
}

// Note returns a visible note by id, or nil.
func (e *Engine) Note(id string) (*model.Note, error) {
	n, err := e.cache.Get(id)
	if err != nil || n == nil {
		return nil, err
	}
	if n.Deleted || !n.VisibleTo(e.identity.UID()) {
		return nil, nil
	}
	return n, nil
}

func (e *Engine) register(name string) {
	if err := e.categories.Register(name); err != nil {
		e.logger.Error("register category", "category", name, "error", err)
	}
}

func (e *Engine) refreshCounts() {
	if err := e.categories.RefreshCounts(e.identity.UID()); err != nil {
		e.logger.Error("refresh category counts", "error", err)
	}
}
