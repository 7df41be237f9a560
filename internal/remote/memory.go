package remote

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/dukerupert/notesync/internal/apperr"
	"github.com/dukerupert/notesync/internal/model"
)

// Memory is an in-process Store holding raw documents per key. It backs
// tests and the "memory" remote mode, and can be told to fail like a
// broken network.
type Memory struct {
	ids    IdentitySource
	logger *slog.Logger

	mu            sync.Mutex
	docs          map[string][]byte
	failUploads   error
	failDownloads error
	failDeletes   error
	uploads       int
}

func NewMemory(ids IdentitySource, logger *slog.Logger) *Memory {
	return &Memory{ids: ids, logger: logger, docs: make(map[string][]byte)}
}

// FailUploads makes every Upload fail with a network error wrapping err.
// Pass nil to restore normal behaviour. FailDownloads and FailDeletes work
// the same way.
func (m *Memory) FailUploads(err error) {
	m.mu.Lock()
	m.failUploads = err
	m.mu.Unlock()
}

func (m *Memory) FailDownloads(err error) {
	m.mu.Lock()
	m.failDownloads = err
	m.mu.Unlock()
}

func (m *Memory) FailDeletes(err error) {
	m.mu.Lock()
	m.failDeletes = err
	m.mu.Unlock()
}

// Put stores raw bytes at key, bypassing encoding.
func (m *Memory) Put(key string, data []byte) {
	m.mu.Lock()
	m.docs[key] = append([]byte(nil), data...)
	m.mu.Unlock()
}

// Document returns a copy of the raw bytes stored at key.
func (m *Memory) Document(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.docs[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Keys returns every stored key in order.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.docs))
	for k := range m.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Uploads returns the number of successful uploads.
func (m *Memory) Uploads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}

func (m *Memory) Upload(ctx context.Context, n model.Note) error {
	uid, err := currentUID(m.ids)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failUploads != nil {
		return apperr.Sync(apperr.SyncNetwork, n.ID, m.failUploads)
	}
	data, err := Encode(n, uid)
	if err != nil {
		return apperr.Sync(apperr.SyncDecode, n.ID, err)
	}
	m.docs[DocumentKey(uid, n.ID)] = data
	m.uploads++
	return nil
}

func (m *Memory) DownloadAll(ctx context.Context) ([]model.Note, error) {
	uid, err := currentUID(m.ids)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.failDownloads != nil {
		err := m.failDownloads
		m.mu.Unlock()
		return nil, apperr.Sync(apperr.SyncNetwork, "", err)
	}
	prefix := CollectionPrefix(uid)
	var keys []string
	raw := make(map[string][]byte)
	for k, v := range m.docs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
			raw[k] = v
		}
	}
	m.mu.Unlock()

	sort.Strings(keys)
	var notes []model.Note
	for _, k := range keys {
		n, err := Decode(k, raw[k])
		if err != nil {
			m.logger.Warn("skipping malformed remote note", "key", k, "error", err)
			continue
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	uid, err := currentUID(m.ids)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDeletes != nil {
		return apperr.Sync(apperr.SyncNetwork, id, m.failDeletes)
	}
	delete(m.docs, DocumentKey(uid, id))
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}
