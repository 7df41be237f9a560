package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/notesync/internal/cache"
	"github.com/dukerupert/notesync/internal/category"
	"github.com/dukerupert/notesync/internal/database"
	"github.com/dukerupert/notesync/internal/identity"
	"github.com/dukerupert/notesync/internal/remote"
	"github.com/dukerupert/notesync/internal/store"
	notesync "github.com/dukerupert/notesync/internal/sync"
	websocket "github.com/dukerupert/notesync/internal/websocket"
)

func newTestServer(t *testing.T) (*Server, *notesync.Engine) {
	t.Helper()
	db, err := database.Open(database.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notes := store.NewNoteStore(db)
	c := cache.New(notes, logger)
	reg := category.NewRegistry(store.NewCategoryStore(db), notes, logger)
	params := identity.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}
	ids := identity.NewManager(identity.NewLocalProvider(store.NewAccountStore(db), store.NewSettingsStore(db), params), logger)
	engine := notesync.New(c, reg, remote.NewMemory(ids, logger), ids, "test", logger)

	return New(engine, c, reg, ids, logger), engine
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMethodRouting(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/sync", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/categories", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCredentialRateLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	body := `{"email":"ghost@example.com","password":"secret1"}`
	for i := 0; i < credentialAttempts; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/auth/signin", strings.NewReader(body)))
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/auth/signin", strings.NewReader(body)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Other routes are unaffected.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/auth/me", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusBroadcast(t *testing.T) {
	srv, engine := newTestServer(t)
	_, err := engine.EnsureAuthenticated(context.Background())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(ts.URL+"/api/sync", "application/json", bytes.NewReader(nil))
	require.NoError(t, err)
	resp.Body.Close()

	var got []string
	for len(got) < 2 {
		var msg websocket.Message
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		if msg.Type == "sync_status" {
			got = append(got, msg.Extra["status"].(string))
		}
	}
	assert.Equal(t, []string{notesync.StatusSyncing, notesync.StatusSynced}, got)
}
