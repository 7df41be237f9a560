package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/notesync/internal/database"
	"github.com/dukerupert/notesync/internal/model"
	"github.com/dukerupert/notesync/internal/store"
)

func TestResolveDevice(t *testing.T) {
	db, err := database.Open(database.MemoryPath)
	require.NoError(t, err)
	defer db.Close()
	settings := store.NewSettingsStore(db)

	first, err := resolveDevice(settings, "")
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	again, err := resolveDevice(settings, "")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	named, err := resolveDevice(settings, "laptop")
	require.NoError(t, err)
	assert.Equal(t, "laptop", named)

	stored, err := resolveDevice(settings, "")
	require.NoError(t, err)
	assert.Equal(t, "laptop", stored)
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()), buf.String())
	return buf.String()
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NOTESYNC_REMOTE", "offline")
	t.Setenv("NOTESYNC_DEVICE", "test-box")
	t.Setenv("NOTESYNC_LOG_LEVEL", "error")
	db := filepath.Join(dir, "notes.db")
	cfgFile := filepath.Join(dir, "missing.yaml")

	out := run(t, "--config", cfgFile, "--db", db, "add", "--title", "Groceries", "--content", "milk", "--category", "Shopping")
	id, mark, _ := strings.Cut(strings.TrimSpace(out), " ")
	require.NotEmpty(t, id)
	assert.Equal(t, "pending", mark, "offline remote leaves the note dirty")

	out = run(t, "--config", cfgFile, "--db", db, "ls", "--json")
	var notes []model.Note
	require.NoError(t, json.Unmarshal([]byte(out), &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "Groceries", notes[0].Title)
	assert.Equal(t, "test-box", notes[0].OriginDevice)

	out = run(t, "--config", cfgFile, "--db", db, "status")
	assert.Contains(t, out, "user:    User (anonymous)")
	assert.Contains(t, out, "pending: 1")

	out = run(t, "--config", cfgFile, "--db", db, "categories")
	assert.Contains(t, out, "Shopping")

	out = run(t, "--config", cfgFile, "--db", db, "whoami")
	assert.Contains(t, out, "anonymous")

	archive := filepath.Join(dir, "notes.backup")
	out = run(t, "--config", cfgFile, "--db", db, "last-backup")
	assert.Equal(t, "never", strings.TrimSpace(out))
	out = run(t, "--config", cfgFile, "--db", db, "backup", "--file", archive, "--passphrase", "s3cret")
	assert.Contains(t, out, "wrote "+archive)

	run(t, "--config", cfgFile, "--db", db, "rm", id)
	out = run(t, "--config", cfgFile, "--db", db, "ls", "--json")
	assert.Equal(t, "[]", strings.TrimSpace(out))

	out = run(t, "--config", cfgFile, "--db", db, "restore", "--file", archive, "--passphrase", "s3cret")
	assert.Contains(t, out, "restored 1 notes")
	assert.Contains(t, out, "device test-box")

	out = run(t, "--config", cfgFile, "--db", db, "ls", "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, id, notes[0].ID)
}
