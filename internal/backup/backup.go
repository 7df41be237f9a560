// Package backup exports the local notes database as a passphrase-sealed
// archive and restores it on the same or another machine.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dukerupert/notesync/internal/apperr"
	"github.com/dukerupert/notesync/internal/database"
	"github.com/dukerupert/notesync/internal/store"
)

// Manager seals snapshots of an open database.
type Manager struct {
	db       *sql.DB
	settings *store.SettingsStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager creates a manager for db.
func NewManager(db *sql.DB, settings *store.SettingsStore, logger *slog.Logger) *Manager {
	return &Manager{db: db, settings: settings, logger: logger, now: time.Now}
}

func validatePassphrase(passphrase string) error {
	if passphrase == "" {
		return apperr.Validation("passphrase", "is required")
	}
	return nil
}

// Export writes a sealed snapshot of the database to w and records the time
// of the backup. It returns the number of bytes written.
func (m *Manager) Export(ctx context.Context, w io.Writer, passphrase string) (int64, error) {
	if err := validatePassphrase(passphrase); err != nil {
		return 0, err
	}

	dir, err := os.MkdirTemp("", "notesync-backup-")
	if err != nil {
		return 0, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	// VACUUM INTO gives a consistent copy without closing the live database.
	snapshot := filepath.Join(dir, "snapshot.db")
	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, snapshot); err != nil {
		return 0, fmt.Errorf("snapshot database: %w", err)
	}

	plaintext, err := os.ReadFile(snapshot)
	if err != nil {
		return 0, fmt.Errorf("read snapshot: %w", err)
	}

	sealed, err := Seal(plaintext, passphrase)
	if err != nil {
		return 0, fmt.Errorf("seal snapshot: %w", err)
	}

	n, err := w.Write(sealed)
	if err != nil {
		return int64(n), fmt.Errorf("write archive: %w", err)
	}

	at := m.now().UTC()
	if err := m.settings.Set(store.SettingLastBackup, at.Format(time.RFC3339)); err != nil {
		m.logger.Warn("record backup time", "error", err)
	}

	m.logger.Info("backup exported", "bytes", n, "at", at)
	return int64(n), nil
}

// LastBackup returns when Export last succeeded. ok is false if it never has.
func (m *Manager) LastBackup() (at time.Time, ok bool, err error) {
	v, ok, err := m.settings.Lookup(store.SettingLastBackup)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	at, err = time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse %s: %w", store.SettingLastBackup, err)
	}
	return at, true, nil
}

// Summary describes a restored database.
type Summary struct {
	Notes  int    `json:"notes"`
	UID    string `json:"uid,omitempty"`
	Device string `json:"device,omitempty"`
}

// Restore opens the archive read from r and replaces the database file at
// dbPath with it. The database at dbPath must not be open. Older archives are
// migrated to the current schema before the swap.
func Restore(r io.Reader, dbPath, passphrase string) (*Summary, error) {
	if err := validatePassphrase(passphrase); err != nil {
		return nil, err
	}

	sealed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	plaintext, err := Open(sealed, passphrase)
	if err != nil {
		return nil, err
	}

	tmp := dbPath + ".restore"
	defer removeDB(tmp)
	if err := os.WriteFile(tmp, plaintext, 0600); err != nil {
		return nil, fmt.Errorf("write restored db: %w", err)
	}

	summary, err := inspect(tmp)
	if err != nil {
		return nil, err
	}

	removeDB(dbPath)
	if err := os.Rename(tmp, dbPath); err != nil {
		return nil, fmt.Errorf("replace database: %w", err)
	}
	return summary, nil
}

// inspect migrates and integrity-checks the database at path.
func inspect(path string) (*Summary, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var integrity string
	if err := db.QueryRow(`PRAGMA integrity_check`).Scan(&integrity); err != nil {
		return nil, fmt.Errorf("integrity check: %w", err)
	}
	if integrity != "ok" {
		return nil, fmt.Errorf("integrity check failed: %s", integrity)
	}

	var s Summary
	if err := db.QueryRow(`SELECT COUNT(*) FROM notes WHERE deleted = 0`).Scan(&s.Notes); err != nil {
		return nil, fmt.Errorf("count notes: %w", err)
	}

	settings := store.NewSettingsStore(db)
	if s.UID, _, err = settings.Lookup(store.SettingCurrentUID); err != nil {
		return nil, err
	}
	if s.Device, _, err = settings.Lookup(store.SettingDeviceID); err != nil {
		return nil, err
	}

	// Leave no WAL behind so the rename moves the whole database.
	if _, err := db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return nil, fmt.Errorf("wal checkpoint: %w", err)
	}
	return &s, nil
}

func removeDB(path string) {
	os.Remove(path)
	os.Remove(path + "-wal")
	os.Remove(path + "-shm")
}
