package remote

import (
	"context"
	"errors"

	"github.com/dukerupert/notesync/internal/apperr"
	"github.com/dukerupert/notesync/internal/model"
)

// ErrNotConfigured is wrapped by every Offline failure.
var ErrNotConfigured = errors.New("remote store not configured")

// Offline is used when no remote is configured. Every call fails as a
// network error, so notes stay dirty until a remote becomes available.
type Offline struct{}

func (Offline) Upload(ctx context.Context, n model.Note) error {
	return apperr.Sync(apperr.SyncNetwork, n.ID, ErrNotConfigured)
}

func (Offline) DownloadAll(ctx context.Context) ([]model.Note, error) {
	return nil, apperr.Sync(apperr.SyncNetwork, "", ErrNotConfigured)
}

func (Offline) Delete(ctx context.Context, id string) error {
	return apperr.Sync(apperr.SyncNetwork, id, ErrNotConfigured)
}

func (Offline) Ping(ctx context.Context) error {
	return apperr.Sync(apperr.SyncNetwork, "", ErrNotConfigured)
}
