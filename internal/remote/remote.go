// Package remote is the per-identity cloud copy of the user's notes. Every
// identity owns the collection users/{uid}/notes; each note is one JSON
// document keyed by its id.
package remote

import (
	"context"
	"fmt"

	"github.com/dukerupert/notesync/internal/apperr"
	"github.com/dukerupert/notesync/internal/model"
)

// Store is the remote document collection for the active identity.
type Store interface {
	// Upload upserts the note's document. Uploading an unchanged note again
	// leaves the stored document byte-for-byte identical.
	Upload(ctx context.Context, n model.Note) error

	// DownloadAll fetches and decodes every document of the collection.
	// Documents that fail to decode are skipped and logged.
	DownloadAll(ctx context.Context) ([]model.Note, error)

	// Delete removes a document. A missing document is not an error.
	Delete(ctx context.Context, id string) error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}

// IdentitySource reports the uid that scopes remote calls. An empty uid
// means nobody is signed in.
type IdentitySource interface {
	UID() string
}

// CollectionPrefix returns the key prefix of uid's note collection.
func CollectionPrefix(uid string) string {
	return fmt.Sprintf("users/%s/notes/", uid)
}

// DocumentKey returns the key of a single note document.
func DocumentKey(uid, noteID string) string {
	return CollectionPrefix(uid) + noteID
}

func currentUID(ids IdentitySource) (string, error) {
	uid := ids.UID()
	if uid == "" {
		return "", apperr.Sync(apperr.SyncUnauthenticated, "", apperr.ErrNotAuthenticated)
	}
	return uid, nil
}
