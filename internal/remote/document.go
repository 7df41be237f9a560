package remote

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukerupert/notesync/internal/apperr"
	"github.com/dukerupert/notesync/internal/model"
)

// document is the wire form of a note. Field order is fixed so encoding
// the same note always yields the same bytes. lastSyncedAt is local state
// and never leaves the device.
type document struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	Category     string `json:"category"`
	OwnerID      string `json:"ownerId"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
	OriginDevice string `json:"originDevice"`
	Deleted      bool   `json:"deleted"`
}

// incoming mirrors document with pointers so absent fields can be told
// apart from zero values.
type incoming struct {
	ID           *string `json:"id"`
	Title        *string `json:"title"`
	Content      *string `json:"content"`
	Category     *string `json:"category"`
	OwnerID      *string `json:"ownerId"`
	CreatedAt    *int64  `json:"createdAt"`
	UpdatedAt    *int64  `json:"updatedAt"`
	OriginDevice *string `json:"originDevice"`
	Deleted      *bool   `json:"deleted"`
}

// Encode serialises n as stored under owner's collection.
func Encode(n model.Note, owner string) ([]byte, error) {
	data, err := json.Marshal(document{
		ID:           n.ID,
		Title:        n.Title,
		Content:      n.Content,
		Category:     n.Category,
		OwnerID:      owner,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
		OriginDevice: n.OriginDevice,
		Deleted:      n.Deleted,
	})
	if err != nil {
		return nil, fmt.Errorf("encode note %s: %w", n.ID, err)
	}
	return data, nil
}

// Decode parses a remote document. category and ownerId are optional; every
// other field is required. Failures are SyncDecode errors tagged with key.
func Decode(key string, data []byte) (model.Note, error) {
	var in incoming
	if err := json.Unmarshal(data, &in); err != nil {
		return model.Note{}, apperr.Sync(apperr.SyncDecode, key, err)
	}

	var missing []error
	require := func(ok bool, field string) {
		if !ok {
			missing = append(missing, fmt.Errorf("missing field %q", field))
		}
	}
	require(in.ID != nil, "id")
	require(in.Title != nil, "title")
	require(in.Content != nil, "content")
	require(in.CreatedAt != nil, "createdAt")
	require(in.UpdatedAt != nil, "updatedAt")
	require(in.OriginDevice != nil, "originDevice")
	require(in.Deleted != nil, "deleted")
	if len(missing) > 0 {
		return model.Note{}, apperr.Sync(apperr.SyncDecode, key, errors.Join(missing...))
	}

	n := model.Note{
		ID:           *in.ID,
		Title:        *in.Title,
		Content:      *in.Content,
		Category:     model.DefaultCategory,
		CreatedAt:    *in.CreatedAt,
		UpdatedAt:    *in.UpdatedAt,
		OriginDevice: *in.OriginDevice,
		Deleted:      *in.Deleted,
	}
	if in.Category != nil && *in.Category != "" {
		n.Category = *in.Category
	}
	if in.OwnerID != nil {
		n.OwnerID = *in.OwnerID
	}
	return n, nil
}
