package model

// DefaultCategory is assigned to notes created without a category.
const DefaultCategory = "General"

// Note is a single user note as held in the local cache. Timestamps are
// epoch milliseconds.
type Note struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	Category     string `json:"category"`
	OwnerID      string `json:"owner_id"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
	LastSyncedAt int64  `json:"last_synced_at"`
	Deleted      bool   `json:"deleted"`
	OriginDevice string `json:"origin_device"`
}

// Dirty reports whether the note has local changes not yet confirmed
// pushed to the remote store.
func (n Note) Dirty() bool {
	return n.LastSyncedAt == 0
}

// VisibleTo reports whether the note belongs to uid. Unowned notes predate
// per-user scoping and are visible to everyone.
func (n Note) VisibleTo(uid string) bool {
	return n.OwnerID == "" || n.OwnerID == uid
}
