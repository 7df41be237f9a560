package store

import (
	"testing"

	"github.com/dukerupert/notesync/internal/database"
	"github.com/dukerupert/notesync/internal/model"
)

func setupNoteTestDB(t *testing.T) *NoteStore {
	t.Helper()
	db, err := database.Open(database.MemoryPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewNoteStore(db)
}

func testNote(id, owner string, updatedAt int64) model.Note {
	return model.Note{
		ID:           id,
		Title:        "Title " + id,
		Content:      "Content " + id,
		Category:     model.DefaultCategory,
		OwnerID:      owner,
		CreatedAt:    updatedAt,
		UpdatedAt:    updatedAt,
		OriginDevice: "test-device",
	}
}

func strPtr(s string) *string { return &s }

func TestNoteUpsertAndGet(t *testing.T) {
	ns := setupNoteTestDB(t)

	n := testNote("n1", "u1", 1000)
	if err := ns.Upsert(n); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := ns.GetByID("n1")
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if got == nil {
		t.Fatal("expected note, got nil")
	}
	if *got != n {
		t.Errorf("got %+v, want %+v", *got, n)
	}

	// Replace by id
	n.Title = "Changed"
	n.Deleted = true
	n.LastSyncedAt = 2000
	if err := ns.Upsert(n); err != nil {
		t.Fatalf("upsert replace: %v", err)
	}
	got, _ = ns.GetByID("n1")
	if got.Title != "Changed" || !got.Deleted || got.LastSyncedAt != 2000 {
		t.Errorf("replace not applied: %+v", *got)
	}

	all, err := ns.ListAll("u1")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("got %d rows after double upsert, want 1", len(all))
	}
}

func TestNoteNotFound(t *testing.T) {
	ns := setupNoteTestDB(t)

	got, err := ns.GetByID("missing")
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if got != nil {
		t.Error("expected nil for non-existent note")
	}
}

func TestNoteDelete(t *testing.T) {
	ns := setupNoteTestDB(t)
	ns.Upsert(testNote("n1", "u1", 1000))

	if err := ns.Delete("n1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := ns.GetByID("n1")
	if got != nil {
		t.Error("expected nil after delete")
	}

	// Deleting again is not an error
	if err := ns.Delete("n1"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestNoteQueryFilters(t *testing.T) {
	ns := setupNoteTestDB(t)

	groceries := testNote("a", "u1", 3000)
	groceries.Title = "Groceries"
	groceries.Content = "Milk, EGGS"
	groceries.Category = "Shopping"

	meeting := testNote("b", "u1", 2000)
	meeting.Title = "Standup"
	meeting.Content = "buy eggs for the team"
	meeting.Category = "Work"

	trashed := testNote("c", "u1", 4000)
	trashed.Title = "eggs benedict"
	trashed.Category = "Shopping"
	trashed.Deleted = true

	legacy := testNote("d", "", 1000)
	legacy.Title = "Old eggs note"
	legacy.Category = "Shopping"

	other := testNote("e", "u2", 5000)
	other.Title = "eggs elsewhere"

	for _, n := range []model.Note{groceries, meeting, trashed, legacy, other} {
		if err := ns.Upsert(n); err != nil {
			t.Fatalf("upsert %s: %v", n.ID, err)
		}
	}

	tests := []struct {
		name   string
		filter NoteFilter
		want   []string
	}{
		{"all visible", NoteFilter{OwnerID: "u1"}, []string{"a", "b", "d"}},
		{"search case-insensitive", NoteFilter{OwnerID: "u1", Search: "eggs"}, []string{"a", "b", "d"}},
		{"search title", NoteFilter{OwnerID: "u1", Search: "GROC"}, []string{"a"}},
		{"category", NoteFilter{OwnerID: "u1", Category: strPtr("Shopping")}, []string{"a", "d"}},
		{"search and category", NoteFilter{OwnerID: "u1", Search: "team", Category: strPtr("Shopping")}, nil},
		{"other owner", NoteFilter{OwnerID: "u2"}, []string{"e", "d"}},
		{"no owner sees legacy only", NoteFilter{}, []string{"d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes, err := ns.Query(tt.filter)
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			if len(notes) != len(tt.want) {
				t.Fatalf("got %d notes, want %d", len(notes), len(tt.want))
			}
			for i, id := range tt.want {
				if notes[i].ID != id {
					t.Errorf("notes[%d] = %q, want %q", i, notes[i].ID, id)
				}
				if notes[i].Deleted {
					t.Errorf("deleted note %q returned", notes[i].ID)
				}
			}
		})
	}
}

func TestNoteListAllIncludesDeleted(t *testing.T) {
	ns := setupNoteTestDB(t)

	n := testNote("a", "u1", 1000)
	n.Deleted = true
	ns.Upsert(n)
	ns.Upsert(testNote("b", "u2", 2000))

	all, err := ns.ListAll("u1")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 || all[0].ID != "a" {
		t.Errorf("got %+v, want only note a", all)
	}
}

func TestNoteMarkSynced(t *testing.T) {
	ns := setupNoteTestDB(t)
	ns.Upsert(testNote("n1", "u1", 1000))

	ok, err := ns.MarkSynced("n1", 1000, 5000)
	if err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if !ok {
		t.Error("expected row to be stamped")
	}
	got, _ := ns.GetByID("n1")
	if got.LastSyncedAt != 5000 {
		t.Errorf("last_synced_at = %d, want 5000", got.LastSyncedAt)
	}

	// A stale version is not stamped
	ok, err = ns.MarkSynced("n1", 999, 6000)
	if err != nil {
		t.Fatalf("mark synced stale: %v", err)
	}
	if ok {
		t.Error("expected stale stamp to be ignored")
	}
	got, _ = ns.GetByID("n1")
	if got.LastSyncedAt != 5000 {
		t.Errorf("last_synced_at = %d, want 5000", got.LastSyncedAt)
	}
}

func TestNoteCountsAndDirty(t *testing.T) {
	ns := setupNoteTestDB(t)

	a := testNote("a", "u1", 1000)
	a.Category = "Work"
	b := testNote("b", "u1", 1000)
	b.Category = "Work"
	b.LastSyncedAt = 2000
	c := testNote("c", "u1", 1000)
	c.Category = "Work"
	c.Deleted = true
	other := testNote("d", "u2", 1000)
	other.Category = "Work"
	legacy := testNote("e", "", 1000)
	legacy.Category = "Ideas"
	for _, n := range []model.Note{a, b, c, other, legacy} {
		ns.Upsert(n)
	}

	dirty, err := ns.CountDirty("u1")
	if err != nil {
		t.Fatalf("count dirty: %v", err)
	}
	if dirty != 2 {
		t.Errorf("dirty = %d, want 2", dirty)
	}

	counts, err := ns.CategoryCounts("u1")
	if err != nil {
		t.Fatalf("category counts: %v", err)
	}
	if counts["Work"] != 2 {
		t.Errorf("Work count = %d, want 2", counts["Work"])
	}
	if counts["Ideas"] != 1 {
		t.Errorf("Ideas count = %d, want 1 (unowned note)", counts["Ideas"])
	}

	counts, err = ns.CategoryCounts("u2")
	if err != nil {
		t.Fatalf("category counts u2: %v", err)
	}
	if counts["Work"] != 1 {
		t.Errorf("u2 Work count = %d, want 1", counts["Work"])
	}
}
