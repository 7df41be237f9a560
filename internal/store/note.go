package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/notesync/internal/model"
)

type NoteStore struct {
	db *sql.DB
}

func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: db}
}

// NoteFilter narrows a Query. Search matches title or content
// case-insensitively; Category, when non-nil, must match exactly. Only notes
// owned by OwnerID or unowned are considered.
type NoteFilter struct {
	OwnerID  string
	Search   string
	Category *string
}

func scanNote(scanner interface{ Scan(...any) error }) (*model.Note, error) {
	var n model.Note
	var deleted int

	err := scanner.Scan(
		&n.ID, &n.Title, &n.Content, &n.Category, &n.OwnerID,
		&n.CreatedAt, &n.UpdatedAt, &n.LastSyncedAt, &deleted, &n.OriginDevice,
	)
	if err != nil {
		return nil, err
	}

	n.Deleted = deleted != 0
	return &n, nil
}

const noteCols = `id, title, content, category, owner_id, created_at, updated_at, last_synced_at, deleted, origin_device`

// Upsert inserts the note or replaces every column of the row with the same id.
func (s *NoteStore) Upsert(n model.Note) error {
	var d int
	if n.Deleted {
		d = 1
	}

	_, err := s.db.Exec(
		`INSERT INTO notes (`+noteCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   content = excluded.content,
		   category = excluded.category,
		   owner_id = excluded.owner_id,
		   created_at = excluded.created_at,
		   updated_at = excluded.updated_at,
		   last_synced_at = excluded.last_synced_at,
		   deleted = excluded.deleted,
		   origin_device = excluded.origin_device`,
		n.ID, n.Title, n.Content, n.Category, n.OwnerID,
		n.CreatedAt, n.UpdatedAt, n.LastSyncedAt, d, n.OriginDevice,
	)
	if err != nil {
		return fmt.Errorf("upsert note: %w", err)
	}
	return nil
}

func (s *NoteStore) GetByID(id string) (*model.Note, error) {
	row := s.db.QueryRow(`SELECT `+noteCols+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// MarkSynced stamps last_synced_at on the note, but only if it still carries
// the updated_at that was pushed. It reports whether a row was stamped.
func (s *NoteStore) MarkSynced(id string, updatedAt, syncedAt int64) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE notes SET last_synced_at = ? WHERE id = ? AND updated_at = ?`,
		syncedAt, id, updatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("mark synced: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return count > 0, nil
}

func (s *NoteStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// ListAll returns every note owned by ownerID or unowned, soft-deleted rows
// included, newest first.
func (s *NoteStore) ListAll(ownerID string) ([]model.Note, error) {
	rows, err := s.db.Query(
		`SELECT `+noteCols+` FROM notes
		 WHERE owner_id = ? OR owner_id = ''
		 ORDER BY updated_at DESC, id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

// Query returns non-deleted notes matching f, ordered by updated_at DESC.
// The search term is matched in Go so case folding covers non-ASCII text.
func (s *NoteStore) Query(f NoteFilter) ([]model.Note, error) {
	query := `SELECT ` + noteCols + ` FROM notes
		 WHERE deleted = 0 AND (owner_id = ? OR owner_id = '')`
	args := []any{f.OwnerID}
	if f.Category != nil {
		query += ` AND category = ?`
		args = append(args, *f.Category)
	}
	query += ` ORDER BY updated_at DESC, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	needle := strings.ToLower(strings.TrimSpace(f.Search))
	var notes []model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(n.Title), needle) &&
			!strings.Contains(strings.ToLower(n.Content), needle) {
			continue
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

// CountDirty returns the number of visible notes awaiting a push.
func (s *NoteStore) CountDirty(ownerID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notes
		 WHERE last_synced_at = 0 AND (owner_id = ? OR owner_id = '')`,
		ownerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count dirty notes: %w", err)
	}
	return count, nil
}

// CategoryCounts returns the number of non-deleted notes per category among
// the notes visible to ownerID.
func (s *NoteStore) CategoryCounts(ownerID string) (map[string]int, error) {
	rows, err := s.db.Query(
		`SELECT category, COUNT(*) FROM notes
		 WHERE deleted = 0 AND (owner_id = ? OR owner_id = '')
		 GROUP BY category`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[name] = count
	}
	return counts, rows.Err()
}
