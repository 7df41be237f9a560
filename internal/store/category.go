package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/notesync/internal/model"
)

type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryCols = `name, color, count, created_at`

// Upsert creates the category or refreshes its color. Count and created_at
// of an existing row are kept.
func (s *CategoryStore) Upsert(name, color string) error {
	_, err := s.db.Exec(
		`INSERT INTO categories (name, color, count, created_at) VALUES (?, ?, 0, ?)
		 ON CONFLICT(name) DO UPDATE SET color = excluded.color`,
		name, color, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	return nil
}

func (s *CategoryStore) GetByName(name string) (*model.Category, error) {
	var c model.Category
	err := s.db.QueryRow(`SELECT `+categoryCols+` FROM categories WHERE name = ?`, name).
		Scan(&c.Name, &c.Color, &c.Count, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// List returns all categories ordered by name.
func (s *CategoryStore) List() ([]model.Category, error) {
	rows, err := s.db.Query(`SELECT ` + categoryCols + ` FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.Name, &c.Color, &c.Count, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// SetCounts overwrites the advisory count of every category. Categories
// missing from counts are reset to zero.
func (s *CategoryStore) SetCounts(counts map[string]int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE categories SET count = 0`); err != nil {
		return fmt.Errorf("reset counts: %w", err)
	}
	for name, count := range counts {
		if _, err := tx.Exec(`UPDATE categories SET count = ? WHERE name = ?`, count, name); err != nil {
			return fmt.Errorf("set count for %q: %w", name, err)
		}
	}
	return tx.Commit()
}
