// Package category keeps the index of known note categories and their
// display colors.
package category

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukerupert/notesync/internal/model"
	"github.com/dukerupert/notesync/internal/store"
)

// DefaultColor is used for any category without an entry in the color table.
const DefaultColor = "#6200EE"

// Predefined lists the categories offered when creating a note.
var Predefined = []string{
	"General", "Work", "Personal", "Ideas", "To-Do",
	"Important", "Shopping", "Travel", "Health", "Finance",
}

var colors = map[string]string{
	"Work":      "#FF5722",
	"Personal":  "#2196F3",
	"Ideas":     "#FF9800",
	"Important": "#F44336",
	"To-Do":     "#4CAF50",
	"Shopping":  "#9C27B0",
	"Travel":    "#00BCD4",
	"Health":    "#8BC34A",
	"Finance":   "#FFC107",
}

// ColorFor returns the fixed color for name. Matching is exact; unknown
// names get DefaultColor.
func ColorFor(name string) string {
	if c, ok := colors[name]; ok {
		return c
	}
	return DefaultColor
}

// Normalize trims name and substitutes the default category when empty.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.DefaultCategory
	}
	return name
}

// Registry is a denormalized index over the category values seen on notes.
// Categories are never removed.
type Registry struct {
	categories *store.CategoryStore
	notes      *store.NoteStore
	logger     *slog.Logger

	mu       sync.Mutex
	watchers map[chan struct{}]struct{}
}

func NewRegistry(cs *store.CategoryStore, ns *store.NoteStore, logger *slog.Logger) *Registry {
	return &Registry{
		categories: cs,
		notes:      ns,
		logger:     logger,
		watchers:   make(map[chan struct{}]struct{}),
	}
}

// Register records name with its color. Calling it again is a no-op apart
// from refreshing the color.
func (r *Registry) Register(name string) error {
	name = Normalize(name)
	if err := r.categories.Upsert(name, ColorFor(name)); err != nil {
		return err
	}
	r.notify()
	return nil
}

// List returns the known categories ordered by name.
func (r *Registry) List() ([]model.Category, error) {
	cats, err := r.categories.List()
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []model.Category{}
	}
	return cats, nil
}

// RefreshCounts recomputes the advisory per-category note counts from the
// notes visible to ownerID.
func (r *Registry) RefreshCounts(ownerID string) error {
	counts, err := r.notes.CategoryCounts(ownerID)
	if err != nil {
		return err
	}
	if err := r.categories.SetCounts(counts); err != nil {
		return err
	}
	r.notify()
	return nil
}

// Watch streams the category list now and after every change until ctx is
// cancelled.
func (r *Registry) Watch(ctx context.Context) <-chan []model.Category {
	out := make(chan []model.Category)
	wake := make(chan struct{}, 1)

	r.mu.Lock()
	r.watchers[wake] = struct{}{}
	r.mu.Unlock()

	go func() {
		defer close(out)
		defer func() {
			r.mu.Lock()
			delete(r.watchers, wake)
			r.mu.Unlock()
		}()

		for {
			cats, err := r.List()
			if err != nil {
				r.logger.Error("watch categories", "error", err)
			} else {
				select {
				case out <- cats:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-wake:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func (r *Registry) notify() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ch := range r.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
