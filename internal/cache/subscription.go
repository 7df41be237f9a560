package cache

import (
	"context"
	"sync"

	"github.com/dukerupert/notesync/internal/model"
)

// Subscription is a live query whose filter can be swapped. Each SetFilter
// cancels the running watch and waits for it to exit before the replacement
// starts, so at most one stream is live and nothing computed for a
// superseded filter is delivered once SetFilter has returned.
type Subscription struct {
	cache  *Cache
	owner  func() string
	parent context.Context
	out    chan []model.Note

	mu     sync.Mutex
	filter Filter
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// Subscribe starts a subscription with an empty filter. The subscription
// ends when ctx is cancelled or Close is called.
func (c *Cache) Subscribe(ctx context.Context, owner func() string) *Subscription {
	s := &Subscription{
		cache:  c,
		owner:  owner,
		parent: ctx,
		out:    make(chan []model.Note),
	}
	s.SetFilter(Filter{})
	return s
}

// Results delivers result sets for the current filter. It is never closed
// while the subscription is open; after Close no further values are sent.
func (s *Subscription) Results() <-chan []model.Note {
	return s.out
}

// Filter returns the filter currently in effect.
func (s *Subscription) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilter replaces the active query.
func (s *Subscription) SetFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.stopLocked()

	ctx, cancel := context.WithCancel(s.parent)
	done := make(chan struct{})
	s.filter = f
	s.cancel = cancel
	s.done = done

	results := s.cache.Watch(ctx, s.owner, f)
	go func() {
		defer close(done)
		for notes := range results {
			select {
			case s.out <- notes:
			case <-ctx.Done():
				// Drain so the watch loop can observe cancellation and exit.
				for range results {
				}
				return
			}
		}
	}()
}

// Close stops the running query. It is safe to call more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.stopLocked()
}

func (s *Subscription) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}
