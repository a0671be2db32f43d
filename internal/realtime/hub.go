// Package realtime keeps standing subscriptions to record-store paths.
// A subscriber receives the full child set of its path right away and again
// after every change that could affect it; there is no incremental diff.
package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pkordes/wanderlust/backend/internal/repo"
)

// Lister loads the child set a subscription delivers. repo.RecordStore
// satisfies it.
type Lister interface {
	Children(ctx context.Context, parent string, q repo.Query) ([]repo.Child, error)
}

// Hub routes changes to the subscriptions they affect.
type Hub struct {
	store Lister
	log   *slog.Logger

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewHub constructs a Hub reading snapshots from store.
func NewHub(store Lister, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		store: store,
		log:   log.With("component", "hub"),
		subs:  make(map[*Subscription]struct{}),
	}
}

// Start forwards every change published on bus into the hub until ctx is done.
func (h *Hub) Start(ctx context.Context, bus Bus) error {
	if err := bus.StartForwarder(ctx, h.Broadcast); err != nil {
		return fmt.Errorf("realtime.Hub.Start: %w", err)
	}
	return nil
}

// Broadcast marks every subscription affected by c for refresh. A change
// affects a subscription when it is at, below, or above the subscribed path.
// It never blocks.
func (h *Hub) Broadcast(c repo.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if repo.IsWithin(c.Path, s.parent) || repo.IsWithin(s.parent, c.Path) {
			s.markDirty()
		}
	}
}

// Len reports the number of open subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Subscribe registers onChange for the children of parent. The first delivery
// happens before Subscribe returns; later deliveries run on a dedicated
// goroutine, one at a time. Bursts of changes collapse into one delivery of
// the latest state.
//
// The subscription ends when ctx is done or Close is called. onChange must not
// call Close.
func (h *Hub) Subscribe(ctx context.Context, parent string, q repo.Query, onChange func([]repo.Child)) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		hub:      h,
		parent:   parent,
		query:    q,
		onChange: onChange,
		dirty:    make(chan struct{}, 1),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	// Register before the first load so a change racing with it marks the
	// subscription dirty instead of being lost.
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	children, err := h.store.Children(ctx, parent, q)
	if err != nil {
		h.remove(s)
		cancel()
		close(s.done)
		return nil, fmt.Errorf("realtime.Hub.Subscribe: %w", err)
	}
	onChange(children)

	go s.run(ctx)
	return s, nil
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

// Subscription is the handle returned by Hub.Subscribe.
type Subscription struct {
	hub      *Hub
	parent   string
	query    repo.Query
	onChange func([]repo.Child)

	dirty  chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// Close stops deliveries and waits for the delivery goroutine to exit.
// No callback runs after Close returns. Close is idempotent.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

// Done is closed once the subscription has stopped.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Subscription) run(ctx context.Context) {
	defer close(s.done)
	defer s.hub.remove(s)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.dirty:
		}

		children, err := s.hub.store.Children(ctx, s.parent, s.query)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.hub.log.WarnContext(ctx, "refresh subscription failed", "path", s.parent, "error", err)
			continue
		}
		s.onChange(children)
	}
}
