package realtime

import (
	"context"
	"sync"

	"github.com/pkordes/wanderlust/backend/internal/repo"
)

// Bus carries record changes from the stores that write them to the hubs that
// refresh subscribers. It satisfies repo.Notifier.
type Bus interface {
	Publish(ctx context.Context, c repo.Change) error
	// StartForwarder calls onChange for every published change until ctx is done.
	StartForwarder(ctx context.Context, onChange func(repo.Change)) error
	Close() error
}

// LocalBus fans changes out within one process.
type LocalBus struct {
	mu       sync.RWMutex
	handlers []forwarder
}

type forwarder struct {
	ctx context.Context
	fn  func(repo.Change)
}

// NewLocalBus constructs an in-process Bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

// Publish calls every live forwarder synchronously.
func (b *LocalBus) Publish(_ context.Context, c repo.Change) error {
	b.mu.RLock()
	handlers := b.handlers
	b.mu.RUnlock()

	stale := false
	for _, h := range handlers {
		if h.ctx.Err() != nil {
			stale = true
			continue
		}
		h.fn(c)
	}
	if stale {
		b.prune()
	}
	return nil
}

func (b *LocalBus) StartForwarder(ctx context.Context, onChange func(repo.Change)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	// Copy on write so Publish can iterate a snapshot without holding the lock.
	next := make([]forwarder, 0, len(b.handlers)+1)
	next = append(next, b.handlers...)
	b.handlers = append(next, forwarder{ctx: ctx, fn: onChange})
	return nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	b.handlers = nil
	b.mu.Unlock()
	return nil
}

func (b *LocalBus) prune() {
	b.mu.Lock()
	defer b.mu.Unlock()
	live := make([]forwarder, 0, len(b.handlers))
	for _, h := range b.handlers {
		if h.ctx.Err() == nil {
			live = append(live, h)
		}
	}
	b.handlers = live
}

var _ Bus = (*LocalBus)(nil)
