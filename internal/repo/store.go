// Package repo contains the record store: a path-addressed hierarchical
// document store holding every trip, itinerary item, expense and packing item.
// The file holds the contract; postgres.go and memory.go implement it.
// No business logic lives here, only persistence and change notification.
package repo

import (
	"context"
	"log/slog"
	"time"
)

// Node is the JSON object stored at a path.
// Values are JSON-shaped: string, float64, bool, nil, []any and map[string]any.
type Node map[string]any

// Child is one direct child of a parent path.
type Child struct {
	Key   string
	Value Node
}

// Query narrows and orders a Children listing.
type Query struct {
	// OrderByChild sorts children by the named top-level field. Children
	// missing the field sort first; ties are broken by key. When empty,
	// children are ordered by key.
	OrderByChild string

	// EqualTo keeps only children whose OrderByChild field equals this value.
	// Ignored when nil or when OrderByChild is empty.
	EqualTo any
}

// ServerValue is a placeholder resolved by the store at write time.
type ServerValue string

// ServerTimestamp is replaced by the store's current time in epoch
// milliseconds wherever it appears in a written Node.
const ServerTimestamp ServerValue = "server:timestamp"

// TransformFunc computes the next value of a node from its current value.
// exists is false when nothing is stored at the path. Returning a nil Node
// removes the node (and its descendants); returning an error aborts the
// transform without writing.
type TransformFunc func(current Node, exists bool) (Node, error)

// RecordStore defines the persistence operations of the record store.
// Services depend on this interface, not on a concrete implementation, which
// allows them to be unit-tested against the in-memory store or a mock.
type RecordStore interface {
	// Push stores value under a newly generated key below parent and returns
	// the key. Keys sort lexically in creation order.
	Push(ctx context.Context, parent string, value Node) (string, error)

	// Set replaces the node at path, creating it if absent.
	Set(ctx context.Context, path string, value Node) error

	// Update merges fields into the existing node at path. A nil field value
	// deletes that field. Returns domain.ErrNotFound if no node exists.
	Update(ctx context.Context, path string, fields Node) error

	// Get returns the node at path. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, path string) (Node, error)

	// Children returns the direct children of parent ordered per q.
	// An empty result is not an error.
	Children(ctx context.Context, parent string, q Query) ([]Child, error)

	// Remove deletes the node at path and every node below it.
	// Removing an absent path is not an error.
	Remove(ctx context.Context, path string) error

	// Transform atomically replaces the node at path with fn's result.
	Transform(ctx context.Context, path string, fn TransformFunc) error
}

// Change describes a write at Path. Subscribers of Path, of any ancestor of
// Path, and of any descendant of Path must refresh.
type Change struct {
	Path string `json:"path"`
}

// Notifier receives a Change after every successful write.
// realtime.LocalBus and realtime.RedisBus implement it.
type Notifier interface {
	Publish(ctx context.Context, c Change) error
}

// notify publishes c and logs rather than fails when the notifier errors:
// the write itself has already been committed.
func notify(ctx context.Context, n Notifier, log *slog.Logger, path string) {
	if n == nil {
		return
	}
	if err := n.Publish(ctx, Change{Path: path}); err != nil {
		log.WarnContext(ctx, "publish change failed", "path", path, "error", err)
	}
}

type options struct {
	now      func() time.Time
	notifier Notifier
	log      *slog.Logger
}

// Option configures a RecordStore implementation.
type Option func(*options)

// WithClock overrides the clock used to resolve ServerTimestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithNotifier sets the Notifier told about every write.
func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithLogger sets the logger used for notifier failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

func newOptions(opts []Option) options {
	o := options{now: time.Now, log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
