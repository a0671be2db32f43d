package repo

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/pkordes/wanderlust/backend/internal/domain"
)

// memoryStore is the in-memory implementation of RecordStore.
// It backs unit tests and STORE_DRIVER=memory development runs. Every node is
// normalized through JSON on write so reads look exactly like Postgres reads.
type memoryStore struct {
	options
	mu    sync.RWMutex
	nodes map[string]Node
}

// NewMemoryStore constructs an empty in-memory RecordStore.
func NewMemoryStore(opts ...Option) RecordStore {
	return &memoryStore{
		options: newOptions(opts),
		nodes:   make(map[string]Node),
	}
}

func (s *memoryStore) Push(ctx context.Context, parent string, value Node) (string, error) {
	if err := validatePath(parent); err != nil {
		return "", fmt.Errorf("repo.memoryStore.Push: %w", err)
	}
	key, err := newKey()
	if err != nil {
		return "", fmt.Errorf("repo.memoryStore.Push: %w: %w", domain.ErrTransport, err)
	}
	path := Join(parent, key)
	if err := s.write(path, value); err != nil {
		return "", fmt.Errorf("repo.memoryStore.Push: %w", err)
	}
	notify(ctx, s.notifier, s.log, path)
	return key, nil
}

func (s *memoryStore) Set(ctx context.Context, path string, value Node) error {
	if err := validatePath(path); err != nil {
		return fmt.Errorf("repo.memoryStore.Set: %w", err)
	}
	if err := s.write(path, value); err != nil {
		return fmt.Errorf("repo.memoryStore.Set: %w", err)
	}
	notify(ctx, s.notifier, s.log, path)
	return nil
}

func (s *memoryStore) Update(ctx context.Context, path string, fields Node) error {
	if err := validatePath(path); err != nil {
		return fmt.Errorf("repo.memoryStore.Update: %w", err)
	}
	patch, err := normalizeNode(resolveServerValues(fields, s.now()))
	if err != nil {
		return fmt.Errorf("repo.memoryStore.Update: %w", err)
	}

	s.mu.Lock()
	current, ok := s.nodes[path]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("repo.memoryStore.Update: %w", domain.ErrNotFound)
	}
	next := maps.Clone(current)
	for k, v := range patch {
		if v == nil {
			delete(next, k)
			continue
		}
		next[k] = v
	}
	s.nodes[path] = next
	s.mu.Unlock()

	notify(ctx, s.notifier, s.log, path)
	return nil
}

func (s *memoryStore) Get(_ context.Context, path string) (Node, error) {
	if err := validatePath(path); err != nil {
		return nil, fmt.Errorf("repo.memoryStore.Get: %w", err)
	}
	s.mu.RLock()
	n, ok := s.nodes[path]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("repo.memoryStore.Get: %w", domain.ErrNotFound)
	}
	return cloneNode(n), nil
}

func (s *memoryStore) Children(_ context.Context, parent string, q Query) ([]Child, error) {
	if err := validatePath(parent); err != nil {
		return nil, fmt.Errorf("repo.memoryStore.Children: %w", err)
	}
	s.mu.RLock()
	children := []Child{}
	for path, n := range s.nodes {
		if Parent(path) == parent {
			children = append(children, Child{Key: Key(path), Value: cloneNode(n)})
		}
	}
	s.mu.RUnlock()

	children = filterChildren(children, q)
	sortChildren(children, q)
	return children, nil
}

func (s *memoryStore) Remove(ctx context.Context, path string) error {
	if err := validatePath(path); err != nil {
		return fmt.Errorf("repo.memoryStore.Remove: %w", err)
	}
	s.mu.Lock()
	removed := s.removeLocked(path)
	s.mu.Unlock()

	if removed {
		notify(ctx, s.notifier, s.log, path)
	}
	return nil
}

func (s *memoryStore) Transform(ctx context.Context, path string, fn TransformFunc) error {
	if err := validatePath(path); err != nil {
		return fmt.Errorf("repo.memoryStore.Transform: %w", err)
	}

	s.mu.Lock()
	current, exists := s.nodes[path]
	next, err := fn(cloneNode(current), exists)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("repo.memoryStore.Transform: %w", err)
	}
	if next == nil {
		s.removeLocked(path)
	} else {
		normalized, err := normalizeNode(resolveServerValues(next, s.now()))
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("repo.memoryStore.Transform: %w", err)
		}
		s.nodes[path] = normalized
	}
	s.mu.Unlock()

	notify(ctx, s.notifier, s.log, path)
	return nil
}

// write normalizes value and stores it at path.
func (s *memoryStore) write(path string, value Node) error {
	if value == nil {
		value = Node{}
	}
	normalized, err := normalizeNode(resolveServerValues(value, s.now()))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.nodes[path] = normalized
	s.mu.Unlock()
	return nil
}

// removeLocked deletes path and its descendants. Caller holds s.mu.
func (s *memoryStore) removeLocked(path string) bool {
	removed := false
	for p := range s.nodes {
		if IsWithin(p, path) {
			delete(s.nodes, p)
			removed = true
		}
	}
	return removed
}

// cloneNode deep-copies n so callers cannot mutate stored state.
func cloneNode(n Node) Node {
	if n == nil {
		return nil
	}
	out := make(Node, len(n))
	for k, v := range n {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return map[string]any(cloneNode(Node(x)))
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
