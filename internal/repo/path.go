package repo

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/wanderlust/backend/internal/domain"
)

// Join builds a path from segments, e.g. Join("trips", id, "expenses").
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Parent returns the path one level up, or "" for a top-level path.
func Parent(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return ""
	}
	return path[:i]
}

// Key returns the last segment of path.
func Key(path string) string {
	return path[strings.LastIndexByte(path, '/')+1:]
}

// IsWithin reports whether path equals root or lies below it.
func IsWithin(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+"/")
}

// validatePath rejects empty segments and characters that are not allowed in
// keys. Returns an error wrapping domain.ErrValidation.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", domain.ErrValidation)
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			return fmt.Errorf("%w: empty segment in path %q", domain.ErrValidation, path)
		}
		if strings.ContainsAny(seg, ".#$[]") {
			return fmt.Errorf("%w: invalid character in path segment %q", domain.ErrValidation, seg)
		}
	}
	return nil
}

// newKey generates a push key. UUIDv7 strings embed a millisecond timestamp
// in their leading bits, so they sort lexically in creation order.
func newKey() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return id.String(), nil
}

// resolveServerValues returns a copy of n with every ServerTimestamp replaced
// by now in epoch milliseconds.
func resolveServerValues(n Node, now time.Time) Node {
	if n == nil {
		return nil
	}
	out := make(Node, len(n))
	for k, v := range n {
		out[k] = resolveValue(v, now)
	}
	return out
}

func resolveValue(v any, now time.Time) any {
	switch x := v.(type) {
	case ServerValue:
		if x == ServerTimestamp {
			return float64(now.UnixMilli())
		}
		return string(x)
	case Node:
		return map[string]any(resolveServerValues(x, now))
	case map[string]any:
		return map[string]any(resolveServerValues(Node(x), now))
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = resolveValue(e, now)
		}
		return out
	default:
		return v
	}
}
