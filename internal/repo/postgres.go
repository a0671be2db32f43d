package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/wanderlust/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, *pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup. Begin on a pgx.Tx opens a
// savepoint, so Transform still works inside a test transaction.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// pgStore is the Postgres implementation of RecordStore.
// Every node is one row of the nodes table keyed by its full path, with the
// parent path denormalized for child listings.
type pgStore struct {
	options
	db db
}

// NewPostgresStore constructs a RecordStore backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewPostgresStore(db db, opts ...Option) RecordStore {
	return &pgStore{options: newOptions(opts), db: db}
}

// Push inserts a node under a freshly generated key.
func (s *pgStore) Push(ctx context.Context, parent string, value Node) (string, error) {
	if err := validatePath(parent); err != nil {
		return "", fmt.Errorf("repo.pgStore.Push: %w", err)
	}
	key, err := newKey()
	if err != nil {
		return "", fmt.Errorf("repo.pgStore.Push: %w: %w", domain.ErrTransport, err)
	}
	raw, err := s.encode(value)
	if err != nil {
		return "", fmt.Errorf("repo.pgStore.Push: %w", err)
	}

	const q = `
		INSERT INTO nodes (path, parent, value)
		VALUES (@path, @parent, @value)`

	path := Join(parent, key)
	args := pgx.NamedArgs{"path": path, "parent": parent, "value": raw}
	if _, err := s.db.Exec(ctx, q, args); err != nil {
		return "", fmt.Errorf("repo.pgStore.Push: %w: %w", domain.ErrTransport, err)
	}
	notify(ctx, s.notifier, s.log, path)
	return key, nil
}

// Set upserts the node at path.
func (s *pgStore) Set(ctx context.Context, path string, value Node) error {
	if err := validatePath(path); err != nil {
		return fmt.Errorf("repo.pgStore.Set: %w", err)
	}
	raw, err := s.encode(value)
	if err != nil {
		return fmt.Errorf("repo.pgStore.Set: %w", err)
	}
	if err := upsert(ctx, s.db, path, raw); err != nil {
		return fmt.Errorf("repo.pgStore.Set: %w: %w", domain.ErrTransport, err)
	}
	notify(ctx, s.notifier, s.log, path)
	return nil
}

// Update merges fields into the stored object. The jsonb || operator adds or
// replaces keys and the - text[] operator drops the keys set to nil.
func (s *pgStore) Update(ctx context.Context, path string, fields Node) error {
	if err := validatePath(path); err != nil {
		return fmt.Errorf("repo.pgStore.Update: %w", err)
	}

	patch := Node{}
	removed := []string{}
	for k, v := range resolveServerValues(fields, s.now()) {
		if v == nil {
			removed = append(removed, k)
			continue
		}
		patch[k] = v
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("repo.pgStore.Update: encode: %w", err)
	}

	const q = `
		UPDATE nodes
		SET value      = (value || @patch::jsonb) - @removed::text[],
		    updated_at = now()
		WHERE path = @path`

	tag, err := s.db.Exec(ctx, q, pgx.NamedArgs{"path": path, "patch": raw, "removed": removed})
	if err != nil {
		return fmt.Errorf("repo.pgStore.Update: %w: %w", domain.ErrTransport, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.pgStore.Update: %w", domain.ErrNotFound)
	}
	notify(ctx, s.notifier, s.log, path)
	return nil
}

// Get retrieves the node at path.
func (s *pgStore) Get(ctx context.Context, path string) (Node, error) {
	if err := validatePath(path); err != nil {
		return nil, fmt.Errorf("repo.pgStore.Get: %w", err)
	}

	const q = `SELECT value FROM nodes WHERE path = @path`

	n, err := scanNode(s.db.QueryRow(ctx, q, pgx.NamedArgs{"path": path}))
	if err != nil {
		return nil, fmt.Errorf("repo.pgStore.Get: %w", err)
	}
	return n, nil
}

// Children lists the direct children of parent. Equality filtering runs in
// SQL through jsonb containment (served by the GIN index); ordering runs in Go
// so it matches the in-memory store exactly.
func (s *pgStore) Children(ctx context.Context, parent string, q Query) ([]Child, error) {
	if err := validatePath(parent); err != nil {
		return nil, fmt.Errorf("repo.pgStore.Children: %w", err)
	}

	var (
		rows pgx.Rows
		err  error
	)
	if q.OrderByChild != "" && q.EqualTo != nil {
		filter, encErr := json.Marshal(Node{q.OrderByChild: q.EqualTo})
		if encErr != nil {
			return nil, fmt.Errorf("repo.pgStore.Children: encode filter: %w", encErr)
		}
		const sql = `
			SELECT path, value
			FROM nodes
			WHERE parent = @parent
			  AND value @> @filter::jsonb`
		rows, err = s.db.Query(ctx, sql, pgx.NamedArgs{"parent": parent, "filter": filter})
	} else {
		const sql = `
			SELECT path, value
			FROM nodes
			WHERE parent = @parent`
		rows, err = s.db.Query(ctx, sql, pgx.NamedArgs{"parent": parent})
	}
	if err != nil {
		return nil, fmt.Errorf("repo.pgStore.Children: %w: %w", domain.ErrTransport, err)
	}
	defer rows.Close()

	children := []Child{}
	for rows.Next() {
		var (
			path string
			raw  []byte
		)
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, fmt.Errorf("repo.pgStore.Children: scan: %w: %w", domain.ErrTransport, err)
		}
		n, err := decodeNode(raw)
		if err != nil {
			return nil, fmt.Errorf("repo.pgStore.Children: %w", err)
		}
		children = append(children, Child{Key: Key(path), Value: n})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.pgStore.Children: rows: %w: %w", domain.ErrTransport, err)
	}

	// Containment matches numerically equal values too; reapply the exact filter.
	children = filterChildren(children, q)
	sortChildren(children, q)
	return children, nil
}

// Remove deletes the node at path and its whole subtree.
func (s *pgStore) Remove(ctx context.Context, path string) error {
	if err := validatePath(path); err != nil {
		return fmt.Errorf("repo.pgStore.Remove: %w", err)
	}
	tag, err := removeSubtree(ctx, s.db, path)
	if err != nil {
		return fmt.Errorf("repo.pgStore.Remove: %w: %w", domain.ErrTransport, err)
	}
	if tag.RowsAffected() > 0 {
		notify(ctx, s.notifier, s.log, path)
	}
	return nil
}

// Transform locks the row with SELECT ... FOR UPDATE, applies fn and writes
// the result in the same transaction.
func (s *pgStore) Transform(ctx context.Context, path string, fn TransformFunc) error {
	if err := validatePath(path); err != nil {
		return fmt.Errorf("repo.pgStore.Transform: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.pgStore.Transform: begin: %w: %w", domain.ErrTransport, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `SELECT value FROM nodes WHERE path = @path FOR UPDATE`

	current, err := scanNode(tx.QueryRow(ctx, q, pgx.NamedArgs{"path": path}))
	exists := true
	if errors.Is(err, domain.ErrNotFound) {
		exists = false
	} else if err != nil {
		return fmt.Errorf("repo.pgStore.Transform: %w", err)
	}

	next, err := fn(current, exists)
	if err != nil {
		return fmt.Errorf("repo.pgStore.Transform: %w", err)
	}

	if next == nil {
		if _, err := removeSubtree(ctx, tx, path); err != nil {
			return fmt.Errorf("repo.pgStore.Transform: remove: %w: %w", domain.ErrTransport, err)
		}
	} else {
		raw, err := s.encode(next)
		if err != nil {
			return fmt.Errorf("repo.pgStore.Transform: %w", err)
		}
		if err := upsert(ctx, tx, path, raw); err != nil {
			return fmt.Errorf("repo.pgStore.Transform: write: %w: %w", domain.ErrTransport, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.pgStore.Transform: commit: %w: %w", domain.ErrTransport, err)
	}
	notify(ctx, s.notifier, s.log, path)
	return nil
}

// encode resolves server values and marshals n for a jsonb parameter.
func (s *pgStore) encode(n Node) ([]byte, error) {
	if n == nil {
		n = Node{}
	}
	raw, err := json.Marshal(resolveServerValues(n, s.now()))
	if err != nil {
		return nil, fmt.Errorf("encode node: %w", err)
	}
	return raw, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func upsert(ctx context.Context, e execer, path string, raw []byte) error {
	const q = `
		INSERT INTO nodes (path, parent, value)
		VALUES (@path, @parent, @value)
		ON CONFLICT (path) DO UPDATE
		SET value      = EXCLUDED.value,
		    updated_at = now()`

	_, err := e.Exec(ctx, q, pgx.NamedArgs{"path": path, "parent": Parent(path), "value": raw})
	return err
}

func removeSubtree(ctx context.Context, e execer, path string) (pgconn.CommandTag, error) {
	const q = `
		DELETE FROM nodes
		WHERE path = @path
		   OR starts_with(path, @prefix)`

	return e.Exec(ctx, q, pgx.NamedArgs{"path": path, "prefix": path + "/"})
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanNode maps a single-column jsonb row into a Node.
func scanNode(s scanner) (Node, error) {
	var raw []byte
	if err := s.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	return decodeNode(raw)
}

func decodeNode(raw []byte) (Node, error) {
	var n Node
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}
	if n == nil {
		n = Node{}
	}
	return n, nil
}
