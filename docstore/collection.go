// Package docstore provides schema-less JSON documents addressed by dot-path
// keys on top of a row store.
//
// A key is either a row id ("user42") or a row id followed by a path into
// that row's document ("user42.stats.level"). Path segments are object
// property names; arrays are only ever replaced as a whole.
//
// Sub-path writes read the whole document, modify it and write it back. Two
// concurrent writers to the same id can therefore lose each other's changes
// unless the collection is opened WithSerializedWrites, and even then only
// writers in the same process are serialized.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/stevemurr/simple-doc-store/store"
)

// Entry is one row returned by All.
type Entry struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

// Option configures a Collection.
type Option func(*Collection)

// WithSerializedWrites holds a per-id lock across every read-modify-write
// cycle, so concurrent sub-path writers in this process no longer overwrite
// each other.
func WithSerializedWrites() Option {
	return func(c *Collection) { c.locks = &idLocks{} }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Collection) { c.log = l }
}

// Collection is a named set of documents. Safe for concurrent use.
type Collection struct {
	name  string
	st    store.Store
	locks *idLocks
	log   *slog.Logger
}

// Open returns the collection called name in st, creating its table if it
// does not exist yet.
func Open(ctx context.Context, st store.Store, name string, opts ...Option) (*Collection, error) {
	c := &Collection{name: name, st: st}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	c.log = c.log.With("collection", name)
	if err := st.Ensure(ctx, name); err != nil {
		return nil, fmt.Errorf("open collection %q: %w", name, err)
	}
	return c, nil
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// load returns the decoded root document of id.
func (c *Collection) load(ctx context.Context, id string) (any, bool, error) {
	raw, ok, err := c.st.Load(ctx, c.name, id)
	if err != nil || !ok {
		return nil, false, err
	}
	v, err := decode(raw)
	if err != nil {
		return nil, false, fmt.Errorf("%s/%s: %w", c.name, id, err)
	}
	return v, true, nil
}

// save upserts the root document of id and returns it as stored.
func (c *Collection) save(ctx context.Context, id string, v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: encode: %w", c.name, id, err)
	}
	if err := c.st.Save(ctx, c.name, id, string(raw)); err != nil {
		return nil, err
	}
	return decode(string(raw))
}

func decode(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return v, nil
}

// Get returns the value at key. ok is false when the row or the path does
// not exist; a stored null is returned as (nil, true).
func (c *Collection) Get(ctx context.Context, key string) (any, bool, error) {
	id, path, hasPath := ParseKey(key)
	doc, ok, err := c.load(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	if !hasPath {
		return doc, true, nil
	}
	v, ok := lookup(doc, segments(path))
	return v, ok, nil
}

// Has reports whether key holds a value other than null.
func (c *Collection) Has(ctx context.Context, key string) (bool, error) {
	v, ok, err := c.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return ok && v != nil, nil
}

// Set stores value at key. For a bare id the whole document is replaced and
// the stored value is returned. For a sub-path the document is created or
// extended as needed, siblings are kept, and the full document is returned.
func (c *Collection) Set(ctx context.Context, key string, value any) (any, error) {
	id, path, hasPath := ParseKey(key)
	if !hasPath {
		return c.save(ctx, id, value)
	}
	defer c.locks.lock(id)()
	return c.setPath(ctx, id, path, value)
}

func (c *Collection) setPath(ctx context.Context, id, path string, value any) (any, error) {
	doc, _, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	root, ok := doc.(map[string]any)
	if !ok {
		root = map[string]any{}
	}
	assign(root, segments(path), value)
	c.log.Debug("set", "id", id, "path", path)
	return c.save(ctx, id, root)
}

// Delete removes key. A bare id deletes the row and always reports true. A
// sub-path reports false, without writing, when the row, any intermediate
// object or the final property is missing; intermediates are never created.
func (c *Collection) Delete(ctx context.Context, key string) (bool, error) {
	id, path, hasPath := ParseKey(key)
	if !hasPath {
		if err := c.st.Remove(ctx, c.name, id); err != nil {
			return false, err
		}
		return true, nil
	}
	defer c.locks.lock(id)()
	doc, ok, err := c.load(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	if !remove(doc, segments(path)) {
		return false, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("%s/%s: encode: %w", c.name, id, err)
	}
	if err := c.st.Update(ctx, c.name, id, string(raw)); err != nil {
		return false, err
	}
	c.log.Debug("delete", "id", id, "path", path)
	return true, nil
}

// All returns every document in the collection ordered by id. Rows that no
// longer decode are skipped.
func (c *Collection) All(ctx context.Context) ([]Entry, error) {
	rows, err := c.st.Scan(ctx, c.name)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		v, err := decode(r.Document)
		if err != nil {
			c.log.Warn("skipping undecodable row", "id", r.ID, "err", err)
			continue
		}
		entries = append(entries, Entry{ID: r.ID, Value: v})
	}
	return entries, nil
}

// Push appends value to the array at key and returns the new array. A value
// at key that is not an array, including no value at all, is replaced by an
// empty array first.
func (c *Collection) Push(ctx context.Context, key string, value any) ([]any, error) {
	stored, err := c.mutate(ctx, key, func(cur any) any {
		arr, _ := cur.([]any)
		return append(arr, value)
	})
	if err != nil {
		return nil, err
	}
	arr, _ := stored.([]any)
	return arr, nil
}

// Add adds operand to the number at key and returns the result. A missing or
// non-numeric current value counts as zero. An operand that does not coerce
// to a finite number fails with ErrInvalidOperand and nothing is written. A
// nil operand is rejected the same way rather than counting as zero.
func (c *Collection) Add(ctx context.Context, key string, operand any) (float64, error) {
	return c.arith(ctx, "add", key, operand, 1)
}

// Subtract subtracts operand from the number at key. See Add.
func (c *Collection) Subtract(ctx context.Context, key string, operand any) (float64, error) {
	return c.arith(ctx, "subtract", key, operand, -1)
}

func (c *Collection) arith(ctx context.Context, op, key string, operand any, sign float64) (float64, error) {
	n, ok := toNumber(operand)
	if !ok || operand == nil {
		return 0, &InvalidOperandError{Op: op, Key: key, Value: operand}
	}
	var result float64
	_, err := c.mutate(ctx, key, func(cur any) any {
		base, ok := toNumber(cur)
		if !ok {
			base = 0
		}
		result = base + sign*n
		return result
	})
	if err != nil {
		return 0, err
	}
	return result, nil
}

// mutate replaces the value at key with fn(current) using Set semantics and
// returns the replacement as stored. The id lock, if any, is held across the
// whole cycle.
func (c *Collection) mutate(ctx context.Context, key string, fn func(cur any) any) (any, error) {
	id, path, hasPath := ParseKey(key)
	defer c.locks.lock(id)()

	doc, _, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !hasPath {
		return c.save(ctx, id, fn(doc))
	}
	segs := segments(path)
	cur, _ := lookup(doc, segs)
	next := fn(cur)
	root, ok := doc.(map[string]any)
	if !ok {
		root = map[string]any{}
	}
	assign(root, segs, next)
	stored, err := c.save(ctx, id, root)
	if err != nil {
		return nil, err
	}
	v, _ := lookup(stored, segs)
	return v, nil
}
