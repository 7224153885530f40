// Package store defines the row-level backing store and its implementations.
//
// A store holds named collections of rows. Each row pairs an id with the
// serialized text of one document; the store never looks inside it.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidCollection is returned for collection names a backend cannot
// safely use as a table or file name.
var ErrInvalidCollection = errors.New("invalid collection name")

// Row is one stored document.
type Row struct {
	ID       string
	Document string
}

// Store is the interface that all backing stores must implement.
type Store interface {
	// Ensure creates the collection if it does not exist. It never touches
	// existing rows.
	Ensure(ctx context.Context, collection string) error

	// Load returns the document text for id. ok is false when there is no row.
	Load(ctx context.Context, collection, id string) (doc string, ok bool, err error)

	// Save inserts the row or overwrites its document.
	Save(ctx context.Context, collection, id, doc string) error

	// Update overwrites the document of an existing row. It is a no-op when
	// the row does not exist.
	Update(ctx context.Context, collection, id, doc string) error

	// Remove deletes the row. Removing a missing row is not an error.
	Remove(ctx context.Context, collection, id string) error

	// Scan returns every row of the collection ordered by id.
	Scan(ctx context.Context, collection string) ([]Row, error)

	// Close releases the resources held by the store.
	Close() error
}

// ValidateCollection checks that name is 1-64 characters of [A-Za-z0-9_-].
func ValidateCollection(name string) error {
	if name == "" || len(name) > 64 {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, name)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidCollection, name)
		}
	}
	return nil
}
