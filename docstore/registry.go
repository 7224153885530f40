package docstore

import (
	"context"
	"sort"

	"github.com/stevemurr/simple-doc-store/store"
)

// Registry holds the collections a process works with. Build it once at
// start-up and pass it to whatever needs a collection.
type Registry struct {
	collections map[string]*Collection
}

// OpenRegistry opens every named collection in st. Duplicate names are
// opened once.
func OpenRegistry(ctx context.Context, st store.Store, names []string, opts ...Option) (*Registry, error) {
	r := &Registry{collections: make(map[string]*Collection, len(names))}
	for _, name := range names {
		if _, ok := r.collections[name]; ok {
			continue
		}
		c, err := Open(ctx, st, name, opts...)
		if err != nil {
			return nil, err
		}
		r.collections[name] = c
	}
	return r, nil
}

// Collection returns the named collection.
func (r *Registry) Collection(name string) (*Collection, bool) {
	c, ok := r.collections[name]
	return c, ok
}

// Names returns the collection names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.collections))
	for name := range r.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
