package docstore

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const lockStripes = 64

// idLocks serializes read-modify-write cycles per row id. Distinct ids may
// share a stripe; that only costs parallelism.
type idLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *idLocks) lock(id string) func() {
	if l == nil {
		return func() {}
	}
	m := &l.stripes[xxhash.Sum64String(id)%lockStripes]
	m.Lock()
	return m.Unlock
}
