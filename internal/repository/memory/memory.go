// Package memory implements the repository contracts on an in-process
// go-cache store. It mirrors the postgres implementation's optimistic
// concurrency semantics exactly, which is what makes it usable in tests and
// single-node development runs.
package memory

import (
	"encoding/json"
	"sync"

	"github.com/patrickmn/go-cache"
)

// store wraps a go-cache instance with a mutex so that version
// check-and-swap updates are atomic. go-cache itself is safe for concurrent
// use, but the read-check-write sequence needs a wider critical section.
type store struct {
	mu    sync.Mutex
	items *cache.Cache
}

func newStore() *store {
	return &store{
		items: cache.New(cache.NoExpiration, 0),
	}
}

// clone deep-copies src into dst through JSON so callers never share memory
// with the stored record.
func clone(src, dst interface{}) error {
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
