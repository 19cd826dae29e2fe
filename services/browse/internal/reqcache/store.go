package reqcache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry struct {
	payload  any
	storedAt time.Time
}

// store holds entries by key. Callers hold Cache.mu.
type store interface {
	get(key string) (entry, bool)
	put(key string, e entry)
	purge()
	len() int
}

type mapStore struct {
	items map[string]entry
}

func newMapStore() *mapStore {
	return &mapStore{items: make(map[string]entry)}
}

func (s *mapStore) get(key string) (entry, bool) {
	e, ok := s.items[key]
	return e, ok
}

func (s *mapStore) put(key string, e entry) { s.items[key] = e }
func (s *mapStore) purge()                  { s.items = make(map[string]entry) }
func (s *mapStore) len() int                { return len(s.items) }

// lruStore bounds the number of keys; the least recently used key is dropped
// when a new key would exceed the bound.
type lruStore struct {
	c *lru.Cache[string, entry]
}

func newLRUStore(size int) (*lruStore, error) {
	c, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &lruStore{c: c}, nil
}

func (s *lruStore) get(key string) (entry, bool) { return s.c.Get(key) }
func (s *lruStore) put(key string, e entry)      { s.c.Add(key, e) }
func (s *lruStore) purge()                       { s.c.Purge() }
func (s *lruStore) len() int                     { return s.c.Len() }
