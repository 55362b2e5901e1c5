package sedes

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

type encodeKey struct {
	schema string
	hash   uint64
}

// CachingEncoder memoizes canonical encodings in a bounded LRU cache
// keyed by schema name and record content hash. Records are immutable,
// so a cached encoding never goes stale; workloads that repeatedly
// hash or sign the same records skip the sedes walk entirely.
type CachingEncoder struct {
	cache *lru.Cache[encodeKey, []byte]
}

func NewCachingEncoder(size int) (*CachingEncoder, error) {
	cache, err := lru.New[encodeKey, []byte](size)
	if err != nil {
		return nil, err
	}
	return &CachingEncoder{cache: cache}, nil
}

// Serialize returns the canonical bytes for r, from the cache when
// possible. The returned slice is always a private copy.
func (c *CachingEncoder) Serialize(s *Schema, r *Record) ([]byte, error) {
	key := encodeKey{schema: s.Name(), hash: r.Hash()}
	if data, ok := c.cache.Get(key); ok {
		return append([]byte(nil), data...), nil
	}
	data, err := s.Serialize(r)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, append([]byte(nil), data...))
	return data, nil
}

// Len returns the number of cached encodings.
func (c *CachingEncoder) Len() int { return c.cache.Len() }
