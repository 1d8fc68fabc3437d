package util

import (
	"hash"
	"hash/fnv"
	"sync"
)

const (
	numShards          = 16
	maxEntriesPerShard = 64
)

type tokenCacheEntry struct {
	hash   uint64
	tokens int
}

type tokenCacheShard struct {
	mu      sync.RWMutex
	entries []tokenCacheEntry
}

// TokenCache remembers token counts by content hash. Each shard keeps its
// newest maxEntriesPerShard entries.
type TokenCache struct {
	shards [numShards]*tokenCacheShard
}

var (
	hasherPool = sync.Pool{
		New: func() any { return fnv.New64a() },
	}

	// ContentTokenCache holds message content counts; system prompts repeat
	// across renders of the same capture.
	ContentTokenCache = NewTokenCache()
	// ToolTokenCache holds counts of converted tools arrays.
	ToolTokenCache = NewTokenCache()
)

func NewTokenCache() *TokenCache {
	tc := &TokenCache{}
	for i := range tc.shards {
		tc.shards[i] = &tokenCacheShard{entries: make([]tokenCacheEntry, 0, maxEntriesPerShard)}
	}
	return tc
}

func hashContent(s string) uint64 {
	h := hasherPool.Get().(hash.Hash64)
	h.Reset()
	_, _ = h.Write([]byte(s))
	sum := h.Sum64()
	hasherPool.Put(h)
	return sum
}

func (tc *TokenCache) shard(h uint64) *tokenCacheShard {
	return tc.shards[h%numShards]
}

func (tc *TokenCache) Get(content string) (int, bool) {
	h := hashContent(content)
	s := tc.shard(h)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.hash == h {
			return e.tokens, true
		}
	}
	return 0, false
}

func (tc *TokenCache) Set(content string, tokens int) {
	h := hashContent(content)
	s := tc.shard(h)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.hash == h {
			s.entries[i].tokens = tokens
			return
		}
	}
	if len(s.entries) >= maxEntriesPerShard {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, tokenCacheEntry{hash: h, tokens: tokens})
}

// Len is the number of cached entries across shards.
func (tc *TokenCache) Len() int {
	n := 0
	for _, s := range tc.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}
