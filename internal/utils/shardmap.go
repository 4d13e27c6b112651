package utils

import (
	"hash/maphash"
	"sync"
)

// DefaultShards 默认分段数
const DefaultShards = 64

// ShardMap 分段加锁的并发 map，不同分段的写入互不阻塞
type ShardMap[V any] struct {
	seed   maphash.Seed
	shards []*shard[V]
}

type shard[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// NewShardMap 创建分段 map，n<=0 时使用默认分段数
func NewShardMap[V any](n int) *ShardMap[V] {
	if n <= 0 {
		n = DefaultShards
	}
	m := &ShardMap[V]{
		seed:   maphash.MakeSeed(),
		shards: make([]*shard[V], n),
	}
	for i := range m.shards {
		m.shards[i] = &shard[V]{items: make(map[string]V)}
	}
	return m
}

func (m *ShardMap[V]) shardFor(key string) *shard[V] {
	return m.shards[maphash.String(m.seed, key)%uint64(len(m.shards))]
}

func (m *ShardMap[V]) Get(key string) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	v, ok := s.items[key]
	s.mu.RUnlock()
	return v, ok
}

// LoadOrStore 键已存在时返回已有值且 loaded=true（先到先得）
func (m *ShardMap[V]) LoadOrStore(key string, value V) (actual V, loaded bool) {
	return m.LoadOrCreate(key, func() V { return value })
}

// LoadOrCreate 仅在键不存在时调用 create
func (m *ShardMap[V]) LoadOrCreate(key string, create func() V) (actual V, loaded bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	v, ok := s.items[key]
	s.mu.RUnlock()
	if ok {
		return v, true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.items[key]; ok {
		return v, true
	}
	v = create()
	s.items[key] = v
	return v, false
}

// Set 覆盖写入
func (m *ShardMap[V]) Set(key string, value V) {
	s := m.shardFor(key)
	s.mu.Lock()
	s.items[key] = value
	s.mu.Unlock()
}

// DeleteIf 仅当 match 返回 true 时删除
func (m *ShardMap[V]) DeleteIf(key string, match func(V) bool) bool {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok || !match(v) {
		return false
	}
	delete(s.items, key)
	return true
}

func (m *ShardMap[V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

// Range 逐分段遍历，fn 返回 false 时停止。遍历期间持有分段读锁，fn 内不可写入同一个 map
func (m *ShardMap[V]) Range(fn func(key string, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

func (m *ShardMap[V]) Clear() {
	for _, s := range m.shards {
		s.mu.Lock()
		s.items = make(map[string]V)
		s.mu.Unlock()
	}
}
