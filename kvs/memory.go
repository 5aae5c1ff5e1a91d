package kvs

import (
	"context"
	"sync"

	"github.com/frid-format/frid/frid"
)

// ============================================================
// Memory Store
// ============================================================

// MemoryStore keeps values in process memory. Values are deep-copied
// on the way in and out, so mutating a value after Put, or one
// returned by Get, never changes what the store holds.
//
// Substores of the same root share one registry: opening the same
// substore name twice yields views over the same data.
type MemoryStore struct {
	shared *memoryShared
	bucket *memoryBucket
	name   string
}

type memoryShared struct {
	mu      sync.Mutex
	buckets map[string]*memoryBucket
}

type memoryBucket struct {
	mu   sync.RWMutex
	data map[string]*frid.FridValue
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	shared := &memoryShared{buckets: make(map[string]*memoryBucket)}
	return &MemoryStore{shared: shared, bucket: shared.lookup("")}
}

func (sh *memoryShared) lookup(name string) *memoryBucket {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	b := sh.buckets[name]
	if b == nil {
		b = &memoryBucket{data: make(map[string]*frid.FridValue)}
		sh.buckets[name] = b
	}
	return b
}

// Substore opens a namespaced view backed by the same registry.
func (s *MemoryStore) Substore(name string, rest ...string) (Store, error) {
	full := JoinKey(append([]string{name}, rest...)...)
	if s.name != "" {
		full = s.name + "\t" + full
	}
	return &MemoryStore{shared: s.shared, bucket: s.shared.lookup(full), name: full}, nil
}

// Get returns the value at key, narrowed by sel.
func (s *MemoryStore) Get(_ context.Context, key string, sel Selector) (*frid.FridValue, error) {
	s.bucket.mu.RLock()
	val := s.bucket.data[key]
	s.bucket.mu.RUnlock()
	if val == nil {
		return nil, nil
	}
	out, ok, err := applySelector(val, sel)
	if err != nil || !ok {
		return nil, err
	}
	return cloneValue(out), nil
}

// Put writes val at key subject to flags.
func (s *MemoryStore) Put(_ context.Context, key string, val *frid.FridValue, flags PutFlag) (bool, error) {
	if val == nil {
		val = frid.Null()
	}
	val = cloneValue(val)
	s.bucket.mu.Lock()
	defer s.bucket.mu.Unlock()
	if flags == Unchecked {
		s.bucket.data[key] = val
		return true, nil
	}
	old, exists := s.bucket.data[key]
	if flags&NoCreate != 0 {
		if !exists {
			return false, nil
		}
	} else if flags&NoChange != 0 {
		if exists {
			return false, nil
		}
	}
	if flags&KeepBoth == 0 {
		old = nil
	}
	s.bucket.data[key] = mergeValues(old, val)
	return true, nil
}

// Del removes the value at key, or only the part named by sel.
func (s *MemoryStore) Del(_ context.Context, key string, sel Selector) (bool, error) {
	s.bucket.mu.Lock()
	defer s.bucket.mu.Unlock()
	old, exists := s.bucket.data[key]
	if !exists {
		return false, nil
	}
	if sel == nil {
		delete(s.bucket.data, key)
		return true, nil
	}
	updated, count, err := deleteSelector(old, sel)
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}
	s.bucket.data[key] = updated
	return true, nil
}

// GetBulk returns one value per key, nil for missing keys.
func (s *MemoryStore) GetBulk(ctx context.Context, keys []string) ([]*frid.FridValue, error) {
	return getBulkSeq(ctx, s, keys)
}

// PutBulk writes the pairs subject to flags.
func (s *MemoryStore) PutBulk(ctx context.Context, pairs []KeyValue, flags PutFlag) (int, error) {
	return putBulkSeq(ctx, s, pairs, flags)
}

// DelBulk removes the keys and returns how many existed.
func (s *MemoryStore) DelBulk(ctx context.Context, keys []string) (int, error) {
	return delBulkSeq(ctx, s, keys)
}

// GetMeta reports the type and size of each existing key.
func (s *MemoryStore) GetMeta(_ context.Context, keys []string) (map[string]TypeSize, error) {
	s.bucket.mu.RLock()
	defer s.bucket.mu.RUnlock()
	out := make(map[string]TypeSize)
	for _, k := range keys {
		if v, ok := s.bucket.data[k]; ok {
			out[k] = typeSize(v)
		}
	}
	return out, nil
}

// Close is a no-op for memory stores.
func (s *MemoryStore) Close() error {
	return nil
}
