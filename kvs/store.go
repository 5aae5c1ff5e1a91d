package kvs

import (
	"context"
	"errors"
	"fmt"

	"github.com/frid-format/frid/frid"
)

// Store errors
var (
	// ErrBadSelector reports a selector applied to a value that cannot
	// honor it, such as an Index into a dict.
	ErrBadSelector = errors.New("kvs: selector does not apply")
)

// ============================================================
// Put Flags
// ============================================================

// PutFlag adjusts how Put and PutBulk treat existing entries.
type PutFlag uint8

const (
	// Unchecked writes unconditionally, replacing any existing value.
	Unchecked PutFlag = 0
	// KeepBoth merges the new value into the existing one instead of
	// replacing it: lists and text/blob concatenate, dicts update.
	KeepBoth PutFlag = 0x10
	// NoChange refuses to touch an existing entry.
	NoChange PutFlag = 0x20
	// NoCreate refuses to create a missing entry. When set, NoChange
	// is not consulted.
	NoCreate PutFlag = 0x40
	// Atomicity applies to bulk writes only: the batch is written only
	// if its NoCreate/NoChange precondition holds for every key.
	Atomicity PutFlag = 0x80
)

// ============================================================
// Selectors
// ============================================================

// Selector narrows a stored value to part of it. A nil Selector means
// the whole value. Index and Range apply to lists, Field and Fields to
// dicts.
type Selector interface {
	storeSelector()
}

// Index selects a single list element. Negative values count from the
// end of the list.
type Index int

func (Index) storeSelector() {}

// Range selects the half-open list slice [Start, End). Negative bounds
// count from the end, and End of zero means the end of the list.
type Range struct {
	Start int
	End   int
}

func (Range) storeSelector() {}

// Field selects a single dict entry by key.
type Field string

func (Field) storeSelector() {}

// Fields selects several dict entries; absent keys are skipped.
type Fields []string

func (Fields) storeSelector() {}

// ============================================================
// Store Interface
// ============================================================

// KeyValue is one key-value pair of a bulk write.
type KeyValue struct {
	Key   string
	Value *frid.FridValue
}

// TypeSize describes a stored value without carrying its content.
// Size is the element count for containers, the byte length for text
// and blob, and zero otherwise.
type TypeSize struct {
	Type frid.FridType
	Size int
}

// Store is a key-value store of frid values.
//
// A nil *frid.FridValue result means the key (or the selected part) is
// missing; stored nulls come back as non-nil values of TypeNull.
type Store interface {
	// Get returns the value at key, narrowed by sel.
	Get(ctx context.Context, key string, sel Selector) (*frid.FridValue, error)
	// Put writes val at key subject to flags. It reports whether the
	// store changed.
	Put(ctx context.Context, key string, val *frid.FridValue, flags PutFlag) (bool, error)
	// Del removes the value at key, or only the part named by sel.
	// It reports whether the store changed.
	Del(ctx context.Context, key string, sel Selector) (bool, error)
	// GetBulk returns one value per key, nil for missing keys.
	GetBulk(ctx context.Context, keys []string) ([]*frid.FridValue, error)
	// PutBulk writes the pairs subject to flags and returns the number
	// of keys written. With Atomicity set, a failed precondition
	// writes nothing and returns zero.
	PutBulk(ctx context.Context, pairs []KeyValue, flags PutFlag) (int, error)
	// DelBulk removes the keys and returns how many existed.
	DelBulk(ctx context.Context, keys []string) (int, error)
	// GetMeta reports the type and size of each existing key.
	GetMeta(ctx context.Context, keys []string) (map[string]TypeSize, error)
	// Substore opens a namespaced view of this store. Keys of the
	// substore never collide with the parent's own keys.
	Substore(name string, rest ...string) (Store, error)
	// Close releases resources held by the store.
	Close() error
}

// ============================================================
// Typed Getters
// ============================================================

// GetText fetches a text value. The second result reports presence.
func GetText(ctx context.Context, st Store, key string) (string, bool, error) {
	v, err := st.Get(ctx, key, nil)
	if err != nil || v == nil {
		return "", false, err
	}
	s, err := v.AsText()
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

// GetBlob fetches a blob value. The second result reports presence.
func GetBlob(ctx context.Context, st Store, key string) ([]byte, bool, error) {
	v, err := st.Get(ctx, key, nil)
	if err != nil || v == nil {
		return nil, false, err
	}
	b, err := v.AsBlob()
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// GetList fetches a list value. The second result reports presence.
func GetList(ctx context.Context, st Store, key string) ([]*frid.FridValue, bool, error) {
	v, err := st.Get(ctx, key, nil)
	if err != nil || v == nil {
		return nil, false, err
	}
	list, err := v.AsList()
	if err != nil {
		return nil, false, err
	}
	return list, true, nil
}

// GetDict fetches a dict value. The second result reports presence.
func GetDict(ctx context.Context, st Store, key string) ([]frid.MapEntry, bool, error) {
	v, err := st.Get(ctx, key, nil)
	if err != nil || v == nil {
		return nil, false, err
	}
	entries, err := v.AsDict()
	if err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

// ============================================================
// Shared Bulk Plumbing
// ============================================================

// getBulkSeq implements GetBulk as one Get per key.
func getBulkSeq(ctx context.Context, st Store, keys []string) ([]*frid.FridValue, error) {
	out := make([]*frid.FridValue, len(keys))
	for i, k := range keys {
		v, err := st.Get(ctx, k, nil)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// putBulkSeq implements PutBulk as one Put per pair, after checking the
// Atomicity precondition against current key metadata.
func putBulkSeq(ctx context.Context, st Store, pairs []KeyValue, flags PutFlag) (int, error) {
	if flags&Atomicity != 0 {
		keys := make([]string, len(pairs))
		for i, kv := range pairs {
			keys[i] = kv.Key
		}
		meta, err := st.GetMeta(ctx, keys)
		if err != nil {
			return 0, err
		}
		if !checkBulkFlags(flags, len(pairs), len(meta)) {
			return 0, nil
		}
	}
	count := 0
	for _, kv := range pairs {
		ok, err := st.Put(ctx, kv.Key, kv.Value, flags)
		if err != nil {
			return count, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

// delBulkSeq implements DelBulk as one Del per key.
func delBulkSeq(ctx context.Context, st Store, keys []string) (int, error) {
	count := 0
	for _, k := range keys {
		ok, err := st.Del(ctx, k, nil)
		if err != nil {
			return count, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

// checkBulkFlags decides whether an atomic bulk write may proceed,
// given how many of its keys already exist.
func checkBulkFlags(flags PutFlag, total, exist int) bool {
	if flags&Atomicity != 0 && flags&(NoCreate|NoChange) != 0 {
		if flags&NoCreate != 0 {
			return exist >= total
		}
		if flags&NoChange != 0 {
			return exist <= 0
		}
	}
	return true
}

// typeSize summarizes a value for GetMeta.
func typeSize(v *frid.FridValue) TypeSize {
	return TypeSize{Type: v.Type(), Size: v.Len()}
}

// badSelector builds the error for a selector/value mismatch.
func badSelector(sel Selector, t frid.FridType) error {
	switch sel.(type) {
	case Index:
		return fmt.Errorf("%w: index selector on %s value", ErrBadSelector, t)
	case Range:
		return fmt.Errorf("%w: range selector on %s value", ErrBadSelector, t)
	case Field:
		return fmt.Errorf("%w: field selector on %s value", ErrBadSelector, t)
	case Fields:
		return fmt.Errorf("%w: fields selector on %s value", ErrBadSelector, t)
	default:
		return fmt.Errorf("%w: unknown selector type %T", ErrBadSelector, sel)
	}
}
