// Package kvs persists frid values in key-value stores.
//
// A Store maps string keys to whole frid values. Three backends are
// provided: MemoryStore (in-process map), FileStore (one file per key,
// optionally zstd-compressed) and RedisStore (a Redis database).
//
// Reads may narrow the stored value with a Selector: an Index or Range
// into a list, a Field or Fields of a dict. The same selectors drive
// partial deletes. Writes accept PutFlag bits that make the put
// conditional (NoCreate, NoChange) or additive (KeepBoth, which merges
// the new value into the stored one).
//
// Multi-part keys are flattened with JoinKey, and Substore opens a
// namespaced view whose keys cannot collide with the parent's.
package kvs
