package kvs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/frid-format/frid/frid"
)

// Wire prefixes. Plain text is stored as raw UTF-8 when it cannot be
// mistaken for a prefixed form; blobs ride behind "#=" and every other
// value behind "#!" followed by its frid text.
var (
	wireFridPrefix = []byte("#!")
	wireBlobPrefix = []byte("#=")
)

// txRetries bounds the optimistic retry loop of read-modify-write
// operations under WATCH.
const txRetries = 16

// ============================================================
// Redis Store
// ============================================================

// RedisStoreOptions configures a RedisStore.
type RedisStoreOptions struct {
	Username string
	Password string
	DB       int
	// Logger receives failure diagnostics. Defaults to a stderr logger
	// with the prefix "kvs.redis".
	Logger *log.Logger
}

// RedisStore keeps values in a Redis database, one string per key.
// Read-modify-write operations (KeepBoth puts, partial deletes) run
// under WATCH and retry when the key changes concurrently. Substores
// prefix their keys, so one database can host many namespaces.
type RedisStore struct {
	client *redis.Client
	prefix string
	owned  bool
	logger *log.Logger
}

// NewRedisStore connects to the Redis server at addr ("host:port").
// The connection is established lazily on first use.
func NewRedisStore(addr string, opts RedisStoreOptions) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisStore{client: client, owned: true, logger: redisLogger(opts)}
}

// NewRedisStoreFromClient wraps an existing client. Closing the store
// leaves the client open.
func NewRedisStoreFromClient(client *redis.Client, opts RedisStoreOptions) *RedisStore {
	return &RedisStore{client: client, logger: redisLogger(opts)}
}

func redisLogger(opts RedisStoreOptions) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return log.NewWithOptions(os.Stderr, log.Options{Prefix: "kvs.redis"})
}

// Substore opens a view whose keys carry an additional name prefix.
func (s *RedisStore) Substore(name string, rest ...string) (Store, error) {
	prefix := s.prefix + name + "\t"
	for _, r := range rest {
		prefix += r + "\t"
	}
	return &RedisStore{client: s.client, prefix: prefix, logger: s.logger}, nil
}

func (s *RedisStore) name(key string) string {
	return s.prefix + key
}

// Get returns the value at key, narrowed by sel.
func (s *RedisStore) Get(ctx context.Context, key string, sel Selector) (*frid.FridValue, error) {
	b, err := s.client.Get(ctx, s.name(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("kvs: redis get %q: %w", key, err)
	}
	val, err := decodeWire(b)
	if err != nil {
		return nil, err
	}
	out, ok, err := applySelector(val, sel)
	if err != nil || !ok {
		return nil, err
	}
	return out, nil
}

// Put writes val at key subject to flags.
func (s *RedisStore) Put(ctx context.Context, key string, val *frid.FridValue, flags PutFlag) (bool, error) {
	if val == nil {
		val = frid.Null()
	}
	if flags&KeepBoth == 0 {
		return s.putDirect(ctx, key, val, flags)
	}
	return s.putMerge(ctx, key, val, flags)
}

// putDirect maps the conditional flags onto SET NX/XX.
func (s *RedisStore) putDirect(ctx context.Context, key string, val *frid.FridValue, flags PutFlag) (bool, error) {
	name := s.name(key)
	b := encodeWire(val)
	var (
		ok  bool
		err error
	)
	switch {
	case flags&NoCreate != 0 && flags&NoChange != 0:
		return false, nil
	case flags&NoCreate != 0:
		ok, err = s.client.SetXX(ctx, name, b, 0).Result()
	case flags&NoChange != 0:
		ok, err = s.client.SetNX(ctx, name, b, 0).Result()
	default:
		err = s.client.Set(ctx, name, b, 0).Err()
		ok = err == nil
	}
	if err != nil {
		return false, fmt.Errorf("kvs: redis put %q: %w", key, err)
	}
	return ok, nil
}

// putMerge reads, merges and writes back under WATCH.
func (s *RedisStore) putMerge(ctx context.Context, key string, val *frid.FridValue, flags PutFlag) (bool, error) {
	name := s.name(key)
	changed := false
	txf := func(tx *redis.Tx) error {
		old, err := s.readTx(ctx, tx, name)
		if err != nil {
			return err
		}
		exists := old != nil
		if flags&NoCreate != 0 {
			if !exists {
				return nil
			}
		} else if flags&NoChange != 0 {
			if exists {
				return nil
			}
		}
		merged := encodeWire(mergeValues(old, val))
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, name, merged, 0)
			return nil
		})
		if err == nil {
			changed = true
		}
		return err
	}
	for i := 0; i < txRetries; i++ {
		changed = false
		err := s.client.Watch(ctx, txf, name)
		if err == nil {
			return changed, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return false, fmt.Errorf("kvs: redis put %q: %w", key, err)
	}
	return false, fmt.Errorf("kvs: redis put %q: reached maximum number of retries", key)
}

// Del removes the value at key, or only the part named by sel.
func (s *RedisStore) Del(ctx context.Context, key string, sel Selector) (bool, error) {
	name := s.name(key)
	if sel == nil {
		n, err := s.client.Del(ctx, name).Result()
		if err != nil {
			return false, fmt.Errorf("kvs: redis del %q: %w", key, err)
		}
		return n > 0, nil
	}
	changed := false
	txf := func(tx *redis.Tx) error {
		old, err := s.readTx(ctx, tx, name)
		if err != nil || old == nil {
			return err
		}
		updated, count, err := deleteSelector(old, sel)
		if err != nil || count == 0 {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, name, encodeWire(updated), 0)
			return nil
		})
		if err == nil {
			changed = true
		}
		return err
	}
	for i := 0; i < txRetries; i++ {
		changed = false
		err := s.client.Watch(ctx, txf, name)
		if err == nil {
			return changed, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrBadSelector) {
			return false, err
		}
		return false, fmt.Errorf("kvs: redis del %q: %w", key, err)
	}
	return false, fmt.Errorf("kvs: redis del %q: reached maximum number of retries", key)
}

// readTx fetches and decodes a key inside a WATCH block.
func (s *RedisStore) readTx(ctx context.Context, tx *redis.Tx, name string) (*frid.FridValue, error) {
	b, err := tx.Get(ctx, name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeWire(b)
}

// GetBulk fetches all keys in one MGET.
func (s *RedisStore) GetBulk(ctx context.Context, keys []string) ([]*frid.FridValue, error) {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = s.name(k)
	}
	vals, err := s.client.MGet(ctx, names...).Result()
	if err != nil {
		return nil, fmt.Errorf("kvs: redis mget: %w", err)
	}
	out := make([]*frid.FridValue, len(keys))
	for i, raw := range vals {
		if raw == nil {
			continue
		}
		str, ok := raw.(string)
		if !ok {
			s.logger.Error("unexpected reply type", "key", keys[i], "type", fmt.Sprintf("%T", raw))
			continue
		}
		v, err := decodeWire([]byte(str))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// PutBulk writes the pairs subject to flags. The unconditional case
// runs as one MSET; atomic create-only batches run as one MSETNX.
func (s *RedisStore) PutBulk(ctx context.Context, pairs []KeyValue, flags PutFlag) (int, error) {
	switch {
	case flags == Unchecked:
		if len(pairs) == 0 {
			return 0, nil
		}
		if err := s.client.MSet(ctx, s.bulkArgs(pairs)...).Err(); err != nil {
			return 0, fmt.Errorf("kvs: redis mset: %w", err)
		}
		return len(pairs), nil
	case flags&NoChange != 0 && flags&Atomicity != 0:
		if len(pairs) == 0 {
			return 0, nil
		}
		ok, err := s.client.MSetNX(ctx, s.bulkArgs(pairs)...).Result()
		if err != nil {
			return 0, fmt.Errorf("kvs: redis msetnx: %w", err)
		}
		if !ok {
			return 0, nil
		}
		return len(pairs), nil
	default:
		return putBulkSeq(ctx, s, pairs, flags)
	}
}

func (s *RedisStore) bulkArgs(pairs []KeyValue) []interface{} {
	args := make([]interface{}, 0, 2*len(pairs))
	for _, kv := range pairs {
		val := kv.Value
		if val == nil {
			val = frid.Null()
		}
		args = append(args, s.name(kv.Key), encodeWire(val))
	}
	return args
}

// DelBulk removes all keys in one DEL.
func (s *RedisStore) DelBulk(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = s.name(k)
	}
	n, err := s.client.Del(ctx, names...).Result()
	if err != nil {
		return 0, fmt.Errorf("kvs: redis del: %w", err)
	}
	return int(n), nil
}

// GetMeta reports the type and size of each existing key, fetching
// them through one pipeline.
func (s *RedisStore) GetMeta(ctx context.Context, keys []string) (map[string]TypeSize, error) {
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.Get(ctx, s.name(k))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("kvs: redis pipeline: %w", err)
	}
	out := make(map[string]TypeSize)
	for i, cmd := range cmds {
		b, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("kvs: redis get %q: %w", keys[i], err)
		}
		v, err := decodeWire(b)
		if err != nil {
			return nil, err
		}
		out[keys[i]] = typeSize(v)
	}
	return out, nil
}

// WipeAll removes every key under this store's prefix and returns how
// many were removed. Intended for tests.
func (s *RedisStore) WipeAll(ctx context.Context) (int, error) {
	keys, err := s.client.Keys(ctx, s.prefix+"*").Result()
	if err != nil {
		return 0, fmt.Errorf("kvs: redis keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("kvs: redis del: %w", err)
	}
	return int(n), nil
}

// Close closes the client when this store created it. Stores wrapping
// an external client, and substores, leave the client open.
func (s *RedisStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

// ============================================================
// Wire Codec
// ============================================================

// encodeWire produces the stored byte form of a value. Blobs are
// prefixed raw bytes, plain text rides unprefixed when it does not
// collide with a prefix, and everything else is prefixed frid text.
func encodeWire(val *frid.FridValue) []byte {
	if b, err := val.AsBlob(); err == nil {
		out := make([]byte, 0, len(wireBlobPrefix)+len(b))
		out = append(out, wireBlobPrefix...)
		return append(out, b...)
	}
	if t, err := val.AsText(); err == nil {
		b := []byte(t)
		if !bytes.HasPrefix(b, wireFridPrefix) && !bytes.HasPrefix(b, wireBlobPrefix) {
			return b
		}
	}
	text := frid.Dump(val)
	out := make([]byte, 0, len(wireFridPrefix)+len(text))
	out = append(out, wireFridPrefix...)
	return append(out, text...)
}

// decodeWire inverts encodeWire.
func decodeWire(b []byte) (*frid.FridValue, error) {
	if bytes.HasPrefix(b, wireFridPrefix) {
		v, err := frid.Load(string(b[len(wireFridPrefix):]))
		if err != nil {
			return nil, fmt.Errorf("kvs: decoding stored value: %w", err)
		}
		return v, nil
	}
	if bytes.HasPrefix(b, wireBlobPrefix) {
		return frid.Blob(append([]byte(nil), b[len(wireBlobPrefix):]...)), nil
	}
	return frid.Text(string(b)), nil
}
