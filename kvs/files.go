package kvs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"

	"github.com/frid-format/frid/frid"
)

const (
	fileExt     = ".frid"
	fileExtZstd = ".frid.zst"
)

// ============================================================
// File Store
// ============================================================

// FileStoreOptions configures a FileStore.
type FileStoreOptions struct {
	// Compress passes values through zstd and switches the file
	// extension from ".frid" to ".frid.zst".
	Compress bool
	// Logger receives failure diagnostics. Defaults to a stderr logger
	// with the prefix "kvs.files".
	Logger *log.Logger
}

// FileStore keeps one file per key under a root directory. Writes go
// to a temp file first and are renamed into place, so readers never
// observe a half-written value. Keys map to filenames with everything
// outside letters, digits, dot, dash and underscore percent-escaped.
type FileStore struct {
	root   string
	opts   FileStoreOptions
	logger *log.Logger

	mu  sync.RWMutex
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewFileStore opens a file store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string, opts FileStoreOptions) (*FileStore, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("kvs: resolving store root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("kvs: creating store root: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "kvs.files"})
	}
	s := &FileStore{root: root, opts: opts, logger: logger}
	if opts.Compress {
		s.enc, err = zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("kvs: zstd encoder: %w", err)
		}
		s.dec, err = zstd.NewReader(nil)
		if err != nil {
			s.enc.Close()
			return nil, fmt.Errorf("kvs: zstd decoder: %w", err)
		}
	}
	return s, nil
}

// Root returns the absolute directory the store writes under.
func (s *FileStore) Root() string {
	return s.root
}

// Substore opens a store in a subdirectory of this store's root.
func (s *FileStore) Substore(name string, rest ...string) (Store, error) {
	dir := filepath.Join(s.root, escapeName(name))
	for _, r := range rest {
		dir = filepath.Join(dir, escapeName(r))
	}
	opts := s.opts
	opts.Logger = s.logger
	return NewFileStore(dir, opts)
}

// Get returns the value at key, narrowed by sel.
func (s *FileStore) Get(_ context.Context, key string, sel Selector) (*frid.FridValue, error) {
	s.mu.RLock()
	val, err := s.read(key)
	s.mu.RUnlock()
	if err != nil || val == nil {
		return nil, err
	}
	out, ok, err := applySelector(val, sel)
	if err != nil || !ok {
		return nil, err
	}
	return out, nil
}

// Put writes val at key subject to flags.
func (s *FileStore) Put(_ context.Context, key string, val *frid.FridValue, flags PutFlag) (bool, error) {
	if val == nil {
		val = frid.Null()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if flags == Unchecked {
		if err := s.write(key, val); err != nil {
			return false, err
		}
		return true, nil
	}
	old, err := s.read(key)
	if err != nil {
		return false, err
	}
	exists := old != nil
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
	if err := s.write(key, mergeValues(old, val)); err != nil {
		return false, err
	}
	return true, nil
}

// Del removes the value at key, or only the part named by sel.
func (s *FileStore) Del(_ context.Context, key string, sel Selector) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sel == nil {
		err := os.Remove(s.path(key))
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			s.logger.Error("deleting value", "key", key, "error", err)
			return false, fmt.Errorf("kvs: deleting %q: %w", key, err)
		}
		return true, nil
	}
	old, err := s.read(key)
	if err != nil {
		return false, err
	}
	if old == nil {
		return false, nil
	}
	updated, count, err := deleteSelector(old, sel)
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}
	if err := s.write(key, updated); err != nil {
		return false, err
	}
	return true, nil
}

// GetBulk returns one value per key, nil for missing keys.
func (s *FileStore) GetBulk(ctx context.Context, keys []string) ([]*frid.FridValue, error) {
	return getBulkSeq(ctx, s, keys)
}

// PutBulk writes the pairs subject to flags.
func (s *FileStore) PutBulk(ctx context.Context, pairs []KeyValue, flags PutFlag) (int, error) {
	return putBulkSeq(ctx, s, pairs, flags)
}

// DelBulk removes the keys and returns how many existed.
func (s *FileStore) DelBulk(ctx context.Context, keys []string) (int, error) {
	return delBulkSeq(ctx, s, keys)
}

// GetMeta reports the type and size of each existing key.
func (s *FileStore) GetMeta(_ context.Context, keys []string) (map[string]TypeSize, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]TypeSize)
	for _, k := range keys {
		v, err := s.read(k)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out[k] = typeSize(v)
		}
	}
	return out, nil
}

// Close releases the store's compression codecs.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.enc != nil {
		err = s.enc.Close()
		s.enc = nil
	}
	if s.dec != nil {
		s.dec.Close()
		s.dec = nil
	}
	return err
}

// ============================================================
// File Plumbing
// ============================================================

func (s *FileStore) ext() string {
	if s.opts.Compress {
		return fileExtZstd
	}
	return fileExt
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.root, escapeName(key)+s.ext())
}

// read loads and decodes the value at key, nil if missing.
func (s *FileStore) read(key string) (*frid.FridValue, error) {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("reading value", "key", key, "error", err)
		return nil, fmt.Errorf("kvs: reading %q: %w", key, err)
	}
	if s.opts.Compress {
		raw, err := s.dec.DecodeAll(b, nil)
		if err != nil {
			return nil, fmt.Errorf("kvs: decompressing %q: %w", key, err)
		}
		b = raw
	}
	v, err := frid.Load(string(b))
	if err != nil {
		return nil, fmt.Errorf("kvs: decoding %q: %w", key, err)
	}
	return v, nil
}

// write encodes val and renames a temp file over the key's file.
func (s *FileStore) write(key string, val *frid.FridValue) error {
	b := []byte(frid.Dump(val))
	if s.opts.Compress {
		b = s.enc.EncodeAll(b, nil)
	}
	tmp, err := os.CreateTemp(s.root, ".put-*")
	if err != nil {
		s.logger.Error("creating temp file", "key", key, "error", err)
		return fmt.Errorf("kvs: writing %q: %w", key, err)
	}
	_, err = tmp.Write(b)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), s.path(key))
	}
	if err != nil {
		if rmErr := os.Remove(tmp.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			s.logger.Error("removing temp file", "path", tmp.Name(), "error", rmErr)
		}
		s.logger.Error("writing value", "key", key, "error", err)
		return fmt.Errorf("kvs: writing %q: %w", key, err)
	}
	return nil
}

// escapeName maps a key to a single path component. The escape keeps
// letters, digits, dot, dash and underscore; everything else becomes
// %xx so separators and control bytes cannot reach the filesystem.
func escapeName(key string) string {
	plain := true
	for i := 0; i < len(key); i++ {
		if !plainNameByte(key[i]) {
			plain = false
			break
		}
	}
	if plain {
		return key
	}
	var sb strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		if plainNameByte(c) {
			sb.WriteByte(c)
		} else {
			fmt.Fprintf(&sb, "%%%02x", c)
		}
	}
	return sb.String()
}

func plainNameByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '.' || c == '-' || c == '_':
		return true
	default:
		return false
	}
}
