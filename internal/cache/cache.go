// Package cache stores compiled Starlark programs on disk so repeated
// one-liners skip parsing and compilation.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
)

// Schema is bumped whenever Payload changes shape.
const Schema uint16 = 1

// Key identifies a compiled program.
type Key [sha256.Size]byte

// String returns the hex form of k.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// KeyFor hashes the generated source together with the set of predeclared
// names the program was compiled against; a new init global changes how
// identifiers resolve.
func KeyFor(source string, predeclared []string) Key {
	names := slices.Clone(predeclared)
	slices.Sort(names)

	h := sha256.New()
	fmt.Fprintf(h, "pype-cache/%d\n", Schema)
	h.Write([]byte(source))
	for _, name := range names {
		h.Write([]byte{0})
		h.Write([]byte(name))
	}
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// Payload is what lands on disk.
type Payload struct {
	Schema    uint16
	Key       string
	SourceLen uint32
	Compiled  []byte
	Created   int64
}

// Cache is a directory of msgpack payloads. A nil *Cache is valid and
// never hits. Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Open creates dir if needed and returns a cache rooted there.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) pathFor(key Key) string {
	return filepath.Join(c.dir, "programs", key.String()+".mp")
}

// Put stores compiled program bytes for key, replacing the file atomically.
func (c *Cache) Put(key Key, sourceLen int, compiled []byte) error {
	if c == nil {
		return nil
	}
	n, err := safecast.Conv[uint32](sourceLen)
	if err != nil {
		return fmt.Errorf("source too large to cache: %w", err)
	}
	payload := Payload{
		Schema:    Schema,
		Key:       key.String(),
		SourceLen: n,
		Compiled:  compiled,
		Created:   time.Now().Unix(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp) //nolint:errcheck // gone after a successful rename

	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		f.Close() //nolint:errcheck
		return fmt.Errorf("failed to encode cache payload: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Get returns the compiled bytes for key. A missing entry, a payload written
// by another schema or one stored under a different key is a miss.
func (c *Cache) Get(key Key) ([]byte, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close() //nolint:errcheck

	var payload Payload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("failed to decode cache payload: %w", err)
	}
	if payload.Schema != Schema || payload.Key != key.String() {
		return nil, false, nil
	}
	return payload.Compiled, true, nil
}

// Clear removes every cached program.
func (c *Cache) Clear() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименовываем и удаляем, чтобы параллельный Put не увидел полупустой каталог
	dir := filepath.Join(c.dir, "programs")
	old := dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

// Len counts cached programs.
func (c *Cache) Len() (int, error) {
	if c == nil {
		return 0, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(c.dir, "programs"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".mp" {
			n++
		}
	}
	return n, nil
}
