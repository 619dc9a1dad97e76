package cache

import (
	"os"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestKeyForIgnoresNameOrder(t *testing.T) {
	a := KeyFor("def pype(x): pass\n", []string{"out", "err"})
	b := KeyFor("def pype(x): pass\n", []string{"err", "out"})
	if a != b {
		t.Error("predeclared order must not change the key")
	}
	c := KeyFor("def pype(x): pass\n", []string{"err", "out", "helper"})
	if a == c {
		t.Error("extra predeclared name must change the key")
	}
	if KeyFor("a", nil) == KeyFor("b", nil) {
		t.Error("different sources must differ")
	}
}

func TestPutGet(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := KeyFor("src", nil)

	if _, ok, err := c.Get(key); ok || err != nil {
		t.Fatalf("empty cache Get = %v, %v", ok, err)
	}
	if err := c.Put(key, 3, []byte{1, 2, 3}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if string(got) != "\x01\x02\x03" {
		t.Errorf("compiled = %v", got)
	}
	if n, err := c.Len(); err != nil || n != 1 {
		t.Errorf("Len = %d, %v", n, err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := c.Get(key); ok {
		t.Error("entry survived Clear")
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear on empty cache: %v", err)
	}
}

func TestGetSchemaMismatchIsMiss(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := KeyFor("src", nil)
	if err := c.Put(key, 3, []byte{9}); err != nil {
		t.Fatal(err)
	}

	stale, err := msgpack.Marshal(&Payload{Schema: Schema + 1, Key: key.String(), Compiled: []byte{9}})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.pathFor(key), stale, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Get(key); ok || err != nil {
		t.Errorf("stale schema Get = %v, %v", ok, err)
	}
}

func TestNilCache(t *testing.T) {
	var c *Cache
	if err := c.Put(Key{}, 0, nil); err != nil {
		t.Error(err)
	}
	if _, ok, err := c.Get(Key{}); ok || err != nil {
		t.Errorf("nil Get = %v, %v", ok, err)
	}
	if c.Dir() != "" {
		t.Error("nil cache has no dir")
	}
}
