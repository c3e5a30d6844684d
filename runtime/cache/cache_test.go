package cache

import (
	"errors"
	"testing"

	"github.com/aledsdavies/teng/runtime/dictionary"
	"github.com/aledsdavies/teng/runtime/fs"
)

// memReader is an in-memory fs.Reader whose Stat changes whenever its
// content is overwritten, so it can drive IsStale end-to-end without
// touching the real filesystem.
type memReader struct {
	files map[string]string
	rev   map[string]int64
}

func newMemReader() *memReader {
	return &memReader{files: map[string]string{}, rev: map[string]int64{}}
}

func (r *memReader) put(path, content string) {
	r.files[path] = content
	r.rev[path]++
}

func (r *memReader) Read(path string) ([]byte, error) {
	s, ok := r.files[path]
	if !ok {
		return nil, errors.New("memReader: not found: " + path)
	}
	return []byte(s), nil
}

func (r *memReader) Stat(path string) (fs.Stat, error) {
	s, ok := r.files[path]
	if !ok {
		return fs.Stat{}, errors.New("memReader: not found: " + path)
	}
	return fs.Stat{Size: int64(len(s)), ModTime: r.rev[path]}, nil
}

func TestNewLeavesNoNilStore(t *testing.T) {
	c := New(16)
	if c.Programs == nil || c.Dictionaries == nil || c.Configs == nil {
		t.Fatal("New() left a nil store")
	}
}

func TestCachesDictionaryStaleAfterEdit(t *testing.T) {
	c := New(16)
	reader := newMemReader()
	reader.put("words.dict", "GREETING=hello\n")

	key := FileKey("words.dict")
	build := func() (*dictionary.Dictionary, uint64, error) {
		d := dictionary.New()
		d.Set("GREETING", "hello")
		st, _ := reader.Stat("words.dict")
		d.Sources.Add("words.dict", st)
		return d, 0, nil
	}

	h, err := c.Dictionaries.GetOrBuild(key, nil, reader, true, build)
	if err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}
	if got, _ := h.Value().Get("GREETING"); got != "hello" {
		t.Fatalf("GREETING = %q, want hello", got)
	}
	h.Release()

	// Second lookup before any edit must hit the cache, not rebuild.
	h2, ok := c.Dictionaries.Lookup(key, nil, reader, true)
	if !ok {
		t.Fatal("Lookup before edit = miss, want hit")
	}
	h2.Release()

	// Editing the backing file must invalidate the cached dictionary.
	reader.put("words.dict", "GREETING=howdy\n")
	if _, ok := c.Dictionaries.Lookup(key, nil, reader, true); ok {
		t.Fatal("Lookup after edit = hit, want miss (stale)")
	}

	rebuilt, err := c.Dictionaries.GetOrBuild(key, nil, reader, true, func() (*dictionary.Dictionary, uint64, error) {
		d := dictionary.New()
		d.Set("GREETING", "howdy")
		st, _ := reader.Stat("words.dict")
		d.Sources.Add("words.dict", st)
		return d, 0, nil
	})
	if err != nil {
		t.Fatalf("GetOrBuild after edit: %v", err)
	}
	if got, _ := rebuilt.Value().Get("GREETING"); got != "howdy" {
		t.Fatalf("GREETING after edit = %q, want howdy", got)
	}
	rebuilt.Release()
}

func TestInvalidatePathClearsDictionaryCache(t *testing.T) {
	c := New(16)
	key := FileKey("shared.dict")

	h, err := c.Dictionaries.GetOrBuild(key, nil, nil, false, func() (*dictionary.Dictionary, uint64, error) {
		return dictionary.New(), 0, nil
	})
	if err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}
	h.Release()
	if c.Dictionaries.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Dictionaries.Len())
	}

	c.invalidatePath("shared.dict")
	if c.Dictionaries.Len() != 0 {
		t.Fatalf("Len() after invalidatePath = %d, want 0", c.Dictionaries.Len())
	}
}
