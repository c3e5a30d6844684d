package engine

import (
	"bytes"
	"testing"

	"github.com/aledsdavies/teng/core/value"
	"github.com/aledsdavies/teng/runtime/errlog"
	"github.com/aledsdavies/teng/runtime/fs"
)

// memReader is an in-memory fs.Reader for exercising file-backed
// templates, dictionaries, and configurations without touching disk.
type memReader map[string]string

func (r memReader) Read(path string) ([]byte, error) {
	s, ok := r[path]
	if !ok {
		return nil, notFoundErr(path)
	}
	return []byte(s), nil
}

func (r memReader) Stat(path string) (fs.Stat, error) {
	s, ok := r[path]
	if !ok {
		return fs.Stat{}, notFoundErr(path)
	}
	return fs.Stat{Size: int64(len(s))}, nil
}

type notFoundErr string

func (e notFoundErr) Error() string { return "not found: " + string(e) }

func TestRenderInlineTemplateWithDefaults(t *testing.T) {
	e := New(memReader{})
	root := value.NewFragment()
	root.SetString("NAME", "World")

	var buf bytes.Buffer
	log := e.NewLog()
	ok, err := e.Render(Inline("Hello, ${NAME}!"), Default, Default, "text/plain", "utf-8", root, &buf, log)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !ok {
		t.Fatalf("Render reported failure; log: %+v", log.Entries())
	}
	if buf.String() != "Hello, World!" {
		t.Fatalf("output = %q, want %q", buf.String(), "Hello, World!")
	}
}

func TestRenderFileBackedTemplateCachesAcrossCalls(t *testing.T) {
	reader := memReader{"greet.teng": "Hi ${NAME}"}
	e := New(reader)
	root := value.NewFragment()
	root.SetString("NAME", "Ada")

	var buf1 bytes.Buffer
	log1 := e.NewLog()
	ok, err := e.Render(File("greet.teng"), Default, Default, "text/plain", "utf-8", root, &buf1, log1)
	if err != nil || !ok {
		t.Fatalf("first Render: ok=%v err=%v", ok, err)
	}
	if buf1.String() != "Hi Ada" {
		t.Fatalf("first output = %q", buf1.String())
	}
	if e.Caches.Programs.Len() != 1 {
		t.Fatalf("Programs.Len() = %d, want 1", e.Caches.Programs.Len())
	}

	var buf2 bytes.Buffer
	log2 := e.NewLog()
	ok, err = e.Render(File("greet.teng"), Default, Default, "text/plain", "utf-8", root, &buf2, log2)
	if err != nil || !ok {
		t.Fatalf("second Render: ok=%v err=%v", ok, err)
	}
	if buf2.String() != "Hi Ada" {
		t.Fatalf("second output = %q", buf2.String())
	}
	if e.Caches.Programs.Len() != 1 {
		t.Fatalf("Programs.Len() after second render = %d, want 1 (cache hit)", e.Caches.Programs.Len())
	}
}

func TestRenderPicksUpDictionaryAndConfig(t *testing.T) {
	reader := memReader{
		"words.dict": "GREETING Howdy\n",
		"teng.cfg":   "maxincludedepth 3\n",
	}
	e := New(reader)

	var buf bytes.Buffer
	log := e.NewLog()
	ok, err := e.Render(Inline("#{GREETING}, <b>friend</b>"), File("words.dict"), File("teng.cfg"), "text/html", "utf-8", nil, &buf, log)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !ok {
		t.Fatalf("Render reported failure; log: %+v", log.Entries())
	}
	if buf.String() != "Howdy, <b>friend</b>" {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestRenderUnknownContentTypeWarnsAndFallsBack(t *testing.T) {
	e := New(memReader{})
	var buf bytes.Buffer
	log := e.NewLog()
	ok, err := e.Render(Inline("<${X}>"), Default, Default, "bogus/type", "utf-8", nil, &buf, log)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !ok {
		t.Fatalf("unknown content type should not be fatal")
	}
	found := false
	for _, ent := range log.Entries() {
		if ent.Level == errlog.Warning {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a warning entry for the unknown content type")
	}
}

func TestRenderMissingTemplateFileReturnsError(t *testing.T) {
	e := New(memReader{})
	var buf bytes.Buffer
	log := e.NewLog()
	if _, err := e.Render(File("missing.teng"), Default, Default, "text/plain", "utf-8", nil, &buf, log); err == nil {
		t.Fatal("expected an error for a missing template file")
	}
}
