package dictionary

import (
	"errors"
	"testing"

	"github.com/aledsdavies/teng/runtime/fs"
)

// memReader is a minimal in-memory fs.Reader for dictionary tests.
type memReader map[string]string

func (m memReader) Read(path string) ([]byte, error) {
	s, ok := m[path]
	if !ok {
		return nil, errors.New("not found: " + path)
	}
	return []byte(s), nil
}

func (m memReader) Stat(path string) (fs.Stat, error) { return fs.Stat{}, nil }

func TestBasicEntries(t *testing.T) {
	r := memReader{"d.dict": "greeting Hello\nname World\n"}
	d, err := Load(r, "d.dict")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v, _ := d.Get("greeting"); v != "Hello" {
		t.Errorf("greeting = %q, want Hello", v)
	}
	if v, _ := d.Get("name"); v != "World" {
		t.Errorf("name = %q, want World", v)
	}
}

func TestFirstWinsByDefault(t *testing.T) {
	r := memReader{"d.dict": "x first\nx second\n"}
	d, _ := Load(r, "d.dict")
	if v, _ := d.Get("x"); v != "first" {
		t.Errorf("x = %q, want first (first-wins default)", v)
	}
}

func TestReplaceEnabled(t *testing.T) {
	r := memReader{"d.dict": "%replace yes\nx first\nx second\n"}
	d, _ := Load(r, "d.dict")
	if v, _ := d.Get("x"); v != "second" {
		t.Errorf("x = %q, want second (%%replace yes)", v)
	}
}

func TestIncludeAndComments(t *testing.T) {
	r := memReader{
		"main.dict": "# a comment\n%include extra.dict\nmain value\n",
		"extra.dict": "extra value\n",
	}
	d, err := Load(r, "main.dict")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v, _ := d.Get("extra"); v != "value" {
		t.Errorf("extra = %q, want value", v)
	}
	if v, _ := d.Get("main"); v != "value" {
		t.Errorf("main = %q, want value", v)
	}
}

func TestIncludeCycleDetected(t *testing.T) {
	r := memReader{
		"a.dict": "%include b.dict\n",
		"b.dict": "%include a.dict\n",
	}
	_, err := Load(r, "a.dict")
	var cyc *ErrIncludeCycle
	if !errors.As(err, &cyc) {
		t.Fatalf("expected ErrIncludeCycle, got %v", err)
	}
}

func TestQuotedValueAndContinuation(t *testing.T) {
	r := memReader{"d.dict": "msg \"hello world\"\nlong line one\n continuation\n"}
	d, _ := Load(r, "d.dict")
	if v, _ := d.Get("msg"); v != "hello world" {
		t.Errorf("msg = %q, want %q", v, "hello world")
	}
	if v, _ := d.Get("long"); v != "line one\ncontinuation" {
		t.Errorf("long = %q", v)
	}
}

func TestExpandInterpolatesDictKeys(t *testing.T) {
	r := memReader{"d.dict": "%expand yes\nfirst Hello\ngreeting #{first}, World\n"}
	d, _ := Load(r, "d.dict")
	if v, _ := d.Get("greeting"); v != "Hello, World" {
		t.Errorf("greeting = %q, want %q", v, "Hello, World")
	}
}

func TestConfigDefaultsAndOverrides(t *testing.T) {
	r := memReader{"teng.cfg": "%enable debug\n%disable format\nmaxincludedepth 5\n"}
	cfg, err := LoadConfig(r, "teng.cfg")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.Enabled(FlagDebug) {
		t.Error("debug should be enabled")
	}
	if cfg.Enabled(FlagFormat) {
		t.Error("format should be disabled")
	}
	if !cfg.Enabled(FlagWatchFiles) {
		t.Error("watchfiles should default on")
	}
	if cfg.MaxIncludeDepth != 5 {
		t.Errorf("MaxIncludeDepth = %d, want 5", cfg.MaxIncludeDepth)
	}
}
