// Package engine wires together every major component — lexer, parser,
// byte-code program, interpreter, escaper, formatter, dictionary,
// built-ins, error log, and cache — behind a single rendering entry point:
// given a template key, dictionary key, config key, content type,
// encoding, data root, writer, and error log, produce the rendered output
// to the writer, returning success iff no FATAL entry was logged.
package engine

import (
	"github.com/aledsdavies/teng/runtime/builtins"
	"github.com/aledsdavies/teng/runtime/cache"
	"github.com/aledsdavies/teng/runtime/escape"
	"github.com/aledsdavies/teng/runtime/errlog"
	"github.com/aledsdavies/teng/runtime/fs"
)

// Engine holds everything a Render call borrows from: the shared resources
// are the caches and the content-type registry. One Engine is safe for
// concurrent Render calls; each call opens its own interpreter state.
type Engine struct {
	Reader   fs.Reader
	Caches   *cache.Caches
	CTReg    *escape.Registry
	Builtins *builtins.Registry

	maxPerPosition int
}

// Option configures a new Engine.
type Option func(*Engine)

// WithCacheCapacity overrides cache.DefaultCapacity for all three caches.
func WithCacheCapacity(capacity int) Option {
	return func(e *Engine) { e.Caches = cache.New(capacity) }
}

// WithContentTypeRegistry overrides escape.NewDefaultRegistry, e.g. for a
// host that registers additional content types.
func WithContentTypeRegistry(reg *escape.Registry) Option {
	return func(e *Engine) { e.CTReg = reg }
}

// WithBuiltins overrides builtins.NewDefaultRegistry, e.g. for a host that
// extends or replaces the reference function library — the library itself
// is an external collaborator by design, with only its invocation contract
// fixed.
func WithBuiltins(reg *builtins.Registry) Option {
	return func(e *Engine) { e.Builtins = reg }
}

// WithMaxMessagesPerPosition overrides errlog.DefaultMaxPerPosition for
// Logs this Engine creates on the caller's behalf (NewLog).
func WithMaxMessagesPerPosition(n int) Option {
	return func(e *Engine) { e.maxPerPosition = n }
}

// New creates an Engine reading template/dictionary/configuration sources
// through reader (a pluggable filesystem interface), with the default
// content-type registry and default built-in function library unless
// overridden.
func New(reader fs.Reader, opts ...Option) *Engine {
	e := &Engine{
		Reader:   reader,
		Caches:   cache.New(cache.DefaultCapacity),
		CTReg:    escape.NewDefaultRegistry(),
		Builtins: builtins.NewDefaultRegistry(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// NewLog creates an error log sized per WithMaxMessagesPerPosition (or
// errlog.DefaultMaxPerPosition), a convenience for hosts that don't need
// to configure the cap per render.
func (e *Engine) NewLog() *errlog.Log {
	return errlog.New(e.maxPerPosition)
}

// EnableWatch starts an fsnotify-backed watcher invalidating this Engine's
// caches on file changes, the `watchfiles` fast path (see
// runtime/cache.Watcher). Optional: the stat-hash check in every cache
// lookup is the correctness backstop regardless.
func (e *Engine) EnableWatch() (*cache.Watcher, error) {
	return e.Caches.EnableWatch()
}
