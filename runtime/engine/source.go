package engine

import "github.com/aledsdavies/teng/runtime/cache"

// sourceKind distinguishes a file-backed source from an inline-string one:
// both file-backed and inline-string templates are supported, and the
// inline form hashes its body to derive a cache key.
type sourceKind int

const (
	sourceFile sourceKind = iota
	sourceInline
)

// Source names a template, dictionary, or configuration input to Render:
// either a path resolved against the Engine's fs.Reader, or inline text
// whose content is itself the cache key's preimage. The zero Source
// (File("")) is never produced by File/Inline; callers use engine.Default
// to mean "no dictionary/configuration supplied."
type Source struct {
	kind sourceKind
	text string
}

// File names a filesystem-backed source at path.
func File(path string) Source { return Source{kind: sourceFile, text: path} }

// Inline names a source whose content is text itself, not a file path.
func Inline(text string) Source { return Source{kind: sourceInline, text: text} }

// Default is the zero Source, meaning "use the engine's built-in empty
// dictionary / default configuration" when passed as Render's dict or cfg
// argument.
var Default = Source{}

func (s Source) isDefault() bool { return s.kind == sourceFile && s.text == "" }

// key derives the canonical cache key: a normalized absolute path for
// file sources, md5-hex(content) for inline ones.
func (s Source) key() string {
	if s.kind == sourceInline {
		return cache.StringKey(s.text)
	}
	return cache.FileKey(s.text)
}
