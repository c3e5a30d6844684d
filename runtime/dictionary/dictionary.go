// Package dictionary implements Teng's dictionary and configuration file
// format: line-oriented key/value files with comments, `%include`,
// `%expand`, `%replace`, and (for configuration files) typed
// `%enable`/`%disable` feature flags and numeric directives.
package dictionary

import "github.com/aledsdavies/teng/runtime/fs"

// Dictionary is a key/value store loaded from one or more `.dict` files.
// Entries preserve load order for deterministic dump output; `#{KEY}`
// lookups in templates resolve against it via OpDictLookup.
type Dictionary struct {
	order   []string
	entries map[string]string

	// Expand mirrors the file's "%expand yes|no" directive: when true,
	// Load interpolates "#{KEY}" references inside values against entries
	// already present in the dictionary.
	Expand bool
	// Replace mirrors "%replace yes|no": when true, a later entry for the
	// same name overwrites an earlier one; the default is first-wins.
	Replace bool

	// Sources records every file folded in via "%include" (the top-level
	// file plus any nested includes), so runtime/cache can tell whether
	// this dictionary is stale. Populated by Load/LoadConfig; a Dictionary
	// built purely in-memory (New, then Set) has an empty, always-fresh
	// source list.
	Sources *fs.SourceList
}

// New creates an empty dictionary with the default policy: Expand=false,
// Replace=false (first-wins).
func New() *Dictionary {
	return &Dictionary{entries: map[string]string{}, Sources: fs.NewSourceList()}
}

// Get returns the value stored under key, and whether it exists.
func (d *Dictionary) Get(key string) (string, bool) {
	v, ok := d.entries[key]
	return v, ok
}

// Set stores value under key, honoring the Replace policy: the first
// assignment always wins unless Replace is set, in which case the last
// assignment wins.
func (d *Dictionary) Set(key, value string) {
	if _, exists := d.entries[key]; exists && !d.Replace {
		return
	}
	if _, exists := d.entries[key]; !exists {
		d.order = append(d.order, key)
	}
	d.entries[key] = value
}

// Names returns every key in load order.
func (d *Dictionary) Names() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Len reports the number of entries.
func (d *Dictionary) Len() int { return len(d.entries) }

// IsStale reports whether any file this Dictionary (or, via embedding,
// Config) was loaded from has changed since, re-stat'ing each through
// reader. Satisfies runtime/cache.Staleable.
func (d *Dictionary) IsStale(reader fs.Reader) bool {
	return d.Sources.IsChanged(reader)
}
