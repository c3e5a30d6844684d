package cache

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
)

// FileKey canonicalizes a file path into a cache key: a normalized
// absolute path, so "a.teng" and "./a.teng" read from different working
// directories collide on the same entry.
func FileKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}

// StringKey derives a cache key for an inline-string template, dictionary,
// or configuration by hashing its body. The prefix keeps it out of
// FileKey's namespace — no real filesystem path starts with it.
func StringKey(content string) string {
	sum := md5.Sum([]byte(content))
	return "string:" + hex.EncodeToString(sum[:])
}
