// Package fs is the pluggable filesystem abstraction Teng's core consumes
// to load template, dictionary, and configuration source files: a reader
// returning (bytes, stat-hash), so a host can substitute an embedded-asset
// reader, a virtual filesystem, or a network-backed store without
// touching the compiler.
package fs

import (
	"os"
	"path/filepath"
)

// Stat is a stable fingerprint of one file's metadata: equal Stat values
// for two reads of the same path mean the content can be assumed
// unchanged; any drift in size, modification time, change time, or inode
// means the cache layer (runtime/cache) must treat the file as stale.
type Stat struct {
	Size    int64
	ModTime int64 // UnixNano
	CTime   int64 // UnixNano; 0 on platforms without a distinct ctime
	Inode   uint64
}

// Reader is the filesystem interface the core consumes: Read fails with a
// wrapped os-level error (not-found, permission-denied, I/O); Stat returns
// a fingerprint stable under identical file contents and metadata.
type Reader interface {
	Read(path string) ([]byte, error)
	Stat(path string) (Stat, error)
}

// LocalReader reads from the local filesystem rooted at Root; relative
// paths resolve against Root, absolute paths are used verbatim.
type LocalReader struct {
	Root string
}

// NewLocalReader creates a LocalReader rooted at root.
func NewLocalReader(root string) *LocalReader {
	return &LocalReader{Root: root}
}

func (r *LocalReader) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.Root, path)
}

// Read returns the full contents of path.
func (r *LocalReader) Read(path string) ([]byte, error) {
	return os.ReadFile(r.resolve(path))
}

// Stat fingerprints path via its OS-reported size/mtime/ctime/inode.
func (r *LocalReader) Stat(path string) (Stat, error) {
	fi, err := os.Stat(r.resolve(path))
	if err != nil {
		return Stat{}, err
	}
	st := Stat{Size: fi.Size(), ModTime: fi.ModTime().UnixNano()}
	fillPlatformStat(&st, fi)
	return st, nil
}
