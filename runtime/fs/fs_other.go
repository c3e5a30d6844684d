//go:build !unix

package fs

import "os"

// fillPlatformStat is a no-op on platforms without a syscall.Stat_t-style
// ctime/inode (e.g. Windows): Stat still carries Size/ModTime, which is
// enough to catch the overwhelming majority of edits.
func fillPlatformStat(st *Stat, fi os.FileInfo) {}
