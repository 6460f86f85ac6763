// Package winepath converts Linux host paths into the Windows-style forms a
// Wine guest understands. Three forms exist, differing only in escaping and
// drive root: a Z:-drive display form for user-facing instructions, a
// Z:-drive registry form with doubled backslashes for .reg file syntax, and a
// C:-drive form for paths inside a specific Wine prefix.
package winepath

import (
	"path/filepath"
	"strings"
)

// DisplayPath maps a host absolute path to its Z: drive notation with single
// backslashes. Intended for human-readable output only; the result is not
// valid inside a registry document.
func DisplayPath(hostPath string) string {
	return "Z:\\" + strings.ReplaceAll(hostPath, "/", "\\")
}

// RegistryPath maps a host absolute path to its Z: drive notation with
// doubled backslashes, matching the escaping rules of .reg files. This is the
// only path form allowed inside a registry document.
func RegistryPath(hostPath string) string {
	return "Z:\\\\" + strings.ReplaceAll(hostPath, "/", "\\\\")
}

// GuestPath maps a host path located under prefixRoot's drive_c directory to
// the C: drive notation the Wine guest sees. Paths outside drive_c keep their
// host form with separators flipped, which matches how the runtime resolves
// them.
func GuestPath(prefixRoot, hostPath string) string {
	driveC := filepath.Join(prefixRoot, "drive_c")
	guest := strings.Replace(hostPath, driveC, "C:", 1)
	return strings.ReplaceAll(guest, "/", "\\")
}
