// Package prefix manages Wine prefixes: the isolated guest filesystems the
// ModAPI installer runs inside. A prefix is created once per name and reused
// on later runs; nothing here ever deletes or resets one.
package prefix

import (
	"fmt"
	"os"
	"path/filepath"
)

// markerName is the sentinel file recording that dependency installation has
// already succeeded inside a prefix.
const markerName = ".dependencies_installed"

// Prefix identifies one Wine prefix on disk.
type Prefix struct {
	// Name is the prefix name under the prefixes directory.
	Name string

	// Root is the host absolute prefix directory (the WINEPREFIX value).
	Root string
}

// At returns the Prefix for name under prefixesDir, whether or not it exists
// on disk. The on-disk layout is <prefixesDir>/<name>/pfx.
func At(prefixesDir, name string) Prefix {
	return Prefix{
		Name: name,
		Root: filepath.Join(prefixesDir, name, "pfx"),
	}
}

// CompatDataDir returns the prefix's parent directory, used as
// STEAM_COMPAT_DATA_PATH by Proton.
func (p Prefix) CompatDataDir() string {
	return filepath.Dir(p.Root)
}

// Ensure creates the prefix directory tree if absent. An existing prefix is
// reused verbatim. Returns true when the directory already existed.
func (p Prefix) Ensure() (existed bool, err error) {
	if info, err := os.Stat(p.Root); err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("prefix path %s exists and is not a directory", p.Root)
		}
		return true, nil
	}
	if err := os.MkdirAll(p.Root, 0755); err != nil {
		return false, fmt.Errorf("failed to create prefix %s: %w", p.Root, err)
	}
	return false, nil
}

// DependenciesInstalled reports whether the dependency marker exists.
func (p Prefix) DependenciesInstalled() bool {
	_, err := os.Stat(filepath.Join(p.Root, markerName))
	return err == nil
}

// MarkDependenciesInstalled writes the dependency marker. Writing an already
// present marker is not an error.
func (p Prefix) MarkDependenciesInstalled() error {
	f, err := os.OpenFile(filepath.Join(p.Root, markerName), os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to write dependency marker: %w", err)
	}
	return f.Close()
}
