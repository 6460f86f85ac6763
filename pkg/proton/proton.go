// Package proton resolves the active Proton-GE runtime used to execute
// Windows binaries inside a Wine prefix.
//
// A runtime is a Proton-GE directory under one of Steam's
// compatibilitytools.d locations. The wine64 and wineserver binaries live at
// fixed relative locations (files/bin/<name>) under that directory.
package proton

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrNoRuntime is returned when no Proton-GE installation can be found.
var ErrNoRuntime = fmt.Errorf("no active Proton-GE runtime found")

// Runtime describes a resolved Proton-GE installation.
type Runtime struct {
	// Root is the Proton-GE directory containing the proton entry script.
	Root string

	// Wine64 is the path of the wine64 binary under Root.
	Wine64 string

	// Wineserver is the path of the wineserver binary under Root.
	Wineserver string
}

// Manager locates Proton-GE installations on the host.
type Manager struct {
	// candidates are the compatibilitytools.d directories probed in order.
	candidates []string
}

// NewManager creates a Manager probing the conventional Steam
// compatibilitytools.d locations.
func NewManager() (*Manager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return &Manager{
		candidates: []string{
			filepath.Join(home, ".local/share/Steam/compatibilitytools.d"),
			filepath.Join(home, ".steam/steam/compatibilitytools.d"),
			filepath.Join(home, ".steam/root/compatibilitytools.d"),
			filepath.Join(home, ".var/app/com.valvesoftware.Steam/data/Steam/compatibilitytools.d"),
		},
	}, nil
}

// NewManagerWithCandidates creates a Manager probing the given directories in
// order. Intended for tests.
func NewManagerWithCandidates(dirs []string) *Manager {
	return &Manager{candidates: dirs}
}

// ActiveRuntime resolves the active runtime: the newest GE-Proton version
// found in the first candidate directory that contains one. Returns
// ErrNoRuntime when nothing qualifies.
func (m *Manager) ActiveRuntime() (*Runtime, error) {
	for _, dir := range m.candidates {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		var versions []string
		for _, e := range entries {
			if !e.IsDir() || !strings.HasPrefix(e.Name(), "GE-Proton") {
				continue
			}
			if _, err := os.Stat(filepath.Join(dir, e.Name(), "proton")); err != nil {
				continue
			}
			versions = append(versions, e.Name())
		}
		if len(versions) == 0 {
			continue
		}

		// Version names compare numerically: GE-Proton9-9 is older than
		// GE-Proton9-27, which is older than GE-Proton10-4.
		sort.Slice(versions, func(i, j int) bool {
			return versionLess(versions[i], versions[j])
		})
		return DescribeRoot(filepath.Join(dir, versions[len(versions)-1])), nil
	}
	return nil, ErrNoRuntime
}

// versionNumbers matches the numeric components of a GE-Proton directory
// name, e.g. GE-Proton9-27 yields 9 and 27.
var versionNumbers = regexp.MustCompile(`^GE-Proton(\d+)-(\d+)$`)

// versionLess orders GE-Proton directory names by their numeric major and
// minor components. Names that do not parse sort before ones that do; two
// unparseable names fall back to lexical order.
func versionLess(a, b string) bool {
	am := versionNumbers.FindStringSubmatch(a)
	bm := versionNumbers.FindStringSubmatch(b)
	if am == nil || bm == nil {
		if am != nil {
			return false
		}
		if bm != nil {
			return true
		}
		return a < b
	}

	amaj, _ := strconv.Atoi(am[1])
	bmaj, _ := strconv.Atoi(bm[1])
	if amaj != bmaj {
		return amaj < bmaj
	}
	amin, _ := strconv.Atoi(am[2])
	bmin, _ := strconv.Atoi(bm[2])
	return amin < bmin
}

// DescribeRoot builds a Runtime descriptor for a Proton-GE directory without
// probing the filesystem.
func DescribeRoot(root string) *Runtime {
	return &Runtime{
		Root:       root,
		Wine64:     filepath.Join(root, "files", "bin", "wine64"),
		Wineserver: filepath.Join(root, "files", "bin", "wineserver"),
	}
}
