package prefix

import (
	"os"
	"path/filepath"
)

// launcherExe is the marker executable whose presence identifies a completed
// ModAPI installation.
const launcherExe = "Spore ModAPI Launcher.exe"

// installCandidates are the prefix-relative directories the ModAPI installer
// offers as install locations, in discovery priority order. The installer
// presents exactly these choices, so a general filesystem scan is not needed.
var installCandidates = []string{
	"drive_c/ProgramData/SPORE ModAPI Launcher Kit",
	"drive_c/Program Files (x86)/Spore ModAPI Launcher Kit",
	"drive_c/Program Files/Spore ModAPI Launcher Kit",
}

// DiscoveredInstall is the directory where the ModAPI installer placed its
// binaries.
type DiscoveredInstall struct {
	// Root is the host absolute install directory inside the prefix.
	Root string
}

// Locate probes the fixed candidate install locations inside the prefix and
// returns the first one containing the launcher executable. Returns nil when
// none matches.
func (p Prefix) Locate() *DiscoveredInstall {
	for _, rel := range installCandidates {
		dir := filepath.Join(p.Root, filepath.FromSlash(rel))
		if _, err := os.Stat(filepath.Join(dir, launcherExe)); err == nil {
			return &DiscoveredInstall{Root: dir}
		}
	}
	return nil
}

// CandidateInstallDirs returns the host absolute candidate install
// directories for this prefix, in priority order.
func (p Prefix) CandidateInstallDirs() []string {
	dirs := make([]string, len(installCandidates))
	for i, rel := range installCandidates {
		dirs[i] = filepath.Join(p.Root, filepath.FromSlash(rel))
	}
	return dirs
}
