// Package scripts generates host shell scripts that launch the installed
// ModAPI executables under Proton-GE with the right environment.
package scripts

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/sporeforge/sporeforge/pkg/prefix"
	"github.com/sporeforge/sporeforge/pkg/proton"
	"github.com/sporeforge/sporeforge/pkg/telemetry"
	"github.com/sporeforge/sporeforge/pkg/winepath"
)

// steamRootFallback is used verbatim in generated scripts when the host's
// Steam root cannot be resolved. The literal survives into the script so the
// shell expands $HOME at launch time.
const steamRootFallback = "$HOME/.steam/steam"

// ErrNoScripts is returned when none of the ModAPI executables were found,
// so no script could be generated. Distinct from a partial result: some
// executables missing is acceptable, all missing is not.
var ErrNoScripts = errors.New("no launch scripts created: modapi executables not found")

// targets are the three ModAPI executables and their script names. The
// installer ships exactly these; the set is closed.
var targets = []struct {
	ExeName    string
	ScriptName string
}{
	{"Spore ModAPI Launcher.exe", "launch_spore_modapi_launcher.sh"},
	{"Spore ModAPI Easy Installer.exe", "launch_spore_modapi_installer.sh"},
	{"Spore ModAPI Easy Uninstaller.exe", "launch_spore_modapi_uninstaller.sh"},
}

var scriptTemplate = template.Must(template.New("launch").Parse(`#!/bin/bash
# Launch script for Spore ModAPI - {{.ExeName}}
# Generated by SporeForge

# Load user environment (dotfiles)
if [ -f "$HOME/.bashrc" ]; then
    source "$HOME/.bashrc"
fi

# Paths
PROTON_GE="{{.ProtonDir}}"
PREFIX="{{.Prefix}}"
COMPAT_DATA="{{.CompatData}}"
MODAPI_EXE="{{.GuestExe}}"
STEAM_PATH="{{.SteamPath}}"

# Check if Proton-GE exists
if [ ! -f "$PROTON_GE/proton" ]; then
    zenity --error --text="Proton-GE not found at $PROTON_GE\n\nInstall Proton-GE and run sporeforge again." --title="SporeForge - Error" 2>/dev/null || \
    echo "ERROR: Proton-GE not found at $PROTON_GE"
    exit 1
fi

# Environment for Proton
export WINEPREFIX="$PREFIX"
export STEAM_COMPAT_DATA_PATH="$COMPAT_DATA"
export STEAM_COMPAT_CLIENT_INSTALL_PATH="$STEAM_PATH"

echo "Launching Spore ModAPI - {{.ExeName}}..."
echo "Proton-GE: $PROTON_GE"
echo "Prefix: $PREFIX"
echo "Steam Path: $STEAM_PATH"

"$PROTON_GE/proton" run "$MODAPI_EXE" "$@"
`))

// scriptData is the template parameter set for one launch script.
type scriptData struct {
	ExeName    string
	ProtonDir  string
	Prefix     string
	CompatData string
	GuestExe   string
	SteamPath  string
}

// SteamRootFunc resolves the host's Steam client root.
type SteamRootFunc func() (string, error)

// Generator emits launch scripts for a discovered ModAPI installation.
type Generator struct {
	runtime   *proton.Runtime
	steamRoot SteamRootFunc
	sink      telemetry.Sink
}

// NewGenerator creates a Generator. steamRoot may fail; generation then
// falls back to the fixed Steam path.
func NewGenerator(rt *proton.Runtime, steamRoot SteamRootFunc, sink telemetry.Sink) (*Generator, error) {
	if rt == nil {
		return nil, proton.ErrNoRuntime
	}
	return &Generator{runtime: rt, steamRoot: steamRoot, sink: sink}, nil
}

// Generate writes one launch script per ModAPI executable present under
// discovered.Root into outputDir and returns the created script names.
// Executables not found are skipped with a log line; existing scripts are
// overwritten. Zero created scripts is reported as ErrNoScripts.
func (g *Generator) Generate(outputDir string, p prefix.Prefix, discovered *prefix.DiscoveredInstall) ([]string, error) {
	if discovered == nil {
		return nil, fmt.Errorf("no modapi installation to generate scripts for")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create script output dir: %w", err)
	}

	steamPath := steamRootFallback
	if g.steamRoot != nil {
		if root, err := g.steamRoot(); err == nil {
			steamPath = root
		}
	}

	var created []string
	for _, target := range targets {
		exePath := filepath.Join(discovered.Root, target.ExeName)
		if _, err := os.Stat(exePath); err != nil {
			g.sink.Log(fmt.Sprintf("Warning: %s not found, skipping script creation", target.ExeName))
			continue
		}

		data := scriptData{
			ExeName:    target.ExeName,
			ProtonDir:  g.runtime.Root,
			Prefix:     p.Root,
			CompatData: p.CompatDataDir(),
			GuestExe:   winepath.GuestPath(p.Root, exePath),
			SteamPath:  steamPath,
		}

		var buf bytes.Buffer
		if err := scriptTemplate.Execute(&buf, data); err != nil {
			return created, fmt.Errorf("failed to render script %s: %w", target.ScriptName, err)
		}

		scriptPath := filepath.Join(outputDir, target.ScriptName)
		if err := os.WriteFile(scriptPath, buf.Bytes(), 0755); err != nil {
			return created, fmt.Errorf("failed to write script %s: %w", scriptPath, err)
		}
		// WriteFile does not change the mode of an existing file.
		if err := os.Chmod(scriptPath, 0755); err != nil {
			return created, fmt.Errorf("failed to set script mode: %w", err)
		}

		created = append(created, target.ScriptName)
		g.sink.Log(fmt.Sprintf("Created: %s", target.ScriptName))
	}

	if len(created) == 0 {
		return nil, ErrNoScripts
	}
	g.sink.Log(fmt.Sprintf("[OK] Created %d launch script(s)", len(created)))
	return created, nil
}

// Verify checks that all three ModAPI executables exist under installDir,
// logging each finding. Used before script generation to surface a partial
// guest install.
func (g *Generator) Verify(installDir string) bool {
	g.sink.Log("Verifying installation...")
	allFound := true
	for _, target := range targets {
		if _, err := os.Stat(filepath.Join(installDir, target.ExeName)); err == nil {
			g.sink.Log(fmt.Sprintf("  Found: %s", target.ExeName))
		} else {
			g.sink.Log(fmt.Sprintf("  Missing: %s", target.ExeName))
			allFound = false
		}
	}
	return allFound
}
