package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sporeforge/sporeforge/pkg/prefix"
	"github.com/sporeforge/sporeforge/pkg/proton"
	"github.com/sporeforge/sporeforge/pkg/telemetry"
)

// CompatPaths carries the Steam compatibility environment handed to the
// dependency installer.
type CompatPaths struct {
	// DataPath is the STEAM_COMPAT_DATA_PATH value (the prefix's parent).
	DataPath string

	// ClientPath is the STEAM_COMPAT_CLIENT_INSTALL_PATH value.
	ClientPath string
}

// WinetricksInstaller installs Windows redistributables into a prefix by
// shelling out to winetricks with the runtime's wine binaries.
type WinetricksInstaller struct {
	// Binary is the winetricks executable; defaults to "winetricks" on PATH.
	Binary string

	logger *telemetry.Logger
}

// NewWinetricksInstaller creates a WinetricksInstaller.
func NewWinetricksInstaller(logger *telemetry.Logger) *WinetricksInstaller {
	return &WinetricksInstaller{
		Binary: "winetricks",
		logger: logger.NewComponentLogger("winetricks"),
	}
}

// InstallUnified installs the named verbs into the prefix. The call blocks
// until winetricks finishes; its own timeouts govern the wait.
func (w *WinetricksInstaller) InstallUnified(ctx context.Context, rt *proton.Runtime, p prefix.Prefix, verbs []string, compat CompatPaths) error {
	if rt == nil {
		return proton.ErrNoRuntime
	}
	if len(verbs) == 0 {
		return nil
	}

	args := append([]string{"-q"}, verbs...)
	cmd := exec.CommandContext(ctx, w.Binary, args...)
	cmd.Env = append(guestEnv(p),
		"WINE="+rt.Wine64,
		"WINESERVER="+rt.Wineserver,
		"STEAM_COMPAT_DATA_PATH="+compat.DataPath,
		"STEAM_COMPAT_CLIENT_INSTALL_PATH="+compat.ClientPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	w.logger.Infof("installing dependencies: %s", strings.Join(verbs, ", "))
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return fmt.Errorf("failed to run winetricks: %w", err)
	}
	return nil
}
