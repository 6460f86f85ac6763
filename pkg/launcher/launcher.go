// Package launcher supervises execution of Windows binaries under a
// Proton-GE runtime: registry imports with a bounded wait and fire-and-forget
// launches of guest programs.
package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sporeforge/sporeforge/pkg/prefix"
	"github.com/sporeforge/sporeforge/pkg/proton"
	"github.com/sporeforge/sporeforge/pkg/telemetry"
)

// libraryPathOverride is appended to the host's LD_LIBRARY_PATH so wine64
// finds its system libraries regardless of what the invoking shell exports.
const libraryPathOverride = "/usr/lib:/usr/lib/x86_64-linux-gnu:/lib:/lib/x86_64-linux-gnu"

// importTimeout bounds how long a registry import may run. A variable so
// tests can exercise the timeout path without waiting a minute.
var importTimeout = 60 * time.Second

// ErrImportTimeout is returned when a registry import exceeds its wait
// ceiling. It is distinct from a nonzero-exit failure: the import process was
// killed, not observed failing.
var ErrImportTimeout = errors.New("registry import timed out")

// ExitError reports a guest process that ran to completion with a nonzero
// exit code.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("guest process exited with code %d", e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Launcher runs guest binaries under a resolved Proton-GE runtime.
type Launcher struct {
	runtime *proton.Runtime
	logger  *telemetry.Logger
}

// New creates a Launcher. The runtime must be resolved; a nil runtime is a
// caller bug, checked here so no process is ever spawned without one.
func New(rt *proton.Runtime, logger *telemetry.Logger) (*Launcher, error) {
	if rt == nil {
		return nil, proton.ErrNoRuntime
	}
	return &Launcher{
		runtime: rt,
		logger:  logger.NewComponentLogger("launcher"),
	}, nil
}

// guestEnv builds the environment for a guest process: the host environment
// with WINEPREFIX set and the library search override appended to any list
// the host already defines.
func guestEnv(p prefix.Prefix) []string {
	env := os.Environ()
	out := make([]string, 0, len(env)+2)
	ldPath := libraryPathOverride
	for _, kv := range env {
		switch {
		case strings.HasPrefix(kv, "WINEPREFIX="):
			continue
		case strings.HasPrefix(kv, "LD_LIBRARY_PATH="):
			if existing := strings.TrimPrefix(kv, "LD_LIBRARY_PATH="); existing != "" {
				ldPath = existing + ":" + libraryPathOverride
			}
			continue
		}
		out = append(out, kv)
	}
	out = append(out, "WINEPREFIX="+p.Root)
	out = append(out, "LD_LIBRARY_PATH="+ldPath)
	return out
}

// ImportRegistry writes document to a uniquely named temporary .reg file and
// imports it into the prefix with wine64 regedit under a 60 second ceiling.
// The temporary file is deleted whether or not the import succeeds; the
// document never outlives this one call.
//
// Failures are classified: a spawn failure, a nonzero exit (*ExitError with
// captured stderr) and a timeout (ErrImportTimeout) are all distinct.
func (l *Launcher) ImportRegistry(ctx context.Context, p prefix.Prefix, document string) error {
	tmp, err := os.CreateTemp("", "sporeforge-*.reg")
	if err != nil {
		return fmt.Errorf("failed to create registry document: %w", err)
	}
	regFile := tmp.Name()
	defer func() {
		// Absence is fine: cleanup must never mask the import outcome.
		_ = os.Remove(regFile)
	}()

	if _, err := tmp.WriteString(document); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write registry document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write registry document: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, importTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, l.runtime.Wine64, "regedit", regFile)
	cmd.Env = guestEnv(p)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	l.logger.Debugf("importing registry document via %s", l.runtime.Wine64)
	err = cmd.Run()
	if err == nil {
		return nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w after %s", ErrImportTimeout, importTimeout)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
	}
	return fmt.Errorf("failed to start wine64: %w", err)
}

// Start launches binary inside the prefix and returns as soon as the process
// has started. Output is discarded and the process is never waited on;
// completion is signaled by the user, not observed here. Only launch-time
// failures are reported.
func (l *Launcher) Start(ctx context.Context, p prefix.Prefix, binary string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(binary); err != nil {
		return fmt.Errorf("guest binary unreachable: %w", err)
	}

	// Deliberately not CommandContext: the guest process must outlive this
	// CLI invocation.
	cmd := exec.Command(l.runtime.Wine64, binary)
	cmd.Env = guestEnv(p)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch %s: %w", binary, err)
	}
	l.logger.Debugf("started guest process pid=%d binary=%s", cmd.Process.Pid, binary)

	// Detach: the child is on its own from here.
	return cmd.Process.Release()
}
