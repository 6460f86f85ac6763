// Package pipeline drives the ModAPI installation: a strictly sequential
// state machine that locates Spore, prepares a Wine prefix, installs
// dependencies, patches the registry, downloads the ModAPI installer and
// launches it under Proton-GE.
//
// Steps run one at a time on the caller's goroutine. Each step yields a
// tagged result; hard failures halt the run, soft failures are logged and
// tolerated. Idempotent steps (prefix creation, dependency install) make a
// re-invocation after failure resume naturally where the last run stopped.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sporeforge/sporeforge/pkg/github"
	"github.com/sporeforge/sporeforge/pkg/launcher"
	"github.com/sporeforge/sporeforge/pkg/prefix"
	"github.com/sporeforge/sporeforge/pkg/proton"
	"github.com/sporeforge/sporeforge/pkg/registry"
	"github.com/sporeforge/sporeforge/pkg/steam"
	"github.com/sporeforge/sporeforge/pkg/stores"
	"github.com/sporeforge/sporeforge/pkg/telemetry"
	"github.com/sporeforge/sporeforge/pkg/winepath"
)

// DefaultPrefixName is the Wine prefix name used when the caller supplies
// none.
const DefaultPrefixName = "spore_modloader"

// dependencies are the Windows redistributables the ModAPI kit needs.
var dependencies = []string{"vcrun2022", "d3dcompiler_43"}

// depsClientPathFallback stands in for the Steam client path during
// dependency installation when the Steam root cannot be resolved.
const depsClientPathFallback = "/tmp"

// GameLocator finds installed games.
type GameLocator interface {
	FindAllGames() ([]steam.GameRecord, error)
}

// RuntimeResolver supplies the active Proton-GE runtime.
type RuntimeResolver interface {
	ActiveRuntime() (*proton.Runtime, error)
}

// Runner executes guest binaries inside a prefix under a resolved runtime.
type Runner interface {
	ImportRegistry(ctx context.Context, p prefix.Prefix, document string) error
	Start(ctx context.Context, p prefix.Prefix, binary string) error
}

// RunnerFactory builds a Runner once the runtime has been resolved.
type RunnerFactory func(rt *proton.Runtime) (Runner, error)

// DependencyInstaller installs Windows redistributables into a prefix.
type DependencyInstaller interface {
	InstallUnified(ctx context.Context, rt *proton.Runtime, p prefix.Prefix, verbs []string, compat launcher.CompatPaths) error
}

// AssetDownloader resolves releases and retrieves assets.
type AssetDownloader interface {
	LatestRelease(ctx context.Context) (*github.Release, error)
	DownloadAsset(ctx context.Context, asset *github.Asset, cacheEnabled bool, progress github.ProgressFunc) (string, error)
}

// RunRecorder persists run history. All methods are best-effort from the
// pipeline's point of view: recording failures are logged, never fatal.
type RunRecorder interface {
	CreateRun(ctx context.Context, run *stores.Run) error
	AppendStep(ctx context.Context, step *stores.Step) error
	FinishRun(ctx context.Context, id string, status stores.RunStatus, runErr string, completedAt time.Time) error
}

// Options wires the pipeline's collaborators and configuration.
type Options struct {
	PrefixesDir string
	AssetName   string

	Games      GameLocator
	Runtimes   RuntimeResolver
	Deps       DependencyInstaller
	Downloads  AssetDownloader
	NewRunner  RunnerFactory
	SteamRoot  func() (string, error)
	Sink       telemetry.Sink
	Logger     *telemetry.Logger
	Recorder   RunRecorder // optional
}

// RunOptions parameterize one pipeline invocation.
type RunOptions struct {
	// PrefixName overrides the default Wine prefix name.
	PrefixName string

	// CacheEnabled reuses a previously downloaded installer.
	CacheEnabled bool
}

// Pipeline is the install state machine.
type Pipeline struct {
	opts   Options
	logger *telemetry.Logger
}

// New creates a Pipeline.
func New(opts Options) (*Pipeline, error) {
	switch {
	case opts.PrefixesDir == "":
		return nil, fmt.Errorf("prefixes dir is required")
	case opts.AssetName == "":
		return nil, fmt.Errorf("asset name is required")
	case opts.Games == nil, opts.Runtimes == nil, opts.Deps == nil,
		opts.Downloads == nil, opts.NewRunner == nil:
		return nil, fmt.Errorf("all pipeline collaborators are required")
	}
	if opts.Logger == nil {
		logger, err := telemetry.NewLogger(telemetry.LoggingConfig{})
		if err != nil {
			return nil, err
		}
		opts.Logger = logger
	}
	if opts.Sink == nil {
		opts.Sink = &telemetry.LoggerSink{Logger: opts.Logger}
	}
	return &Pipeline{
		opts:   opts,
		logger: opts.Logger.NewComponentLogger("pipeline"),
	}, nil
}

// runState carries values across steps within one invocation.
type runState struct {
	game      *steam.GameRecord
	prefix    prefix.Prefix
	runtime   *proton.Runtime
	runner    Runner
	installer string
}

// step pairs a name with its implementation and the progress percentage
// emitted when it begins.
type step struct {
	name    string
	percent int
	run     func(ctx context.Context, st *runState, ro RunOptions) StepResult
}

// Run executes the pipeline. The returned Result is binary: success plus the
// ordered step log; a halted run reports the failing step in that log.
func (p *Pipeline) Run(ctx context.Context, ro RunOptions) Result {
	if ro.PrefixName == "" {
		ro.PrefixName = DefaultPrefixName
	}

	result := Result{RunID: uuid.NewString()}
	logger := p.logger.WithRunID(result.RunID)
	sink := p.opts.Sink

	p.recordStart(ctx, result.RunID, ro.PrefixName, logger)

	sink.Log("=== Starting Spore Mod Loader Installation ===")
	sink.Progress(0)

	steps := []step{
		{"locate_game", 5, p.locateGame},
		{"prepare_prefix", 10, p.preparePrefix},
		{"ensure_dependencies", 15, p.ensureDependencies},
		{"patch_registry", 40, p.patchRegistry},
		{"fetch_installer", 50, p.fetchInstaller},
		{"launch_installer", 60, p.launchInstaller},
	}

	st := &runState{}
	halted := false
	for i, s := range steps {
		sink.Progress(s.percent)

		res := s.run(ctx, st, ro)
		record := StepRecord{Name: s.name, Status: res.Status, Detail: res.Detail}
		result.Steps = append(result.Steps, record)
		p.recordStep(ctx, result.RunID, i, record, logger)

		switch res.Status {
		case StatusFailed:
			logger.WithError(res.Err).Errorf("step %s failed: %s", s.name, res.Detail)
			sink.Log("ERROR: " + res.Detail)
		case StatusSoftFailed:
			logger.WithError(res.Err).Warnf("step %s failed (continuing): %s", s.name, res.Detail)
			sink.Log("WARNING: " + res.Detail)
		default:
			if res.Detail != "" {
				sink.Log(res.Detail)
			}
		}

		if res.halts() {
			halted = true
			break
		}
	}

	result.Success = !halted
	if result.Success {
		sink.Progress(100)
		sink.Log("")
		sink.Log("=== Setup Complete! ===")
		sink.Log("The ModAPI installer is now running.")
		sink.Log("Complete the installation, then run 'sporeforge scripts' to create launch scripts.")
	}

	p.recordFinish(ctx, result, logger)
	return result
}

func (p *Pipeline) locateGame(_ context.Context, st *runState, _ RunOptions) StepResult {
	p.opts.Sink.Log("Searching for Spore installation...")

	games, err := p.opts.Games.FindAllGames()
	if err != nil {
		return hard(err, "Failed to search for Spore: %v", err)
	}
	for i := range games {
		if strings.Contains(strings.ToLower(games[i].Name), "spore") {
			g := games[i]
			if !filepath.IsAbs(g.Path) {
				return hard(nil, "Spore install path %q is not absolute", g.Path)
			}
			st.game = &g
			return ok(fmt.Sprintf("Found Spore: %s at %s", g.Name, g.Path))
		}
	}
	return hard(nil, "Spore not found. Please install Spore first.")
}

func (p *Pipeline) preparePrefix(_ context.Context, st *runState, ro RunOptions) StepResult {
	st.prefix = prefix.At(p.opts.PrefixesDir, ro.PrefixName)
	existed, err := st.prefix.Ensure()
	if err != nil {
		return hard(err, "Failed to create Wine prefix: %v", err)
	}
	if existed {
		return ok(fmt.Sprintf("Using existing Wine prefix: %s", st.prefix.Root))
	}
	return ok(fmt.Sprintf("Created Wine prefix: %s", st.prefix.Root))
}

// resolveRuntime memoizes the active runtime and its runner for the steps
// that spawn guest processes.
func (p *Pipeline) resolveRuntime(st *runState) error {
	if st.runtime != nil {
		return nil
	}
	rt, err := p.opts.Runtimes.ActiveRuntime()
	if err != nil {
		return err
	}
	runner, err := p.opts.NewRunner(rt)
	if err != nil {
		return err
	}
	st.runtime = rt
	st.runner = runner
	return nil
}

func (p *Pipeline) ensureDependencies(ctx context.Context, st *runState, _ RunOptions) StepResult {
	if st.prefix.DependenciesInstalled() {
		return skipped("Dependencies already installed, skipping...")
	}

	p.opts.Sink.Log(fmt.Sprintf("Installing Windows dependencies (%s)...", strings.Join(dependencies, ", ")))

	if err := p.resolveRuntime(st); err != nil {
		return hard(err, "No active Proton-GE version")
	}

	clientPath := depsClientPathFallback
	if p.opts.SteamRoot != nil {
		if root, err := p.opts.SteamRoot(); err == nil {
			clientPath = root
		}
	}
	compat := launcher.CompatPaths{
		DataPath:   st.prefix.CompatDataDir(),
		ClientPath: clientPath,
	}

	if err := p.opts.Deps.InstallUnified(ctx, st.runtime, st.prefix, dependencies, compat); err != nil {
		return hard(err, "Failed to install dependencies: %v", err)
	}
	if err := st.prefix.MarkDependenciesInstalled(); err != nil {
		return hard(err, "Failed to record dependency install: %v", err)
	}
	return ok("[OK] Dependencies installed successfully")
}

func (p *Pipeline) patchRegistry(ctx context.Context, st *runState, _ RunOptions) StepResult {
	p.opts.Sink.Log("Creating Spore registry entries...")

	if err := p.resolveRuntime(st); err != nil {
		return soft(err, "Failed to apply registry keys: no active Proton-GE version")
	}

	doc := registry.BuildSporeRegistry(st.game.Path)
	if err := st.runner.ImportRegistry(ctx, st.prefix, doc); err != nil {
		return soft(err, "Failed to apply registry keys: %v", err)
	}
	return ok("[OK] Spore registry entries applied")
}

func (p *Pipeline) fetchInstaller(ctx context.Context, st *runState, ro RunOptions) StepResult {
	p.opts.Sink.Log("Downloading ModAPI installer from GitHub...")

	release, err := p.opts.Downloads.LatestRelease(ctx)
	if err != nil {
		return hard(err, "Could not fetch latest release: %v", err)
	}

	asset := release.FindAsset(p.opts.AssetName)
	if asset == nil {
		return hard(github.ErrAssetNotFound, "%s not found in release %s", p.opts.AssetName, release.TagName)
	}
	p.opts.Sink.Log(fmt.Sprintf("Found %s in release %s", asset.Name, release.TagName))

	// Download progress maps into this step's slice of the overall run so
	// the reported percentage stays monotonic.
	path, err := p.opts.Downloads.DownloadAsset(ctx, asset, ro.CacheEnabled, func(pct int) {
		p.opts.Sink.Progress(50 + pct/10)
	})
	if err != nil {
		return hard(err, "Failed to download %s: %v", p.opts.AssetName, err)
	}
	st.installer = path
	return ok(fmt.Sprintf("Downloaded installer to: %s", path))
}

func (p *Pipeline) launchInstaller(ctx context.Context, st *runState, _ RunOptions) StepResult {
	if err := p.resolveRuntime(st); err != nil {
		return hard(err, "No active Proton-GE version")
	}

	p.opts.Sink.Log(installInstructions(st.game.Path))

	if err := st.runner.Start(ctx, st.prefix, st.installer); err != nil {
		return hard(err, "Error launching installer: %v", err)
	}
	return ok("Installer launched. Complete the installation and click Exit.")
}

// installInstructions is the user guidance shown when the guest installer
// opens. The install location is given in display form; the guest installer
// cannot take host paths.
func installInstructions(sporePath string) string {
	return fmt.Sprintf(`Installer opened! Follow these steps:

1. Click "I am installing...for the first time"

2. Install location (recommended):
   %s

3. Complete and click "Exit"

(Spore dir: %s)`, winepath.DisplayPath(sporePath), sporePath)
}

func (p *Pipeline) recordStart(ctx context.Context, runID, prefixName string, logger *telemetry.Logger) {
	if p.opts.Recorder == nil {
		return
	}
	err := p.opts.Recorder.CreateRun(ctx, &stores.Run{
		ID:         runID,
		PrefixName: prefixName,
		Status:     stores.RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	})
	if err != nil {
		logger.WithError(err).Warn("failed to record run start")
	}
}

func (p *Pipeline) recordStep(ctx context.Context, runID string, seq int, rec StepRecord, logger *telemetry.Logger) {
	if p.opts.Recorder == nil {
		return
	}
	err := p.opts.Recorder.AppendStep(ctx, &stores.Step{
		RunID:      runID,
		Seq:        seq,
		Name:       rec.Name,
		Status:     stores.StepStatus(rec.Status),
		Detail:     rec.Detail,
		RecordedAt: time.Now().UTC(),
	})
	if err != nil {
		logger.WithError(err).Warn("failed to record step outcome")
	}
}

func (p *Pipeline) recordFinish(ctx context.Context, result Result, logger *telemetry.Logger) {
	if p.opts.Recorder == nil {
		return
	}
	status := stores.RunStatusSucceeded
	detail := ""
	if !result.Success {
		status = stores.RunStatusFailed
		detail = result.FailedStep()
	}
	if err := p.opts.Recorder.FinishRun(ctx, result.RunID, status, detail, time.Now().UTC()); err != nil {
		logger.WithError(err).Warn("failed to record run finish")
	}
}
