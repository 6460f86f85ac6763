package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sporeforge/sporeforge/pkg/github"
	"github.com/sporeforge/sporeforge/pkg/launcher"
	"github.com/sporeforge/sporeforge/pkg/prefix"
	"github.com/sporeforge/sporeforge/pkg/proton"
	"github.com/sporeforge/sporeforge/pkg/steam"
	"github.com/sporeforge/sporeforge/pkg/telemetry"
)

type fakeGames struct {
	records []steam.GameRecord
	err     error
}

func (f *fakeGames) FindAllGames() ([]steam.GameRecord, error) {
	return f.records, f.err
}

type fakeRuntimes struct {
	rt  *proton.Runtime
	err error
}

func (f *fakeRuntimes) ActiveRuntime() (*proton.Runtime, error) {
	return f.rt, f.err
}

type fakeDeps struct {
	calls int
	err   error

	lastVerbs  []string
	lastCompat launcher.CompatPaths
}

func (f *fakeDeps) InstallUnified(_ context.Context, _ *proton.Runtime, _ prefix.Prefix, verbs []string, compat launcher.CompatPaths) error {
	f.calls++
	f.lastVerbs = verbs
	f.lastCompat = compat
	return f.err
}

type fakeDownloads struct {
	release     *github.Release
	releaseErr  error
	downloadErr error
	path        string
	calls       int
}

func (f *fakeDownloads) LatestRelease(context.Context) (*github.Release, error) {
	return f.release, f.releaseErr
}

func (f *fakeDownloads) DownloadAsset(_ context.Context, _ *github.Asset, _ bool, progress github.ProgressFunc) (string, error) {
	f.calls++
	if f.downloadErr != nil {
		return "", f.downloadErr
	}
	if progress != nil {
		progress(100)
	}
	return f.path, nil
}

type fakeRunner struct {
	importErr error
	startErr  error

	imports   int
	starts    int
	lastDoc   string
	lastStart string
}

func (f *fakeRunner) ImportRegistry(_ context.Context, _ prefix.Prefix, doc string) error {
	f.imports++
	f.lastDoc = doc
	return f.importErr
}

func (f *fakeRunner) Start(_ context.Context, _ prefix.Prefix, binary string) error {
	f.starts++
	f.lastStart = binary
	return f.startErr
}

// fixture bundles a pipeline with its fakes for assertion access.
type fixture struct {
	pipeline  *Pipeline
	games     *fakeGames
	runtimes  *fakeRuntimes
	deps      *fakeDeps
	downloads *fakeDownloads
	runner    *fakeRunner
	sink      *telemetry.RecordingSink
	prefixes  string
}

func release() *github.Release {
	return &github.Release{
		TagName: "v2.5.20",
		Assets: []github.Asset{
			{Name: "ModAPI.InterimSetup.exe", BrowserDownloadURL: "http://example/dl", Size: 4},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		games: &fakeGames{records: []steam.GameRecord{
			{Name: "SPORE", Path: "/games/Spore", Platform: steam.PlatformSteam},
		}},
		runtimes:  &fakeRuntimes{rt: proton.DescribeRoot("/opt/proton/GE-Proton9-27")},
		deps:      &fakeDeps{},
		downloads: &fakeDownloads{release: release(), path: "/cache/ModAPI.InterimSetup.exe"},
		runner:    &fakeRunner{},
		sink:      &telemetry.RecordingSink{},
		prefixes:  t.TempDir(),
	}

	logger, err := telemetry.NewLogger(telemetry.LoggingConfig{Level: "error"})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	f.pipeline, err = New(Options{
		PrefixesDir: f.prefixes,
		AssetName:   "ModAPI.InterimSetup.exe",
		Games:       f.games,
		Runtimes:    f.runtimes,
		Deps:        f.deps,
		Downloads:   f.downloads,
		NewRunner:   func(*proton.Runtime) (Runner, error) { return f.runner, nil },
		SteamRoot:   func() (string, error) { return "/steam/root", nil },
		Sink:        f.sink,
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return f
}

func stepStatus(t *testing.T, res Result, name string) StepStatus {
	t.Helper()
	for _, s := range res.Steps {
		if s.Name == name {
			return s.Status
		}
	}
	t.Fatalf("step %s not in result: %+v", name, res.Steps)
	return ""
}

func TestRunHappyPath(t *testing.T) {
	f := newFixture(t)

	res := f.pipeline.Run(context.Background(), RunOptions{CacheEnabled: true})
	if !res.Success {
		t.Fatalf("pipeline failed: %+v", res.Steps)
	}
	if len(res.Steps) != 6 {
		t.Fatalf("got %d steps, want 6", len(res.Steps))
	}

	if f.deps.calls != 1 {
		t.Errorf("dependency installer called %d times, want 1", f.deps.calls)
	}
	if got := f.deps.lastVerbs; len(got) != 2 || got[0] != "vcrun2022" || got[1] != "d3dcompiler_43" {
		t.Errorf("unexpected dependency list: %v", got)
	}
	if f.deps.lastCompat.ClientPath != "/steam/root" {
		t.Errorf("compat client path = %q", f.deps.lastCompat.ClientPath)
	}
	if f.runner.imports != 1 {
		t.Errorf("registry imported %d times, want 1", f.runner.imports)
	}
	if f.runner.starts != 1 || f.runner.lastStart != "/cache/ModAPI.InterimSetup.exe" {
		t.Errorf("installer start = %d/%q", f.runner.starts, f.runner.lastStart)
	}

	// The dependency marker must be persisted in the prefix.
	p := prefix.At(f.prefixes, DefaultPrefixName)
	if !p.DependenciesInstalled() {
		t.Error("dependency marker not written")
	}
}

func TestRunProgressMonotonic(t *testing.T) {
	f := newFixture(t)

	res := f.pipeline.Run(context.Background(), RunOptions{})
	if !res.Success {
		t.Fatalf("pipeline failed: %+v", res.Steps)
	}

	if len(f.sink.Percents) == 0 {
		t.Fatal("no progress reported")
	}
	last := -1
	for _, pct := range f.sink.Percents {
		if pct < last {
			t.Fatalf("progress regressed: %v", f.sink.Percents)
		}
		last = pct
	}
	if f.sink.Percents[0] != 0 || last != 100 {
		t.Errorf("progress must run 0..100, got %v", f.sink.Percents)
	}

	// The fixed step checkpoints must all appear.
	seen := map[int]bool{}
	for _, pct := range f.sink.Percents {
		seen[pct] = true
	}
	for _, want := range []int{0, 5, 10, 15, 40, 50, 60, 100} {
		if !seen[want] {
			t.Errorf("checkpoint %d missing from %v", want, f.sink.Percents)
		}
	}
}

func TestRunNoGameNoSideEffects(t *testing.T) {
	f := newFixture(t)
	f.games.records = nil

	res := f.pipeline.Run(context.Background(), RunOptions{})
	if res.Success {
		t.Fatal("pipeline succeeded without a game")
	}
	if res.FailedStep() != "locate_game" {
		t.Errorf("failed step = %q, want locate_game", res.FailedStep())
	}
	if len(res.Steps) != 1 {
		t.Errorf("steps after halt: %+v", res.Steps)
	}

	// No prefix may be created before the locate step succeeds.
	entries, err := os.ReadDir(f.prefixes)
	if err != nil {
		t.Fatalf("failed to read prefixes dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("prefix dir has side effects: %v", entries)
	}
	if f.deps.calls != 0 || f.downloads.calls != 0 || f.runner.starts != 0 {
		t.Error("collaborators invoked after halting failure")
	}
}

func TestRunDependencyMarkerShortCircuit(t *testing.T) {
	f := newFixture(t)

	if res := f.pipeline.Run(context.Background(), RunOptions{}); !res.Success {
		t.Fatalf("first run failed: %+v", res.Steps)
	}
	res := f.pipeline.Run(context.Background(), RunOptions{})
	if !res.Success {
		t.Fatalf("second run failed: %+v", res.Steps)
	}

	if f.deps.calls != 1 {
		t.Errorf("dependency installer called %d times across two runs, want 1", f.deps.calls)
	}
	if got := stepStatus(t, res, "ensure_dependencies"); got != StatusSkipped {
		t.Errorf("second run dependency step = %q, want skipped", got)
	}
}

func TestRunPreexistingPrefixWithoutMarker(t *testing.T) {
	f := newFixture(t)

	p := prefix.At(f.prefixes, DefaultPrefixName)
	if _, err := p.Ensure(); err != nil {
		t.Fatalf("failed to pre-create prefix: %v", err)
	}

	res := f.pipeline.Run(context.Background(), RunOptions{})
	if !res.Success {
		t.Fatalf("pipeline failed: %+v", res.Steps)
	}
	if f.deps.calls != 1 {
		t.Errorf("dependency installer called %d times, want 1", f.deps.calls)
	}
	if !p.DependenciesInstalled() {
		t.Error("marker not written into pre-existing prefix")
	}
}

func TestRunRegistryFailureIsSoft(t *testing.T) {
	f := newFixture(t)
	f.runner.importErr = &launcher.ExitError{Code: 1, Stderr: "regedit failed"}

	res := f.pipeline.Run(context.Background(), RunOptions{})
	if !res.Success {
		t.Fatalf("registry failure halted the pipeline: %+v", res.Steps)
	}
	if got := stepStatus(t, res, "patch_registry"); got != StatusSoftFailed {
		t.Errorf("patch_registry = %q, want soft_failed", got)
	}
	if f.downloads.calls != 1 || f.runner.starts != 1 {
		t.Error("later steps did not run after soft failure")
	}
}

func TestRunDownloadFailureHalts(t *testing.T) {
	f := newFixture(t)
	f.downloads.downloadErr = errors.New("network down")

	res := f.pipeline.Run(context.Background(), RunOptions{})
	if res.Success {
		t.Fatal("pipeline succeeded despite download failure")
	}
	if res.FailedStep() != "fetch_installer" {
		t.Errorf("failed step = %q, want fetch_installer", res.FailedStep())
	}
	if f.runner.starts != 0 {
		t.Error("installer launched after download failure")
	}
}

func TestRunAssetMissingHalts(t *testing.T) {
	f := newFixture(t)
	f.downloads.release = &github.Release{TagName: "v1", Assets: []github.Asset{{Name: "Other.zip"}}}

	res := f.pipeline.Run(context.Background(), RunOptions{})
	if res.Success {
		t.Fatal("pipeline succeeded despite missing asset")
	}
	if res.FailedStep() != "fetch_installer" {
		t.Errorf("failed step = %q, want fetch_installer", res.FailedStep())
	}
}

func TestRunNoRuntimeHaltsAtDependencies(t *testing.T) {
	f := newFixture(t)
	f.runtimes.rt = nil
	f.runtimes.err = proton.ErrNoRuntime

	res := f.pipeline.Run(context.Background(), RunOptions{})
	if res.Success {
		t.Fatal("pipeline succeeded without a runtime")
	}
	if res.FailedStep() != "ensure_dependencies" {
		t.Errorf("failed step = %q, want ensure_dependencies", res.FailedStep())
	}
}

func TestRunCustomPrefixName(t *testing.T) {
	f := newFixture(t)

	res := f.pipeline.Run(context.Background(), RunOptions{PrefixName: "my_spore"})
	if !res.Success {
		t.Fatalf("pipeline failed: %+v", res.Steps)
	}

	want := filepath.Join(f.prefixes, "my_spore", "pfx")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("custom prefix not created at %s: %v", want, err)
	}
}

func TestRunRegistryDocumentUsesGamePath(t *testing.T) {
	f := newFixture(t)

	if res := f.pipeline.Run(context.Background(), RunOptions{}); !res.Success {
		t.Fatalf("pipeline failed: %+v", res.Steps)
	}
	if f.runner.lastDoc == "" {
		t.Fatal("no registry document imported")
	}
	if want := `Z:\\games\\Spore\\Data`; !strings.Contains(f.runner.lastDoc, want) {
		t.Errorf("registry document missing %q", want)
	}
}
