package proton

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// installFakeRuntime creates a GE-Proton directory with a proton entry
// script under dir.
func installFakeRuntime(t *testing.T, dir, version string) string {
	t.Helper()
	root := filepath.Join(dir, version)
	if err := os.MkdirAll(filepath.Join(root, "files", "bin"), 0755); err != nil {
		t.Fatalf("failed to create runtime dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "proton"), []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("failed to create proton script: %v", err)
	}
	return root
}

func TestActiveRuntimePicksNewest(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		newest   string
	}{
		{
			name:     "same series",
			versions: []string{"GE-Proton9-20", "GE-Proton9-27"},
			newest:   "GE-Proton9-27",
		},
		{
			name:     "single vs double digit minor",
			versions: []string{"GE-Proton9-9", "GE-Proton9-27"},
			newest:   "GE-Proton9-27",
		},
		{
			name:     "major version rollover",
			versions: []string{"GE-Proton9-27", "GE-Proton10-4"},
			newest:   "GE-Proton10-4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			var newest string
			for _, v := range tt.versions {
				root := installFakeRuntime(t, dir, v)
				if v == tt.newest {
					newest = root
				}
			}

			m := NewManagerWithCandidates([]string{dir})
			rt, err := m.ActiveRuntime()
			if err != nil {
				t.Fatalf("ActiveRuntime() failed: %v", err)
			}

			if rt.Root != newest {
				t.Errorf("Root = %q, want %q", rt.Root, newest)
			}
			if rt.Wine64 != filepath.Join(newest, "files", "bin", "wine64") {
				t.Errorf("unexpected Wine64 path %q", rt.Wine64)
			}
			if rt.Wineserver != filepath.Join(newest, "files", "bin", "wineserver") {
				t.Errorf("unexpected Wineserver path %q", rt.Wineserver)
			}
		})
	}
}

func TestVersionLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"GE-Proton9-9", "GE-Proton9-27", true},
		{"GE-Proton9-27", "GE-Proton9-9", false},
		{"GE-Proton9-27", "GE-Proton10-4", true},
		{"GE-Proton9-20", "GE-Proton9-20", false},
		// Unparseable names sort before parseable ones.
		{"GE-Proton-custom", "GE-Proton9-1", true},
		{"GE-Proton9-1", "GE-Proton-custom", false},
		{"GE-Proton-a", "GE-Proton-b", true},
	}

	for _, tt := range tests {
		if got := versionLess(tt.a, tt.b); got != tt.want {
			t.Errorf("versionLess(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestActiveRuntimeSkipsIncompleteInstalls(t *testing.T) {
	dir := t.TempDir()
	// Directory without the proton entry script does not qualify.
	if err := os.MkdirAll(filepath.Join(dir, "GE-Proton9-27"), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	wanted := installFakeRuntime(t, dir, "GE-Proton9-20")

	m := NewManagerWithCandidates([]string{dir})
	rt, err := m.ActiveRuntime()
	if err != nil {
		t.Fatalf("ActiveRuntime() failed: %v", err)
	}
	if rt.Root != wanted {
		t.Errorf("Root = %q, want %q", rt.Root, wanted)
	}
}

func TestActiveRuntimeCandidateOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	wanted := installFakeRuntime(t, first, "GE-Proton9-1")
	installFakeRuntime(t, second, "GE-Proton9-27")

	m := NewManagerWithCandidates([]string{first, second})
	rt, err := m.ActiveRuntime()
	if err != nil {
		t.Fatalf("ActiveRuntime() failed: %v", err)
	}
	if rt.Root != wanted {
		t.Errorf("Root = %q, want first candidate's runtime %q", rt.Root, wanted)
	}
}

func TestActiveRuntimeNotFound(t *testing.T) {
	m := NewManagerWithCandidates([]string{t.TempDir()})
	if _, err := m.ActiveRuntime(); !errors.Is(err, ErrNoRuntime) {
		t.Errorf("expected ErrNoRuntime, got %v", err)
	}
}
