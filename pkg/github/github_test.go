package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sporeforge/sporeforge/pkg/telemetry"
)

func testLogger(t *testing.T) *telemetry.Logger {
	t.Helper()
	logger, err := telemetry.NewLogger(telemetry.LoggingConfig{Level: "error"})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return logger
}

// newTestServer serves a latest-release document and one downloadable asset,
// counting download hits.
func newTestServer(t *testing.T, assetBody string, hits *int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/repos/Spore-Community/modapi-launcher-kit/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"tag_name": "v2.5.20",
			"assets": [
				{"name": "ModAPI.InterimSetup.exe", "browser_download_url": %q, "size": %d},
				{"name": "Source.zip", "browser_download_url": %q, "size": 10}
			]
		}`, server.URL+"/download/ModAPI.InterimSetup.exe", len(assetBody), server.URL+"/download/Source.zip")
	})
	mux.HandleFunc("/download/ModAPI.InterimSetup.exe", func(w http.ResponseWriter, r *http.Request) {
		*hits++
		w.Write([]byte(assetBody))
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c := NewClient("Spore-Community", "modapi-launcher-kit", t.TempDir(), testLogger(t))
	c.BaseURL = serverURL
	return c
}

func TestLatestReleaseAndFindAsset(t *testing.T) {
	var hits int
	server := newTestServer(t, "MZfake", &hits)
	c := newTestClient(t, server.URL)

	release, err := c.LatestRelease(context.Background())
	if err != nil {
		t.Fatalf("LatestRelease() failed: %v", err)
	}
	if release.TagName != "v2.5.20" {
		t.Errorf("TagName = %q, want v2.5.20", release.TagName)
	}

	asset := release.FindAsset("ModAPI.InterimSetup.exe")
	if asset == nil {
		t.Fatal("FindAsset() returned nil for present asset")
	}
	if release.FindAsset("Missing.exe") != nil {
		t.Error("FindAsset() returned a match for an absent asset")
	}
}

func TestDownloadAssetWritesAndCaches(t *testing.T) {
	var hits int
	server := newTestServer(t, "MZfake-installer-bytes", &hits)
	c := newTestClient(t, server.URL)

	release, err := c.LatestRelease(context.Background())
	if err != nil {
		t.Fatalf("LatestRelease() failed: %v", err)
	}
	asset := release.FindAsset("ModAPI.InterimSetup.exe")

	var lastPct int
	path, err := c.DownloadAsset(context.Background(), asset, true, func(pct int) { lastPct = pct })
	if err != nil {
		t.Fatalf("DownloadAsset() failed: %v", err)
	}
	if filepath.Base(path) != "ModAPI.InterimSetup.exe" {
		t.Errorf("downloaded to %q, want asset-named file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read download: %v", err)
	}
	if string(data) != "MZfake-installer-bytes" {
		t.Errorf("downloaded content mismatch: %q", data)
	}
	if lastPct != 100 {
		t.Errorf("final progress = %d, want 100", lastPct)
	}
	if hits != 1 {
		t.Fatalf("expected 1 download hit, got %d", hits)
	}

	// Cached: second call must not touch the network.
	if _, err := c.DownloadAsset(context.Background(), asset, true, nil); err != nil {
		t.Fatalf("cached DownloadAsset() failed: %v", err)
	}
	if hits != 1 {
		t.Errorf("cache miss: %d download hits", hits)
	}

	// Cache disabled: re-download.
	if _, err := c.DownloadAsset(context.Background(), asset, false, nil); err != nil {
		t.Fatalf("uncached DownloadAsset() failed: %v", err)
	}
	if hits != 2 {
		t.Errorf("expected re-download with cache disabled, got %d hits", hits)
	}
}

func TestLatestReleaseHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL)
	if _, err := c.LatestRelease(context.Background()); err == nil {
		t.Error("expected error for non-200 response, got nil")
	}
}

func TestDownloadAssetHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL)
	asset := &Asset{Name: "ModAPI.InterimSetup.exe", BrowserDownloadURL: server.URL + "/gone"}
	if _, err := c.DownloadAsset(context.Background(), asset, false, nil); err == nil {
		t.Error("expected error for failed download, got nil")
	}

	// A failed download must leave nothing behind under the asset name.
	if _, err := os.Stat(filepath.Join(c.cacheDir, asset.Name)); err == nil {
		t.Error("failed download left a file in the cache")
	}
}
