// Package github resolves GitHub releases and downloads release assets with
// local caching and progress reporting.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sporeforge/sporeforge/pkg/telemetry"
)

// ErrAssetNotFound is returned when a release has no asset with the
// requested name.
var ErrAssetNotFound = errors.New("asset not found in release")

// Release is a published GitHub release.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// FindAsset returns the asset with the exact given name, or nil.
func (r *Release) FindAsset(name string) *Asset {
	for i := range r.Assets {
		if r.Assets[i].Name == name {
			return &r.Assets[i]
		}
	}
	return nil
}

// ProgressFunc receives download completion percentages in [0, 100].
type ProgressFunc func(percent int)

// Client talks to the GitHub releases API for one repository.
type Client struct {
	// BaseURL is the API root, overridable for tests.
	BaseURL string

	owner    string
	repo     string
	cacheDir string
	http     *http.Client
	logger   *telemetry.Logger
}

// NewClient creates a release client for owner/repo caching downloads under
// cacheDir.
func NewClient(owner, repo, cacheDir string, logger *telemetry.Logger) *Client {
	return &Client{
		BaseURL:  "https://api.github.com",
		owner:    owner,
		repo:     repo,
		cacheDir: cacheDir,
		http:     &http.Client{Timeout: 5 * time.Minute},
		logger:   logger.NewComponentLogger("github"),
	}
}

// LatestRelease fetches the repository's latest published release.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.BaseURL, c.owner, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release request returned %s", resp.Status)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}
	return &release, nil
}

// DownloadAsset retrieves asset into the cache directory and returns its
// local path. With cacheEnabled, a previously downloaded file is reused
// without touching the network. The progress callback, when non-nil,
// receives percentages derived from the response length.
func (c *Client) DownloadAsset(ctx context.Context, asset *Asset, cacheEnabled bool, progress ProgressFunc) (string, error) {
	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache dir: %w", err)
	}
	dest := filepath.Join(c.cacheDir, asset.Name)

	if cacheEnabled {
		if _, err := os.Stat(dest); err == nil {
			c.logger.Debugf("using cached asset %s", dest)
			if progress != nil {
				progress(100)
			}
			return dest, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.BrowserDownloadURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", asset.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download of %s returned %s", asset.Name, resp.Status)
	}

	// Download to a temp file first so a failed transfer never poisons the
	// cache with a truncated asset.
	tmp, err := os.CreateTemp(c.cacheDir, asset.Name+".partial-*")
	if err != nil {
		return "", fmt.Errorf("failed to create download file: %w", err)
	}
	defer os.Remove(tmp.Name())

	total := resp.ContentLength
	if total <= 0 {
		total = asset.Size
	}
	writer := io.Writer(tmp)
	if progress != nil && total > 0 {
		writer = io.MultiWriter(tmp, &progressWriter{total: total, progress: progress})
	}

	if _, err := io.Copy(writer, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to download %s: %w", asset.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to finish download: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("failed to move download into cache: %w", err)
	}

	if progress != nil {
		progress(100)
	}
	c.logger.Debugf("downloaded %s (%s)", dest, asset.BrowserDownloadURL)
	return dest, nil
}

// progressWriter converts written byte counts into percentage callbacks,
// deduplicating repeats.
type progressWriter struct {
	total    int64
	written  int64
	last     int
	progress ProgressFunc
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	pct := int(w.written * 100 / w.total)
	if pct > 100 {
		pct = 100
	}
	if pct != w.last {
		w.last = pct
		w.progress(pct)
	}
	return len(p), nil
}
