// Package steam locates the host's Steam installation and the games
// installed in its library folders.
package steam

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNoSteamRoot is returned when no Steam installation can be found.
var ErrNoSteamRoot = fmt.Errorf("steam installation not found")

// Platform identifies where a game record came from.
type Platform string

// Platform values.
const (
	PlatformSteam Platform = "steam"
)

// GameRecord describes one installed game. Identity is by Path.
type GameRecord struct {
	// Name is the game's display name from its app manifest.
	Name string

	// Path is the host absolute install directory.
	Path string

	// Platform is the store the game was installed through.
	Platform Platform
}

// Locator finds the Steam root and installed games.
type Locator struct {
	// candidates are probed in order for a steamapps directory.
	candidates []string
}

// NewLocator creates a Locator probing the conventional Steam install
// locations.
func NewLocator() (*Locator, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return &Locator{
		candidates: []string{
			filepath.Join(home, ".local/share/Steam"),
			filepath.Join(home, ".steam/steam"),
			filepath.Join(home, ".steam/root"),
			filepath.Join(home, ".var/app/com.valvesoftware.Steam/data/Steam"),
		},
	}, nil
}

// NewLocatorWithCandidates creates a Locator probing the given roots in
// order. Intended for tests.
func NewLocatorWithCandidates(roots []string) *Locator {
	return &Locator{candidates: roots}
}

// Root returns the first candidate that looks like a Steam installation (has
// a steamapps directory). Returns ErrNoSteamRoot when none qualifies.
func (l *Locator) Root() (string, error) {
	for _, c := range l.candidates {
		info, err := os.Stat(filepath.Join(c, "steamapps"))
		if err == nil && info.IsDir() {
			return c, nil
		}
	}
	return "", ErrNoSteamRoot
}

// FindAllGames scans every Steam library folder for installed games. The
// scan reads libraryfolders.vdf to enumerate libraries and each library's
// appmanifest files for name and install directory.
func (l *Locator) FindAllGames() ([]GameRecord, error) {
	root, err := l.Root()
	if err != nil {
		return nil, err
	}

	libraries := []string{root}
	vdf := filepath.Join(root, "steamapps", "libraryfolders.vdf")
	if data, err := os.ReadFile(vdf); err == nil {
		for _, p := range vdfFieldValues(string(data), "path") {
			if p != root {
				libraries = append(libraries, p)
			}
		}
	}

	var games []GameRecord
	for _, lib := range libraries {
		steamapps := filepath.Join(lib, "steamapps")
		manifests, err := filepath.Glob(filepath.Join(steamapps, "appmanifest_*.acf"))
		if err != nil {
			continue
		}
		for _, manifest := range manifests {
			rec, err := parseAppManifest(manifest, steamapps)
			if err != nil {
				continue
			}
			games = append(games, rec)
		}
	}
	return games, nil
}

// FindGame returns the first installed game whose name contains the given
// substring, case-insensitively.
func (l *Locator) FindGame(nameContains string) (*GameRecord, error) {
	games, err := l.FindAllGames()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(nameContains)
	for i := range games {
		if strings.Contains(strings.ToLower(games[i].Name), needle) {
			return &games[i], nil
		}
	}
	return nil, nil
}

// vdfField matches the flat "key" "value" lines Steam's VDF files use. The
// nested block structure is irrelevant for the fields read here.
var vdfField = regexp.MustCompile(`"([^"]+)"\s+"([^"]*)"`)

// vdfFieldValues returns every value whose key matches key, in file order.
func vdfFieldValues(data, key string) []string {
	var values []string
	for _, m := range vdfField.FindAllStringSubmatch(data, -1) {
		if m[1] == key {
			values = append(values, m[2])
		}
	}
	return values
}

// vdfFieldValue returns the first value for key, or "".
func vdfFieldValue(data, key string) string {
	if vals := vdfFieldValues(data, key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// parseAppManifest reads one appmanifest ACF file into a GameRecord.
func parseAppManifest(path, steamapps string) (GameRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GameRecord{}, err
	}

	name := vdfFieldValue(string(data), "name")
	installdir := vdfFieldValue(string(data), "installdir")
	if name == "" || installdir == "" {
		return GameRecord{}, fmt.Errorf("manifest %s missing name or installdir", path)
	}

	return GameRecord{
		Name:     name,
		Path:     filepath.Join(steamapps, "common", installdir),
		Platform: PlatformSteam,
	}, nil
}
