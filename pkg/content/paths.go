// Package content locates the game's Content directory and watches it for
// changes.
package content

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/summit-editor/summit/pkg/errs"
)

const macBundle = "Celeste.app"

// Paths resolves files under an install's Content directory.
type Paths struct {
	// Resources is the directory holding Content/.
	Resources string
}

// NewPaths resolves paths for an install directory on this OS.
func NewPaths(installDir string) Paths {
	return PathsFor(installDir, runtime.GOOS)
}

// PathsFor resolves paths as they are laid out on goos. On macOS the content
// sits inside the app bundle's Contents/Resources.
func PathsFor(installDir, goos string) Paths {
	base := installDir

	if goos == "darwin" {
		if filepath.Base(base) != macBundle {
			base = filepath.Join(base, macBundle)
		}

		base = filepath.Join(base, "Contents", "Resources")
	}

	return Paths{Resources: base}
}

// Content returns the Content directory.
func (p Paths) Content() string {
	return filepath.Join(p.Resources, "Content")
}

// Graphics returns Content/Graphics.
func (p Paths) Graphics() string {
	return filepath.Join(p.Content(), "Graphics")
}

// Atlases returns the directory holding the .meta and .data files.
func (p Paths) Atlases() string {
	return filepath.Join(p.Graphics(), "Atlases")
}

// AtlasMeta returns the index file of the named atlas.
func (p Paths) AtlasMeta(name string) string {
	return filepath.Join(p.Atlases(), name+".meta")
}

// ForegroundTiles returns the foreground tile rule file.
func (p Paths) ForegroundTiles() string {
	return filepath.Join(p.Graphics(), "ForegroundTiles.xml")
}

// BackgroundTiles returns the background tile rule file.
func (p Paths) BackgroundTiles() string {
	return filepath.Join(p.Graphics(), "BackgroundTiles.xml")
}

// Maps returns the directory holding the shipped .bin maps.
func (p Paths) Maps() string {
	return filepath.Join(p.Content(), "Maps")
}

// DetectInstallDir returns the first default install location that exists.
func DetectInstallDir() (string, error) {
	home, _ := os.UserHomeDir()

	for _, dir := range candidates(runtime.GOOS, home, os.Getenv("APPDATA")) {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}

	return "", errs.NotFound("Celeste install directory")
}

func candidates(goos, home, appData string) []string {
	var dirs []string

	switch goos {
	case "darwin":
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Application Support", "Steam", "steamapps", "common", "Celeste"))
		}
	case "windows":
		if appData != "" {
			dirs = append(dirs, filepath.Join(appData, "Celeste"))
		}
	default:
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".local", "share", "Celeste"))
		}
	}

	return dirs
}
