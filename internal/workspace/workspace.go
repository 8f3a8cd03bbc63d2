package workspace

import (
	"os"
	"path/filepath"
)

// ConfigDir is the optional config directory name. Its presence is never
// required: the engine's state lives in the progress document named on the
// command line, not under this directory (spec §6).
const ConfigDir = ".rslph"

// Find walks up from cwd looking for a .rslph/ directory, returning the
// directory that contains it. If none is found anywhere up to the
// filesystem root, it returns the original cwd: an absent config directory
// is not an error, since config.Load already supplies defaults for it.
func Find() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	start := dir

	for {
		candidate := filepath.Join(dir, ConfigDir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return start, nil
		}
		dir = parent
	}
}

// Path returns the .rslph directory path for a workspace.
func Path(workspaceDir string) string {
	return filepath.Join(workspaceDir, ConfigDir)
}

// ConfigPath returns the config.yaml path for a workspace.
func ConfigPath(workspaceDir string) string {
	return filepath.Join(workspaceDir, ConfigDir, "config.yaml")
}
