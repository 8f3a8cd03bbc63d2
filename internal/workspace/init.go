package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vmakaev/rslph/internal/config"
)

// ErrWorkspaceExists is returned by Init when a .rslph directory is already
// present and force was not requested.
var ErrWorkspaceExists = fmt.Errorf("rslph workspace already exists (use --force to overwrite)")

// Init scaffolds a .rslph/config.yaml in the current directory, seeded with
// DefaultConfig so a user can see and edit every tunable in one place.
func Init(force bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := Path(cwd)
	if _, err := os.Stat(dir); err == nil {
		if !force {
			return ErrWorkspaceExists
		}
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove existing config directory: %w", err)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	configPath := ConfigPath(cwd)
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	fmt.Println("Initialized rslph config at", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit", configPath, "to point at your agent CLI")
	fmt.Println("  2. Run 'rslph plan <idea-file>' to produce a progress document")
	fmt.Println("  3. Run 'rslph build <progress-file>' to drive it to completion")

	return nil
}
