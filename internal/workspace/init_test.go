package workspace

import (
	"errors"
	"os"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/vmakaev/rslph/internal/config"
)

func TestInitWritesDefaultConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := Init(false); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	data, err := os.ReadFile(ConfigPath("."))
	if err != nil {
		t.Fatalf("expected config.yaml to exist: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("scaffolded config.yaml does not parse as yaml: %v", err)
	}
	if cfg.Agent.Binary != "claude" {
		t.Errorf("Agent.Binary = %q, want claude", cfg.Agent.Binary)
	}
	if cfg.Build.MaxIterations != 20 {
		t.Errorf("Build.MaxIterations = %d, want 20", cfg.Build.MaxIterations)
	}
}

func TestInitRefusesToOverwriteWithoutForce(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := Init(false); err != nil {
		t.Fatalf("first Init() error: %v", err)
	}
	err := Init(false)
	if !errors.Is(err, ErrWorkspaceExists) {
		t.Fatalf("second Init() error = %v, want ErrWorkspaceExists", err)
	}
}

func TestInitForceOverwrites(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := Init(false); err != nil {
		t.Fatalf("first Init() error: %v", err)
	}
	if err := Init(true); err != nil {
		t.Fatalf("forced Init() error: %v", err)
	}
}
